package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pay "storefront/internal/payment"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// StripeProvider はStripe Checkoutの実装。API呼び出しはサーキットブレーカー越しに行う
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	cb            *gobreaker.CircuitBreaker[any]
}

func NewStripeProvider(secretKey, webhookSecret string, log *zap.Logger) *StripeProvider {
	return &StripeProvider{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		cb:            newBreaker("stripe", log),
	}
}

func newBreaker(name string, log *zap.Logger) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		// 4xx（入力の問題）はプロバイダ障害として数えない
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *stripe.Error
			return errors.As(err, &se) && se.HTTPStatusCode > 0 && se.HTTPStatusCode < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

func call[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	v, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %v", pay.ErrUnavailable, err)
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func (p *StripeProvider) CreateCoupon(ctx context.Context, req pay.CouponRequest) (string, error) {
	params := &stripe.CouponParams{
		Name:           stripe.String(req.Name),
		AmountOff:      stripe.Int64(req.AmountOff),
		Currency:       stripe.String(req.Currency),
		Duration:       stripe.String(string(stripe.CouponDurationOnce)),
		MaxRedemptions: stripe.Int64(1),
	}
	params.Context = ctx

	c, err := call(p.cb, func() (*stripe.Coupon, error) {
		return p.api.Coupons.New(params)
	})
	if err != nil {
		return "", fmt.Errorf("create coupon: %w", err)
	}
	return c.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req pay.SessionRequest) (pay.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Context = ctx

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for _, l := range req.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Name),
		}
		if l.Description != "" {
			product.Description = stripe.String(l.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	if req.CouponID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(req.CouponID)},
		}
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := call(p.cb, func() (*stripe.CheckoutSession, error) {
		return p.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return pay.Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	return toSession(s), nil
}

func (p *StripeProvider) RetrieveSession(ctx context.Context, sessionID string) (pay.Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := call(p.cb, func() (*stripe.CheckoutSession, error) {
		return p.api.CheckoutSessions.Get(sessionID, params)
	})
	if err != nil {
		return pay.Session{}, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return toSession(s), nil
}

func toSession(s *stripe.CheckoutSession) pay.Session {
	out := pay.Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

// ParseWebhook は署名を検証し、扱うイベントだけ中身を取り出す
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (pay.Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return pay.Event{}, fmt.Errorf("%w: %v", pay.ErrInvalidSignature, err)
	}

	out := pay.Event{ID: ev.ID, Type: pay.EventType(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch out.Type {
	case pay.EventCheckoutCompleted, pay.EventCheckoutAsyncPaymentSucceeded:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return pay.Event{}, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = cs.ID
		if cs.PaymentIntent != nil {
			out.PaymentIntentID = cs.PaymentIntent.ID
		}

	case pay.EventPaymentSucceeded, pay.EventPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return pay.Event{}, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntentID = pi.ID
		if pi.LastPaymentError != nil {
			out.FailureMessage = pi.LastPaymentError.Msg
		}

	case pay.EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(ev.Data.Raw, &ch); err != nil {
			return pay.Event{}, fmt.Errorf("decode charge: %w", err)
		}
		out.Amount = ch.Amount
		out.AmountRefunded = ch.AmountRefunded
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}

	case pay.EventDisputeCreated:
		var dp stripe.Dispute
		if err := json.Unmarshal(ev.Data.Raw, &dp); err != nil {
			return pay.Event{}, fmt.Errorf("decode dispute: %w", err)
		}
		out.DisputeID = dp.ID
		out.DisputeReason = string(dp.Reason)
		out.Amount = dp.Amount
		if dp.PaymentIntent != nil {
			out.PaymentIntentID = dp.PaymentIntent.ID
		}
	}

	return out, nil
}

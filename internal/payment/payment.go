// Package payment は決済プロバイダとのやり取りの約束。
// 金額はすべて最小通貨単位（セント）の整数で渡す。
package payment

import (
	"context"
	"errors"
)

var (
	// 署名が無い・一致しない
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// プロバイダが落ちている（サーキットブレーカーが開いている）
	ErrUnavailable = errors.New("payment provider unavailable")
)

// Checkoutセッションの支払い状態
const (
	StatusPaid              = "paid"
	StatusUnpaid            = "unpaid"
	StatusNoPaymentRequired = "no_payment_required"
)

type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// 1回だけ使える定額クーポン
type CouponRequest struct {
	Name      string
	AmountOff int64
	Currency  string
}

type SessionRequest struct {
	Currency      string
	Lines         []LineItem
	CouponID      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type Session struct {
	ID              string
	URL             string
	PaymentStatus   string
	PaymentIntentID string
	AmountTotal     int64
	CustomerEmail   string
	Metadata        map[string]string
}

func (s Session) Paid() bool {
	return s.PaymentStatus == StatusPaid || s.PaymentStatus == StatusNoPaymentRequired
}

type EventType string

const (
	EventCheckoutCompleted             EventType = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded EventType = "checkout.session.async_payment_succeeded"
	EventPaymentSucceeded              EventType = "payment_intent.succeeded"
	EventPaymentFailed                 EventType = "payment_intent.payment_failed"
	EventChargeRefunded                EventType = "charge.refunded"
	EventDisputeCreated                EventType = "charge.dispute.created"
)

// 検証済みのWebhookイベント（必要な項目だけ）
type Event struct {
	ID   string
	Type EventType

	SessionID       string
	PaymentIntentID string

	//charge.refunded
	Amount         int64
	AmountRefunded int64

	//charge.dispute.created
	DisputeID     string
	DisputeReason string

	//payment_intent.payment_failed
	FailureMessage string
}

// 全額返金か
func (e Event) FullyRefunded() bool {
	return e.Amount > 0 && e.AmountRefunded >= e.Amount
}

type Provider interface {
	CreateCoupon(ctx context.Context, req CouponRequest) (string, error)
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (Session, error)

	// 署名を検証してから中身を読む
	ParseWebhook(payload []byte, signature string) (Event, error)
}

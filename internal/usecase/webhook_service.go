package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/messaging"
	pay "storefront/internal/payment"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// Webhookから注文を確定する窓口（CheckoutService）
type OrderConfirmer interface {
	Confirm(ctx context.Context, sessionID string) (OrderOutput, error)
}

// WebhookService は決済プロバイダのイベントを注文の状態に反映する。
// 同じイベントが何度届いても結果が変わらないよう、更新はすべて条件付き
type WebhookService struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	checkout  OrderConfirmer
	provider  pay.Provider
	publisher messaging.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewWebhookService(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	checkout OrderConfirmer,
	provider pay.Provider,
	publisher messaging.Publisher,
	log *zap.Logger,
) *WebhookService {
	return &WebhookService{
		tx:        tx,
		orders:    orders,
		checkout:  checkout,
		provider:  provider,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Handle は署名を検証してからイベントを処理する。
// エラーを返すとプロバイダが再送する
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseWebhook(payload, signature)
	if errors.Is(err, pay.ErrInvalidSignature) {
		s.log.Warn("webhook signature rejected")
		return NewHTTPError(KindUnauthorized, "invalid signature")
	}
	if err != nil {
		return NewHTTPError(KindValidation, "invalid webhook payload")
	}

	log := s.log.With(zap.String("event_id", ev.ID), zap.String("event_type", string(ev.Type)))

	switch ev.Type {
	case pay.EventCheckoutCompleted, pay.EventCheckoutAsyncPaymentSucceeded:
		return s.checkoutCompleted(ctx, log, ev)
	case pay.EventPaymentSucceeded:
		return s.paymentSucceeded(ctx, log, ev)
	case pay.EventPaymentFailed:
		return s.paymentFailed(ctx, log, ev)
	case pay.EventChargeRefunded:
		return s.chargeRefunded(ctx, log, ev)
	case pay.EventDisputeCreated:
		return s.disputeCreated(ctx, log, ev)
	default:
		log.Debug("webhook event ignored")
		return nil
	}
}

func (s *WebhookService) checkoutCompleted(ctx context.Context, log *zap.Logger, ev pay.Event) error {
	if ev.SessionID == "" {
		log.Warn("checkout event without session id")
		return nil
	}
	_, err := s.checkout.Confirm(ctx, ev.SessionID)
	if he, ok := AsHTTPError(err); ok && he.Kind == KindConflict {
		//非同期決済の途中。async_payment_succeeded で改めて確定する
		log.Info("checkout session not paid yet", zap.String("session_id", ev.SessionID))
		return nil
	}
	return err
}

func (s *WebhookService) paymentSucceeded(ctx context.Context, log *zap.Logger, ev pay.Event) error {
	o, err := s.orders.FindByPaymentIntentID(ctx, ev.PaymentIntentID)
	if errors.Is(err, repo.ErrNotFound) {
		//checkout.session.completed より先に届いた。再送してもらう
		log.Warn("order not found for payment intent", zap.String("payment_intent_id", ev.PaymentIntentID))
		return NewHTTPError(KindNotFound, "order not found")
	}
	if err != nil {
		return internalError(err)
	}

	changed := false
	err = s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		paid, err := r.Orders().UpdatePaymentStatusIf(ctx, o.ID, model.PaymentStatusPaid,
			model.PaymentStatusPending, model.PaymentStatusFailed)
		if err != nil {
			return err
		}
		if paid {
			if err := r.AuditLogs().Create(ctx, s.paymentAudit(o, o.PaymentStatus, model.PaymentStatusPaid, ev.ID)); err != nil {
				return err
			}
			o.PaymentStatus = model.PaymentStatusPaid
			changed = true
		}

		confirmed, err := r.Orders().UpdateStatusIf(ctx, o.ID, model.OrderStatusConfirmed, model.OrderStatusPending)
		if err != nil {
			return err
		}
		if confirmed {
			if err := r.AuditLogs().Create(ctx, s.statusAudit(o, o.Status, model.OrderStatusConfirmed, ev.ID)); err != nil {
				return err
			}
			o.Status = model.OrderStatusConfirmed
			changed = true
		}
		return nil
	})
	if err != nil {
		return internalError(err)
	}

	if changed {
		publishOrderEvent(ctx, s.publisher, s.log, messaging.OrderPaymentUpdated, o)
	}
	return nil
}

func (s *WebhookService) paymentFailed(ctx context.Context, log *zap.Logger, ev pay.Event) error {
	o, err := s.orders.FindByPaymentIntentID(ctx, ev.PaymentIntentID)
	if errors.Is(err, repo.ErrNotFound) {
		//注文前の失敗（カードエラーなど）は何もしない
		log.Info("payment failed before order creation",
			zap.String("payment_intent_id", ev.PaymentIntentID),
			zap.String("reason", ev.FailureMessage),
		)
		return nil
	}
	if err != nil {
		return internalError(err)
	}

	changed := false
	err = s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		failed, err := r.Orders().UpdatePaymentStatusIf(ctx, o.ID, model.PaymentStatusFailed, model.PaymentStatusPending)
		if err != nil || !failed {
			return err
		}
		changed = true
		return r.AuditLogs().Create(ctx, s.paymentAudit(o, o.PaymentStatus, model.PaymentStatusFailed, ev.ID))
	})
	if err != nil {
		return internalError(err)
	}

	if changed {
		o.PaymentStatus = model.PaymentStatusFailed
		publishOrderEvent(ctx, s.publisher, s.log, messaging.OrderPaymentUpdated, o)
	}
	return nil
}

// 全額返金は在庫を戻す。一部返金は状態だけ
func (s *WebhookService) chargeRefunded(ctx context.Context, log *zap.Logger, ev pay.Event) error {
	o, err := s.orders.FindByPaymentIntentID(ctx, ev.PaymentIntentID)
	if errors.Is(err, repo.ErrNotFound) {
		log.Warn("refund for unknown payment intent", zap.String("payment_intent_id", ev.PaymentIntentID))
		return nil
	}
	if err != nil {
		return internalError(err)
	}

	if !ev.FullyRefunded() {
		return s.partialRefund(ctx, o, ev)
	}

	changed := false
	err = s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		refunded, err := r.Orders().UpdatePaymentStatusIf(ctx, o.ID, model.PaymentStatusRefunded,
			model.PaymentStatusPaid, model.PaymentStatusPartiallyRefunded, model.PaymentStatusPending)
		if err != nil || !refunded {
			return err
		}
		changed = true
		if err := r.AuditLogs().Create(ctx, s.paymentAudit(o, o.PaymentStatus, model.PaymentStatusRefunded, ev.ID)); err != nil {
			return err
		}

		statusChanged, err := r.Orders().UpdateStatusIf(ctx, o.ID, model.OrderStatusRefunded,
			model.OrderStatusPending, model.OrderStatusConfirmed, model.OrderStatusProcessing,
			model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if statusChanged {
			if err := r.AuditLogs().Create(ctx, s.statusAudit(o, o.Status, model.OrderStatusRefunded, ev.ID)); err != nil {
				return err
			}
		}

		//未実行の在庫・割引ステップは返金で打ち切る
		if _, err := r.Orders().MarkStepDone(ctx, o.ID, model.OrderStepDiscount); err != nil {
			return err
		}
		claimed, err := r.Orders().MarkStepDone(ctx, o.ID, model.OrderStepInventory)
		if err != nil {
			return err
		}
		if claimed {
			return nil
		}
		return s.restock(ctx, r, o, ev.ID)
	})
	if err != nil {
		return internalError(err)
	}

	if changed {
		o.PaymentStatus = model.PaymentStatusRefunded
		o.Status = model.OrderStatusRefunded
		log.Info("order refunded", zap.String("order_number", o.OrderNumber))
		publishOrderEvent(ctx, s.publisher, s.log, messaging.OrderRefunded, o)
	}
	return nil
}

func (s *WebhookService) partialRefund(ctx context.Context, o model.Order, ev pay.Event) error {
	changed := false
	err := s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Orders().UpdatePaymentStatusIf(ctx, o.ID, model.PaymentStatusPartiallyRefunded, model.PaymentStatusPaid)
		if err != nil || !ok {
			return err
		}
		changed = true
		return r.AuditLogs().Create(ctx, s.paymentAudit(o, o.PaymentStatus, model.PaymentStatusPartiallyRefunded, ev.ID))
	})
	if err != nil {
		return internalError(err)
	}
	if changed {
		o.PaymentStatus = model.PaymentStatusPartiallyRefunded
		publishOrderEvent(ctx, s.publisher, s.log, messaging.OrderPaymentUpdated, o)
	}
	return nil
}

// 注文で実際に減らした分だけ戻す
func (s *WebhookService) restock(ctx context.Context, r repo.TxRepos, o model.Order, eventID string) error {
	adjs, err := r.Inventory().ListAdjustmentsByOrderID(ctx, o.ID)
	if err != nil {
		return err
	}

	type stockKey struct {
		productID int64
		variantID int64
	}
	keyOf := func(a model.InventoryAdjustment) stockKey {
		k := stockKey{productID: a.ProductID}
		if a.VariantID != nil {
			k.variantID = *a.VariantID
		}
		return k
	}

	net := map[stockKey]int64{}
	var targets []model.InventoryAdjustment
	for _, a := range adjs {
		k := keyOf(a)
		if _, seen := net[k]; !seen {
			targets = append(targets, a)
		}
		net[k] += a.Delta
	}

	orderID := o.ID
	for _, a := range targets {
		qty := -net[keyOf(a)]
		if qty <= 0 {
			continue
		}
		if err := r.Inventory().Increment(ctx, a.ProductID, a.VariantID, qty); err != nil {
			return err
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID: a.ProductID,
			VariantID: a.VariantID,
			OrderID:   &orderID,
			Delta:     qty,
			Reason:    "refund " + o.OrderNumber,
		}); err != nil {
			return err
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  model.SystemActorID,
			Action:       model.AuditActionRestock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   a.ProductID,
			AfterJSON:    `{"order_number":"` + o.OrderNumber + `","quantity":` + strconv.FormatInt(qty, 10) + `}`,
			ExternalRef:  eventID,
			CreatedAt:    s.now(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// チャージバックは自動では何も変えない。記録して人が対応する
func (s *WebhookService) disputeCreated(ctx context.Context, log *zap.Logger, ev pay.Event) error {
	log = log.With(
		zap.String("dispute_id", ev.DisputeID),
		zap.String("reason", ev.DisputeReason),
		zap.String("payment_intent_id", ev.PaymentIntentID),
	)

	o, err := s.orders.FindByPaymentIntentID(ctx, ev.PaymentIntentID)
	if errors.Is(err, repo.ErrNotFound) {
		log.Warn("dispute opened for unknown payment intent")
		return nil
	}
	if err != nil {
		return internalError(err)
	}

	log.Warn("dispute opened", zap.String("order_number", o.OrderNumber))
	if err := s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  model.SystemActorID,
			Action:       model.AuditActionDisputeOpened,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			AfterJSON:    `{"dispute_id":"` + ev.DisputeID + `","reason":"` + ev.DisputeReason + `"}`,
			ExternalRef:  ev.ID,
			CreatedAt:    s.now(),
		})
	}); err != nil {
		return internalError(err)
	}
	return nil
}

func (s *WebhookService) paymentAudit(o model.Order, before, after model.PaymentStatus, eventID string) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  model.SystemActorID,
		Action:       model.AuditActionUpdatePaymentStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   o.ID,
		BeforeJSON:   `{"payment_status":"` + string(before) + `"}`,
		AfterJSON:    `{"payment_status":"` + string(after) + `"}`,
		ExternalRef:  eventID,
		CreatedAt:    s.now(),
	}
}

func (s *WebhookService) statusAudit(o model.Order, before, after model.OrderStatus, eventID string) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  model.SystemActorID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   o.ID,
		BeforeJSON:   `{"status":"` + string(before) + `"}`,
		AfterJSON:    `{"status":"` + string(after) + `"}`,
		ExternalRef:  eventID,
		CreatedAt:    s.now(),
	}
}

package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/messaging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 注文イベントを送る。失敗してもログだけ（本処理は止めない）
func publishOrderEvent(ctx context.Context, pub messaging.Publisher, log *zap.Logger, typ messaging.EventType, o model.Order) {
	ev := messaging.OrderEvent{
		ID:            uuid.NewString(),
		Type:          typ,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Total:         o.Total.StringFixed(2),
		Currency:      o.Currency,
		OccurredAt:    time.Now().UTC(),
	}
	if err := pub.PublishOrderEvent(ctx, ev); err != nil {
		log.Warn("order event publish failed",
			zap.String("type", string(typ)),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err),
		)
	}
}

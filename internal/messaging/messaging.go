package messaging

import (
	"context"
	"time"
)

// 注文イベントの種類
type EventType string

const (
	OrderCreated        EventType = "order.created"
	OrderPaymentUpdated EventType = "order.payment_updated"
	OrderRefunded       EventType = "order.refunded"
)

type OrderEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	OrderID       int64     `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Total         string    `json:"total"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// 失敗しても本処理は止めない（呼び出し側でログだけ出す）
type Publisher interface {
	PublishOrderEvent(ctx context.Context, ev OrderEvent) error
}

// KAFKA_BROKERS が無いとき
type Noop struct{}

func (Noop) PublishOrderEvent(context.Context, OrderEvent) error { return nil }

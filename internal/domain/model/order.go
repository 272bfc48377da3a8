package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusPaid              PaymentStatus = "PAID"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

type FulfillmentStatus string

const (
	FulfillmentStatusUnfulfilled FulfillmentStatus = "UNFULFILLED"
	FulfillmentStatusFulfilled   FulfillmentStatus = "FULFILLED"
)

// 注文確定後の後続処理（在庫・割引・カート）
type OrderStep string

const (
	OrderStepDiscount  OrderStep = "discount_recorded"
	OrderStepInventory OrderStep = "inventory_committed"
	OrderStepCart      OrderStep = "cart_cleared"
)

// 決済完了時に1回だけ作られる。以降はステータスだけが変わる
type Order struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string  `gorm:"type:varchar(32);not null;uniqueIndex" json:"order_number"`
	UserID      *int64  `gorm:"index" json:"user_id,omitempty"`
	SessionID   *string `gorm:"type:varchar(128);index" json:"-"`
	CartID      int64   `gorm:"not null" json:"-"`
	Email       string  `gorm:"type:varchar(255)" json:"email"`

	Status            OrderStatus       `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus     PaymentStatus     `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	FulfillmentStatus FulfillmentStatus `gorm:"type:varchar(20);not null" json:"fulfillment_status"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"`

	DiscountCodeID *int64 `gorm:"index" json:"discount_code_id,omitempty"`
	ShippingOption string `gorm:"type:varchar(32)" json:"shipping_option"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	//決済セッションID（冪等キー）
	PaymentSessionID string `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	PaymentIntentID  string `gorm:"type:varchar(255);index" json:"-"`

	//後続処理の完了フラグ（再実行時に未完了分だけやり直す）
	DiscountRecorded   bool `gorm:"not null;default:false" json:"-"`
	InventoryCommitted bool `gorm:"not null;default:false" json:"-"`
	CartCleared        bool `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 後続処理で未完了のもの
func (o Order) PendingSteps() []OrderStep {
	var steps []OrderStep
	if !o.DiscountRecorded {
		steps = append(steps, OrderStepDiscount)
	}
	if !o.InventoryCommitted {
		steps = append(steps, OrderStepInventory)
	}
	if !o.CartCleared {
		steps = append(steps, OrderStepCart)
	}
	return steps
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。購入時点の商品名・SKU・単価を固定で持つ
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64           `gorm:"not null;index" json:"order_id"`
	ProductID   int64           `gorm:"not null;index" json:"product_id"`
	VariantID   *int64          `json:"variant_id,omitempty"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	VariantName string          `gorm:"type:varchar(255)" json:"variant_name,omitempty"`
	SKU         string          `gorm:"type:varchar(100)" json:"sku"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 商品のバリアント（部位・重量違いなど）
// Price/Weight が入っていれば商品の値より優先する
type ProductVariant struct {
	ID           int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID    int64            `gorm:"not null;index" json:"product_id"`
	Name         string           `gorm:"type:varchar(255);not null" json:"name"`
	SKU          string           `gorm:"type:varchar(100)" json:"sku"`
	Price        *decimal.Decimal `gorm:"type:numeric(12,2)" json:"price,omitempty"`
	InventoryQty int64            `gorm:"not null;default:0" json:"inventory_qty"`
	Weight       *decimal.Decimal `gorm:"type:numeric(10,3)" json:"weight,omitempty"`
	IsActive     bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 実際に請求する単価
func EffectivePrice(p Product, v *ProductVariant) decimal.Decimal {
	if v != nil && v.Price != nil {
		return *v.Price
	}
	return p.Price
}

// 送料計算に使う重量
func EffectiveWeight(p Product, v *ProductVariant) decimal.Decimal {
	if v != nil && v.Weight != nil {
		return *v.Weight
	}
	return p.Weight
}

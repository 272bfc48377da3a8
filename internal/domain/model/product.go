package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品。価格は常に読み出し時点の値を使う（カートには保存しない）
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	SKU         string          `gorm:"type:varchar(100)" json:"sku"`
	Description string          `gorm:"type:text" json:"description"`
	CategoryID  *int64          `gorm:"index" json:"category_id"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`

	//在庫管理するかどうか。falseなら常に在庫ありとみなす
	TrackInventory bool `gorm:"not null;default:false" json:"track_inventory"`

	//バリアント無しで買われる場合の在庫
	InventoryQty int64 `gorm:"not null;default:0" json:"inventory_qty"`

	//送料計算用（lb）
	Weight   decimal.Decimal `gorm:"type:numeric(10,3);not null;default:0" json:"weight"`
	IsActive bool            `gorm:"not null;default:false" json:"is_active"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage   DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount  DiscountType = "FIXED_AMOUNT"
	DiscountTypeFreeShipping DiscountType = "FREE_SHIPPING"
)

// 適用範囲の種類
type DiscountScopeKind string

const (
	DiscountScopeAll        DiscountScopeKind = "ALL"
	DiscountScopeProducts   DiscountScopeKind = "PRODUCTS"
	DiscountScopeCategories DiscountScopeKind = "CATEGORIES"
)

// jsonbのID配列
type IDList []int64

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int64(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *IDList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = IDList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("IDList: unsupported type %T", src)
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

type DiscountCode struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Description string          `gorm:"type:text" json:"description"`
	Type        DiscountType    `gorm:"type:varchar(20);not null" json:"type"`
	Value       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"value"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`

	//有効期間（nilなら無制限）
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	//利用回数の上限
	UsageLimit            *int64 `json:"usage_limit,omitempty"`
	UsageCount            int64  `gorm:"not null;default:0" json:"usage_count"`
	UsageLimitPerCustomer *int64 `json:"usage_limit_per_customer,omitempty"`

	MinimumOrderAmount    *decimal.Decimal `gorm:"type:numeric(12,2)" json:"minimum_order_amount,omitempty"`
	MaximumDiscountAmount *decimal.Decimal `gorm:"type:numeric(12,2)" json:"maximum_discount_amount,omitempty"`

	ScopeKind             DiscountScopeKind `gorm:"type:varchar(20);not null;default:'ALL'" json:"scope_kind"`
	ApplicableProductIDs  IDList            `gorm:"type:jsonb;not null;default:'[]'" json:"applicable_product_ids"`
	ApplicableCategoryIDs IDList            `gorm:"type:jsonb;not null;default:'[]'" json:"applicable_category_ids"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

var ErrUnknownDiscountScope = errors.New("unknown discount scope")

// DBの値を価格計算用のScopeに変換
func (d DiscountCode) Scope() (pricing.Scope, error) {
	switch d.ScopeKind {
	case DiscountScopeAll, "":
		return pricing.AllProducts{}, nil
	case DiscountScopeProducts:
		return pricing.NewProductsScope(d.ApplicableProductIDs...), nil
	case DiscountScopeCategories:
		return pricing.NewCategoriesScope(d.ApplicableCategoryIDs...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDiscountScope, d.ScopeKind)
	}
}

// 価格計算のルールに変換
func (d DiscountCode) Rule() (pricing.Rule, error) {
	scope, err := d.Scope()
	if err != nil {
		return pricing.Rule{}, err
	}

	var t pricing.DiscountType
	switch d.Type {
	case DiscountTypePercentage:
		t = pricing.Percentage
	case DiscountTypeFixedAmount:
		t = pricing.FixedAmount
	case DiscountTypeFreeShipping:
		t = pricing.FreeShipping
	default:
		return pricing.Rule{}, fmt.Errorf("unknown discount type %q", d.Type)
	}

	return pricing.Rule{
		ID:                    d.ID,
		Code:                  d.Code,
		Type:                  t,
		Value:                 d.Value,
		Active:                d.IsActive,
		StartsAt:              d.StartsAt,
		ExpiresAt:             d.ExpiresAt,
		MinimumOrderAmount:    d.MinimumOrderAmount,
		MaximumDiscountAmount: d.MaximumDiscountAmount,
		UsageLimit:            d.UsageLimit,
		UsageCount:            d.UsageCount,
		UsageLimitPerCustomer: d.UsageLimitPerCustomer,
		Scope:                 scope,
	}, nil
}

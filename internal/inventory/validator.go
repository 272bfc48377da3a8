// Package inventory はカート行の販売可否と在庫を検証する。
// 読み取り専用で、在庫を変更しない。
package inventory

import (
	"fmt"

	"storefront/internal/domain/model"
)

type Reason string

const (
	ReasonProductInactive   Reason = "PRODUCT_INACTIVE"
	ReasonVariantInactive   Reason = "VARIANT_INACTIVE"
	ReasonInsufficientStock Reason = "INSUFFICIENT_STOCK"
)

// 検証対象の1行。Product/Variantは現在のDBの値（見つからなければnil）
type Line struct {
	LineID    int64
	ProductID int64
	VariantID *int64
	Quantity  int64
	Product   *model.Product
	Variant   *model.ProductVariant
}

type Violation struct {
	LineID    int64  `json:"line_id"`
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Reason    Reason `json:"reason"`
	Requested int64  `json:"requested"`
	Available *int64 `json:"available,omitempty"`
	Message   string `json:"message"`
}

// Validate は全行を検証して違反の一覧を返す（問題なければ空）。
// 在庫を見るのは商品が在庫管理ONのときだけ。
func Validate(lines []Line) []Violation {
	violations := make([]Violation, 0)
	for _, l := range lines {
		if v, ok := check(l); !ok {
			violations = append(violations, v)
		}
	}
	return violations
}

func check(l Line) (Violation, bool) {
	base := Violation{
		LineID:    l.LineID,
		ProductID: l.ProductID,
		VariantID: l.VariantID,
		Requested: l.Quantity,
	}

	//商品が無い・非公開
	if l.Product == nil || !l.Product.IsActive || l.Product.DeletedAt.Valid {
		base.Reason = ReasonProductInactive
		base.Message = "This product is no longer available"
		return base, false
	}

	//バリアント指定ありなら、その商品のバリアントで公開中であること
	if l.VariantID != nil {
		if l.Variant == nil || !l.Variant.IsActive || l.Variant.ProductID != l.Product.ID {
			base.Reason = ReasonVariantInactive
			base.Message = "This option is no longer available"
			return base, false
		}
	}

	if !l.Product.TrackInventory {
		return Violation{}, true
	}

	available := l.Product.InventoryQty
	if l.Variant != nil {
		available = l.Variant.InventoryQty
	}
	if available < 0 {
		available = 0
	}
	if l.Quantity > available {
		base.Reason = ReasonInsufficientStock
		base.Available = &available
		base.Message = stockMessage(available)
		return base, false
	}
	return Violation{}, true
}

func stockMessage(available int64) string {
	if available == 0 {
		return "This item is out of stock"
	}
	if available == 1 {
		return "Only 1 item in stock"
	}
	return fmt.Sprintf("Only %d items in stock", available)
}

package usecase

import (
	"context"
	"errors"
	"strconv"

	"storefront/internal/cartstore"
	"storefront/internal/domain/model"
	"storefront/internal/inventory"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 現在価格で読み直した明細
type pricedLine struct {
	Item      model.CartItem
	Product   *model.Product
	Variant   *model.ProductVariant
	UnitPrice decimal.Decimal
	Weight    decimal.Decimal
}

// カート＋商品＋割引コードをまとめたもの
type pricedCart struct {
	Cart       model.Cart
	Lines      []pricedLine
	Violations []inventory.Violation
	Discount   *model.DiscountCode
	Rule       *pricing.Rule
}

func (p pricedCart) pricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(p.Lines))
	for _, l := range p.Lines {
		var category *int64
		if l.Product != nil {
			category = l.Product.CategoryID
		}
		out = append(out, pricing.Line{
			ProductID:  l.Item.ProductID,
			CategoryID: category,
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Item.Quantity,
		})
	}
	return out
}

// 送料計算用の総重量
func (p pricedCart) weight() decimal.Decimal {
	w := decimal.Zero
	for _, l := range p.Lines {
		w = w.Add(l.Weight.Mul(decimal.NewFromInt(l.Item.Quantity)))
	}
	return w
}

func (p pricedCart) empty() bool {
	return len(p.Lines) == 0
}

// 明細と商品の読み込み。CartServiceとCheckoutServiceで共有する
type cartReader struct {
	items     repo.CartItemRepository
	products  repo.ProductRepository
	discounts repo.DiscountCodeRepository
}

// DBの明細と割引からスナップショットを作る
func (r cartReader) snapshot(ctx context.Context, cart model.Cart) (cartstore.Snapshot, error) {
	items, err := r.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return cartstore.Snapshot{}, err
	}

	snap := cartstore.Snapshot{Lines: make([]cartstore.Line, 0, len(items))}
	for _, it := range items {
		snap.Lines = append(snap.Lines, cartstore.Line{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}

	if cart.DiscountCodeID != nil {
		d, err := r.discounts.FindByID(ctx, *cart.DiscountCodeID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return cartstore.Snapshot{}, err
		}
		if err == nil {
			snap.Discount = snapshotDiscount(d)
		}
	}
	return snap, nil
}

func snapshotDiscount(d model.DiscountCode) *cartstore.Discount {
	rule, err := d.Rule()
	if err != nil {
		return nil
	}
	return &cartstore.Discount{
		Code:              d.Code,
		Type:              rule.Type,
		Value:             d.Value,
		MinOrderAmount:    d.MinimumOrderAmount,
		MaxDiscountAmount: d.MaximumDiscountAmount,
	}
}

// price は明細を現在の商品価格で読み直し、在庫チェックもする
func (r cartReader) price(ctx context.Context, cart model.Cart, snap cartstore.Snapshot) (pricedCart, error) {
	out := pricedCart{Cart: cart, Violations: []inventory.Violation{}}

	ids := make([]int64, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := r.products.FindByIDs(ctx, ids)
	if err != nil {
		return pricedCart{}, err
	}
	byID := make(map[int64]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	checks := make([]inventory.Line, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		pl := pricedLine{
			Item: model.CartItem{
				ID:        l.ID,
				CartID:    cart.ID,
				ProductID: l.ProductID,
				VariantID: l.VariantID,
				Quantity:  l.Quantity,
			},
			Product: byID[l.ProductID],
		}
		if pl.Product != nil {
			pl.Variant = findVariant(*pl.Product, l.VariantID)
			pl.UnitPrice = model.EffectivePrice(*pl.Product, pl.Variant)
			pl.Weight = model.EffectiveWeight(*pl.Product, pl.Variant)
		}
		out.Lines = append(out.Lines, pl)

		checks = append(checks, inventory.Line{
			LineID:    l.ID,
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Product:   pl.Product,
			Variant:   pl.Variant,
		})
	}
	out.Violations = inventory.Validate(checks)

	if snap.Discount != nil {
		d, err := r.discounts.FindByCode(ctx, snap.Discount.Code)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return pricedCart{}, err
		}
		if err == nil {
			if err := out.setDiscount(d); err != nil {
				return pricedCart{}, err
			}
		}
	}
	return out, nil
}

func (p *pricedCart) setDiscount(d model.DiscountCode) error {
	rule, err := d.Rule()
	if err != nil {
		return err
	}
	p.Discount = &d
	p.Rule = &rule
	return nil
}

func findVariant(p model.Product, variantID *int64) *model.ProductVariant {
	if variantID == nil {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].ID == *variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// カート単位のキャッシュキー
func mirrorKey(cartID int64) string {
	return strconv.FormatInt(cartID, 10)
}

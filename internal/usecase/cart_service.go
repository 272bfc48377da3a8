package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/cartstore"
	"storefront/internal/domain/model"
	"storefront/internal/inventory"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartService はゲスト・ログインユーザー共通のサーバー側カート。
// 読み取りはRedisのミラーを使い、更新のたびにミラーを消す。
type CartService struct {
	tx        repo.TransactionManager
	carts     repo.CartRepository
	items     repo.CartItemRepository
	products  repo.ProductRepository
	discounts repo.DiscountCodeRepository
	orders    repo.OrderRepository
	mirror    cartstore.Persister
	log       *zap.Logger

	reader cartReader
	group  singleflight.Group
	now    func() time.Time
}

func NewCartService(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	items repo.CartItemRepository,
	products repo.ProductRepository,
	discounts repo.DiscountCodeRepository,
	orders repo.OrderRepository,
	mirror cartstore.Persister,
	log *zap.Logger,
) *CartService {
	return &CartService{
		tx:        tx,
		carts:     carts,
		items:     items,
		products:  products,
		discounts: discounts,
		orders:    orders,
		mirror:    mirror,
		log:       log,
		reader:    cartReader{items: items, products: products, discounts: discounts},
		now:       time.Now,
	}
}

type CartItemView struct {
	ID          int64                `json:"id"`
	ProductID   int64                `json:"product_id"`
	VariantID   *int64               `json:"variant_id,omitempty"`
	Name        string               `json:"name"`
	VariantName string               `json:"variant_name,omitempty"`
	SKU         string               `json:"sku"`
	UnitPrice   decimal.Decimal      `json:"unit_price"`
	Quantity    int64                `json:"quantity"`
	LineTotal   decimal.Decimal      `json:"line_total"`
	Available   bool                 `json:"available"`
	Issue       *inventory.Violation `json:"issue,omitempty"`
}

type CartDiscountView struct {
	Code   string          `json:"code"`
	Type   string          `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
	//今のカートで使えない理由（使えるなら空）
	Error string `json:"error,omitempty"`
}

type CartView struct {
	ID             int64             `json:"id,omitempty"`
	Items          []CartItemView    `json:"items"`
	ItemCount      int64             `json:"item_count"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	Total          decimal.Decimal   `json:"total"`
	Discount       *CartDiscountView `json:"discount,omitempty"`
}

type AddItemInput struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
}

func emptyCartView() CartView {
	return CartView{
		Items:          []CartItemView{},
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		Total:          decimal.Zero,
	}
}

// GetCart はカートを返す。無ければ空（読み取りでは作らない）
func (s *CartService) GetCart(ctx context.Context, id Identity) (CartView, error) {
	if id.IsZero() {
		return emptyCartView(), nil
	}
	cart, err := findCart(ctx, s.carts, id)
	if errors.Is(err, repo.ErrNotFound) {
		return emptyCartView(), nil
	}
	if err != nil {
		return CartView{}, internalError(err)
	}

	//同じカートへの同時読み取りは1回にまとめる。先頭の呼び出し元が切れても他を巻き込まない
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(mirrorKey(cart.ID), func() (interface{}, error) {
		return s.buildView(shared, cart)
	})
	if err != nil {
		return CartView{}, asUsecaseError(err)
	}
	return v.(CartView), nil
}

// AddItem は明細を追加する（同じ商品・バリアントは数量を足す）
func (s *CartService) AddItem(ctx context.Context, id Identity, in AddItemInput) (CartView, error) {
	if id.IsZero() {
		return CartView{}, NewHTTPError(KindUnauthorized, "no cart session")
	}
	if in.ProductID <= 0 {
		return CartView{}, NewHTTPError(KindValidation, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartView{}, NewHTTPError(KindValidation, "quantity must be at least 1")
	}

	//商品チェック（公開のみ）
	p, err := s.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(KindNotFound, "product not found")
	}
	if err != nil {
		return CartView{}, internalError(err)
	}
	if !p.IsActive {
		return CartView{}, NewHTTPError(KindNotFound, "product not found")
	}
	variant := findVariant(p, in.VariantID)
	if in.VariantID != nil && (variant == nil || !variant.IsActive) {
		return CartView{}, NewHTTPError(KindNotFound, "variant not found")
	}

	cart, err := getOrCreateCart(ctx, s.carts, id)
	if err != nil {
		return CartView{}, internalError(err)
	}

	//既存の数量と合わせて在庫チェック
	existing, err := s.items.FindLine(ctx, cart.ID, in.ProductID, in.VariantID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return CartView{}, internalError(err)
	}
	if err := checkStock(existing.ID, &p, variant, in.VariantID, existing.Quantity+in.Quantity); err != nil {
		return CartView{}, err
	}

	if _, err := s.items.AddQuantity(ctx, cart.ID, in.ProductID, in.VariantID, in.Quantity); err != nil {
		return CartView{}, internalError(err)
	}

	s.invalidate(ctx, cart.ID)
	return s.viewAfterWrite(ctx, cart)
}

// UpdateItem は数量を置き換える。0以下なら削除
func (s *CartService) UpdateItem(ctx context.Context, id Identity, itemID int64, qty int64) (CartView, error) {
	cart, item, err := s.ownedItem(ctx, id, itemID)
	if err != nil {
		return CartView{}, err
	}

	if qty <= 0 {
		if err := s.items.DeleteByID(ctx, item.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return CartView{}, internalError(err)
		}
		s.invalidate(ctx, cart.ID)
		return s.viewAfterWrite(ctx, cart)
	}

	var product *model.Product
	p, err := s.products.FindByID(ctx, item.ProductID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return CartView{}, internalError(err)
	}
	if err == nil {
		product = &p
	}
	var variant *model.ProductVariant
	if product != nil {
		variant = findVariant(*product, item.VariantID)
	}
	if err := checkStock(item.ID, product, variant, item.VariantID, qty); err != nil {
		return CartView{}, err
	}

	if err := s.items.UpdateQuantity(ctx, item.ID, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartView{}, NewHTTPError(KindNotFound, "cart item not found")
		}
		return CartView{}, internalError(err)
	}

	s.invalidate(ctx, cart.ID)
	return s.viewAfterWrite(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, id Identity, itemID int64) (CartView, error) {
	cart, item, err := s.ownedItem(ctx, id, itemID)
	if err != nil {
		return CartView{}, err
	}
	if err := s.items.DeleteByID(ctx, item.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return CartView{}, internalError(err)
	}
	s.invalidate(ctx, cart.ID)
	return s.viewAfterWrite(ctx, cart)
}

// ClearCart は明細と割引を消す（カート自体は残す）
func (s *CartService) ClearCart(ctx context.Context, id Identity) (CartView, error) {
	if id.IsZero() {
		return emptyCartView(), nil
	}
	cart, err := findCart(ctx, s.carts, id)
	if errors.Is(err, repo.ErrNotFound) {
		return emptyCartView(), nil
	}
	if err != nil {
		return CartView{}, internalError(err)
	}

	err = s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.CartItems().DeleteByCartID(ctx, cart.ID); err != nil {
			return err
		}
		return r.Carts().SetDiscount(ctx, cart.ID, nil)
	})
	if err != nil {
		return CartView{}, internalError(err)
	}

	s.invalidate(ctx, cart.ID)
	cart.DiscountCodeID = nil
	return s.viewAfterWrite(ctx, cart)
}

// ApplyDiscount は今の小計で使えるコードだけをカートに付ける。既にあれば置き換える
func (s *CartService) ApplyDiscount(ctx context.Context, id Identity, code string) (CartView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return CartView{}, NewHTTPError(KindValidation, "discount code is required")
	}
	if id.IsZero() {
		return CartView{}, NewHTTPError(KindValidation, pricing.ErrEmptyCart.Error())
	}

	cart, err := findCart(ctx, s.carts, id)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(KindValidation, pricing.ErrEmptyCart.Error())
	}
	if err != nil {
		return CartView{}, internalError(err)
	}

	//ミラーではなくDBの明細で判定する
	snap, err := s.reader.snapshot(ctx, cart)
	if err != nil {
		return CartView{}, internalError(err)
	}
	priced, err := s.reader.price(ctx, cart, cartstore.Snapshot{Lines: snap.Lines})
	if err != nil {
		return CartView{}, internalError(err)
	}
	if priced.empty() {
		return CartView{}, NewHTTPError(KindValidation, pricing.ErrEmptyCart.Error())
	}

	d, err := s.discounts.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(KindNotFound, "discount code not found")
	}
	if err != nil {
		return CartView{}, internalError(err)
	}
	rule, err := d.Rule()
	if err != nil {
		return CartView{}, internalError(err)
	}

	var uses *int64
	if id.IsUser() {
		n, err := s.orders.CountByUserAndDiscount(ctx, *id.UserID, d.ID)
		if err != nil {
			return CartView{}, internalError(err)
		}
		uses = &n
	}

	lines := priced.pricingLines()
	if err := pricing.CheckEligibility(rule, pricing.EligibilityInput{
		Subtotal:     pricing.Subtotal(lines),
		Lines:        lines,
		Now:          s.now(),
		CustomerUses: uses,
	}); err != nil {
		return CartView{}, NewHTTPError(KindValidation, err.Error())
	}

	if err := s.carts.SetDiscount(ctx, cart.ID, &d.ID); err != nil {
		return CartView{}, internalError(err)
	}

	s.invalidate(ctx, cart.ID)
	cart.DiscountCodeID = &d.ID
	return s.viewAfterWrite(ctx, cart)
}

func (s *CartService) RemoveDiscount(ctx context.Context, id Identity) (CartView, error) {
	if id.IsZero() {
		return emptyCartView(), nil
	}
	cart, err := findCart(ctx, s.carts, id)
	if errors.Is(err, repo.ErrNotFound) {
		return emptyCartView(), nil
	}
	if err != nil {
		return CartView{}, internalError(err)
	}
	if err := s.carts.SetDiscount(ctx, cart.ID, nil); err != nil {
		return CartView{}, internalError(err)
	}
	s.invalidate(ctx, cart.ID)
	cart.DiscountCodeID = nil
	return s.viewAfterWrite(ctx, cart)
}

// MergeGuestCart はログイン時にゲストカートをユーザーのカートへまとめる。
// 同じ行は数量を足し、ゲストカートは消す。ゲストカートが無ければ何もしない
func (s *CartService) MergeGuestCart(ctx context.Context, userID int64, sessionID string) (CartView, error) {
	if userID <= 0 {
		return CartView{}, NewHTTPError(KindUnauthorized, "unauthorized")
	}
	user := Identity{UserID: &userID}
	if sessionID == "" {
		return s.GetCart(ctx, user)
	}

	guest, err := s.carts.FindBySessionID(ctx, sessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return s.GetCart(ctx, user)
	}
	if err != nil {
		return CartView{}, internalError(err)
	}

	//ユニーク制約違反でTxが壊れないよう、作成はTxの外で
	target, err := getOrCreateCart(ctx, s.carts, user)
	if err != nil {
		return CartView{}, internalError(err)
	}

	err = s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		userItems, err := r.CartItems().ListByCartID(ctx, target.ID)
		if err != nil {
			return err
		}
		guestItems, err := r.CartItems().ListByCartID(ctx, guest.ID)
		if err != nil {
			return err
		}

		current := make(map[cartstore.Key]int64, len(userItems))
		for _, it := range userItems {
			current[cartstore.KeyOf(it.ProductID, it.VariantID)] = it.Quantity
		}

		plan := cartstore.FromSnapshot(cartstore.Snapshot{Lines: toStoreLines(guestItems)})
		plan.Merge(toStoreLines(userItems))
		for _, l := range plan.Lines() {
			delta := l.Quantity - current[l.Key()]
			if delta <= 0 {
				continue
			}
			if _, err := r.CartItems().AddQuantity(ctx, target.ID, l.ProductID, l.VariantID, delta); err != nil {
				return err
			}
		}

		//ユーザー側に割引が無ければゲストの割引を引き継ぐ
		if target.DiscountCodeID == nil && guest.DiscountCodeID != nil {
			if err := r.Carts().SetDiscount(ctx, target.ID, guest.DiscountCodeID); err != nil {
				return err
			}
			target.DiscountCodeID = guest.DiscountCodeID
		}

		return r.Carts().Delete(ctx, guest.ID)
	})
	if err != nil {
		return CartView{}, internalError(err)
	}

	s.invalidate(ctx, guest.ID)
	s.invalidate(ctx, target.ID)
	return s.viewAfterWrite(ctx, target)
}

// 自分のカートの明細だけを返す。他人の明細はNOT_FOUND
func (s *CartService) ownedItem(ctx context.Context, id Identity, itemID int64) (model.Cart, model.CartItem, error) {
	if itemID <= 0 {
		return model.Cart{}, model.CartItem{}, NewHTTPError(KindValidation, "invalid id")
	}
	if id.IsZero() {
		return model.Cart{}, model.CartItem{}, NewHTTPError(KindNotFound, "cart item not found")
	}
	cart, err := findCart(ctx, s.carts, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, model.CartItem{}, NewHTTPError(KindNotFound, "cart item not found")
	}
	if err != nil {
		return model.Cart{}, model.CartItem{}, internalError(err)
	}
	item, err := s.items.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, model.CartItem{}, NewHTTPError(KindNotFound, "cart item not found")
	}
	if err != nil {
		return model.Cart{}, model.CartItem{}, internalError(err)
	}
	if item.CartID != cart.ID {
		return model.Cart{}, model.CartItem{}, NewHTTPError(KindNotFound, "cart item not found")
	}
	return cart, item, nil
}

// 更新直後はsingleflightを通さない（更新前の結果を共有しないため）
func (s *CartService) viewAfterWrite(ctx context.Context, cart model.Cart) (CartView, error) {
	v, err := s.buildView(ctx, cart)
	if err != nil {
		return CartView{}, asUsecaseError(err)
	}
	return v, nil
}

func (s *CartService) buildView(ctx context.Context, cart model.Cart) (CartView, error) {
	snap, err := s.loadSnapshot(ctx, cart)
	if err != nil {
		return CartView{}, err
	}
	priced, err := s.reader.price(ctx, cart, snap)
	if err != nil {
		return CartView{}, err
	}

	//最新の単価でStoreを組み直して合計を出す
	store := cartstore.FromSnapshot(snap)
	prices := make(map[cartstore.Key]decimal.Decimal, len(priced.Lines))
	for _, l := range priced.Lines {
		prices[cartstore.KeyOf(l.Item.ProductID, l.Item.VariantID)] = l.UnitPrice
	}
	store.Reprice(prices)

	view := CartView{
		ID:    cart.ID,
		Items: make([]CartItemView, 0, len(priced.Lines)),
	}

	issues := make(map[int64]inventory.Violation, len(priced.Violations))
	for _, v := range priced.Violations {
		issues[v.LineID] = v
	}
	for _, l := range priced.Lines {
		item := CartItemView{
			ID:        l.Item.ID,
			ProductID: l.Item.ProductID,
			VariantID: l.Item.VariantID,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Item.Quantity,
			LineTotal: pricing.Round(l.UnitPrice.Mul(decimal.NewFromInt(l.Item.Quantity))),
			Available: true,
		}
		if l.Product != nil {
			item.Name = l.Product.Name
			item.SKU = l.Product.SKU
		}
		if l.Variant != nil {
			item.VariantName = l.Variant.Name
			if l.Variant.SKU != "" {
				item.SKU = l.Variant.SKU
			}
		}
		if v, ok := issues[l.Item.ID]; ok {
			issue := v
			item.Available = false
			item.Issue = &issue
		}
		view.Items = append(view.Items, item)
	}

	store.RemoveDiscount()
	if priced.Discount != nil && priced.Rule != nil {
		dv := &CartDiscountView{
			Code:   priced.Discount.Code,
			Type:   string(priced.Discount.Type),
			Value:  priced.Discount.Value,
			Amount: decimal.Zero,
		}
		lines := priced.pricingLines()
		err := pricing.CheckEligibility(*priced.Rule, pricing.EligibilityInput{
			Subtotal: store.Subtotal(),
			Lines:    lines,
			Now:      s.now(),
		})
		if err == nil {
			err = store.ApplyDiscount(*snapshotDiscount(*priced.Discount), s.now())
		}
		if err != nil {
			dv.Error = err.Error()
		} else {
			dv.Amount = store.DiscountAmount()
		}
		view.Discount = dv
	}

	view.ItemCount = store.ItemCount()
	view.Subtotal = store.Subtotal()
	view.DiscountAmount = store.DiscountAmount()
	view.Total = store.Total()
	return view, nil
}

// ミラーに無ければDBから読んで保存する。Redisの失敗は読み取りを止めない
func (s *CartService) loadSnapshot(ctx context.Context, cart model.Cart) (cartstore.Snapshot, error) {
	key := mirrorKey(cart.ID)
	snap, err := s.mirror.Load(ctx, key)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cartstore.ErrSnapshotNotFound) {
		s.log.Warn("cart mirror load failed", zap.Int64("cart_id", cart.ID), zap.Error(err))
	}

	snap, err = s.reader.snapshot(ctx, cart)
	if err != nil {
		return cartstore.Snapshot{}, err
	}
	if err := s.mirror.Save(ctx, key, snap); err != nil {
		s.log.Warn("cart mirror save failed", zap.Int64("cart_id", cart.ID), zap.Error(err))
	}
	return snap, nil
}

func (s *CartService) invalidate(ctx context.Context, cartID int64) {
	if err := s.mirror.Delete(ctx, mirrorKey(cartID)); err != nil {
		s.log.Warn("cart mirror delete failed", zap.Int64("cart_id", cartID), zap.Error(err))
	}
}

// 1行分の在庫チェック。問題があればINVENTORY_ERROR
func checkStock(lineID int64, p *model.Product, v *model.ProductVariant, variantID *int64, qty int64) error {
	productID := int64(0)
	if p != nil {
		productID = p.ID
	}
	violations := inventory.Validate([]inventory.Line{{
		LineID:    lineID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  qty,
		Product:   p,
		Variant:   v,
	}})
	if len(violations) > 0 {
		return NewHTTPErrorWithDetails(KindInventory, violations[0].Message, violations)
	}
	return nil
}

func findCart(ctx context.Context, carts repo.CartRepository, id Identity) (model.Cart, error) {
	switch {
	case id.UserID != nil:
		return carts.FindByUserID(ctx, *id.UserID)
	case id.SessionID != "":
		return carts.FindBySessionID(ctx, id.SessionID)
	default:
		return model.Cart{}, repo.ErrNotFound
	}
}

// 探して無ければ作る。同時に作られたらユニーク制約の勝者を読み直す
func getOrCreateCart(ctx context.Context, carts repo.CartRepository, id Identity) (model.Cart, error) {
	cart, err := findCart(ctx, carts, id)
	if err == nil || !errors.Is(err, repo.ErrNotFound) {
		return cart, err
	}

	newCart := model.Cart{UserID: id.UserID}
	if id.UserID == nil {
		sid := id.SessionID
		newCart.SessionID = &sid
	}
	created, err := carts.Create(ctx, newCart)
	if errors.Is(err, repo.ErrDuplicate) {
		return findCart(ctx, carts, id)
	}
	return created, err
}

func toStoreLines(items []model.CartItem) []cartstore.Line {
	out := make([]cartstore.Line, 0, len(items))
	for _, it := range items {
		out = append(out, cartstore.Line{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}
	return out
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/cartstore"
	"storefront/internal/domain/model"
	"storefront/internal/inventory"
	"storefront/internal/messaging"
	pay "storefront/internal/payment"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const orderNumberAttempts = 5

// 決済セッションのメタデータのキー
const (
	metaCartID         = "cart_id"
	metaUserID         = "user_id"
	metaSessionID      = "session_id"
	metaShippingOption = "shipping_option"
	metaDiscountCodeID = "discount_code_id"
	metaEmail          = "email"
	metaShippingPrefix = "ship_"
	metaBillingPrefix  = "bill_"
	metaSubtotal       = "subtotal"
	metaTotal          = "total"
)

type CheckoutConfig struct {
	Currency   string
	TaxRate    decimal.Decimal
	Shipping   pricing.ShippingConfig
	SuccessURL string
	CancelURL  string
}

// CheckoutService はカートから決済セッションを作り、支払い完了後に注文を確定する。
// 注文の確定は決済セッションIDを冪等キーにして、何度呼ばれても1件しか作らない
type CheckoutService struct {
	tx         repo.TransactionManager
	carts      repo.CartRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	discounts  repo.DiscountCodeRepository
	provider   pay.Provider
	publisher  messaging.Publisher
	mirror     cartstore.Persister
	cfg        CheckoutConfig
	log        *zap.Logger

	reader cartReader
	now    func() time.Time
}

func NewCheckoutService(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	items repo.CartItemRepository,
	products repo.ProductRepository,
	discounts repo.DiscountCodeRepository,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	provider pay.Provider,
	publisher messaging.Publisher,
	mirror cartstore.Persister,
	cfg CheckoutConfig,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		tx:         tx,
		carts:      carts,
		orders:     orders,
		orderItems: orderItems,
		discounts:  discounts,
		provider:   provider,
		publisher:  publisher,
		mirror:     mirror,
		cfg:        cfg,
		log:        log,
		reader:     cartReader{items: items, products: products, discounts: discounts},
		now:        time.Now,
	}
}

type TotalsOutput struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	FreeShipping   bool            `json:"free_shipping"`
	ShippingOption string          `json:"shipping_option"`
	DiscountError  string          `json:"discount_error,omitempty"`
}

type ValidationOutput struct {
	Valid      bool                  `json:"valid"`
	Violations []inventory.Violation `json:"violations"`
	Totals     TotalsOutput          `json:"totals"`
}

type ShippingRatesOutput struct {
	Options []pricing.ShippingOption `json:"options"`
}

type CheckoutInput struct {
	ShippingOption  string
	Email           string
	ShippingAddress model.Address
	BillingAddress  *model.Address
}

type CheckoutSessionOutput struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func emptyCartError() error {
	return NewHTTPErrorWithDetails(KindValidation, "cart is empty", map[string]string{"reason": "EMPTY_CART"})
}

// Validate は在庫と金額を確認するだけで何も変更しない
func (s *CheckoutService) Validate(ctx context.Context, id Identity, shippingOption string) (ValidationOutput, error) {
	priced, err := s.loadCart(ctx, id)
	if err != nil {
		return ValidationOutput{}, err
	}

	totals, err := s.calculate(ctx, id, priced, shippingOption, false)
	if err != nil {
		return ValidationOutput{}, err
	}

	return ValidationOutput{
		Valid:      len(priced.Violations) == 0 && totals.DiscountError == "",
		Violations: priced.Violations,
		Totals:     totals,
	}, nil
}

// 配送方法ごとの送料
func (s *CheckoutService) ShippingRates(ctx context.Context, id Identity) (ShippingRatesOutput, error) {
	priced, err := s.loadCart(ctx, id)
	if err != nil {
		return ShippingRatesOutput{}, err
	}
	subtotal := pricing.Subtotal(priced.pricingLines())
	return ShippingRatesOutput{
		Options: pricing.ShippingRates(s.cfg.Shipping, subtotal, priced.weight()),
	}, nil
}

// CreateSession はサーバー側で金額を計算し直して決済セッションを作る
func (s *CheckoutService) CreateSession(ctx context.Context, id Identity, in CheckoutInput) (CheckoutSessionOutput, error) {
	priced, err := s.loadCart(ctx, id)
	if err != nil {
		return CheckoutSessionOutput{}, err
	}

	//在庫チェック
	if len(priced.Violations) > 0 {
		return CheckoutSessionOutput{}, NewHTTPErrorWithDetails(KindInventory, "some items in your cart are unavailable", priced.Violations)
	}

	totals, err := s.calculate(ctx, id, priced, in.ShippingOption, false)
	if err != nil {
		return CheckoutSessionOutput{}, err
	}
	//割引は決済直前にもう一度判定する
	if totals.DiscountError != "" {
		return CheckoutSessionOutput{}, NewHTTPError(KindValidation, totals.DiscountError)
	}

	lines := make([]pay.LineItem, 0, len(priced.Lines)+2)
	for _, l := range priced.Lines {
		name := l.Product.Name
		if l.Variant != nil {
			name = name + " - " + l.Variant.Name
		}
		lines = append(lines, pay.LineItem{
			Name:       name,
			UnitAmount: pricing.ToMinorUnits(l.UnitPrice),
			Quantity:   l.Item.Quantity,
		})
	}
	if totals.ShippingAmount.IsPositive() {
		lines = append(lines, pay.LineItem{
			Name:       "Shipping",
			UnitAmount: pricing.ToMinorUnits(totals.ShippingAmount),
			Quantity:   1,
		})
	}
	if totals.TaxAmount.IsPositive() {
		lines = append(lines, pay.LineItem{
			Name:       "Tax",
			UnitAmount: pricing.ToMinorUnits(totals.TaxAmount),
			Quantity:   1,
		})
	}

	//割引は計算済みの金額を1回限りのクーポンとして渡す
	couponID := ""
	if totals.DiscountAmount.IsPositive() && priced.Discount != nil {
		couponID, err = s.provider.CreateCoupon(ctx, pay.CouponRequest{
			Name:      priced.Discount.Code,
			AmountOff: pricing.ToMinorUnits(totals.DiscountAmount),
			Currency:  s.cfg.Currency,
		})
		if err != nil {
			s.log.Error("create coupon failed", zap.Int64("cart_id", priced.Cart.ID), zap.Error(err))
			return CheckoutSessionOutput{}, upstreamError("payment provider error", err)
		}
	}

	meta := s.sessionMetadata(id, priced, totals, in)

	sess, err := s.provider.CreateCheckoutSession(ctx, pay.SessionRequest{
		Currency:      s.cfg.Currency,
		Lines:         lines,
		CouponID:      couponID,
		CustomerEmail: strings.TrimSpace(in.Email),
		SuccessURL:    s.cfg.SuccessURL,
		CancelURL:     s.cfg.CancelURL,
		Metadata:      meta,
	})
	if err != nil {
		s.log.Error("create checkout session failed", zap.Int64("cart_id", priced.Cart.ID), zap.Error(err))
		return CheckoutSessionOutput{}, upstreamError("payment provider error", err)
	}

	s.log.Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.Int64("cart_id", priced.Cart.ID),
		zap.String("total", totals.Total.StringFixed(2)),
	)
	return CheckoutSessionOutput{SessionID: sess.ID, URL: sess.URL}, nil
}

// Confirm は支払い済みの決済セッションから注文を作る。
// 既に注文があれば、未完了の後続処理だけやり直してそれを返す
func (s *CheckoutService) Confirm(ctx context.Context, sessionID string) (OrderOutput, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return OrderOutput{}, NewHTTPError(KindValidation, "session_id is required")
	}

	existing, err := s.orders.FindByPaymentSessionID(ctx, sessionID)
	if err == nil {
		return s.resume(ctx, existing)
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, internalError(err)
	}

	sess, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.log.Error("retrieve checkout session failed", zap.String("session_id", sessionID), zap.Error(err))
		return OrderOutput{}, upstreamError("payment provider error", err)
	}
	if !sess.Paid() {
		return OrderOutput{}, NewHTTPErrorWithDetails(KindConflict, "payment is not completed",
			map[string]string{"payment_status": sess.PaymentStatus})
	}

	order, items, err := s.materialize(ctx, sess)
	if err != nil {
		return OrderOutput{}, err
	}

	//注文作成
	var created model.Order
	err = s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}
		if err := r.OrderItems().CreateBulk(ctx, o.ID, items); err != nil {
			return err
		}
		created = o
		return nil
	})
	if errors.Is(err, repo.ErrDuplicate) {
		//同時に確定した側が勝っている
		winner, err := s.orders.FindByPaymentSessionID(ctx, sessionID)
		if err != nil {
			return OrderOutput{}, internalError(err)
		}
		return s.resume(ctx, winner)
	}
	if err != nil {
		return OrderOutput{}, internalError(err)
	}

	s.log.Info("order created",
		zap.String("order_number", created.OrderNumber),
		zap.String("session_id", sessionID),
		zap.String("total", created.Total.StringFixed(2)),
	)
	publishOrderEvent(ctx, s.publisher, s.log, messaging.OrderCreated, created)

	if err := s.completeSteps(ctx, created); err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(created, items), nil
}

func (s *CheckoutService) resume(ctx context.Context, o model.Order) (OrderOutput, error) {
	if err := s.completeSteps(ctx, o); err != nil {
		return OrderOutput{}, err
	}
	items, err := s.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, internalError(err)
	}
	return toOrderOutput(o, items), nil
}

// 決済セッションとカートから注文と明細を組み立てる（まだ保存しない）
func (s *CheckoutService) materialize(ctx context.Context, sess pay.Session) (model.Order, []model.OrderItem, error) {
	meta := sess.Metadata
	cartID, err := strconv.ParseInt(meta[metaCartID], 10, 64)
	if err != nil {
		return model.Order{}, nil, s.cartNotFound(sess, err)
	}

	cart, err := s.carts.FindByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, nil, s.cartNotFound(sess, err)
	}
	if err != nil {
		return model.Order{}, nil, internalError(err)
	}

	snap, err := s.reader.snapshot(ctx, cart)
	if err != nil {
		return model.Order{}, nil, internalError(err)
	}
	priced, err := s.reader.price(ctx, cart, cartstore.Snapshot{Lines: snap.Lines})
	if err != nil {
		return model.Order{}, nil, internalError(err)
	}
	if priced.empty() {
		return model.Order{}, nil, s.cartNotFound(sess, errors.New("cart has no items"))
	}

	//割引は決済時のものを使う（カートから外されていても）
	var discountID *int64
	if raw := meta[metaDiscountCodeID]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return model.Order{}, nil, internalError(fmt.Errorf("bad discount_code_id %q: %w", raw, err))
		}
		d, err := s.discounts.FindByID(ctx, id)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return model.Order{}, nil, internalError(err)
		}
		if err == nil {
			if err := priced.setDiscount(d); err != nil {
				return model.Order{}, nil, internalError(err)
			}
			discountID = &d.ID
		}
	}

	identity := Identity{SessionID: meta[metaSessionID]}
	if raw := meta[metaUserID]; raw != "" {
		if uid, err := strconv.ParseInt(raw, 10, 64); err == nil {
			identity.UserID = &uid
		}
	}

	totals, err := s.calculate(ctx, identity, priced, meta[metaShippingOption], true)
	if err != nil {
		return model.Order{}, nil, err
	}
	if cents := pricing.ToMinorUnits(totals.Total); cents != sess.AmountTotal {
		s.log.Warn("order total differs from paid amount",
			zap.String("session_id", sess.ID),
			zap.Int64("computed_cents", cents),
			zap.Int64("paid_cents", sess.AmountTotal),
		)
	}

	number, err := s.newOrderNumber(ctx)
	if err != nil {
		return model.Order{}, nil, internalError(err)
	}

	email := meta[metaEmail]
	if email == "" {
		email = sess.CustomerEmail
	}

	order := model.Order{
		OrderNumber:       number,
		UserID:            identity.UserID,
		CartID:            cart.ID,
		Email:             email,
		Status:            model.OrderStatusPending,
		PaymentStatus:     model.PaymentStatusPaid,
		FulfillmentStatus: model.FulfillmentStatusUnfulfilled,
		Subtotal:          totals.Subtotal,
		DiscountAmount:    totals.DiscountAmount,
		ShippingAmount:    totals.ShippingAmount,
		TaxAmount:         totals.TaxAmount,
		Total:             totals.Total,
		Currency:          s.cfg.Currency,
		DiscountCodeID:    discountID,
		ShippingOption:    totals.ShippingOption,
		PaymentSessionID:  sess.ID,
		PaymentIntentID:   sess.PaymentIntentID,
	}
	if identity.SessionID != "" {
		sid := identity.SessionID
		order.SessionID = &sid
	}
	order.ShippingAddress = readAddress(meta, metaShippingPrefix)
	order.BillingAddress = readAddress(meta, metaBillingPrefix)

	items := make([]model.OrderItem, 0, len(priced.Lines))
	for _, l := range priced.Lines {
		it := model.OrderItem{
			ProductID: l.Item.ProductID,
			VariantID: l.Item.VariantID,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Item.Quantity,
			LineTotal: pricing.Round(l.UnitPrice.Mul(decimal.NewFromInt(l.Item.Quantity))),
		}
		if l.Product != nil {
			it.ProductName = l.Product.Name
			it.SKU = l.Product.SKU
		}
		if l.Variant != nil {
			it.VariantName = l.Variant.Name
			if l.Variant.SKU != "" {
				it.SKU = l.Variant.SKU
			}
		}
		items = append(items, it)
	}
	return order, items, nil
}

// 支払い済みなのにカートが無い。手動対応が必要なのでerrorで残す
func (s *CheckoutService) cartNotFound(sess pay.Session, cause error) error {
	s.log.Error("paid checkout session has no cart",
		zap.String("alert", "CART_NOT_FOUND"),
		zap.String("session_id", sess.ID),
		zap.String("cart_id", sess.Metadata[metaCartID]),
		zap.Error(cause),
	)
	return NewHTTPError(KindNotFound, "CART_NOT_FOUND")
}

// 後続処理。フラグを立てるのと実際の変更を同じTxで行うので、やり直しても1回だけ効く
func (s *CheckoutService) completeSteps(ctx context.Context, o model.Order) error {
	refunded := o.Status == model.OrderStatusRefunded || o.PaymentStatus == model.PaymentStatusRefunded
	for _, step := range o.PendingSteps() {
		//返金済みの注文では在庫も利用回数も動かさない
		if refunded && step != model.OrderStepCart {
			continue
		}
		var err error
		switch step {
		case model.OrderStepDiscount:
			err = s.recordDiscount(ctx, o)
		case model.OrderStepInventory:
			err = s.commitInventory(ctx, o)
		case model.OrderStepCart:
			err = s.clearCart(ctx, o)
		}
		if err != nil {
			s.log.Error("order step failed",
				zap.String("order_number", o.OrderNumber),
				zap.String("step", string(step)),
				zap.Error(err),
			)
			return internalError(err)
		}
	}
	return nil
}

func (s *CheckoutService) recordDiscount(ctx context.Context, o model.Order) error {
	return s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		done, err := r.Orders().MarkStepDone(ctx, o.ID, model.OrderStepDiscount)
		if err != nil || !done {
			return err
		}
		if o.DiscountCodeID == nil {
			return nil
		}
		return r.DiscountCodes().IncrementUsage(ctx, *o.DiscountCodeID)
	})
}

// 在庫減算。足りなくても支払い済みの注文は止めず、ログに残す
func (s *CheckoutService) commitInventory(ctx context.Context, o model.Order) error {
	return s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		done, err := r.Orders().MarkStepDone(ctx, o.ID, model.OrderStepInventory)
		if err != nil || !done {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		tracked, err := trackedProducts(ctx, r.Products(), items)
		if err != nil {
			return err
		}

		for _, it := range items {
			if !tracked[it.ProductID] {
				continue
			}
			taken, err := r.Inventory().Decrement(ctx, it.ProductID, it.VariantID, it.Quantity)
			if err != nil {
				return err
			}
			if taken < it.Quantity {
				s.log.Warn("inventory oversold",
					zap.String("order_number", o.OrderNumber),
					zap.Int64("product_id", it.ProductID),
					zap.Int64("quantity", it.Quantity),
					zap.Int64("decremented", taken),
				)
			}
			if taken == 0 {
				continue
			}
			//返金時はこの履歴の分だけ戻す
			orderID := o.ID
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				OrderID:   &orderID,
				Delta:     -taken,
				Reason:    "order " + o.OrderNumber,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *CheckoutService) clearCart(ctx context.Context, o model.Order) error {
	err := s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		done, err := r.Orders().MarkStepDone(ctx, o.ID, model.OrderStepCart)
		if err != nil || !done {
			return err
		}
		if err := r.CartItems().DeleteByCartID(ctx, o.CartID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if err := r.Carts().SetDiscount(ctx, o.CartID, nil); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.mirror.Delete(ctx, mirrorKey(o.CartID)); err != nil {
		s.log.Warn("cart mirror delete failed", zap.Int64("cart_id", o.CartID), zap.Error(err))
	}
	return nil
}

// カートを読み直して現在価格をつける。空ならEMPTY_CART
func (s *CheckoutService) loadCart(ctx context.Context, id Identity) (pricedCart, error) {
	if id.IsZero() {
		return pricedCart{}, emptyCartError()
	}
	cart, err := findCart(ctx, s.carts, id)
	if errors.Is(err, repo.ErrNotFound) {
		return pricedCart{}, emptyCartError()
	}
	if err != nil {
		return pricedCart{}, internalError(err)
	}

	snap, err := s.reader.snapshot(ctx, cart)
	if err != nil {
		return pricedCart{}, internalError(err)
	}
	priced, err := s.reader.price(ctx, cart, snap)
	if err != nil {
		return pricedCart{}, internalError(err)
	}
	if priced.empty() {
		return pricedCart{}, emptyCartError()
	}
	return priced, nil
}

func (s *CheckoutService) calculate(ctx context.Context, id Identity, priced pricedCart, option string, paid bool) (TotalsOutput, error) {
	if option == "" {
		option = pricing.ShippingStandard
	}
	lines := priced.pricingLines()
	subtotal := pricing.Subtotal(lines)

	ship, err := pricing.ShippingFor(s.cfg.Shipping, option, subtotal, priced.weight())
	if errors.Is(err, pricing.ErrUnknownShippingOption) {
		return TotalsOutput{}, NewHTTPError(KindValidation, "unknown shipping option")
	}
	if err != nil {
		return TotalsOutput{}, internalError(err)
	}

	var uses *int64
	if priced.Rule != nil && id.IsUser() && !paid {
		n, err := s.orders.CountByUserAndDiscount(ctx, *id.UserID, priced.Rule.ID)
		if err != nil {
			return TotalsOutput{}, internalError(err)
		}
		uses = &n
	}

	t := pricing.Calculate(pricing.Input{
		Lines:           lines,
		Discount:        priced.Rule,
		SkipEligibility: paid,
		CustomerUses:    uses,
		Shipping:        ship.Amount,
		TaxRate:         s.cfg.TaxRate,
		Now:             s.now(),
	})

	out := TotalsOutput{
		Subtotal:       t.Subtotal,
		DiscountAmount: t.DiscountAmount,
		ShippingAmount: t.ShippingAmount,
		TaxAmount:      t.TaxAmount,
		Total:          t.Total,
		FreeShipping:   t.FreeShipping,
		ShippingOption: ship.ID,
	}
	if t.DiscountError != nil {
		out.DiscountError = t.DiscountError.Error()
	}
	return out, nil
}

func (s *CheckoutService) sessionMetadata(id Identity, priced pricedCart, totals TotalsOutput, in CheckoutInput) map[string]string {
	meta := map[string]string{
		metaCartID:         strconv.FormatInt(priced.Cart.ID, 10),
		metaShippingOption: totals.ShippingOption,
		metaSubtotal:       totals.Subtotal.StringFixed(2),
		metaTotal:          totals.Total.StringFixed(2),
	}
	if id.UserID != nil {
		meta[metaUserID] = strconv.FormatInt(*id.UserID, 10)
	}
	if id.SessionID != "" {
		meta[metaSessionID] = id.SessionID
	}
	if priced.Discount != nil {
		meta[metaDiscountCodeID] = strconv.FormatInt(priced.Discount.ID, 10)
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		meta[metaEmail] = email
	}

	billing := in.ShippingAddress
	if in.BillingAddress != nil {
		billing = *in.BillingAddress
	}
	putAddress(meta, metaShippingPrefix, in.ShippingAddress)
	putAddress(meta, metaBillingPrefix, billing)
	return meta
}

// WG-YYYYMMDD-XXXXXXXX。既存と重なったら作り直す
func (s *CheckoutService) newOrderNumber(ctx context.Context) (string, error) {
	date := s.now().UTC().Format("20060102")
	for i := 0; i < orderNumberAttempts; i++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		number := "WG-" + date + "-" + suffix
		exists, err := s.orders.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("no unique order number after %d attempts", orderNumberAttempts)
}

func trackedProducts(ctx context.Context, products repo.ProductRepository, items []model.OrderItem) (map[int64]bool, error) {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	tracked := make(map[int64]bool, len(found))
	for _, p := range found {
		tracked[p.ID] = p.TrackInventory
	}
	return tracked, nil
}

// メタデータの値は1つ500文字まで。住所は項目ごとのキーに分けて入れる
func putAddress(meta map[string]string, prefix string, a model.Address) {
	for _, f := range addressFields(&a) {
		if *f.value != "" {
			meta[prefix+f.key] = *f.value
		}
	}
}

func readAddress(meta map[string]string, prefix string) model.Address {
	var a model.Address
	for _, f := range addressFields(&a) {
		*f.value = meta[prefix+f.key]
	}
	return a
}

type addressField struct {
	key   string
	value *string
}

func addressFields(a *model.Address) []addressField {
	return []addressField{
		{"name", &a.Name},
		{"line1", &a.Line1},
		{"line2", &a.Line2},
		{"city", &a.City},
		{"state", &a.State},
		{"postal_code", &a.PostalCode},
		{"country", &a.Country},
		{"phone", &a.Phone},
	}
}

// Package cartstore はクライアント側のカート状態を持つ。
// ゲストのカートや、サーバー状態の楽観的なミラーとして使う。
// 保存するのは行と割引だけで、金額は毎回計算し直す。
package cartstore

import (
	"errors"
	"time"

	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidDiscount = errors.New("unsupported discount")
)

type Line struct {
	//サーバー側の明細ID（ゲストのローカル行は0）
	ID        int64           `json:"id,omitempty"`
	ProductID int64           `json:"product_id"`
	VariantID *int64          `json:"variant_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
}

// 適用中の割引
type Discount struct {
	Code              string               `json:"code"`
	Type              pricing.DiscountType `json:"type"`
	Value             decimal.Decimal      `json:"value"`
	MinOrderAmount    *decimal.Decimal     `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal     `json:"max_discount_amount,omitempty"`
	AppliedAt         time.Time            `json:"applied_at"`
}

// 永続化する形（計算値は含めない）
type Snapshot struct {
	Lines    []Line    `json:"lines"`
	Discount *Discount `json:"discount,omitempty"`
}

// 行の識別子。バリアント無しは0
type Key struct {
	ProductID int64
	VariantID int64
}

func KeyOf(productID int64, variantID *int64) Key {
	k := Key{ProductID: productID}
	if variantID != nil {
		k.VariantID = *variantID
	}
	return k
}

func (l Line) Key() Key {
	return KeyOf(l.ProductID, l.VariantID)
}

// Store はカートの状態コンテナ。並行利用はしない前提
type Store struct {
	lines    []Line
	discount *Discount
}

func New() *Store {
	return &Store{lines: []Line{}}
}

func FromSnapshot(s Snapshot) *Store {
	st := New()
	st.lines = append(st.lines, s.Lines...)
	if s.Discount != nil {
		d := *s.Discount
		st.discount = &d
	}
	return st
}

func (s *Store) Snapshot() Snapshot {
	out := Snapshot{Lines: s.Lines()}
	if s.discount != nil {
		d := *s.discount
		out.Discount = &d
	}
	return out
}

func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Discount() *Discount {
	if s.discount == nil {
		return nil
	}
	d := *s.discount
	return &d
}

// AddItem は同じ(商品,バリアント)があれば数量を足し、無ければ追加する
func (s *Store) AddItem(l Line) error {
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i := s.index(l.Key()); i >= 0 {
		s.lines[i].Quantity += l.Quantity
		if l.Name != "" {
			s.lines[i].Name = l.Name
		}
		s.lines[i].UnitPrice = l.UnitPrice
		return nil
	}
	s.lines = append(s.lines, l)
	return nil
}

// UpdateQuantity は数量を置き換える。0以下なら行を消す
func (s *Store) UpdateQuantity(productID int64, variantID *int64, qty int64) {
	i := s.index(KeyOf(productID, variantID))
	if i < 0 {
		return
	}
	if qty <= 0 {
		s.removeAt(i)
		return
	}
	s.lines[i].Quantity = qty
}

func (s *Store) RemoveItem(productID int64, variantID *int64) {
	if i := s.index(KeyOf(productID, variantID)); i >= 0 {
		s.removeAt(i)
	}
}

// 行も割引も消す
func (s *Store) Clear() {
	s.lines = []Line{}
	s.discount = nil
}

// ApplyDiscount は最低注文金額を満たすときだけ割引を記録する。
// 既に割引があれば置き換える（重ねがけしない）
func (s *Store) ApplyDiscount(d Discount, now time.Time) error {
	switch d.Type {
	case pricing.Percentage, pricing.FixedAmount, pricing.FreeShipping:
	default:
		return ErrInvalidDiscount
	}
	if d.MinOrderAmount != nil && s.Subtotal().LessThan(*d.MinOrderAmount) {
		return &pricing.MinimumNotMetError{Minimum: *d.MinOrderAmount}
	}
	d.AppliedAt = now
	s.discount = &d
	return nil
}

func (s *Store) RemoveDiscount() {
	s.discount = nil
}

// Merge はサーバー側の行と合わせる。
// 両方にある行は数量を合計、片方だけの行はそのまま残す
func (s *Store) Merge(serverLines []Line) {
	merged := make([]Line, 0, len(serverLines)+len(s.lines))
	merged = append(merged, serverLines...)

	for _, local := range s.lines {
		found := false
		for i := range merged {
			if merged[i].Key() == local.Key() {
				merged[i].Quantity += local.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, local)
		}
	}
	s.lines = merged
}

// Reprice は最新の単価で置き換える（価格はキャッシュしない）
func (s *Store) Reprice(prices map[Key]decimal.Decimal) {
	for i := range s.lines {
		if p, ok := prices[s.lines[i].Key()]; ok {
			s.lines[i].UnitPrice = p
		}
	}
}

func (s *Store) ItemCount() int64 {
	var n int64
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal {
	return pricing.Subtotal(s.pricingLines())
}

// DiscountAmount は pricing と同じ計算（割合・定額）。最低金額割れなら0
func (s *Store) DiscountAmount() decimal.Decimal {
	if s.discount == nil || len(s.lines) == 0 {
		return decimal.Zero
	}
	subtotal := s.Subtotal()
	if s.discount.MinOrderAmount != nil && subtotal.LessThan(*s.discount.MinOrderAmount) {
		return decimal.Zero
	}
	return pricing.DiscountAmount(pricing.Rule{
		Type:                  s.discount.Type,
		Value:                 s.discount.Value,
		MaximumDiscountAmount: s.discount.MaxDiscountAmount,
	}, subtotal)
}

func (s *Store) Total() decimal.Decimal {
	total := s.Subtotal().Sub(s.DiscountAmount())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func (s *Store) pricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(s.lines))
	for _, l := range s.lines {
		out = append(out, pricing.Line{ProductID: l.ProductID, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	return out
}

func (s *Store) index(k Key) int {
	for i, l := range s.lines {
		if l.Key() == k {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

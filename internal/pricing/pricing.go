// Package pricing はカート金額（小計・割引・送料・税・合計）を計算する。
// DBやHTTPに依存しない純粋な関数だけを置く。
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// 価格計算の1行
type Line struct {
	ProductID  int64
	CategoryID *int64
	UnitPrice  decimal.Decimal
	Quantity   int64
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

type Input struct {
	Lines    []Line
	Discount *Rule

	//支払い済みのセッションなど、適用可否を確認済みのとき
	SkipEligibility bool

	//顧客のこのコード利用回数（不明ならnil）
	CustomerUses *int64

	Shipping decimal.Decimal

	//Taxが入っていればそれを使う。無ければ (小計-割引)×TaxRate
	Tax     *decimal.Decimal
	TaxRate decimal.Decimal

	Now time.Time
}

type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	ShippingAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal

	DiscountApplied bool
	FreeShipping    bool

	//割引が使えなかった理由（割引なし・適用済みならnil）
	DiscountError error
}

// 小数2桁に丸める（0.5は0から遠い方へ）
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// 最小通貨単位（セント）に変換
func ToMinorUnits(d decimal.Decimal) int64 {
	return Round(d).Shift(2).IntPart()
}

func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Σ(単価×数量)
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return Round(sum)
}

// Calculate はカート全体の金額を計算する。
// 各項目は個別に2桁へ丸めてから合計し、合計は0未満にならない。
func Calculate(in Input) Totals {
	zero := Totals{
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		ShippingAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		Total:          decimal.Zero,
	}
	if len(in.Lines) == 0 {
		return zero
	}

	t := zero
	t.Subtotal = Subtotal(in.Lines)
	t.ShippingAmount = nonNegative(Round(in.Shipping))

	if in.Discount != nil {
		now := in.Now
		if now.IsZero() {
			now = time.Now()
		}
		var err error
		if !in.SkipEligibility {
			err = CheckEligibility(*in.Discount, EligibilityInput{
				Subtotal:     t.Subtotal,
				Lines:        in.Lines,
				Now:          now,
				CustomerUses: in.CustomerUses,
			})
		}
		if err != nil {
			t.DiscountError = err
		} else {
			t.DiscountApplied = true
			if in.Discount.Type == FreeShipping {
				t.FreeShipping = true
				t.ShippingAmount = decimal.Zero
			} else {
				t.DiscountAmount = DiscountAmount(*in.Discount, t.Subtotal)
			}
		}
	}

	if in.Tax != nil {
		t.TaxAmount = nonNegative(Round(*in.Tax))
	} else {
		base := t.Subtotal.Sub(t.DiscountAmount)
		t.TaxAmount = nonNegative(Round(base.Mul(in.TaxRate)))
	}

	t.Total = nonNegative(t.Subtotal.Sub(t.DiscountAmount).Add(t.ShippingAmount).Add(t.TaxAmount))
	return t
}

// DiscountAmount は割引額を返す（適用可否は見ない）。
// 上限額→小計の順でクランプする
func DiscountAmount(r Rule, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch r.Type {
	case Percentage:
		amount = subtotal.Mul(r.Value).Div(hundred)
	case FixedAmount:
		amount = r.Value
	default:
		return decimal.Zero
	}

	amount = nonNegative(Round(amount))
	if r.MaximumDiscountAmount != nil && amount.GreaterThan(*r.MaximumDiscountAmount) {
		amount = Round(*r.MaximumDiscountAmount)
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

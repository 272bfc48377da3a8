package pricing_test

import (
	"testing"
	"time"

	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func i64(v int64) *int64 { return &v }

func percentRule(value string) pricing.Rule {
	return pricing.Rule{
		Code:   "TENOFF",
		Type:   pricing.Percentage,
		Value:  d(value),
		Active: true,
		Scope:  pricing.AllProducts{},
	}
}

// 20.00×3、10%オフ、送料5.00 → 小計60.00 割引6.00 合計59.00
func TestCalculate_PercentDiscountWithFlatShipping(t *testing.T) {
	rule := percentRule("10")
	got := pricing.Calculate(pricing.Input{
		Lines:    []pricing.Line{{ProductID: 1, UnitPrice: d("20.00"), Quantity: 3}},
		Discount: &rule,
		Shipping: d("5.00"),
		Now:      time.Now(),
	})

	assert.True(t, got.Subtotal.Equal(d("60.00")), got.Subtotal.String())
	assert.True(t, got.DiscountAmount.Equal(d("6.00")), got.DiscountAmount.String())
	assert.True(t, got.ShippingAmount.Equal(d("5.00")))
	assert.True(t, got.Total.Equal(d("59.00")), got.Total.String())
	assert.True(t, got.DiscountApplied)
	assert.NoError(t, got.DiscountError)
}

func TestCalculate_MinimumOrderNotMet(t *testing.T) {
	rule := percentRule("10")
	rule.MinimumOrderAmount = dp("75")

	got := pricing.Calculate(pricing.Input{
		Lines:    []pricing.Line{{ProductID: 1, UnitPrice: d("20.00"), Quantity: 3}},
		Discount: &rule,
		Now:      time.Now(),
	})

	assert.True(t, got.DiscountAmount.IsZero())
	assert.False(t, got.DiscountApplied)
	var minErr *pricing.MinimumNotMetError
	require.ErrorAs(t, got.DiscountError, &minErr)
	assert.True(t, minErr.Minimum.Equal(d("75")))
}

func TestCalculate_EmptyCartIsAllZero(t *testing.T) {
	rule := pricing.Rule{Type: pricing.FixedAmount, Value: d("10"), Active: true}
	got := pricing.Calculate(pricing.Input{Discount: &rule, Shipping: d("5"), TaxRate: d("0.08")})

	for _, v := range []decimal.Decimal{got.Subtotal, got.DiscountAmount, got.ShippingAmount, got.TaxAmount, got.Total} {
		assert.True(t, v.IsZero())
	}
	assert.False(t, got.DiscountApplied)
}

func TestSubtotal_IndependentOfOrder(t *testing.T) {
	lines := []pricing.Line{
		{ProductID: 1, UnitPrice: d("12.99"), Quantity: 2},
		{ProductID: 2, UnitPrice: d("0.10"), Quantity: 7},
		{ProductID: 3, UnitPrice: d("149.50"), Quantity: 1},
	}
	reversed := []pricing.Line{lines[2], lines[1], lines[0]}

	assert.True(t, pricing.Subtotal(lines).Equal(d("176.18")))
	assert.True(t, pricing.Subtotal(lines).Equal(pricing.Subtotal(reversed)))
}

func TestDiscountAmount_Clamps(t *testing.T) {
	tests := []struct {
		name     string
		rule     pricing.Rule
		subtotal string
		want     string
	}{
		{"percent", pricing.Rule{Type: pricing.Percentage, Value: d("25")}, "80.00", "20.00"},
		{"percent capped by max", pricing.Rule{Type: pricing.Percentage, Value: d("50"), MaximumDiscountAmount: dp("15")}, "80.00", "15.00"},
		{"fixed", pricing.Rule{Type: pricing.FixedAmount, Value: d("10")}, "80.00", "10.00"},
		{"fixed capped by subtotal", pricing.Rule{Type: pricing.FixedAmount, Value: d("50")}, "30.00", "30.00"},
		{"fixed capped by max then subtotal", pricing.Rule{Type: pricing.FixedAmount, Value: d("50"), MaximumDiscountAmount: dp("40")}, "30.00", "30.00"},
		{"percent rounds half away from zero", pricing.Rule{Type: pricing.Percentage, Value: d("15")}, "0.10", "0.02"},
		{"free shipping has no amount", pricing.Rule{Type: pricing.FreeShipping}, "30.00", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.DiscountAmount(tt.rule, d(tt.subtotal))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
			assert.True(t, got.LessThanOrEqual(d(tt.subtotal)))
			if tt.rule.MaximumDiscountAmount != nil {
				assert.True(t, got.LessThanOrEqual(*tt.rule.MaximumDiscountAmount))
			}
		})
	}
}

func TestCalculate_TotalNeverNegative(t *testing.T) {
	rule := pricing.Rule{Type: pricing.FixedAmount, Value: d("500"), Active: true}
	got := pricing.Calculate(pricing.Input{
		Lines:    []pricing.Line{{ProductID: 1, UnitPrice: d("9.99"), Quantity: 1}},
		Discount: &rule,
		Shipping: d("-3"),
	})
	assert.True(t, got.DiscountAmount.Equal(d("9.99")))
	assert.False(t, got.Total.IsNegative())
	assert.True(t, got.Total.IsZero())
}

func TestCalculate_FreeShipping(t *testing.T) {
	rule := pricing.Rule{Type: pricing.FreeShipping, Active: true}
	got := pricing.Calculate(pricing.Input{
		Lines:    []pricing.Line{{ProductID: 1, UnitPrice: d("40"), Quantity: 1}},
		Discount: &rule,
		Shipping: d("15.00"),
	})
	assert.True(t, got.FreeShipping)
	assert.True(t, got.ShippingAmount.IsZero())
	assert.True(t, got.DiscountAmount.IsZero())
	assert.True(t, got.Total.Equal(d("40")))
}

func TestCalculate_TaxOnDiscountedSubtotal(t *testing.T) {
	rule := percentRule("10")
	got := pricing.Calculate(pricing.Input{
		Lines:    []pricing.Line{{ProductID: 1, UnitPrice: d("20.00"), Quantity: 3}},
		Discount: &rule,
		Shipping: d("5.00"),
		TaxRate:  d("0.0825"),
	})
	// (60-6)*0.0825 = 4.455 → 4.46
	assert.True(t, got.TaxAmount.Equal(d("4.46")), got.TaxAmount.String())
	assert.True(t, got.Total.Equal(d("63.46")), got.Total.String())
	assert.True(t, got.Total.Equal(got.Subtotal.Sub(got.DiscountAmount).Add(got.ShippingAmount).Add(got.TaxAmount)))
}

func TestCalculate_ExplicitTaxWins(t *testing.T) {
	got := pricing.Calculate(pricing.Input{
		Lines:   []pricing.Line{{ProductID: 1, UnitPrice: d("10"), Quantity: 1}},
		Tax:     dp("1.234"),
		TaxRate: d("0.5"),
	})
	assert.True(t, got.TaxAmount.Equal(d("1.23")))
}

func TestCheckEligibility(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	cat := int64(7)
	lines := []pricing.Line{{ProductID: 1, CategoryID: &cat, UnitPrice: d("30"), Quantity: 2}}

	base := func() pricing.Rule { return percentRule("10") }

	tests := []struct {
		name   string
		mutate func(r *pricing.Rule)
		uses   *int64
		want   error
	}{
		{"ok", func(r *pricing.Rule) {}, nil, nil},
		{"inactive", func(r *pricing.Rule) { r.Active = false }, nil, pricing.ErrDiscountInactive},
		{"not started", func(r *pricing.Rule) { r.StartsAt = &future }, nil, pricing.ErrDiscountNotStarted},
		{"expired", func(r *pricing.Rule) { r.ExpiresAt = &past }, nil, pricing.ErrDiscountExpired},
		{"inside window", func(r *pricing.Rule) { r.StartsAt = &past; r.ExpiresAt = &future }, nil, nil},
		{"product scope miss", func(r *pricing.Rule) { r.Scope = pricing.NewProductsScope(99) }, nil, pricing.ErrNotApplicable},
		{"product scope hit", func(r *pricing.Rule) { r.Scope = pricing.NewProductsScope(1, 99) }, nil, nil},
		{"category scope hit", func(r *pricing.Rule) { r.Scope = pricing.NewCategoriesScope(7) }, nil, nil},
		{"category scope miss", func(r *pricing.Rule) { r.Scope = pricing.NewCategoriesScope(8) }, nil, pricing.ErrNotApplicable},
		{"global limit reached", func(r *pricing.Rule) { r.UsageLimit = i64(5); r.UsageCount = 5 }, nil, pricing.ErrUsageLimitReached},
		{"global limit left", func(r *pricing.Rule) { r.UsageLimit = i64(5); r.UsageCount = 4 }, nil, nil},
		{"customer limit reached", func(r *pricing.Rule) { r.UsageLimitPerCustomer = i64(1) }, i64(1), pricing.ErrCustomerLimitReached},
		{"customer unknown skips per-customer limit", func(r *pricing.Rule) { r.UsageLimitPerCustomer = i64(1) }, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			err := pricing.CheckEligibility(r, pricing.EligibilityInput{
				Subtotal:     pricing.Subtotal(lines),
				Lines:        lines,
				Now:          now,
				CustomerUses: tt.uses,
			})
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(5900), pricing.ToMinorUnits(d("59")))
	assert.Equal(t, int64(1999), pricing.ToMinorUnits(d("19.989")))
	assert.True(t, pricing.FromMinorUnits(1234).Equal(d("12.34")))
}

func TestShippingRates(t *testing.T) {
	cfg := pricing.ShippingConfig{
		StandardRate:          d("5.00"),
		ExpressRate:           d("15.00"),
		ExpressPerPound:       d("1.00"),
		FreeShippingThreshold: d("100.00"),
	}

	rates := pricing.ShippingRates(cfg, d("60"), d("2.4"))
	require.Len(t, rates, 2)
	assert.True(t, rates[0].Amount.Equal(d("5.00")))
	assert.True(t, rates[1].Amount.Equal(d("18.00")))

	free, err := pricing.ShippingFor(cfg, pricing.ShippingStandard, d("100"), d("1"))
	require.NoError(t, err)
	assert.True(t, free.Amount.IsZero())

	_, err = pricing.ShippingFor(cfg, "teleport", d("100"), d("1"))
	assert.ErrorIs(t, err, pricing.ErrUnknownShippingOption)
}

func TestCalculate_SkipEligibilityKeepsPaidDiscount(t *testing.T) {
	rule := percentRule("10")
	rule.UsageLimit = i64(1)
	rule.UsageCount = 1

	got := pricing.Calculate(pricing.Input{
		Lines:           []pricing.Line{{ProductID: 1, UnitPrice: d("20.00"), Quantity: 3}},
		Discount:        &rule,
		SkipEligibility: true,
	})
	assert.True(t, got.DiscountApplied)
	assert.True(t, got.DiscountAmount.Equal(d("6.00")))
}

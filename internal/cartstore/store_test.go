package cartstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/cartstore"
	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func i64(v int64) *int64 { return &v }

func TestAddItem_SumsSameProductAndVariant(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, VariantID: i64(7), UnitPrice: d("10.00"), Quantity: 1}))
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, VariantID: i64(7), UnitPrice: d("10.00"), Quantity: 2}))
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("9.00"), Quantity: 1}))

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, int64(3), lines[0].Quantity)
	assert.Equal(t, int64(4), s.ItemCount())
	assert.True(t, s.Subtotal().Equal(d("39.00")), s.Subtotal().String())
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	s := cartstore.New()
	assert.ErrorIs(t, s.AddItem(cartstore.Line{ProductID: 1, Quantity: 0}), cartstore.ErrInvalidQuantity)
	assert.Empty(t, s.Lines())
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("5.00"), Quantity: 2}))
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 2, UnitPrice: d("5.00"), Quantity: 1}))

	s.UpdateQuantity(1, nil, 5)
	assert.Equal(t, int64(6), s.ItemCount())

	s.UpdateQuantity(1, nil, 0)
	require.Len(t, s.Lines(), 1)
	assert.Equal(t, int64(2), s.Lines()[0].ProductID)

	s.RemoveItem(2, nil)
	assert.Empty(t, s.Lines())
}

func TestApplyDiscount_BelowMinimumIsRejected(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("20.00"), Quantity: 3}))

	err := s.ApplyDiscount(cartstore.Discount{
		Code:           "BIG",
		Type:           pricing.Percentage,
		Value:          d("10"),
		MinOrderAmount: dp("75.00"),
	}, time.Now())

	var minErr *pricing.MinimumNotMetError
	require.True(t, errors.As(err, &minErr))
	assert.True(t, minErr.Minimum.Equal(d("75.00")))
	assert.Nil(t, s.Discount())
}

func TestApplyDiscount_ReplacesExisting(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("20.00"), Quantity: 3}))

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.ApplyDiscount(cartstore.Discount{Code: "TEN", Type: pricing.Percentage, Value: d("10")}, now))
	require.NoError(t, s.ApplyDiscount(cartstore.Discount{Code: "FIVE", Type: pricing.FixedAmount, Value: d("5.00")}, now))

	require.NotNil(t, s.Discount())
	assert.Equal(t, "FIVE", s.Discount().Code)
	assert.Equal(t, now, s.Discount().AppliedAt)
	assert.True(t, s.DiscountAmount().Equal(d("5.00")))
	assert.True(t, s.Total().Equal(d("55.00")))

	s.RemoveDiscount()
	assert.True(t, s.DiscountAmount().IsZero())
}

func TestDiscountAmount_MatchesPricing(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("20.00"), Quantity: 3}))
	require.NoError(t, s.ApplyDiscount(cartstore.Discount{Code: "TEN", Type: pricing.Percentage, Value: d("10")}, time.Now()))

	assert.True(t, s.Subtotal().Equal(d("60.00")))
	assert.True(t, s.DiscountAmount().Equal(d("6.00")))
	assert.True(t, s.Total().Equal(d("54.00")))
}

func TestDiscountAmount_FixedClampedToSubtotal(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("4.00"), Quantity: 1}))
	require.NoError(t, s.ApplyDiscount(cartstore.Discount{Code: "BIG", Type: pricing.FixedAmount, Value: d("10.00")}, time.Now()))

	assert.True(t, s.DiscountAmount().Equal(d("4.00")))
	assert.True(t, s.Total().IsZero())
}

func TestDiscountAmount_ZeroWhenMinimumNoLongerMet(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("50.00"), Quantity: 2}))
	require.NoError(t, s.ApplyDiscount(cartstore.Discount{Code: "TEN", Type: pricing.Percentage, Value: d("10"), MinOrderAmount: dp("75.00")}, time.Now()))

	s.UpdateQuantity(1, nil, 1)
	assert.True(t, s.DiscountAmount().IsZero())
	assert.True(t, s.Total().Equal(d("50.00")))
}

func TestClear_DropsLinesAndDiscount(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("20.00"), Quantity: 1}))
	require.NoError(t, s.ApplyDiscount(cartstore.Discount{Code: "TEN", Type: pricing.Percentage, Value: d("10")}, time.Now()))

	s.Clear()
	assert.Empty(t, s.Lines())
	assert.Nil(t, s.Discount())
	assert.True(t, s.Total().IsZero())
}

func TestMerge_SumsOverlapAndKeepsRest(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("10.00"), Quantity: 2}))
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 3, UnitPrice: d("1.00"), Quantity: 1}))

	s.Merge([]cartstore.Line{
		{ProductID: 1, UnitPrice: d("10.00"), Quantity: 1},
		{ProductID: 2, UnitPrice: d("2.00"), Quantity: 4},
	})

	got := map[cartstore.Key]int64{}
	for _, l := range s.Lines() {
		got[l.Key()] = l.Quantity
	}
	assert.Equal(t, map[cartstore.Key]int64{
		{ProductID: 1}: 3,
		{ProductID: 2}: 4,
		{ProductID: 3}: 1,
	}, got)
}

func TestReprice_UsesCurrentPrices(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, VariantID: i64(2), UnitPrice: d("10.00"), Quantity: 2}))

	s.Reprice(map[cartstore.Key]decimal.Decimal{{ProductID: 1, VariantID: 2}: d("12.50")})
	assert.True(t, s.Subtotal().Equal(d("25.00")))
}

func TestSnapshot_RoundTripsThroughStore(t *testing.T) {
	s := cartstore.New()
	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 1, UnitPrice: d("20.00"), Quantity: 3}))
	require.NoError(t, s.ApplyDiscount(cartstore.Discount{Code: "TEN", Type: pricing.Percentage, Value: d("10")}, time.Now()))

	restored := cartstore.FromSnapshot(s.Snapshot())
	assert.True(t, restored.Total().Equal(s.Total()))

	// スナップショットは元のStoreと独立
	restored.Clear()
	assert.Equal(t, int64(3), s.ItemCount())
}

type memPersister struct {
	data map[string]cartstore.Snapshot
}

func (m *memPersister) Load(_ context.Context, key string) (cartstore.Snapshot, error) {
	s, ok := m.data[key]
	if !ok {
		return cartstore.Snapshot{}, cartstore.ErrSnapshotNotFound
	}
	return s, nil
}

func (m *memPersister) Save(_ context.Context, key string, s cartstore.Snapshot) error {
	m.data[key] = s
	return nil
}

func (m *memPersister) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestLoad_MissingKeyGivesEmptyStore(t *testing.T) {
	p := &memPersister{data: map[string]cartstore.Snapshot{}}
	s, err := cartstore.Load(context.Background(), p, "guest:abc")
	require.NoError(t, err)
	assert.Empty(t, s.Lines())

	require.NoError(t, s.AddItem(cartstore.Line{ProductID: 9, UnitPrice: d("3.00"), Quantity: 2}))
	require.NoError(t, cartstore.Save(context.Background(), p, "guest:abc", s))

	again, err := cartstore.Load(context.Background(), p, "guest:abc")
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.ItemCount())
}

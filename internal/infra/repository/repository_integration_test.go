package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in -short mode")
	}
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gormDB, err := db.Connect(config.Database{URL: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, db.Migrate(gormDB, zap.NewNop()))
	return gormDB
}

func seedProduct(t *testing.T, gormDB *gorm.DB, slug string, qty int64) model.Product {
	t.Helper()
	p := model.Product{
		Name:           "Elk Steak",
		Slug:           slug,
		Price:          decimal.RequireFromString("20.00"),
		TrackInventory: true,
		InventoryQty:   qty,
		IsActive:       true,
	}
	require.NoError(t, gormDB.Create(&p).Error)
	return p
}

func stockOf(t *testing.T, gormDB *gorm.DB, productID int64) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, gormDB.Unscoped().First(&p, productID).Error)
	return p.InventoryQty
}

func newOrder(number string, sessionID string) model.Order {
	return model.Order{
		OrderNumber:       number,
		CartID:            1,
		Status:            model.OrderStatusPending,
		PaymentStatus:     model.PaymentStatusPaid,
		FulfillmentStatus: model.FulfillmentStatusUnfulfilled,
		Total:             decimal.RequireFromString("59.00"),
		Currency:          "usd",
		PaymentSessionID:  sessionID,
	}
}

func TestCartItemAddQuantity_SameLineKeepsOneRow(t *testing.T) {
	gormDB := setupTestDB(t)
	ctx := context.Background()
	p := seedProduct(t, gormDB, "elk-steak", 10)

	sid := "sess-1"
	cart, err := NewCartGormRepository(gormDB).Create(ctx, model.Cart{SessionID: &sid})
	require.NoError(t, err)

	items := NewCartItemGormRepository(gormDB)
	first, err := items.AddQuantity(ctx, cart.ID, p.ID, nil, 2)
	require.NoError(t, err)
	second, err := items.AddQuantity(ctx, cart.ID, p.ID, nil, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(5), second.Quantity)

	lines, err := items.ListByCartID(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(5), lines[0].Quantity)
}

func TestCartCreate_SecondCartForSameSessionIsDuplicate(t *testing.T) {
	gormDB := setupTestDB(t)
	ctx := context.Background()
	carts := NewCartGormRepository(gormDB)

	sid := "sess-1"
	_, err := carts.Create(ctx, model.Cart{SessionID: &sid})
	require.NoError(t, err)
	_, err = carts.Create(ctx, model.Cart{SessionID: &sid})
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestInventoryDecrement(t *testing.T) {
	gormDB := setupTestDB(t)
	ctx := context.Background()
	inv := NewInventoryGormRepository(gormDB)

	t.Run("enough stock", func(t *testing.T) {
		p := seedProduct(t, gormDB, "elk-steak", 5)

		taken, err := inv.Decrement(ctx, p.ID, nil, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), taken)
		assert.Equal(t, int64(2), stockOf(t, gormDB, p.ID))
	})

	t.Run("oversold stops at zero", func(t *testing.T) {
		p := seedProduct(t, gormDB, "boar-sausage", 2)

		taken, err := inv.Decrement(ctx, p.ID, nil, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(2), taken)
		assert.Equal(t, int64(0), stockOf(t, gormDB, p.ID))

		taken, err = inv.Decrement(ctx, p.ID, nil, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), taken)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := inv.Decrement(ctx, 999999, nil, 1)
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})
}

func TestInventoryAdjustments_ListByOrder(t *testing.T) {
	gormDB := setupTestDB(t)
	ctx := context.Background()
	inv := NewInventoryGormRepository(gormDB)
	p := seedProduct(t, gormDB, "elk-steak", 2)

	orderID := int64(100)
	other := int64(200)
	require.NoError(t, inv.CreateAdjustment(ctx, model.InventoryAdjustment{ProductID: p.ID, OrderID: &orderID, Delta: -2, Reason: "order A"}))
	require.NoError(t, inv.CreateAdjustment(ctx, model.InventoryAdjustment{ProductID: p.ID, OrderID: &other, Delta: -1, Reason: "order B"}))
	require.NoError(t, inv.CreateAdjustment(ctx, model.InventoryAdjustment{ProductID: p.ID, OrderID: &orderID, Delta: 2, Reason: "refund A"}))

	adjs, err := inv.ListAdjustmentsByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, adjs, 2)
	assert.Equal(t, int64(-2), adjs[0].Delta)
	assert.Equal(t, int64(2), adjs[1].Delta)
}

func TestOrderMarkStepDone_OnlyFirstCallWins(t *testing.T) {
	gormDB := setupTestDB(t)
	ctx := context.Background()
	orders := NewOrderGormRepository(gormDB)

	o, err := orders.Create(ctx, newOrder("WG-20261017-AAAAAAAA", "cs_1"))
	require.NoError(t, err)

	done, err := orders.MarkStepDone(ctx, o.ID, model.OrderStepInventory)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = orders.MarkStepDone(ctx, o.ID, model.OrderStepInventory)
	require.NoError(t, err)
	assert.False(t, done)

	got, err := orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.InventoryCommitted)
	assert.False(t, got.DiscountRecorded)
}

func TestOrderCreate_DuplicatePaymentSessionIsDuplicate(t *testing.T) {
	gormDB := setupTestDB(t)
	ctx := context.Background()
	orders := NewOrderGormRepository(gormDB)

	_, err := orders.Create(ctx, newOrder("WG-20261017-AAAAAAAA", "cs_1"))
	require.NoError(t, err)

	_, err = orders.Create(ctx, newOrder("WG-20261017-BBBBBBBB", "cs_1"))
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	got, err := orders.FindByPaymentSessionID(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "WG-20261017-AAAAAAAA", got.OrderNumber)
}

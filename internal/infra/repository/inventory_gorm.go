package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫を持つ行（バリアント or 商品）
func (r *InventoryGormRepository) target(ctx context.Context, productID int64, variantID *int64) *gorm.DB {
	if variantID != nil {
		return r.db.WithContext(ctx).
			Model(&model.ProductVariant{}).
			Where("id = ? AND product_id = ?", *variantID, productID)
	}
	return r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Product{}).
		Where("id = ?", productID)
}

// 在庫が足りるときだけ qty 減らす。足りなければ行ロックして残りを全部減らす
func (r *InventoryGormRepository) Decrement(ctx context.Context, productID int64, variantID *int64, qty int64) (int64, error) {
	res := r.target(ctx, productID, variantID).
		Where("inventory_qty >= ?", qty).
		Update("inventory_qty", gorm.Expr("inventory_qty - ?", qty))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		return qty, nil
	}

	//売り越し
	var current []int64
	if err := r.target(ctx, productID, variantID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Pluck("inventory_qty", &current).Error; err != nil {
		return 0, err
	}
	if len(current) == 0 {
		return 0, repo.ErrNotFound
	}

	taken := min(max(current[0], 0), qty)
	if taken == 0 {
		return 0, nil
	}
	res = r.target(ctx, productID, variantID).
		Update("inventory_qty", gorm.Expr("inventory_qty - ?", taken))
	if res.Error != nil {
		return 0, res.Error
	}
	return taken, nil
}

// 在庫戻し（全額返金）
func (r *InventoryGormRepository) Increment(ctx context.Context, productID int64, variantID *int64, qty int64) error {
	res := r.target(ctx, productID, variantID).
		Update("inventory_qty", gorm.Expr("inventory_qty + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}

func (r *InventoryGormRepository) ListAdjustmentsByOrderID(ctx context.Context, orderID int64) ([]model.InventoryAdjustment, error) {
	var adjs []model.InventoryAdjustment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&adjs).Error; err != nil {
		return nil, err
	}
	return adjs, nil
}

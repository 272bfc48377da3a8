package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type DiscountCodeGormRepository struct {
	db *gorm.DB
}

func NewDiscountCodeGormRepository(db *gorm.DB) *DiscountCodeGormRepository {
	return &DiscountCodeGormRepository{db: db}
}

func (r *DiscountCodeGormRepository) FindByCode(ctx context.Context, code string) (model.DiscountCode, error) {
	var d model.DiscountCode
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&d).Error
	if err != nil {
		return model.DiscountCode{}, mapErr(err)
	}
	return d, nil
}

func (r *DiscountCodeGormRepository) FindByID(ctx context.Context, id int64) (model.DiscountCode, error) {
	var d model.DiscountCode
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return model.DiscountCode{}, mapErr(err)
	}
	return d, nil
}

// 利用回数+1（読んでから書かない）
func (r *DiscountCodeGormRepository) IncrementUsage(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.DiscountCode{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1"))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type DiscountCodeRepository interface {
	// 大文字小文字は区別しない
	FindByCode(ctx context.Context, code string) (model.DiscountCode, error)
	FindByID(ctx context.Context, id int64) (model.DiscountCode, error)

	// usage_count を1増やす
	IncrementUsage(ctx context.Context, id int64) error
}

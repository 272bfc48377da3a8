package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	FindByID(ctx context.Context, cartID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindBySessionID(ctx context.Context, sessionID string) (model.Cart, error)

	// 同じ持ち主のカートが既にあれば ErrDuplicate
	Create(ctx context.Context, cart model.Cart) (model.Cart, error)

	// nilで割引を外す
	SetDiscount(ctx context.Context, cartID int64, discountCodeID *int64) error

	// 明細ごと削除
	Delete(ctx context.Context, cartID int64) error
}

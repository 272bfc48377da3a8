package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	FindLine(ctx context.Context, cartID int64, productID int64, variantID *int64) (model.CartItem, error)

	// 同一(商品,バリアント)は数量を足す。1文で原子的に行う
	AddQuantity(ctx context.Context, cartID int64, productID int64, variantID *int64, qty int64) (model.CartItem, error)

	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	DeleteByCartID(ctx context.Context, cartID int64) error
}

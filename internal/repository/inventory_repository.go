package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 在庫の増減。variantIDがあればバリアント、無ければ商品の在庫を触る
type InventoryRepository interface {
	// 在庫が足りれば qty 減らす。足りなければ0まで減らす。実際に減らした数を返す
	Decrement(ctx context.Context, productID int64, variantID *int64, qty int64) (decremented int64, err error)

	// 在庫戻し（全額返金）
	Increment(ctx context.Context, productID int64, variantID *int64, qty int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error

	// 注文に紐づく調整履歴（古い順）
	ListAdjustmentsByOrderID(ctx context.Context, orderID int64) ([]model.InventoryAdjustment, error)
}

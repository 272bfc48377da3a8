package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByNumber(ctx context.Context, number string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)

	// 同じ決済セッションの注文が既にあれば ErrDuplicate
	Create(ctx context.Context, order model.Order) (model.Order, error)

	//冪等キー（決済セッションID）で検索
	FindByPaymentSessionID(ctx context.Context, sessionID string) (model.Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (model.Order, error)

	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// 顧客がこの割引コードを使った注文数
	CountByUserAndDiscount(ctx context.Context, userID int64, discountCodeID int64) (int64, error)

	SetPaymentIntentID(ctx context.Context, orderID int64, intentID string) error

	// 後続処理のフラグを立てる。既に立っていれば false
	MarkStepDone(ctx context.Context, orderID int64, step model.OrderStep) (bool, error)

	// 現在値がfromのどれかのときだけ更新する。更新したら true
	UpdateStatusIf(ctx context.Context, orderID int64, to model.OrderStatus, from ...model.OrderStatus) (bool, error)
	UpdatePaymentStatusIf(ctx context.Context, orderID int64, to model.PaymentStatus, from ...model.PaymentStatus) (bool, error)
}

package repository

import (
	"context"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.findOne(ctx, "id = ?", orderID)
}

func (r *OrderGormRepository) FindByNumber(ctx context.Context, number string) (model.Order, error) {
	return r.findOne(ctx, "order_number = ?", number)
}

func (r *OrderGormRepository) FindByPaymentSessionID(ctx context.Context, sessionID string) (model.Order, error) {
	return r.findOne(ctx, "payment_session_id = ?", sessionID)
}

func (r *OrderGormRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (model.Order, error) {
	return r.findOne(ctx, "payment_intent_id = ?", intentID)
}

func (r *OrderGormRepository) findOne(ctx context.Context, where string, arg interface{}) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where(where, arg).First(&o).Error
	if err != nil {
		return model.Order{}, mapErr(err)
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

// payment_session_id / order_number のユニーク制約に当たったら ErrDuplicate
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return model.Order{}, mapErr(err)
	}
	return order, nil
}

func (r *OrderGormRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *OrderGormRepository) CountByUserAndDiscount(ctx context.Context, userID int64, discountCodeID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ? AND discount_code_id = ?", userID, discountCodeID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *OrderGormRepository) SetPaymentIntentID(ctx context.Context, orderID int64, intentID string) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("payment_intent_id", intentID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// falseからtrueにしたときだけ true（二重実行を防ぐ）
func (r *OrderGormRepository) MarkStepDone(ctx context.Context, orderID int64, step model.OrderStep) (bool, error) {
	var column string
	switch step {
	case model.OrderStepDiscount, model.OrderStepInventory, model.OrderStepCart:
		column = string(step)
	default:
		return false, fmt.Errorf("unknown order step %q", step)
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND "+column+" = ?", orderID, false).
		Update(column, true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) UpdateStatusIf(ctx context.Context, orderID int64, to model.OrderStatus, from ...model.OrderStatus) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID)
	if len(from) > 0 {
		q = q.Where("status IN ?", from)
	}

	res := q.Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) UpdatePaymentStatusIf(ctx context.Context, orderID int64, to model.PaymentStatus, from ...model.PaymentStatus) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID)
	if len(from) > 0 {
		q = q.Where("payment_status IN ?", from)
	}

	res := q.Update("payment_status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

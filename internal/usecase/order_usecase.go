package usecase

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 注文の参照（決済完了ページ・マイページ）
type OrderUsecase struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
}

func NewOrderUsecase(orders repo.OrderRepository, orderItems repo.OrderItemRepository) *OrderUsecase {
	return &OrderUsecase{orders: orders, orderItems: orderItems}
}

type OrderItemOutput struct {
	ProductID   int64           `json:"product_id"`
	VariantID   *int64          `json:"variant_id,omitempty"`
	Name        string          `json:"name"`
	VariantName string          `json:"variant_name,omitempty"`
	SKU         string          `json:"sku"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type OrderOutput struct {
	OrderNumber       string            `json:"order_number"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	Email             string            `json:"email"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	DiscountAmount    decimal.Decimal   `json:"discount_amount"`
	ShippingAmount    decimal.Decimal   `json:"shipping_amount"`
	TaxAmount         decimal.Decimal   `json:"tax_amount"`
	Total             decimal.Decimal   `json:"total"`
	Currency          string            `json:"currency"`
	ShippingOption    string            `json:"shipping_option"`
	ShippingAddress   model.Address     `json:"shipping_address"`
	BillingAddress    model.Address     `json:"billing_address"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文番号で1件。本人（ユーザーかセッション）以外は存在しない扱い
func (u *OrderUsecase) GetOrder(ctx context.Context, id Identity, number string) (OrderOutput, error) {
	if number == "" {
		return OrderOutput{}, NewHTTPError(KindValidation, "invalid order number")
	}
	if id.IsZero() {
		return OrderOutput{}, NewHTTPError(KindNotFound, "order not found")
	}

	o, err := u.orders.FindByNumber(ctx, number)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(KindNotFound, "order not found")
	}
	if err != nil {
		return OrderOutput{}, internalError(err)
	}
	if !ownsOrder(o, id) {
		return OrderOutput{}, NewHTTPError(KindNotFound, "order not found")
	}

	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, internalError(err)
	}
	return toOrderOutput(o, items), nil
}

func (u *OrderUsecase) ListOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(KindUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(KindValidation, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(KindValidation, "invalid limit")
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, internalError(err)
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItems.ListByOrderID(ctx, o.ID)
		if err != nil {
			return OrderListOutput{}, internalError(err)
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}, nil
}

func ownsOrder(o model.Order, id Identity) bool {
	if o.UserID != nil && id.UserID != nil && *o.UserID == *id.UserID {
		return true
	}
	return o.SessionID != nil && id.SessionID != "" && *o.SessionID == id.SessionID
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			Name:        it.ProductName,
			VariantName: it.VariantName,
			SKU:         it.SKU,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}

	return OrderOutput{
		OrderNumber:       o.OrderNumber,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		FulfillmentStatus: string(o.FulfillmentStatus),
		Email:             o.Email,
		Subtotal:          o.Subtotal,
		DiscountAmount:    o.DiscountAmount,
		ShippingAmount:    o.ShippingAmount,
		TaxAmount:         o.TaxAmount,
		Total:             o.Total,
		Currency:          o.Currency,
		ShippingOption:    o.ShippingOption,
		ShippingAddress:   o.ShippingAddress,
		BillingAddress:    o.BillingAddress,
		CreatedAt:         o.CreatedAt,
		Items:             outItems,
	}
}

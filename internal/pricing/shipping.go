package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"
)

var ErrUnknownShippingOption = errors.New("unknown shipping option")

// 送料の設定
type ShippingConfig struct {
	StandardRate          decimal.Decimal
	ExpressRate           decimal.Decimal
	ExpressPerPound       decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

type ShippingOption struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	EstimatedDays string          `json:"estimated_days"`
}

// ShippingRates は小計と総重量から選べる配送方法を返す。
// standard は閾値以上で無料、express は基本料＋重量課金
func ShippingRates(cfg ShippingConfig, subtotal, weight decimal.Decimal) []ShippingOption {
	standard := Round(cfg.StandardRate)
	if cfg.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		standard = decimal.Zero
	}

	express := Round(cfg.ExpressRate.Add(cfg.ExpressPerPound.Mul(weight.Ceil())))

	return []ShippingOption{
		{ID: ShippingStandard, Name: "Standard (insulated, ground)", Amount: standard, EstimatedDays: "3-5"},
		{ID: ShippingExpress, Name: "Express (overnight cold pack)", Amount: express, EstimatedDays: "1-2"},
	}
}

// 指定IDの送料
func ShippingFor(cfg ShippingConfig, optionID string, subtotal, weight decimal.Decimal) (ShippingOption, error) {
	for _, o := range ShippingRates(cfg, subtotal, weight) {
		if o.ID == optionID {
			return o, nil
		}
	}
	return ShippingOption{}, ErrUnknownShippingOption
}

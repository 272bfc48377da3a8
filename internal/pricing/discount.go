package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	Percentage   DiscountType = "PERCENTAGE"
	FixedAmount  DiscountType = "FIXED_AMOUNT"
	FreeShipping DiscountType = "FREE_SHIPPING"
)

// 割引コードのルール
type Rule struct {
	ID    int64
	Code  string
	Type  DiscountType
	Value decimal.Decimal

	Active    bool
	StartsAt  *time.Time
	ExpiresAt *time.Time

	MinimumOrderAmount    *decimal.Decimal
	MaximumDiscountAmount *decimal.Decimal

	UsageLimit            *int64
	UsageCount            int64
	UsageLimitPerCustomer *int64

	Scope Scope
}

// 適用できない理由。メッセージはそのまま画面に出す
var (
	ErrDiscountInactive     = errors.New("this discount code is not active")
	ErrDiscountNotStarted   = errors.New("this discount code is not valid yet")
	ErrDiscountExpired      = errors.New("this discount code has expired")
	ErrEmptyCart            = errors.New("add items to your cart before applying a discount code")
	ErrNotApplicable        = errors.New("this discount code does not apply to any item in your cart")
	ErrUsageLimitReached    = errors.New("this discount code has reached its usage limit")
	ErrCustomerLimitReached = errors.New("you have already used this discount code the maximum number of times")
)

// 最低注文金額に届いていない
type MinimumNotMetError struct {
	Minimum decimal.Decimal
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("a minimum order of %s is required for this discount code", e.Minimum.StringFixed(2))
}

type EligibilityInput struct {
	Subtotal     decimal.Decimal
	Lines        []Line
	Now          time.Time
	CustomerUses *int64
}

// CheckEligibility は割引コードが今のカートに使えるかを判定する。
// 最初に引っかかった理由を返す。
func CheckEligibility(r Rule, in EligibilityInput) error {
	if !r.Active {
		return ErrDiscountInactive
	}
	if r.StartsAt != nil && in.Now.Before(*r.StartsAt) {
		return ErrDiscountNotStarted
	}
	if r.ExpiresAt != nil && in.Now.After(*r.ExpiresAt) {
		return ErrDiscountExpired
	}
	if len(in.Lines) == 0 {
		return ErrEmptyCart
	}
	if r.MinimumOrderAmount != nil && in.Subtotal.LessThan(*r.MinimumOrderAmount) {
		return &MinimumNotMetError{Minimum: *r.MinimumOrderAmount}
	}
	if !anyLineMatches(r.Scope, in.Lines) {
		return ErrNotApplicable
	}
	if r.UsageLimit != nil && r.UsageCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	if r.UsageLimitPerCustomer != nil && in.CustomerUses != nil && *in.CustomerUses >= *r.UsageLimitPerCustomer {
		return ErrCustomerLimitReached
	}
	return nil
}

func anyLineMatches(s Scope, lines []Line) bool {
	for _, l := range lines {
		if Matches(s, l) {
			return true
		}
	}
	return false
}

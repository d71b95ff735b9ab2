package coupon

import (
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/backend-resto/internal/pricing"
)

// Rejection reasons. Each eligibility check produces a distinct error so the
// caller can show a precise message.
var (
	// ErrNotFound is returned when no coupon matches the code within scope.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon is disabled.
	ErrInactive = errors.New("coupon not active")
	// ErrNotYetValid is returned before the validity window opens.
	ErrNotYetValid = errors.New("coupon not yet valid")
	// ErrExpired is returned after the validity window closes.
	ErrExpired = errors.New("coupon expired")
	// ErrExhausted is returned when the usage limit is spent.
	ErrExhausted = errors.New("coupon usage limit reached")
	// ErrMinimumNotMet is returned when the order subtotal is below the
	// coupon's minimum. Use errors.As with *MinimumSpendError to read the
	// shortfall.
	ErrMinimumNotMet = errors.New("coupon minimum order not met")
)

// MinimumSpendError carries the amount the subtotal falls short by, for
// display ("add $5.00 to use this coupon").
type MinimumSpendError struct {
	Shortfall pricing.Money
}

func (e *MinimumSpendError) Error() string {
	return fmt.Sprintf("coupon minimum order not met, short by %d", e.Shortfall)
}

// Is makes errors.Is(err, ErrMinimumNotMet) hold.
func (e *MinimumSpendError) Is(target error) bool {
	return target == ErrMinimumNotMet
}

// Type selects how a coupon value is interpreted.
type Type string

// Coupon types.
const (
	TypePercentage Type = "PERCENTAGE"
	TypeFixed      Type = "FIXED"
)

// Rule is a read-only snapshot of a coupon's runtime constraints. Usage
// counters are never mutated through a Rule; redemption happens via the
// service at order finalization.
type Rule struct {
	Code        string
	Type        Type
	Value       int64
	MinOrder    *pricing.Money
	MaxDiscount *pricing.Money
	Active      bool
	StartsAt    *time.Time
	EndsAt      *time.Time
	UsageLimit  *int32
	UsedCount   int32
}

// Validate runs the eligibility checks in order, short-circuiting on the
// first failure. The window bounds are inclusive: a coupon is usable at the
// exact start and end instants.
func (r Rule) Validate(now time.Time, subtotal pricing.Money) error {
	if !r.Active {
		return ErrInactive
	}
	if r.StartsAt != nil && now.Before(*r.StartsAt) {
		return ErrNotYetValid
	}
	if r.EndsAt != nil && now.After(*r.EndsAt) {
		return ErrExpired
	}
	if r.UsageLimit != nil && r.UsedCount >= *r.UsageLimit {
		return ErrExhausted
	}
	if r.MinOrder != nil && subtotal < *r.MinOrder {
		return &MinimumSpendError{Shortfall: *r.MinOrder - subtotal}
	}
	return nil
}

// Discount converts the rule into a monetary discount against the
// merchandise subtotal. Percentage discounts round half-up and cap at the
// configured maximum; fixed discounts clamp at the subtotal so the
// discounted amount can never go negative.
func (r Rule) Discount(subtotal pricing.Money) pricing.Money {
	if subtotal <= 0 {
		return 0
	}
	var discount pricing.Money
	switch r.Type {
	case TypePercentage:
		discount = subtotal.PercentOf(r.Value)
		if r.MaxDiscount != nil && discount > *r.MaxDiscount {
			discount = *r.MaxDiscount
		}
	default:
		discount = pricing.Money(r.Value)
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		return 0
	}
	return discount
}

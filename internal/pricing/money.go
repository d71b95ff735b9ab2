package pricing

import "errors"

// Money represents a monetary value stored in minor units (cents).
// Monetary amounts are never represented as floating point anywhere in the
// pricing path; fractional rates are expressed in basis points and rounded
// exactly once per component.
type Money int64

// ErrInvalidAmount is returned when a negative value is used where the
// amount must be non-negative (unit prices, fees).
var ErrInvalidAmount = errors.New("pricing: invalid amount")

// NewAmount validates v as a non-negative amount in minor units.
func NewAmount(v int64) (Money, error) {
	if v < 0 {
		return 0, ErrInvalidAmount
	}
	return Money(v), nil
}

// MulQty multiplies the amount by an integer quantity.
func (m Money) MulQty(qty int) Money {
	return m * Money(qty)
}

// MulRate multiplies the amount by a rate given in basis points, rounding
// half-up to the nearest minor unit.
func (m Money) MulRate(bps int64) Money {
	if m <= 0 || bps <= 0 {
		return 0
	}
	n := int64(m) * bps
	return Money((n + 5000) / 10000)
}

// PercentOf returns pct percent of the amount, rounded half-up.
func (m Money) PercentOf(pct int64) Money {
	if m <= 0 || pct <= 0 {
		return 0
	}
	n := int64(m) * pct
	return Money((n + 50) / 100)
}

// Min returns the smaller of m and other.
func (m Money) Min(other Money) Money {
	if other < m {
		return other
	}
	return m
}

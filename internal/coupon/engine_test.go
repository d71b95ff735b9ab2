package coupon

import (
	"errors"
	"testing"
	"time"

	"github.com/noah-isme/backend-resto/internal/pricing"
)

func activeRule(t Type, value int64) Rule {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	return Rule{Code: "PROMO", Type: t, Value: value, Active: true, StartsAt: &start, EndsAt: &end}
}

func TestValidateInactive(t *testing.T) {
	rule := activeRule(TypeFixed, 500)
	rule.Active = false
	if err := rule.Validate(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 10_000); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestValidateWindowBoundaries(t *testing.T) {
	rule := activeRule(TypeFixed, 500)
	cases := []struct {
		name string
		at   time.Time
		want error
	}{
		{"before start", rule.StartsAt.Add(-time.Second), ErrNotYetValid},
		{"at start", *rule.StartsAt, nil},
		{"at end", *rule.EndsAt, nil},
		{"one second after end", rule.EndsAt.Add(time.Second), ErrExpired},
	}
	for _, tc := range cases {
		err := rule.Validate(tc.at, 10_000)
		if tc.want == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestValidateExhausted(t *testing.T) {
	rule := activeRule(TypeFixed, 500)
	limit := int32(10)
	rule.UsageLimit = &limit
	rule.UsedCount = 10
	if err := rule.Validate(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 10_000); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestValidateMinimumShortfall(t *testing.T) {
	rule := activeRule(TypeFixed, 500)
	min := pricing.Money(2000)
	rule.MinOrder = &min
	err := rule.Validate(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 1500)
	if !errors.Is(err, ErrMinimumNotMet) {
		t.Fatalf("expected ErrMinimumNotMet, got %v", err)
	}
	var spendErr *MinimumSpendError
	if !errors.As(err, &spendErr) {
		t.Fatalf("expected MinimumSpendError, got %T", err)
	}
	if spendErr.Shortfall != 500 {
		t.Fatalf("expected shortfall 500, got %d", spendErr.Shortfall)
	}
}

func TestDiscountPercentageCapped(t *testing.T) {
	rule := activeRule(TypePercentage, 10)
	max := pricing.Money(500)
	rule.MaxDiscount = &max
	if got := rule.Discount(5000); got != 500 {
		t.Fatalf("expected discount 500, got %d", got)
	}
	// Below the cap the raw percentage applies.
	if got := rule.Discount(3000); got != 300 {
		t.Fatalf("expected discount 300, got %d", got)
	}
}

func TestDiscountPercentageRoundsHalfUp(t *testing.T) {
	rule := activeRule(TypePercentage, 15)
	// 15% of 1999 = 299.85, rounds to 300.
	if got := rule.Discount(1999); got != 300 {
		t.Fatalf("expected discount 300, got %d", got)
	}
}

func TestDiscountFixedClampedAtSubtotal(t *testing.T) {
	rule := activeRule(TypeFixed, 1000)
	got := rule.Discount(800)
	if got != 800 {
		t.Fatalf("expected discount clamped to 800, got %d", got)
	}
}

func TestDiscountNeverNegative(t *testing.T) {
	rule := activeRule(TypeFixed, -100)
	if got := rule.Discount(800); got != 0 {
		t.Fatalf("expected zero discount, got %d", got)
	}
	if got := activeRule(TypePercentage, 10).Discount(0); got != 0 {
		t.Fatalf("expected zero discount on empty subtotal, got %d", got)
	}
}

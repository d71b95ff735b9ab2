package pricing

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidQuantity is returned when a line item carries a non-positive quantity.
var ErrInvalidQuantity = errors.New("pricing: quantity must be positive")

// Addon is a selected menu add-on priced per unit of the parent item.
type Addon struct {
	Name      string
	UnitPrice Money
}

// Item describes a line item used for pricing calculation. UnitPrice and
// add-on prices are snapshots taken when the item entered the cart.
type Item struct {
	Qty       int
	UnitPrice Money
	Addons    []Addon
}

// unitTotal is the per-unit price including selected add-ons.
func (it Item) unitTotal() Money {
	total := it.UnitPrice
	for _, a := range it.Addons {
		total += a.UnitPrice
	}
	return total
}

// Subtotal aggregates line items into the merchandise subtotal. It is a pure
// function of its input: an empty cart yields zero, a non-positive quantity
// or negative price is rejected.
func Subtotal(items []Item) (Money, error) {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			return 0, ErrInvalidQuantity
		}
		if it.UnitPrice < 0 {
			return 0, ErrInvalidAmount
		}
		for _, a := range it.Addons {
			if a.UnitPrice < 0 {
				return 0, ErrInvalidAmount
			}
		}
		subtotal += it.unitTotal().MulQty(it.Qty)
	}
	return subtotal, nil
}

// Summary aggregates computed pricing components. It is returned fresh on
// every quote and never partially updated.
type Summary struct {
	Subtotal      Money `json:"subtotal"`
	DeliveryFee   Money `json:"deliveryFee"`
	ProcessingFee Money `json:"processingFee"`
	PlatformFee   Money `json:"platformFee"`
	Discount      Money `json:"discount"`
	Total         Money `json:"total"`
}

// DiscountSource resolves a coupon code into a discount amount against the
// merchandise subtotal. The timestamp is passed in explicitly so quotes stay
// reproducible; implementations must not read a global clock.
type DiscountSource interface {
	Discount(ctx context.Context, code string, subtotal Money, at time.Time) (Money, error)
}

// Engine composes the aggregator, fee policy, and coupon resolution into a
// single quote path so every surface computes totals the same way.
type Engine struct {
	Policy  FeePolicy
	Coupons DiscountSource
}

// Quote prices the given line items. A blank coupon code means no discount.
// The discount applies to the merchandise subtotal only; fees are never
// discounted. Calling Quote twice with identical inputs yields identical
// output.
func (e Engine) Quote(ctx context.Context, items []Item, mode Fulfillment, couponCode string, at time.Time) (Summary, error) {
	subtotal, err := Subtotal(items)
	if err != nil {
		return Summary{}, err
	}
	fees := e.Policy.Calculate(subtotal, mode)

	var discount Money
	if couponCode != "" {
		if e.Coupons == nil {
			return Summary{}, errors.New("pricing: no coupon resolver configured")
		}
		discount, err = e.Coupons.Discount(ctx, couponCode, subtotal, at)
		if err != nil {
			return Summary{}, err
		}
	}
	// The coupon engine already clamps, but the invariant holds here too:
	// a discount never exceeds the merchandise subtotal.
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}

	return Summary{
		Subtotal:      subtotal,
		DeliveryFee:   fees.Delivery,
		ProcessingFee: fees.Processing,
		PlatformFee:   fees.Platform,
		Discount:      discount,
		Total:         subtotal + fees.Total() - discount,
	}, nil
}

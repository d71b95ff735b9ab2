package pricing

// Fulfillment selects how an order reaches the customer.
type Fulfillment string

// Supported fulfillment modes.
const (
	FulfillmentDelivery Fulfillment = "DELIVERY"
	FulfillmentPickup   Fulfillment = "PICKUP"
)

// FeePolicy holds the named fee configuration applied at quote time. Values
// come from deployment configuration so restaurants can vary them without
// code changes.
type FeePolicy struct {
	// DeliveryFee is the flat charge applied to DELIVERY orders.
	DeliveryFee Money
	// ProcessingRateBPS is the payment processing rate in basis points.
	ProcessingRateBPS int64
	// ProcessingFixedFee is the fixed per-order processing charge.
	ProcessingFixedFee Money
	// PlatformFee is the flat platform charge applied to every order.
	PlatformFee Money
}

// DefaultFeePolicy mirrors the platform-wide defaults: 2.9% + 30 minor units
// processing, 199 minor units platform fee, 299 minor units delivery.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		DeliveryFee:        299,
		ProcessingRateBPS:  290,
		ProcessingFixedFee: 30,
		PlatformFee:        199,
	}
}

// Fees breaks down the fulfillment charges for an order.
type Fees struct {
	Delivery   Money
	Processing Money
	Platform   Money
}

// Total sums the fee components.
func (f Fees) Total() Money {
	return f.Delivery + f.Processing + f.Platform
}

// Calculate derives the fee components from the merchandise subtotal and the
// fulfillment mode. Fees are always computable; there are no error cases.
func (p FeePolicy) Calculate(subtotal Money, mode Fulfillment) Fees {
	fees := Fees{
		Processing: subtotal.MulRate(p.ProcessingRateBPS) + p.ProcessingFixedFee,
		Platform:   p.PlatformFee,
	}
	if mode == FulfillmentDelivery {
		fees.Delivery = p.DeliveryFee
	}
	return fees
}

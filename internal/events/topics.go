package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated        = "order.created"
	TopicOrderAccepted       = "order.accepted"
	TopicOrderReadyForPickup = "order.ready_for_pickup"
	TopicOrderOutForDelivery = "order.out_for_delivery"
	TopicOrderDelivered      = "order.delivered"
	TopicOrderCancelled      = "order.cancelled"
	TopicCouponRedeemed      = "coupon.redeemed"
)

// DefaultTopics returns the canonical list of topics that support
// notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderAccepted,
		TopicOrderReadyForPickup,
		TopicOrderOutForDelivery,
		TopicOrderDelivered,
		TopicOrderCancelled,
		TopicCouponRedeemed,
	}
}

package order

import "errors"

// Status is an order lifecycle state.
type Status string

// Lifecycle states. Forward progress only; CANCELLED and DELIVERED are
// terminal.
const (
	StatusPending        Status = "PENDING"
	StatusAccepted       Status = "ACCEPTED"
	StatusReadyForPickup Status = "READY_FOR_PICKUP"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// ErrInvalidTransition is returned for a transition the lifecycle does not
// allow.
var ErrInvalidTransition = errors.New("invalid order status transition")

var statusRank = map[Status]int{
	StatusPending:        0,
	StatusAccepted:       1,
	StatusReadyForPickup: 2,
	StatusOutForDelivery: 3,
	StatusDelivered:      4,
}

// Known reports whether s is a recognised lifecycle state.
func Known(s Status) bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transition may leave s.
func Terminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from one state to the
// next. Progress is strictly forward along the fulfilment chain; any
// non-terminal state may cancel.
func CanTransition(from, to Status) bool {
	if !Known(from) || !Known(to) || from == to {
		return false
	}
	if Terminal(from) {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank == fromRank+1
}

// CancellableByCustomer reports whether the customer may still cancel; once
// the kitchen accepts, only staff can.
func CancellableByCustomer(s Status) bool {
	return s == StatusPending
}

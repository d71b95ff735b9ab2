package order

import "testing"

func TestTransitionsForwardOnly(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusAccepted, StatusReadyForPickup, true},
		{StatusReadyForPickup, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusPending, StatusReadyForPickup, false},
		{StatusAccepted, StatusPending, false},
		{StatusDelivered, StatusOutForDelivery, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCancellationFromAnyNonTerminalState(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusAccepted, StatusReadyForPickup, StatusOutForDelivery} {
		if !CanTransition(from, StatusCancelled) {
			t.Errorf("expected %s to be cancellable", from)
		}
	}
	for _, from := range []Status{StatusDelivered, StatusCancelled} {
		if CanTransition(from, StatusCancelled) {
			t.Errorf("expected terminal %s not to be cancellable", from)
		}
	}
}

func TestCustomerCancellationWindow(t *testing.T) {
	if !CancellableByCustomer(StatusPending) {
		t.Fatal("pending orders must be customer-cancellable")
	}
	for _, s := range []Status{StatusAccepted, StatusReadyForPickup, StatusOutForDelivery, StatusDelivered, StatusCancelled} {
		if CancellableByCustomer(s) {
			t.Errorf("%s must not be customer-cancellable", s)
		}
	}
}

func TestUnknownStatusNeverTransitions(t *testing.T) {
	if CanTransition(Status("REFUNDED"), StatusCancelled) {
		t.Fatal("unknown source status must not transition")
	}
	if CanTransition(StatusPending, Status("REFUNDED")) {
		t.Fatal("unknown target status must not transition")
	}
}

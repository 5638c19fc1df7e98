package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusDelivered, StatusPending, false},
		{StatusPending, StatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		ok       bool
	}{
		{PaymentPending, PaymentPaid, true},
		{PaymentPending, PaymentProcessing, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentProcessing, PaymentPaid, true},
		{PaymentProcessing, PaymentFailed, true},
		{PaymentPaid, PaymentRefunded, true},
		{PaymentFailed, PaymentPending, true},
		{PaymentPaid, PaymentPending, false},
		{PaymentRefunded, PaymentPaid, false},
		{PaymentPending, PaymentRefunded, false},
		{PaymentPaid, PaymentPaid, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPaymentStatusFromProvider(t *testing.T) {
	assert.Equal(t, PaymentPaid, PaymentStatusFromProvider("Authorised"))
	assert.Equal(t, PaymentPaid, PaymentStatusFromProvider("succeeded"))
	assert.Equal(t, PaymentFailed, PaymentStatusFromProvider("Refused"))
	assert.Equal(t, PaymentFailed, PaymentStatusFromProvider("payment_failed"))

	// Intermediate provider states must never map to paid.
	for _, s := range []string{"Pending", "Received", "processing", "requires_action", "requires_capture", ""} {
		assert.Equal(t, PaymentProcessing, PaymentStatusFromProvider(s), s)
	}
}

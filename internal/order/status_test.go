package order

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
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, false},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusShipped, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPaymentTransitions(t *testing.T) {
	assert.True(t, PaymentPending.CanTransition(PaymentSucceeded))
	assert.True(t, PaymentFailed.CanTransition(PaymentProcessing))
	assert.False(t, PaymentSucceeded.CanTransition(PaymentFailed))
	assert.False(t, PaymentSucceeded.CanTransition(PaymentPending))
	assert.True(t, PaymentSucceeded.CanTransition(PaymentRefunded))
}

func TestShippingTransitions(t *testing.T) {
	assert.True(t, ShippingNotShipped.CanTransition(ShippingPreparing))
	assert.False(t, ShippingNotShipped.CanTransition(ShippingDelivered))
	assert.True(t, ShippingDeliveryFailed.CanTransition(ShippingReturned))
	assert.False(t, ShippingDelivered.CanTransition(ShippingReturned))
}

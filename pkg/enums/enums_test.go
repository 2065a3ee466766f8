package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentMethodAliases(t *testing.T) {
	for _, raw := range []string{"prepay", " PREPAY ", "mpesa", "M-Pesa"} {
		got, err := ParsePaymentMethod(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, PaymentMethodPrepay, got, raw)
	}

	got, err := ParsePaymentMethod("Cash")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCash, got)

	_, err = ParsePaymentMethod("card")
	require.Error(t, err)
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusOutForDelivery.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())

	status, err := ParseOrderStatus("Out for Delivery")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusOutForDelivery, status)
	_, err = ParseOrderStatus("out-for-delivery")
	require.Error(t, err)
}

func TestActorRoles(t *testing.T) {
	role, err := ParseActorRole(" Staff ")
	require.NoError(t, err)
	assert.True(t, role.IsFulfillment())
	assert.True(t, ActorRoleAdmin.IsFulfillment())
	assert.False(t, ActorRoleCustomer.IsFulfillment())

	_, err = ParseActorRole("root")
	require.Error(t, err)
}

func TestOutboxEventTypes(t *testing.T) {
	for _, evt := range []OutboxEventType{EventOrderCreated, EventOrderClaimed, EventOrderDelivered} {
		assert.True(t, evt.IsValid())
		parsed, err := ParseOutboxEventType(string(evt))
		require.NoError(t, err)
		assert.Equal(t, evt, parsed)
	}
	assert.False(t, OutboxEventType("license_expired").IsValid())
	assert.True(t, AggregateOrder.IsValid())
	assert.True(t, OutboxDLQReasonMaxAttempts.IsValid())
}

func TestParseErrorsQuoteTheRawInput(t *testing.T) {
	_, err := ParsePaymentMethod(" Card ")
	assert.EqualError(t, err, `invalid payment method " Card "`)

	_, err = ParsePaymentStatus("paid")
	assert.EqualError(t, err, `invalid payment status "paid"`)

	status, err := ParsePaymentStatus("Payment Failed")
	require.NoError(t, err)
	assert.False(t, status.IsSettled())
	assert.True(t, PaymentStatusComplete.IsSettled())
}

func TestNotificationTypes(t *testing.T) {
	kind, err := ParseNotificationType("order_on_the_way")
	require.NoError(t, err)
	assert.Equal(t, NotificationTypeOrderOnTheWay, kind)
	assert.False(t, NotificationType("promo").IsValid())
	assert.False(t, OutboxDLQErrorReason("timeout").IsValid())
}

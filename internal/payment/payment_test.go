package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

const secret = "whsec_test"

func TestAmountCents(t *testing.T) {
	assert.Equal(t, int64(21600), AmountCents(decimal.RequireFromString("216.00")))
	assert.Equal(t, int64(8640), AmountCents(decimal.RequireFromString("86.4")))
	assert.Equal(t, int64(1), AmountCents(decimal.RequireFromString("0.005")))
}

func TestConstructEvent_IntentSucceeded(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_1",
			"object": "payment_intent",
			"amount": 21600,
			"currency": "usd",
			"status": "succeeded",
			"customer": "cus_1",
			"metadata": {"userId": "4", "orderId": "9", "orderNumber": "ORD-1"}
		}}
	}`)
	header := SignPayload(payload, secret, time.Now())

	ev, err := NewFakeGateway(secret).ConstructEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventIntentSucceeded, ev.Type)
	require.NotNil(t, ev.Intent)
	assert.Equal(t, "pi_1", ev.Intent.ID)
	assert.Equal(t, IntentSucceeded, ev.Intent.Status)
	assert.Equal(t, int64(21600), ev.Intent.AmountCents)
	assert.Equal(t, "cus_1", ev.Intent.CustomerID)
	assert.Equal(t, "ORD-1", ev.Intent.Metadata[MetaOrderNumber])
	assert.Nil(t, ev.Method)
}

func TestConstructEvent_MethodAttached(t *testing.T) {
	payload := []byte(`{
		"id": "evt_2",
		"object": "event",
		"type": "payment_method.attached",
		"data": {"object": {
			"id": "pm_1",
			"object": "payment_method",
			"customer": "cus_1",
			"card": {"brand": "visa", "last4": "4242", "exp_month": 12, "exp_year": 2030},
			"billing_details": {"name": "Ada Lovelace", "email": "ada@example.com"}
		}}
	}`)
	header := SignPayload(payload, secret, time.Now())

	ev, err := NewStripeGateway("", secret).ConstructEvent(payload, header)
	require.NoError(t, err)
	require.NotNil(t, ev.Method)
	assert.Equal(t, Method{
		ID: "pm_1", CustomerID: "cus_1", Brand: "visa", Last4: "4242",
		ExpMonth: 12, ExpYear: 2030, BillingName: "Ada Lovelace", BillingEmail: "ada@example.com",
	}, *ev.Method)
}

func TestConstructEvent_BadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded"}`)

	_, err := NewFakeGateway(secret).ConstructEvent(payload, SignPayload(payload, "other", time.Now()))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = NewFakeGateway(secret).ConstructEvent(payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// stale timestamps are rejected too
	_, err = NewFakeGateway(secret).ConstructEvent(payload, SignPayload(payload, secret, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTranslate(t *testing.T) {
	err := translate(&stripe.Error{Msg: "Your card was declined."})
	assert.Equal(t, apperr.KindPaymentGateway, apperr.KindOf(err))
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "Your card was declined.", ae.Message)

	err = translate(errors.New("dial tcp: timeout"))
	assert.Equal(t, apperr.KindPaymentGateway, apperr.KindOf(err))
}

func TestFakeGateway_SavedMethodIntent(t *testing.T) {
	g := NewFakeGateway(secret)
	ctx := context.Background()
	g.AddMethod(Method{ID: "pm_ok", Brand: "visa", Last4: "4242"})
	g.AddMethod(Method{ID: "pm_bad", Brand: "visa", Last4: "0002"})
	g.Decline("pm_bad", "Your card was declined.")

	in, err := g.CreateIntent(ctx, IntentParams{
		AmountCents: 1000, Currency: "usd", PaymentMethodID: "pm_ok",
		Confirm: true, ManualConfirmation: true, Metadata: map[string]string{MetaOrderID: "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, IntentSucceeded, in.Status)
	assert.Equal(t, "1", in.Metadata[MetaOrderID])

	_, err = g.CreateIntent(ctx, IntentParams{
		AmountCents: 1000, Currency: "usd", PaymentMethodID: "pm_bad", Confirm: true, ManualConfirmation: true,
	})
	assert.Equal(t, apperr.KindPaymentGateway, apperr.KindOf(err))

	in, err = g.CreateIntent(ctx, IntentParams{AmountCents: 1000, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, IntentRequiresPaymentMethod, in.Status)
	assert.NotEmpty(t, in.ClientSecret)

	in, err = g.UpdateIntentMetadata(ctx, in.ID, map[string]string{MetaOrderNumber: "ORD-2"})
	require.NoError(t, err)
	assert.Equal(t, "ORD-2", in.Metadata[MetaOrderNumber])
}

func TestFakeGateway_AttachDetach(t *testing.T) {
	g := NewFakeGateway(secret)
	ctx := context.Background()
	g.AddMethod(Method{ID: "pm_1"})

	m, err := g.AttachPaymentMethod(ctx, "pm_1", "cus_a")
	require.NoError(t, err)
	assert.Equal(t, "cus_a", m.CustomerID)

	_, err = g.AttachPaymentMethod(ctx, "pm_1", "cus_b")
	assert.Equal(t, apperr.KindPaymentGateway, apperr.KindOf(err))

	require.NoError(t, g.DetachPaymentMethod(ctx, "pm_1"))
	assert.Error(t, g.DetachPaymentMethod(ctx, "pm_1"))
}

func TestCustomerResolver_CreatesOnce(t *testing.T) {
	users := user.NewService(user.NewInMemoryRepository([]user.User{
		{ID: 4, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
	}))
	ctx := context.Background()
	u, err := users.GetByID(ctx, 4)
	require.NoError(t, err)

	r := NewCustomerResolver(users, NewFakeGateway(secret))
	first, err := r.Resolve(ctx, u.ID)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	owner, err := users.GetByPaymentCustomerID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner.ID)
}

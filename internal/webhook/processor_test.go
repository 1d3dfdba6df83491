package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/events"
	"github.com/itsalifarrukh/hb-apparel/internal/order"
	"github.com/itsalifarrukh/hb-apparel/internal/payment"
	"github.com/itsalifarrukh/hb-apparel/internal/paymentmethod"
	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
	"github.com/itsalifarrukh/hb-apparel/internal/product"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

const secret = "whsec_test"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	processor *Processor
	orders    *order.Service
	products  *product.InMemoryRepository
	methods   *paymentmethod.InMemoryRepository
	publisher *events.RecordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	products := product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Oxford Shirt", Price: dec("100"), Discount: dec("0"), DiscountedPrice: dec("100"), Stock: 10},
	})
	pub := &events.RecordingPublisher{}
	orders := order.NewService(order.NewInMemoryRepository(), products, database.NoopTx{}, pub, "orders.events", zerolog.Nop())

	customer := "cus_ada"
	users := user.NewService(user.NewInMemoryRepository([]user.User{
		{ID: 7, Email: "ada@example.com", PaymentCustomerID: &customer},
	}))
	gateway := payment.NewFakeGateway(secret)
	methodRepo := paymentmethod.NewInMemoryRepository()
	methods := paymentmethod.NewService(methodRepo, gateway, payment.NewCustomerResolver(users, gateway), users, database.NoopTx{}, zerolog.Nop())

	p := NewProcessor(Options{
		Verifier:        gateway,
		Store:           NewMemoryStore(),
		Orders:          orders,
		Methods:         methods,
		Tx:              database.NoopTx{},
		Publisher:       pub,
		DeadLetterTopic: "payments.webhooks.dlq",
		Logger:          zerolog.Nop(),
	})
	return fixture{processor: p, orders: orders, products: products, methods: methodRepo, publisher: pub}
}

func (f fixture) place(t *testing.T) order.Order {
	t.Helper()
	o, err := f.orders.Create(context.Background(), order.NewOrder{
		UserID:  7,
		Summary: pricing.Summarize(dec("200")),
		Items: []order.Item{
			{ProductID: 1, Name: "Oxford Shirt", Price: dec("100"), Discount: decimal.Zero, UnitPrice: dec("100"), Quantity: 2},
		},
	})
	require.NoError(t, err)
	return o
}

func (f fixture) stock(t *testing.T) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), 1)
	require.NoError(t, err)
	return p.Stock
}

func intentEvent(eventID, eventType, intentID string, metadata map[string]string) []byte {
	md, _ := json.Marshal(metadata)
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"type": %q,
		"data": {"object": {
			"id": %q,
			"object": "payment_intent",
			"amount": 21600,
			"currency": "usd",
			"status": "succeeded",
			"metadata": %s
		}}
	}`, eventID, eventType, intentID, md))
}

func (f fixture) deliver(t *testing.T, payload []byte) Outcome {
	t.Helper()
	outcome, err := f.processor.Handle(context.Background(), payload, payment.SignPayload(payload, secret, time.Now()))
	require.NoError(t, err)
	return outcome
}

func TestHandle_RejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	o := f.place(t)
	payload := intentEvent("evt_1", payment.EventIntentSucceeded, "pi_1", map[string]string{"orderNumber": o.OrderNumber})

	outcome, err := f.processor.Handle(context.Background(), payload, payment.SignPayload(payload, "whsec_other", time.Now()))
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	assert.Equal(t, OutcomeRejected, outcome)

	got, err := f.orders.Get(context.Background(), 7, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPending, got.PaymentStatus)
	assert.Equal(t, 10, f.stock(t))
}

func TestHandle_SucceededConfirmsOnce(t *testing.T) {
	f := newFixture(t)
	o := f.place(t)
	md := map[string]string{"userId": "7", "orderId": fmt.Sprint(o.ID), "orderNumber": o.OrderNumber}

	payload := intentEvent("evt_1", payment.EventIntentSucceeded, "pi_1", md)
	assert.Equal(t, OutcomeProcessed, f.deliver(t, payload))

	got, err := f.orders.Get(context.Background(), 7, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentSucceeded, got.PaymentStatus)
	assert.Equal(t, order.StatusConfirmed, got.Status)
	assert.Equal(t, 8, f.stock(t))

	// the same delivery replayed
	assert.Equal(t, OutcomeDuplicate, f.deliver(t, payload))
	// a second event for the same intent
	assert.Equal(t, OutcomeProcessed, f.deliver(t, intentEvent("evt_2", payment.EventIntentSucceeded, "pi_1", md)))
	assert.Equal(t, 8, f.stock(t), "stock is decremented once")

	assert.Equal(t, []string{events.OrderPaymentSucceeded}, f.publisher.Types("orders.events"))
}

func TestHandle_LocatesByStoredIntent(t *testing.T) {
	f := newFixture(t)
	o := f.place(t)
	_, err := f.orders.AttachPaymentIntent(context.Background(), o, "pi_9", nil)
	require.NoError(t, err)

	assert.Equal(t, OutcomeProcessed, f.deliver(t, intentEvent("evt_1", payment.EventIntentSucceeded, "pi_9", map[string]string{"userId": "7"})))

	got, err := f.orders.Get(context.Background(), 7, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentSucceeded, got.PaymentStatus)
}

func TestHandle_ProcessingAndFailed(t *testing.T) {
	f := newFixture(t)
	o := f.place(t)
	md := map[string]string{"orderNumber": o.OrderNumber}

	f.deliver(t, intentEvent("evt_1", payment.EventIntentProcessing, "pi_1", md))
	got, err := f.orders.Get(context.Background(), 7, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentProcessing, got.PaymentStatus)

	f.deliver(t, intentEvent("evt_2", payment.EventIntentFailed, "pi_1", md))
	got, err = f.orders.Get(context.Background(), 7, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentFailed, got.PaymentStatus)
	assert.Equal(t, order.StatusPending, got.Status)
}

func TestHandle_FailureNeverDowngradesSuccess(t *testing.T) {
	f := newFixture(t)
	o := f.place(t)
	md := map[string]string{"orderNumber": o.OrderNumber}

	f.deliver(t, intentEvent("evt_1", payment.EventIntentSucceeded, "pi_1", md))
	f.deliver(t, intentEvent("evt_2", payment.EventIntentFailed, "pi_1", md))

	got, err := f.orders.Get(context.Background(), 7, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentSucceeded, got.PaymentStatus)
}

func TestHandle_UnknownOrderIsDeadLettered(t *testing.T) {
	f := newFixture(t)

	outcome := f.deliver(t, intentEvent("evt_1", payment.EventIntentSucceeded, "pi_x", map[string]string{"orderNumber": "ORD-NOPE"}))
	assert.Equal(t, OutcomeFailed, outcome)

	sent := f.publisher.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "payments.webhooks.dlq", sent[0].Topic)
	assert.Equal(t, "evt_1", sent[0].Key)
	assert.Equal(t, events.WebhookFailed, sent[0].Envelope.Type)

	var dl deadLetter
	require.NoError(t, json.Unmarshal(sent[0].Envelope.Data, &dl))
	assert.Equal(t, payment.EventIntentSucceeded, dl.EventType)
	assert.Contains(t, dl.Error, "pi_x")
}

func TestHandle_FailedDeliveryCanBeRetried(t *testing.T) {
	f := newFixture(t)
	o := f.place(t)
	payload := intentEvent("evt_1", payment.EventIntentSucceeded, "pi_late", map[string]string{"userId": "7"})

	// the intent is not linked to any order yet
	assert.Equal(t, OutcomeFailed, f.deliver(t, payload))
	assert.Equal(t, 10, f.stock(t))

	_, err := f.orders.AttachPaymentIntent(context.Background(), o, "pi_late", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, f.deliver(t, payload))
	assert.Equal(t, 8, f.stock(t))
	assert.Equal(t, OutcomeDuplicate, f.deliver(t, payload))
}

func TestHandle_IgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	payload := []byte(`{"id":"evt_1","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)
	assert.Equal(t, OutcomeIgnored, f.deliver(t, payload))
}

func TestHandle_MethodAttached(t *testing.T) {
	f := newFixture(t)
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "payment_method.attached",
		"data": {"object": {
			"id": "pm_1",
			"object": "payment_method",
			"customer": "cus_ada",
			"card": {"brand": "visa", "last4": "4242", "exp_month": 12, "exp_year": 2030},
			"billing_details": {"name": "Ada Lovelace", "email": "ada@example.com"}
		}}
	}`)
	assert.Equal(t, OutcomeProcessed, f.deliver(t, payload))

	list, err := f.methods.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pm_1", list[0].ProcessorID)
	assert.Equal(t, "4242", list[0].Last4)

	// a second attach event for the same method adds nothing
	second := []byte(strings.Replace(string(payload), `"evt_1"`, `"evt_2"`, 1))
	assert.Equal(t, OutcomeProcessed, f.deliver(t, second))
	list, err = f.methods.List(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type failingStore struct{}

func (failingStore) Record(context.Context, string, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestHandle_StoreFailureIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.processor.store = failingStore{}
	o := f.place(t)

	outcome := f.deliver(t, intentEvent("evt_1", payment.EventIntentSucceeded, "pi_1", map[string]string{"orderNumber": o.OrderNumber}))
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, 10, f.stock(t))
}

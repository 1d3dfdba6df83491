package order

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/events"
	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
	"github.com/itsalifarrukh/hb-apparel/internal/product"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	svc       *Service
	repo      *InMemoryRepository
	products  *product.InMemoryRepository
	publisher *events.RecordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	products := product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Oxford Shirt", Price: dec("100"), Discount: dec("0"), DiscountedPrice: dec("100"), Stock: 10},
		{ID: 2, Name: "Chinos", Price: dec("19.99"), Discount: dec("33"), DiscountedPrice: dec("13.39"), Stock: 1},
	})
	repo := NewInMemoryRepository()
	pub := &events.RecordingPublisher{}
	svc := NewService(repo, products, database.NoopTx{}, pub, "orders.events", zerolog.Nop())
	return fixture{svc: svc, repo: repo, products: products, publisher: pub}
}

func (f fixture) place(t *testing.T, userID int) Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), NewOrder{
		UserID:  userID,
		Summary: pricing.Summary{Subtotal: dec("200"), TaxAmount: dec("16"), ShippingCost: decimal.Zero, DiscountAmount: decimal.Zero, TotalAmount: dec("216")},
		Items: []Item{
			{ProductID: 1, Name: "Oxford Shirt", Price: dec("100"), Discount: decimal.Zero, UnitPrice: dec("100"), Quantity: 2},
		},
	})
	require.NoError(t, err)
	return o
}

func (f fixture) stock(t *testing.T, id int) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCreate_InitialStatuses(t *testing.T) {
	f := newFixture(t)
	o := f.place(t, 3)

	assert.NotEmpty(t, o.OrderNumber)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, ShippingNotShipped, o.ShippingStatus)
	assert.Equal(t, "216.00", o.TotalAmount.StringFixed(2))
	require.Len(t, o.Items, 1)
	// stock is untouched until payment succeeds
	assert.Equal(t, 10, f.stock(t, 1))
}

func TestCreate_RequiresItems(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), NewOrder{UserID: 3})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestGet_OwnershipCheck(t *testing.T) {
	f := newFixture(t)
	o := f.place(t, 3)

	got, err := f.svc.Get(context.Background(), 3, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.svc.Get(context.Background(), 4, o.OrderNumber)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order is cancelled", func(t *testing.T) {
		f := newFixture(t)
		o := f.place(t, 3)

		got, err := f.svc.Cancel(ctx, 3, o.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, []string{events.OrderCancelled}, f.publisher.Types("orders.events"))
	})

	t.Run("shipped order is rejected", func(t *testing.T) {
		f := newFixture(t)
		o := f.place(t, 3)
		o.Status = StatusShipped
		_, err := f.repo.Update(ctx, o, o.PaymentStatus)
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, 3, o.OrderNumber)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

		got, err := f.svc.Get(ctx, 3, o.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, StatusShipped, got.Status)
	})

	t.Run("other users cannot cancel", func(t *testing.T) {
		f := newFixture(t)
		o := f.place(t, 3)
		_, err := f.svc.Cancel(ctx, 9, o.OrderNumber)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 3)

	notes := "  leave at the door "
	got, err := f.svc.Update(ctx, 3, o.OrderNumber, UpdateInput{CustomerNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "leave at the door", got.CustomerNotes)

	shipped := StatusShipped
	_, err = f.svc.Update(ctx, 3, o.OrderNumber, UpdateInput{Status: &shipped})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Update(ctx, 3, o.OrderNumber, UpdateInput{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	cancelled := StatusCancelled
	later := "call before delivery"
	got, err = f.svc.Update(ctx, 3, o.OrderNumber, UpdateInput{Status: &cancelled, CustomerNotes: &later})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, "call before delivery", got.CustomerNotes)
	assert.Equal(t, []string{events.OrderCancelled}, f.publisher.Types("orders.events"))
}

func TestUpdate_RejectedCancelKeepsNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 3)
	o.Status = StatusShipped
	_, err := f.repo.Update(ctx, o, o.PaymentStatus)
	require.NoError(t, err)

	cancelled := StatusCancelled
	notes := "changed"
	_, err = f.svc.Update(ctx, 3, o.OrderNumber, UpdateInput{Status: &cancelled, CustomerNotes: &notes})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	got, err := f.svc.Get(ctx, 3, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, got.Status)
	assert.Empty(t, got.CustomerNotes)
	assert.Empty(t, f.publisher.Types("orders.events"))
}

func TestCreate_PaymentIntentLinksOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intentID := "pi_shared"
	newOrder := NewOrder{
		UserID:          3,
		Summary:         pricing.Summary{Subtotal: dec("200"), TaxAmount: dec("16"), ShippingCost: decimal.Zero, DiscountAmount: decimal.Zero, TotalAmount: dec("216")},
		Items:           []Item{{ProductID: 1, Name: "Oxford Shirt", Price: dec("100"), Discount: decimal.Zero, UnitPrice: dec("100"), Quantity: 2}},
		PaymentIntentID: &intentID,
	}

	inUse, err := f.svc.IntentInUse(ctx, intentID)
	require.NoError(t, err)
	assert.False(t, inUse)

	_, err = f.svc.Create(ctx, newOrder)
	require.NoError(t, err)
	inUse, err = f.svc.IntentInUse(ctx, intentID)
	require.NoError(t, err)
	assert.True(t, inUse)

	_, err = f.svc.Create(ctx, newOrder)
	assert.ErrorIs(t, err, ErrIntentLinked)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// attaching the same intent to a different order is refused too
	other := f.place(t, 3)
	_, err = f.svc.AttachPaymentIntent(ctx, other, intentID, nil)
	assert.ErrorIs(t, err, ErrIntentLinked)
}

func TestMarkPaymentSucceeded_AppliesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 3)

	got, applied, err := f.svc.MarkPaymentSucceeded(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, PaymentSucceeded, got.PaymentStatus)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, 8, f.stock(t, 1))

	// replayed delivery
	got, applied, err = f.svc.MarkPaymentSucceeded(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, 8, f.stock(t, 1))

	assert.Equal(t, []string{events.OrderPaymentSucceeded}, f.publisher.Types("orders.events"))
}

func TestMarkPaymentSucceeded_KeepsNonPendingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 3)
	o.Status = StatusCancelled
	_, err := f.repo.Update(ctx, o, o.PaymentStatus)
	require.NoError(t, err)

	got, applied, err := f.svc.MarkPaymentSucceeded(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, PaymentSucceeded, got.PaymentStatus)
}

func TestMarkPaymentSucceeded_OversellIsLogged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, NewOrder{
		UserID:  3,
		Summary: pricing.Summarize(dec("26.78")),
		Items:   []Item{{ProductID: 2, Name: "Chinos", Price: dec("19.99"), Discount: dec("33"), UnitPrice: dec("13.39"), Quantity: 2}},
	})
	require.NoError(t, err)

	got, applied, err := f.svc.MarkPaymentSucceeded(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, PaymentSucceeded, got.PaymentStatus)
	assert.Equal(t, 1, f.stock(t, 2))
}

func TestMarkPaymentFailed_NeverDowngradesSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 3)

	got, err := f.svc.MarkPaymentProcessing(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentProcessing, got.PaymentStatus)

	got, err = f.svc.MarkPaymentFailed(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentFailed, got.PaymentStatus)

	_, _, err = f.svc.MarkPaymentSucceeded(ctx, o.ID)
	require.NoError(t, err)

	got, err = f.svc.MarkPaymentFailed(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentSucceeded, got.PaymentStatus)

	got, err = f.svc.MarkPaymentProcessing(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentSucceeded, got.PaymentStatus)
}

func TestLocate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, 3)
	o, err := f.svc.AttachPaymentIntent(ctx, o, "pi_123", nil)
	require.NoError(t, err)

	for _, ref := range []Ref{
		{OrderID: o.ID},
		{OrderNumber: o.OrderNumber},
		{PaymentIntentID: "pi_123"},
		{OrderID: 999, PaymentIntentID: "pi_123"},
	} {
		got, err := f.svc.Locate(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, o.ID, got.ID)
	}

	_, err = f.svc.Locate(ctx, Ref{PaymentIntentID: "pi_other"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2024, 11, 29, 0, 0, 0, 0, time.UTC)
	a, b := NewOrderNumber(now), NewOrderNumber(now)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^ORD-20241129-[0-9A-F]{10}$`, a)
}

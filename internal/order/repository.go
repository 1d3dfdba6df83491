package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStale means the stored payment status moved since the order was read.
	ErrStale = errors.New("order changed concurrently")
	// ErrDuplicateIntent means another order already holds the payment intent id.
	ErrDuplicateIntent = errors.New("payment intent already linked to an order")
)

// Repository defines persistence operations for orders. Orders are always
// returned with their items.
type Repository interface {
	// Create inserts the order and its item snapshots.
	Create(ctx context.Context, o Order) (Order, error)
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	GetByID(ctx context.Context, id int) (Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (Order, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (Order, error)
	// Update writes the mutable fields of o when the stored payment status
	// still equals prev, ErrStale otherwise.
	Update(ctx context.Context, o Order, prev PaymentStatus) (Order, error)
}

type InMemoryRepository struct {
	mu         sync.RWMutex
	orders     map[int]Order
	nextID     int
	nextItemID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: map[int]Order{}, nextID: 1, nextItemID: 1}
}

func (r *InMemoryRepository) Create(_ context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return Order{}, errors.New("duplicate order number")
		}
		if sameIntent(existing, o) {
			return Order{}, ErrDuplicateIntent
		}
	}
	now := time.Now()
	o.ID = r.nextID
	r.nextID++
	o.CreatedAt, o.UpdatedAt = now, now
	items := make([]Item, len(o.Items))
	for i, it := range o.Items {
		it.ID = r.nextItemID
		r.nextItemID++
		it.OrderID = o.ID
		items[i] = it
	}
	o.Items = items
	r.orders[o.ID] = o
	return clone(o), nil
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Order, error) {
	return r.find(func(o Order) bool { return o.ID == id })
}

func (r *InMemoryRepository) GetByNumber(_ context.Context, orderNumber string) (Order, error) {
	return r.find(func(o Order) bool { return o.OrderNumber == orderNumber })
}

func (r *InMemoryRepository) GetByPaymentIntentID(_ context.Context, intentID string) (Order, error) {
	return r.find(func(o Order) bool { return o.PaymentIntentID != nil && *o.PaymentIntentID == intentID })
}

func (r *InMemoryRepository) Update(_ context.Context, o Order, prev PaymentStatus) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if !ok {
		return Order{}, ErrNotFound
	}
	if stored.PaymentStatus != prev {
		return Order{}, ErrStale
	}
	for id, existing := range r.orders {
		if id != o.ID && sameIntent(existing, o) {
			return Order{}, ErrDuplicateIntent
		}
	}
	stored.Status = o.Status
	stored.PaymentStatus = o.PaymentStatus
	stored.ShippingStatus = o.ShippingStatus
	stored.PaymentIntentID = o.PaymentIntentID
	stored.PaymentMethodID = o.PaymentMethodID
	stored.CustomerNotes = o.CustomerNotes
	stored.UpdatedAt = time.Now()
	r.orders[o.ID] = stored
	return clone(stored), nil
}

func (r *InMemoryRepository) find(match func(Order) bool) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if match(o) {
			return clone(o), nil
		}
	}
	return Order{}, ErrNotFound
}

func sameIntent(a, b Order) bool {
	return a.PaymentIntentID != nil && b.PaymentIntentID != nil && *a.PaymentIntentID == *b.PaymentIntentID
}

func clone(o Order) Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

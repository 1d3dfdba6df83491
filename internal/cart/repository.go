package cart

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrItemNotFound = errors.New("cart item not found")
)

// Repository provides access to carts and their items. Item lookups are
// always scoped by cart id so a user can only reach items in their own cart.
type Repository interface {
	// GetOrCreate returns the user's cart with items, creating it on first use.
	GetOrCreate(ctx context.Context, userID int) (Cart, error)
	// AddItem inserts the product or increments the existing line by qty.
	AddItem(ctx context.Context, cartID, productID, qty int) (Item, error)
	GetItem(ctx context.Context, cartID, itemID int) (Item, error)
	SetQuantity(ctx context.Context, cartID, itemID, qty int) (Item, error)
	RemoveItem(ctx context.Context, cartID, itemID int) error
	Clear(ctx context.Context, cartID int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu         sync.RWMutex
	carts      map[int]*Cart // keyed by userID
	nextCartID int
	nextItemID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: map[int]*Cart{}, nextCartID: 1, nextItemID: 1}
}

func (r *InMemoryRepository) GetOrCreate(_ context.Context, userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		now := time.Now().UTC()
		c = &Cart{ID: r.nextCartID, UserID: userID, CreatedAt: now, UpdatedAt: now}
		r.nextCartID++
		r.carts[userID] = c
	}
	out := *c
	out.Items = append([]Item(nil), c.Items...)
	return out, nil
}

func (r *InMemoryRepository) byID(cartID int) *Cart {
	for _, c := range r.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (r *InMemoryRepository) AddItem(_ context.Context, cartID, productID, qty int) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byID(cartID)
	if c == nil {
		return Item{}, ErrItemNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return c.Items[i], nil
		}
	}
	it := Item{ID: r.nextItemID, CartID: cartID, ProductID: productID, Quantity: qty}
	r.nextItemID++
	c.Items = append(c.Items, it)
	return it, nil
}

func (r *InMemoryRepository) GetItem(_ context.Context, cartID, itemID int) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c := r.byID(cartID); c != nil {
		for _, it := range c.Items {
			if it.ID == itemID {
				return it, nil
			}
		}
	}
	return Item{}, ErrItemNotFound
}

func (r *InMemoryRepository) SetQuantity(_ context.Context, cartID, itemID, qty int) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.byID(cartID); c != nil {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = qty
				return c.Items[i], nil
			}
		}
	}
	return Item{}, ErrItemNotFound
}

func (r *InMemoryRepository) RemoveItem(_ context.Context, cartID, itemID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.byID(cartID); c != nil {
		for i, it := range c.Items {
			if it.ID == itemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return nil
			}
		}
	}
	return ErrItemNotFound
}

func (r *InMemoryRepository) Clear(_ context.Context, cartID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.byID(cartID); c != nil {
		c.Items = nil
	}
	return nil
}

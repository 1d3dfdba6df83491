package wishlist

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrAlreadyInWishlist = errors.New("product already in wishlist")
	ErrNotInWishlist     = errors.New("product not in wishlist")
)

// Repository provides access to wishlist operations.
type Repository interface {
	// GetOrCreate returns the user's wishlist, creating it on first use.
	GetOrCreate(ctx context.Context, userID int) (Wishlist, error)
	Add(ctx context.Context, wishlistID, productID int) error
	Remove(ctx context.Context, wishlistID, productID int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	lists  map[int]*Wishlist // keyed by userID
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{lists: map[int]*Wishlist{}, nextID: 1}
}

func (r *InMemoryRepository) GetOrCreate(_ context.Context, userID int) (Wishlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.lists[userID]
	if !ok {
		w = &Wishlist{ID: r.nextID, UserID: userID}
		r.nextID++
		r.lists[userID] = w
	}
	out := *w
	out.ProductIDs = append([]int{}, w.ProductIDs...)
	return out, nil
}

func (r *InMemoryRepository) byID(id int) *Wishlist {
	for _, w := range r.lists {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (r *InMemoryRepository) Add(_ context.Context, wishlistID, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.byID(wishlistID)
	if w == nil {
		return ErrNotInWishlist
	}
	for _, pid := range w.ProductIDs {
		if pid == productID {
			return ErrAlreadyInWishlist
		}
	}
	w.ProductIDs = append(w.ProductIDs, productID)
	return nil
}

func (r *InMemoryRepository) Remove(_ context.Context, wishlistID, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.byID(wishlistID)
	if w == nil {
		return ErrNotInWishlist
	}
	for i, pid := range w.ProductIDs {
		if pid == productID {
			w.ProductIDs = append(w.ProductIDs[:i], w.ProductIDs[i+1:]...)
			return nil
		}
	}
	return ErrNotInWishlist
}

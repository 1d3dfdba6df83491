package deal

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("deal not found")

type Repository interface {
	// Upsert inserts the deal or updates the existing one with the same title.
	Upsert(ctx context.Context, d Deal) (Deal, error)
	Attach(ctx context.Context, productID, dealID int) error
	ListByProductIDs(ctx context.Context, productIDs []int) (map[int][]Deal, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	deals  []Deal
	links  map[int][]int // productID -> dealIDs
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{links: map[int][]int{}, nextID: 1}
}

func (r *InMemoryRepository) Upsert(_ context.Context, d Deal) (Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.deals {
		if r.deals[i].Title == d.Title {
			d.ID = r.deals[i].ID
			r.deals[i] = d
			return d, nil
		}
	}
	d.ID = r.nextID
	r.nextID++
	r.deals = append(r.deals, d)
	return d, nil
}

func (r *InMemoryRepository) Attach(_ context.Context, productID, dealID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.find(dealID); !ok {
		return ErrNotFound
	}
	for _, id := range r.links[productID] {
		if id == dealID {
			return nil
		}
	}
	r.links[productID] = append(r.links[productID], dealID)
	return nil
}

func (r *InMemoryRepository) ListByProductIDs(_ context.Context, productIDs []int) (map[int][]Deal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int][]Deal, len(productIDs))
	for _, pid := range productIDs {
		for _, did := range r.links[pid] {
			if d, ok := r.find(did); ok {
				out[pid] = append(out[pid], d)
			}
		}
	}
	return out, nil
}

func (r *InMemoryRepository) find(id int) (Deal, bool) {
	for _, d := range r.deals {
		if d.ID == id {
			return d, true
		}
	}
	return Deal{}, false
}

package product

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int) (Product, error)
	ListByIDs(ctx context.Context, ids []int) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int, p Product) (Product, error)
	// DecrementStock lowers stock by qty, failing with ErrInsufficientStock
	// instead of going below zero.
	DecrementStock(ctx context.Context, id, qty int) error
	IncrementStock(ctx context.Context, id, qty int) error
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// local runs without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage map[int]Product
	nextID  int
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{storage: make(map[int]Product, len(seed)), nextID: 1}
	for _, p := range seed {
		r.storage[p.ID] = p
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.storage[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) ListByIDs(_ context.Context, ids []int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.storage[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.storage[p.ID] = p
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.storage[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	p.ID = id
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.storage[id] = p
	return p, nil
}

func (r *InMemoryRepository) DecrementStock(_ context.Context, id, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	if p.Stock < qty {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	r.storage[id] = p
	return nil
}

func (r *InMemoryRepository) IncrementStock(_ context.Context, id, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock += qty
	r.storage[id] = p
	return nil
}

package paymentmethod

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = errors.New("payment method not found")

type Repository interface {
	List(ctx context.Context, userID int) ([]PaymentMethod, error)
	Get(ctx context.Context, userID, id int) (PaymentMethod, error)
	GetByProcessorID(ctx context.Context, processorID string) (PaymentMethod, error)
	// Create inserts m unless its processor id is already stored, in which
	// case the stored row is returned.
	Create(ctx context.Context, m PaymentMethod) (PaymentMethod, error)
	Delete(ctx context.Context, userID, id int) error
	ClearDefault(ctx context.Context, userID, exceptID int) error
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	methods map[int]PaymentMethod
	nextID  int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{methods: map[int]PaymentMethod{}, nextID: 1}
}

func (r *InMemoryRepository) List(_ context.Context, userID int) ([]PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PaymentMethod, 0)
	for _, m := range r.methods {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, userID, id int) (PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[id]
	if !ok || m.UserID != userID {
		return PaymentMethod{}, ErrNotFound
	}
	return m, nil
}

func (r *InMemoryRepository) GetByProcessorID(_ context.Context, processorID string) (PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.methods {
		if m.ProcessorID == processorID {
			return m, nil
		}
	}
	return PaymentMethod{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, m PaymentMethod) (PaymentMethod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.methods {
		if existing.ProcessorID == m.ProcessorID {
			return existing, nil
		}
	}
	m.ID = r.nextID
	r.nextID++
	m.CreatedAt = time.Now()
	r.methods[m.ID] = m
	return m, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, userID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.methods[id]
	if !ok || m.UserID != userID {
		return ErrNotFound
	}
	delete(r.methods, id)
	return nil
}

func (r *InMemoryRepository) ClearDefault(_ context.Context, userID, exceptID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.methods {
		if m.UserID == userID && id != exceptID && m.IsDefault {
			m.IsDefault = false
			r.methods[id] = m
		}
	}
	return nil
}

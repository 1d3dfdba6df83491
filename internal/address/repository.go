package address

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("address not found")
)

type Repository interface {
	List(ctx context.Context, userID int) ([]Address, error)
	// Get only returns an address owned by userID.
	Get(ctx context.Context, userID, addressID int) (Address, error)
	Create(ctx context.Context, a Address) (Address, error)
	Update(ctx context.Context, a Address) (Address, error)
	Delete(ctx context.Context, userID, addressID int) error
	// ClearDefault unsets the default flag on the user's other addresses of type t.
	ClearDefault(ctx context.Context, userID int, t Type, exceptID int) error
}

// InMemoryRepository for tests
type InMemoryRepository struct {
	mu     sync.RWMutex
	data   map[int][]Address // keyed by userID
	nextID int
}

func NewInMemoryRepository(seed map[int][]Address) *InMemoryRepository {
	r := &InMemoryRepository{data: map[int][]Address{}, nextID: 1}
	for uid, addrs := range seed {
		for _, a := range addrs {
			r.data[uid] = append(r.data[uid], a)
			if a.AddressID >= r.nextID {
				r.nextID = a.AddressID + 1
			}
		}
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, userID int) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Address, len(r.data[userID]))
	copy(out, r.data[userID])
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, userID, addressID int) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.data[userID] {
		if a.AddressID == addressID {
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.AddressID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	r.data[a.UserID] = append(r.data[a.UserID], a)
	return a, nil
}

func (r *InMemoryRepository) Update(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, old := range r.data[a.UserID] {
		if old.AddressID == a.AddressID {
			a.CreatedAt = old.CreatedAt
			a.UpdatedAt = time.Now().UTC()
			r.data[a.UserID][i] = a
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, userID, addressID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	addrs := r.data[userID]
	for i, a := range addrs {
		if a.AddressID == addressID {
			r.data[userID] = append(addrs[:i], addrs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) ClearDefault(_ context.Context, userID int, t Type, exceptID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.data[userID] {
		if a.Type == t && a.AddressID != exceptID {
			r.data[userID][i].IsDefault = false
		}
	}
	return nil
}

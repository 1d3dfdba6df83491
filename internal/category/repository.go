package category

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("category not found")

// Repository provides access to category rows. The upserts are only used by seeding.
type Repository interface {
	List(ctx context.Context, limit int) ([]Category, error)
	Upsert(ctx context.Context, c Category) (Category, error)
	UpsertSubcategory(ctx context.Context, s Subcategory) (Subcategory, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	cats   map[string]Category
	subs   map[string]Subcategory
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{cats: map[string]Category{}, subs: map[string]Subcategory{}, nextID: 1}
}

func (r *InMemoryRepository) List(_ context.Context, limit int) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0, len(r.cats))
	for _, c := range r.cats {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ord != out[j].Ord {
			return out[i].Ord > out[j].Ord
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) Upsert(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.cats[c.Slug]; ok {
		c.ID = old.ID
	} else {
		c.ID = r.nextID
		r.nextID++
	}
	r.cats[c.Slug] = c
	return c, nil
}

func (r *InMemoryRepository) UpsertSubcategory(_ context.Context, s Subcategory) (Subcategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for _, c := range r.cats {
		if c.ID == s.CategoryID {
			found = true
			break
		}
	}
	if !found {
		return Subcategory{}, ErrNotFound
	}
	if old, ok := r.subs[s.Slug]; ok {
		s.ID = old.ID
	} else {
		s.ID = r.nextID
		r.nextID++
	}
	r.subs[s.Slug] = s
	return s, nil
}

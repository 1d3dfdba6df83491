package category

import "context"

// Service provides business logic for categories.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// List returns up to `limit` categories.
func (s *Service) List(ctx context.Context, limit int) ([]Category, error) {
	return s.repo.List(ctx, limit)
}

// Seed upserts a category and its subcategories by slug.
func (s *Service) Seed(ctx context.Context, c Category, subs ...Subcategory) (Category, error) {
	saved, err := s.repo.Upsert(ctx, c)
	if err != nil {
		return Category{}, err
	}
	for _, sub := range subs {
		sub.CategoryID = saved.ID
		if _, err := s.repo.UpsertSubcategory(ctx, sub); err != nil {
			return Category{}, err
		}
	}
	return saved, nil
}

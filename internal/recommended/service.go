package recommended

import (
	"context"
	"sort"
	"time"

	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
	"github.com/itsalifarrukh/hb-apparel/internal/product"
)

type Catalogue interface {
	List(ctx context.Context) ([]product.Product, error)
}

type Service struct {
	products Catalogue
	now      func() time.Time
}

func NewService(products Catalogue) *Service {
	return &Service{products: products, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

// List ranks in-stock products by what the shopper saves right now: active
// deals first, then the biggest saving. Products without any saving are left out.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Item, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	items := make([]Item, 0, len(products))
	for _, p := range products {
		if p.Stock <= 0 {
			continue
		}
		q := pricing.Evaluate(p.Price, p.DiscountedPrice, p.Deals, now)
		savings := pricing.RoundCents(p.Price.Sub(q.EffectivePrice))
		if !savings.IsPositive() {
			continue
		}
		items = append(items, Item{Detail: product.Detail{Product: p, Quote: q}, Savings: savings})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if (a.ActiveDeal != nil) != (b.ActiveDeal != nil) {
			return a.ActiveDeal != nil
		}
		if !a.Savings.Equal(b.Savings) {
			return a.Savings.GreaterThan(b.Savings)
		}
		return a.ID < b.ID
	})

	if offset >= len(items) {
		return []Item{}, nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

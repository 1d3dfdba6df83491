package product

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/deal"
	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
)

var errProductNotFound = apperr.NotFound("Product not found")

// Detail is a product together with its price right now.
type Detail struct {
	Product
	pricing.Quote
}

type Service struct {
	repo  Repository
	deals deal.Repository
	now   func() time.Time
}

func NewService(repo Repository, deals deal.Repository) *Service {
	return &Service{repo: repo, deals: deals, now: time.Now}
}

// SetClock replaces the clock used to decide which deals are active.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.withDeals(ctx, products)
}

// GetByID returns the product with its deals loaded.
func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, errProductNotFound
		}
		return Product{}, err
	}
	out, err := s.withDeals(ctx, []Product{p})
	if err != nil {
		return Product{}, err
	}
	return out[0], nil
}

// ListByIDs returns the products that exist among ids, deals loaded, in the order of ids.
func (s *Service) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	products, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.withDeals(ctx, products)
}

func (s *Service) Detail(ctx context.Context, id int) (Detail, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Product: p, Quote: pricing.Evaluate(p.Price, p.DiscountedPrice, p.Deals, s.now())}, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	if err := validateInput(in); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, fromInput(in))
}

func (s *Service) Update(ctx context.Context, id int, in Input) (Product, error) {
	if err := validateInput(in); err != nil {
		return Product{}, err
	}
	p, err := s.repo.Update(ctx, id, fromInput(in))
	if errors.Is(err, ErrNotFound) {
		return Product{}, errProductNotFound
	}
	return p, err
}

func (s *Service) withDeals(ctx context.Context, products []Product) ([]Product, error) {
	if len(products) == 0 || s.deals == nil {
		return products, nil
	}
	ids := make([]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	byProduct, err := s.deals.ListByProductIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Deals = byProduct[products[i].ID]
	}
	return products, nil
}

func fromInput(in Input) Product {
	return Product{
		Name:            in.Name,
		Image:           in.Image,
		Price:           pricing.RoundCents(in.Price),
		Discount:        in.Discount,
		DiscountedPrice: pricing.DiscountedPrice(in.Price, in.Discount),
		Stock:           in.Stock,
		CategoryID:      in.CategoryID,
	}
}

func validateInput(in Input) error {
	var fields []apperr.FieldError
	if in.Name == "" {
		fields = append(fields, apperr.Field("name", "name is required"))
	}
	if in.Price.IsNegative() {
		fields = append(fields, apperr.Field("price", "price must be >= 0"))
	}
	if in.Discount.IsNegative() || in.Discount.GreaterThan(decimal.NewFromInt(100)) {
		fields = append(fields, apperr.Field("discount", "discount must be between 0 and 100"))
	}
	if in.Stock < 0 {
		fields = append(fields, apperr.Field("stock", "stock must be >= 0"))
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid product", fields...)
	}
	return nil
}

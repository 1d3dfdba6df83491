package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
	"github.com/itsalifarrukh/hb-apparel/internal/product"
)

var errItemNotFound = apperr.NotFound("Cart item not found")

// ProductLookup is the catalogue access the cart needs. *product.Service
// satisfies it with deals loaded.
type ProductLookup interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
	ListByIDs(ctx context.Context, ids []int) ([]product.Product, error)
}

type Service struct {
	repo     Repository
	products ProductLookup
	tx       database.TxRunner
	now      func() time.Time
}

func NewService(repo Repository, products ProductLookup, tx database.TxRunner) *Service {
	return &Service{repo: repo, products: products, tx: tx, now: time.Now}
}

// SetClock replaces the clock used to price deals.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// GetOrCreate is idempotent: repeated calls return the same cart.
func (s *Service) GetOrCreate(ctx context.Context, userID int) (Cart, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// View loads the user's cart and prices every line.
func (s *Service) View(ctx context.Context, userID int) (View, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return s.aggregate(ctx, c)
}

func (s *Service) aggregate(ctx context.Context, c Cart) (View, error) {
	v := View{CartID: c.ID, Items: make([]ItemView, 0, len(c.Items)), TotalPrice: decimal.Zero, TotalDiscountedPrice: decimal.Zero}
	if len(c.Items) == 0 {
		return v, nil
	}

	ids := make([]int, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return View{}, err
	}
	byID := make(map[int]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := s.now()
	total, discounted := decimal.Zero, decimal.Zero
	for _, it := range c.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			// product removed from the catalogue
			continue
		}
		q := pricing.Evaluate(p.Price, p.DiscountedPrice, p.Deals, now)
		qty := decimal.NewFromInt(int64(it.Quantity))
		line := q.EffectivePrice.Mul(qty)

		v.Items = append(v.Items, ItemView{
			ID:              it.ID,
			ProductID:       p.ID,
			Name:            p.Name,
			Image:           p.Image,
			Price:           p.Price,
			Discount:        p.Discount,
			DiscountedPrice: p.DiscountedPrice,
			Stock:           p.Stock,
			Quantity:        it.Quantity,
			ActiveDeal:      q.ActiveDeal,
			DealPrice:       q.DealPrice,
			EffectivePrice:  q.EffectivePrice,
			LineTotal:       pricing.RoundCents(line),
		})
		v.TotalItems += it.Quantity
		total = total.Add(p.Price.Mul(qty))
		discounted = discounted.Add(line)
	}
	v.TotalPrice = pricing.RoundCents(total)
	v.TotalDiscountedPrice = pricing.RoundCents(discounted)
	return v, nil
}

// Add puts qty units of a product in the cart, incrementing an existing line.
func (s *Service) Add(ctx context.Context, userID, productID, qty int) (View, error) {
	if productID <= 0 {
		return View{}, apperr.Validation("Invalid product", apperr.Field("productId", "productId is required"))
	}
	if qty <= 0 {
		return View{}, apperr.Validation("Invalid quantity", apperr.Field("quantity", "quantity must be at least 1"))
	}

	var out View
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		current := 0
		for _, it := range c.Items {
			if it.ProductID == productID {
				current = it.Quantity
			}
		}
		if err := checkStock(p, current+qty); err != nil {
			return err
		}
		if _, err := s.repo.AddItem(ctx, c.ID, productID, qty); err != nil {
			return err
		}
		out, err = s.View(ctx, userID)
		return err
	})
	return out, err
}

// UpdateQuantity sets the quantity of an item in the user's own cart.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID, qty int) (View, error) {
	if qty <= 0 {
		return View{}, apperr.Validation("Invalid quantity", apperr.Field("quantity", "quantity must be at least 1"))
	}

	var out View
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		it, err := s.repo.GetItem(ctx, c.ID, itemID)
		if err != nil {
			return err
		}
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if err := checkStock(p, qty); err != nil {
			return err
		}
		if _, err := s.repo.SetQuantity(ctx, c.ID, itemID, qty); err != nil {
			return err
		}
		out, err = s.View(ctx, userID)
		return err
	})
	if errors.Is(err, ErrItemNotFound) {
		return View{}, errItemNotFound
	}
	return out, err
}

func (s *Service) Remove(ctx context.Context, userID, itemID int) (View, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}
	if err := s.repo.RemoveItem(ctx, c.ID, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return View{}, errItemNotFound
		}
		return View{}, err
	}
	return s.View(ctx, userID)
}

// Clear empties the cart. The cart row itself is kept.
func (s *Service) Clear(ctx context.Context, userID int) error {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.Clear(ctx, c.ID)
}

func checkStock(p product.Product, want int) error {
	if p.Stock < want {
		return apperr.Stock(fmt.Sprintf("Only %d of %s left in stock", p.Stock, p.Name))
	}
	return nil
}

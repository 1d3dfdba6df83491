package wishlist

import (
	"context"
	"errors"
	"time"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/cart"
	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
)

var (
	errAlreadyInWishlist = apperr.Conflict("Product already in wishlist")
	errNotInWishlist     = apperr.NotFound("Product not in wishlist")
)

// CartAdder is the part of the cart service a move needs.
type CartAdder interface {
	Add(ctx context.Context, userID, productID, qty int) (cart.View, error)
	View(ctx context.Context, userID int) (cart.View, error)
}

type Service struct {
	repo     Repository
	products cart.ProductLookup
	carts    CartAdder
	tx       database.TxRunner
	now      func() time.Time
}

func NewService(repo Repository, products cart.ProductLookup, carts CartAdder, tx database.TxRunner) *Service {
	return &Service{repo: repo, products: products, carts: carts, tx: tx, now: time.Now}
}

// SetClock replaces the clock used to price deals.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// List returns the wishlisted products, newest first, priced at the current time.
func (s *Service) List(ctx context.Context, userID int) ([]Entry, error) {
	w, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(w.ProductIDs))
	if len(w.ProductIDs) == 0 {
		return out, nil
	}
	products, err := s.products.ListByIDs(ctx, w.ProductIDs)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, p := range products {
		out = append(out, Entry{
			Product: p,
			Quote:   pricing.Evaluate(p.Price, p.DiscountedPrice, p.Deals, now),
		})
	}
	return out, nil
}

func (s *Service) Add(ctx context.Context, userID, productID int) ([]Entry, error) {
	if productID <= 0 {
		return nil, apperr.Validation("Invalid product", apperr.Field("productId", "productId is required"))
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	w, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, w.ID, productID); err != nil {
		if errors.Is(err, ErrAlreadyInWishlist) {
			return nil, errAlreadyInWishlist
		}
		return nil, err
	}
	return s.List(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, productID int) ([]Entry, error) {
	w, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Remove(ctx, w.ID, productID); err != nil {
		if errors.Is(err, ErrNotInWishlist) {
			return nil, errNotInWishlist
		}
		return nil, err
	}
	return s.List(ctx, userID)
}

// MoveToCart adds one unit of a wishlisted product to the cart and removes
// it from the wishlist in one transaction.
func (s *Service) MoveToCart(ctx context.Context, userID, productID int) (cart.View, error) {
	var out cart.View
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := s.repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if !contains(w.ProductIDs, productID) {
			return errNotInWishlist
		}
		return s.move(ctx, w.ID, userID, productID, &out)
	})
	return out, err
}

// MoveAllToCart moves every wishlisted product, one transaction per product.
// Products that cannot be moved stay in the wishlist and are reported.
func (s *Service) MoveAllToCart(ctx context.Context, userID int) (MoveResult, error) {
	w, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return MoveResult{}, err
	}

	res := MoveResult{Moved: []int{}, Failed: []MoveFailure{}}
	for _, pid := range w.ProductIDs {
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			return s.move(ctx, w.ID, userID, pid, nil)
		})
		if err != nil {
			var ae *apperr.Error
			if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
				return MoveResult{}, err
			}
			res.Failed = append(res.Failed, MoveFailure{ProductID: pid, Reason: ae.Message})
			continue
		}
		res.Moved = append(res.Moved, pid)
	}

	res.Cart, err = s.carts.View(ctx, userID)
	if err != nil {
		return MoveResult{}, err
	}
	return res, nil
}

func (s *Service) move(ctx context.Context, wishlistID, userID, productID int, out *cart.View) error {
	v, err := s.carts.Add(ctx, userID, productID, 1)
	if err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, wishlistID, productID); err != nil {
		return err
	}
	if out != nil {
		*out = v
	}
	return nil
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

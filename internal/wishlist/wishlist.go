package wishlist

import (
	"time"

	"github.com/itsalifarrukh/hb-apparel/internal/cart"
	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
	"github.com/itsalifarrukh/hb-apparel/internal/product"
)

type Wishlist struct {
	ID         int   `json:"id"`
	UserID     int   `json:"userId"`
	ProductIDs []int `json:"productIds"`
}

// Entry is a wishlisted product priced at read time.
type Entry struct {
	product.Product
	pricing.Quote
	AddedAt time.Time `json:"addedAt,omitempty"`
}

// MoveFailure explains why a product stayed in the wishlist.
type MoveFailure struct {
	ProductID int    `json:"productId"`
	Reason    string `json:"reason"`
}

// MoveResult reports a bulk move: what went to the cart, what did not,
// and the cart afterwards.
type MoveResult struct {
	Moved  []int         `json:"moved"`
	Failed []MoveFailure `json:"failed"`
	Cart   cart.View     `json:"cart"`
}

package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/deal"
)

// Cart is created lazily, one per user, and is only ever emptied, never deleted.
type Cart struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Item struct {
	ID        int `json:"id"`
	CartID    int `json:"cartId"`
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// ItemView is a cart line priced at read time.
type ItemView struct {
	ID              int              `json:"id"`
	ProductID       int              `json:"productId"`
	Name            string           `json:"name"`
	Image           *string          `json:"image,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	Discount        decimal.Decimal  `json:"discount"`
	DiscountedPrice decimal.Decimal  `json:"discountedPrice"`
	Stock           int              `json:"stock"`
	Quantity        int              `json:"quantity"`
	ActiveDeal      *deal.Deal       `json:"activeDeal"`
	DealPrice       *decimal.Decimal `json:"dealPrice"`
	EffectivePrice  decimal.Decimal  `json:"effectivePrice"`
	LineTotal       decimal.Decimal  `json:"lineTotal"`
}

// AppliedDiscount is the percentage behind EffectivePrice: the active deal's
// when there is one, the product's own otherwise.
func (i ItemView) AppliedDiscount() decimal.Decimal {
	if i.ActiveDeal != nil {
		return i.ActiveDeal.Discount
	}
	return i.Discount
}

// View is the aggregated cart. TotalPrice is before any discount,
// TotalDiscountedPrice after; both are rounded to cents.
type View struct {
	CartID               int             `json:"cartId"`
	Items                []ItemView      `json:"items"`
	TotalItems           int             `json:"totalItems"`
	TotalPrice           decimal.Decimal `json:"totalPrice"`
	TotalDiscountedPrice decimal.Decimal `json:"totalDiscountedPrice"`
}

func (v View) Empty() bool { return len(v.Items) == 0 }

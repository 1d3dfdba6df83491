package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/deal"
)

// Product maps to the `products` table. DiscountedPrice is always written as
// price - price*discount/100 and never accepted from clients.
type Product struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	Image           *string         `json:"image,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	Stock           int             `json:"stock"`
	CategoryID      *int            `json:"categoryId,omitempty"`
	Deals           []deal.Deal     `json:"deals,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Input is the writable part of a product.
type Input struct {
	Name       string          `json:"name"`
	Image      *string         `json:"image,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Discount   decimal.Decimal `json:"discount"`
	Stock      int             `json:"stock"`
	CategoryID *int            `json:"categoryId,omitempty"`
}

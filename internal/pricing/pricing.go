// Package pricing holds the pure price and order-total rules shared by the
// cart, checkout and order code. Nothing here touches storage or the clock.
package pricing

import (
	"time"

	"github.com/itsalifarrukh/hb-apparel/internal/deal"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// TaxRate is the flat sales tax applied to every subtotal.
	TaxRate = decimal.RequireFromString("0.08")
	// FreeShippingThreshold must be strictly exceeded to ship for free.
	FreeShippingThreshold = decimal.NewFromInt(50)
	// FlatShipping is charged when the subtotal does not exceed the threshold.
	FlatShipping = decimal.RequireFromString("5.99")
)

// Quote is the price of one unit of a product at a point in time.
type Quote struct {
	ActiveDeal     *deal.Deal       `json:"activeDeal"`
	DealPrice      *decimal.Decimal `json:"dealPrice"`
	EffectivePrice decimal.Decimal  `json:"effectivePrice"`
}

// ActiveDeal returns the deal in effect at now, or nil. When several deals
// overlap the highest discount wins, then the latest start, then the lowest id.
func ActiveDeal(deals []deal.Deal, now time.Time) *deal.Deal {
	var best *deal.Deal
	for i := range deals {
		d := deals[i]
		if !d.ActiveAt(now) {
			continue
		}
		if best == nil || beats(d, *best) {
			best = &d
		}
	}
	return best
}

func beats(a, b deal.Deal) bool {
	if c := a.Discount.Cmp(b.Discount); c != 0 {
		return c > 0
	}
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.After(b.StartTime)
	}
	return a.ID < b.ID
}

// DiscountedPrice is price - price*discount/100, rounded to cents.
func DiscountedPrice(price, discountPercent decimal.Decimal) decimal.Decimal {
	return RoundCents(price.Sub(price.Mul(discountPercent).Div(hundred)))
}

// DealPrice is the unit price under d.
func DealPrice(price decimal.Decimal, d deal.Deal) decimal.Decimal {
	return DiscountedPrice(price, d.Discount)
}

// Evaluate prices one unit. An active deal replaces the product's own static
// discount; the two never stack.
func Evaluate(price, discountedPrice decimal.Decimal, deals []deal.Deal, now time.Time) Quote {
	active := ActiveDeal(deals, now)
	if active == nil {
		return Quote{EffectivePrice: discountedPrice}
	}
	dp := DealPrice(price, *active)
	return Quote{ActiveDeal: active, DealPrice: &dp, EffectivePrice: dp}
}

// RoundCents rounds half-up (away from zero) to two decimal places.
func RoundCents(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// ToCents converts a dollar amount to integer minor units.
func ToCents(v decimal.Decimal) int64 {
	return v.Mul(hundred).Round(0).IntPart()
}

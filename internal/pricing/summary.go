package pricing

import "github.com/shopspring/decimal"

// Summary is the set of order totals derived from a subtotal. Every place
// that shows or charges a total goes through Summarize.
type Summary struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	TaxAmount             decimal.Decimal `json:"taxAmount"`
	ShippingCost          decimal.Decimal `json:"shippingCost"`
	DiscountAmount        decimal.Decimal `json:"discountAmount"`
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	FreeShippingEligible  bool            `json:"freeShippingEligible"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
}

// Summarize computes tax, shipping and total for an already discounted subtotal.
func Summarize(subtotal decimal.Decimal) Summary {
	subtotal = RoundCents(subtotal)
	free := subtotal.GreaterThan(FreeShippingThreshold)

	shipping := FlatShipping
	if free {
		shipping = decimal.Zero
	}
	tax := RoundCents(subtotal.Mul(TaxRate))

	return Summary{
		Subtotal:              subtotal,
		TaxAmount:             tax,
		ShippingCost:          shipping,
		DiscountAmount:        decimal.Zero,
		TotalAmount:           subtotal.Add(tax).Add(shipping),
		FreeShippingEligible:  free,
		FreeShippingThreshold: FreeShippingThreshold,
	}
}

// SummarizeCart is Summarize plus the discount the shopper saved against the
// undiscounted cart total.
func SummarizeCart(totalPrice, discountedSubtotal decimal.Decimal) Summary {
	s := Summarize(discountedSubtotal)
	if saved := RoundCents(totalPrice).Sub(s.Subtotal); saved.IsPositive() {
		s.DiscountAmount = saved
	}
	return s
}

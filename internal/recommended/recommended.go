package recommended

import (
	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/product"
)

// Item is a product worth featuring, with the saving it currently offers
// against its list price.
type Item struct {
	product.Detail
	Savings decimal.Decimal `json:"savings"`
}

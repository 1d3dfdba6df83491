package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a purchase frozen at checkout time. OrderNumber is the only
// identifier exposed to clients.
type Order struct {
	ID                int             `json:"-"`
	OrderNumber       string          `json:"orderNumber"`
	UserID            int             `json:"userId"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ShippingCost      decimal.Decimal `json:"shippingCost"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Status            Status          `json:"status"`
	PaymentStatus     PaymentStatus   `json:"paymentStatus"`
	ShippingStatus    ShippingStatus  `json:"shippingStatus"`
	ShippingAddressID *int            `json:"shippingAddressId"`
	BillingAddressID  *int            `json:"billingAddressId"`
	PaymentMethodID   *int            `json:"paymentMethodId"`
	PaymentIntentID   *string         `json:"paymentIntentId"`
	CustomerNotes     string          `json:"customerNotes"`
	Items             []Item          `json:"items"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Item is a snapshot of a product at order time. Later catalogue changes
// never touch it.
type Item struct {
	ID        int             `json:"id"`
	OrderID   int             `json:"-"`
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	Image     *string         `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
	// UnitPrice is what was charged per unit: the deal price or the discounted price.
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

func (it Item) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// NewOrderNumber returns a human readable, unique order number.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

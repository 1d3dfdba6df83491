package address

import "time"

// Type says what an address may be used for.
type Type string

const (
	TypeShipping Type = "SHIPPING"
	TypeBilling  Type = "BILLING"
	TypeBoth     Type = "BOTH"
)

func (t Type) Valid() bool {
	return t == TypeShipping || t == TypeBilling || t == TypeBoth
}

// UsableFor reports whether an address of type t may serve as want.
func (t Type) UsableFor(want Type) bool {
	return t == TypeBoth || t == want
}

type Address struct {
	AddressID  int       `json:"addressId"`
	UserID     int       `json:"userId"`
	Type       Type      `json:"type"`
	FullName   string    `json:"fullName"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone,omitempty"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

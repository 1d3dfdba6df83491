package paymentmethod

import "time"

// PaymentMethod is a saved card reference. Card data stays with the processor;
// only display fields are kept.
type PaymentMethod struct {
	ID           int       `json:"id"`
	UserID       int       `json:"userId"`
	ProcessorID  string    `json:"processorId"`
	Brand        string    `json:"brand"`
	Last4        string    `json:"last4"`
	ExpMonth     int       `json:"expMonth"`
	ExpYear      int       `json:"expYear"`
	BillingName  string    `json:"billingName"`
	BillingEmail string    `json:"billingEmail"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
}

package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/address"
	"github.com/itsalifarrukh/hb-apparel/internal/cart"
	"github.com/itsalifarrukh/hb-apparel/internal/order"
	"github.com/itsalifarrukh/hb-apparel/internal/payment"
	"github.com/itsalifarrukh/hb-apparel/internal/paymentmethod"
	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

// Step is the wizard stage the client is on. The server does not enforce
// the order of steps.
type Step int

const (
	StepAddress  Step = 1
	StepPayment  Step = 2
	StepReview   Step = 3
	StepComplete Step = 4
)

func (s Step) Valid() bool { return s >= StepAddress && s <= StepComplete }

// State is the client-held wizard state, sent back with each request.
type State struct {
	Step              Step `json:"step"`
	ShippingAddressID *int `json:"shippingAddressId,omitempty"`
	BillingAddressID  *int `json:"billingAddressId,omitempty"`
	PaymentMethodID   *int `json:"paymentMethodId,omitempty"`
}

// Summary is everything the checkout pages render.
type Summary struct {
	Cart           cart.View                     `json:"cart"`
	Summary        pricing.Summary               `json:"summary"`
	Addresses      []address.Address             `json:"addresses"`
	PaymentMethods []paymentmethod.PaymentMethod `json:"paymentMethods"`
	Profile        user.Profile                  `json:"profile"`
	State          State                         `json:"state"`
}

type IntentRequest struct {
	OrderNumber     string `json:"orderNumber"`
	PaymentMethodID *int   `json:"paymentMethodId"`
}

type UnsavedIntentRequest struct {
	PaymentMethodToken string `json:"paymentMethodToken"`
	OrderNumber        string `json:"orderNumber"`
}

// IntentResult is returned to the client for confirmation or display.
type IntentResult struct {
	PaymentIntentID string               `json:"paymentIntentId"`
	ClientSecret    string               `json:"clientSecret,omitempty"`
	Status          payment.IntentStatus `json:"status"`
	RequiresAction  bool                 `json:"requiresAction"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        string               `json:"currency"`
	OrderNumber     string               `json:"orderNumber,omitempty"`
}

type PlaceOrderRequest struct {
	ShippingAddressID int  `json:"shippingAddressId"`
	BillingAddressID  *int `json:"billingAddressId"`
	// PaymentMethodID selects a saved method; an intent is created for the new order.
	PaymentMethodID *int `json:"paymentMethodId"`
	// PaymentIntentID links an intent created beforehand with an unsaved method.
	PaymentIntentID string `json:"paymentIntentId"`
	CustomerNotes   string `json:"customerNotes"`
}

type PlaceOrderResult struct {
	Order   order.Order   `json:"order"`
	Payment *IntentResult `json:"payment,omitempty"`
}

type PayOrderRequest struct {
	PaymentMethodID    *int   `json:"paymentMethodId"`
	PaymentMethodToken string `json:"paymentMethodToken"`
}

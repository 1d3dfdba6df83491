package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
)

// IntentStatus mirrors the processor's payment intent states.
type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

// Metadata keys attached to every intent so the webhook can find the order.
const (
	MetaUserID      = "userId"
	MetaOrderID     = "orderId"
	MetaOrderNumber = "orderNumber"
)

// Webhook event types the service reacts to.
const (
	EventIntentSucceeded  = "payment_intent.succeeded"
	EventIntentProcessing = "payment_intent.processing"
	EventIntentFailed     = "payment_intent.payment_failed"
	EventMethodAttached   = "payment_method.attached"
)

type CustomerParams struct {
	UserID int
	Email  string
	Name   string
}

// Method is the display-safe view of a processor payment method.
type Method struct {
	ID           string
	CustomerID   string
	Brand        string
	Last4        string
	ExpMonth     int
	ExpYear      int
	BillingName  string
	BillingEmail string
}

type IntentParams struct {
	AmountCents     int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	// Confirm asks the processor to confirm immediately.
	Confirm bool
	// ManualConfirmation is used with saved methods. Otherwise automatic
	// payment methods are negotiated by the processor.
	ManualConfirmation bool
	ReturnURL          string
	Metadata           map[string]string
}

type Intent struct {
	ID              string            `json:"id"`
	ClientSecret    string            `json:"clientSecret,omitempty"`
	Status          IntentStatus      `json:"status"`
	AmountCents     int64             `json:"amount"`
	Currency        string            `json:"currency"`
	CustomerID      string            `json:"-"`
	PaymentMethodID string            `json:"-"`
	Metadata        map[string]string `json:"-"`
	LastError       string            `json:"lastError,omitempty"`
}

// Event is a verified webhook event. Intent or Method is set depending on Type.
type Event struct {
	ID     string
	Type   string
	Intent *Intent
	Method *Method
}

// Gateway is the processor surface the storefront consumes.
type Gateway interface {
	CreateCustomer(ctx context.Context, p CustomerParams) (string, error)
	GetPaymentMethod(ctx context.Context, methodID string) (Method, error)
	AttachPaymentMethod(ctx context.Context, methodID, customerID string) (Method, error)
	DetachPaymentMethod(ctx context.Context, methodID string) error
	CreateIntent(ctx context.Context, p IntentParams) (Intent, error)
	GetIntent(ctx context.Context, intentID string) (Intent, error)
	UpdateIntentMetadata(ctx context.Context, intentID string, md map[string]string) (Intent, error)
	// ConstructEvent verifies the signature header against the raw body.
	ConstructEvent(payload []byte, signatureHeader string) (Event, error)
}

// AmountCents converts a dollar amount to the processor's integer cents.
func AmountCents(amount decimal.Decimal) int64 {
	return pricing.ToCents(amount)
}

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = apperr.Validation("Invalid webhook signature")

// StripeGateway implements Gateway with stripe-go.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil), webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, p CustomerParams) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(p.Email),
		Name:  stripe.String(strings.TrimSpace(p.Name)),
	}
	params.Context = ctx
	params.AddMetadata(MetaUserID, fmt.Sprint(p.UserID))
	c, err := g.api.Customers.New(params)
	if err != nil {
		return "", translate(err)
	}
	return c.ID, nil
}

func (g *StripeGateway) GetPaymentMethod(ctx context.Context, methodID string) (Method, error) {
	params := &stripe.PaymentMethodParams{}
	params.Context = ctx
	pm, err := g.api.PaymentMethods.Get(methodID, params)
	if err != nil {
		return Method{}, translate(err)
	}
	return methodFromStripe(pm), nil
}

func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, methodID, customerID string) (Method, error) {
	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	pm, err := g.api.PaymentMethods.Attach(methodID, params)
	if err != nil {
		return Method{}, translate(err)
	}
	return methodFromStripe(pm), nil
}

func (g *StripeGateway) DetachPaymentMethod(ctx context.Context, methodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx
	if _, err := g.api.PaymentMethods.Detach(methodID, params); err != nil {
		return translate(err)
	}
	return nil
}

func (g *StripeGateway) CreateIntent(ctx context.Context, p IntentParams) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.AmountCents),
		Currency: stripe.String(p.Currency),
	}
	params.Context = ctx
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	if p.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(p.PaymentMethodID)
	}
	if p.ManualConfirmation {
		params.ConfirmationMethod = stripe.String(string(stripe.PaymentIntentConfirmationMethodManual))
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}
	if p.Confirm {
		params.Confirm = stripe.Bool(true)
		if p.ReturnURL != "" {
			params.ReturnURL = stripe.String(p.ReturnURL)
		}
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, translate(err)
	}
	return intentFromStripe(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return Intent{}, translate(err)
	}
	return intentFromStripe(pi), nil
}

func (g *StripeGateway) UpdateIntentMetadata(ctx context.Context, intentID string, md map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	for k, v := range md {
		params.AddMetadata(k, v)
	}
	pi, err := g.api.PaymentIntents.Update(intentID, params)
	if err != nil {
		return Intent{}, translate(err)
	}
	return intentFromStripe(pi), nil
}

func (g *StripeGateway) ConstructEvent(payload []byte, signatureHeader string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, ErrInvalidSignature
	}
	return eventFromStripe(ev)
}

func eventFromStripe(ev stripe.Event) (Event, error) {
	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}
	switch {
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return Event{}, fmt.Errorf("decode payment intent: %w", err)
		}
		in := intentFromStripe(&pi)
		out.Intent = &in
	case strings.HasPrefix(out.Type, "payment_method."):
		var pm stripe.PaymentMethod
		if err := json.Unmarshal(ev.Data.Raw, &pm); err != nil {
			return Event{}, fmt.Errorf("decode payment method: %w", err)
		}
		m := methodFromStripe(&pm)
		out.Method = &m
	}
	return out, nil
}

func intentFromStripe(pi *stripe.PaymentIntent) Intent {
	in := Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       IntentStatus(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if pi.Customer != nil {
		in.CustomerID = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		in.PaymentMethodID = pi.PaymentMethod.ID
	}
	if pi.LastPaymentError != nil {
		in.LastError = pi.LastPaymentError.Msg
	}
	return in
}

func methodFromStripe(pm *stripe.PaymentMethod) Method {
	m := Method{ID: pm.ID}
	if pm.Customer != nil {
		m.CustomerID = pm.Customer.ID
	}
	if pm.Card != nil {
		m.Brand = string(pm.Card.Brand)
		m.Last4 = pm.Card.Last4
		m.ExpMonth = int(pm.Card.ExpMonth)
		m.ExpYear = int(pm.Card.ExpYear)
	}
	if pm.BillingDetails != nil {
		m.BillingName = pm.BillingDetails.Name
		m.BillingEmail = pm.BillingDetails.Email
	}
	return m
}

// translate turns processor failures into gateway errors carrying the
// processor's own message, e.g. a card decline reason.
func translate(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		msg := se.Msg
		if msg == "" {
			msg = "Payment was declined"
		}
		return apperr.PaymentGateway(msg, err)
	}
	return apperr.PaymentGateway("Payment processor unavailable", err)
}

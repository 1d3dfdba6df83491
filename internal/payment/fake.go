package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
)

// FakeGateway is an in-process processor used by tests and by local runs
// without processor keys. Webhooks are verified with the processor's
// signature scheme so SignPayload works against both gateways.
type FakeGateway struct {
	mu            sync.Mutex
	webhookSecret string
	seq           int
	methods       map[string]*Method
	intents       map[string]*Intent
	declines      map[string]string
	// ConfirmStatus is the state a confirmed intent lands in. Defaults to succeeded.
	ConfirmStatus IntentStatus
}

func NewFakeGateway(webhookSecret string) *FakeGateway {
	return &FakeGateway{
		webhookSecret: webhookSecret,
		methods:       map[string]*Method{},
		intents:       map[string]*Intent{},
		declines:      map[string]string{},
		ConfirmStatus: IntentSucceeded,
	}
}

// AddMethod registers a processor-side payment method, as if tokenized by the client.
func (g *FakeGateway) AddMethod(m Method) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.methods[m.ID] = &m
}

// Decline makes confirmations against methodID fail with msg.
func (g *FakeGateway) Decline(methodID, msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.declines[methodID] = msg
}

// SetIntentStatus moves an intent, e.g. to simulate asynchronous confirmation.
func (g *FakeGateway) SetIntentStatus(intentID string, status IntentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if in, ok := g.intents[intentID]; ok {
		in.Status = status
	}
}

// Intents returns a snapshot of every created intent.
func (g *FakeGateway) Intents() []Intent {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Intent, 0, len(g.intents))
	for _, in := range g.intents {
		out = append(out, copyIntent(in))
	}
	return out
}

func (g *FakeGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_fake_%d", prefix, g.seq)
}

func (g *FakeGateway) CreateCustomer(_ context.Context, _ CustomerParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nextID("cus"), nil
}

func (g *FakeGateway) GetPaymentMethod(_ context.Context, methodID string) (Method, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.methods[methodID]
	if !ok {
		return Method{}, apperr.PaymentGateway(fmt.Sprintf("No such PaymentMethod: '%s'", methodID), nil)
	}
	return *m, nil
}

func (g *FakeGateway) AttachPaymentMethod(_ context.Context, methodID, customerID string) (Method, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.methods[methodID]
	if !ok {
		return Method{}, apperr.PaymentGateway(fmt.Sprintf("No such PaymentMethod: '%s'", methodID), nil)
	}
	if m.CustomerID != "" && m.CustomerID != customerID {
		return Method{}, apperr.PaymentGateway("The payment method is attached to another customer", nil)
	}
	m.CustomerID = customerID
	return *m, nil
}

func (g *FakeGateway) DetachPaymentMethod(_ context.Context, methodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.methods[methodID]
	if !ok || m.CustomerID == "" {
		return apperr.PaymentGateway("The payment method is not attached to a customer", nil)
	}
	m.CustomerID = ""
	return nil
}

func (g *FakeGateway) CreateIntent(_ context.Context, p IntentParams) (Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p.AmountCents <= 0 {
		return Intent{}, apperr.PaymentGateway("Amount must be greater than zero", nil)
	}

	id := g.nextID("pi")
	in := &Intent{
		ID:              id,
		ClientSecret:    id + "_secret",
		Status:          IntentRequiresPaymentMethod,
		AmountCents:     p.AmountCents,
		Currency:        p.Currency,
		CustomerID:      p.CustomerID,
		PaymentMethodID: p.PaymentMethodID,
		Metadata:        map[string]string{},
	}
	for k, v := range p.Metadata {
		in.Metadata[k] = v
	}
	if p.PaymentMethodID != "" {
		in.Status = IntentRequiresConfirmation
	}
	if p.Confirm && p.PaymentMethodID != "" {
		if msg, declined := g.declines[p.PaymentMethodID]; declined {
			in.Status = IntentRequiresPaymentMethod
			in.LastError = msg
			g.intents[id] = in
			return Intent{}, apperr.PaymentGateway(msg, nil)
		}
		in.Status = g.ConfirmStatus
	}
	g.intents[id] = in
	return copyIntent(in), nil
}

func (g *FakeGateway) GetIntent(_ context.Context, intentID string) (Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[intentID]
	if !ok {
		return Intent{}, apperr.PaymentGateway(fmt.Sprintf("No such payment_intent: '%s'", intentID), nil)
	}
	return copyIntent(in), nil
}

func (g *FakeGateway) UpdateIntentMetadata(_ context.Context, intentID string, md map[string]string) (Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[intentID]
	if !ok {
		return Intent{}, apperr.PaymentGateway(fmt.Sprintf("No such payment_intent: '%s'", intentID), nil)
	}
	for k, v := range md {
		in.Metadata[k] = v
	}
	return copyIntent(in), nil
}

func (g *FakeGateway) ConstructEvent(payload []byte, signatureHeader string) (Event, error) {
	return NewStripeGateway("", g.webhookSecret).ConstructEvent(payload, signatureHeader)
}

func copyIntent(in *Intent) Intent {
	out := *in
	out.Metadata = make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		out.Metadata[k] = v
	}
	return out
}

// SignPayload builds a signature header for payload in the processor's
// "t=<unix>,v1=<hex hmac>" format.
func SignPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

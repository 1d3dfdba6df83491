package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Order lifecycle event types.
const (
	OrderCreated          = "order.created"
	OrderCancelled        = "order.cancelled"
	OrderPaymentSucceeded = "order.payment_succeeded"
	OrderPaymentFailed    = "order.payment_failed"
	WebhookFailed         = "payment.webhook_failed"
)

// Envelope wraps every published payload.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope marshals data into an envelope with a fresh id.
func NewEnvelope(eventType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, e Envelope) error
	Close() error
}

// NopPublisher drops everything. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, Envelope) error { return nil }
func (NopPublisher) Close() error                                            { return nil }

// Published is one captured call to a RecordingPublisher.
type Published struct {
	Topic    string
	Key      string
	Envelope Envelope
}

// RecordingPublisher keeps every envelope in memory.
type RecordingPublisher struct {
	mu   sync.Mutex
	sent []Published
	// Err, when set, is returned from Publish after recording.
	Err error
}

func (p *RecordingPublisher) Publish(_ context.Context, topic, key string, e Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, Published{Topic: topic, Key: key, Envelope: e})
	return p.Err
}

func (p *RecordingPublisher) Close() error { return nil }

func (p *RecordingPublisher) Sent() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.sent...)
}

// Types lists the envelope types published to topic, in order.
func (p *RecordingPublisher) Types(topic string) []string {
	var out []string
	for _, s := range p.Sent() {
		if s.Topic == topic {
			out = append(out, s.Envelope.Type)
		}
	}
	return out
}

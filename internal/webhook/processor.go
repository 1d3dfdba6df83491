package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/events"
	"github.com/itsalifarrukh/hb-apparel/internal/metrics"
	"github.com/itsalifarrukh/hb-apparel/internal/order"
	"github.com/itsalifarrukh/hb-apparel/internal/payment"
	"github.com/itsalifarrukh/hb-apparel/internal/paymentmethod"
)

// Outcome labels the webhook_events metric.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeFailed    Outcome = "failed"
	OutcomeRejected  Outcome = "rejected"
)

// Verifier checks the signature of a delivery. payment.Gateway satisfies it.
type Verifier interface {
	ConstructEvent(payload []byte, signatureHeader string) (payment.Event, error)
}

type Orders interface {
	Locate(ctx context.Context, ref order.Ref) (order.Order, error)
	MarkPaymentProcessing(ctx context.Context, orderID int) (order.Order, error)
	MarkPaymentFailed(ctx context.Context, orderID int) (order.Order, error)
	MarkPaymentSucceeded(ctx context.Context, orderID int) (order.Order, bool, error)
}

type Methods interface {
	EnsureFromProcessor(ctx context.Context, pm payment.Method) (paymentmethod.PaymentMethod, bool, error)
}

type Processor struct {
	verifier  Verifier
	store     EventStore
	orders    Orders
	methods   Methods
	tx        database.TxRunner
	publisher events.Publisher
	dlqTopic  string
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

type Options struct {
	Verifier  Verifier
	Store     EventStore
	Orders    Orders
	Methods   Methods
	Tx        database.TxRunner
	Publisher events.Publisher
	// DeadLetterTopic receives deliveries that could not be applied.
	DeadLetterTopic string
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
}

func NewProcessor(o Options) *Processor {
	if o.Publisher == nil {
		o.Publisher = events.NopPublisher{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Nop()
	}
	return &Processor{
		verifier:  o.Verifier,
		store:     o.Store,
		orders:    o.Orders,
		methods:   o.Methods,
		tx:        o.Tx,
		publisher: o.Publisher,
		dlqTopic:  o.DeadLetterTopic,
		metrics:   o.Metrics,
		logger:    o.Logger,
	}
}

// Handle verifies and applies one delivery. Only a signature failure is
// returned as an error; anything that goes wrong after verification is
// logged, dead-lettered and reported as OutcomeFailed so the processor does
// not redeliver forever.
func (p *Processor) Handle(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	ev, err := p.verifier.ConstructEvent(payload, signature)
	if err != nil {
		p.metrics.WebhookEvents.WithLabelValues("unknown", string(OutcomeRejected)).Inc()
		p.logger.Warn().Err(err).Msg("webhook rejected")
		return OutcomeRejected, err
	}

	outcome, err := p.apply(ctx, ev)
	if err != nil {
		outcome = OutcomeFailed
		p.logger.Error().Err(err).Str("event_id", ev.ID).Str("event_type", ev.Type).Msg("webhook failed")
		p.deadLetter(ctx, ev, payload, err)
	}
	p.metrics.WebhookEvents.WithLabelValues(ev.Type, string(outcome)).Inc()
	return outcome, nil
}

func (p *Processor) apply(ctx context.Context, ev payment.Event) (Outcome, error) {
	outcome := OutcomeProcessed
	recorded := false
	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		fresh, err := p.store.Record(ctx, ev.ID, ev.Type)
		if err != nil {
			return fmt.Errorf("record event: %w", err)
		}
		if !fresh {
			outcome = OutcomeDuplicate
			return nil
		}
		recorded = true

		switch ev.Type {
		case payment.EventIntentSucceeded:
			return p.withOrder(ctx, ev, func(o order.Order) error {
				o, applied, err := p.orders.MarkPaymentSucceeded(ctx, o.ID)
				if err == nil && applied {
					p.logger.Info().Str("order_number", o.OrderNumber).Msg("payment confirmed")
				}
				return err
			})
		case payment.EventIntentProcessing:
			return p.withOrder(ctx, ev, func(o order.Order) error {
				_, err := p.orders.MarkPaymentProcessing(ctx, o.ID)
				return err
			})
		case payment.EventIntentFailed:
			return p.withOrder(ctx, ev, func(o order.Order) error {
				_, err := p.orders.MarkPaymentFailed(ctx, o.ID)
				return err
			})
		case payment.EventMethodAttached:
			if ev.Method == nil {
				return fmt.Errorf("event %s has no payment method", ev.ID)
			}
			_, _, err := p.methods.EnsureFromProcessor(ctx, *ev.Method)
			return err
		default:
			outcome = OutcomeIgnored
			return nil
		}
	})
	if err != nil && recorded {
		if f, ok := p.store.(forgetter); ok {
			f.Forget(ctx, ev.ID)
		}
	}
	return outcome, err
}

func (p *Processor) withOrder(ctx context.Context, ev payment.Event, fn func(order.Order) error) error {
	if ev.Intent == nil {
		return fmt.Errorf("event %s has no payment intent", ev.ID)
	}
	o, err := p.orders.Locate(ctx, refOf(*ev.Intent))
	if err != nil {
		return fmt.Errorf("locate order for %s: %w", ev.Intent.ID, err)
	}
	return fn(o)
}

func refOf(in payment.Intent) order.Ref {
	ref := order.Ref{
		OrderNumber:     in.Metadata[payment.MetaOrderNumber],
		PaymentIntentID: in.ID,
	}
	if id, err := strconv.Atoi(in.Metadata[payment.MetaOrderID]); err == nil {
		ref.OrderID = id
	}
	return ref
}

type deadLetter struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Error     string          `json:"error"`
	Payload   json.RawMessage `json:"payload"`
}

func (p *Processor) deadLetter(ctx context.Context, ev payment.Event, payload []byte, cause error) {
	env, err := events.NewEnvelope(events.WebhookFailed, deadLetter{
		EventID:   ev.ID,
		EventType: ev.Type,
		Error:     cause.Error(),
		Payload:   payload,
	})
	if err == nil {
		err = p.publisher.Publish(ctx, p.dlqTopic, ev.ID, env)
	}
	if err != nil {
		p.logger.Error().Err(err).Str("event_id", ev.ID).Msg("dead-letter webhook")
	}
}

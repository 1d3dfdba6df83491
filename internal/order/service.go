package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/events"
	"github.com/itsalifarrukh/hb-apparel/internal/pricing"
	"github.com/itsalifarrukh/hb-apparel/internal/product"
)

const maxNotesLength = 1000

var (
	errOrderNotFound  = apperr.NotFound("Order not found")
	errNotCancellable = apperr.Validation("Only pending or confirmed orders can be cancelled")
	errNoItems        = apperr.Validation("Order has no items")

	// ErrIntentLinked rejects a payment that already pays for another order.
	ErrIntentLinked = apperr.Conflict("Payment is already linked to another order")
)

// StockAdjuster decrements product stock. product.Repository satisfies it.
type StockAdjuster interface {
	DecrementStock(ctx context.Context, productID, qty int) error
}

type Service struct {
	repo      Repository
	stock     StockAdjuster
	tx        database.TxRunner
	publisher events.Publisher
	topic     string
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, stock StockAdjuster, tx database.TxRunner, publisher events.Publisher, topic string, logger zerolog.Logger) *Service {
	return &Service{repo: repo, stock: stock, tx: tx, publisher: publisher, topic: topic, logger: logger, now: time.Now}
}

// NewOrder carries what checkout has already validated and priced.
type NewOrder struct {
	UserID            int
	Summary           pricing.Summary
	Items             []Item
	ShippingAddressID *int
	BillingAddressID  *int
	PaymentMethodID   *int
	PaymentIntentID   *string
	CustomerNotes     string
}

// Create stores a PENDING order awaiting payment.
func (s *Service) Create(ctx context.Context, in NewOrder) (Order, error) {
	if len(in.Items) == 0 {
		return Order{}, errNoItems
	}
	if len(in.CustomerNotes) > maxNotesLength {
		return Order{}, apperr.Validation("Invalid notes", apperr.Field("customerNotes", "customerNotes is too long"))
	}
	o := Order{
		OrderNumber:       NewOrderNumber(s.now()),
		UserID:            in.UserID,
		Subtotal:          in.Summary.Subtotal,
		ShippingCost:      in.Summary.ShippingCost,
		TaxAmount:         in.Summary.TaxAmount,
		DiscountAmount:    in.Summary.DiscountAmount,
		TotalAmount:       in.Summary.TotalAmount,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		ShippingStatus:    ShippingNotShipped,
		ShippingAddressID: in.ShippingAddressID,
		BillingAddressID:  in.BillingAddressID,
		PaymentMethodID:   in.PaymentMethodID,
		PaymentIntentID:   in.PaymentIntentID,
		CustomerNotes:     strings.TrimSpace(in.CustomerNotes),
		Items:             in.Items,
	}
	o, err := s.repo.Create(ctx, o)
	if errors.Is(err, ErrDuplicateIntent) {
		return Order{}, ErrIntentLinked
	}
	return o, err
}

func (s *Service) List(ctx context.Context, userID int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns the order only when it belongs to userID.
func (s *Service) Get(ctx context.Context, userID int, orderNumber string) (Order, error) {
	o, err := s.repo.GetByNumber(ctx, orderNumber)
	if errors.Is(err, ErrNotFound) || (err == nil && o.UserID != userID) {
		return Order{}, errOrderNotFound
	}
	return o, err
}

// Ref identifies an order from payment metadata. Fields are tried in order.
type Ref struct {
	OrderID         int
	OrderNumber     string
	PaymentIntentID string
}

// Locate resolves an order by internal id, then order number, then the
// stored payment intent id.
func (s *Service) Locate(ctx context.Context, ref Ref) (Order, error) {
	if ref.OrderID > 0 {
		o, err := s.repo.GetByID(ctx, ref.OrderID)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return o, err
		}
	}
	if ref.OrderNumber != "" {
		o, err := s.repo.GetByNumber(ctx, ref.OrderNumber)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return o, err
		}
	}
	if ref.PaymentIntentID != "" {
		o, err := s.repo.GetByPaymentIntentID(ctx, ref.PaymentIntentID)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return o, err
		}
	}
	return Order{}, errOrderNotFound
}

// IntentInUse reports whether some order already holds intentID.
func (s *Service) IntentInUse(ctx context.Context, intentID string) (bool, error) {
	_, err := s.repo.GetByPaymentIntentID(ctx, intentID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type UpdateInput struct {
	Status        *Status `json:"status"`
	CustomerNotes *string `json:"customerNotes"`
}

// Update applies the customer-allowed mutations, cancellation and notes,
// together: either both are stored or neither is.
func (s *Service) Update(ctx context.Context, userID int, orderNumber string, in UpdateInput) (Order, error) {
	if in.Status == nil && in.CustomerNotes == nil {
		return Order{}, apperr.Validation("Nothing to update")
	}
	if in.Status != nil && *in.Status != StatusCancelled {
		return Order{}, apperr.Validation("Invalid status", apperr.Field("status", "only CANCELLED can be requested"))
	}
	if in.CustomerNotes != nil && len(*in.CustomerNotes) > maxNotesLength {
		return Order{}, apperr.Validation("Invalid notes", apperr.Field("customerNotes", "customerNotes is too long"))
	}

	var o Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.Get(ctx, userID, orderNumber); err != nil {
			return err
		}
		if in.Status != nil && !o.Status.CanTransition(StatusCancelled) {
			return errNotCancellable
		}
		if in.CustomerNotes != nil {
			o.CustomerNotes = strings.TrimSpace(*in.CustomerNotes)
		}
		if in.Status != nil {
			o.Status = StatusCancelled
		}
		o, err = s.save(ctx, o, o.PaymentStatus)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	if in.Status != nil {
		s.publish(ctx, events.OrderCancelled, o)
	}
	return o, nil
}

// Cancel moves a PENDING or CONFIRMED order to CANCELLED.
func (s *Service) Cancel(ctx context.Context, userID int, orderNumber string) (Order, error) {
	o, err := s.Get(ctx, userID, orderNumber)
	if err != nil {
		return Order{}, err
	}
	if !o.Status.CanTransition(StatusCancelled) {
		return Order{}, errNotCancellable
	}
	o.Status = StatusCancelled
	o, err = s.save(ctx, o, o.PaymentStatus)
	if err != nil {
		return Order{}, err
	}
	s.publish(ctx, events.OrderCancelled, o)
	return o, nil
}

// AttachPaymentIntent links a processor intent (and optionally the saved
// method used) to the order.
func (s *Service) AttachPaymentIntent(ctx context.Context, o Order, intentID string, methodID *int) (Order, error) {
	o.PaymentIntentID = &intentID
	if methodID != nil {
		o.PaymentMethodID = methodID
	}
	return s.save(ctx, o, o.PaymentStatus)
}

// MarkPaymentProcessing records that the processor is working on the payment.
func (s *Service) MarkPaymentProcessing(ctx context.Context, orderID int) (Order, error) {
	o, err := s.byID(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !o.PaymentStatus.CanTransition(PaymentProcessing) {
		return o, nil
	}
	prev := o.PaymentStatus
	o.PaymentStatus = PaymentProcessing
	return s.save(ctx, o, prev)
}

// MarkPaymentFailed records a failed attempt. A succeeded payment is never downgraded.
func (s *Service) MarkPaymentFailed(ctx context.Context, orderID int) (Order, error) {
	o, err := s.byID(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !o.PaymentStatus.CanTransition(PaymentFailed) {
		return o, nil
	}
	prev := o.PaymentStatus
	o.PaymentStatus = PaymentFailed
	o, err = s.save(ctx, o, prev)
	if err != nil {
		return Order{}, err
	}
	s.publish(ctx, events.OrderPaymentFailed, o)
	return o, nil
}

// MarkPaymentSucceeded applies a successful payment once: payment status
// SUCCEEDED, status CONFIRMED when still PENDING, and stock decremented per
// item. applied is false when the payment had already been recorded.
func (s *Service) MarkPaymentSucceeded(ctx context.Context, orderID int) (o Order, applied bool, err error) {
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err = s.byID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.PaymentStatus == PaymentSucceeded || !o.PaymentStatus.CanTransition(PaymentSucceeded) {
			return nil
		}

		prev := o.PaymentStatus
		o.PaymentStatus = PaymentSucceeded
		if o.Status == StatusPending {
			o.Status = StatusConfirmed
		}
		o, err = s.repo.Update(ctx, o, prev)
		if errors.Is(err, ErrStale) {
			// another delivery won the race
			o, err = s.byID(ctx, orderID)
			return err
		}
		if err != nil {
			return err
		}

		for _, it := range o.Items {
			if err := s.stock.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) || errors.Is(err, product.ErrNotFound) {
					s.logger.Warn().Str("order_number", o.OrderNumber).Int("product_id", it.ProductID).
						Int("quantity", it.Quantity).Err(err).Msg("paid order oversold")
					continue
				}
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return Order{}, false, err
	}
	if applied {
		s.publish(ctx, events.OrderPaymentSucceeded, o)
	}
	return o, applied, nil
}

// Announce publishes a lifecycle event for o. Failures are logged only.
func (s *Service) Announce(ctx context.Context, eventType string, o Order) {
	s.publish(ctx, eventType, o)
}

func (s *Service) byID(ctx context.Context, id int) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Order{}, errOrderNotFound
	}
	return o, err
}

func (s *Service) save(ctx context.Context, o Order, prev PaymentStatus) (Order, error) {
	out, err := s.repo.Update(ctx, o, prev)
	if errors.Is(err, ErrStale) {
		return Order{}, apperr.Conflict("Order was updated by another request, please retry")
	}
	if errors.Is(err, ErrNotFound) {
		return Order{}, errOrderNotFound
	}
	if errors.Is(err, ErrDuplicateIntent) {
		return Order{}, ErrIntentLinked
	}
	return out, err
}

type eventData struct {
	OrderNumber   string          `json:"orderNumber"`
	UserID        int             `json:"userId"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Items         []Item          `json:"items"`
}

func (s *Service) publish(ctx context.Context, eventType string, o Order) {
	env, err := events.NewEnvelope(eventType, eventData{
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		Items:         o.Items,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, s.topic, o.OrderNumber, env)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Str("order_number", o.OrderNumber).Msg("publish order event")
	}
}

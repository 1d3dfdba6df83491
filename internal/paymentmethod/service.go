package paymentmethod

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/payment"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

var (
	errPaymentMethodNotFound = apperr.NotFound("Payment method not found")
	errMethodOwnedElsewhere  = apperr.Validation("Payment method belongs to another customer")
)

// CustomerResolver yields the processor customer of a user.
type CustomerResolver interface {
	Resolve(ctx context.Context, userID int) (string, error)
}

// Owners finds the user behind a processor customer id.
type Owners interface {
	GetByPaymentCustomerID(ctx context.Context, customerID string) (user.User, error)
}

type Service struct {
	repo      Repository
	gateway   payment.Gateway
	customers CustomerResolver
	owners    Owners
	tx        database.TxRunner
	logger    zerolog.Logger
}

func NewService(repo Repository, gateway payment.Gateway, customers CustomerResolver, owners Owners, tx database.TxRunner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, customers: customers, owners: owners, tx: tx, logger: logger}
}

func (s *Service) List(ctx context.Context, userID int) ([]PaymentMethod, error) {
	return s.repo.List(ctx, userID)
}

// GetForUser returns the method only when it belongs to userID.
func (s *Service) GetForUser(ctx context.Context, userID, id int) (PaymentMethod, error) {
	m, err := s.repo.Get(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return PaymentMethod{}, errPaymentMethodNotFound
	}
	return m, err
}

type SaveInput struct {
	PaymentMethodID string `json:"paymentMethodId"`
	IsDefault       bool   `json:"isDefault"`
}

// Save attaches a processor payment method to the user's customer and stores
// its display fields.
func (s *Service) Save(ctx context.Context, userID int, in SaveInput) (PaymentMethod, error) {
	processorID := strings.TrimSpace(in.PaymentMethodID)
	if processorID == "" {
		return PaymentMethod{}, apperr.Validation("Invalid payment method",
			apperr.Field("paymentMethodId", "paymentMethodId is required"))
	}

	customerID, err := s.customers.Resolve(ctx, userID)
	if err != nil {
		return PaymentMethod{}, err
	}
	pm, err := s.gateway.GetPaymentMethod(ctx, processorID)
	if err != nil {
		return PaymentMethod{}, err
	}
	switch pm.CustomerID {
	case customerID:
	case "":
		if pm, err = s.gateway.AttachPaymentMethod(ctx, processorID, customerID); err != nil {
			return PaymentMethod{}, err
		}
	default:
		return PaymentMethod{}, errMethodOwnedElsewhere
	}

	existing, err := s.repo.List(ctx, userID)
	if err != nil {
		return PaymentMethod{}, err
	}
	rec := fromProcessor(userID, pm)
	rec.IsDefault = in.IsDefault || len(existing) == 0

	var out PaymentMethod
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		out, err = s.repo.Create(ctx, rec)
		if err != nil {
			return err
		}
		if out.UserID != userID {
			return errMethodOwnedElsewhere
		}
		if out.IsDefault {
			return s.repo.ClearDefault(ctx, userID, out.ID)
		}
		return nil
	})
	return out, err
}

// Delete detaches the method at the processor, then removes the record.
func (s *Service) Delete(ctx context.Context, userID, id int) error {
	m, err := s.GetForUser(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.gateway.DetachPaymentMethod(ctx, m.ProcessorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errPaymentMethodNotFound
		}
		return err
	}
	return nil
}

// EnsureFromProcessor records a method attached outside the storefront, e.g.
// reported by a webhook. It never stores the same processor id twice.
func (s *Service) EnsureFromProcessor(ctx context.Context, pm payment.Method) (PaymentMethod, bool, error) {
	if existing, err := s.repo.GetByProcessorID(ctx, pm.ID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return PaymentMethod{}, false, err
	}
	if pm.CustomerID == "" {
		return PaymentMethod{}, false, apperr.Validation("Payment method has no customer")
	}

	owner, err := s.owners.GetByPaymentCustomerID(ctx, pm.CustomerID)
	if err != nil {
		return PaymentMethod{}, false, err
	}
	rec := fromProcessor(owner.ID, pm)
	out, err := s.repo.Create(ctx, rec)
	if err != nil {
		return PaymentMethod{}, false, err
	}
	s.logger.Info().Int("user_id", owner.ID).Str("payment_method", pm.ID).Msg("payment method recorded from processor")
	return out, true, nil
}

func fromProcessor(userID int, pm payment.Method) PaymentMethod {
	return PaymentMethod{
		UserID:       userID,
		ProcessorID:  pm.ID,
		Brand:        pm.Brand,
		Last4:        pm.Last4,
		ExpMonth:     pm.ExpMonth,
		ExpYear:      pm.ExpYear,
		BillingName:  pm.BillingName,
		BillingEmail: pm.BillingEmail,
	}
}

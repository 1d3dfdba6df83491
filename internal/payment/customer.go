package payment

import (
	"context"
	"strings"

	"github.com/itsalifarrukh/hb-apparel/internal/user"
)

// Users is the user access customer resolution needs. *user.Service satisfies it.
type Users interface {
	GetByID(ctx context.Context, id int) (user.User, error)
	SetPaymentCustomerID(ctx context.Context, id int, customerID string) error
}

// CustomerResolver maps a user to their processor customer, creating it at
// most once and persisting it on the user.
type CustomerResolver struct {
	users   Users
	gateway Gateway
}

func NewCustomerResolver(users Users, gateway Gateway) *CustomerResolver {
	return &CustomerResolver{users: users, gateway: gateway}
}

func (r *CustomerResolver) Resolve(ctx context.Context, userID int) (string, error) {
	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.PaymentCustomerID != nil && *u.PaymentCustomerID != "" {
		return *u.PaymentCustomerID, nil
	}

	id, err := r.gateway.CreateCustomer(ctx, CustomerParams{
		UserID: u.ID,
		Email:  u.Email,
		Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
	})
	if err != nil {
		return "", err
	}
	if err := r.users.SetPaymentCustomerID(ctx, u.ID, id); err != nil {
		return "", err
	}

	// a concurrent request may have stored its customer first
	u, err = r.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.PaymentCustomerID != nil && *u.PaymentCustomerID != "" {
		return *u.PaymentCustomerID, nil
	}
	return id, nil
}

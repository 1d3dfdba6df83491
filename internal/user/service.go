package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
)

var errUserNotFound = apperr.NotFound("User not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, errUserNotFound
	}
	return u, err
}

// GetByPaymentCustomerID resolves the owner of a processor-side customer.
func (s *Service) GetByPaymentCustomerID(ctx context.Context, customerID string) (User, error) {
	u, err := s.repo.GetByPaymentCustomerID(ctx, customerID)
	if errors.Is(err, ErrNotFound) {
		return User{}, errUserNotFound
	}
	return u, err
}

// SetPaymentCustomerID stores the processor customer id unless one is already set.
func (s *Service) SetPaymentCustomerID(ctx context.Context, id int, customerID string) error {
	return s.repo.SetPaymentCustomerID(ctx, id, customerID)
}

func (s *Service) Register(ctx context.Context, user User) (User, error) {
	if _, err := s.repo.GetByEmail(ctx, user.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user.Password = string(hashed)
	return s.repo.Create(ctx, user)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id int, update ProfileUpdate) (User, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if update.FirstName != nil {
		existing.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		existing.LastName = *update.LastName
	}
	if update.Phone != nil {
		existing.Phone = *update.Phone
	}
	return s.repo.UpdateProfile(ctx, id, existing)
}

// ProfileUpdate carries the fields a client may change; nil means unchanged.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

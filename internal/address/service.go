package address

import (
	"context"
	"errors"
	"strings"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

var errAddressNotFound = apperr.NotFound("Address not found")

// Input is the client-editable part of an address.
type Input struct {
	Type       Type   `json:"type"`
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"isDefault"`
}

type Service struct {
	repo Repository
	tx   database.TxRunner
}

func NewService(repo Repository, tx database.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

func (s *Service) List(ctx context.Context, userID int) ([]Address, error) {
	return s.repo.List(ctx, userID)
}

// GetForUser returns the address only if userID owns it.
func (s *Service) GetForUser(ctx context.Context, userID, addressID int) (Address, error) {
	a, err := s.repo.Get(ctx, userID, addressID)
	if errors.Is(err, ErrNotFound) {
		return Address{}, errAddressNotFound
	}
	return a, err
}

func (s *Service) Create(ctx context.Context, userID int, in Input) (Address, error) {
	if err := in.validate(); err != nil {
		return Address{}, err
	}
	var out Address
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err := s.repo.Create(ctx, in.toAddress(userID, 0))
		if err != nil {
			return err
		}
		if created.IsDefault {
			if err := s.repo.ClearDefault(ctx, userID, created.Type, created.AddressID); err != nil {
				return err
			}
		}
		out = created
		return nil
	})
	return out, err
}

func (s *Service) Update(ctx context.Context, userID, addressID int, in Input) (Address, error) {
	if err := in.validate(); err != nil {
		return Address{}, err
	}
	var out Address
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		updated, err := s.repo.Update(ctx, in.toAddress(userID, addressID))
		if err != nil {
			return err
		}
		if updated.IsDefault {
			if err := s.repo.ClearDefault(ctx, userID, updated.Type, updated.AddressID); err != nil {
				return err
			}
		}
		out = updated
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return Address{}, errAddressNotFound
	}
	return out, err
}

func (s *Service) Delete(ctx context.Context, userID, addressID int) error {
	err := s.repo.Delete(ctx, userID, addressID)
	if errors.Is(err, ErrNotFound) {
		return errAddressNotFound
	}
	return err
}

func (in Input) toAddress(userID, addressID int) Address {
	return Address{
		AddressID:  addressID,
		UserID:     userID,
		Type:       in.Type,
		FullName:   strings.TrimSpace(in.FullName),
		Line1:      strings.TrimSpace(in.Line1),
		Line2:      strings.TrimSpace(in.Line2),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.TrimSpace(in.Country),
		Phone:      strings.TrimSpace(in.Phone),
		IsDefault:  in.IsDefault,
	}
}

func (in Input) validate() error {
	var fields []apperr.FieldError
	if !in.Type.Valid() {
		fields = append(fields, apperr.Field("type", "type must be SHIPPING, BILLING or BOTH"))
	}
	required := []struct{ name, value string }{
		{"fullName", in.FullName},
		{"line1", in.Line1},
		{"city", in.City},
		{"postalCode", in.PostalCode},
		{"country", in.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			fields = append(fields, apperr.Field(r.name, r.name+" is required"))
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid address", fields...)
	}
	return nil
}

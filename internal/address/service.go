package address

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/store"
)

// ErrInvalid indicates a required address field is missing.
var ErrInvalid = errors.New("street, city and postal code are required")

// Querier is the slice of the store the address service needs.
type Querier interface {
	CreateAddress(ctx context.Context, arg store.CreateAddressParams) (store.Address, error)
	ListAddressesByUser(ctx context.Context, userID pgtype.UUID) ([]store.Address, error)
	UpdateAddress(ctx context.Context, arg store.UpdateAddressParams) (store.Address, error)
	ClearDefaultAddress(ctx context.Context, userID pgtype.UUID) error
	DeleteAddress(ctx context.Context, id, userID pgtype.UUID) error
}

// Service manages a customer's saved delivery addresses. All operations
// are scoped to the owning user; one address per user may be the
// default.
type Service struct {
	Q Querier
}

// Input carries the writable address fields.
type Input struct {
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      *string `json:"state"`
	PostalCode string  `json:"postalCode"`
	IsDefault  bool    `json:"isDefault"`
}

func (in *Input) normalize() error {
	in.Street = strings.TrimSpace(in.Street)
	in.City = strings.TrimSpace(in.City)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	if in.State != nil {
		trimmed := strings.TrimSpace(*in.State)
		if trimmed == "" {
			in.State = nil
		} else {
			in.State = &trimmed
		}
	}
	if in.Street == "" || in.City == "" || in.PostalCode == "" {
		return ErrInvalid
	}
	return nil
}

// List returns the user's addresses, default first.
func (s *Service) List(ctx context.Context, userID pgtype.UUID) ([]store.Address, error) {
	return s.Q.ListAddressesByUser(ctx, userID)
}

// Create saves a new address. Marking it default unmarks the previous
// one.
func (s *Service) Create(ctx context.Context, userID pgtype.UUID, in Input) (store.Address, error) {
	if err := in.normalize(); err != nil {
		return store.Address{}, err
	}
	if in.IsDefault {
		if err := s.Q.ClearDefaultAddress(ctx, userID); err != nil {
			return store.Address{}, err
		}
	}
	return s.Q.CreateAddress(ctx, store.CreateAddressParams{
		UserID:     userID,
		Street:     in.Street,
		City:       in.City,
		State:      store.TextOrNull(in.State),
		PostalCode: in.PostalCode,
		IsDefault:  in.IsDefault,
	})
}

// Update rewrites one of the user's addresses. A missing or foreign id
// surfaces as pgx.ErrNoRows from the scoped store query.
func (s *Service) Update(ctx context.Context, userID, id pgtype.UUID, in Input) (store.Address, error) {
	if err := in.normalize(); err != nil {
		return store.Address{}, err
	}
	if in.IsDefault {
		if err := s.Q.ClearDefaultAddress(ctx, userID); err != nil {
			return store.Address{}, err
		}
	}
	return s.Q.UpdateAddress(ctx, store.UpdateAddressParams{
		ID:         id,
		UserID:     userID,
		Street:     in.Street,
		City:       in.City,
		State:      store.TextOrNull(in.State),
		PostalCode: in.PostalCode,
		IsDefault:  in.IsDefault,
	})
}

// Delete removes one of the user's addresses.
func (s *Service) Delete(ctx context.Context, userID, id pgtype.UUID) error {
	return s.Q.DeleteAddress(ctx, id, userID)
}

package user

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Querier is the slice of the store the profile service needs.
type Querier interface {
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
	UpdateUserName(ctx context.Context, id pgtype.UUID, name string) (store.User, error)
	UpdateUserPassword(ctx context.Context, id pgtype.UUID, passwordHash string) error
	DeleteSessionsForUser(ctx context.Context, userID pgtype.UUID) error
}

// Service manages a customer's own profile.
type Service struct {
	Q Querier
}

// Profile is the public shape of an account.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateName changes the display name.
func (s *Service) UpdateName(ctx context.Context, userID pgtype.UUID, name string) (Profile, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 {
		return Profile{}, common.NewAppError(common.KindInputValidation, "VALIDATION_FAILED", "name must be at least 2 characters", http.StatusBadRequest, nil)
	}
	updated, err := s.Q.UpdateUserName(ctx, userID, trimmed)
	if err != nil {
		return Profile{}, err
	}
	return profileFrom(updated), nil
}

// ChangePassword verifies the current password, swaps the hash, and revokes
// every refresh session so stolen tokens die with the old password.
func (s *Service) ChangePassword(ctx context.Context, userID pgtype.UUID, current, next string) error {
	if len(next) < 8 {
		return common.NewAppError(common.KindInputValidation, "VALIDATION_FAILED", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}
	account, err := s.Q.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := argon2id.ComparePasswordAndHash(current, account.PasswordHash)
	if err != nil || !ok {
		return common.NewAppError(common.KindInputValidation, "INVALID_CREDENTIALS", "current password is incorrect", http.StatusUnauthorized, err)
	}
	hash, err := argon2id.CreateHash(next, argon2id.DefaultParams)
	if err != nil {
		return err
	}
	if err := s.Q.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.Q.DeleteSessionsForUser(ctx, userID)
}

func profileFrom(u store.User) Profile {
	return Profile{
		ID:    store.UUIDString(u.ID),
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}

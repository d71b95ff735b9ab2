package favorites

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/store"
)

// Querier is the slice of the store the favorites service needs.
type Querier interface {
	GetMenuItemByID(ctx context.Context, id pgtype.UUID) (store.MenuItem, error)
	AddFavorite(ctx context.Context, userID, menuItemID pgtype.UUID) error
	RemoveFavorite(ctx context.Context, userID, menuItemID pgtype.UUID) error
	ListFavoriteMenuItems(ctx context.Context, userID pgtype.UUID) ([]store.MenuItem, error)
	IsFavorite(ctx context.Context, userID, menuItemID pgtype.UUID) (bool, error)
}

// Service lets customers bookmark menu items.
type Service struct {
	Q Querier
}

// Toggle flips the favorite mark and reports the resulting state.
func (s *Service) Toggle(ctx context.Context, userID, menuItemID pgtype.UUID) (bool, error) {
	if _, err := s.Q.GetMenuItemByID(ctx, menuItemID); err != nil {
		return false, err
	}
	marked, err := s.Q.IsFavorite(ctx, userID, menuItemID)
	if err != nil {
		return false, err
	}
	if marked {
		if err := s.Q.RemoveFavorite(ctx, userID, menuItemID); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := s.Q.AddFavorite(ctx, userID, menuItemID); err != nil {
		return false, err
	}
	return true, nil
}

// List returns the user's favorite menu items, newest mark first.
func (s *Service) List(ctx context.Context, userID pgtype.UUID) ([]store.MenuItem, error) {
	return s.Q.ListFavoriteMenuItems(ctx, userID)
}

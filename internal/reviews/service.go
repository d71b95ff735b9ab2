package reviews

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/store"
)

// ErrInvalidRating is returned when the rating falls outside 1..5.
var ErrInvalidRating = errors.New("reviews: rating must be between 1 and 5")

// Querier is the slice of the store the reviews service needs.
type Querier interface {
	GetMenuItemByID(ctx context.Context, id pgtype.UUID) (store.MenuItem, error)
	UpsertReview(ctx context.Context, arg store.UpsertReviewParams) (store.Review, error)
	ListReviewsForMenuItem(ctx context.Context, menuItemID pgtype.UUID, limit, offset int32) ([]store.Review, error)
	GetMenuItemRating(ctx context.Context, menuItemID pgtype.UUID) (store.RatingSummary, error)
	DeleteReview(ctx context.Context, menuItemID, userID pgtype.UUID) error
}

// Service manages menu item reviews. Submitting twice replaces the
// caller's earlier review rather than stacking a second one.
type Service struct {
	Q Querier
}

// Submit writes or replaces the caller's review of a menu item.
func (s *Service) Submit(ctx context.Context, userID, menuItemID pgtype.UUID, rating int16, comment string) (store.Review, error) {
	if rating < 1 || rating > 5 {
		return store.Review{}, ErrInvalidRating
	}
	if _, err := s.Q.GetMenuItemByID(ctx, menuItemID); err != nil {
		return store.Review{}, err
	}
	trimmed := strings.TrimSpace(comment)
	var text pgtype.Text
	if trimmed != "" {
		text = pgtype.Text{String: trimmed, Valid: true}
	}
	return s.Q.UpsertReview(ctx, store.UpsertReviewParams{
		MenuItemID: menuItemID,
		UserID:     userID,
		Rating:     rating,
		Comment:    text,
	})
}

// List returns a page of reviews plus the aggregate rating.
func (s *Service) List(ctx context.Context, menuItemID pgtype.UUID, page, limit int32) ([]store.Review, store.RatingSummary, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit
	rows, err := s.Q.ListReviewsForMenuItem(ctx, menuItemID, limit, offset)
	if err != nil {
		return nil, store.RatingSummary{}, err
	}
	summary, err := s.Q.GetMenuItemRating(ctx, menuItemID)
	if err != nil {
		return nil, store.RatingSummary{}, err
	}
	return rows, summary, nil
}

// Delete removes the caller's review if one exists.
func (s *Service) Delete(ctx context.Context, userID, menuItemID pgtype.UUID) error {
	return s.Q.DeleteReview(ctx, menuItemID, userID)
}

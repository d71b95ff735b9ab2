package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const reviewColumns = `id, menu_item_id, user_id, rating, comment, created_at, updated_at`

func scanReview(row interface{ Scan(dest ...any) error }) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.MenuItemID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// UpsertReviewParams writes a user's review of a menu item. One review per
// user per item; a second submission overwrites the first.
type UpsertReviewParams struct {
	MenuItemID pgtype.UUID
	UserID     pgtype.UUID
	Rating     int16
	Comment    pgtype.Text
}

// UpsertReview inserts or replaces the caller's review.
func (q *Queries) UpsertReview(ctx context.Context, arg UpsertReviewParams) (Review, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO reviews (menu_item_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (menu_item_id, user_id) DO UPDATE
		SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = now()
		RETURNING `+reviewColumns,
		arg.MenuItemID, arg.UserID, arg.Rating, arg.Comment)
	return scanReview(row)
}

// ListReviewsForMenuItem returns reviews newest first.
func (q *Queries) ListReviewsForMenuItem(ctx context.Context, menuItemID pgtype.UUID, limit, offset int32) ([]Review, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE menu_item_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, menuItemID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RatingSummary aggregates a menu item's reviews.
type RatingSummary struct {
	Count   int64
	Average float64
}

// GetMenuItemRating returns the review count and mean rating. Zero values
// when the item has no reviews.
func (q *Queries) GetMenuItemRating(ctx context.Context, menuItemID pgtype.UUID) (RatingSummary, error) {
	var s RatingSummary
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)
		FROM reviews WHERE menu_item_id = $1`, menuItemID).Scan(&s.Count, &s.Average)
	return s, err
}

// DeleteReview removes the caller's review.
func (q *Queries) DeleteReview(ctx context.Context, menuItemID, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM reviews WHERE menu_item_id = $1 AND user_id = $2`,
		menuItemID, userID)
	return err
}

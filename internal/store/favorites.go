package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// AddFavorite marks a menu item as a favorite. Adding twice is a no-op.
func (q *Queries) AddFavorite(ctx context.Context, userID, menuItemID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO favorites (user_id, menu_item_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, menu_item_id) DO NOTHING`,
		userID, menuItemID)
	return err
}

// RemoveFavorite clears a favorite mark. Removing a non-favorite is a no-op.
func (q *Queries) RemoveFavorite(ctx context.Context, userID, menuItemID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM favorites WHERE user_id = $1 AND menu_item_id = $2`,
		userID, menuItemID)
	return err
}

// ListFavoriteMenuItems returns the still-existing menu items a user marked.
func (q *Queries) ListFavoriteMenuItems(ctx context.Context, userID pgtype.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT m.id, m.restaurant_id, m.name, m.description, m.category,
			m.price, m.image_url, m.available, m.created_at
		FROM favorites f
		JOIN menu_items m ON m.id = f.menu_item_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// IsFavorite reports whether the user has marked the menu item.
func (q *Queries) IsFavorite(ctx context.Context, userID, menuItemID pgtype.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM favorites WHERE user_id = $1 AND menu_item_id = $2
		)`, userID, menuItemID).Scan(&exists)
	return exists, err
}

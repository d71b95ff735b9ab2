package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// ListRestaurants returns all restaurants ordered by name.
func (q *Queries) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, slug, name, description, logo_url, contact_email, contact_phone, created_at
		FROM restaurants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Restaurant
	for rows.Next() {
		var r Restaurant
		if err := rows.Scan(&r.ID, &r.Slug, &r.Name, &r.Description, &r.LogoURL, &r.ContactEmail, &r.ContactPhone, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRestaurantBySlug loads a restaurant by its URL slug.
func (q *Queries) GetRestaurantBySlug(ctx context.Context, slug string) (Restaurant, error) {
	var r Restaurant
	err := q.db.QueryRow(ctx, `
		SELECT id, slug, name, description, logo_url, contact_email, contact_phone, created_at
		FROM restaurants WHERE slug = $1`, slug).
		Scan(&r.ID, &r.Slug, &r.Name, &r.Description, &r.LogoURL, &r.ContactEmail, &r.ContactPhone, &r.CreatedAt)
	return r, err
}

// ListBranchesByRestaurant returns the branches of one restaurant.
func (q *Queries) ListBranchesByRestaurant(ctx context.Context, restaurantID pgtype.UUID) ([]Branch, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, restaurant_id, name, address, phone, is_open, created_at
		FROM branches WHERE restaurant_id = $1 ORDER BY name`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.RestaurantID, &b.Name, &b.Address, &b.Phone, &b.IsOpen, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const menuItemColumns = `id, restaurant_id, name, description, category, price, image_url, available, created_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Category, &m.Price, &m.ImageURL, &m.Available, &m.CreatedAt)
	return m, err
}

// ListMenuItems returns the available menu of a restaurant.
func (q *Queries) ListMenuItems(ctx context.Context, restaurantID pgtype.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items WHERE restaurant_id = $1 AND available
		ORDER BY category, name`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMenuItemByID loads a single menu item.
func (q *Queries) GetMenuItemByID(ctx context.Context, id pgtype.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

// CreateMenuItemParams carries fields for a new menu item.
type CreateMenuItemParams struct {
	RestaurantID pgtype.UUID
	Name         string
	Description  pgtype.Text
	Category     pgtype.Text
	Price        int64
	ImageURL     pgtype.Text
	Available    bool
}

// CreateMenuItem inserts a menu item.
func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items (restaurant_id, name, description, category, price, image_url, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+menuItemColumns,
		arg.RestaurantID, arg.Name, arg.Description, arg.Category, arg.Price, arg.ImageURL, arg.Available)
	return scanMenuItem(row)
}

// UpdateMenuItemParams mirrors CreateMenuItemParams for an existing row.
type UpdateMenuItemParams struct {
	ID          pgtype.UUID
	Name        string
	Description pgtype.Text
	Category    pgtype.Text
	Price       int64
	ImageURL    pgtype.Text
	Available   bool
}

// UpdateMenuItem mutates a menu item.
func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items SET name = $2, description = $3, category = $4,
			price = $5, image_url = $6, available = $7
		WHERE id = $1
		RETURNING `+menuItemColumns,
		arg.ID, arg.Name, arg.Description, arg.Category, arg.Price, arg.ImageURL, arg.Available)
	return scanMenuItem(row)
}

// DeleteMenuItem removes a menu item.
func (q *Queries) DeleteMenuItem(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	return err
}

// ListAddonsForMenuItem returns the add-ons offered on a menu item.
func (q *Queries) ListAddonsForMenuItem(ctx context.Context, menuItemID pgtype.UUID) ([]Addon, error) {
	rows, err := q.db.Query(ctx, `
		SELECT a.id, a.restaurant_id, a.name, a.price
		FROM addons a
		JOIN menu_item_addons mia ON mia.addon_id = a.id
		WHERE mia.menu_item_id = $1
		ORDER BY a.name`, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Addon
	for rows.Next() {
		var a Addon
		if err := rows.Scan(&a.ID, &a.RestaurantID, &a.Name, &a.Price); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const cartColumns = `id, restaurant_id, branch_id, user_id, anon_id, fulfillment,
	applied_coupon_code, expires_at, created_at, updated_at`

func scanCart(row interface{ Scan(dest ...any) error }) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.RestaurantID, &c.BranchID, &c.UserID, &c.AnonID,
		&c.Fulfillment, &c.AppliedCouponCode, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCartParams identifies the owner and scope of a new cart.
type CreateCartParams struct {
	RestaurantID pgtype.UUID
	BranchID     pgtype.UUID
	UserID       pgtype.UUID
	AnonID       pgtype.Text
	Fulfillment  string
	ExpiresAt    pgtype.Timestamptz
}

// CreateCart inserts a cart.
func (q *Queries) CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO carts (restaurant_id, branch_id, user_id, anon_id, fulfillment, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+cartColumns,
		arg.RestaurantID, arg.BranchID, arg.UserID, arg.AnonID, arg.Fulfillment, arg.ExpiresAt)
	return scanCart(row)
}

// GetCartByID loads a cart.
func (q *Queries) GetCartByID(ctx context.Context, id pgtype.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
	return scanCart(row)
}

// GetActiveCartByUser finds the newest unexpired cart for a user within a restaurant.
func (q *Queries) GetActiveCartByUser(ctx context.Context, restaurantID, userID pgtype.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE restaurant_id = $1 AND user_id = $2 AND expires_at > now()
		ORDER BY created_at DESC LIMIT 1`, restaurantID, userID)
	return scanCart(row)
}

// GetActiveCartByAnon finds the newest unexpired cart for a guest within a restaurant.
func (q *Queries) GetActiveCartByAnon(ctx context.Context, restaurantID pgtype.UUID, anonID pgtype.Text) (Cart, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE restaurant_id = $1 AND anon_id = $2 AND expires_at > now()
		ORDER BY created_at DESC LIMIT 1`, restaurantID, anonID)
	return scanCart(row)
}

// TouchCart extends the cart lifetime.
func (q *Queries) TouchCart(ctx context.Context, id pgtype.UUID, expiresAt pgtype.Timestamptz) error {
	_, err := q.db.Exec(ctx, `UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`, id, expiresAt)
	return err
}

// UpdateCartCoupon attaches or clears the applied coupon code.
func (q *Queries) UpdateCartCoupon(ctx context.Context, id pgtype.UUID, code pgtype.Text) error {
	_, err := q.db.Exec(ctx, `UPDATE carts SET applied_coupon_code = $2, updated_at = now() WHERE id = $1`, id, code)
	return err
}

// UpdateCartFulfillment switches between DELIVERY and PICKUP.
func (q *Queries) UpdateCartFulfillment(ctx context.Context, id pgtype.UUID, mode string) error {
	_, err := q.db.Exec(ctx, `UPDATE carts SET fulfillment = $2, updated_at = now() WHERE id = $1`, id, mode)
	return err
}

const cartItemColumns = `id, cart_id, menu_item_id, name, qty, unit_price, addons, subtotal`

func scanCartItem(row interface{ Scan(dest ...any) error }) (CartItem, error) {
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.MenuItemID, &it.Name, &it.Qty, &it.UnitPrice, &it.Addons, &it.Subtotal)
	return it, err
}

// CreateCartItemParams snapshots a menu item plus selected add-ons.
type CreateCartItemParams struct {
	CartID     pgtype.UUID
	MenuItemID pgtype.UUID
	Name       string
	Qty        int32
	UnitPrice  int64
	Addons     []byte
	Subtotal   int64
}

// CreateCartItem appends a line to a cart.
func (q *Queries) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, menu_item_id, name, qty, unit_price, addons, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+cartItemColumns,
		arg.CartID, arg.MenuItemID, arg.Name, arg.Qty, arg.UnitPrice, arg.Addons, arg.Subtotal)
	return scanCartItem(row)
}

// ListCartItems returns a cart's lines in insertion order.
func (q *Queries) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CartItem
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetCartItemByID loads a single cart line.
func (q *Queries) GetCartItemByID(ctx context.Context, id pgtype.UUID) (CartItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, id)
	return scanCartItem(row)
}

// UpdateCartItemQty sets a new quantity and recomputed subtotal.
func (q *Queries) UpdateCartItemQty(ctx context.Context, id pgtype.UUID, qty int32, subtotal int64) error {
	_, err := q.db.Exec(ctx, `UPDATE cart_items SET qty = $2, subtotal = $3 WHERE id = $1`, id, qty, subtotal)
	return err
}

// DeleteCartItem removes a line from a cart.
func (q *Queries) DeleteCartItem(ctx context.Context, id, cartID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, id, cartID)
	return err
}

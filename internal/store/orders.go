package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, restaurant_id, branch_id, user_id, status, fulfillment, currency,
	subtotal, delivery_fee, processing_fee, platform_fee, discount, total,
	applied_coupon_code, notes, created_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.RestaurantID, &o.BranchID, &o.UserID, &o.Status,
		&o.Fulfillment, &o.Currency, &o.Subtotal, &o.DeliveryFee, &o.ProcessingFee,
		&o.PlatformFee, &o.Discount, &o.Total, &o.AppliedCouponCode, &o.Notes, &o.CreatedAt)
	return o, err
}

// CreateOrderParams freezes a priced cart into an order.
type CreateOrderParams struct {
	RestaurantID      pgtype.UUID
	BranchID          pgtype.UUID
	UserID            pgtype.UUID
	Status            string
	Fulfillment       string
	Currency          string
	Subtotal          int64
	DeliveryFee       int64
	ProcessingFee     int64
	PlatformFee       int64
	Discount          int64
	Total             int64
	AppliedCouponCode pgtype.Text
	Notes             pgtype.Text
}

// CreateOrder inserts an order with its pricing snapshot.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (
			restaurant_id, branch_id, user_id, status, fulfillment, currency,
			subtotal, delivery_fee, processing_fee, platform_fee, discount, total,
			applied_coupon_code, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+orderColumns,
		arg.RestaurantID, arg.BranchID, arg.UserID, arg.Status, arg.Fulfillment,
		arg.Currency, arg.Subtotal, arg.DeliveryFee, arg.ProcessingFee,
		arg.PlatformFee, arg.Discount, arg.Total, arg.AppliedCouponCode, arg.Notes)
	return scanOrder(row)
}

// CreateOrderItemParams freezes one cart line onto an order.
type CreateOrderItemParams struct {
	OrderID    pgtype.UUID
	MenuItemID pgtype.UUID
	Name       string
	Qty        int32
	UnitPrice  int64
	Addons     []byte
	Subtotal   int64
}

// CreateOrderItem inserts an order line.
func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, name, qty, unit_price, addons, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		arg.OrderID, arg.MenuItemID, arg.Name, arg.Qty, arg.UnitPrice, arg.Addons, arg.Subtotal)
	return err
}

// GetOrderByIDForUser loads an order owned by the given user.
func (q *Queries) GetOrderByIDForUser(ctx context.Context, id, userID pgtype.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
	return scanOrder(row)
}

// CountOrdersForUser counts a user's orders.
func (q *Queries) CountOrdersForUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}

// ListOrdersForUser pages through a user's orders, newest first.
func (q *Queries) ListOrdersForUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListOrderItemsByOrder returns the frozen lines of an order.
func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, qty, unit_price, addons, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Qty, &it.UnitPrice, &it.Addons, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetOrderStatus reads only the status column.
func (q *Queries) GetOrderStatus(ctx context.Context, id pgtype.UUID) (string, error) {
	var status string
	err := q.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	return status, err
}

// GetOrderStatusForRestaurant reads the status only when the order
// belongs to the given restaurant. Staff endpoints use this variant so
// an order id from another tenant behaves like a missing row.
func (q *Queries) GetOrderStatusForRestaurant(ctx context.Context, id, restaurantID pgtype.UUID) (string, error) {
	var status string
	err := q.db.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1 AND restaurant_id = $2`, id, restaurantID).Scan(&status)
	return status, err
}

// UpdateOrderStatusIfCurrent transitions the order only when it still holds
// the expected status, making the transition race-safe. It reports whether
// the row was updated.
func (q *Queries) UpdateOrderStatusIfCurrent(ctx context.Context, id pgtype.UUID, expected, next string) (bool, error) {
	tag, err := q.db.Exec(ctx, `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`, id, expected, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateOrderStatusIfCurrentForRestaurant is the tenant-scoped variant of
// UpdateOrderStatusIfCurrent.
func (q *Queries) UpdateOrderStatusIfCurrentForRestaurant(ctx context.Context, id, restaurantID pgtype.UUID, expected, next string) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE orders SET status = $4 WHERE id = $1 AND restaurant_id = $2 AND status = $3`,
		id, restaurantID, expected, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

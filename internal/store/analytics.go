package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// SalesDailyRow is one day of settled order volume for a restaurant.
type SalesDailyRow struct {
	Day     pgtype.Date
	Orders  int64
	Revenue int64
}

// GetSalesDailyRange aggregates delivered orders per day, inclusive of from
// and exclusive of to.
func (q *Queries) GetSalesDailyRange(ctx context.Context, restaurantID pgtype.UUID, from, to pgtype.Timestamptz) ([]SalesDailyRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT date_trunc('day', created_at)::date AS day,
			COUNT(*) AS orders,
			COALESCE(SUM(total), 0) AS revenue
		FROM orders
		WHERE restaurant_id = $1
		  AND status = 'DELIVERED'
		  AND created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day`, restaurantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalesDailyRow
	for rows.Next() {
		var r SalesDailyRow
		if err := rows.Scan(&r.Day, &r.Orders, &r.Revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopMenuItemRow ranks a menu item by quantity sold.
type TopMenuItemRow struct {
	MenuItemID pgtype.UUID
	Name       string
	QtySold    int64
	Revenue    int64
}

// GetTopMenuItems returns the restaurant's best sellers across delivered
// orders, ordered by quantity sold.
func (q *Queries) GetTopMenuItems(ctx context.Context, restaurantID pgtype.UUID, limit, offset int32) ([]TopMenuItemRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT oi.menu_item_id,
			MAX(oi.name) AS name,
			COALESCE(SUM(oi.qty), 0) AS qty_sold,
			COALESCE(SUM(oi.subtotal), 0) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.restaurant_id = $1 AND o.status = 'DELIVERED'
		GROUP BY oi.menu_item_id
		ORDER BY qty_sold DESC
		LIMIT $2 OFFSET $3`, restaurantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopMenuItemRow
	for rows.Next() {
		var r TopMenuItemRow
		if err := rows.Scan(&r.MenuItemID, &r.Name, &r.QtySold, &r.Revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CouponUsageRow summarises redemption volume per coupon code.
type CouponUsageRow struct {
	Code          string
	Redemptions   int64
	TotalDiscount int64
}

// GetCouponUsage aggregates committed redemptions for a restaurant's coupons.
func (q *Queries) GetCouponUsage(ctx context.Context, restaurantID pgtype.UUID) ([]CouponUsageRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT c.code,
			COUNT(r.id) AS redemptions,
			COALESCE(SUM(r.amount), 0) AS total_discount
		FROM coupons c
		LEFT JOIN coupon_redemptions r ON r.coupon_id = c.id
		WHERE c.restaurant_id = $1
		GROUP BY c.code
		ORDER BY redemptions DESC, c.code`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CouponUsageRow
	for rows.Next() {
		var r CouponUsageRow
		if err := rows.Scan(&r.Code, &r.Redemptions, &r.TotalDiscount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

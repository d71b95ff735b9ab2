package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const couponColumns = `id, restaurant_id, code, discount_type, discount_value,
	min_order_amount, max_discount_amount, is_active, starts_at, ends_at,
	usage_limit, used_count, created_at`

func scanCoupon(row interface{ Scan(dest ...any) error }) (Coupon, error) {
	var c Coupon
	err := row.Scan(
		&c.ID, &c.RestaurantID, &c.Code, &c.DiscountType, &c.DiscountValue,
		&c.MinOrderAmount, &c.MaxDiscountAmount, &c.IsActive, &c.StartsAt,
		&c.EndsAt, &c.UsageLimit, &c.UsedCount, &c.CreatedAt,
	)
	return c, err
}

// GetCouponByCode looks up a coupon by exact, case-sensitive code within the
// restaurant scope. A restaurant-scoped coupon wins over a platform-global
// one carrying the same code.
func (q *Queries) GetCouponByCode(ctx context.Context, restaurantID pgtype.UUID, code string) (Coupon, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE code = $1 AND (restaurant_id = $2 OR restaurant_id IS NULL)
		ORDER BY restaurant_id NULLS LAST
		LIMIT 1`, code, restaurantID)
	return scanCoupon(row)
}

// ListCouponsByRestaurant returns the coupons a restaurant can manage,
// including platform-global ones.
func (q *Queries) ListCouponsByRestaurant(ctx context.Context, restaurantID pgtype.UUID) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE restaurant_id = $1 OR restaurant_id IS NULL
		ORDER BY created_at DESC`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCouponParams carries the fields for a new coupon rule.
type CreateCouponParams struct {
	RestaurantID      pgtype.UUID
	Code              string
	DiscountType      DiscountType
	DiscountValue     int64
	MinOrderAmount    pgtype.Int8
	MaxDiscountAmount pgtype.Int8
	IsActive          bool
	StartsAt          pgtype.Timestamptz
	EndsAt            pgtype.Timestamptz
	UsageLimit        pgtype.Int4
}

// CreateCoupon inserts a coupon rule.
func (q *Queries) CreateCoupon(ctx context.Context, arg CreateCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO coupons (
			restaurant_id, code, discount_type, discount_value,
			min_order_amount, max_discount_amount, is_active,
			starts_at, ends_at, usage_limit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+couponColumns,
		arg.RestaurantID, arg.Code, arg.DiscountType, arg.DiscountValue,
		arg.MinOrderAmount, arg.MaxDiscountAmount, arg.IsActive,
		arg.StartsAt, arg.EndsAt, arg.UsageLimit)
	return scanCoupon(row)
}

// UpdateCouponParams mirrors CreateCouponParams for an existing code.
type UpdateCouponParams struct {
	ID                pgtype.UUID
	DiscountType      DiscountType
	DiscountValue     int64
	MinOrderAmount    pgtype.Int8
	MaxDiscountAmount pgtype.Int8
	IsActive          bool
	StartsAt          pgtype.Timestamptz
	EndsAt            pgtype.Timestamptz
	UsageLimit        pgtype.Int4
}

// UpdateCoupon mutates an existing coupon rule.
func (q *Queries) UpdateCoupon(ctx context.Context, arg UpdateCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE coupons SET
			discount_type = $2, discount_value = $3, min_order_amount = $4,
			max_discount_amount = $5, is_active = $6, starts_at = $7,
			ends_at = $8, usage_limit = $9
		WHERE id = $1
		RETURNING `+couponColumns,
		arg.ID, arg.DiscountType, arg.DiscountValue, arg.MinOrderAmount,
		arg.MaxDiscountAmount, arg.IsActive, arg.StartsAt, arg.EndsAt,
		arg.UsageLimit)
	return scanCoupon(row)
}

// RedeemCoupon increments used_count only while the usage limit still has
// headroom. The conditional update is a single atomic statement so two
// concurrent checkouts cannot jointly exceed the limit. It reports whether
// a row was updated.
func (q *Queries) RedeemCoupon(ctx context.Context, id pgtype.UUID) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1
		  AND is_active
		  AND (usage_limit IS NULL OR used_count < usage_limit)`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// InsertCouponRedemptionParams records a redemption against an order.
type InsertCouponRedemptionParams struct {
	CouponID pgtype.UUID
	OrderID  pgtype.UUID
	UserID   pgtype.UUID
	Amount   int64
}

// HasCouponRedemptionForOrder reports whether a redemption was already
// recorded for the order.
func (q *Queries) HasCouponRedemptionForOrder(ctx context.Context, orderID pgtype.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupon_redemptions WHERE order_id = $1)`, orderID).Scan(&exists)
	return exists, err
}

// InsertCouponRedemption records the applied discount for an order. The
// unique constraint on order_id keeps settlement idempotent.
func (q *Queries) InsertCouponRedemption(ctx context.Context, arg InsertCouponRedemptionParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO coupon_redemptions (coupon_id, order_id, user_id, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO NOTHING`,
		arg.CouponID, arg.OrderID, arg.UserID, arg.Amount)
	return err
}

package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/coupon"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
)

// ErrCartNotFound indicates the cart no longer exists or has expired.
var ErrCartNotFound = errors.New("cart not found")

// ErrCartEmpty indicates there is nothing to order.
var ErrCartEmpty = errors.New("cart is empty")

// ErrNotOwner indicates the cart belongs to a different user.
var ErrNotOwner = errors.New("cart does not belong to user")

// ErrNotMutable indicates the cart has expired or was already turned
// into an order.
var ErrNotMutable = errors.New("cart already checked out or expired")

// Input is the checkout request payload.
type Input struct {
	CartID   string  `json:"cartId" validate:"required,uuid"`
	BranchID *string `json:"branchId" validate:"omitempty,uuid"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
}

// Output summarises the order the checkout produced.
type Output struct {
	OrderID string          `json:"orderId"`
	Status  string          `json:"status"`
	Pricing pricing.Summary `json:"pricing"`
}

// Service freezes a cart into an order. Pricing, order creation, order
// lines, and coupon settlement happen inside one transaction so a usage
// limit can never be jointly exceeded and a failed checkout leaves nothing
// behind.
type Service struct {
	Q        *store.Queries
	Pool     *pgxpool.Pool
	Policy   pricing.FeePolicy
	Currency string
	Events   *events.Bus
	Now      func() time.Time

	// Locker serialises concurrent checkouts of the same cart across
	// instances. Optional; the transaction still protects correctness.
	Locker *lock.Locker
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create places an order from the cart.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Output, error) {
	if s == nil || s.Q == nil || s.Pool == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	cartID, err := store.UUIDFromString(in.CartID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid cart id: %w", err)
	}
	uID, err := store.UUIDFromString(userID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid user id: %w", err)
	}
	var branchID pgtype.UUID
	if in.BranchID != nil && *in.BranchID != "" {
		branchID, err = store.UUIDFromString(*in.BranchID)
		if err != nil {
			return Output{}, fmt.Errorf("invalid branch id: %w", err)
		}
	}
	at := s.now()

	if s.Locker != nil {
		var out Output
		err := s.Locker.WithLock(ctx, "checkout:cart:"+in.CartID, 15*time.Second, func(ctx context.Context) error {
			var inner error
			out, inner = s.create(ctx, cartID, uID, branchID, userID, in, at)
			return inner
		})
		s.observe(out, err)
		return out, err
	}
	out, err := s.create(ctx, cartID, uID, branchID, userID, in, at)
	s.observe(out, err)
	return out, err
}

func (s *Service) observe(out Output, err error) {
	switch {
	case err == nil:
		obs.ObserveCheckout("ok")
		obs.ObserveOrderValue(s.Currency, int64(out.Pricing.Total))
	case errors.Is(err, ErrCartNotFound), errors.Is(err, ErrCartEmpty),
		errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotMutable):
		obs.ObserveCheckout("rejected")
	default:
		obs.ObserveCheckout("error")
	}
}

func (s *Service) create(ctx context.Context, cartID, uID, branchID pgtype.UUID, userID string, in Input, at time.Time) (Output, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)
	coupons := &coupon.Service{Q: qtx}

	cartRow, err := qtx.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Output{}, ErrCartNotFound
		}
		return Output{}, err
	}
	if cartRow.UserID.Valid && cartRow.UserID != uID {
		return Output{}, ErrNotOwner
	}
	if !cartMutable(cartRow.ExpiresAt, at) {
		return Output{}, ErrNotMutable
	}
	lines, err := qtx.ListCartItems(ctx, cartID)
	if err != nil {
		return Output{}, err
	}
	if len(lines) == 0 {
		return Output{}, ErrCartEmpty
	}
	items, err := pricingItems(lines)
	if err != nil {
		return Output{}, err
	}

	code := ""
	if cartRow.AppliedCouponCode.Valid {
		code = cartRow.AppliedCouponCode.String
	}
	engine := pricing.Engine{Policy: s.Policy, Coupons: coupons.Scoped(cartRow.RestaurantID)}
	summary, err := engine.Quote(ctx, items, pricing.Fulfillment(cartRow.Fulfillment), code, at)
	if err != nil {
		return Output{}, err
	}

	if !branchID.Valid {
		branchID = cartRow.BranchID
	}
	created, err := qtx.CreateOrder(ctx, store.CreateOrderParams{
		RestaurantID:      cartRow.RestaurantID,
		BranchID:          branchID,
		UserID:            uID,
		Status:            string(order.StatusPending),
		Fulfillment:       cartRow.Fulfillment,
		Currency:          s.Currency,
		Subtotal:          int64(summary.Subtotal),
		DeliveryFee:       int64(summary.DeliveryFee),
		ProcessingFee:     int64(summary.ProcessingFee),
		PlatformFee:       int64(summary.PlatformFee),
		Discount:          int64(summary.Discount),
		Total:             int64(summary.Total),
		AppliedCouponCode: cartRow.AppliedCouponCode,
		Notes:             store.TextOrNull(in.Notes),
	})
	if err != nil {
		return Output{}, err
	}
	for _, line := range lines {
		if err := qtx.CreateOrderItem(ctx, store.CreateOrderItemParams{
			OrderID:    created.ID,
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Qty:        line.Qty,
			UnitPrice:  line.UnitPrice,
			Addons:     line.Addons,
			Subtotal:   line.Subtotal,
		}); err != nil {
			return Output{}, err
		}
	}
	if code != "" && summary.Discount > 0 {
		if err := coupons.Redeem(ctx, cartRow.RestaurantID, code, created.ID, uID, summary.Discount); err != nil {
			return Output{}, err
		}
	}
	// Retire the cart: with expires_at moved to the checkout instant the
	// mutability gate above rejects any resubmission of the same cart.
	if err := qtx.TouchCart(ctx, cartID, store.Timestamptz(at)); err != nil {
		return Output{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	if s.Events != nil {
		payload := map[string]any{
			"orderId":      store.UUIDString(created.ID),
			"restaurantId": store.UUIDString(created.RestaurantID),
			"userId":       userID,
			"total":        summary.Total,
			"fulfillment":  created.Fulfillment,
		}
		_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, created.ID, payload)
		if code != "" && summary.Discount > 0 {
			_, _ = s.Events.Emit(ctx, events.TopicCouponRedeemed, created.ID, map[string]any{
				"orderId": store.UUIDString(created.ID),
				"code":    code,
				"amount":  summary.Discount,
			})
		}
	}
	return Output{
		OrderID: store.UUIDString(created.ID),
		Status:  created.Status,
		Pricing: summary,
	}, nil
}

// cartMutable reports whether the cart can still be checked out. A
// checked-out cart has expires_at moved back to its checkout instant,
// so it fails this test the same way a naturally expired cart does.
func cartMutable(expiresAt pgtype.Timestamptz, at time.Time) bool {
	return !expiresAt.Valid || expiresAt.Time.After(at)
}

func pricingItems(lines []store.CartItem) ([]pricing.Item, error) {
	items := make([]pricing.Item, 0, len(lines))
	for _, line := range lines {
		item := pricing.Item{Qty: int(line.Qty), UnitPrice: pricing.Money(line.UnitPrice)}
		if len(line.Addons) > 0 {
			var snapshots []cart.AddonSnapshot
			if err := json.Unmarshal(line.Addons, &snapshots); err != nil {
				return nil, fmt.Errorf("decode addon snapshot: %w", err)
			}
			for _, a := range snapshots {
				item.Addons = append(item.Addons, pricing.Addon{Name: a.Name, UnitPrice: pricing.Money(a.UnitPrice)})
			}
		}
		items = append(items, item)
	}
	return items, nil
}

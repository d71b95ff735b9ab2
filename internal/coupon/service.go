package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Querier captures the database methods required by the coupon service.
type Querier interface {
	GetCouponByCode(ctx context.Context, restaurantID pgtype.UUID, code string) (store.Coupon, error)
	RedeemCoupon(ctx context.Context, id pgtype.UUID) (bool, error)
	HasCouponRedemptionForOrder(ctx context.Context, orderID pgtype.UUID) (bool, error)
	InsertCouponRedemption(ctx context.Context, arg store.InsertCouponRedemptionParams) error
}

// Service evaluates coupon eligibility and settles redemptions.
type Service struct {
	Q Querier
}

// Resolve validates a coupon code against the restaurant scope, the clock
// passed in by the caller, and the order subtotal. On success it returns a
// read-only rule snapshot; usage counters are untouched so abandoned carts
// never consume quota.
func (s *Service) Resolve(ctx context.Context, restaurantID pgtype.UUID, code string, subtotal pricing.Money, at time.Time) (Rule, error) {
	if s == nil || s.Q == nil {
		return Rule{}, errors.New("coupon service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Rule{}, ErrNotFound
	}
	model, err := s.Q.GetCouponByCode(ctx, restaurantID, trimmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			obs.ObserveCouponResolution("not_found")
			return Rule{}, ErrNotFound
		}
		return Rule{}, err
	}
	rule := RuleFromModel(model)
	if err := rule.Validate(at, subtotal); err != nil {
		obs.ObserveCouponResolution(resolutionResult(err))
		return Rule{}, err
	}
	obs.ObserveCouponResolution("applied")
	return rule, nil
}

func resolutionResult(err error) string {
	var short *MinimumSpendError
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrExhausted):
		return "exhausted"
	case errors.As(err, &short):
		return "min_order_not_met"
	default:
		return "error"
	}
}

// Redeem settles a coupon at order finalization. The increment is a single
// conditional UPDATE so concurrent checkouts cannot jointly exceed the usage
// limit; a redemption already recorded for the order is a no-op.
func (s *Service) Redeem(ctx context.Context, restaurantID pgtype.UUID, code string, orderID, userID pgtype.UUID, amount pricing.Money) error {
	if s == nil || s.Q == nil {
		return errors.New("coupon service not configured")
	}
	if strings.TrimSpace(code) == "" || !orderID.Valid || amount < 0 {
		return nil
	}
	model, err := s.Q.GetCouponByCode(ctx, restaurantID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	settled, err := s.Q.HasCouponRedemptionForOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if settled {
		return nil
	}
	ok, err := s.Q.RedeemCoupon(ctx, model.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrExhausted
	}
	if err := s.Q.InsertCouponRedemption(ctx, store.InsertCouponRedemptionParams{
		CouponID: model.ID,
		OrderID:  orderID,
		UserID:   userID,
		Amount:   int64(amount),
	}); err != nil {
		return err
	}
	obs.ObserveCouponRedemption(string(model.DiscountType))
	return nil
}

// Scoped binds the service to one restaurant so it satisfies
// pricing.DiscountSource.
func (s *Service) Scoped(restaurantID pgtype.UUID) Resolver {
	return Resolver{svc: s, restaurantID: restaurantID}
}

// Resolver adapts the service to the pricing engine's discount interface.
type Resolver struct {
	svc          *Service
	restaurantID pgtype.UUID
}

// Discount resolves the code and converts it into a monetary discount.
func (r Resolver) Discount(ctx context.Context, code string, subtotal pricing.Money, at time.Time) (pricing.Money, error) {
	rule, err := r.svc.Resolve(ctx, r.restaurantID, code, subtotal, at)
	if err != nil {
		return 0, err
	}
	return rule.Discount(subtotal), nil
}

// RuleFromModel converts the stored coupon into a Rule used for evaluation.
func RuleFromModel(c store.Coupon) Rule {
	rule := Rule{
		Code:      c.Code,
		Type:      Type(c.DiscountType),
		Value:     c.DiscountValue,
		Active:    c.IsActive,
		UsedCount: c.UsedCount,
	}
	if c.MinOrderAmount.Valid {
		min := pricing.Money(c.MinOrderAmount.Int64)
		rule.MinOrder = &min
	}
	if c.MaxDiscountAmount.Valid && rule.Type == TypePercentage {
		max := pricing.Money(c.MaxDiscountAmount.Int64)
		rule.MaxDiscount = &max
	}
	if c.StartsAt.Valid {
		rule.StartsAt = &c.StartsAt.Time
	}
	if c.EndsAt.Valid {
		rule.EndsAt = &c.EndsAt.Time
	}
	if c.UsageLimit.Valid {
		limit := c.UsageLimit.Int32
		rule.UsageLimit = &limit
	}
	return rule
}

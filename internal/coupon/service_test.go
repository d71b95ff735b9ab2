package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/store"
)

type stubQueries struct {
	coupon        store.Coupon
	missing       bool
	settled       bool
	redeemOK      bool
	redeemCalls   int
	redemptions   int
	lastRedeemArg store.InsertCouponRedemptionParams
}

func (s *stubQueries) GetCouponByCode(ctx context.Context, restaurantID pgtype.UUID, code string) (store.Coupon, error) {
	if s.missing || s.coupon.Code != code {
		return store.Coupon{}, pgx.ErrNoRows
	}
	return s.coupon, nil
}

func (s *stubQueries) RedeemCoupon(ctx context.Context, id pgtype.UUID) (bool, error) {
	s.redeemCalls++
	return s.redeemOK, nil
}

func (s *stubQueries) HasCouponRedemptionForOrder(ctx context.Context, orderID pgtype.UUID) (bool, error) {
	return s.settled, nil
}

func (s *stubQueries) InsertCouponRedemption(ctx context.Context, arg store.InsertCouponRedemptionParams) error {
	s.redemptions++
	s.lastRedeemArg = arg
	return nil
}

func newCoupon(discountType store.DiscountType, value int64) store.Coupon {
	return store.Coupon{
		ID:            pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Code:          "WELCOME10",
		DiscountType:  discountType,
		DiscountValue: value,
		IsActive:      true,
		StartsAt:      pgtype.Timestamptz{Time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		EndsAt:        pgtype.Timestamptz{Time: time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC), Valid: true},
	}
}

func midYear() time.Time {
	return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestResolveNotFound(t *testing.T) {
	svc := &Service{Q: &stubQueries{missing: true}}
	_, err := svc.Resolve(context.Background(), pgtype.UUID{}, "NOPE", 1000, midYear())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveCaseSensitive(t *testing.T) {
	svc := &Service{Q: &stubQueries{coupon: newCoupon(store.DiscountTypeFixed, 500)}}
	if _, err := svc.Resolve(context.Background(), pgtype.UUID{}, "welcome10", 1000, midYear()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected case-sensitive lookup to miss, got %v", err)
	}
	if _, err := svc.Resolve(context.Background(), pgtype.UUID{}, "WELCOME10", 1000, midYear()); err != nil {
		t.Fatalf("unexpected error for exact code: %v", err)
	}
}

func TestResolveReturnsSnapshotWithoutMutation(t *testing.T) {
	q := &stubQueries{coupon: newCoupon(store.DiscountTypeFixed, 500)}
	svc := &Service{Q: q}
	rule, err := svc.Resolve(context.Background(), pgtype.UUID{}, "WELCOME10", 1000, midYear())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Code != "WELCOME10" {
		t.Fatalf("unexpected rule: %+v", rule)
	}
	if q.redeemCalls != 0 {
		t.Fatal("resolve must not touch usage counters")
	}
}

func TestResolveExhausted(t *testing.T) {
	c := newCoupon(store.DiscountTypeFixed, 500)
	c.UsageLimit = pgtype.Int4{Int32: 5, Valid: true}
	c.UsedCount = 5
	svc := &Service{Q: &stubQueries{coupon: c}}
	_, err := svc.Resolve(context.Background(), pgtype.UUID{}, "WELCOME10", 1000, midYear())
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestScopedDiscount(t *testing.T) {
	c := newCoupon(store.DiscountTypePercentage, 10)
	c.MaxDiscountAmount = pgtype.Int8{Int64: 500, Valid: true}
	svc := &Service{Q: &stubQueries{coupon: c}}
	discount, err := svc.Scoped(pgtype.UUID{}).Discount(context.Background(), "WELCOME10", 5000, midYear())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount != 500 {
		t.Fatalf("expected discount 500, got %d", discount)
	}
}

func TestRedeemExhausted(t *testing.T) {
	q := &stubQueries{coupon: newCoupon(store.DiscountTypeFixed, 500), redeemOK: false}
	svc := &Service{Q: q}
	orderID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	err := svc.Redeem(context.Background(), pgtype.UUID{}, "WELCOME10", orderID, pgtype.UUID{}, 500)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if q.redemptions != 0 {
		t.Fatal("no redemption row may be written when the increment is refused")
	}
}

func TestRedeemIdempotent(t *testing.T) {
	q := &stubQueries{coupon: newCoupon(store.DiscountTypeFixed, 500), redeemOK: true, settled: true}
	svc := &Service{Q: q}
	orderID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	if err := svc.Redeem(context.Background(), pgtype.UUID{}, "WELCOME10", orderID, pgtype.UUID{}, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.redeemCalls != 0 || q.redemptions != 0 {
		t.Fatal("already-settled order must not consume quota again")
	}
}

func TestRedeemRecordsAmount(t *testing.T) {
	q := &stubQueries{coupon: newCoupon(store.DiscountTypeFixed, 500), redeemOK: true}
	svc := &Service{Q: q}
	orderID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	if err := svc.Redeem(context.Background(), pgtype.UUID{}, "WELCOME10", orderID, pgtype.UUID{}, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.redemptions != 1 || q.lastRedeemArg.Amount != 500 {
		t.Fatalf("expected one redemption of 500, got %d (%+v)", q.redemptions, q.lastRedeemArg)
	}
}

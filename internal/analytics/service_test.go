package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-resto/internal/store"
)

type stubQuerier struct {
	salesCalls int
	topCalls   int
}

func (s *stubQuerier) GetSalesDailyRange(_ context.Context, _ pgtype.UUID, _, _ pgtype.Timestamptz) ([]store.SalesDailyRow, error) {
	s.salesCalls++
	day := pgtype.Date{Time: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Valid: true}
	return []store.SalesDailyRow{{Day: day, Orders: 4, Revenue: 12500}}, nil
}

func (s *stubQuerier) GetTopMenuItems(_ context.Context, _ pgtype.UUID, _, _ int32) ([]store.TopMenuItemRow, error) {
	s.topCalls++
	return []store.TopMenuItemRow{{Name: "Nasi Goreng", QtySold: 9, Revenue: 10800}}, nil
}

func (s *stubQuerier) GetCouponUsage(context.Context, pgtype.UUID) ([]store.CouponUsageRow, error) {
	return []store.CouponUsageRow{{Code: "HEMAT10", Redemptions: 3, TotalDiscount: 750}}, nil
}

func testService(t *testing.T) (*Service, *stubQuerier) {
	t.Helper()
	mr := miniredis.RunT(t)
	q := &stubQuerier{}
	return &Service{
		Q:   q,
		R:   redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		TTL: time.Minute,
	}, q
}

func restaurantID() pgtype.UUID {
	var id pgtype.UUID
	id.Valid = true
	id.Bytes[0] = 0xAB
	return id
}

func TestSalesRangeCachesResult(t *testing.T) {
	svc, q := testService(t)
	ctx := context.Background()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	first, err := svc.SalesRange(ctx, restaurantID(), from, to)
	if err != nil {
		t.Fatalf("sales range: %v", err)
	}
	if len(first) != 1 || first[0].Revenue != 12500 {
		t.Fatalf("unexpected rows: %+v", first)
	}

	second, err := svc.SalesRange(ctx, restaurantID(), from, to)
	if err != nil {
		t.Fatalf("sales range cached: %v", err)
	}
	if len(second) != 1 || second[0].Day != "2026-08-01" {
		t.Fatalf("unexpected cached rows: %+v", second)
	}
	if q.salesCalls != 1 {
		t.Fatalf("expected one database read, got %d", q.salesCalls)
	}
}

func TestTopItemsDefaultsLimit(t *testing.T) {
	svc, q := testService(t)

	rows, err := svc.TopItems(context.Background(), restaurantID(), 0, -5)
	if err != nil {
		t.Fatalf("top items: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Nasi Goreng" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if q.topCalls != 1 {
		t.Fatalf("expected one database read, got %d", q.topCalls)
	}
}

func TestCouponUsagePassesThrough(t *testing.T) {
	svc, _ := testService(t)

	rows, err := svc.CouponUsage(context.Background(), restaurantID())
	if err != nil {
		t.Fatalf("coupon usage: %v", err)
	}
	if len(rows) != 1 || rows[0].Code != "HEMAT10" || rows[0].TotalDiscount != 750 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

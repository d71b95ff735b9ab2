package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-resto/internal/store"
)

// Querier defines the database access required for analytics operations.
type Querier interface {
	GetSalesDailyRange(ctx context.Context, restaurantID pgtype.UUID, from, to pgtype.Timestamptz) ([]store.SalesDailyRow, error)
	GetTopMenuItems(ctx context.Context, restaurantID pgtype.UUID, limit, offset int32) ([]store.TopMenuItemRow, error)
	GetCouponUsage(ctx context.Context, restaurantID pgtype.UUID) ([]store.CouponUsageRow, error)
}

// Service provides cached access to per-restaurant sales aggregates.
type Service struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts)+1)
	formatted = append(formatted, "an")
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesDaily is one day of delivered order volume.
type SalesDaily struct {
	Day     string `json:"day"`
	Orders  int64  `json:"orders"`
	Revenue int64  `json:"revenue"`
}

// TopItem ranks a menu item by quantity sold.
type TopItem struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	QtySold    int64  `json:"qtySold"`
	Revenue    int64  `json:"revenue"`
}

// CouponUsage summarises redemption volume for one coupon code.
type CouponUsage struct {
	Code          string `json:"code"`
	Redemptions   int64  `json:"redemptions"`
	TotalDiscount int64  `json:"totalDiscount"`
}

// SalesRange returns daily sales between the bounds, inclusive of from and
// exclusive of to. Defaults to the trailing 30 days when the bounds are zero.
func (s *Service) SalesRange(ctx context.Context, restaurantID pgtype.UUID, from, to time.Time) ([]SalesDaily, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	key := cacheKey("sales", store.UUIDString(restaurantID), from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []SalesDaily
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.GetSalesDailyRange(ctx, restaurantID, store.Timestamptz(from), store.Timestamptz(to))
	if err != nil {
		return nil, err
	}
	out := make([]SalesDaily, 0, len(rows))
	for _, row := range rows {
		out = append(out, SalesDaily{
			Day:     row.Day.Time.Format("2006-01-02"),
			Orders:  row.Orders,
			Revenue: row.Revenue,
		})
	}
	s.toCache(ctx, key, out)
	return out, nil
}

// TopItems returns the restaurant's best sellers ordered by quantity sold.
func (s *Service) TopItems(ctx context.Context, restaurantID pgtype.UUID, limit, offset int32) ([]TopItem, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	key := cacheKey("top", store.UUIDString(restaurantID), limit, offset)
	var cached []TopItem
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.GetTopMenuItems(ctx, restaurantID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]TopItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, TopItem{
			MenuItemID: store.UUIDString(row.MenuItemID),
			Name:       row.Name,
			QtySold:    row.QtySold,
			Revenue:    row.Revenue,
		})
	}
	s.toCache(ctx, key, out)
	return out, nil
}

// CouponUsage aggregates committed redemptions per coupon code.
func (s *Service) CouponUsage(ctx context.Context, restaurantID pgtype.UUID) ([]CouponUsage, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("coupons", store.UUIDString(restaurantID))
	var cached []CouponUsage
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.GetCouponUsage(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	out := make([]CouponUsage, 0, len(rows))
	for _, row := range rows {
		out = append(out, CouponUsage{
			Code:          row.Code,
			Redemptions:   row.Redemptions,
			TotalDiscount: row.TotalDiscount,
		})
	}
	s.toCache(ctx, key, out)
	return out, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) toCache(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

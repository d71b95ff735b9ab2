package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// AdminQuerier captures the database methods the coupon handlers need beyond
// the evaluation service.
type AdminQuerier interface {
	GetRestaurantBySlug(ctx context.Context, slug string) (store.Restaurant, error)
	ListCouponsByRestaurant(ctx context.Context, restaurantID pgtype.UUID) ([]store.Coupon, error)
	CreateCoupon(ctx context.Context, arg store.CreateCouponParams) (store.Coupon, error)
	UpdateCoupon(ctx context.Context, arg store.UpdateCouponParams) (store.Coupon, error)
}

// Handler exposes coupon management and preview endpoints.
type Handler struct {
	Q        AdminQuerier
	Svc      *Service
	Validate *validator.Validate
	Now      func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

type couponPayload struct {
	Code              string     `json:"code" validate:"required,min=2,max=40"`
	DiscountType      string     `json:"discountType" validate:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue     int64      `json:"discountValue" validate:"required,gt=0"`
	MinOrderAmount    *int64     `json:"minOrderAmount" validate:"omitempty,gte=0"`
	MaxDiscountAmount *int64     `json:"maxDiscountAmount" validate:"omitempty,gt=0"`
	IsActive          *bool      `json:"isActive"`
	StartsAt          *time.Time `json:"startsAt"`
	EndsAt            *time.Time `json:"endsAt"`
	UsageLimit        *int32     `json:"usageLimit" validate:"omitempty,gt=0"`
}

func (p couponPayload) check() error {
	if p.DiscountType == string(TypePercentage) && (p.DiscountValue < 1 || p.DiscountValue > 100) {
		return errors.New("percentage value must be between 1 and 100")
	}
	if p.StartsAt != nil && p.EndsAt != nil && p.EndsAt.Before(*p.StartsAt) {
		return errors.New("endsAt must not precede startsAt")
	}
	return nil
}

type couponView struct {
	ID                string     `json:"id"`
	RestaurantID      string     `json:"restaurantId,omitempty"`
	Code              string     `json:"code"`
	DiscountType      string     `json:"discountType"`
	DiscountValue     int64      `json:"discountValue"`
	MinOrderAmount    *int64     `json:"minOrderAmount,omitempty"`
	MaxDiscountAmount *int64     `json:"maxDiscountAmount,omitempty"`
	IsActive          bool       `json:"isActive"`
	StartsAt          *time.Time `json:"startsAt,omitempty"`
	EndsAt            *time.Time `json:"endsAt,omitempty"`
	UsageLimit        *int32     `json:"usageLimit,omitempty"`
	UsedCount         int32      `json:"usedCount"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func viewFromModel(c store.Coupon) couponView {
	v := couponView{
		ID:            store.UUIDString(c.ID),
		RestaurantID:  store.UUIDString(c.RestaurantID),
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue,
		IsActive:      c.IsActive,
		UsedCount:     c.UsedCount,
		CreatedAt:     c.CreatedAt.Time,
	}
	if c.MinOrderAmount.Valid {
		v.MinOrderAmount = &c.MinOrderAmount.Int64
	}
	if c.MaxDiscountAmount.Valid {
		v.MaxDiscountAmount = &c.MaxDiscountAmount.Int64
	}
	if c.StartsAt.Valid {
		v.StartsAt = &c.StartsAt.Time
	}
	if c.EndsAt.Valid {
		v.EndsAt = &c.EndsAt.Time
	}
	if c.UsageLimit.Valid {
		v.UsageLimit = &c.UsageLimit.Int32
	}
	return v
}

// List returns the coupons a restaurant can manage, including platform-wide
// ones.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManagedRestaurant(w, r)
	if !ok {
		return
	}
	coupons, err := h.Q.ListCouponsByRestaurant(r.Context(), restaurantID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list coupons", nil)
		return
	}
	views := make([]couponView, 0, len(coupons))
	for _, c := range coupons {
		views = append(views, viewFromModel(c))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// Create inserts a new coupon rule scoped to the restaurant.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManagedRestaurant(w, r)
	if !ok {
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	created, err := h.Q.CreateCoupon(r.Context(), store.CreateCouponParams{
		RestaurantID:      restaurantID,
		Code:              strings.TrimSpace(payload.Code),
		DiscountType:      store.DiscountType(payload.DiscountType),
		DiscountValue:     payload.DiscountValue,
		MinOrderAmount:    store.Int8OrNull(payload.MinOrderAmount),
		MaxDiscountAmount: store.Int8OrNull(payload.MaxDiscountAmount),
		IsActive:          active,
		StartsAt:          store.TimestamptzOrNull(payload.StartsAt),
		EndsAt:            store.TimestamptzOrNull(payload.EndsAt),
		UsageLimit:        store.Int4OrNull(payload.UsageLimit),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create coupon", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": viewFromModel(created)})
}

// Update mutates an existing coupon rule identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireManagedRestaurant(w, r); !ok {
		return
	}
	couponID, err := store.UUIDFromString(chi.URLParam(r, "couponID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon id", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	updated, err := h.Q.UpdateCoupon(r.Context(), store.UpdateCouponParams{
		ID:                couponID,
		DiscountType:      store.DiscountType(payload.DiscountType),
		DiscountValue:     payload.DiscountValue,
		MinOrderAmount:    store.Int8OrNull(payload.MinOrderAmount),
		MaxDiscountAmount: store.Int8OrNull(payload.MaxDiscountAmount),
		IsActive:          active,
		StartsAt:          store.TimestamptzOrNull(payload.StartsAt),
		EndsAt:            store.TimestamptzOrNull(payload.EndsAt),
		UsageLimit:        store.Int4OrNull(payload.UsageLimit),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update coupon", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewFromModel(updated)})
}

type previewRequest struct {
	Code     string `json:"code" validate:"required"`
	Subtotal int64  `json:"subtotal" validate:"gte=0"`
}

// Preview evaluates a coupon against a hypothetical subtotal without touching
// usage counters. Customers use it to check a code before checkout.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.resolveRestaurant(w, r)
	if !ok {
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	subtotal, err := pricing.NewAmount(req.Subtotal)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "subtotal must not be negative", nil)
		return
	}
	rule, err := h.Svc.Resolve(r.Context(), restaurantID, req.Code, subtotal, h.now())
	if err != nil {
		WriteRejection(w, err)
		return
	}
	discount := rule.Discount(subtotal)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"code":     rule.Code,
		"discount": discount,
		"subtotal": subtotal,
		"payable":  subtotal - discount,
	}})
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	if err := h.Validate.Struct(v); err != nil {
		return err
	}
	if p, ok := v.(couponPayload); ok {
		return p.check()
	}
	return nil
}

// resolveRestaurant maps the tenant slug on the request to a restaurant row.
func (h *Handler) resolveRestaurant(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	slug, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "RESTAURANT_REQUIRED", "restaurant scope missing", nil)
		return pgtype.UUID{}, false
	}
	restaurant, err := h.Q.GetRestaurantBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "restaurant not found", nil)
			return pgtype.UUID{}, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve restaurant", nil)
		return pgtype.UUID{}, false
	}
	return restaurant.ID, true
}

// requireManagedRestaurant resolves the {restaurantID} path parameter and
// enforces that the caller administers it.
func (h *Handler) requireManagedRestaurant(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	raw := chi.URLParam(r, "restaurantID")
	restaurantID, err := store.UUIDFromString(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid restaurant id", nil)
		return pgtype.UUID{}, false
	}
	auth, ok := common.AuthFromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	if !auth.CanEdit(store.UUIDString(restaurantID)) {
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "restaurant not managed by caller", nil)
		return pgtype.UUID{}, false
	}
	return restaurantID, true
}

// WriteRejection renders a coupon eligibility failure with a stable code per
// rejection reason. Checkout and cart handlers share it so every surface
// reports coupons the same way.
func WriteRejection(w http.ResponseWriter, err error) {
	var short *MinimumSpendError
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "COUPON_NOT_FOUND", "coupon not found", nil)
	case errors.Is(err, ErrInactive):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_INACTIVE", "coupon is not active", nil)
	case errors.Is(err, ErrNotYetValid):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_NOT_YET_VALID", "coupon is not valid yet", nil)
	case errors.Is(err, ErrExpired):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_EXPIRED", "coupon has expired", nil)
	case errors.Is(err, ErrExhausted):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_EXHAUSTED", "coupon usage limit reached", nil)
	case errors.As(err, &short):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_MIN_ORDER_NOT_MET", "order subtotal below coupon minimum",
			map[string]any{"shortfall": short.Shortfall})
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to evaluate coupon", nil)
	}
}

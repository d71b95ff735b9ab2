package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Handler exposes restaurant sales analytics to managing staff.
type Handler struct {
	Svc *Service
}

// Sales returns daily delivered-order volume. Accepts from/to query params
// in YYYY-MM-DD form.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := requireManagedRestaurant(w, r)
	if !ok {
		return
	}
	from := queryDate(r, "from")
	to := queryDate(r, "to")
	rows, err := h.Svc.SalesRange(r.Context(), restaurantID, from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load sales", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"sales": rows})
}

// TopItems returns the restaurant's best sellers.
func (h *Handler) TopItems(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := requireManagedRestaurant(w, r)
	if !ok {
		return
	}
	limit := queryInt32(r, "limit", 10)
	offset := queryInt32(r, "offset", 0)
	rows, err := h.Svc.TopItems(r.Context(), restaurantID, limit, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load top items", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

// CouponUsage returns redemption volume per coupon code.
func (h *Handler) CouponUsage(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := requireManagedRestaurant(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.CouponUsage(r.Context(), restaurantID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load coupon usage", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"coupons": rows})
}

func requireManagedRestaurant(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	restaurantID, err := store.UUIDFromString(chi.URLParam(r, "restaurantID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "restaurantID must be a UUID", nil)
		return pgtype.UUID{}, false
	}
	auth, ok := common.AuthFromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	if !auth.CanEdit(store.UUIDString(restaurantID)) {
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to view this restaurant", nil)
		return pgtype.UUID{}, false
	}
	return restaurantID, true
}

func queryDate(r *http.Request, key string) time.Time {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func queryInt32(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(n)
}

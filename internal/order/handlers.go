package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Handler exposes the customer-facing order endpoints.
type Handler struct {
	Q      *store.Queries
	Events *events.Bus
}

func orderSummary(o store.Order) map[string]any {
	return map[string]any{
		"id":          store.UUIDString(o.ID),
		"status":      o.Status,
		"fulfillment": o.Fulfillment,
		"currency":    o.Currency,
		"subtotal":    o.Subtotal,
		"fees": map[string]int64{
			"delivery":   o.DeliveryFee,
			"processing": o.ProcessingFee,
			"platform":   o.PlatformFee,
		},
		"discount":  o.Discount,
		"total":     o.Total,
		"createdAt": o.CreatedAt.Time,
	}
}

// List handles GET /api/v1/orders for the authenticated customer.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	total, err := h.Q.CountOrdersForUser(r.Context(), uID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Q.ListOrdersForUser(r.Context(), uID, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	response := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		response = append(response, orderSummary(o))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": response,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get handles GET /api/v1/orders/{orderID} with the frozen line items.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	oID, ok := h.orderID(w, r)
	if !ok {
		return
	}
	o, err := h.Q.GetOrderByIDForUser(r.Context(), oID, uID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	lines, err := h.Q.ListOrderItemsByOrder(r.Context(), oID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	items := make([]map[string]any, 0, len(lines))
	for _, it := range lines {
		items = append(items, map[string]any{
			"id":         store.UUIDString(it.ID),
			"menuItemId": store.UUIDString(it.MenuItemID),
			"name":       it.Name,
			"qty":        it.Qty,
			"unitPrice":  it.UnitPrice,
			"subtotal":   it.Subtotal,
		})
	}
	detail := orderSummary(o)
	detail["items"] = items
	if o.Notes.Valid {
		detail["notes"] = o.Notes.String
	}
	if o.AppliedCouponCode.Valid {
		detail["couponCode"] = o.AppliedCouponCode.String
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// Track handles GET /api/v1/orders/{orderID}/track.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	uID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	oID, ok := h.orderID(w, r)
	if !ok {
		return
	}
	o, err := h.Q.GetOrderByIDForUser(r.Context(), oID, uID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"orderId":  store.UUIDString(o.ID),
		"status":   o.Status,
		"terminal": Terminal(Status(o.Status)),
	}})
}

// Cancel handles POST /api/v1/orders/{orderID}/cancel. Customers may only
// cancel while the kitchen has not accepted.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	uID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	oID, ok := h.orderID(w, r)
	if !ok {
		return
	}
	o, err := h.Q.GetOrderByIDForUser(r.Context(), oID, uID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if !CancellableByCustomer(Status(o.Status)) {
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "order can no longer be cancelled", nil)
		return
	}
	updated, err := h.Q.UpdateOrderStatusIfCurrent(r.Context(), oID, o.Status, string(StatusCancelled))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel order", nil)
		return
	}
	if !updated {
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "order state changed, retry", nil)
		return
	}
	obs.ObserveOrderStatus(string(StatusCancelled))
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicOrderCancelled, oID, map[string]any{
			"orderId": store.UUIDString(oID),
			"by":      "customer",
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": StatusCancelled}})
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	uID, err := store.UUIDFromString(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return pgtype.UUID{}, false
	}
	return uID, true
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	oID, err := store.UUIDFromString(chi.URLParam(r, "orderID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return pgtype.UUID{}, false
	}
	return oID, true
}

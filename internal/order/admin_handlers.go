package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/store"
)

// AdminHandler provides restaurant-staff order management endpoints.
type AdminHandler struct {
	Q      *store.Queries
	Events *events.Bus
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

var topicByStatus = map[Status]string{
	StatusAccepted:       events.TopicOrderAccepted,
	StatusReadyForPickup: events.TopicOrderReadyForPickup,
	StatusOutForDelivery: events.TopicOrderOutForDelivery,
	StatusDelivered:      events.TopicOrderDelivered,
	StatusCancelled:      events.TopicOrderCancelled,
}

// requireManagedRestaurant resolves the {restaurantID} path parameter and
// enforces that the caller administers it.
func requireManagedRestaurant(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	restaurantID, err := store.UUIDFromString(chi.URLParam(r, "restaurantID"))
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

// PatchStatus updates the order status with state-machine validation. The
// conditional update keeps concurrent staff actions from skipping states.
// Orders are loaded and updated scoped to the managed restaurant, so an
// order id belonging to another tenant reads as not found.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	restaurantID, ok := requireManagedRestaurant(w, r)
	if !ok {
		return
	}
	oID, err := store.UUIDFromString(chi.URLParam(r, "orderID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	target := Status(req.Status)
	if !Known(target) || target == StatusPending {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported status", nil)
		return
	}
	current, err := h.Q.GetOrderStatusForRestaurant(r.Context(), oID, restaurantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if !CanTransition(Status(current), target) {
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "state transition not allowed", nil)
		return
	}
	updated, err := h.Q.UpdateOrderStatusIfCurrentForRestaurant(r.Context(), oID, restaurantID, current, string(target))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order status", nil)
		return
	}
	if !updated {
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "order state changed, retry", nil)
		return
	}
	obs.ObserveOrderStatus(string(target))
	if h.Events != nil {
		if topic, ok := topicByStatus[target]; ok {
			_, _ = h.Events.Emit(r.Context(), topic, oID, map[string]any{
				"orderId": store.UUIDString(oID),
				"from":    current,
				"to":      target,
			})
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": target}})
}

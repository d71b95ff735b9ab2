package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Handler exposes public catalog endpoints plus admin menu management.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// Restaurants handles GET /api/v1/restaurants.
func (h *Handler) Restaurants(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Restaurants(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Restaurant handles GET /api/v1/restaurants/{slug}.
func (h *Handler) Restaurant(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Restaurant(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Branches handles GET /api/v1/restaurants/{slug}/branches.
func (h *Handler) Branches(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Branches(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Menu handles GET /api/v1/menu within the restaurant scope.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	sections, err := h.Service.Menu(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sections})
}

// MenuItem handles GET /api/v1/menu/{itemID}.
func (h *Handler) MenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := store.UUIDFromString(chi.URLParam(r, "itemID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid menu item id", nil)
		return
	}
	view, err := h.Service.MenuItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// CreateItem handles POST /api/v1/admin/restaurants/{restaurantID}/menu.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.requireManagedRestaurant(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	view, err := h.Service.CreateItem(r.Context(), restaurantID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// UpdateItem handles PUT /api/v1/admin/restaurants/{restaurantID}/menu/{itemID}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireManagedRestaurant(w, r); !ok {
		return
	}
	id, err := store.UUIDFromString(chi.URLParam(r, "itemID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid menu item id", nil)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	view, err := h.Service.UpdateItem(r.Context(), id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// DeleteItem handles DELETE /api/v1/admin/restaurants/{restaurantID}/menu/{itemID}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireManagedRestaurant(w, r); !ok {
		return
	}
	id, err := store.UUIDFromString(chi.URLParam(r, "itemID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid menu item id", nil)
		return
	}
	if err := h.Service.DeleteItem(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (MenuItemInput, bool) {
	var in MenuItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return MenuItemInput{}, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
			return MenuItemInput{}, false
		}
	}
	return in, true
}

func (h *Handler) requireManagedRestaurant(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
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

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

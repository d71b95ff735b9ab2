package favorites

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Handler exposes favorite bookmarks over HTTP. All routes require auth.
type Handler struct {
	Svc *Service
}

type itemView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category"`
	Price       int64   `json:"price"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Available   bool    `json:"available"`
}

// List returns the caller's favorites.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	items, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list favorites", nil)
		return
	}
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, viewFromItem(item))
	}
	common.JSON(w, http.StatusOK, map[string]any{"items": views})
}

// Toggle marks or unmarks a menu item.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		MenuItemID string `json:"menuItemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	menuItemID, err := store.UUIDFromString(req.MenuItemID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "menuItemId must be a UUID", nil)
		return
	}
	marked, err := h.Svc.Toggle(r.Context(), userID, menuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "menu item not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update favorite", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"favorited": marked})
}

func requireUser(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	id, err := store.UUIDFromString(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	return id, true
}

func viewFromItem(item store.MenuItem) itemView {
	var desc, img *string
	if item.Description.Valid {
		d := item.Description.String
		desc = &d
	}
	if item.ImageURL.Valid {
		u := item.ImageURL.String
		img = &u
	}
	var category string
	if item.Category.Valid {
		category = item.Category.String
	}
	return itemView{
		ID:          store.UUIDString(item.ID),
		Name:        item.Name,
		Description: desc,
		Category:    category,
		Price:       item.Price,
		ImageURL:    img,
		Available:   item.Available,
	}
}

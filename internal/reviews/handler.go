package reviews

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Handler exposes menu item reviews over HTTP.
type Handler struct {
	Svc *Service
}

type reviewView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Rating    int16     `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// List returns reviews for a menu item, public.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	menuItemID, ok := itemID(w, r)
	if !ok {
		return
	}
	page := queryInt32(r, "page", 1)
	limit := queryInt32(r, "limit", 20)
	rows, summary, err := h.Svc.List(r.Context(), menuItemID, page, limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list reviews", nil)
		return
	}
	views := make([]reviewView, 0, len(rows))
	for _, row := range rows {
		views = append(views, viewFromReview(row))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"reviews": views,
		"summary": map[string]any{
			"count":   summary.Count,
			"average": summary.Average,
		},
	})
}

// Submit writes the caller's review, replacing any earlier one.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	menuItemID, ok := itemID(w, r)
	if !ok {
		return
	}
	var req struct {
		Rating  int16  `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	review, err := h.Svc.Submit(r.Context(), userID, menuItemID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating):
			common.JSONError(w, http.StatusBadRequest, "INVALID_RATING", err.Error(), nil)
		case errors.Is(err, pgx.ErrNoRows):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "menu item not found", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save review", nil)
		}
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"review": viewFromReview(review)})
}

// Delete removes the caller's review.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	menuItemID, ok := itemID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), userID, menuItemID); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete review", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func itemID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	id, err := store.UUIDFromString(chi.URLParam(r, "menuItemID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "menuItemID must be a UUID", nil)
		return pgtype.UUID{}, false
	}
	return id, true
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

func viewFromReview(row store.Review) reviewView {
	var comment *string
	if row.Comment.Valid {
		c := row.Comment.String
		comment = &c
	}
	return reviewView{
		ID:        store.UUIDString(row.ID),
		UserID:    store.UUIDString(row.UserID),
		Rating:    row.Rating,
		Comment:   comment,
		CreatedAt: row.CreatedAt.Time,
	}
}

package address

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Handler exposes saved delivery addresses over HTTP. All routes
// require auth and only ever touch the caller's own rows.
type Handler struct {
	Svc *Service
}

type addressView struct {
	ID         string    `json:"id"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	State      *string   `json:"state,omitempty"`
	PostalCode string    `json:"postalCode"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
}

// List returns the caller's addresses, default first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list addresses", nil)
		return
	}
	views := make([]addressView, 0, len(rows))
	for _, row := range rows {
		views = append(views, viewFromAddress(row))
	}
	common.JSON(w, http.StatusOK, map[string]any{"addresses": views})
}

// Create saves a new address for the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	row, err := h.Svc.Create(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"address": viewFromAddress(row)})
}

// Update rewrites one of the caller's addresses.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := addressID(w, r)
	if !ok {
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	row, err := h.Svc.Update(r.Context(), userID, id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"address": viewFromAddress(row)})
}

// Delete removes one of the caller's addresses.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := addressID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalid):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
	case errors.Is(err, pgx.ErrNoRows):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "address not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save address", nil)
	}
}

func addressID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	id, err := store.UUIDFromString(chi.URLParam(r, "addressID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "addressID must be a UUID", nil)
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

func viewFromAddress(row store.Address) addressView {
	var state *string
	if row.State.Valid {
		s := row.State.String
		state = &s
	}
	return addressView{
		ID:         store.UUIDString(row.ID),
		Street:     row.Street,
		City:       row.City,
		State:      state,
		PostalCode: row.PostalCode,
		IsDefault:  row.IsDefault,
		CreatedAt:  row.CreatedAt.Time,
	}
}

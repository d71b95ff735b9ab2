package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Handler exposes the audit trail to managing staff.
type Handler struct {
	Svc *Service
}

type entryView struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Action     string          `json:"action"`
	Resource   string          `json:"resource"`
	ResourceID *string         `json:"resourceId,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// List returns the restaurant's audit trail, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := store.UUIDFromString(chi.URLParam(r, "restaurantID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "restaurantID must be a UUID", nil)
		return
	}
	auth, ok := common.AuthFromContext(r.Context())
	if !ok || !auth.CanEdit(store.UUIDString(restaurantID)) {
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to view this restaurant", nil)
		return
	}
	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)
	rows, err := h.Svc.List(r.Context(), restaurantID, limit, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list audit logs", nil)
		return
	}
	views := make([]entryView, 0, len(rows))
	for _, row := range rows {
		var resID *string
		if row.ResourceID.Valid {
			v := row.ResourceID.String
			resID = &v
		}
		views = append(views, entryView{
			ID:         store.UUIDString(row.ID),
			UserID:     store.UUIDString(row.UserID),
			Action:     row.Action,
			Resource:   row.Resource,
			ResourceID: resID,
			Detail:     row.Detail,
			CreatedAt:  row.CreatedAt.Time,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"entries": views})
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

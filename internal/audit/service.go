package audit

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/store"
)

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg store.InsertAuditLogParams) error
	ListAuditLogsByRestaurant(ctx context.Context, restaurantID pgtype.UUID, limit, offset int32) ([]store.AuditLog, error)
}

// Entry describes one staff mutation worth keeping.
type Entry struct {
	UserID       pgtype.UUID
	RestaurantID pgtype.UUID
	Action       string
	Resource     string
	ResourceID   string
	Detail       any
}

// Service persists an audit trail of staff mutations. Recording failures are
// logged but never fail the request that triggered them.
type Service struct {
	Q       Store
	Logger  zerolog.Logger
	Enabled bool
}

// Record persists an audit entry when auditing is enabled.
func (s *Service) Record(ctx context.Context, entry Entry) {
	if s == nil || !s.Enabled || s.Q == nil {
		return
	}
	action := strings.TrimSpace(entry.Action)
	resource := strings.TrimSpace(entry.Resource)
	if action == "" || resource == "" {
		return
	}
	var detail []byte
	if entry.Detail != nil {
		if data, err := json.Marshal(entry.Detail); err == nil {
			detail = data
		}
	}
	err := s.Q.InsertAuditLog(ctx, store.InsertAuditLogParams{
		UserID:       entry.UserID,
		RestaurantID: entry.RestaurantID,
		Action:       action,
		Resource:     resource,
		ResourceID:   store.TextOrNull(orNil(entry.ResourceID)),
		Detail:       detail,
	})
	if err != nil {
		s.Logger.Warn().Err(err).
			Str("action", action).
			Str("resource", resource).
			Msg("audit record failed")
	}
}

// List returns the newest entries for a restaurant.
func (s *Service) List(ctx context.Context, restaurantID pgtype.UUID, limit, offset int32) ([]store.AuditLog, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Q.ListAuditLogsByRestaurant(ctx, restaurantID, limit, offset)
}

func orNil(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

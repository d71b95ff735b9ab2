package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const auditColumns = `id, user_id, restaurant_id, action, resource, resource_id, detail, created_at`

func scanAuditLog(row interface{ Scan(dest ...any) error }) (AuditLog, error) {
	var a AuditLog
	err := row.Scan(&a.ID, &a.UserID, &a.RestaurantID, &a.Action, &a.Resource,
		&a.ResourceID, &a.Detail, &a.CreatedAt)
	return a, err
}

// InsertAuditLogParams records one staff mutation.
type InsertAuditLogParams struct {
	UserID       pgtype.UUID
	RestaurantID pgtype.UUID
	Action       string
	Resource     string
	ResourceID   pgtype.Text
	Detail       []byte
}

// InsertAuditLog appends to the audit trail.
func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO audit_logs (user_id, restaurant_id, action, resource, resource_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		arg.UserID, arg.RestaurantID, arg.Action, arg.Resource, arg.ResourceID, arg.Detail)
	return err
}

// ListAuditLogsByRestaurant returns the newest entries first.
func (q *Queries) ListAuditLogsByRestaurant(ctx context.Context, restaurantID pgtype.UUID, limit, offset int32) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+auditColumns+` FROM audit_logs
		WHERE restaurant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, restaurantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

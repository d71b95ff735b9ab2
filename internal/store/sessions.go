package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `id, user_id, token_hash, user_agent, ip, expires_at, created_at`

func scanSession(row interface{ Scan(dest ...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.UserAgent, &s.IP, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

// CreateSessionParams records a new refresh-token session.
type CreateSessionParams struct {
	UserID    pgtype.UUID
	TokenHash string
	UserAgent pgtype.Text
	IP        pgtype.Text
	ExpiresAt pgtype.Timestamptz
}

// CreateSession inserts a session row.
func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO sessions (user_id, token_hash, user_agent, ip, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+sessionColumns,
		arg.UserID, arg.TokenHash, arg.UserAgent, arg.IP, arg.ExpiresAt)
	return scanSession(row)
}

// GetSessionByTokenHash loads a session by its refresh token hash.
func (q *Queries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	row := q.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token_hash = $1`, tokenHash)
	return scanSession(row)
}

// RotateSessionToken swaps the token hash and lifetime on refresh.
func (q *Queries) RotateSessionToken(ctx context.Context, id pgtype.UUID, tokenHash string, expiresAt pgtype.Timestamptz) error {
	_, err := q.db.Exec(ctx,
		`UPDATE sessions SET token_hash = $2, expires_at = $3 WHERE id = $1`,
		id, tokenHash, expiresAt)
	return err
}

// DeleteSessionByTokenHash revokes one session.
func (q *Queries) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

// DeleteSessionsForUser revokes every session of a user.
func (q *Queries) DeleteSessionsForUser(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const addressColumns = `id, user_id, street, city, state, postal_code, is_default, created_at, updated_at`

func scanAddress(row interface{ Scan(dest ...any) error }) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.State,
		&a.PostalCode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// CreateAddressParams holds the fields for a new saved address.
type CreateAddressParams struct {
	UserID     pgtype.UUID
	Street     string
	City       string
	State      pgtype.Text
	PostalCode string
	IsDefault  bool
}

// CreateAddress stores a delivery address for the user.
func (q *Queries) CreateAddress(ctx context.Context, arg CreateAddressParams) (Address, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO addresses (user_id, street, city, state, postal_code, is_default)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+addressColumns,
		arg.UserID, arg.Street, arg.City, arg.State, arg.PostalCode, arg.IsDefault)
	return scanAddress(row)
}

// ListAddressesByUser returns the caller's addresses, default first then
// newest first.
func (q *Queries) ListAddressesByUser(ctx context.Context, userID pgtype.UUID) ([]Address, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+addressColumns+` FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAddressParams rewrites one address. UserID scopes the update to
// the owner.
type UpdateAddressParams struct {
	ID         pgtype.UUID
	UserID     pgtype.UUID
	Street     string
	City       string
	State      pgtype.Text
	PostalCode string
	IsDefault  bool
}

// UpdateAddress rewrites the address when it belongs to the user.
// Returns pgx.ErrNoRows when it does not exist or is owned by someone
// else.
func (q *Queries) UpdateAddress(ctx context.Context, arg UpdateAddressParams) (Address, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE addresses
		SET street = $3, city = $4, state = $5, postal_code = $6,
			is_default = $7, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+addressColumns,
		arg.ID, arg.UserID, arg.Street, arg.City, arg.State, arg.PostalCode, arg.IsDefault)
	return scanAddress(row)
}

// ClearDefaultAddress drops the default mark from all the user's
// addresses, making room for a new default under the partial unique
// index.
func (q *Queries) ClearDefaultAddress(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE addresses SET is_default = FALSE, updated_at = now()
		WHERE user_id = $1 AND is_default`, userID)
	return err
}

// DeleteAddress removes the address when it belongs to the user.
func (q *Queries) DeleteAddress(ctx context.Context, id, userID pgtype.UUID) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, name, password_hash, role, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// CreateUserParams carries the fields for a new account.
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	Role         UserRole
}

// CreateUser inserts an account.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		arg.Email, arg.Name, arg.PasswordHash, arg.Role)
	return scanUser(row)
}

// GetUserByEmail loads an account by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID loads an account.
func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UpdateUserName changes the display name.
func (q *Queries) UpdateUserName(ctx context.Context, id pgtype.UUID, name string) (User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users SET name = $2 WHERE id = $1
		RETURNING `+userColumns, id, name)
	return scanUser(row)
}

// UpdateUserPassword swaps the stored password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id pgtype.UUID, passwordHash string) error {
	_, err := q.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	return err
}

// ListManagedRestaurantIDs returns the restaurants a RESTAURANT_ADMIN or
// BRANCH_MANAGER account may edit.
func (q *Queries) ListManagedRestaurantIDs(ctx context.Context, userID pgtype.UUID) ([]pgtype.UUID, error) {
	rows, err := q.db.Query(ctx, `
		SELECT restaurant_id FROM restaurant_admins WHERE user_id = $1
		UNION
		SELECT b.restaurant_id FROM branch_managers bm
		JOIN branches b ON b.id = bm.branch_id
		WHERE bm.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []pgtype.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/garnizeh/jobtrack/pkg/models"
	"github.com/garnizeh/jobtrack/pkg/repository"
)

// CreateUser inserts u, assigning ID and CreatedAt. A taken username yields
// repository.ErrDuplicate.
func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	id := uuid.NewString()
	created := now()
	_, err := r.conn.Exec(ctx, `INSERT INTO users (id, username, password_hash, created) VALUES (?, ?, ?, ?)`, id, u.Username, u.PasswordHash, created)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", u.Username, repository.ErrDuplicate)
		}
		return err
	}

	u.ID = id
	u.CreatedAt = fromMillis(created)
	return nil
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, username, password_hash, created FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, username, password_hash, created FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var created int64
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	u.CreatedAt = fromMillis(created)
	return &u, nil
}

// UpdateCredentials writes the non-nil fields in a single UPDATE. Nothing is
// written when both are nil. An unknown id yields sql.ErrNoRows.
func (r *SQLiteRepo) UpdateCredentials(ctx context.Context, id string, username, passwordHash *string) error {
	var setClauses []string
	var args []any

	if username != nil {
		setClauses = append(setClauses, "username = ?")
		args = append(args, *username)
	}
	if passwordHash != nil {
		setClauses = append(setClauses, "password_hash = ?")
		args = append(args, *passwordHash)
	}
	if len(setClauses) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = ?`, strings.Join(setClauses, ", "))
	res, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", *username, repository.ErrDuplicate)
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, sql.ErrNoRows)
	}

	return nil
}

// ListUsers returns every user with the number of applications they own,
// newest first.
func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := r.conn.QueryRows(ctx, `
		SELECT u.id, u.username, u.created, COUNT(a.id)
		FROM users u
		LEFT JOIN applications a ON a.owner_id = u.id
		GROUP BY u.id
		ORDER BY u.created DESC, u.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UserSummary
	for rows.Next() {
		var s models.UserSummary
		var created int64
		if err := rows.Scan(&s.ID, &s.Username, &created, &s.ApplicationCount); err != nil {
			return nil, err
		}

		s.CreatedAt = fromMillis(created)
		out = append(out, s)
	}

	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weighttracker/internal/domain"
)

const userColumns = "id, username, password_hash, salt, created_at"

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u       domain.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &created); err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

// GetByUsername retrieves a user by exact, case-sensitive username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// Create inserts a user. A taken username yields domain.ErrDuplicateUsername.
func (s *Store) Create(ctx context.Context, username, passwordHash, salt string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash, salt, created_at) VALUES (?, ?, ?, ?) RETURNING "+userColumns,
		username, passwordHash, salt, formatTime(time.Now()),
	))
	if isUniqueViolation(err) {
		return nil, domain.ErrDuplicateUsername
	}
	return u, err
}

// UpdateCredentials replaces the hash and salt of a user.
func (s *Store) UpdateCredentials(ctx context.Context, id int64, passwordHash, salt string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, salt = ? WHERE id = ?", passwordHash, salt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weighttracker/internal/domain"
)

// AddWeightEntry inserts a weight entry and returns its id.
func (s *Store) AddWeightEntry(ctx context.Context, userID int64, weight float64, date string, createdAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO weight_entries (user_id, weight, date, created_at) VALUES (?, ?, ?, ?)",
		userID, weight, date, formatTime(createdAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRecentWeightEntries returns the user's newest entries by insertion order.
func (s *Store) ListRecentWeightEntries(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	// SQLite reads a negative LIMIT as unbounded.
	limit = max(limit, 0)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, weight, date, created_at FROM weight_entries WHERE user_id = ? ORDER BY id DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WeightEntry, 0, limit)
	for rows.Next() {
		e, err := scanWeightEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// LatestWeightEntry returns the entry with the highest id, or nil.
func (s *Store) LatestWeightEntry(ctx context.Context, userID int64) (*domain.WeightEntry, error) {
	e, err := scanWeightEntry(s.db.QueryRowContext(ctx,
		"SELECT id, user_id, weight, date, created_at FROM weight_entries WHERE user_id = ? ORDER BY id DESC LIMIT 1",
		userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// DeleteWeightEntry deletes an entry owned by the user and reports the rows removed.
func (s *Store) DeleteWeightEntry(ctx context.Context, userID, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM weight_entries WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountWeightEntries returns the number of entries of the user.
func (s *Store) CountWeightEntries(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM weight_entries WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

func scanWeightEntry(row interface{ Scan(...any) error }) (*domain.WeightEntry, error) {
	var (
		e       domain.WeightEntry
		created string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Weight, &e.Date, &created); err != nil {
		return nil, err
	}
	e.CreatedAt = parseTime(created)
	return &e, nil
}

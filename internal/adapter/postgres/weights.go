package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weighttracker/internal/domain"
)

// AddWeightEntry inserts a new weight entry.
func (d *DB) AddWeightEntry(ctx context.Context, userID int64, weight float64, date string, createdAt time.Time) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO weight_entries(user_id, weight, date, created_at) VALUES($1, $2, $3, $4) RETURNING id;",
		userID, weight, date, createdAt.UTC(),
	).Scan(&id)
	return id, err
}

// ListRecentWeightEntries returns the most recent weight entries up to limit.
func (d *DB) ListRecentWeightEntries(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	limit = max(limit, 0)
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, weight, date, created_at FROM weight_entries WHERE user_id = $1 ORDER BY id DESC LIMIT $2;",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WeightEntry, 0, limit)
	for rows.Next() {
		var e domain.WeightEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Weight, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LatestWeightEntry returns the most recently inserted entry of the user.
func (d *DB) LatestWeightEntry(ctx context.Context, userID int64) (*domain.WeightEntry, error) {
	var e domain.WeightEntry
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, weight, date, created_at FROM weight_entries WHERE user_id = $1 ORDER BY id DESC LIMIT 1;",
		userID,
	).Scan(&e.ID, &e.UserID, &e.Weight, &e.Date, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteWeightEntry removes an entry owned by the user.
func (d *DB) DeleteWeightEntry(ctx context.Context, userID, id int64) (int64, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM weight_entries WHERE id = $1 AND user_id = $2;", id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountWeightEntries returns the number of entries of the user.
func (d *DB) CountWeightEntries(ctx context.Context, userID int64) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM weight_entries WHERE user_id = $1;", userID).Scan(&n)
	return n, err
}

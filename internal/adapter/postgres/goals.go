package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weighttracker/internal/domain"
)

// UpsertGoal sets the user's goal in a single statement.
func (d *DB) UpsertGoal(ctx context.Context, userID int64, weight float64, updatedAt time.Time) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO goals(user_id, goal_weight, updated_at) VALUES($1, $2, $3) ON CONFLICT (user_id) DO UPDATE SET goal_weight = EXCLUDED.goal_weight, updated_at = EXCLUDED.updated_at RETURNING id;",
		userID, weight, updatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// GetGoal returns the user's goal or nil.
func (d *DB) GetGoal(ctx context.Context, userID int64) (*domain.Goal, error) {
	var g domain.Goal
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, goal_weight, updated_at FROM goals WHERE user_id = $1;",
		userID,
	).Scan(&g.ID, &g.UserID, &g.Weight, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weighttracker/internal/domain"
)

// UpsertGoal sets the user's goal in one statement; the row id is kept on update.
func (s *Store) UpsertGoal(ctx context.Context, userID int64, weight float64, updatedAt time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO goals (user_id, goal_weight, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET goal_weight = excluded.goal_weight, updated_at = excluded.updated_at
		RETURNING id`,
		userID, weight, formatTime(updatedAt),
	).Scan(&id)
	return id, err
}

// GetGoal returns the user's goal, or nil when none is set.
func (s *Store) GetGoal(ctx context.Context, userID int64) (*domain.Goal, error) {
	var (
		g       domain.Goal
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, goal_weight, updated_at FROM goals WHERE user_id = ?", userID,
	).Scan(&g.ID, &g.UserID, &g.Weight, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.UpdatedAt = parseTime(updated)
	return &g, nil
}

// CountGoals returns the number of goal rows of the user.
func (s *Store) CountGoals(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM goals WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

package app

import (
	"context"
	"fmt"
	"time"

	"weighttracker/internal/domain"
)

// GoalService stores the single goal weight of each user.
type GoalService struct {
	repo      domain.GoalRepository
	maxWeight float64
}

// NewGoalService creates a GoalService with the same bounds as the ledger.
func NewGoalService(repo domain.GoalRepository, maxWeight float64) *GoalService {
	if maxWeight <= 0 {
		maxWeight = domain.DefaultMaxWeight
	}
	return &GoalService{repo: repo, maxWeight: maxWeight}
}

// SetGoal replaces the user's goal and returns the goal row id.
func (s *GoalService) SetGoal(ctx context.Context, userID int64, weight float64) (int64, error) {
	if !domain.ValidWeight(weight, s.maxWeight) {
		return 0, fmt.Errorf("%w: must be > 0 and <= %g", domain.ErrInvalidWeight, s.maxWeight)
	}
	id, err := s.repo.UpsertGoal(ctx, userID, weight, time.Now())
	if err != nil {
		return 0, storageErr(err)
	}
	return id, nil
}

// GetGoal returns the goal weight or domain.ErrNotFound when unset.
func (s *GoalService) GetGoal(ctx context.Context, userID int64) (float64, error) {
	goal, err := s.repo.GetGoal(ctx, userID)
	if err != nil {
		return 0, storageErr(err)
	}
	if goal == nil {
		return 0, domain.ErrNotFound
	}
	return goal.Weight, nil
}

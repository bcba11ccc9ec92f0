package domain

import (
	"context"
	"math"
	"time"
)

// GoalTolerance is the half-unit band within which a weight counts as the goal.
const GoalTolerance = 0.5

// Goal is the single target weight of a user.
type Goal struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Weight    float64   `json:"weight"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GoalRepository is the port for goal persistence.
//
// UpsertGoal replaces any existing goal of the user and returns the row id.
// GetGoal returns (nil, nil) when no goal is set.
type GoalRepository interface {
	UpsertGoal(ctx context.Context, userID int64, weight float64, updatedAt time.Time) (int64, error)
	GetGoal(ctx context.Context, userID int64) (*Goal, error)
}

// GoalOutcome enumerates the verdicts of EvaluateGoal.
type GoalOutcome string

const (
	GoalNoGoalSet  GoalOutcome = "no_goal_set"
	GoalNotReached GoalOutcome = "not_reached"
	GoalReached    GoalOutcome = "reached"
	// GoalUnchecked marks an entry whose goal could not be read.
	GoalUnchecked GoalOutcome = "unchecked"
)

// GoalVerdict is the result of evaluating a new weight against the goal.
// GoalWeight is set only when a goal exists.
type GoalVerdict struct {
	Outcome    GoalOutcome `json:"outcome"`
	GoalWeight float64     `json:"goalWeight,omitempty"`
}

// Reached reports whether the verdict is GoalReached.
func (v GoalVerdict) Reached() bool {
	return v.Outcome == GoalReached
}

// EvaluateGoal decides whether newWeight reaches goal. A nil goal yields
// GoalNoGoalSet regardless of the weight.
func EvaluateGoal(newWeight float64, goal *float64) GoalVerdict {
	if goal == nil {
		return GoalVerdict{Outcome: GoalNoGoalSet}
	}
	if math.Abs(newWeight-*goal) <= GoalTolerance {
		return GoalVerdict{Outcome: GoalReached, GoalWeight: *goal}
	}
	return GoalVerdict{Outcome: GoalNotReached, GoalWeight: *goal}
}

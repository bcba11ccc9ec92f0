package domain

import (
	"context"
	"math"
	"time"
)

// DefaultMaxWeight is the ceiling applied when none is configured.
const DefaultMaxWeight = 1000.0

// MaxRecentEntries caps the size of a history page.
const MaxRecentEntries = 50

// WeightEntry represents a single weight observation. ID is the insertion
// identity and defines recency; Date is caller supplied and informational.
type WeightEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Weight    float64   `json:"weight"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidWeight reports whether w lies in (0, ceiling].
func ValidWeight(w, ceiling float64) bool {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return false
	}
	return w > 0 && w <= ceiling
}

// ClampRecentLimit maps non-positive or oversized limits to MaxRecentEntries.
func ClampRecentLimit(limit int) int {
	if limit <= 0 || limit > MaxRecentEntries {
		return MaxRecentEntries
	}
	return limit
}

// WeightRepository is the port for weight persistence.
//
// LatestWeightEntry returns (nil, nil) when the user has no entries.
// DeleteWeightEntry returns the number of rows removed and treats unknown ids
// as a no-op.
type WeightRepository interface {
	AddWeightEntry(ctx context.Context, userID int64, weight float64, date string, createdAt time.Time) (int64, error)
	// ListRecentWeightEntries returns no entries for a non-positive limit.
	ListRecentWeightEntries(ctx context.Context, userID int64, limit int) ([]WeightEntry, error)
	LatestWeightEntry(ctx context.Context, userID int64) (*WeightEntry, error)
	DeleteWeightEntry(ctx context.Context, userID, id int64) (int64, error)
	CountWeightEntries(ctx context.Context, userID int64) (int, error)
}

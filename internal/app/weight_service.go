package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weighttracker/internal/domain"
)

// WeightService is the weight ledger: append-only observations per user.
type WeightService struct {
	repo      domain.WeightRepository
	maxWeight float64
}

// NewWeightService creates a WeightService backed by the given repository.
// A non-positive maxWeight selects domain.DefaultMaxWeight.
func NewWeightService(repo domain.WeightRepository, maxWeight float64) *WeightService {
	if maxWeight <= 0 {
		maxWeight = domain.DefaultMaxWeight
	}
	return &WeightService{repo: repo, maxWeight: maxWeight}
}

// MaxWeight returns the configured ceiling.
func (s *WeightService) MaxWeight() float64 {
	return s.maxWeight
}

// Record validates and appends a weight observation, returning its id.
func (s *WeightService) Record(ctx context.Context, userID int64, weight float64, date string) (int64, error) {
	if !domain.ValidWeight(weight, s.maxWeight) {
		return 0, fmt.Errorf("%w: must be > 0 and <= %g", domain.ErrInvalidWeight, s.maxWeight)
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}

	id, err := s.repo.AddWeightEntry(ctx, userID, weight, date, time.Now())
	if err != nil {
		return 0, storageErr(err)
	}
	return id, nil
}

// Recent returns up to limit entries, most recently inserted first. The limit
// is clamped to domain.MaxRecentEntries.
func (s *WeightService) Recent(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	items, err := s.repo.ListRecentWeightEntries(ctx, userID, domain.ClampRecentLimit(limit))
	if err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

// LatestEntry returns the entry with the highest insertion id.
func (s *WeightService) LatestEntry(ctx context.Context, userID int64) (*domain.WeightEntry, error) {
	entry, err := s.repo.LatestWeightEntry(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	if entry == nil {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

// Latest returns the weight of the most recently inserted entry.
func (s *WeightService) Latest(ctx context.Context, userID int64) (float64, error) {
	entry, err := s.LatestEntry(ctx, userID)
	if err != nil {
		return 0, err
	}
	return entry.Weight, nil
}

// Delete removes one entry of the user and returns the number of rows
// removed. Unknown ids remove nothing and are not an error.
func (s *WeightService) Delete(ctx context.Context, userID, entryID int64) (int64, error) {
	n, err := s.repo.DeleteWeightEntry(ctx, userID, entryID)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

// Count returns the number of entries of the user.
func (s *WeightService) Count(ctx context.Context, userID int64) (int, error) {
	n, err := s.repo.CountWeightEntries(ctx, userID)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

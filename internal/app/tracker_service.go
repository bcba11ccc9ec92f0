package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"weighttracker/internal/domain"
	"weighttracker/internal/logging"
	"weighttracker/internal/metrics"
)

// LogResult describes a recorded observation and what it triggered.
type LogResult struct {
	EntryID      int64               `json:"entryId"`
	Weight       float64             `json:"weight"`
	Date         string              `json:"date"`
	Verdict      domain.GoalVerdict  `json:"verdict"`
	Notification domain.NotifyStatus `json:"notification,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// TrackerService records observations and runs the goal check on each one.
type TrackerService struct {
	weights  *WeightService
	goals    *GoalService
	settings domain.SettingsRepository
	notifier *NotificationService
}

// NewTrackerService creates a TrackerService.
func NewTrackerService(weights *WeightService, goals *GoalService, settings domain.SettingsRepository, notifier *NotificationService) *TrackerService {
	return &TrackerService{weights: weights, goals: goals, settings: settings, notifier: notifier}
}

// CongratulationMessage is the text sent when a goal is reached. Whole
// weights keep one decimal place.
func CongratulationMessage(goal float64) string {
	w := strconv.FormatFloat(goal, 'f', -1, 64)
	if !strings.Contains(w, ".") {
		w += ".0"
	}
	return "Congratulations! You've reached your goal weight of " + w + " lbs!"
}

// LogWeight records weight for the user and evaluates it against the goal.
// Once the entry is stored the call succeeds: goal lookup and notification
// problems are logged and reported in the result, never returned.
func (s *TrackerService) LogWeight(ctx context.Context, userID int64, weight float64, date string) (*LogResult, error) {
	id, err := s.weights.Record(ctx, userID, weight, date)
	if err != nil {
		return nil, err
	}
	metrics.WeightEntriesRecorded.Inc()

	res := &LogResult{EntryID: id, Weight: weight, Date: strings.TrimSpace(date)}

	var goal *float64
	g, err := s.goals.GetGoal(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		logging.FromContext(ctx).Warn("goal lookup failed", "entry_id", id, "err", err)
		res.Verdict = domain.GoalVerdict{Outcome: domain.GoalUnchecked}
		return res, nil
	default:
		goal = &g
	}

	res.Verdict = domain.EvaluateGoal(weight, goal)
	if !res.Verdict.Reached() {
		return res, nil
	}

	metrics.GoalsReached.Inc()
	res.Message = CongratulationMessage(res.Verdict.GoalWeight)
	res.Notification = s.notify(ctx, res.Message)
	metrics.Notifications.WithLabelValues(string(res.Notification)).Inc()
	return res, nil
}

func (s *TrackerService) notify(ctx context.Context, message string) domain.NotifyStatus {
	log := logging.FromContext(ctx)

	phone, ok, err := s.settings.GetSetting(ctx, domain.SettingPhoneNumber)
	if err != nil {
		log.Warn("phone number lookup failed", "err", err)
		return domain.NotifySkipped
	}
	if !ok || phone == "" {
		return domain.NotifySkipped
	}

	err = s.notifier.Notify(ctx, phone, message)
	status := domain.NotifyStatusOf(err)
	if err == nil {
		log.Info("goal notification sent")
		return status
	}

	log.Warn("goal notification failed", "status", status, "err", err)
	if status == domain.NotifyPermissionDenied {
		if rerr := s.notifier.RequestPermission(ctx); rerr != nil {
			log.Warn("sms permission request failed", "err", rerr)
		}
	}
	return status
}

package app_test

import (
	"context"
	"errors"
	"testing"

	"weighttracker/internal/adapter/memory"
	"weighttracker/internal/app"
	"weighttracker/internal/domain"
)

type trackerFixture struct {
	db        *memory.DB
	transport *fakeTransport
	perm      *fakePermission
	goals     *app.GoalService
	tracker   *app.TrackerService
}

func newTrackerFixture(granted bool) *trackerFixture {
	db := memory.New()
	tr := &fakeTransport{}
	perm := &fakePermission{granted: granted}
	notifier := app.NewNotificationService(tr, perm)
	goals := app.NewGoalService(db, 0)
	return &trackerFixture{
		db:        db,
		transport: tr,
		perm:      perm,
		goals:     goals,
		tracker:   app.NewTrackerService(app.NewWeightService(db, 0), goals, db, notifier),
	}
}

func TestCongratulationMessage(t *testing.T) {
	tests := map[float64]string{
		150:    "Congratulations! You've reached your goal weight of 150.0 lbs!",
		149.5:  "Congratulations! You've reached your goal weight of 149.5 lbs!",
		150.25: "Congratulations! You've reached your goal weight of 150.25 lbs!",
	}
	for goal, want := range tests {
		if got := app.CongratulationMessage(goal); got != want {
			t.Errorf("CongratulationMessage(%v) = %q; want %q", goal, got, want)
		}
	}
}

func TestLogWeight_Verdicts(t *testing.T) {
	tests := []struct {
		name   string
		goal   *float64
		weight float64
		want   domain.GoalOutcome
	}{
		{"no goal", nil, 150, domain.GoalNoGoalSet},
		{"within tolerance", ptr(150), 150.4, domain.GoalReached},
		{"on tolerance edge", ptr(150), 149.5, domain.GoalReached},
		{"outside tolerance", ptr(150), 150.6, domain.GoalNotReached},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newTrackerFixture(true)
			if tc.goal != nil {
				if _, err := f.goals.SetGoal(ctx, 1, *tc.goal); err != nil {
					t.Fatal(err)
				}
			}

			res, err := f.tracker.LogWeight(ctx, 1, tc.weight, "2024-06-01")
			if err != nil {
				t.Fatalf("LogWeight: %v", err)
			}
			if res.Verdict.Outcome != tc.want {
				t.Errorf("expected %s, got %s", tc.want, res.Verdict.Outcome)
			}
			if res.EntryID == 0 {
				t.Error("expected entry to be recorded")
			}
		})
	}
}

func TestLogWeight_ReachedSendsNotification(t *testing.T) {
	ctx := context.Background()
	f := newTrackerFixture(true)
	_, _ = f.goals.SetGoal(ctx, 1, 150)
	_ = f.db.PutSetting(ctx, domain.SettingPhoneNumber, "+15551234567")

	res, err := f.tracker.LogWeight(ctx, 1, 150.4, "2024-06-01")
	if err != nil {
		t.Fatal(err)
	}
	if res.Notification != domain.NotifySent {
		t.Fatalf("expected sent, got %q", res.Notification)
	}
	sent := f.transport.Sent()
	if len(sent) != 1 || sent[0].message != app.CongratulationMessage(150) {
		t.Fatalf("unexpected sends: %+v", sent)
	}
}

func TestLogWeight_NotReachedSendsNothing(t *testing.T) {
	ctx := context.Background()
	f := newTrackerFixture(true)
	_, _ = f.goals.SetGoal(ctx, 1, 150)
	_ = f.db.PutSetting(ctx, domain.SettingPhoneNumber, "+15551234567")

	res, _ := f.tracker.LogWeight(ctx, 1, 160, "2024-06-01")
	if res.Notification != "" || len(f.transport.Sent()) != 0 {
		t.Fatalf("expected no notification, got %q", res.Notification)
	}
}

func TestLogWeight_NoPhoneSkips(t *testing.T) {
	ctx := context.Background()
	f := newTrackerFixture(true)
	_, _ = f.goals.SetGoal(ctx, 1, 150)

	res, err := f.tracker.LogWeight(ctx, 1, 150, "2024-06-01")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Verdict.Reached() || res.Notification != domain.NotifySkipped {
		t.Fatalf("expected reached+skipped, got %+v", res)
	}
}

func TestLogWeight_NotificationFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newTrackerFixture(true)
	f.transport.err = errors.New("no signal")
	_, _ = f.goals.SetGoal(ctx, 1, 150)
	_ = f.db.PutSetting(ctx, domain.SettingPhoneNumber, "+15551234567")

	res, err := f.tracker.LogWeight(ctx, 1, 150, "2024-06-01")
	if err != nil {
		t.Fatalf("notification failures must not fail the log: %v", err)
	}
	if res.Notification != domain.NotifyTransportError {
		t.Errorf("expected transport_error, got %q", res.Notification)
	}
	if n, _ := f.db.CountWeightEntries(ctx, 1); n != 1 {
		t.Errorf("entry must still be recorded, got %d", n)
	}
}

func TestLogWeight_PermissionDeniedRequestsPermission(t *testing.T) {
	ctx := context.Background()
	f := newTrackerFixture(false)
	_, _ = f.goals.SetGoal(ctx, 1, 150)
	_ = f.db.PutSetting(ctx, domain.SettingPhoneNumber, "+15551234567")

	res, err := f.tracker.LogWeight(ctx, 1, 150, "2024-06-01")
	if err != nil {
		t.Fatal(err)
	}
	if res.Notification != domain.NotifyPermissionDenied {
		t.Errorf("expected permission_denied, got %q", res.Notification)
	}
	if f.perm.requested != 1 {
		t.Errorf("expected a permission request, got %d", f.perm.requested)
	}
}

func TestLogWeight_InvalidWeightRecordsNothing(t *testing.T) {
	ctx := context.Background()
	f := newTrackerFixture(true)

	if _, err := f.tracker.LogWeight(ctx, 1, -3, "2024-06-01"); !errors.Is(err, domain.ErrInvalidWeight) {
		t.Fatalf("expected ErrInvalidWeight, got %v", err)
	}
	if n, _ := f.db.CountWeightEntries(ctx, 1); n != 0 {
		t.Errorf("expected no entries, got %d", n)
	}
}

func TestLogWeight_GoalLookupFailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	tr := &fakeTransport{}
	failing := &mockGoalRepo{
		getFn: func(context.Context, int64) (*domain.Goal, error) {
			return nil, errors.New("disk I/O error")
		},
	}
	tracker := app.NewTrackerService(
		app.NewWeightService(db, 0),
		app.NewGoalService(failing, 0),
		db,
		app.NewNotificationService(tr, &fakePermission{granted: true}),
	)
	_ = db.PutSetting(ctx, domain.SettingPhoneNumber, "+15551234567")

	res, err := tracker.LogWeight(ctx, 1, 150, "2024-06-01")
	if err != nil {
		t.Fatalf("expected success once the entry is stored, got %v", err)
	}
	if res == nil || res.EntryID == 0 {
		t.Fatalf("expected the recorded entry id, got %+v", res)
	}
	if res.Verdict.Outcome != domain.GoalUnchecked {
		t.Errorf("expected unchecked verdict, got %s", res.Verdict.Outcome)
	}
	if res.Notification != "" || len(tr.Sent()) != 0 {
		t.Errorf("expected no notification, got %q", res.Notification)
	}
	if n, _ := db.CountWeightEntries(ctx, 1); n != 1 {
		t.Errorf("expected exactly one stored entry, got %d", n)
	}
}

func ptr(v float64) *float64 { return &v }

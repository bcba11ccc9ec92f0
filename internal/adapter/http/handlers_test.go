package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	adapthttp "weighttracker/internal/adapter/http"
	"weighttracker/internal/adapter/memory"
	"weighttracker/internal/adapter/sms"
	"weighttracker/internal/app"
	"weighttracker/internal/domain"
)

// recordingTransport captures texts instead of sending them.
type recordingTransport struct {
	mu   sync.Mutex
	sent []string
}

func (t *recordingTransport) SendText(_ context.Context, _, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, message)
	return nil
}

func (t *recordingTransport) SendMultipartText(ctx context.Context, phone, message string) error {
	return t.SendText(ctx, phone, message)
}

func (t *recordingTransport) SingleMessageLimit() int { return 160 }

func (t *recordingTransport) messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}

type fixture struct {
	db        *memory.DB
	transport *recordingTransport
	server    *adapthttp.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.New()
	transport := &recordingTransport{}
	notifier := app.NewNotificationService(transport, sms.NewSettingsPermission(db))

	ws := app.NewWeightService(db, 0)
	gs := app.NewGoalService(db, 0)
	ts := app.NewTrackerService(ws, gs, db, notifier)
	ss := app.NewSettingsService(db, notifier)
	authSvc := app.NewAuthService(db, db.NewSessionRepo())

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatal(err)
	}

	return &fixture{
		db:        db,
		transport: transport,
		server:    adapthttp.New(authSvc, ws, gs, ts, ss, webDir),
	}
}

// newTestServer serves every request as user 1.
func newTestServer(t *testing.T) (*httptest.Server, *fixture) {
	t.Helper()
	f := newFixture(t)
	ts := httptest.NewServer(f.server.WithoutAuth(&domain.User{ID: 1, Username: "alice"}).Handler())
	t.Cleanup(ts.Close)
	return ts, f
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return m
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/health", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestHealthEndpointFailingCheck(t *testing.T) {
	f := newFixture(t)
	f.server.WithHealthCheck("db", func(context.Context) error { return errors.New("down") })
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/health", nil)
	expectStatus(t, resp, http.StatusServiceUnavailable)
	body := decodeBody(t, resp)
	failed, _ := body["failed"].(map[string]any)
	if failed["db"] != "down" {
		t.Fatalf("expected db failure, got %v", body)
	}
}

func TestLogAndListEntries(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/weight/entries",
		map[string]any{"weight": 80.5, "date": "2026-01-15"})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	if body["entryId"] != float64(1) {
		t.Fatalf("expected entryId 1, got %v", body["entryId"])
	}
	verdict, _ := body["verdict"].(map[string]any)
	if verdict["outcome"] != string(domain.GoalNoGoalSet) {
		t.Fatalf("expected no_goal_set, got %v", verdict)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/weight/entries",
		map[string]any{"weight": 80.1, "date": "2026-01-14"})
	expectStatus(t, resp, http.StatusCreated)

	resp = doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/weight/entries?limit=10", nil)
	expectStatus(t, resp, http.StatusOK)
	items, _ := decodeBody(t, resp)["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first, _ := items[0].(map[string]any)
	if first["weight"] != 80.1 {
		t.Fatalf("expected newest insert first, got %v", first)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/weight/latest", nil)
	expectStatus(t, resp, http.StatusOK)
	entry, _ := decodeBody(t, resp)["entry"].(map[string]any)
	if entry["weight"] != 80.1 || entry["date"] != "2026-01-14" {
		t.Fatalf("unexpected latest entry %v", entry)
	}
}

func TestLogEntryDefaultsDate(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/weight/entries",
		map[string]any{"weight": 72.0})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	if want := time.Now().Format("2006-01-02"); body["date"] != want {
		t.Fatalf("expected date %s, got %v", want, body["date"])
	}
}

func TestLogEntryRejectsBadInput(t *testing.T) {
	ts, f := newTestServer(t)

	cases := []struct {
		name string
		body any
	}{
		{"zero", map[string]any{"weight": 0, "date": "2026-01-15"}},
		{"negative", map[string]any{"weight": -5, "date": "2026-01-15"}},
		{"too heavy", map[string]any{"weight": 1000.5, "date": "2026-01-15"}},
		{"unknown field", map[string]any{"weight": 70, "unit": "kg"}},
		{"wrong type", map[string]any{"weight": "seventy"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/weight/entries", tc.body)
			expectStatus(t, resp, http.StatusBadRequest)
		})
	}

	if n, _ := f.db.CountWeightEntries(context.Background(), 1); n != 0 {
		t.Fatalf("expected no entries recorded, got %d", n)
	}
}

func TestLatestWithoutEntries(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/weight/latest", nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestDeleteEntry(t *testing.T) {
	ts, f := newTestServer(t)
	ctx := context.Background()

	id, _ := f.db.AddWeightEntry(ctx, 1, 70, "2026-01-15", time.Now())
	otherID, _ := f.db.AddWeightEntry(ctx, 2, 90, "2026-01-15", time.Now())

	resp := doJSON(t, http.DefaultClient, http.MethodDelete, ts.URL+"/api/weight/entries/abc", nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doJSON(t, http.DefaultClient, http.MethodDelete, ts.URL+"/api/weight/entries/"+itoa(otherID), nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["deleted"] != float64(0) {
		t.Fatalf("expected another user's entry to be untouched, got %v", body)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodDelete, ts.URL+"/api/weight/entries/"+itoa(id), nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["deleted"] != float64(1) {
		t.Fatalf("expected 1 deleted, got %v", body)
	}

	if n, _ := f.db.CountWeightEntries(ctx, 2); n != 1 {
		t.Fatalf("expected other user's entry kept, got %d", n)
	}
}

func TestGoalEndpoints(t *testing.T) {
	ts, f := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/goal", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = doJSON(t, http.DefaultClient, http.MethodPut, ts.URL+"/api/goal", map[string]any{"weight": 150})
	expectStatus(t, resp, http.StatusOK)
	firstID := decodeBody(t, resp)["id"]

	resp = doJSON(t, http.DefaultClient, http.MethodPut, ts.URL+"/api/goal", map[string]any{"weight": 145})
	expectStatus(t, resp, http.StatusOK)
	if id := decodeBody(t, resp)["id"]; id != firstID {
		t.Fatalf("expected stable goal id %v, got %v", firstID, id)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/goal", nil)
	expectStatus(t, resp, http.StatusOK)
	if goal := decodeBody(t, resp)["goal"]; goal != float64(145) {
		t.Fatalf("expected goal 145, got %v", goal)
	}
	if n, _ := f.db.CountGoals(context.Background(), 1); n != 1 {
		t.Fatalf("expected one goal row, got %d", n)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPut, ts.URL+"/api/goal", map[string]any{"weight": 0})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestGoalReachedSendsText(t *testing.T) {
	ts, f := newTestServer(t)
	ctx := context.Background()

	_ = f.db.PutSetting(ctx, domain.SettingPhoneNumber, "+15551234567")
	_ = f.db.PutSetting(ctx, domain.SettingSMSPermission, domain.SMSPermissionGranted)
	_, _ = f.db.UpsertGoal(ctx, 1, 150, time.Now())

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/weight/entries",
		map[string]any{"weight": 150.4, "date": "2026-01-15"})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)

	verdict, _ := body["verdict"].(map[string]any)
	if verdict["outcome"] != string(domain.GoalReached) || verdict["goalWeight"] != float64(150) {
		t.Fatalf("unexpected verdict %v", verdict)
	}
	if body["notification"] != string(domain.NotifySent) {
		t.Fatalf("expected notification sent, got %v", body["notification"])
	}

	sent := f.transport.messages()
	if len(sent) != 1 || sent[0] != app.CongratulationMessage(150) {
		t.Fatalf("unexpected texts %q", sent)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/weight/entries",
		map[string]any{"weight": 150.6, "date": "2026-01-16"})
	expectStatus(t, resp, http.StatusCreated)
	verdict, _ = decodeBody(t, resp)["verdict"].(map[string]any)
	if verdict["outcome"] != string(domain.GoalNotReached) {
		t.Fatalf("expected not_reached, got %v", verdict)
	}
	if got := len(f.transport.messages()); got != 1 {
		t.Fatalf("expected no further texts, got %d", got)
	}
}

func TestGoalReachedWithoutPermission(t *testing.T) {
	ts, f := newTestServer(t)
	ctx := context.Background()

	_ = f.db.PutSetting(ctx, domain.SettingPhoneNumber, "+15551234567")
	_, _ = f.db.UpsertGoal(ctx, 1, 150, time.Now())

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/weight/entries",
		map[string]any{"weight": 149.5, "date": "2026-01-15"})
	expectStatus(t, resp, http.StatusCreated)
	if body := decodeBody(t, resp); body["notification"] != string(domain.NotifyPermissionDenied) {
		t.Fatalf("expected permission_denied, got %v", body["notification"])
	}
	if len(f.transport.messages()) != 0 {
		t.Fatal("expected no text without permission")
	}
	if v, _, _ := f.db.GetSetting(ctx, domain.SettingSMSPermission); v != domain.SMSPermissionRequested {
		t.Fatalf("expected permission to be requested, got %q", v)
	}
}

func TestPhoneSettings(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/settings/phone", nil)
	expectStatus(t, resp, http.StatusOK)
	if phone := decodeBody(t, resp)["phone"]; phone != "" {
		t.Fatalf("expected empty phone, got %v", phone)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPut, ts.URL+"/api/settings/phone", map[string]any{"phone": "not a phone"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doJSON(t, http.DefaultClient, http.MethodPut, ts.URL+"/api/settings/phone", map[string]any{"phone": " +15551234567 "})
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if body["phone"] != "+15551234567" {
		t.Fatalf("expected trimmed phone, got %v", body["phone"])
	}
	if body["smsPermission"] != domain.SMSPermissionRequested || body["smsGranted"] != false {
		t.Fatalf("expected permission requested, got %v", body)
	}
}

func TestSMSPermissionEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/settings/sms-permission", map[string]any{"granted": true})
	expectStatus(t, resp, http.StatusOK)

	resp = doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/settings/sms-permission", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if body["smsPermission"] != domain.SMSPermissionGranted || body["smsGranted"] != true {
		t.Fatalf("expected granted, got %v", body)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/settings/sms-permission", map[string]any{"granted": false})
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["smsGranted"] != false {
		t.Fatalf("expected denied, got %v", body)
	}
}

func TestAuthFlow(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Jar: jar}
	creds := map[string]any{"username": "alice", "password": "secret-pass"}

	resp := doJSON(t, client, http.MethodGet, ts.URL+"/api/auth/me", nil)
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/register", creds)
	expectStatus(t, resp, http.StatusCreated)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/register", creds)
	expectStatus(t, resp, http.StatusConflict)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/login",
		map[string]any{"username": "alice", "password": "wrong-pass"})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/login",
		map[string]any{"username": "nobody", "password": "secret-pass"})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/login", creds)
	expectStatus(t, resp, http.StatusOK)

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/auth/me", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["username"] != "alice" {
		t.Fatalf("expected alice, got %v", body)
	}

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/weight/entries",
		map[string]any{"weight": 70, "date": "2026-01-15"})
	expectStatus(t, resp, http.StatusCreated)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/logout", nil)
	expectStatus(t, resp, http.StatusOK)

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/auth/me", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/auth/register",
		map[string]any{"username": "", "password": "secret-pass"})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestForwardAuth(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.WithForwardAuth(true).Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/auth/me", nil)
	req.Header.Set("Remote-User", "proxy-user")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["username"] != "proxy-user" {
		t.Fatalf("expected proxy-user, got %v", body)
	}
}

func TestForwardAuthShortName(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.WithForwardAuth(true).Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/auth/me", nil)
	req.Header.Set("Remote-User", "al")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["username"] != "al" {
		t.Fatalf("expected al, got %v", body)
	}
}

func TestAuthRateLimit(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.WithAuthRateLimit(0.001, 1).Handler())
	defer ts.Close()

	creds := map[string]any{"username": "nobody", "password": "secret-pass"}
	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/auth/login", creds)
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/auth/login", creds)
	expectStatus(t, resp, http.StatusTooManyRequests)
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestConfigEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/config", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if body["sso_enabled"] != false || body["max_weight"] != domain.DefaultMaxWeight {
		t.Fatalf("unexpected config %v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodDelete, ts.URL+"/api/goal", nil)
	expectStatus(t, resp, http.StatusMethodNotAllowed)
}

func TestSPAFallback(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/history", nil)
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store, got %q", resp.Header.Get("Cache-Control"))
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

type failingGoals struct{}

func (failingGoals) UpsertGoal(context.Context, int64, float64, time.Time) (int64, error) {
	return 0, errors.New("disk I/O error")
}

func (failingGoals) GetGoal(context.Context, int64) (*domain.Goal, error) {
	return nil, errors.New("disk I/O error")
}

func TestLogEntryGoalLookupFailure(t *testing.T) {
	db := memory.New()
	notifier := app.NewNotificationService(&recordingTransport{}, sms.StaticPermission{Granted: true})
	ws := app.NewWeightService(db, 0)
	gs := app.NewGoalService(failingGoals{}, 0)
	srv := adapthttp.New(app.NewAuthService(db, db.NewSessionRepo()), ws, gs,
		app.NewTrackerService(ws, gs, db, notifier), app.NewSettingsService(db, notifier), t.TempDir()).
		WithoutAuth(&domain.User{ID: 1, Username: "alice"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/weight/entries",
		map[string]any{"weight": 150, "date": "2026-01-15"})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	if body["entryId"] != float64(1) {
		t.Fatalf("expected entryId 1, got %v", body["entryId"])
	}
	verdict, _ := body["verdict"].(map[string]any)
	if verdict["outcome"] != string(domain.GoalUnchecked) {
		t.Fatalf("expected unchecked verdict, got %v", verdict)
	}
	if n, _ := db.CountWeightEntries(context.Background(), 1); n != 1 {
		t.Fatalf("expected one stored entry, got %d", n)
	}
}

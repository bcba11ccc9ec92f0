package adapthttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"weighttracker/internal/app"
	"weighttracker/internal/domain"
	"weighttracker/internal/logging"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	authSvc  *app.AuthService
	weight   *app.WeightService
	goals    *app.GoalService
	tracker  *app.TrackerService
	settings *app.SettingsService
	webDir   string

	logger           *slog.Logger
	oidcConfig       OIDCConfig
	trustForwardAuth bool
	authLimiter      *rateLimiter
	checks           map[string]HealthCheck

	// testUser bypasses authentication when set.
	testUser *domain.User
}

// New creates a Server wired to the given application services.
func New(authSvc *app.AuthService, ws *app.WeightService, gs *app.GoalService, ts *app.TrackerService, ss *app.SettingsService, webDir string) *Server {
	return &Server{
		authSvc:  authSvc,
		weight:   ws,
		goals:    gs,
		tracker:  ts,
		settings: ss,
		webDir:   webDir,
		logger:   slog.Default(),
		checks:   make(map[string]HealthCheck),
	}
}

// WithoutAuth disables authentication and serves every request as user.
func (s *Server) WithoutAuth(user *domain.User) *Server {
	s.testUser = user
	return s
}

// WithLogger sets the base logger of the request logging middleware.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithOIDC enables SSO login.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithForwardAuth trusts the Remote-User header set by an authenticating proxy.
func (s *Server) WithForwardAuth(trust bool) *Server {
	s.trustForwardAuth = trust
	return s
}

// WithAuthRateLimit limits register and login requests per client.
func (s *Server) WithAuthRateLimit(perSecond float64, burst int) *Server {
	if perSecond > 0 && burst > 0 {
		s.authLimiter = newRateLimiter(perSecond, burst)
	}
	return s
}

// WithHealthCheck adds a dependency probed by /api/health.
func (s *Server) WithHealthCheck(name string, check HealthCheck) *Server {
	s.checks[name] = check
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	s.handle(api, "GET /health", s.handleHealth)
	s.handle(api, "GET /config", s.handleConfig)

	s.handle(api, "POST /auth/register", s.rateLimited(s.handleRegister))
	s.handle(api, "POST /auth/login", s.rateLimited(s.handleLogin))
	s.handle(api, "POST /auth/logout", s.handleLogout)
	s.handle(api, "GET /auth/sso/login", s.handleSSOLogin)
	s.handle(api, "GET /auth/sso/callback", s.handleSSOCallback)
	s.handle(api, "GET /auth/me", s.protected(s.handleMe))

	s.handle(api, "GET /weight/entries", s.protected(s.handleListEntries))
	s.handle(api, "POST /weight/entries", s.protected(s.handleLogEntry))
	s.handle(api, "DELETE /weight/entries/{id}", s.protected(s.handleDeleteEntry))
	s.handle(api, "GET /weight/latest", s.protected(s.handleLatest))

	s.handle(api, "GET /goal", s.protected(s.handleGetGoal))
	s.handle(api, "PUT /goal", s.protected(s.handleSetGoal))

	s.handle(api, "GET /settings/phone", s.protected(s.handleGetPhone))
	s.handle(api, "PUT /settings/phone", s.protected(s.handleSetPhone))
	s.handle(api, "GET /settings/sms-permission", s.protected(s.handleGetSMSPermission))
	s.handle(api, "POST /settings/sms-permission", s.protected(s.handleSetSMSPermission))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("GET /metrics", promhttp.Handler())
	root.Handle("/", spaFromDisk(s.webDir))

	return logging.HTTPMiddleware(s.logger)(withNoCache(root))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			failed[name] = err.Error()
		}
	}
	if status != http.StatusOK {
		writeJSON(w, status, map[string]any{"ok": false, "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

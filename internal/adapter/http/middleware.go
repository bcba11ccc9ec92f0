package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"weighttracker/internal/app"
	"weighttracker/internal/domain"
	"weighttracker/internal/logging"
	"weighttracker/internal/metrics"
)

type contextKey string

const userContextKey contextKey = "user"

const sessionCookie = "session"

// handle registers h under pattern and counts requests by pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rw, r)
		metrics.HTTPRequests.WithLabelValues(r.Method, pattern, strconv.Itoa(rw.status)).Inc()
	}))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// protected validates session tokens and forward auth headers.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.testUser != nil {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), s.testUser)))
			return
		}

		if s.trustForwardAuth {
			if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
				user, err := s.authSvc.ProvisionUser(r.Context(), remoteUser)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
					return
				}
				logging.FromContext(r.Context()).Warn("forward auth failed", "err", err)
			}
		}

		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}

		user, err := s.authSvc.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
		if errors.Is(err, app.ErrSessionNotFound) || errors.Is(err, app.ErrSessionExpired) || errors.Is(err, app.ErrUserNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	}
}

func withUser(ctx context.Context, u *domain.User) context.Context {
	ctx = context.WithValue(ctx, userContextKey, u)
	return logging.WithContext(ctx, logging.FromContext(ctx).With("user_id", u.ID))
}

func userFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

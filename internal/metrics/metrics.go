// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts counts authentication attempts by result.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weighttracker_auth_attempts_total",
		Help: "Authentication attempts by result",
	}, []string{"result"})

	// LegacyMigrations counts legacy credentials re-hashed on login.
	LegacyMigrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weighttracker_legacy_credential_migrations_total",
		Help: "Legacy plaintext credentials migrated to salted hashes",
	})

	// WeightEntriesRecorded counts weight observations stored.
	WeightEntriesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weighttracker_weight_entries_recorded_total",
		Help: "Weight entries recorded",
	})

	// GoalsReached counts observations that reached the user's goal.
	GoalsReached = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weighttracker_goals_reached_total",
		Help: "Weight entries that reached the goal",
	})

	// Notifications counts notification attempts by status.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weighttracker_notifications_total",
		Help: "Goal notifications by delivery status",
	}, []string{"status"})

	// RedisErrors counts failed Redis commands.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weighttracker_redis_errors_total",
		Help: "Failed Redis commands by command name",
	}, []string{"command"})

	// HTTPRequests counts served requests by route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weighttracker_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
)

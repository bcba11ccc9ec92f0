// Package config loads the service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SMS permission sources.
const (
	PermissionSettings = "settings" // stored grant, answered through the API
	PermissionGranted  = "granted"
	PermissionDenied   = "denied"
)

type Config struct {
	Addr      string // HTTP listen address (default: :8080)
	Env       string // dev, prod (default: dev)
	LogLevel  string // debug, info, warn, error (default: info)
	LogFormat string // json, text (default: json)
	WebDir    string // static frontend directory (default: web)

	DatabaseURL string  // Optional: PostgreSQL DSN; SQLite is used when empty
	SQLitePath  string  // SQLite database file (default: weighttracker.db)
	RedisURL    string  // Optional: Redis URL or host:port for shared settings
	MaxWeight   float64 // Upper weight bound (default: 1000)

	SMSWebhookURL   string // Optional: gateway endpoint; messages are logged when empty
	SMSWebhookToken string // Optional: bearer token for the gateway
	SMSSingleLimit  int    // Single-part message length (default: 160)
	SMSPermission   string // settings, granted or denied (default: settings)

	SessionTTL          time.Duration // Cookie session lifetime (default: 24h)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	SessionPurgeEvery   time.Duration // Expired session cleanup interval (default: 1h)
	AuthRateLimit       float64       // Login/register requests per second per client (default: 1)
	AuthRateBurst       int           // Burst for AuthRateLimit (default: 5)

	OIDCIssuer       string // Optional: enables SSO when set with client id
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	TrustForwardAuth bool // Accept Remote-User from a trusted proxy
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Addr:      getEnvOrDefault("ADDR", ":8080"),
		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		WebDir:    getEnvOrDefault("WEB_DIR", "web"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnvOrDefault("SQLITE_PATH", "weighttracker.db"),
		RedisURL:    os.Getenv("REDIS_URL"),
		MaxWeight:   getEnvFloatOrDefault("MAX_WEIGHT", 1000),

		SMSWebhookURL:   os.Getenv("SMS_WEBHOOK_URL"),
		SMSWebhookToken: os.Getenv("SMS_WEBHOOK_TOKEN"),
		SMSSingleLimit:  getEnvIntOrDefault("SMS_SINGLE_LIMIT", 160),
		SMSPermission:   strings.ToLower(getEnvOrDefault("SMS_PERMISSION", PermissionSettings)),

		SessionTTL:          getEnvDurationOrDefault("SESSION_TTL", 24*time.Hour),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		SessionPurgeEvery:   getEnvDurationOrDefault("SESSION_PURGE_INTERVAL", time.Hour),
		AuthRateLimit:       getEnvFloatOrDefault("AUTH_RATE_LIMIT", 1),
		AuthRateBurst:       getEnvIntOrDefault("AUTH_RATE_BURST", 5),

		OIDCIssuer:       os.Getenv("OIDC_ISSUER"),
		OIDCClientID:     os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		TrustForwardAuth: os.Getenv("TRUST_FORWARD_AUTH") == "true",
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.SMSPermission {
	case PermissionSettings, PermissionGranted, PermissionDenied:
	default:
		return fmt.Errorf("SMS_PERMISSION must be settings, granted or denied, got %q", c.SMSPermission)
	}
	if c.MaxWeight <= 0 {
		return fmt.Errorf("MAX_WEIGHT must be positive, got %v", c.MaxWeight)
	}
	if c.SMSSingleLimit <= 0 {
		return fmt.Errorf("SMS_SINGLE_LIMIT must be positive, got %d", c.SMSSingleLimit)
	}
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return errors.New("either DATABASE_URL or SQLITE_PATH is required")
	}
	return nil
}

// SSOEnabled reports whether OIDC login is configured.
func (c Config) SSOEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	return defaultValue
}

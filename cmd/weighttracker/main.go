package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "weighttracker/internal/adapter/http"
	"weighttracker/internal/adapter/postgres"
	"weighttracker/internal/adapter/redis"
	"weighttracker/internal/adapter/sms"
	"weighttracker/internal/adapter/sqlite"
	"weighttracker/internal/app"
	"weighttracker/internal/config"
	"weighttracker/internal/domain"
	"weighttracker/internal/logging"
)

var version = "dev"

// store is what either database backend provides.
type store interface {
	domain.UserRepository
	domain.WeightRepository
	domain.GoalRepository
	domain.SettingsRepository
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(logging.Config{
		Service: "weighttracker",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	if err := run(cfg, logger); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, sessions, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var settings domain.SettingsRepository = db
	var rdb *redis.SettingsStore
	if cfg.RedisURL != "" {
		rdb, err = redis.Open(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
		settings = rdb
		logger.Info("settings stored in redis")
	}

	var transport domain.TextTransport
	if cfg.SMSWebhookURL != "" {
		transport = sms.NewWebhookTransport(cfg.SMSWebhookURL, cfg.SMSWebhookToken, cfg.SMSSingleLimit)
	} else {
		transport = sms.NewLogTransport(logger, cfg.SMSSingleLimit)
		logger.Warn("SMS_WEBHOOK_URL not set, text messages are only logged")
	}

	var permission domain.SMSPermission
	switch cfg.SMSPermission {
	case config.PermissionGranted:
		permission = sms.StaticPermission{Granted: true}
	case config.PermissionDenied:
		permission = sms.StaticPermission{Granted: false}
	default:
		permission = sms.NewSettingsPermission(settings)
	}

	notifier := app.NewNotificationService(transport, permission)
	weightSvc := app.NewWeightService(db, cfg.MaxWeight)
	goalSvc := app.NewGoalService(db, cfg.MaxWeight)
	trackerSvc := app.NewTrackerService(weightSvc, goalSvc, settings, notifier)
	settingsSvc := app.NewSettingsService(settings, notifier)
	authSvc := app.NewAuthService(db, sessions).WithSessionTTL(cfg.SessionTTL)

	srv := adapthttp.New(authSvc, weightSvc, goalSvc, trackerSvc, settingsSvc, cfg.WebDir).
		WithLogger(logger).
		WithForwardAuth(cfg.TrustForwardAuth).
		WithAuthRateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst).
		WithHealthCheck("database", db.Ping)
	if rdb != nil {
		srv.WithHealthCheck("redis", rdb.Ping)
	}

	if cfg.SSOEnabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			return fmt.Errorf("oidc: %w", err)
		}
		srv.WithOIDC(oidcCfg)
		logger.Info("sso enabled", "issuer", cfg.OIDCIssuer)
	}

	go purgeSessions(ctx, authSvc, cfg.SessionPurgeEvery, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStore(cfg config.Config, logger *slog.Logger) (store, domain.SessionRepository, error) {
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		logger.Info("using postgres")
		return db, postgres.NewSessionRepo(db), nil
	}

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sqlite migrations: %w", err)
	}
	logger.Info("using sqlite", "path", cfg.SQLitePath)
	return db, sqlite.NewSessionRepo(db), nil
}

func purgeSessions(ctx context.Context, auth *app.AuthService, every time.Duration, logger *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				logger.Warn("session purge failed", "err", err)
			}
		}
	}
}

// Package redis stores the process-wide settings in a Redis hash so several
// instances share one phone number and permission state.
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"weighttracker/internal/domain"
	"weighttracker/internal/metrics"
)

// DefaultKey is the hash holding all settings.
const DefaultKey = "weighttracker:settings"

// SettingsStore implements domain.SettingsRepository on a Redis hash.
type SettingsStore struct {
	client *redis.Client
	key    string
}

var _ domain.SettingsRepository = (*SettingsStore)(nil)

type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			metrics.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			metrics.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Open connects to addr, which is either a redis:// URL or host:port, and
// verifies the connection.
func Open(addr string) (*SettingsStore, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return New(client, DefaultKey), nil
}

// New wraps an existing client. An empty key selects DefaultKey.
func New(client *redis.Client, key string) *SettingsStore {
	if key == "" {
		key = DefaultKey
	}
	return &SettingsStore{client: client, key: key}
}

// Close closes the client.
func (s *SettingsStore) Close() error {
	return s.client.Close()
}

// Ping verifies the connection is still alive.
func (s *SettingsStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetSetting returns the value stored under key.
func (s *SettingsStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// PutSetting stores value under key.
func (s *SettingsStore) PutSetting(ctx context.Context, key, value string) error {
	return s.client.HSet(ctx, s.key, key, value).Err()
}

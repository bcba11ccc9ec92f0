// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"weighttracker/internal/domain"
	"weighttracker/internal/logging"
	"weighttracker/internal/metrics"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6

	defaultSessionTTL = 24 * time.Hour
)

var (
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the session's user no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// AuthService is the credential store: registration and verification of
// local accounts, plus the cookie sessions used by the HTTP adapter.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	sessionTTL time.Duration

	// decoySalt is hashed against when the username is unknown.
	decoySalt string
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository) *AuthService {
	decoy, _ := newSalt()
	return &AuthService{
		users:      users,
		sessions:   sessions,
		sessionTTL: defaultSessionTTL,
		decoySalt:  decoy,
	}
}

// WithSessionTTL overrides the session lifetime.
func (s *AuthService) WithSessionTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
	return s
}

// SessionTTL returns the lifetime of new sessions.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Register creates a user with a salted password hash and returns its id.
func (s *AuthService) Register(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return 0, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(username) < minUsernameLength {
		return 0, fmt.Errorf("%w: username must be at least %d characters", domain.ErrInvalidInput, minUsernameLength)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return 0, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, storageErr(err)
	}
	if existing != nil {
		return 0, domain.ErrDuplicateUsername
	}

	hash, salt, err := newCredentials(password)
	if err != nil {
		return 0, err
	}

	user, err := s.users.Create(ctx, username, hash, salt)
	if errors.Is(err, domain.ErrDuplicateUsername) {
		return 0, domain.ErrDuplicateUsername
	}
	if err != nil {
		return 0, storageErr(err)
	}

	logging.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return user.ID, nil
}

// Authenticate verifies the credentials and returns the user id. Unknown
// usernames and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("invalid").Inc()
		return 0, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("error").Inc()
		return 0, storageErr(err)
	}
	if user == nil {
		_, _ = hashPassword(password, s.decoySalt)
		metrics.AuthAttempts.WithLabelValues("invalid").Inc()
		return 0, domain.ErrInvalidCredentials
	}

	if user.IsLegacy() {
		return s.authenticateLegacy(ctx, user, password)
	}

	if !verifyPassword(password, user.PasswordHash, user.Salt) {
		metrics.AuthAttempts.WithLabelValues("invalid").Inc()
		return 0, domain.ErrInvalidCredentials
	}
	metrics.AuthAttempts.WithLabelValues("ok").Inc()
	return user.ID, nil
}

// authenticateLegacy is the only path that compares a plaintext password. A
// match re-hashes the password with a fresh salt so the record stops being
// legacy; a failed write-back is logged and retried on the next login.
func (s *AuthService) authenticateLegacy(ctx context.Context, user *domain.User, password string) (int64, error) {
	if !ConstantTimeCompare(password, user.PasswordHash) {
		metrics.AuthAttempts.WithLabelValues("invalid").Inc()
		return 0, domain.ErrInvalidCredentials
	}

	log := logging.FromContext(ctx).With("user_id", user.ID)
	hash, salt, err := newCredentials(password)
	if err == nil {
		err = s.users.UpdateCredentials(ctx, user.ID, hash, salt)
	}
	if err != nil {
		log.Warn("legacy credential migration failed", "err", err)
	} else {
		metrics.LegacyMigrations.Inc()
		log.Info("legacy credential migrated")
	}

	metrics.AuthAttempts.WithLabelValues("ok").Inc()
	return user.ID, nil
}

// LookupID returns the id of username or domain.ErrNotFound.
func (s *AuthService) LookupID(ctx context.Context, username string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, domain.ErrNotFound
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, storageErr(err)
	}
	if user == nil {
		return 0, domain.ErrNotFound
	}
	return user.ID, nil
}

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent, ip string) (string, error) {
	userID, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.createSession(ctx, userID, userAgent, ip)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, storageErr(err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if session.UserAgent != userAgent {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, storageErr(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// PurgeExpiredSessions removes expired sessions.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

// ProvisionUser returns the user named username, creating it with a random
// password when absent. Used for identities asserted by a trusted front end
// (SSO or forward auth), which never log in with a local password, so the
// local username and password length rules do not apply.
func (s *AuthService) ProvisionUser(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: empty remote user", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, storageErr(err)
	}
	if user != nil {
		return user, nil
	}

	password, err := generateToken()
	if err != nil {
		return nil, err
	}
	hash, salt, err := newCredentials(password)
	if err != nil {
		return nil, err
	}
	created, err := s.users.Create(ctx, username, hash, salt)
	if err == nil {
		logging.FromContext(ctx).Info("user provisioned", "user_id", created.ID)
		return created, nil
	}
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		return nil, storageErr(err)
	}

	// Re-read so a concurrent provisioning of the same name resolves to one row.
	user, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, storageErr(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, username, userAgent, ip string) (string, error) {
	user, err := s.ProvisionUser(ctx, username)
	if err != nil {
		return "", err
	}
	return s.createSession(ctx, user.ID, userAgent, ip)
}

func (s *AuthService) createSession(ctx context.Context, userID int64, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(s.sessionTTL)
	if err := s.sessions.Create(ctx, userID, token, userAgent, ip, expiresAt); err != nil {
		return "", storageErr(err)
	}
	return token, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents an account holder.
//
// Salt is the base64 encoding of the per-user random salt. An empty Salt marks
// a legacy record whose PasswordHash still holds the plaintext password.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
}

// IsLegacy reports whether the record predates salted hashing.
func (u *User) IsLegacy() bool {
	return u.Salt == ""
}

// Session represents an active user session.
type Session struct {
	Token     string
	UserID    int64
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
//
// Lookups return (nil, nil) when no user matches. Create returns
// ErrDuplicateUsername when the username is already taken.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, username, passwordHash, salt string) (*User, error)
	UpdateCredentials(ctx context.Context, id int64, passwordHash, salt string) error
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}

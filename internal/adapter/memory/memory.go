// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"weighttracker/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	weights  []domain.WeightEntry
	goals    map[int64]*domain.Goal
	users    []*domain.User
	sessions map[string]*domain.Session
	settings map[string]string

	weightIDCounter int64
	goalIDCounter   int64
	userIDCounter   int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		goals:    make(map[int64]*domain.Goal),
		sessions: make(map[string]*domain.Session),
		settings: make(map[string]string),
	}
}

// Ensure interfaces are met.
var _ domain.WeightRepository = (*DB)(nil)
var _ domain.GoalRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SettingsRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- WeightRepository ---

// AddWeightEntry appends a weight entry.
func (db *DB) AddWeightEntry(ctx context.Context, userID int64, weight float64, date string, createdAt time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.weightIDCounter++
	db.weights = append(db.weights, domain.WeightEntry{
		ID:        db.weightIDCounter,
		UserID:    userID,
		Weight:    weight,
		Date:      date,
		CreatedAt: createdAt.UTC(),
	})
	return db.weightIDCounter, nil
}

// ListRecentWeightEntries returns a copy of the user's newest entries.
func (db *DB) ListRecentWeightEntries(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	limit = max(limit, 0)
	result := make([]domain.WeightEntry, 0, limit)
	for _, w := range db.weights {
		if w.UserID == userID {
			result = append(result, w)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// LatestWeightEntry returns the user's entry with the highest id.
func (db *DB) LatestWeightEntry(ctx context.Context, userID int64) (*domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *domain.WeightEntry
	for i := range db.weights {
		w := &db.weights[i]
		if w.UserID == userID && (latest == nil || w.ID > latest.ID) {
			latest = w
		}
	}
	if latest == nil {
		return nil, nil
	}
	ret := *latest
	return &ret, nil
}

// DeleteWeightEntry removes the entry if it belongs to the user.
func (db *DB) DeleteWeightEntry(ctx context.Context, userID, id int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, w := range db.weights {
		if w.ID == id && w.UserID == userID {
			db.weights = append(db.weights[:i], db.weights[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// CountWeightEntries returns the number of entries of the user.
func (db *DB) CountWeightEntries(ctx context.Context, userID int64) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, w := range db.weights {
		if w.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- GoalRepository ---

// UpsertGoal sets the user's goal, keeping the row id stable across updates.
func (db *DB) UpsertGoal(ctx context.Context, userID int64, weight float64, updatedAt time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if g, ok := db.goals[userID]; ok {
		g.Weight = weight
		g.UpdatedAt = updatedAt.UTC()
		return g.ID, nil
	}

	db.goalIDCounter++
	db.goals[userID] = &domain.Goal{
		ID:        db.goalIDCounter,
		UserID:    userID,
		Weight:    weight,
		UpdatedAt: updatedAt.UTC(),
	}
	return db.goalIDCounter, nil
}

// GetGoal returns a copy of the user's goal.
func (db *DB) GetGoal(ctx context.Context, userID int64) (*domain.Goal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	g, ok := db.goals[userID]
	if !ok {
		return nil, nil
	}
	ret := *g
	return &ret, nil
}

// CountGoals returns the number of goal rows of the user.
func (db *DB) CountGoals(ctx context.Context, userID int64) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.goals[userID]; ok {
		return 1, nil
	}
	return 0, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			ret := *u
			return &ret, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			ret := *u
			return &ret, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash, salt string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, domain.ErrDuplicateUsername
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		Salt:         salt,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	ret := *u
	return &ret, nil
}

// UpdateCredentials replaces the hash and salt of a user.
func (db *DB) UpdateCredentials(ctx context.Context, id int64, passwordHash, salt string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			u.Salt = salt
			return nil
		}
	}
	return domain.ErrNotFound
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SettingsRepository ---

// GetSetting returns the value stored under key.
func (db *DB) GetSetting(ctx context.Context, key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok := db.settings[key]
	return v, ok, nil
}

// PutSetting stores value under key.
func (db *DB) PutSetting(ctx context.Context, key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.settings[key] = value
	return nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		ret := *s
		return &ret, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}

package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store for development and tests.
// A single mutex serializes every operation, which gives CreateUser and
// UpsertSession the same atomicity as the Postgres primary keys.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]User
	sessions map[uuid.UUID]Session
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]User),
		sessions: make(map[uuid.UUID]Session),
	}
}

// FindUserByUsername returns a copy of the matching user.
func (s *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("identity.FindUserByUsername", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[NormalizeUsername(username)]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// CreateUser inserts u unless its normalized username is already taken.
func (s *MemoryStore) CreateUser(ctx context.Context, u User) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, storageErr("identity.CreateUser", err)
	}

	key := NormalizeUsername(u.Username)
	u.Username = key

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return false, nil
	}
	s.users[key] = u
	return true, nil
}

// SetAdmin updates the admin flag of a user.
func (s *MemoryStore) SetAdmin(ctx context.Context, username string, admin bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, storageErr("identity.SetAdmin", err)
	}

	key := NormalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[key]
	if !ok {
		return false, nil
	}
	u.Admin = admin
	s.users[key] = u
	return true, nil
}

// ListAdmins returns every admin ordered by username.
func (s *MemoryStore) ListAdmins(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("identity.ListAdmins", err)
	}

	s.mu.Lock()
	var out []User
	for _, u := range s.users {
		if u.Admin {
			out = append(out, u)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// DeleteAllUsers wipes all users. Sessions are left for the reaper.
func (s *MemoryStore) DeleteAllUsers(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return storageErr("identity.DeleteAllUsers", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]User)
	return nil
}

// UpsertSession inserts or replaces the session for token.
func (s *MemoryStore) UpsertSession(ctx context.Context, token uuid.UUID, username string, expiration time.Time) error {
	if err := ctx.Err(); err != nil {
		return storageErr("identity.UpsertSession", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = Session{
		Token:      token,
		Username:   NormalizeUsername(username),
		Expiration: expiration,
	}
	return nil
}

// RenewSession updates the expiration of an existing, unexpired session.
func (s *MemoryStore) RenewSession(ctx context.Context, token uuid.UUID, now, expiration time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, storageErr("identity.RenewSession", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || !sess.Expiration.After(now) {
		return false, nil
	}
	sess.Expiration = expiration
	s.sessions[token] = sess
	return true, nil
}

// FindSession returns a copy of the session row regardless of expiry.
func (s *MemoryStore) FindSession(ctx context.Context, token uuid.UUID) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("identity.FindSession", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// DeleteSession removes a single session.
func (s *MemoryStore) DeleteSession(ctx context.Context, token uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, storageErr("identity.DeleteSession", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return false, nil
	}
	delete(s.sessions, token)
	return true, nil
}

// DeleteSessionsExpiredAt removes sessions whose expiration is at or before cutoff.
func (s *MemoryStore) DeleteSessionsExpiredAt(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageErr("identity.DeleteSessionsExpiredAt", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for token, sess := range s.sessions {
		if !sess.Expiration.After(cutoff) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds unless ctx is done.
func (s *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return storageErr("identity.Ping", err)
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// SessionCount reports the number of physical session rows, expired ones included.
func (s *MemoryStore) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

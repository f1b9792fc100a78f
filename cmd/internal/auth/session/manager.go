package session

import (
	"context"
	"time"

	"board/cmd/identity"

	"github.com/google/uuid"
)

// Store is the subset of identity.Store the session subsystem needs.
type Store interface {
	FindUserByUsername(ctx context.Context, username string) (*identity.User, error)
	UpsertSession(ctx context.Context, token uuid.UUID, username string, expiration time.Time) error
	RenewSession(ctx context.Context, token uuid.UUID, now, expiration time.Time) (bool, error)
	FindSession(ctx context.Context, token uuid.UUID) (*identity.Session, error)
	DeleteSession(ctx context.Context, token uuid.UUID) (bool, error)
	DeleteSessionsExpiredAt(ctx context.Context, cutoff time.Time) (int64, error)
}

// View is what a valid session exposes to callers. It never carries the password hash.
type View struct {
	Username  string
	FirstName string
	LastName  string
	Admin     bool
	Token     string
}

// Manager issues, validates, renews and revokes session tokens.
type Manager struct {
	store    Store
	now      func() time.Time
	newToken func() (uuid.UUID, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTokenSource overrides token generation (tests).
func WithTokenSource(gen func() (uuid.UUID, error)) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newToken = gen
		}
	}
}

// NewManager constructs a Manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: uuid.NewRandom,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

// Issue mints a fresh token for username and stores it with a two-week expiration.
//
// A candidate token that already maps to a session (expired or not) is
// discarded and regenerated, at most MaxIssueAttempts times.
func (m *Manager) Issue(ctx context.Context, username string) (string, error) {
	username = identity.NormalizeUsername(username)

	for attempt := 0; attempt < MaxIssueAttempts; attempt++ {
		token, err := m.newToken()
		if err != nil {
			return "", err
		}

		existing, err := m.store.FindSession(ctx, token)
		if err != nil {
			return "", err
		}
		if existing != nil {
			continue
		}

		if err := m.store.UpsertSession(ctx, token, username, m.now().Add(Duration)); err != nil {
			return "", err
		}
		return token.String(), nil
	}

	return "", ErrTokenExhausted
}

// Lookup resolves token to a View and slides its expiration forward.
//
// Returns (nil, nil) when the token is malformed, unknown, expired, or
// references a user that no longer exists. Expired rows are left in place.
// Renewal only updates an existing live row, so a concurrent Revoke wins.
func (m *Manager) Lookup(ctx context.Context, token string) (*View, error) {
	id, ok := parseToken(token)
	if !ok {
		return nil, nil
	}

	sess, err := m.store.FindSession(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if sess == nil || !sess.Expiration.After(now) {
		return nil, nil
	}

	user, err := m.store.FindUserByUsername(ctx, sess.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	renewed, err := m.store.RenewSession(ctx, id, now, now.Add(Duration))
	if err != nil {
		return nil, err
	}
	if !renewed {
		return nil, nil
	}

	return &View{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Admin:     user.Admin,
		Token:     id.String(),
	}, nil
}

// Revoke deletes the session for token and reports whether one existed.
func (m *Manager) Revoke(ctx context.Context, token string) (bool, error) {
	id, ok := parseToken(token)
	if !ok {
		return false, nil
	}
	return m.store.DeleteSession(ctx, id)
}

// parseToken accepts any textual UUID form understood by uuid.Parse.
func parseToken(token string) (uuid.UUID, bool) {
	if token == "" {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(token)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

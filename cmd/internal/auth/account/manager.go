package account

import (
	"context"
	"errors"
	"log/slog"

	"board/cmd/identity"
	"board/cmd/internal/auth/session"
)

// Store is the subset of identity.Store used for account data.
type Store interface {
	FindUserByUsername(ctx context.Context, username string) (*identity.User, error)
	CreateUser(ctx context.Context, u identity.User) (bool, error)
	SetAdmin(ctx context.Context, username string, admin bool) (bool, error)
	ListAdmins(ctx context.Context) ([]identity.User, error)
	DeleteAllUsers(ctx context.Context) error
}

// Sessions issues and resolves session tokens.
type Sessions interface {
	Issue(ctx context.Context, username string) (string, error)
	Lookup(ctx context.Context, token string) (*session.View, error)
	Revoke(ctx context.Context, token string) (bool, error)
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(encodedHash, plain string) (bool, error)
}

// RegisterDetails is the input of Register. Every field is required.
type RegisterDetails struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// PublicUser is a user record without its password hash.
type PublicUser struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Admin     bool
}

// InitialAdmin describes the account created by SeedAdmin.
type InitialAdmin struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// Manager exposes account operations.
type Manager struct {
	log      *slog.Logger
	store    Store
	sessions Sessions
	hasher   Hasher

	seed *InitialAdmin

	dummyHash string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for seeding and hash anomalies.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithInitialAdmin configures the account inserted by SeedAdmin and ResetUsers.
func WithInitialAdmin(a InitialAdmin) Option {
	return func(m *Manager) {
		if a.Username == "" || a.Password == "" {
			return
		}
		m.seed = &a
	}
}

// NewManager constructs a Manager.
func NewManager(store Store, sessions Sessions, hasher Hasher, opts ...Option) (*Manager, error) {
	if store == nil || sessions == nil || hasher == nil {
		return nil, errors.New("account: nil dependency")
	}

	m := &Manager{
		log:      slog.Default(),
		store:    store,
		sessions: sessions,
		hasher:   hasher,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}

	// Dummy hash for timing-resistant login checks.
	if hash, err := hasher.Hash("dummy-password-for-timing-only"); err == nil {
		m.dummyHash = hash
	}

	return m, nil
}

// Register creates a non-admin account. It returns false when a field is
// missing, the email is malformed or the username is already taken.
func (m *Manager) Register(ctx context.Context, d RegisterDetails) (bool, error) {
	if d.Username == "" || d.Password == "" || d.FirstName == "" || d.LastName == "" || d.Email == "" {
		return false, nil
	}
	if !ValidEmail(d.Email) {
		return false, nil
	}

	hash, err := m.hasher.Hash(d.Password)
	if err != nil {
		return false, err
	}

	return m.store.CreateUser(ctx, identity.User{
		Username:     identity.NormalizeUsername(d.Username),
		PasswordHash: hash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        identity.NormalizeEmail(d.Email),
		Admin:        false,
	})
}

// Login verifies credentials and returns a fresh session token, or "" when
// the user is unknown or the password does not match.
func (m *Manager) Login(ctx context.Context, username, plain string) (string, error) {
	username = identity.NormalizeUsername(username)

	u, err := m.store.FindUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if u == nil {
		if m.dummyHash != "" {
			_, _ = m.hasher.Verify(m.dummyHash, plain)
		}
		return "", nil
	}

	ok, err := m.hasher.Verify(u.PasswordHash, plain)
	if err != nil {
		m.log.Warn("auth.login.hash_invalid", "username", u.Username, "err", err)
		return "", nil
	}
	if !ok {
		return "", nil
	}

	return m.sessions.Issue(ctx, u.Username)
}

// Logout revokes token and reports whether a session existed.
func (m *Manager) Logout(ctx context.Context, token string) (bool, error) {
	return m.sessions.Revoke(ctx, token)
}

// GetSession resolves token, renewing it when valid.
func (m *Manager) GetSession(ctx context.Context, token string) (*session.View, error) {
	return m.sessions.Lookup(ctx, token)
}

// GetUser returns the public projection of a user, or nil when absent.
func (m *Manager) GetUser(ctx context.Context, username string) (*PublicUser, error) {
	u, err := m.store.FindUserByUsername(ctx, identity.NormalizeUsername(username))
	if err != nil || u == nil {
		return nil, err
	}
	p := toPublic(*u)
	return &p, nil
}

// SetAdmin sets the admin flag and reports whether the user exists.
func (m *Manager) SetAdmin(ctx context.Context, username string, admin bool) (bool, error) {
	return m.store.SetAdmin(ctx, identity.NormalizeUsername(username), admin)
}

// GetAdmins lists every admin ordered by username.
func (m *Manager) GetAdmins(ctx context.Context) ([]PublicUser, error) {
	users, err := m.store.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, toPublic(u))
	}
	return out, nil
}

// ResetUsers deletes every user and re-seeds the initial admin.
// Sessions are not touched; the ones left behind are dangling.
func (m *Manager) ResetUsers(ctx context.Context) error {
	if err := m.store.DeleteAllUsers(ctx); err != nil {
		return err
	}
	return m.SeedAdmin(ctx)
}

// SeedAdmin inserts the configured initial admin unless the username exists.
func (m *Manager) SeedAdmin(ctx context.Context) error {
	if m.seed == nil {
		return nil
	}

	hash, err := m.hasher.Hash(m.seed.Password)
	if err != nil {
		return err
	}

	created, err := m.store.CreateUser(ctx, identity.User{
		Username:     identity.NormalizeUsername(m.seed.Username),
		PasswordHash: hash,
		FirstName:    m.seed.FirstName,
		LastName:     m.seed.LastName,
		Email:        identity.NormalizeEmail(m.seed.Email),
		Admin:        true,
	})
	if err != nil {
		return err
	}
	if created {
		m.log.Info("account.seed.ok", "username", identity.NormalizeUsername(m.seed.Username))
	}
	return nil
}

func toPublic(u identity.User) PublicUser {
	return PublicUser{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Admin:     u.Admin,
	}
}

package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a registered account as persisted by the store.
// PasswordHash must never leave the auth subsystem.
type User struct {
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Email        string
	Admin        bool
}

// Session maps a bearer token to a username until Expiration.
// Username is not a foreign key: a session may outlive its user.
type Session struct {
	Token      uuid.UUID
	Username   string
	Expiration time.Time
}

// Store is the persistence boundary for users and sessions.
//
// Contract:
//   - Lookups return (nil, nil) when nothing matches.
//   - Usernames are compared after NormalizeUsername.
//   - CreateUser, UpsertSession and RenewSession are atomic with respect to their keys.
//   - Every driver failure is returned as a StorageError.
type Store interface {
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	// CreateUser returns false if the normalized username already exists.
	CreateUser(ctx context.Context, u User) (bool, error)
	// SetAdmin returns false if no user matched.
	SetAdmin(ctx context.Context, username string, admin bool) (bool, error)
	ListAdmins(ctx context.Context) ([]User, error)
	DeleteAllUsers(ctx context.Context) error

	// UpsertSession inserts the session or replaces username and expiration for an existing token.
	UpsertSession(ctx context.Context, token uuid.UUID, username string, expiration time.Time) error
	// RenewSession moves the expiration of a session still live at now to
	// expiration. It never inserts and returns false if no live row matched.
	RenewSession(ctx context.Context, token uuid.UUID, now, expiration time.Time) (bool, error)
	FindSession(ctx context.Context, token uuid.UUID) (*Session, error)
	// DeleteSession returns true if a row was removed.
	DeleteSession(ctx context.Context, token uuid.UUID) (bool, error)
	// DeleteSessionsExpiredAt removes sessions with expiration <= cutoff and reports how many.
	DeleteSessionsExpiredAt(ctx context.Context, cutoff time.Time) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

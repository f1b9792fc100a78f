package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSchema is the Postgres schema holding board's tables.
const DefaultSchema = "board"

// PostgresStore implements Store over PostgreSQL.
//
// Design notes:
//   - The pgx pool is owned by the caller; Close does NOT close it.
//   - Schema identifiers are validated and quoted.
//   - Uniqueness and upserts are enforced by primary keys (ON CONFLICT), never check-then-insert.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "board").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema: %w", ErrInvalidInput)
		}
		if !pgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier %q: %w", schema, ErrInvalidInput)
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool: %w", ErrInvalidInput)
	}
	return st, nil
}

func (s *PostgresStore) users() string    { return pgIdent(s.schema, "users") }
func (s *PostgresStore) sessions() string { return pgIdent(s.schema, "sessions") }

// FindUserByUsername loads a user by normalized username.
func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	const op = "identity.FindUserByUsername"

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT username, password, first_name, last_name, email, admin
		   FROM `+s.users()+`
		  WHERE username = $1`,
		NormalizeUsername(username),
	).Scan(&u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Email, &u.Admin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &u, nil
}

// CreateUser inserts u unless its normalized username is already taken.
func (s *PostgresStore) CreateUser(ctx context.Context, u User) (bool, error) {
	const op = "identity.CreateUser"

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.users()+` (username, password, first_name, last_name, email, admin)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (username) DO NOTHING`,
		NormalizeUsername(u.Username),
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Email,
		u.Admin,
	)
	if err != nil {
		return false, storageErr(op, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetAdmin updates the admin flag of a user.
func (s *PostgresStore) SetAdmin(ctx context.Context, username string, admin bool) (bool, error) {
	const op = "identity.SetAdmin"

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.users()+` SET admin = $2 WHERE username = $1`,
		NormalizeUsername(username), admin,
	)
	if err != nil {
		return false, storageErr(op, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListAdmins returns every user with admin = true ordered by username.
func (s *PostgresStore) ListAdmins(ctx context.Context) ([]User, error) {
	const op = "identity.ListAdmins"

	rows, err := s.pool.Query(ctx,
		`SELECT username, password, first_name, last_name, email, admin
		   FROM `+s.users()+`
		  WHERE admin
		  ORDER BY username`,
	)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Email, &u.Admin); err != nil {
			return nil, storageErr(op, err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return out, nil
}

// DeleteAllUsers wipes the users table. Sessions are left for the reaper.
func (s *PostgresStore) DeleteAllUsers(ctx context.Context) error {
	const op = "identity.DeleteAllUsers"

	if _, err := s.pool.Exec(ctx, `DELETE FROM `+s.users()); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// UpsertSession inserts a session row or refreshes username+expiration of an existing token.
func (s *PostgresStore) UpsertSession(ctx context.Context, token uuid.UUID, username string, expiration time.Time) error {
	const op = "identity.UpsertSession"

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.sessions()+` (token, username, expiration)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO UPDATE
		   SET username = EXCLUDED.username,
		       expiration = EXCLUDED.expiration`,
		token[:], NormalizeUsername(username), expiration.UTC(),
	)
	if err != nil {
		return storageErr(op, err)
	}
	return nil
}

// RenewSession pushes expiration forward for a row that is still live at now.
func (s *PostgresStore) RenewSession(ctx context.Context, token uuid.UUID, now, expiration time.Time) (bool, error) {
	const op = "identity.RenewSession"

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.sessions()+`
		    SET expiration = $3
		  WHERE token = $1 AND expiration > $2`,
		token[:], now.UTC(), expiration.UTC(),
	)
	if err != nil {
		return false, storageErr(op, err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindSession loads a session row regardless of its expiration.
func (s *PostgresStore) FindSession(ctx context.Context, token uuid.UUID) (*Session, error) {
	const op = "identity.FindSession"

	var (
		raw  []byte
		sess Session
	)
	err := s.pool.QueryRow(ctx,
		`SELECT token, username, expiration
		   FROM `+s.sessions()+`
		  WHERE token = $1`,
		token[:],
	).Scan(&raw, &sess.Username, &sess.Expiration)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}

	id, err := uuid.FromBytes(raw)
	if err != nil {
		return nil, storageErr(op, err)
	}
	sess.Token = id
	return &sess, nil
}

// DeleteSession removes a single session row.
func (s *PostgresStore) DeleteSession(ctx context.Context, token uuid.UUID) (bool, error) {
	const op = "identity.DeleteSession"

	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.sessions()+` WHERE token = $1`, token[:])
	if err != nil {
		return false, storageErr(op, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteSessionsExpiredAt removes every session with expiration <= cutoff.
func (s *PostgresStore) DeleteSessionsExpiredAt(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "identity.DeleteSessionsExpiredAt"

	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.sessions()+` WHERE expiration <= $1`, cutoff.UTC())
	if err != nil {
		return 0, storageErr(op, err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks that a connection can be acquired and used.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return storageErr("identity.Ping", err)
	}
	return nil
}

// Close is a no-op: the pool belongs to the caller.
func (s *PostgresStore) Close() error { return nil }

// ---- helpers ----

// pgIdentIsValid checks if a string is a safe Postgres identifier.
func pgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

package identity

import (
	"context"
	"fmt"

	"board/cmd/identity/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate creates schema if needed and applies the embedded migrations inside it.
// Tables are created unqualified; search_path is pinned to schema for the
// migration connection, so goose's version table lives in the same schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if pool == nil {
		return fmt.Errorf("identity: nil pool: %w", ErrInvalidInput)
	}
	if !pgIdentIsValid(schema) {
		return fmt.Errorf("identity: invalid schema identifier %q: %w", schema, ErrInvalidInput)
	}

	if _, err := pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+pgx.Identifier{schema}.Sanitize()); err != nil {
		return storageErr("identity.Migrate", err)
	}

	cc := pool.Config().ConnConfig.Copy()
	if cc.RuntimeParams == nil {
		cc.RuntimeParams = make(map[string]string)
	}
	cc.RuntimeParams["search_path"] = schema

	db := stdlib.OpenDB(*cc)
	defer func() { _ = db.Close() }()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("identity: goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return storageErr("identity.Migrate", err)
	}
	return nil
}

// Package identity is board's credential store.
//
// It owns the user and session rows and nothing else: uniqueness of
// usernames, atomic session upserts and bulk expiry deletes. Business rules
// (email validation, expiry interpretation, token issuance) live in the
// account and session packages.
//
// Two implementations are provided: PostgresStore for production and
// MemoryStore for development and tests.
package identity

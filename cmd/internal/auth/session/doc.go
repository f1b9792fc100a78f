// Package session implements board's session-token lifecycle.
//
// A session token is a random UUID v4 handed to the client after login and
// mapped server-side to a username and an absolute expiration. Every
// successful lookup slides the expiration forward by Duration.
//
// Expiry is two-tier: a row whose expiration is at or before now is
// logically absent to callers, while physical deletion is left to the
// Reaper. Lookups never write for expired rows.
//
// Transport (HTTP) integration is intentionally out of scope here.
package session

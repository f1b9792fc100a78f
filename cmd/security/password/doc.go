// Package password provides password hashing and verification for board.
//
// Hashes are bcrypt strings ($2a$...) at a fixed work factor. Verification
// relies on bcrypt's constant-time comparison; a wrong password is a normal
// (false, nil) outcome, not an error.
//
// No length or complexity policy is applied. Input past bcrypt's 72-byte
// window is ignored, so two passwords sharing that prefix verify alike.
package password

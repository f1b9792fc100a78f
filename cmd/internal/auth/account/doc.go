// Package account implements registration, credential checks and role
// management on top of the credential store and the session manager.
//
// Rejections (bad credentials, taken usernames, malformed input) are
// reported as false, "" or nil. Only storage failures are errors.
package account

package session

import "errors"

var (
	// ErrTokenExhausted is returned when MaxIssueAttempts consecutive tokens collided with live sessions.
	ErrTokenExhausted = errors.New("session token generation exhausted")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

package identity

import "strings"

// NormalizeUsername canonicalizes a username for storage and lookup.
// Only lower-casing is applied; surrounding whitespace is significant.
func NormalizeUsername(s string) string {
	return strings.ToLower(s)
}

// NormalizeEmail canonicalizes an email address for storage.
func NormalizeEmail(s string) string {
	return strings.ToLower(s)
}

package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for every stored hash.
const DefaultCost = 10

// MaxInputBytes is the longest prefix bcrypt consumes. Longer passwords are
// truncated to it before hashing and verifying.
const MaxInputBytes = 72

// Hasher hashes and verifies passwords with bcrypt.
// The zero value uses DefaultCost.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher at DefaultCost.
func NewHasher() Hasher {
	return Hasher{Cost: DefaultCost}
}

func (h Hasher) cost() int {
	if h.Cost < bcrypt.MinCost || h.Cost > bcrypt.MaxCost {
		return DefaultCost
	}
	return h.Cost
}

// Hash returns a salted bcrypt hash of password.
func (h Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncate(password), h.cost())
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(b), nil
}

// Verify checks whether password matches encodedHash.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed or unsupported hashes.
func (h Hasher) Verify(encodedHash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), truncate(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > MaxInputBytes {
		b = b[:MaxInputBytes]
	}
	return b
}

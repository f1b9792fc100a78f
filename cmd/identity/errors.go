package identity

import (
	"errors"
	"fmt"
)

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	// ErrStorage marks any failure of the persistence backend.
	ErrStorage = errors.New("storage failure")

	// ErrInvalidInput is returned for programming errors such as a nil pool or a bad schema name.
	ErrInvalidInput = errors.New("invalid input")
)

// StorageError is a typed persistence failure with a stable Op for callers/tests.
// It unwraps to both ErrStorage and the underlying driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrStorage)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorage, e.Err)
}

func (e StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStorage}
	}
	return []error{ErrStorage, e.Err}
}

func storageErr(op string, err error) error {
	return StorageError{Op: op, Err: err}
}

// IsStorage reports whether err represents a storage failure.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }

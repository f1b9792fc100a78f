package app

import "errors"

// ErrConfig is returned (wrapped) for invalid runtime configuration.
var ErrConfig = errors.New("invalid config")

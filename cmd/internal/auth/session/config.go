package session

import (
	"os"
	"time"
)

const (
	// Duration is the session lifetime, applied at issuance and at every renewal.
	Duration = 14 * 24 * time.Hour

	// MaxIssueAttempts bounds token regeneration on collision.
	MaxIssueAttempts = 8

	// DefaultReapInterval is how often the Reaper purges expired sessions.
	DefaultReapInterval = 60 * time.Second
)

// Config defines the tunable part of the session subsystem.
// Session Duration is a fixed constant and not configurable.
type Config struct {
	// ReapInterval is the period between two expiry sweeps.
	ReapInterval time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ReapInterval: DefaultReapInterval,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (durations must be valid Go duration strings):
//   - BOARD_REAPER_INTERVAL (>= 1s)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("BOARD_REAPER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < time.Second {
			return Config{}, ErrConfig
		}
		cfg.ReapInterval = d
	}

	return cfg, nil
}

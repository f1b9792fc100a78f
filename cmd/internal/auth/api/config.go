package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// DefaultTokenHeader carries the session token on authenticated requests.
const DefaultTokenHeader = "x-access-token"

// Config controls HTTP API behavior.
type Config struct {
	// TokenHeader is the request header read by the session decoder.
	TokenHeader string
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		TokenHeader:  DefaultTokenHeader,
		MaxBodyBytes: 1 << 20, // 1 MiB
	}
}

// LoadConfigFromEnv loads API config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("BOARD_API_TOKEN_HEADER")); v != "" {
		cfg.TokenHeader = v
	}
	cfg.MaxBodyBytes = envInt64("BOARD_API_MAX_BODY_BYTES", cfg.MaxBodyBytes)
	return cfg.normalized()
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	c.TokenHeader = http.CanonicalHeaderKey(strings.TrimSpace(c.TokenHeader))
	if c.TokenHeader == "" {
		c.TokenHeader = http.CanonicalHeaderKey(def.TokenHeader)
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	return c
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

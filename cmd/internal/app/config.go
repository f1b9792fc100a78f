package app

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"board/cmd/identity"
	"board/cmd/internal/auth/session"

	"github.com/BurntSushi/toml"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config contains all runtime configuration.
//
// Values come from defaults, then the optional TOML file named by
// BOARD_CONFIG_FILE, then environment variables. Environment wins.
type Config struct {
	HTTPAddr  string `toml:"http_addr"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	ReadHeaderTimeout time.Duration `toml:"read_header_timeout"`
	ReadTimeout       time.Duration `toml:"read_timeout"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
	IdleTimeout       time.Duration `toml:"idle_timeout"`
	MaxHeaderBytes    int           `toml:"max_header_bytes"`

	Store string `toml:"store"`

	DatabaseURL string `toml:"database_url"`
	PGHost      string `toml:"pg_host"`
	PGPort      string `toml:"pg_port"`
	PGUser      string `toml:"pg_user"`
	PGPassword  string `toml:"pg_password"`
	PGDB        string `toml:"pg_db"`
	DBSchema    string `toml:"db_schema"`
	DBMaxConns  int32  `toml:"db_max_conns"`
	DBMinConns  int32  `toml:"db_min_conns"`

	ReaperInterval time.Duration `toml:"reaper_interval"`

	SeedAdmin         bool   `toml:"seed_admin"`
	SeedAdminUsername string `toml:"seed_admin_username"`
	SeedAdminPassword string `toml:"seed_admin_password"`
	SeedAdminEmail    string `toml:"seed_admin_email"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:  "0.0.0.0:2832",
		LogLevel:  "info",
		LogFormat: "json",

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,

		Store: StorePostgres,

		PGHost:     "localhost",
		PGPort:     "5432",
		PGUser:     "postgres",
		PGPassword: "example",
		PGDB:       "test",
		DBSchema:   identity.DefaultSchema,
		DBMaxConns: 10,
		DBMinConns: 0,

		ReaperInterval: session.DefaultReapInterval,

		SeedAdmin:         true,
		SeedAdminUsername: "admin",
		SeedAdminPassword: "admin",
		SeedAdminEmail:    "admin@localhost.localdomain",
	}
}

// LoadConfig builds Config from defaults, the optional config file and the environment.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := EnvString("BOARD_CONFIG_FILE", ""); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: config file %s: %v", ErrConfig, path, err)
		}
	}

	cfg.HTTPAddr = EnvString("BOARD_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = EnvString("BOARD_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = EnvString("BOARD_LOG_FORMAT", cfg.LogFormat)

	cfg.ReadHeaderTimeout = EnvDuration("BOARD_HTTP_READ_HEADER_TIMEOUT", cfg.ReadHeaderTimeout)
	cfg.ReadTimeout = EnvDuration("BOARD_HTTP_READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = EnvDuration("BOARD_HTTP_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = EnvDuration("BOARD_HTTP_IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.MaxHeaderBytes = EnvInt("BOARD_HTTP_MAX_HEADER_BYTES", cfg.MaxHeaderBytes)

	cfg.Store = strings.ToLower(EnvString("BOARD_STORE", cfg.Store))

	cfg.DatabaseURL = EnvString("BOARD_DATABASE_URL", cfg.DatabaseURL)
	cfg.PGHost = EnvString("PG_HOST", cfg.PGHost)
	cfg.PGPort = EnvString("PG_PORT", cfg.PGPort)
	cfg.PGUser = EnvString("PG_USER", cfg.PGUser)
	cfg.PGPassword = EnvString("PG_PASSWORD", cfg.PGPassword)
	cfg.PGDB = EnvString("PG_DB", cfg.PGDB)
	cfg.DBSchema = EnvString("BOARD_DB_SCHEMA", cfg.DBSchema)
	cfg.DBMaxConns = EnvInt32("BOARD_DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = EnvInt32("BOARD_DB_MIN_CONNS", cfg.DBMinConns)

	if os.Getenv("BOARD_REAPER_INTERVAL") != "" {
		sc, err := session.LoadConfigFromEnv()
		if err != nil {
			return Config{}, fmt.Errorf("%w: BOARD_REAPER_INTERVAL must be a duration of at least 1s", ErrConfig)
		}
		cfg.ReaperInterval = sc.ReapInterval
	}

	cfg.SeedAdmin = EnvBool("BOARD_SEED_ADMIN", cfg.SeedAdmin)
	cfg.SeedAdminUsername = EnvString("BOARD_SEED_ADMIN_USERNAME", cfg.SeedAdminUsername)
	cfg.SeedAdminPassword = EnvString("BOARD_SEED_ADMIN_PASSWORD", cfg.SeedAdminPassword)
	cfg.SeedAdminEmail = EnvString("BOARD_SEED_ADMIN_EMAIL", cfg.SeedAdminEmail)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("%w: BOARD_STORE must be %q or %q, got %q", ErrConfig, StorePostgres, StoreMemory, c.Store)
	}
	if c.ReaperInterval < time.Second {
		return fmt.Errorf("%w: reaper interval must be at least 1s", ErrConfig)
	}
	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("%w: BOARD_DB_MIN_CONNS exceeds BOARD_DB_MAX_CONNS", ErrConfig)
	}
	if c.SeedAdmin && (c.SeedAdminUsername == "" || c.SeedAdminPassword == "") {
		return fmt.Errorf("%w: seed admin requires a username and a password", ErrConfig)
	}
	return nil
}

// PostgresDSN returns DatabaseURL, or a URL assembled from the PG_* parts.
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PGUser, c.PGPassword),
		Host:   net.JoinHostPort(c.PGHost, c.PGPort),
		Path:   "/" + c.PGDB,
	}
	return u.String()
}

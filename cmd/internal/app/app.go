// Package app wires the board server runtime: config, logging, storage,
// the expiry reaper and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"board/cmd/identity"
	authapi "board/cmd/internal/auth/api"
	"board/cmd/internal/auth/account"
	"board/cmd/internal/auth/session"
	"board/cmd/internal/metrics"
	"board/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// App is the board server runtime: it owns the store, the reaper and HTTP wiring.
type App struct {
	cfg Config
	log Logger

	store  identity.Store
	dbPool *pgxpool.Pool

	metrics  *metrics.Metrics
	accounts *account.Manager
	reaper   *session.Reaper
	auth     *authapi.Handler
}

// Option configures optional App dependencies.
type Option func(*appOptions)

type appOptions struct {
	store   identity.Store
	hasher  account.Hasher
	metrics *metrics.Metrics
}

// WithStore replaces the configured store (tests).
func WithStore(s identity.Store) Option {
	return func(o *appOptions) { o.store = s }
}

// WithHasher replaces the production bcrypt hasher (tests).
func WithHasher(h account.Hasher) Option {
	return func(o *appOptions) { o.hasher = h }
}

// WithMetrics replaces the default metrics registry (tests).
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *appOptions) { o.metrics = m }
}

// New constructs a fully wired App: it opens and migrates the store and seeds
// the initial admin when configured.
func New(ctx context.Context, cfg Config, log Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	o := appOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}
	if o.hasher == nil {
		o.hasher = password.NewHasher()
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	store, pool := o.store, (*pgxpool.Pool)(nil)
	if store == nil {
		var err error
		store, pool, err = newStore(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
	}

	a, err := wire(ctx, cfg, log, store, o)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}
	a.dbPool = pool
	return a, nil
}

func wire(ctx context.Context, cfg Config, log Logger, store identity.Store, o appOptions) (*App, error) {
	sessions := session.NewManager(store)

	accOpts := []account.Option{account.WithLogger(log)}
	if cfg.SeedAdmin {
		accOpts = append(accOpts, account.WithInitialAdmin(account.InitialAdmin{
			Username:  cfg.SeedAdminUsername,
			Password:  cfg.SeedAdminPassword,
			FirstName: "admin",
			LastName:  "admin",
			Email:     cfg.SeedAdminEmail,
		}))
	}
	accounts, err := account.NewManager(store, sessions, o.hasher, accOpts...)
	if err != nil {
		return nil, err
	}
	if err := accounts.SeedAdmin(ctx); err != nil {
		return nil, err
	}

	auth, err := authapi.NewHandler(log, accounts, authapi.LoadConfigFromEnv(), authapi.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}

	reaper := session.NewReaper(store, cfg.ReaperInterval, log, session.WithReapHook(o.metrics.ObserveSweep))

	return &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		metrics:  o.metrics,
		accounts: accounts,
		reaper:   reaper,
		auth:     auth,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.store, a.metrics, a.auth)

	var h http.Handler = a.auth.Decode(mux)
	h = WithSecurityHeaders(h)
	h = WithRequestLogging(h, a.log, a.metrics)
	return WithRequestID(h)
}

// Accounts exposes the account manager (tests, tooling).
func (a *App) Accounts() *account.Manager { return a.accounts }

// Run starts the HTTP server and the reaper and blocks until context
// cancellation or a fatal server error. The store is closed before returning.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "store", a.cfg.Store)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server.fail", "err", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		return a.reaper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server.stop", "reason", "context_done")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			return err
		}
		return nil
	})

	err := g.Wait()

	if cerr := a.Close(); cerr != nil {
		a.log.Error("store.close.fail", "err", cerr)
	}

	a.log.Info("server.stopped")
	return err
}

// Close releases the store and, when owned, the connection pool.
func (a *App) Close() error {
	err := a.store.Close()
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
	return err
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory dev store.
func newStore(ctx context.Context, cfg Config, log Logger) (identity.Store, *pgxpool.Pool, error) {
	if cfg.Store == StoreMemory {
		log.Info("db.disabled.inmemory_store")
		return identity.NewMemoryStore(), nil, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// Ownership model:
	// - app owns pool lifecycle
	// - PostgresStore.Close() is a no-op
	if err := identity.Migrate(ctx, pool, cfg.DBSchema); err != nil {
		pool.Close()
		return nil, nil, err
	}

	store, err := identity.NewPostgresStore(pool, identity.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	log.Info("db.enabled.postgres_store", "schema", cfg.DBSchema)
	return store, pool, nil
}

package session

import (
	"context"
	"log/slog"
	"time"
)

// ReapHook observes the outcome of every sweep.
type ReapHook func(removed int64, err error)

// Reaper periodically deletes sessions whose expiration is at or before now.
type Reaper struct {
	store    Store
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
	hook     ReapHook
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithReapHook registers a callback invoked after each sweep.
func WithReapHook(h ReapHook) ReaperOption {
	return func(r *Reaper) { r.hook = h }
}

// WithReaperClock overrides the wall clock (tests).
func WithReaperClock(now func() time.Time) ReaperOption {
	return func(r *Reaper) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReaper constructs a Reaper. A non-positive interval falls back to DefaultReapInterval.
func NewReaper(store Store, interval time.Duration, log *slog.Logger, opts ...ReaperOption) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Reaper{
		store:    store,
		interval: interval,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Run sweeps once immediately and then every interval until ctx is done.
// Sweep failures are logged and never stop the loop. Run returns nil on cancellation.
func (r *Reaper) Run(ctx context.Context) error {
	r.log.Info("reaper.start", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper.stop")
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep performs a single purge and reports how many sessions were removed.
func (r *Reaper) Sweep(ctx context.Context) int64 {
	removed, err := r.store.DeleteSessionsExpiredAt(ctx, r.now())
	if r.hook != nil {
		r.hook(removed, err)
	}
	if err != nil {
		if ctx.Err() == nil {
			r.log.Warn("reaper.sweep.fail", "err", err)
		}
		return 0
	}
	if removed > 0 {
		r.log.Debug("reaper.sweep.ok", "removed", removed)
	}
	return removed
}

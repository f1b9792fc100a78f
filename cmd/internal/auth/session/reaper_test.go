package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"board/cmd/identity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReaper_SweepRemovesOnlyExpired(t *testing.T) {
	store := identity.NewMemoryStore()
	clock := newFakeClock()
	ctx := context.Background()

	require.NoError(t, store.UpsertSession(ctx, uuid.New(), "a", clock.Now().Add(-time.Minute)))
	require.NoError(t, store.UpsertSession(ctx, uuid.New(), "b", clock.Now()))
	require.NoError(t, store.UpsertSession(ctx, uuid.New(), "c", clock.Now().Add(time.Minute)))

	r := NewReaper(store, time.Minute, discardLogger(), WithReaperClock(clock.Now))
	require.Equal(t, int64(2), r.Sweep(ctx))
	require.Equal(t, 1, store.SessionCount())
}

func TestReaper_RunSweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	store := identity.NewMemoryStore()
	clock := newFakeClock()
	require.NoError(t, store.UpsertSession(context.Background(), uuid.New(), "a", clock.Now().Add(-time.Minute)))

	var (
		mu      sync.Mutex
		removed []int64
	)
	swept := make(chan struct{}, 1)

	r := NewReaper(store, time.Hour, discardLogger(),
		WithReaperClock(clock.Now),
		WithReapHook(func(n int64, err error) {
			mu.Lock()
			removed = append(removed, n)
			mu.Unlock()
			select {
			case swept <- struct{}{}:
			default:
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not sweep on start")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int64{1}, removed)
	require.Equal(t, 0, store.SessionCount())
}

type failingStore struct {
	identity.MemoryStore
	calls int
	mu    sync.Mutex
}

func (f *failingStore) DeleteSessionsExpiredAt(context.Context, time.Time) (int64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return 0, identity.StorageError{Op: "identity.DeleteSessionsExpiredAt"}
}

func (f *failingStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestReaper_FailuresDoNotStopLoop(t *testing.T) {
	store := &failingStore{}

	var errs int
	var mu sync.Mutex
	r := NewReaper(store, 10*time.Millisecond, discardLogger(), WithReapHook(func(_ int64, err error) {
		if err != nil {
			mu.Lock()
			errs++
			mu.Unlock()
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return store.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, errs, 3)
}

func TestNewReaper_DefaultsInterval(t *testing.T) {
	r := NewReaper(identity.NewMemoryStore(), 0, nil)
	require.Equal(t, DefaultReapInterval, r.interval)
	require.NotNil(t, r.log)
}

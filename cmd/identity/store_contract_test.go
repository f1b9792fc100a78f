package identity

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// testStoreContract exercises the Store contract against any implementation.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("CreateUser_CaseInsensitiveUniqueness", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ok, err := s.CreateUser(ctx, User{Username: "Alice", PasswordHash: "h1", FirstName: "A", LastName: "L", Email: "a@example.com"})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.CreateUser(ctx, User{Username: "aLICE", PasswordHash: "h2", FirstName: "B", LastName: "M", Email: "b@example.com"})
		require.NoError(t, err)
		require.False(t, ok, "duplicate normalized username must be rejected")

		u, err := s.FindUserByUsername(ctx, "ALICE")
		require.NoError(t, err)
		require.NotNil(t, u)
		require.Equal(t, "alice", u.Username)
		require.Equal(t, "h1", u.PasswordHash)
	})

	t.Run("CreateUser_ConcurrentSameUsername", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var (
			wg      sync.WaitGroup
			created atomic.Int32
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.CreateUser(ctx, User{Username: "racer", PasswordHash: "h", FirstName: "r", LastName: "r", Email: "r@example.com"})
				if err == nil && ok {
					created.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), created.Load())
	})

	t.Run("FindUserByUsername_Absent", func(t *testing.T) {
		s := newStore(t)
		u, err := s.FindUserByUsername(context.Background(), "ghost")
		require.NoError(t, err)
		require.Nil(t, u)
	})

	t.Run("SetAdmin_AndListAdmins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, name := range []string{"zed", "amy", "bob"} {
			ok, err := s.CreateUser(ctx, User{Username: name, PasswordHash: "h", FirstName: "f", LastName: "l", Email: name + "@example.com"})
			require.NoError(t, err)
			require.True(t, ok)
		}

		ok, err := s.SetAdmin(ctx, "ZED", true)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = s.SetAdmin(ctx, "amy", true)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.SetAdmin(ctx, "nobody", true)
		require.NoError(t, err)
		require.False(t, ok)

		admins, err := s.ListAdmins(ctx)
		require.NoError(t, err)
		require.Len(t, admins, 2)
		require.Equal(t, "amy", admins[0].Username)
		require.Equal(t, "zed", admins[1].Username)

		ok, err = s.SetAdmin(ctx, "amy", false)
		require.NoError(t, err)
		require.True(t, ok)

		admins, err = s.ListAdmins(ctx)
		require.NoError(t, err)
		require.Len(t, admins, 1)
	})

	t.Run("DeleteAllUsers", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateUser(ctx, User{Username: "x", PasswordHash: "h", FirstName: "f", LastName: "l", Email: "x@example.com"})
		require.NoError(t, err)
		require.NoError(t, s.DeleteAllUsers(ctx))

		u, err := s.FindUserByUsername(ctx, "x")
		require.NoError(t, err)
		require.Nil(t, u)
	})

	t.Run("UpsertSession_InsertThenUpdate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		token := uuid.New()
		exp1 := time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond)
		exp2 := exp1.Add(time.Hour)

		require.NoError(t, s.UpsertSession(ctx, token, "alice", exp1))
		require.NoError(t, s.UpsertSession(ctx, token, "bob", exp2))

		sess, err := s.FindSession(ctx, token)
		require.NoError(t, err)
		require.NotNil(t, sess)
		require.Equal(t, token, sess.Token)
		require.Equal(t, "bob", sess.Username)
		require.True(t, sess.Expiration.Equal(exp2), "expiration=%v want %v", sess.Expiration, exp2)
	})

	t.Run("DeleteSession_ReportsExistence", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		token := uuid.New()
		require.NoError(t, s.UpsertSession(ctx, token, "alice", time.Now().Add(time.Hour)))

		ok, err := s.DeleteSession(ctx, token)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.DeleteSession(ctx, token)
		require.NoError(t, err)
		require.False(t, ok)

		sess, err := s.FindSession(ctx, token)
		require.NoError(t, err)
		require.Nil(t, sess)
	})

	t.Run("DeleteSessionsExpiredAt_Inclusive", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		cutoff := time.Now().UTC().Truncate(time.Second)
		past, atCutoff, future := uuid.New(), uuid.New(), uuid.New()

		require.NoError(t, s.UpsertSession(ctx, past, "a", cutoff.Add(-time.Minute)))
		require.NoError(t, s.UpsertSession(ctx, atCutoff, "b", cutoff))
		require.NoError(t, s.UpsertSession(ctx, future, "c", cutoff.Add(time.Minute)))

		n, err := s.DeleteSessionsExpiredAt(ctx, cutoff)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		for _, gone := range []uuid.UUID{past, atCutoff} {
			sess, err := s.FindSession(ctx, gone)
			require.NoError(t, err)
			require.Nil(t, sess)
		}
		sess, err := s.FindSession(ctx, future)
		require.NoError(t, err)
		require.NotNil(t, sess)
	})

	t.Run("RenewSession_UpdatesLiveRowOnly", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		now := time.Now().UTC().Truncate(time.Millisecond)
		live, expired := uuid.New(), uuid.New()
		require.NoError(t, s.UpsertSession(ctx, live, "alice", now.Add(time.Minute)))
		require.NoError(t, s.UpsertSession(ctx, expired, "alice", now))

		renewed := now.Add(time.Hour)
		ok, err := s.RenewSession(ctx, live, now, renewed)
		require.NoError(t, err)
		require.True(t, ok)

		sess, err := s.FindSession(ctx, live)
		require.NoError(t, err)
		require.NotNil(t, sess)
		require.Equal(t, "alice", sess.Username)
		require.True(t, sess.Expiration.Equal(renewed), "expiration=%v want %v", sess.Expiration, renewed)

		// Expiration equal to now is already expired.
		ok, err = s.RenewSession(ctx, expired, now, renewed)
		require.NoError(t, err)
		require.False(t, ok)

		sess, err = s.FindSession(ctx, expired)
		require.NoError(t, err)
		require.True(t, sess.Expiration.Equal(now))
	})

	t.Run("RenewSession_NeverInserts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		token := uuid.New()
		now := time.Now().UTC()
		require.NoError(t, s.UpsertSession(ctx, token, "alice", now.Add(time.Hour)))

		ok, err := s.DeleteSession(ctx, token)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.RenewSession(ctx, token, now, now.Add(2*time.Hour))
		require.NoError(t, err)
		require.False(t, ok)

		sess, err := s.FindSession(ctx, token)
		require.NoError(t, err)
		require.Nil(t, sess)
	})

	t.Run("RenewSession_ConcurrentWithDelete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		token := uuid.New()
		now := time.Now().UTC()
		require.NoError(t, s.UpsertSession(ctx, token, "alice", now.Add(time.Hour)))

		var (
			wg     sync.WaitGroup
			failed atomic.Int32
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					if _, err := s.RenewSession(ctx, token, now, now.Add(2*time.Hour)); err != nil {
						failed.Add(1)
					}
				}
			}()
		}

		ok, err := s.DeleteSession(ctx, token)
		require.NoError(t, err)
		require.True(t, ok)
		wg.Wait()
		require.Zero(t, failed.Load())

		sess, err := s.FindSession(ctx, token)
		require.NoError(t, err)
		require.Nil(t, sess, "renewal must not recreate a deleted session")
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Ping(context.Background()))
	})
}

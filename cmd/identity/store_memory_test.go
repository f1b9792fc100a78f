package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	testStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStore_CancelledContext_IsStorageError(t *testing.T) {
	s := NewMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindUserByUsername(ctx, "alice")
	require.Error(t, err)
	require.True(t, IsStorage(err))
	require.True(t, errors.Is(err, context.Canceled))

	var se StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "identity.FindUserByUsername", se.Op)
}

func TestMemoryStore_FindUserReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)

	u, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	u.Admin = true

	again, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.False(t, again.Admin)
}

func TestMemoryStore_SessionCountIncludesExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.UpsertSession(ctx, uuid.New(), "a", time.Now().Add(-time.Hour)))
	require.NoError(t, s.UpsertSession(ctx, uuid.New(), "b", time.Now().Add(time.Hour)))
	require.Equal(t, 2, s.SessionCount())
}

func TestStorageError_Format(t *testing.T) {
	err := StorageError{Op: "identity.CreateUser", Err: errors.New("connection reset")}
	require.Equal(t, "identity.CreateUser: storage failure: connection reset", err.Error())

	bare := StorageError{Op: "identity.Ping"}
	require.Equal(t, "identity.Ping: storage failure", bare.Error())
	require.True(t, IsStorage(bare))
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "test", NormalizeUsername("TesT"))
	require.Equal(t, " test", NormalizeUsername(" TEST"))
	require.Equal(t, "user@example.com", NormalizeEmail("User@Example.COM"))
}

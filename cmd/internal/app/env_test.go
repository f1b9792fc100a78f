package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BOARD_TEST_STRING", "  value ")
	t.Setenv("BOARD_TEST_BOOL", "false")
	t.Setenv("BOARD_TEST_INT", "42")
	t.Setenv("BOARD_TEST_INT32", "0")
	t.Setenv("BOARD_TEST_DURATION", "90s")

	require.Equal(t, "value", EnvString("BOARD_TEST_STRING", "def"))
	require.False(t, EnvBool("BOARD_TEST_BOOL", true))
	require.Equal(t, 42, EnvInt("BOARD_TEST_INT", 1))
	require.Equal(t, int32(0), EnvInt32("BOARD_TEST_INT32", 7))
	require.Equal(t, 90*time.Second, EnvDuration("BOARD_TEST_DURATION", time.Second))
}

func TestEnvHelpers_FallBackToDefault(t *testing.T) {
	t.Setenv("BOARD_TEST_STRING", "   ")
	t.Setenv("BOARD_TEST_BOOL", "maybe")
	t.Setenv("BOARD_TEST_INT", "0")
	t.Setenv("BOARD_TEST_INT32", "-3")
	t.Setenv("BOARD_TEST_DURATION", "-1m")

	require.Equal(t, "def", EnvString("BOARD_TEST_STRING", "def"))
	require.True(t, EnvBool("BOARD_TEST_BOOL", true))
	require.Equal(t, 1, EnvInt("BOARD_TEST_INT", 1))
	require.Equal(t, int32(7), EnvInt32("BOARD_TEST_INT32", 7))
	require.Equal(t, time.Second, EnvDuration("BOARD_TEST_DURATION", time.Second))

	t.Setenv("BOARD_TEST_INT32", "99999999999")
	require.Equal(t, int32(7), EnvInt32("BOARD_TEST_INT32", 7))
}

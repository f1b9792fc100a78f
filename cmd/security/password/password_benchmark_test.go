package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func BenchmarkHash_DefaultCost(b *testing.B) {
	h := NewHasher()
	pw := "this is a strong password 123!"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := h.Hash(pw)
		require.NoError(b, err)
	}
}

func BenchmarkVerify_DefaultCost(b *testing.B) {
	h := NewHasher()
	pw := "this is a strong password 123!"
	enc, err := h.Hash(pw)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ok, err := h.Verify(enc, pw)
		require.NoError(b, err)
		require.True(b, ok)
	}
}

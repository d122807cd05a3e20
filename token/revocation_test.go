package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRevokedTokenCache(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	NowTimeFunc = func() time.Time { return now }
	defer func() { NowTimeFunc = time.Now }()

	cache := NewInMemoryRevokedTokenCache()
	require.NoError(t, cache.Add("live", now.Add(time.Hour)))
	require.NoError(t, cache.Add("dead", now.Add(-time.Hour)))
	require.NoError(t, cache.Add("", now.Add(time.Hour)))

	require.True(t, cache.IsRevoked("live"))
	require.False(t, cache.IsRevoked("dead"))
	require.Equal(t, 1, cache.Len())

	now = now.Add(2 * time.Hour)
	cache.Cleanup()
	require.False(t, cache.IsRevoked("live"))
	require.Equal(t, 0, cache.Len())
}

package rate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewMemory()
	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("1.2.3.4", 3, time.Minute)
		require.True(t, ok, "request %d", i)
	}

	ok, wait := l.Allow("1.2.3.4", 3, time.Minute)
	require.False(t, ok)
	require.Greater(t, wait, time.Duration(0))
	require.LessOrEqual(t, wait, 20*time.Second)

	ok, _ = l.Allow("5.6.7.8", 3, time.Minute)
	require.True(t, ok)
}

func TestAllowRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewMemory()
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("k", 1, time.Second)
	require.True(t, ok)
	ok, _ = l.Allow("k", 1, time.Second)
	require.False(t, ok)

	now = now.Add(time.Second)
	ok, _ = l.Allow("k", 1, time.Second)
	require.True(t, ok)
}

func TestZeroLimitDisables(t *testing.T) {
	l := NewMemory()
	for i := 0; i < 10; i++ {
		ok, _ := l.Allow("k", 0, time.Minute)
		require.True(t, ok)
	}
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewMemory()
	l.now = func() time.Time { return now }

	l.Allow("idle", 1, time.Second)
	now = now.Add(time.Minute)
	l.sweepLocked(now)
	require.Empty(t, l.store)
}

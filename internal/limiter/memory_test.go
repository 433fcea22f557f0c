package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Window(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Now()
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "b1", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := l.Allow(ctx, "b1", 3, time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	// a different key has its own budget
	ok, err = l.Allow(ctx, "b2", 3, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// the window rolls over
	now = now.Add(2 * time.Minute)
	ok, err = l.Allow(ctx, "b1", 3, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryDeduplicator(t *testing.T) {
	d := NewMemoryDeduplicator()
	now := time.Now()
	d.clock = func() time.Time { return now }
	ctx := context.Background()

	seen, err := d.Seen(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = d.Seen(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, seen)

	now = now.Add(2 * time.Minute)
	seen, err = d.Seen(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.False(t, seen)
}

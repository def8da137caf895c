package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestLimiter_BurstThenRefill(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	lim := newLimiter(Config{RequestsPerSecond: 2, Burst: 2}, clock.now)

	assert.True(t, lim.Allow())
	assert.True(t, lim.Allow())
	assert.False(t, lim.Allow())

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.True(t, lim.Allow())
	assert.False(t, lim.Allow())
}

func TestLimiter_ReserveReportsWait(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	lim := newLimiter(Config{RequestsPerSecond: 4, Burst: 1}, clock.now)

	_, ok := lim.reserve()
	require.True(t, ok)
	wait, ok := lim.reserve()
	assert.False(t, ok)
	assert.Equal(t, 250*time.Millisecond, wait)
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 0.001, Burst: 1})
	require.True(t, lim.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, lim.Wait(ctx), context.DeadlineExceeded)
}

func TestManager_KeysAreIndependent(t *testing.T) {
	m := NewManager(Config{RequestsPerSecond: 0.001, Burst: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, m.Wait(ctx, "a"))
	require.NoError(t, m.Wait(ctx, "b"))
	assert.Same(t, m.limiter("a"), m.limiter("a"))
	assert.NotSame(t, m.limiter("a"), m.limiter("b"))
}

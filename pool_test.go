package redio

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func newTestPool(t *testing.T, opts ...PoolOption) (*Pool, *miniredis.Miniredis) {
	t.Helper()
	m := startMiniredis(t)
	p, err := NewPool("redis://"+m.Addr(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, m
}

func TestPoolPingAndBasicCommand(t *testing.T) {
	p, _ := newTestPool(t)
	ctx := context.Background()
	require.NoError(t, p.Ping(ctx))

	res, err := p.DB().Set("k", "v").Await(ctx)
	require.NoError(t, err)
	assert.Nil(t, res) // SET is a no-output command

	res, err = p.DB().Get("k").Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), res)
}

func TestPoolReleaseReturnsConnectionToIdle(t *testing.T) {
	p, _ := newTestPool(t)
	ctx := context.Background()

	_, err := p.DB().Ping().Await(ctx)
	require.NoError(t, err)

	live, idle := p.Stats()
	assert.Equal(t, 1, live)
	assert.Equal(t, 1, idle)
}

func TestPoolReusesIdleConnectionLIFO(t *testing.T) {
	p, _ := newTestPool(t)
	ctx := context.Background()

	conn1, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(conn1, false)

	conn2, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, conn1, conn2)
}

func TestPoolAcquireBlocksAtMaxSizeUntilRelease(t *testing.T) {
	p, _ := newTestPool(t, WithMaxSize(1))
	ctx := context.Background()

	conn1, err := p.Acquire(ctx)
	require.NoError(t, err)

	acquired := make(chan *Connection, 1)
	go func() {
		c, err := p.Acquire(ctx)
		if err == nil {
			acquired <- c
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should have blocked while pool is at capacity")
	case <-time.After(100 * time.Millisecond):
	}

	p.Release(conn1, false)

	select {
	case c := <-acquired:
		assert.Same(t, conn1, c)
	case <-time.After(time.Second):
		t.Fatal("second Acquire never unblocked after Release")
	}
}

func TestPoolAcquireRespectsContextCancellation(t *testing.T) {
	p, _ := newTestPool(t, WithMaxSize(1))
	ctx := context.Background()

	_, err := p.Acquire(ctx)
	require.NoError(t, err)

	cctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(cctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolCloseFailsFurtherAcquires(t *testing.T) {
	p, _ := newTestPool(t)
	require.NoError(t, p.Close())

	_, err := p.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolStatsNeverNegative(t *testing.T) {
	p, _ := newTestPool(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := p.DB().Ping().Await(ctx)
		require.NoError(t, err)
	}
	live, idle := p.Stats()
	assert.GreaterOrEqual(t, live, 0)
	assert.GreaterOrEqual(t, idle, 0)
	assert.LessOrEqual(t, idle, live)
}

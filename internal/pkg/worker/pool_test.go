package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventfin.io/eventfin/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func TestNewPools(t *testing.T) {
	pools, err := NewPools(context.Background(), DefaultPoolConfig())
	require.NoError(t, err)
	defer pools.Shutdown()

	require.NotNil(t, pools.General)
	require.NotNil(t, pools.Notify)

	m := pools.Metrics()
	require.Equal(t, 50, m[PoolGeneral]["cap"])
	require.Equal(t, 20, m[PoolNotify]["cap"])
}

func TestPool_Submit(t *testing.T) {
	pools, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: 2, NotifyPoolSize: 2})
	require.NoError(t, err)
	defer pools.Shutdown()

	var executed atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, pools.General.Submit(context.Background(), func(context.Context) {
		executed.Store(true)
		wg.Done()
	}))
	wg.Wait()
	require.True(t, executed.Load())
}

func TestPool_SubmitCancelledContext(t *testing.T) {
	pools, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: 1, NotifyPoolSize: 1})
	require.NoError(t, err)
	defer pools.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = pools.General.Submit(ctx, func(context.Context) { t.Error("task must not run") })
	require.ErrorIs(t, err, context.Canceled)
}

func TestPools_SubmitDetached(t *testing.T) {
	pools, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: 1, NotifyPoolSize: 4})
	require.NoError(t, err)
	defer pools.Shutdown()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		require.NoError(t, pools.SubmitDetached(PoolNotify, func(ctx context.Context) {
			defer wg.Done()
			require.NoError(t, ctx.Err())
			count.Add(1)
		}))
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("detached tasks did not finish")
	}
	require.EqualValues(t, 8, count.Load())
}

func TestPools_SubmitAfterShutdown(t *testing.T) {
	pools, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: 1, NotifyPoolSize: 1})
	require.NoError(t, err)
	pools.Shutdown()

	err = pools.SubmitDetached(PoolNotify, func(context.Context) {})
	require.ErrorIs(t, err, ErrPoolClosed)
}

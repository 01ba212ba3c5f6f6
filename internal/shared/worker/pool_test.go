package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPool_RunsAllTasks(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 2, zap.NewNop())
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	var n int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			atomic.AddInt32(&n, 1)
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(10), atomic.LoadInt32(&n))
	assert.Equal(t, 2, p.Stats()["cap"])
}

func TestPool_CancelledContextRejected(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 1, nil)
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Submit(ctx, func(context.Context) { t.Error("task must not run") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 1, nil)
	require.NoError(t, err)
	p.Shutdown(time.Second)

	err = p.Submit(context.Background(), func(context.Context) {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_RunWaitsForAll(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 3, nil)
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	var n int32
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = func(context.Context) { atomic.AddInt32(&n, 1) }
	}
	require.NoError(t, p.Run(context.Background(), tasks))
	assert.Equal(t, int32(20), atomic.LoadInt32(&n))
}

func TestPool_NonblockingRejectsWhenBusy(t *testing.T) {
	p, err := NewPool(context.Background(), "mail", 1, nil, Nonblocking())
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	begin := time.Now()
	err = p.Submit(context.Background(), func(context.Context) { t.Error("task must not run") })
	assert.ErrorIs(t, err, ErrPoolBusy)
	assert.Less(t, time.Since(begin), 100*time.Millisecond)
	close(release)
}

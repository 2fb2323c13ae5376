package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_SubmitReturnsTaskResult(t *testing.T) {
	p := New(&Config{Name: "test", MaxWorkers: 2}, nil)
	defer p.Shutdown(context.Background())

	require.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))

	want := errors.New("boom")
	assert.ErrorIs(t, p.Submit(context.Background(), func(context.Context) error { return want }), want)
	assert.Equal(t, int64(1), p.GetMetrics().FailedCount)
}

func TestPool_PanicBecomesError(t *testing.T) {
	p := New(&Config{MaxWorkers: 1}, nil)
	defer p.Shutdown(context.Background())

	err := p.Submit(context.Background(), func(context.Context) error { panic("bad task") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad task")

	// worker 仍然可用
	assert.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))
}

func TestPool_QueueFull(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error { return nil }))
	assert.ErrorIs(t, p.SubmitAsync(context.Background(), func(context.Context) error { return nil }), ErrWorkerPoolFull)

	close(release)
}

func TestPool_ShutdownDrainsQueue(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 8}, nil)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
			time.Sleep(time.Millisecond)
			ran.Add(1)
			return nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
	assert.Equal(t, int32(5), ran.Load())

	assert.True(t, p.IsClosed())
	assert.ErrorIs(t, p.SubmitAsync(context.Background(), func(context.Context) error { return nil }), ErrWorkerPoolClosed)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestPool_CancelledContextSkipsTask(t *testing.T) {
	p := New(&Config{MaxWorkers: 1}, nil)
	defer p.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran bool
	err := p.Submit(ctx, func(context.Context) error { ran = true; return nil })
	assert.Error(t, err)
	assert.False(t, ran)
}

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

func TestPool_Submit(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 4}, nil)
	defer p.Shutdown(context.Background())

	want := errors.New("boom")
	err := p.Submit(context.Background(), func(ctx context.Context) error { return want })
	assert.Equal(t, want, err)

	assert.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error { return nil }))
}

func TestPool_RunAllKeepsOrder(t *testing.T) {
	p := New(&Config{MaxWorkers: 3, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	var ran atomic.Int32
	fns := make([]func(context.Context) error, 20)
	for i := range fns {
		i := i
		fns[i] = func(ctx context.Context) error {
			ran.Add(1)
			if i%5 == 0 {
				return errors.New("flagged")
			}
			return nil
		}
	}

	errs := p.RunAll(context.Background(), fns)
	require.Len(t, errs, 20)
	assert.Equal(t, int32(20), ran.Load())
	for i, err := range errs {
		if i%5 == 0 {
			assert.Error(t, err, "index %d", i)
		} else {
			assert.NoError(t, err, "index %d", i)
		}
	}
}

func TestPool_SubmitAsyncFullQueue(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.SubmitAsync(context.Background(), func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	require.NoError(t, p.SubmitAsync(context.Background(), func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, p.SubmitAsync(context.Background(), func(ctx context.Context) error { return nil }), ErrWorkerPoolFull)
	close(release)
}

func TestPool_ClosedRejects(t *testing.T) {
	p := New(nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	assert.ErrorIs(t, p.Submit(context.Background(), func(ctx context.Context) error { return nil }), ErrWorkerPoolClosed)
	assert.True(t, p.GetMetrics().IsClosed)
}

package writequeue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SerializesPerKey(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
		order    []int
	)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := m.Execute(context.Background(), 42, func() error {
				mu.Lock()
				inFlight++
				if inFlight > maxSeen {
					maxSeen = inFlight
				}
				order = append(order, i)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Len(t, order, 20)
	assert.Equal(t, 1, m.QueueCount())
}

func TestManager_CancelledContext(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.Execute(ctx, 1, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestManager_ClosedRejects(t *testing.T) {
	m := New(&Config{IdleTimeout: time.Minute}, nil)
	require.NoError(t, m.Execute(context.Background(), 5, func() error { return nil }))
	require.NoError(t, m.Shutdown(context.Background()))

	assert.ErrorIs(t, m.Execute(context.Background(), 5, func() error { return nil }), ErrWriteQueueClosed)
}

func TestManager_CleanupIdle(t *testing.T) {
	m := New(&Config{IdleTimeout: time.Hour}, nil)
	defer m.Shutdown(context.Background())

	require.NoError(t, m.Execute(context.Background(), 9, func() error { return nil }))
	assert.Equal(t, 1, m.QueueCount())

	m.mu.Lock()
	m.queues[9].lastUsed.Store(time.Now().Add(-2 * time.Hour).UnixNano())
	m.mu.Unlock()

	m.cleanupIdle()
	assert.Equal(t, 0, m.QueueCount())
}

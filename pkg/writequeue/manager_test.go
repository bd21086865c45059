package writequeue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSerializesSameKey(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		order   []int
	)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := m.Execute(context.Background(), "owner:1", func() error {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				order = append(order, i)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Len(t, order, 20)
}

func TestExecuteFIFOForSequentialSubmitters(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	var got []string
	var mu sync.Mutex

	go func() {
		_ = m.Execute(context.Background(), "note:/a", func() error {
			close(started)
			<-release
			mu.Lock()
			got = append(got, "first")
			mu.Unlock()
			return nil
		})
	}()
	<-started

	secondDone := make(chan error, 1)
	go func() {
		secondDone <- m.Execute(context.Background(), "note:/a", func() error {
			mu.Lock()
			got = append(got, "second")
			mu.Unlock()
			return nil
		})
	}()

	require.Eventually(t, func() bool { return m.QueuedCount("note:/a") == 1 }, time.Second, time.Millisecond)
	close(release)
	require.NoError(t, <-secondDone)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestExecuteDifferentKeysRunConcurrently(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	block := make(chan struct{})
	inA := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "a", func() error {
			close(inA)
			<-block
			return nil
		})
	}()
	<-inA

	err := m.Execute(context.Background(), "b", func() error { return nil })
	require.NoError(t, err)
	close(block)
	assert.Equal(t, 2, m.GetMetrics().ActiveQueues)
}

func TestExecuteReturnsOperationError(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	boom := errors.New("boom")
	err := m.Execute(context.Background(), "k", func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestExecuteQueueFull(t *testing.T) {
	m := New(&Config{QueueCapacity: 1}, nil)
	defer m.Shutdown(context.Background())

	block := make(chan struct{})
	running := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "k", func() error {
			close(running)
			<-block
			return nil
		})
	}()
	<-running

	go func() {
		_ = m.Execute(context.Background(), "k", func() error { return nil })
	}()
	require.Eventually(t, func() bool { return m.QueuedCount("k") == 1 }, time.Second, time.Millisecond)

	err := m.Execute(context.Background(), "k", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueFull)
	close(block)
}

func TestExecuteTimeout(t *testing.T) {
	m := New(&Config{WriteTimeout: 10 * time.Millisecond}, nil)
	defer m.Shutdown(context.Background())

	block := make(chan struct{})
	defer close(block)
	err := m.Execute(context.Background(), "k", func() error {
		<-block
		return nil
	})
	assert.ErrorIs(t, err, ErrWriteTimeout)
}

func TestExecuteCancelledContextSkipsOperation(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.Execute(ctx, "k", func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestIdleLaneIsReleased(t *testing.T) {
	m := New(&Config{IdleTimeout: 5 * time.Millisecond}, nil)
	defer m.Shutdown(context.Background())

	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
	require.Eventually(t, func() bool { return m.QueueCount() == 0 }, time.Second, time.Millisecond)

	// a released lane is recreated on demand
	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
	assert.Equal(t, int64(2), m.GetMetrics().Executed)
}

func TestShutdown(t *testing.T) {
	m := New(nil, nil)
	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, m.IsClosed())
	// second call is a no-op
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Execute(context.Background(), "k", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)
}

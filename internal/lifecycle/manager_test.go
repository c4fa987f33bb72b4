package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmickel/gno/internal/gnoerr"
)

func TestManagerLoadCachesWarmHandle(t *testing.T) {
	var calls int32
	loadFn := func(ctx context.Context, uri, typ string) (any, *gnoerr.Error) {
		atomic.AddInt32(&calls, 1)
		return "handle:" + uri, nil
	}
	m := New(Config{LoadTimeout: time.Second, WarmModelTTL: time.Minute}, loadFn, func(any) {})

	h1, err := m.Load(context.Background(), "hf:a/b/c.gguf", "embed")
	require.Nil(t, err)
	h2, err := m.Load(context.Background(), "hf:a/b/c.gguf", "embed")
	require.Nil(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, int32(1), calls)
}

func TestManagerLoadDedupsConcurrentCalls(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	loadFn := func(ctx context.Context, uri, typ string) (any, *gnoerr.Error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return "handle", nil
	}
	m := New(Config{LoadTimeout: 5 * time.Second, WarmModelTTL: time.Minute}, loadFn, func(any) {})

	var wg sync.WaitGroup
	results := make([]any, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, _ := m.Load(context.Background(), "hf:a/b/c.gguf", "embed")
			results[i] = h
		}(i)
	}
	<-started
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls)
	assert.Equal(t, results[0], results[1])
}

func TestManagerLoadTimeoutDisposesLateArrival(t *testing.T) {
	release := make(chan struct{})
	disposed := make(chan any, 1)
	loadFn := func(ctx context.Context, uri, typ string) (any, *gnoerr.Error) {
		<-release
		return "late-handle", nil
	}
	m := New(Config{LoadTimeout: 20 * time.Millisecond, WarmModelTTL: time.Minute}, loadFn, func(h any) {
		disposed <- h
	})

	_, err := m.Load(context.Background(), "hf:a/b/c.gguf", "embed")
	require.NotNil(t, err)
	assert.Equal(t, gnoerr.CodeTimeout, err.Code)

	close(release)
	select {
	case h := <-disposed:
		assert.Equal(t, "late-handle", h)
	case <-time.After(time.Second):
		t.Fatal("late handle was never disposed")
	}
}

func TestManagerDisposeAndDisposeAll(t *testing.T) {
	var disposedCount int32
	loadFn := func(ctx context.Context, uri, typ string) (any, *gnoerr.Error) {
		return uri, nil
	}
	m := New(Config{LoadTimeout: time.Second, WarmModelTTL: time.Minute}, loadFn, func(any) {
		atomic.AddInt32(&disposedCount, 1)
	})

	_, err := m.Load(context.Background(), "hf:a/b/1.gguf", "embed")
	require.Nil(t, err)
	_, err = m.Load(context.Background(), "hf:a/b/2.gguf", "embed")
	require.Nil(t, err)

	m.Dispose("hf:a/b/1.gguf")
	assert.Equal(t, int32(1), disposedCount)
	assert.Equal(t, 1, m.Len())

	m.DisposeAll()
	assert.Equal(t, int32(2), disposedCount)
	assert.Equal(t, 0, m.Len())
}

func TestManagerTouchResetsIdleTimer(t *testing.T) {
	loadFn := func(ctx context.Context, uri, typ string) (any, *gnoerr.Error) {
		return "h", nil
	}
	disposed := make(chan struct{}, 1)
	m := New(Config{LoadTimeout: time.Second, WarmModelTTL: 60 * time.Millisecond}, loadFn, func(any) {
		disposed <- struct{}{}
	})

	_, err := m.Load(context.Background(), "hf:a/b/c.gguf", "embed")
	require.Nil(t, err)

	// Touch repeatedly, well under the TTL each time, and confirm it
	// never expires while actively used.
	for i := 0; i < 5; i++ {
		time.Sleep(30 * time.Millisecond)
		_, err := m.Load(context.Background(), "hf:a/b/c.gguf", "embed")
		require.Nil(t, err)
	}
	select {
	case <-disposed:
		t.Fatal("model disposed despite being touched within its TTL")
	default:
	}
}

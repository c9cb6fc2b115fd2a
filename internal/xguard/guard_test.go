package xguard

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusiveLifecycle(t *testing.T) {
	g := New(nil)

	h1, ok := g.AcquireExclusive()
	require.True(t, ok)
	require.NotNil(t, h1)

	// a second handle is unavailable while the first is live
	h2, ok := g.AcquireExclusive()
	assert.False(t, ok)
	assert.Nil(t, h2)

	// still unavailable: the failed attempt must not have altered state
	_, ok = g.AcquireExclusive()
	assert.False(t, ok)

	h1.Release()

	// releasing enables re-acquisition
	h3, ok := g.AcquireExclusive()
	require.True(t, ok)
	h3.Release()
}

func TestDoubleReleaseIsNoop(t *testing.T) {
	g := New(nil)
	h, ok := g.AcquireExclusive()
	require.True(t, ok)
	h.Release()

	h2, ok := g.AcquireExclusive()
	require.True(t, ok)

	// releasing the stale handle again must not free the live one
	h.Release()
	_, ok = g.AcquireExclusive()
	assert.False(t, ok)
	h2.Release()
}

func TestSharedAfterExclusivePanics(t *testing.T) {
	g := New(nil)
	h, ok := g.AcquireExclusive()
	require.True(t, ok)

	assert.Panics(t, func() { g.AcquireShared() })

	// releasing does not legalize it either: the backend has been used
	h.Release()
	assert.Panics(t, func() { g.AcquireShared() })
}

func TestSharedInitRunsOnce(t *testing.T) {
	var inits atomic.Int32
	g := New(func() { inits.Add(1) })

	const n = 8
	var wg sync.WaitGroup
	handles := make([]*SharedHandle, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = g.AcquireShared()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), inits.Load())
	for _, h := range handles {
		assert.NotNil(t, h)
	}
	assert.Equal(t, stateMultiThreaded, g.state.Load())
}

func TestExclusiveAfterShared(t *testing.T) {
	g := New(nil)
	_ = g.AcquireShared()

	// exclusive handles remain issuable once thread safety is established,
	// without restricting concurrency
	h1, ok := g.AcquireExclusive()
	require.True(t, ok)
	h2, ok := g.AcquireExclusive()
	require.True(t, ok)

	// release must not regress the terminal state
	h1.Release()
	h2.Release()
	assert.Equal(t, stateMultiThreaded, g.state.Load())

	_ = g.AcquireShared() // still fine
}

func TestConcurrentExclusiveIssuesAtMostOne(t *testing.T) {
	g := New(nil)

	const n = 16
	var won atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := g.AcquireExclusive(); ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), won.Load())
}

package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPool(t *testing.T) {
	pool := GetPool()

	assert.NotNil(t, pool)
	assert.Equal(t, pool, GetPool()) // Should return same instance
}

func TestNetworkPool_AcquireRelease(t *testing.T) {
	pool := NewNetworkPool()

	n := pool.Acquire(0, 1)
	require.NotNil(t, n)
	assert.Equal(t, int64(0), n.Source)
	assert.Equal(t, int64(1), n.Sink)

	// Use the network
	require.NoError(t, n.AddEdge(0, 2, 10, 0))
	require.NoError(t, n.AddEdge(2, 1, 10, 0))
	assert.Equal(t, 2, n.EdgeCount())

	pool.Release(n)

	// Acquire again - may or may not be the same object, but must be clean
	n2 := pool.Acquire(5, 9)
	assert.Equal(t, 0, n2.EdgeCount())
	assert.Equal(t, int64(5), n2.Source)
	assert.Equal(t, int64(9), n2.Sink)
	pool.Release(n2)
}

func TestNetworkPool_ReleaseNil(t *testing.T) {
	pool := NewNetworkPool()

	// Should not panic
	pool.Release(nil)
}

func TestNetworkPool_Concurrency(t *testing.T) {
	pool := NewNetworkPool()

	var wg sync.WaitGroup
	numGoroutines := 50
	iterations := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()

			for j := 0; j < iterations; j++ {
				n := pool.Acquire(0, 1)

				n.AddEdge(0, id+2, 1, 0)
				n.AddEdge(id+2, 1, 1, 0)

				pool.Release(n)
			}
		}(int64(i))
	}

	wg.Wait()
}

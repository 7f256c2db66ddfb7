package solver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratex/internal/graph"
	"ratex/pkg/domain"
)

func TestDefaultSolverOptions(t *testing.T) {
	opts := DefaultSolverOptions()

	assert.Equal(t, 0, opts.MaxPhases)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.NotNil(t, opts.Pool)
}

func TestSolverOptions_Chaining(t *testing.T) {
	pool := graph.NewNetworkPool()

	opts := DefaultSolverOptions().
		WithTimeout(5 * time.Second).
		WithMaxPhases(3).
		WithPool(pool)

	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, 3, opts.MaxPhases)
	assert.Equal(t, pool, opts.Pool)
}

func TestSolve_NilNetwork(t *testing.T) {
	result, err := Solve(context.Background(), nil, nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNilNetwork)
}

func TestSolve_SourceEqualsSink(t *testing.T) {
	n := domain.NewFlowNetwork(1, 1)

	result, err := Solve(context.Background(), n, nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSourceEqualSink)
}

func TestSolve_ContextCanceled(t *testing.T) {
	n := domain.NewFlowNetwork(0, 1)
	require.NoError(t, n.AddEdge(0, 2, 1, 0))
	require.NoError(t, n.AddEdge(2, 1, 1, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Solve(ctx, n, nil)

	assert.ErrorIs(t, err, ErrContextCanceled)
	require.NotNil(t, result)
	assert.Equal(t, int64(0), result.MaxFlow)
}

func TestSolve_ExpiredDeadline(t *testing.T) {
	n := domain.NewFlowNetwork(0, 1)
	require.NoError(t, n.AddEdge(0, 2, 1, 0))
	require.NoError(t, n.AddEdge(2, 1, 1, 0))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	// Disable the option timeout so the parent deadline is what fires.
	result, err := Solve(ctx, n, DefaultSolverOptions().WithTimeout(0))

	assert.ErrorIs(t, err, ErrTimeout)
	require.NotNil(t, result)
}

func TestSolve_NilOptions(t *testing.T) {
	n := domain.NewFlowNetwork(1, 2)
	require.NoError(t, n.AddEdge(1, 2, 10, 0))

	result, err := Solve(context.Background(), n, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(10), result.MaxFlow)
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestSolve_CustomPool(t *testing.T) {
	pool := graph.NewNetworkPool()

	n := domain.NewFlowNetwork(1, 3)
	require.NoError(t, n.AddEdge(1, 2, 4, 0))
	require.NoError(t, n.AddEdge(2, 3, 4, 0))

	result, err := Solve(context.Background(), n, DefaultSolverOptions().WithPool(pool))

	require.NoError(t, err)
	assert.Equal(t, int64(4), result.MaxFlow)
}

func TestSolve_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	numGoroutines := 20

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			n := domain.NewFlowNetwork(1, 4)
			n.AddEdge(1, 2, 10, 0)
			n.AddEdge(1, 3, 10, 0)
			n.AddEdge(2, 4, 10, 0)
			n.AddEdge(3, 4, 10, 0)

			result, err := Solve(context.Background(), n, nil)
			if err != nil {
				t.Errorf("Solve failed: %v", err)
				return
			}
			if result.MaxFlow != 20 {
				t.Errorf("MaxFlow = %d, want 20", result.MaxFlow)
			}
		}()
	}

	wg.Wait()
}

// Package solver computes maximum flow on assignment networks using
// Dinic's algorithm.
//
// # Thread Safety
//
// Solve is NOT thread-safe with respect to the network it receives.
// Each goroutine must solve its own network. Scratch networks are drawn
// from a shared pool, which is safe for concurrent use.
//
// # Determinism
//
// Given the same network, Solve produces the same flow assignment.
// Adjacency lists iterate in edge-insertion order and residual
// construction walks vertices in ascending order, so ties between
// equal-capacity paths always resolve the same way.
//
// # Example Usage
//
//	n := domain.NewFlowNetwork(0, 1)
//	n.AddEdge(0, 2, 1, 0)
//	n.AddEdge(2, 1, 1, 0)
//
//	result, err := solver.Solve(ctx, n, nil)
//	if err != nil {
//	    log.Printf("solve failed: %v", err)
//	} else {
//	    log.Printf("max flow: %d", result.MaxFlow)
//	}
package solver

import (
	"context"
	"errors"
	"time"

	"ratex/internal/graph"
	"ratex/pkg/domain"
)

// =============================================================================
// Error Definitions
// =============================================================================

// Standard errors returned by solver operations.
// These errors can be checked using errors.Is() for robust error handling.
var (
	// ErrNilNetwork indicates that a nil network was passed to Solve.
	ErrNilNetwork = errors.New("network is nil")

	// ErrSourceEqualSink indicates that source and sink are the same vertex.
	ErrSourceEqualSink = errors.New("source equals sink")

	// ErrContextCanceled indicates that the operation was cancelled via context.
	ErrContextCanceled = errors.New("context canceled")

	// ErrTimeout indicates that the operation exceeded the configured timeout.
	ErrTimeout = errors.New("operation timeout")
)

// =============================================================================
// Solver Options
// =============================================================================

// SolverOptions configures the behavior of the flow computation.
//
// Zero values are safe to use - DefaultSolverOptions() will be applied.
// Options can be chained using the builder pattern:
//
//	opts := DefaultSolverOptions().
//	    WithTimeout(10 * time.Second).
//	    WithPool(customPool)
type SolverOptions struct {
	// MaxPhases limits the number of BFS phases.
	// Zero or negative means unlimited - the algorithm stops when the
	// sink becomes unreachable in the residual network.
	// Default: 0 (unlimited)
	MaxPhases int

	// Timeout sets the maximum duration for the computation.
	// Zero means no timeout (relies on context).
	// Default: 30 seconds
	Timeout time.Duration

	// Pool is the network pool for scratch graphs.
	// If nil, the global pool is used.
	Pool *graph.NetworkPool
}

// DefaultSolverOptions returns options with sensible defaults for most use cases.
//
// Default values:
//   - MaxPhases: unlimited
//   - Timeout: 30 seconds
func DefaultSolverOptions() *SolverOptions {
	return &SolverOptions{
		MaxPhases: 0,
		Timeout:   30 * time.Second,
		Pool:      graph.GetPool(),
	}
}

// WithPool sets the network pool and returns the options for chaining.
func (o *SolverOptions) WithPool(pool *graph.NetworkPool) *SolverOptions {
	o.Pool = pool
	return o
}

// WithTimeout sets the timeout and returns the options for chaining.
func (o *SolverOptions) WithTimeout(timeout time.Duration) *SolverOptions {
	o.Timeout = timeout
	return o
}

// WithMaxPhases sets the phase limit and returns the options for chaining.
func (o *SolverOptions) WithMaxPhases(max int) *SolverOptions {
	o.MaxPhases = max
	return o
}

// =============================================================================
// Solver Result
// =============================================================================

// Result contains the outcome of a flow computation.
type Result struct {
	// MaxFlow is the total flow leaving the source after the run.
	// When the run completes without error this is the maximum flow.
	MaxFlow int64

	// Phases is the number of BFS phases executed.
	Phases int

	// AugmentingPaths is the number of augmenting paths pushed.
	AugmentingPaths int

	// Duration is the wall-clock time taken by the computation.
	Duration time.Duration
}

// =============================================================================
// Validation
// =============================================================================

// validateNetwork performs basic validation before solving.
//
// The error wraps one of the standard errors (ErrNilNetwork,
// ErrSourceEqualSink) for easy checking with errors.Is().
// A network without edges is valid and solves to zero flow.
func validateNetwork(n *domain.FlowNetwork) error {
	if n == nil {
		return ErrNilNetwork
	}
	if n.Source == n.Sink {
		return ErrSourceEqualSink
	}
	return nil
}

// =============================================================================
// Main Solver Entry Point
// =============================================================================

// Solve computes the maximum flow on the network.
//
// The network is modified in place: edge flows are raised until no
// augmenting path remains. On input carrying any feasible flow
// (including all zeroes) the output is a feasible maximum flow.
//
// # Parameters
//
//   - ctx: Context for cancellation and timeout. Must not be nil.
//   - n: The flow network. Source and sink are taken from it.
//   - options: Solver options. nil uses DefaultSolverOptions().
//
// # Errors
//
// On cancellation or timeout the returned error wraps
// ErrContextCanceled or ErrTimeout. The network stays consistent: every
// fully applied augmenting path is kept, and the partial Result
// reflects the flow reached so far.
func Solve(ctx context.Context, n *domain.FlowNetwork, options *SolverOptions) (*Result, error) {
	start := time.Now()

	if options == nil {
		options = DefaultSolverOptions()
	}

	if err := validateNetwork(n); err != nil {
		return nil, err
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	result, err := runDinic(ctx, n, options)
	result.Duration = time.Since(start)

	return result, err
}

// ctxError maps a context error onto the solver sentinels.
func ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrContextCanceled
}

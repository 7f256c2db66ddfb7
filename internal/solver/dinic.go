package solver

import (
	"context"
	"fmt"
	"sort"

	"ratex/internal/graph"
	"ratex/pkg/domain"
)

// =============================================================================
// Dinic's Algorithm (Dinitz's Algorithm)
// =============================================================================
//
// Dinic's algorithm finds the maximum flow in a flow network. Each phase
// builds a level graph with BFS and saturates it with a blocking flow,
// which bounds the number of phases by the number of vertices.
//
// Time Complexity: O(V² × E) general case, O(E × √V) for unit capacity graphs
// Space Complexity: O(V + E)
//
// Algorithm Phases:
//  1. Rebuild the residual network from the current flows
//  2. BFS from the source assigns levels; an unreachable sink means the
//     current flow is maximum
//  3. Saturate the level network with a blocking flow (iterative DFS,
//     dead-end edges are removed so each is abandoned at most once)
//  4. Every augmenting path is applied to the original network as soon
//     as it is found
//
// References:
//   - Dinitz, Y. (1970). "Algorithm for solution of a problem of maximum flow
//     in a network with power estimation"
//   - Even, S. & Tarjan, R.E. (1975). "Network flow and testing graph connectivity"
// =============================================================================

// runDinic executes the phase loop. The context is checked at phase
// boundaries; a long blocking-flow computation within a phase runs to
// completion.
func runDinic(ctx context.Context, n *domain.FlowNetwork, options *SolverOptions) (*Result, error) {
	pool := options.Pool
	if pool == nil {
		pool = graph.GetPool()
	}

	residual := pool.Acquire(n.Source, n.Sink)
	defer pool.Release(residual)
	level := pool.Acquire(n.Source, n.Sink)
	defer pool.Release(level)

	result := &Result{}
	defer func() {
		result.MaxFlow = n.TotalFlow()
	}()

	for options.MaxPhases <= 0 || result.Phases < options.MaxPhases {
		select {
		case <-ctx.Done():
			return result, ctxError(ctx)
		default:
		}

		if err := buildResidual(n, residual); err != nil {
			return result, err
		}

		levels := graph.BFSLevels(residual)

		// Sink unreachable: the current flow is maximum.
		if !levels.Reachable(n.Sink) {
			break
		}

		if err := buildLevelNetwork(residual, levels, level); err != nil {
			return result, err
		}

		paths, err := blockingFlow(n, level)
		result.AugmentingPaths += paths
		if err != nil {
			return result, err
		}
		if paths == 0 {
			break
		}

		result.Phases++
	}

	return result, nil
}

// =============================================================================
// Residual Network
// =============================================================================

// buildResidual rebuilds the residual network from the current flows:
// a forward edge carries the unused capacity, a backward edge carries
// the flow that can still be undone. Self-edges never enter the
// residual network, so a network made of self-loops solves to zero.
func buildResidual(n, residual *domain.FlowNetwork) error {
	residual.Clear()

	for _, u := range sortedVertices(n) {
		for _, key := range n.OutgoingEdges(u) {
			if key.From == key.To {
				continue
			}

			capacity, _ := n.Capacity(key)
			flow, _ := n.Flow(key)

			if headroom := capacity - flow; headroom > 0 {
				if err := addResidualCapacity(residual, key.From, key.To, headroom); err != nil {
					return err
				}
			}
			if flow > 0 {
				if err := addResidualCapacity(residual, key.To, key.From, flow); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// addResidualCapacity inserts a residual edge, accumulating capacity
// when the opposite original edge already contributed to the same key.
func addResidualCapacity(residual *domain.FlowNetwork, from, to, capacity int64) error {
	key := domain.EdgeKey{From: from, To: to}
	if existing, ok := residual.Capacity(key); ok {
		capacity += existing
	}
	if err := residual.AddEdge(from, to, capacity, 0); err != nil {
		return fmt.Errorf("residual edge %s: %w", key, err)
	}
	return nil
}

// sortedVertices returns the network's vertices in ascending order for
// deterministic iteration.
func sortedVertices(n *domain.FlowNetwork) []int64 {
	vertices := n.Vertices()
	sort.Slice(vertices, func(i, j int) bool { return vertices[i] < vertices[j] })
	return vertices
}

// =============================================================================
// Level Network
// =============================================================================

// buildLevelNetwork fills level with the admissible edges of the
// residual network: those leading from BFS depth d to depth d+1.
// Vertices are walked in BFS visit order and their edges in insertion
// order, which keeps the level network layout deterministic.
func buildLevelNetwork(residual *domain.FlowNetwork, levels *graph.LevelResult, level *domain.FlowNetwork) error {
	level.Clear()

	for _, u := range levels.Order {
		depth := levels.Level(u)
		for _, key := range residual.OutgoingEdges(u) {
			if levels.Level(key.To) != depth+1 {
				continue
			}
			avail := residual.AvailableCapacity(key)
			if avail <= 0 {
				continue
			}
			if err := level.AddEdge(key.From, key.To, avail, 0); err != nil {
				return fmt.Errorf("level edge %s: %w", key, err)
			}
		}
	}

	return nil
}

// =============================================================================
// Blocking Flow
// =============================================================================

// blockingFlow saturates the level network: repeated DFS walks from the
// source push flow along admissible edges until no augmenting path
// remains. Returns the number of augmenting paths found.
//
// A dead-end retreat removes the entry edge from the level network, so
// each edge is abandoned at most once per phase. Removal is safe here
// because path flow has already been applied to the original network by
// the time an edge can become part of a dead end.
func blockingFlow(n, level *domain.FlowNetwork) (int, error) {
	paths := 0
	path := make([]domain.EdgeKey, 0, 64)
	current := level.Source

	for {
		// Found path to sink: augment and restart from the source.
		if current == level.Sink {
			if err := augmentPath(n, level, path); err != nil {
				return paths, err
			}
			paths++
			path = path[:0]
			current = level.Source
			continue
		}

		advanced := false
		for _, key := range level.OutgoingEdges(current) {
			if level.AvailableCapacity(key) > 0 {
				path = append(path, key)
				current = key.To
				advanced = true
				break
			}
		}
		if advanced {
			continue
		}

		// Source exhausted: the blocking flow is complete.
		if current == level.Source {
			return paths, nil
		}

		// Dead end: retreat and drop the entry edge.
		last := path[len(path)-1]
		path = path[:len(path)-1]
		level.RemoveEdge(last.From, last.To)
		current = last.From
	}
}

// augmentPath pushes the bottleneck flow along the path, recording it in
// the level network (for saturation tracking) and applying it to the
// original network.
func augmentPath(n, level *domain.FlowNetwork, path []domain.EdgeKey) error {
	bottleneck := level.AvailableCapacity(path[0])
	for _, key := range path[1:] {
		if avail := level.AvailableCapacity(key); avail < bottleneck {
			bottleneck = avail
		}
	}

	for _, key := range path {
		if err := level.AddFlow(key, bottleneck); err != nil {
			return fmt.Errorf("augment %s: %w", key, err)
		}
		if err := applyFlow(n, key, bottleneck); err != nil {
			return err
		}
	}

	return nil
}

// applyFlow translates flow pushed along a residual-direction edge back
// to the original network: forward headroom is used first, the
// remainder cancels flow on the opposite edge.
func applyFlow(n *domain.FlowNetwork, key domain.EdgeKey, delta int64) error {
	remaining := delta

	if capacity, ok := n.Capacity(key); ok {
		flow, _ := n.Flow(key)
		if headroom := capacity - flow; headroom > 0 {
			step := min(remaining, headroom)
			if err := n.AddFlow(key, step); err != nil {
				return fmt.Errorf("apply %s: %w", key, err)
			}
			remaining -= step
		}
	}

	if remaining > 0 {
		reverse := domain.EdgeKey{From: key.To, To: key.From}
		if err := n.AddFlow(reverse, -remaining); err != nil {
			return fmt.Errorf("apply %s: %w", reverse, err)
		}
	}

	return nil
}

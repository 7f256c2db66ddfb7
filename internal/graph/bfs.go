// Package graph provides traversal utilities for flow networks.
//
// This file implements the level computation used by the blocking-flow
// solver: a breadth-first search assigning every reachable vertex its
// distance from the source, following only edges with remaining
// capacity. Neighbors are visited in edge-insertion order, so repeated
// runs on the same network produce identical results.
package graph

import (
	"ratex/pkg/domain"
)

// =============================================================================
// Queue Implementation
// =============================================================================

// Queue provides an efficient FIFO queue for BFS traversal.
// It uses a slice with a head pointer to avoid repeated allocations
// during typical BFS operations.
type Queue struct {
	data []int64 // Underlying storage
	head int     // Index of next element to dequeue
}

// NewQueue creates a new Queue with the specified initial capacity.
// The capacity should be set to the expected maximum queue size
// (typically the number of vertices in the network for BFS).
func NewQueue(capacity int) *Queue {
	return &Queue{
		data: make([]int64, 0, capacity),
		head: 0,
	}
}

// Push adds an element to the end of the queue.
// Amortized O(1) time complexity.
func (q *Queue) Push(v int64) {
	q.data = append(q.data, v)
}

// Pop removes and returns the element at the front of the queue.
// O(1) time complexity.
//
// Panics if the queue is empty. Always check Empty() before calling Pop().
func (q *Queue) Pop() int64 {
	v := q.data[q.head]
	q.head++
	return v
}

// Empty returns true if the queue contains no elements.
func (q *Queue) Empty() bool {
	return q.head >= len(q.data)
}

// Len returns the number of elements currently in the queue.
func (q *Queue) Len() int {
	return len(q.data) - q.head
}

// Reset clears the queue for reuse, keeping the underlying capacity.
func (q *Queue) Reset() {
	q.data = q.data[:0]
	q.head = 0
}

// =============================================================================
// Level BFS
// =============================================================================

// LevelResult holds the outcome of a level computation.
type LevelResult struct {
	// Levels maps each reachable vertex to its BFS distance from the
	// source. Unreachable vertices are absent.
	Levels map[int64]int

	// Order lists vertices in the order BFS visited them. Walking
	// vertices in this order keeps downstream edge processing
	// deterministic.
	Order []int64
}

// Reachable reports whether the vertex was reached from the source.
func (r *LevelResult) Reachable(v int64) bool {
	_, ok := r.Levels[v]
	return ok
}

// Level returns the BFS distance of v, or -1 when v is unreachable.
func (r *LevelResult) Level(v int64) int {
	if l, ok := r.Levels[v]; ok {
		return l
	}
	return -1
}

// BFSLevels computes BFS levels from the network's source, following
// only edges with positive available capacity.
//
// A level partitions vertices into layers where:
//   - level[source] = 0
//   - level[v] = level[u] + 1 for edge (u,v) in the BFS tree
//
// The sink is reachable iff it appears in the result.
func BFSLevels(n *domain.FlowNetwork) *LevelResult {
	levels := make(map[int64]int)
	levels[n.Source] = 0

	order := make([]int64, 0, n.VertexCount())
	order = append(order, n.Source)

	queue := NewQueue(n.VertexCount())
	queue.Push(n.Source)

	for !queue.Empty() {
		u := queue.Pop()

		for _, key := range n.OutgoingEdges(u) {
			v := key.To
			if _, exists := levels[v]; exists {
				continue
			}
			if n.AvailableCapacity(key) <= 0 {
				continue
			}

			levels[v] = levels[u] + 1
			order = append(order, v)
			queue.Push(v)
		}
	}

	return &LevelResult{Levels: levels, Order: order}
}

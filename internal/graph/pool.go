// Network pooling for memory efficiency.
//
// The solver needs two scratch networks per run (residual and level).
// Pooling them keeps repeated assignment runs from churning the
// allocator under concurrent load.
package graph

import (
	"sync"

	"ratex/pkg/domain"
)

// NetworkPool provides memory pooling for FlowNetwork instances.
type NetworkPool struct {
	networks sync.Pool
}

// globalPool is the default shared pool instance.
var globalPool = NewNetworkPool()

// NewNetworkPool creates a new network pool.
func NewNetworkPool() *NetworkPool {
	return &NetworkPool{
		networks: sync.Pool{
			New: func() any {
				return domain.NewFlowNetwork(0, 0)
			},
		},
	}
}

// GetPool returns the global shared network pool.
func GetPool() *NetworkPool {
	return globalPool
}

// Acquire obtains a cleared network re-targeted at the given source
// and sink. The caller must Release it when done.
func (p *NetworkPool) Acquire(source, sink int64) *domain.FlowNetwork {
	n := p.networks.Get().(*domain.FlowNetwork)
	n.Reset(source, sink)
	return n
}

// Release returns a network to the pool after clearing it.
// Passing nil is a no-op.
func (p *NetworkPool) Release(n *domain.FlowNetwork) {
	if n == nil {
		return
	}
	n.Clear()
	p.networks.Put(n)
}

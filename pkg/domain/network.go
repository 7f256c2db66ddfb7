package domain

import (
	"errors"
	"fmt"
	"sync"
)

// ErrEdgeNotFound возвращается при попытке изменить поток на
// несуществующем ребре.
var ErrEdgeNotFound = errors.New("edge not found")

// EdgeKey уникальный ключ ребра
type EdgeKey struct {
	From int64
	To   int64
}

// String возвращает строковое представление ключа ребра
func (e EdgeKey) String() string {
	return fmt.Sprintf("%d->%d", e.From, e.To)
}

// FlowNetwork сеть раздачи с целочисленными пропускными способностями
// и потоками. Индексы смежности хранят рёбра в порядке вставки, поэтому
// обходы детерминированы. Сеть переиспользуется между фазами алгоритма:
// Clear удаляет рёбра, не пересоздавая структуру.
type FlowNetwork struct {
	Source int64
	Sink   int64

	capacities map[EdgeKey]int64
	flows      map[EdgeKey]int64

	// Индексы для быстрого доступа
	outgoing map[int64][]EdgeKey // вершина -> исходящие рёбра в порядке вставки
	incoming map[int64][]EdgeKey // вершина -> входящие рёбра в порядке вставки

	mu sync.RWMutex
}

// NewFlowNetwork создаёт пустую сеть с заданными истоком и стоком
func NewFlowNetwork(source, sink int64) *FlowNetwork {
	return &FlowNetwork{
		Source:     source,
		Sink:       sink,
		capacities: make(map[EdgeKey]int64),
		flows:      make(map[EdgeKey]int64),
		outgoing:   make(map[int64][]EdgeKey),
		incoming:   make(map[int64][]EdgeKey),
	}
}

// AddEdge добавляет ребро или перезаписывает существующее.
// При перезаписи индексы смежности не дублируются.
func (n *FlowNetwork) AddEdge(from, to, capacity, flow int64) error {
	key := EdgeKey{From: from, To: to}
	if capacity < 0 {
		return fmt.Errorf("edge %s: negative capacity %d", key, capacity)
	}
	if flow < 0 || flow > capacity {
		return fmt.Errorf("edge %s: flow %d out of range [0, %d]", key, flow, capacity)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.capacities[key]; !exists {
		n.outgoing[from] = append(n.outgoing[from], key)
		n.incoming[to] = append(n.incoming[to], key)
	}
	n.capacities[key] = capacity
	n.flows[key] = flow
	return nil
}

// RemoveEdge удаляет ребро и подчищает индексы смежности.
// Для отсутствующего ребра ничего не делает.
func (n *FlowNetwork) RemoveEdge(from, to int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := EdgeKey{From: from, To: to}
	if _, exists := n.capacities[key]; !exists {
		return
	}

	delete(n.capacities, key)
	delete(n.flows, key)

	n.outgoing[from] = removeKey(n.outgoing[from], key)
	if len(n.outgoing[from]) == 0 {
		delete(n.outgoing, from)
	}
	n.incoming[to] = removeKey(n.incoming[to], key)
	if len(n.incoming[to]) == 0 {
		delete(n.incoming, to)
	}
}

// removeKey удаляет ключ из списка, сохраняя порядок остальных
func removeKey(keys []EdgeKey, key EdgeKey) []EdgeKey {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

// Clear удаляет все рёбра, сохраняя исток и сток
func (n *FlowNetwork) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	clear(n.capacities)
	clear(n.flows)
	clear(n.outgoing)
	clear(n.incoming)
}

// Reset очищает сеть и перенацеливает её на новые исток и сток.
// Используется пулом сетей.
func (n *FlowNetwork) Reset(source, sink int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Source = source
	n.Sink = sink
	clear(n.capacities)
	clear(n.flows)
	clear(n.outgoing)
	clear(n.incoming)
}

// HasEdge проверяет наличие ребра
func (n *FlowNetwork) HasEdge(key EdgeKey) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	_, ok := n.capacities[key]
	return ok
}

// Capacity возвращает пропускную способность ребра
func (n *FlowNetwork) Capacity(key EdgeKey) (int64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	c, ok := n.capacities[key]
	return c, ok
}

// Flow возвращает поток на ребре
func (n *FlowNetwork) Flow(key EdgeKey) (int64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	f, ok := n.flows[key]
	return f, ok
}

// AvailableCapacity возвращает остаточную пропускную способность ребра.
// Для отсутствующего ребра возвращает 0.
func (n *FlowNetwork) AvailableCapacity(key EdgeKey) int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	c, ok := n.capacities[key]
	if !ok {
		return 0
	}
	if avail := c - n.flows[key]; avail > 0 {
		return avail
	}
	return 0
}

// OutgoingEdges возвращает исходящие рёбра вершины в порядке вставки
func (n *FlowNetwork) OutgoingEdges(v int64) []EdgeKey {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.outgoing[v]
}

// IncomingEdges возвращает входящие рёбра вершины в порядке вставки
func (n *FlowNetwork) IncomingEdges(v int64) []EdgeKey {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.incoming[v]
}

// Edges возвращает все рёбра сети; порядок не определён
func (n *FlowNetwork) Edges() []EdgeKey {
	n.mu.RLock()
	defer n.mu.RUnlock()

	keys := make([]EdgeKey, 0, len(n.capacities))
	for key := range n.capacities {
		keys = append(keys, key)
	}
	return keys
}

// EdgeCount возвращает количество рёбер
func (n *FlowNetwork) EdgeCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.capacities)
}

// VertexCount возвращает количество вершин, которых касаются рёбра,
// включая исток и сток
func (n *FlowNetwork) VertexCount() int {
	return len(n.Vertices())
}

// Vertices возвращает все вершины сети, включая исток и сток;
// порядок не определён
func (n *FlowNetwork) Vertices() []int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	seen := make(map[int64]struct{}, len(n.outgoing)+2)
	seen[n.Source] = struct{}{}
	seen[n.Sink] = struct{}{}
	for v := range n.outgoing {
		seen[v] = struct{}{}
	}
	for v := range n.incoming {
		seen[v] = struct{}{}
	}

	vertices := make([]int64, 0, len(seen))
	for v := range seen {
		vertices = append(vertices, v)
	}
	return vertices
}

// SetFlow устанавливает поток на существующем ребре
func (n *FlowNetwork) SetFlow(key EdgeKey, flow int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	capacity, ok := n.capacities[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, key)
	}
	if flow < 0 || flow > capacity {
		return fmt.Errorf("edge %s: flow %d out of range [0, %d]", key, flow, capacity)
	}
	n.flows[key] = flow
	return nil
}

// AddFlow изменяет поток на ребре на delta с проверкой границ
func (n *FlowNetwork) AddFlow(key EdgeKey, delta int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	capacity, ok := n.capacities[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, key)
	}
	flow := n.flows[key] + delta
	if flow < 0 || flow > capacity {
		return fmt.Errorf("edge %s: flow %d out of range [0, %d]", key, flow, capacity)
	}
	n.flows[key] = flow
	return nil
}

// TotalFlow возвращает суммарный поток из истока
func (n *FlowNetwork) TotalFlow() int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var total int64
	for _, key := range n.outgoing[n.Source] {
		total += n.flows[key]
	}
	return total
}

// Validate проверяет инварианты сети: границы потока на каждом ребре,
// сохранение потока в промежуточных вершинах и равенство потока из
// истока потоку в сток. Если передан expectedTotal, суммарный поток
// сверяется с ним. Пустой результат означает корректную сеть.
func (n *FlowNetwork) Validate(expectedTotal ...int64) []error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var errs []error

	if n.Source == n.Sink {
		errs = append(errs, fmt.Errorf("source and sink cannot be the same vertex"))
	}

	// balance[v] = входящий поток - исходящий поток
	balance := make(map[int64]int64)
	for key, capacity := range n.capacities {
		flow := n.flows[key]
		if capacity < 0 {
			errs = append(errs, fmt.Errorf("edge %s has negative capacity", key))
		}
		if flow < 0 {
			errs = append(errs, fmt.Errorf("edge %s has negative flow", key))
		}
		if flow > capacity {
			errs = append(errs, fmt.Errorf("edge %s: flow %d exceeds capacity %d", key, flow, capacity))
		}
		balance[key.From] -= flow
		balance[key.To] += flow
	}

	for v, b := range balance {
		if v == n.Source || v == n.Sink {
			continue
		}
		if b != 0 {
			errs = append(errs, fmt.Errorf("vertex %d violates flow conservation by %d", v, b))
		}
	}

	outOfSource := -balance[n.Source]
	intoSink := balance[n.Sink]
	if outOfSource != intoSink {
		errs = append(errs, fmt.Errorf("source outflow %d does not match sink inflow %d", outOfSource, intoSink))
	}
	if len(expectedTotal) > 0 && outOfSource != expectedTotal[0] {
		errs = append(errs, fmt.Errorf("total flow %d does not match expected %d", outOfSource, expectedTotal[0]))
	}

	return errs
}

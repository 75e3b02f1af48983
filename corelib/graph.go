package corelib

// Graph is a directed graph keyed by node id, owning its node payloads and
// calling a removal callback when a node is deleted so owned child data can
// cascade-free (§5: "A graph data structure (node-id → adjacency set) owns
// its nodes and provides a removal callback for value payloads.").
type Graph[K comparable, V any] struct {
	nodes    map[K]V
	adjacent map[K]*OrderedSet[K]
	order    []K
	onRemove func(K, V)
}

// NewGraph creates an empty Graph. onRemove may be nil.
func NewGraph[K comparable, V any](onRemove func(K, V)) *Graph[K, V] {
	return &Graph[K, V]{
		nodes:    make(map[K]V),
		adjacent: make(map[K]*OrderedSet[K]),
		onRemove: onRemove,
	}
}

// AddNode inserts a node with the given payload, reporting whether it is new.
func (g *Graph[K, V]) AddNode(k K, v V) bool {
	if _, ok := g.nodes[k]; ok {
		g.nodes[k] = v
		return false
	}
	g.nodes[k] = v
	g.adjacent[k] = NewOrderedSet[K]()
	g.order = append(g.order, k)
	return true
}

// AddEdge adds a directed edge k -> to. Both nodes must already exist.
func (g *Graph[K, V]) AddEdge(k, to K) {
	if adj, ok := g.adjacent[k]; ok {
		adj.Add(to)
	}
}

// RemoveNode deletes a node, its outgoing adjacency set, and every incoming
// edge referencing it, invoking onRemove on its payload.
func (g *Graph[K, V]) RemoveNode(k K) {
	v, ok := g.nodes[k]
	if !ok {
		return
	}
	delete(g.nodes, k)
	delete(g.adjacent, k)
	for i, kk := range g.order {
		if kk == k {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	for _, adj := range g.adjacent {
		adj.Remove(k)
	}
	if g.onRemove != nil {
		g.onRemove(k, v)
	}
}

// Neighbors returns the adjacency set of k, or nil if k is absent.
func (g *Graph[K, V]) Neighbors(k K) *OrderedSet[K] {
	return g.adjacent[k]
}

// Payload returns the payload stored for k.
func (g *Graph[K, V]) Payload(k K) (V, bool) {
	v, ok := g.nodes[k]
	return v, ok
}

// Nodes returns every node id in insertion order.
func (g *Graph[K, V]) Nodes() []K { return g.order }

// AddUndirectedEdge adds edges in both directions, used to build the
// interference graph of §4.6 step 3, where "interferes with" is symmetric.
func (g *Graph[K, V]) AddUndirectedEdge(a, b K) {
	g.AddEdge(a, b)
	g.AddEdge(b, a)
}

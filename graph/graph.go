// Package graph implements the dependency graph and topological scheduler
// (C5): per-node dirty state, topological ordering, and the single update
// pass described in spec.md §4.5.
package graph

import (
	"container/heap"
	"errors"

	"github.com/phanxgames/logiclang/property"
)

// ErrCycle is returned by Order when the link set contains a cycle.
var ErrCycle = errors.New("graph: cycle detected")

// Graph is a directed graph with one vertex per node and an edge A->B iff
// some output of A is linked to some input of B. It recomputes topological
// order lazily, only when Invalidate, AddNode, RemoveNode or SetEdges has
// marked it stale since the last Order.
type Graph struct {
	nodes  []property.NodeID
	edges  map[property.NodeID][]property.NodeID // adjacency: from -> to
	order  []property.NodeID
	stale  bool
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{edges: make(map[property.NodeID][]property.NodeID), stale: true}
}

// AddNode registers a vertex. No-op if already present.
func (g *Graph) AddNode(id property.NodeID) {
	for _, n := range g.nodes {
		if n == id {
			return
		}
	}
	g.nodes = append(g.nodes, id)
	g.stale = true
}

// RemoveNode removes a vertex and every edge touching it.
func (g *Graph) RemoveNode(id property.NodeID) {
	for i, n := range g.nodes {
		if n == id {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
	delete(g.edges, id)
	for from, tos := range g.edges {
		for i, to := range tos {
			if to == id {
				g.edges[from] = append(tos[:i], tos[i+1:]...)
				break
			}
		}
	}
	g.stale = true
}

// SetEdges replaces the full edge set, typically from link.Table.Edges().
func (g *Graph) SetEdges(edges [][2]property.NodeID) {
	g.edges = make(map[property.NodeID][]property.NodeID, len(edges))
	for _, e := range edges {
		from, to := e[0], e[1]
		dup := false
		for _, existing := range g.edges[from] {
			if existing == to {
				dup = true
				break
			}
		}
		if !dup {
			g.edges[from] = append(g.edges[from], to)
		}
	}
	g.stale = true
}

// WouldCycle reports whether adding edge from->to would create a cycle,
// without mutating the graph. Implements link.CycleChecker.
func (g *Graph) WouldCycle(from, to property.NodeID) bool {
	if from == to {
		return true
	}
	// DFS from `to`: if we can reach `from`, the new edge closes a cycle.
	visited := make(map[property.NodeID]bool)
	var dfs func(n property.NodeID) bool
	dfs = func(n property.NodeID) bool {
		if n == from {
			return true
		}
		if visited[n] {
			return false
		}
		visited[n] = true
		for _, next := range g.edges[n] {
			if dfs(next) {
				return true
			}
		}
		return false
	}
	return dfs(to)
}

// nodeHeap is a min-heap of ready node ids, used by Order to break ties
// within a topological layer by ascending stable node id (spec.md §4.5/§8).
type nodeHeap []property.NodeID

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool   { return h[i] < h[j] }
func (h nodeHeap) Swap(i, j int)        { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)          { *h = append(*h, x.(property.NodeID)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Order returns the current topological order, recomputing it via Kahn's
// algorithm if the edge set changed since the last call. Ties within a
// layer are broken by ascending NodeID for deterministic output.
func (g *Graph) Order() ([]property.NodeID, error) {
	if !g.stale && g.order != nil {
		return g.order, nil
	}

	indegree := make(map[property.NodeID]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n] = 0
	}
	for _, tos := range g.edges {
		for _, to := range tos {
			indegree[to]++
		}
	}

	ready := &nodeHeap{}
	for _, n := range g.nodes {
		if indegree[n] == 0 {
			heap.Push(ready, n)
		}
	}

	order := make([]property.NodeID, 0, len(g.nodes))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(property.NodeID)
		order = append(order, n)
		for _, to := range g.edges[n] {
			indegree[to]--
			if indegree[to] == 0 {
				heap.Push(ready, to)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}

	g.order = order
	g.stale = false
	return order, nil
}

// Invalidate forces the next Order call to recompute, even if SetEdges /
// AddNode / RemoveNode were not called (e.g. after restoring a graph from a
// deserialized link set).
func (g *Graph) Invalidate() { g.stale = true }

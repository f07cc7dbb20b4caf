// Package bellmanford implements relaxation-based shortest paths over a
// weighted directed graph with possibly-negative edge weights, along with
// negative-cycle detection and extraction.
//
// Two interchangeable strategies share the Paths contract: an unbounded
// search (classic Bellman-Ford, run to a fixed point) and a hop-bounded
// search that records one predecessor vector per relaxation step. Which one
// to use is a caller-level choice; see SearchWithin.
package bellmanford

import (
	"fmt"
	"math"
)

// Graph is the minimal view of a weighted directed graph the engine needs.
// Nodes are dense integer indices in [0, NodeCount).
type Graph interface {
	NodeCount() int
	// ForEachEdge calls fn once per directed edge. Edge order must be
	// deterministic for reproducible search results.
	ForEachEdge(fn func(from, to int, weight float64))
}

// Paths is the common contract of both search strategies.
type Paths interface {
	// Source returns the node the search was rooted at.
	Source() int
	// Distance returns the shortest known distance from the source, or
	// +Inf for unreachable nodes.
	Distance(node int) float64
	// ConnectedNodes returns every node reachable from the source, in
	// ascending order. The source itself is included.
	ConnectedNodes() []int
	// PathTo reconstructs the shortest path from the source to dest as an
	// ordered node list, or returns false if dest is unreachable.
	PathTo(dest int) ([]int, bool)
	// MarkCycle returns a node known to lie on or be reachable from a
	// negative cycle, if the search detected one.
	MarkCycle() (int, bool)
	// FindCycle walks the predecessor chain from start until a node
	// repeats and returns the cycle as an ordered node list whose first
	// and last entries are equal.
	FindCycle(start int) ([]int, bool)
}

// SearchWithin dispatches on the hop bound: hops <= 0 selects the unbounded
// strategy, anything else bounds paths to at most hops edges.
func SearchWithin(g Graph, source, hops int) Paths {
	if hops <= 0 {
		return Search(g, source)
	}
	return SearchBounded(g, source, hops)
}

func newDistances(n, source int) []float64 {
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0
	return dist
}

func connectedNodes(dist []float64) []int {
	var nodes []int
	for v, d := range dist {
		if !math.IsInf(d, 1) {
			nodes = append(nodes, v)
		}
	}
	return nodes
}

// invariant panics with a message describing a broken internal invariant.
// A failed path reconstruction means distances promised a path the
// predecessor chain cannot deliver, which is a bug, not bad input.
func invariant(format string, args ...any) {
	panic(fmt.Sprintf("bellmanford: internal invariant violated: "+format, args...))
}

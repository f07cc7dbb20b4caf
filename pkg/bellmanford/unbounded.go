package bellmanford

import "math"

// Unbounded is the classic Bellman-Ford strategy: edges are relaxed until a
// fixed point, or until the node-count round bound proves that a reachable
// negative cycle exists.
type Unbounded struct {
	graph  Graph
	source int
	dist   []float64
	pred   []int
	// marked is a node still improvable after convergence; it lies on or
	// is reachable from a negative cycle.
	marked    int
	hasMarked bool
}

// Search runs the unbounded strategy from source.
func Search(g Graph, source int) *Unbounded {
	n := g.NodeCount()
	u := &Unbounded{
		graph:  g,
		source: source,
		dist:   newDistances(n, source),
		pred:   make([]int, n),
		marked: -1,
	}
	for i := range u.pred {
		u.pred[i] = -1
	}

	for round := 0; round < n; round++ {
		improved := false
		g.ForEachEdge(func(from, to int, weight float64) {
			if d := u.dist[from] + weight; d < u.dist[to] {
				u.dist[to] = d
				u.pred[to] = from
				improved = true
			}
		})
		if !improved {
			return u
		}
	}

	// Still improving after n rounds: one more full pass. Any node relaxed
	// now has a predecessor chain longer than the node count, so walking it
	// back is guaranteed to close a (negative) cycle.
	g.ForEachEdge(func(from, to int, weight float64) {
		if d := u.dist[from] + weight; d < u.dist[to] {
			u.dist[to] = d
			u.pred[to] = from
			if !u.hasMarked {
				u.marked = to
				u.hasMarked = true
			}
		}
	})
	return u
}

func (u *Unbounded) Source() int { return u.source }

func (u *Unbounded) Distance(node int) float64 { return u.dist[node] }

func (u *Unbounded) ConnectedNodes() []int { return connectedNodes(u.dist) }

func (u *Unbounded) MarkCycle() (int, bool) { return u.marked, u.hasMarked }

// PathTo walks predecessors back from dest. Distances that promise a path
// the predecessor chain cannot reconstruct indicate an undetected negative
// cycle, which is a programming error.
func (u *Unbounded) PathTo(dest int) ([]int, bool) {
	if math.IsInf(u.dist[dest], 1) {
		return nil, false
	}
	path := []int{dest}
	for v := dest; v != u.source; {
		v = u.pred[v]
		if v < 0 || len(path) > len(u.dist) {
			invariant("no convergent path from %d to %d", u.source, dest)
		}
		path = append(path, v)
	}
	reverseInts(path)
	return path, true
}

// FindCycle follows the predecessor chain from start until a node repeats.
// The returned cycle is ordered along edge direction with the first node
// repeated at the end.
func (u *Unbounded) FindCycle(start int) ([]int, bool) {
	seen := make([]int, len(u.dist))
	for i := range seen {
		seen[i] = -1
	}
	var walk []int
	for v := start; v >= 0; v = u.pred[v] {
		if at := seen[v]; at >= 0 {
			cycle := make([]int, 0, len(walk)-at+1)
			cycle = append(cycle, walk[at:]...)
			reverseInts(cycle)
			// walk order is reversed edge direction; close the loop.
			cycle = append([]int{v}, cycle[:len(cycle)-1]...)
			cycle = append(cycle, v)
			return cycle, true
		}
		seen[v] = len(walk)
		walk = append(walk, v)
	}
	return nil, false
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

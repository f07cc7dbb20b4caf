package bellmanford

import "math"

// Bounded is the hop-limited strategy. Distances are double-buffered so
// that step k+1 only ever reads step k's results, and one predecessor
// vector is recorded per relaxation step so paths of length <= bound can be
// reconstructed exactly without re-running the relaxation.
type Bounded struct {
	graph  Graph
	source int
	bound  int
	dist   []float64
	// preds[s][v] is v's predecessor if v improved during step s+1, -1
	// otherwise. Steps that reach a fixed point are not recorded.
	preds [][]int
}

// SearchBounded runs at most bound relaxation steps from source. Paths
// returned by the result never exceed bound edges.
func SearchBounded(g Graph, source, bound int) *Bounded {
	n := g.NodeCount()
	b := &Bounded{
		graph:  g,
		source: source,
		bound:  bound,
		dist:   newDistances(n, source),
		preds:  make([][]int, 0, bound),
	}

	for step := 0; step < bound; step++ {
		next := make([]float64, n)
		copy(next, b.dist)
		stepPred := make([]int, n)
		for i := range stepPred {
			stepPred[i] = -1
		}

		improved := false
		g.ForEachEdge(func(from, to int, weight float64) {
			if d := b.dist[from] + weight; d < next[to] {
				next[to] = d
				stepPred[to] = from
				improved = true
			}
		})
		if !improved {
			break
		}
		b.dist = next
		b.preds = append(b.preds, stepPred)
	}
	return b
}

func (b *Bounded) Source() int { return b.source }

func (b *Bounded) Distance(node int) float64 { return b.dist[node] }

func (b *Bounded) ConnectedNodes() []int { return connectedNodes(b.dist) }

// PathTo reconstructs the shortest path of at most bound edges by walking
// the per-step predecessor vectors backwards: each hop resumes from the
// last step at which the node improved.
func (b *Bounded) PathTo(dest int) ([]int, bool) {
	if math.IsInf(b.dist[dest], 1) {
		return nil, false
	}
	path := []int{dest}
	v, step := dest, len(b.preds)
	for v != b.source {
		u, at := b.lastImprovement(v, step)
		if u < 0 {
			invariant("no recorded predecessor for node %d within %d steps", v, step)
		}
		v, step = u, at-1
		path = append(path, v)
		if len(path) > b.bound+1 {
			invariant("path reconstruction exceeded the %d hop bound", b.bound)
		}
	}
	reverseInts(path)
	return path, true
}

// lastImprovement returns v's predecessor at the latest step <= limit in
// which v improved, along with that step (1-based), or (-1, 0).
func (b *Bounded) lastImprovement(v, limit int) (int, int) {
	for s := limit; s >= 1; s-- {
		if u := b.preds[s-1][v]; u >= 0 {
			return u, s
		}
	}
	return -1, 0
}

// MarkCycle scans for an edge that would still improve a distance after the
// recorded steps, then confirms the candidate by walking the recorded
// predecessor vectors. A cycle deeper than the bound stays invisible, which
// mirrors the bounded contract: cycles only become visible at a sufficient
// hop depth.
func (b *Bounded) MarkCycle() (int, bool) {
	if len(b.preds) < b.bound {
		// Relaxation reached a fixed point before the bound: no cycle is
		// reachable at any depth.
		return -1, false
	}
	marked, found := -1, false
	b.graph.ForEachEdge(func(from, to int, weight float64) {
		if found {
			return
		}
		if b.dist[from]+weight < b.dist[to] {
			if _, ok := b.FindCycle(to); ok {
				marked = to
				found = true
			}
		}
	})
	return marked, found
}

// FindCycle walks predecessors from start across all recorded steps; a node
// seen twice closes a cycle. The cycle is returned along edge direction
// with the first node repeated at the end.
func (b *Bounded) FindCycle(start int) ([]int, bool) {
	seen := make([]int, len(b.dist))
	for i := range seen {
		seen[i] = -1
	}
	var walk []int
	v, step := start, len(b.preds)
	for {
		if at := seen[v]; at >= 0 {
			cycle := make([]int, 0, len(walk)-at+1)
			cycle = append(cycle, walk[at:]...)
			reverseInts(cycle)
			cycle = append([]int{v}, cycle[:len(cycle)-1]...)
			cycle = append(cycle, v)
			return cycle, true
		}
		seen[v] = len(walk)
		walk = append(walk, v)

		u, at := b.lastImprovement(v, step)
		if u < 0 {
			return nil, false
		}
		v, step = u, at-1
	}
}

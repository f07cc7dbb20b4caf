package bellmanford

// Subgraphs partitions the node set into weakly related regions by repeated
// search: the lowest unvisited node roots a search, every node that search
// reaches is removed from the pool, and the next root is the lowest node
// still standing. visit is called once per root with the finished search;
// returning false stops the sweep early.
//
// Roots ascend, so the traversal order is deterministic for a deterministic
// graph.
func Subgraphs(nodeCount int, search func(root int) Paths, visit func(root int, paths Paths) bool) {
	visited := make([]bool, nodeCount)
	for root := 0; root < nodeCount; root++ {
		if visited[root] {
			continue
		}
		paths := search(root)
		for _, node := range paths.ConnectedNodes() {
			visited[node] = true
		}
		if !visit(root, paths) {
			return
		}
	}
}

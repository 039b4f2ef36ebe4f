package graph

// Bounded traversal helpers shared by the metric analyzers. Every walk keeps
// an explicit visited set and a maximum depth so recursive and mutually
// recursive call chains terminate deterministically.

// DistancesFrom runs a multi-source BFS over call edges and returns the
// shortest hop count from any source to each reached node, up to maxDepth.
func (g *Graph) DistancesFrom(sources []string, maxDepth int) map[string]int {
	dist := make(map[string]int)
	queue := make([]string, 0, len(sources))
	for _, src := range sources {
		if _, ok := g.nodes[src]; !ok {
			continue
		}
		if _, seen := dist[src]; seen {
			continue
		}
		dist[src] = 0
		queue = append(queue, src)
	}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		d := dist[cur]
		if d >= maxDepth {
			continue
		}
		for _, next := range g.adj[cur] {
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = d + 1
			queue = append(queue, next)
		}
	}
	return dist
}

// ShortestPath returns the node ids of one shortest path from src to dst
// within maxDepth hops, inclusive of both endpoints, or nil when dst is not
// reachable. Ties resolve by callee order, so the result is deterministic.
func (g *Graph) ShortestPath(src, dst string, maxDepth int) []string {
	if _, ok := g.nodes[src]; !ok {
		return nil
	}
	if src == dst {
		return []string{src}
	}
	parent := map[string]string{src: ""}
	depth := map[string]int{src: 0}
	queue := []string{src}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		d := depth[cur]
		if d >= maxDepth {
			continue
		}
		for _, next := range g.adj[cur] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			depth[next] = d + 1
			if next == dst {
				return reconstruct(parent, dst)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func reconstruct(parent map[string]string, dst string) []string {
	var rev []string
	for cur := dst; cur != ""; cur = parent[cur] {
		rev = append(rev, cur)
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// SimplePaths enumerates simple paths (no repeated node) from src to dst with
// at most maxDepth edges, stopping after maxPaths paths. Enumeration order
// follows callee order, so output is deterministic.
func (g *Graph) SimplePaths(src, dst string, maxDepth, maxPaths int) [][]string {
	if _, ok := g.nodes[src]; !ok {
		return nil
	}
	var paths [][]string
	onPath := map[string]bool{src: true}
	stack := []string{src}

	var dfs func(cur string)
	dfs = func(cur string) {
		if len(paths) >= maxPaths {
			return
		}
		if cur == dst {
			path := make([]string, len(stack))
			copy(path, stack)
			paths = append(paths, path)
			return
		}
		if len(stack)-1 >= maxDepth {
			return
		}
		for _, next := range g.adj[cur] {
			if onPath[next] {
				continue
			}
			onPath[next] = true
			stack = append(stack, next)
			dfs(next)
			stack = stack[:len(stack)-1]
			onPath[next] = false
			if len(paths) >= maxPaths {
				return
			}
		}
	}
	dfs(src)
	return paths
}

// ReachableCount returns how many distinct nodes a BFS from src reaches
// within maxDepth hops, excluding src itself.
func (g *Graph) ReachableCount(src string, maxDepth int) int {
	dist := g.DistancesFrom([]string{src}, maxDepth)
	if len(dist) == 0 {
		return 0
	}
	return len(dist) - 1
}

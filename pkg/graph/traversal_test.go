package graph

import "testing"

func testGraph(ids []string, edges map[string][]string) *Graph {
	g := &Graph{
		nodes: make(map[string]*MethodNode),
		adj:   make(map[string][]string),
	}
	for i, id := range ids {
		g.nodes[id] = &MethodNode{ID: id, order: i}
		g.order = append(g.order, id)
	}
	for from, tos := range edges {
		g.adj[from] = tos
		g.edges += len(tos)
	}
	return g
}

func TestDistancesFrom(t *testing.T) {
	g := testGraph(
		[]string{"a", "b", "c", "d", "x"},
		map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"d"},
		},
	)

	dist := g.DistancesFrom([]string{"a"}, 10)
	want := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}
	if len(dist) != len(want) {
		t.Fatalf("Expected %d reached nodes, got %d", len(want), len(dist))
	}
	for id, d := range want {
		if dist[id] != d {
			t.Errorf("dist[%q] = %d, want %d", id, dist[id], d)
		}
	}
	if _, reached := dist["x"]; reached {
		t.Error("Disconnected node must not be reached")
	}
}

func TestDistancesFromRespectsDepthBound(t *testing.T) {
	g := testGraph(
		[]string{"a", "b", "c"},
		map[string][]string{"a": {"b"}, "b": {"c"}},
	)
	dist := g.DistancesFrom([]string{"a"}, 1)
	if _, reached := dist["c"]; reached {
		t.Error("Node past the depth bound must not be reached")
	}
	if dist["b"] != 1 {
		t.Errorf("dist[b] = %d, want 1", dist["b"])
	}
}

func TestDistancesFromMultiSource(t *testing.T) {
	g := testGraph(
		[]string{"a", "b", "m"},
		map[string][]string{"a": {"m"}, "b": {"m"}},
	)
	dist := g.DistancesFrom([]string{"a", "b"}, 5)
	if dist["m"] != 1 {
		t.Errorf("dist[m] = %d, want 1", dist["m"])
	}
}

func TestDistancesFromTerminatesOnCycle(t *testing.T) {
	g := testGraph(
		[]string{"a", "b"},
		map[string][]string{"a": {"b"}, "b": {"a"}},
	)
	dist := g.DistancesFrom([]string{"a"}, 100)
	if dist["a"] != 0 || dist["b"] != 1 {
		t.Errorf("Unexpected distances on cyclic graph: %v", dist)
	}
}

func TestShortestPath(t *testing.T) {
	g := testGraph(
		[]string{"a", "b", "c", "d"},
		map[string][]string{
			"a": {"b", "d"},
			"b": {"c"},
			"d": {"c"},
		},
	)

	path := g.ShortestPath("a", "c", 10)
	if len(path) != 3 {
		t.Fatalf("Expected 3-node path, got %v", path)
	}
	if path[0] != "a" || path[2] != "c" {
		t.Errorf("Path endpoints wrong: %v", path)
	}
	// Ties resolve by callee order: b comes before d in a's adjacency.
	if path[1] != "b" {
		t.Errorf("Expected deterministic tie-break through b, got %v", path)
	}

	if got := g.ShortestPath("a", "a", 10); len(got) != 1 || got[0] != "a" {
		t.Errorf("Self path should be the single node, got %v", got)
	}
	if got := g.ShortestPath("c", "a", 10); got != nil {
		t.Errorf("Unreachable target should return nil, got %v", got)
	}
	if got := g.ShortestPath("a", "c", 1); got != nil {
		t.Errorf("Path beyond depth bound should return nil, got %v", got)
	}
}

func TestSimplePaths(t *testing.T) {
	g := testGraph(
		[]string{"a", "b", "c", "d"},
		map[string][]string{
			"a": {"b", "c"},
			"b": {"d"},
			"c": {"d"},
		},
	)

	paths := g.SimplePaths("a", "d", 10, 100)
	if len(paths) != 2 {
		t.Fatalf("Expected 2 simple paths, got %v", paths)
	}
	// Enumeration follows callee order.
	if paths[0][1] != "b" || paths[1][1] != "c" {
		t.Errorf("Unexpected enumeration order: %v", paths)
	}
}

func TestSimplePathsRespectsCaps(t *testing.T) {
	g := testGraph(
		[]string{"a", "b", "c", "d"},
		map[string][]string{
			"a": {"b", "c"},
			"b": {"d"},
			"c": {"d"},
		},
	)

	if paths := g.SimplePaths("a", "d", 10, 1); len(paths) != 1 {
		t.Errorf("Expected path cap at 1, got %d", len(paths))
	}
	if paths := g.SimplePaths("a", "d", 1, 100); len(paths) != 0 {
		t.Errorf("Expected no path within 1 edge, got %v", paths)
	}
}

func TestSimplePathsTerminatesOnCycle(t *testing.T) {
	g := testGraph(
		[]string{"a", "b", "c"},
		map[string][]string{
			"a": {"b"},
			"b": {"a", "c"},
		},
	)
	paths := g.SimplePaths("a", "c", 10, 100)
	if len(paths) != 1 {
		t.Fatalf("Expected 1 simple path through the cycle, got %v", paths)
	}
}

func TestReachableCount(t *testing.T) {
	g := testGraph(
		[]string{"a", "b", "c", "x"},
		map[string][]string{"a": {"b"}, "b": {"c"}},
	)
	if got := g.ReachableCount("a", 10); got != 2 {
		t.Errorf("ReachableCount(a) = %d, want 2", got)
	}
	if got := g.ReachableCount("x", 10); got != 0 {
		t.Errorf("ReachableCount(x) = %d, want 0", got)
	}
}

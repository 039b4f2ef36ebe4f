package output

import (
	"testing"

	"github.com/perimetric/riskweaver/pkg/config"
	"github.com/perimetric/riskweaver/pkg/graph"
	"github.com/perimetric/riskweaver/pkg/scanner"
)

// exportGraph builds entry -> mid -> store plus an isolated helper.
func exportGraph(t *testing.T) (*graph.Graph, *graph.RoleSets) {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}
	units := []scanner.Unit{
		{Path: "a/Ctl.java", Methods: []scanner.Method{{
			Name: "entry", Class: "Ctl", ClassKind: "concrete", Package: "app",
			Annotations: []string{"PostMapping"}, Calls: []string{"mid"},
		}}},
		{Path: "b/Svc.java", Methods: []scanner.Method{{
			Name: "mid", Class: "Svc", ClassKind: "concrete", Package: "app",
			Calls: []string{"store"},
		}}},
		{Path: "c/Repo.java", Methods: []scanner.Method{{
			Name: "store", Class: "Repo", ClassKind: "concrete", Package: "app",
			Body: "stmt.executeUpdate(q);",
		}}},
		{Path: "d/Util.java", Methods: []scanner.Method{{
			Name: "helper", Class: "Util", ClassKind: "concrete", Package: "app",
		}}},
	}
	return graph.NewBuilder(nil, cfg).Build(&scanner.Result{Units: units})
}

func TestExportTopologyFull(t *testing.T) {
	g, roles := exportGraph(t)
	export := ExportTopology(g, roles, 100, 100)

	if len(export.Nodes) != 4 {
		t.Fatalf("Expected 4 nodes, got %v", export.Nodes)
	}
	if len(export.Edges) != 2 {
		t.Fatalf("Expected 2 edges, got %v", export.Edges)
	}
	if len(export.EntrypointIDs) != 1 || export.EntrypointIDs[0] != "app.Ctl#entry()" {
		t.Errorf("EntrypointIDs = %v", export.EntrypointIDs)
	}
	if len(export.SinkIDs) != 1 || export.SinkIDs[0] != "app.Repo#store()" {
		t.Errorf("SinkIDs = %v", export.SinkIDs)
	}
}

func TestExportTopologyNodeTruncation(t *testing.T) {
	g, roles := exportGraph(t)
	export := ExportTopology(g, roles, 2, 100)

	// First two ids in discovery order survive: entry and mid.
	if len(export.Nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %v", export.Nodes)
	}
	if export.Nodes[0] != "app.Ctl#entry()" || export.Nodes[1] != "app.Svc#mid()" {
		t.Errorf("Nodes = %v", export.Nodes)
	}
	// The mid -> store edge loses its callee; only entry -> mid survives.
	if len(export.Edges) != 1 || export.Edges[0] != [2]string{"app.Ctl#entry()", "app.Svc#mid()"} {
		t.Errorf("Edges = %v", export.Edges)
	}
	// The sink fell off: its role list entry must go with it.
	if len(export.SinkIDs) != 0 {
		t.Errorf("SinkIDs = %v, want empty", export.SinkIDs)
	}
	if len(export.EntrypointIDs) != 1 {
		t.Errorf("EntrypointIDs = %v", export.EntrypointIDs)
	}
}

func TestExportTopologyZeroEdgeLimit(t *testing.T) {
	g, roles := exportGraph(t)
	export := ExportTopology(g, roles, 100, 0)

	if export.Edges == nil || len(export.Edges) != 0 {
		t.Errorf("Expected empty non-nil edge list, got %v", export.Edges)
	}
	// Role lists are independent of the edge limit.
	if len(export.EntrypointIDs) != 1 || len(export.SinkIDs) != 1 {
		t.Errorf("Role lists must survive a zero edge limit: %v / %v",
			export.EntrypointIDs, export.SinkIDs)
	}
}

func TestExportTopologyNeverInventsElements(t *testing.T) {
	g, roles := exportGraph(t)
	export := ExportTopology(g, roles, 3, 100)

	known := make(map[string]bool)
	for _, id := range g.NodeIDs() {
		known[id] = true
	}
	surviving := make(map[string]bool)
	for _, id := range export.Nodes {
		if !known[id] {
			t.Errorf("Exported unknown node %q", id)
		}
		surviving[id] = true
	}
	for _, e := range export.Edges {
		if !surviving[e[0]] || !surviving[e[1]] {
			t.Errorf("Edge %v references a non-surviving node", e)
		}
	}
	for _, id := range append(export.EntrypointIDs, export.SinkIDs...) {
		if !surviving[id] {
			t.Errorf("Role id %q not in surviving set", id)
		}
	}
}

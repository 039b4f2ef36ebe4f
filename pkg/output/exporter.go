package output

import (
	"github.com/perimetric/riskweaver/pkg/graph"
	"github.com/perimetric/riskweaver/pkg/models"
)

// ExportTopology truncates the graph for the external renderer. Truncation is
// deterministic: the first limitNodes ids in discovery order survive, edges
// are kept only when both endpoints survive (up to limitEdges, iterated in
// discovery order), and the role id lists are filtered to the surviving set.
// The export never contains a node or edge the internal graph does not.
func ExportTopology(g *graph.Graph, roles *graph.RoleSets, limitNodes, limitEdges int) models.TopologyExport {
	export := models.TopologyExport{
		Nodes:         []string{},
		Edges:         [][2]string{},
		EntrypointIDs: []string{},
		SinkIDs:       []string{},
	}

	surviving := make(map[string]bool, limitNodes)
	for _, id := range g.NodeIDs() {
		if len(export.Nodes) >= limitNodes {
			break
		}
		export.Nodes = append(export.Nodes, id)
		surviving[id] = true
	}

	for _, caller := range export.Nodes {
		if len(export.Edges) >= limitEdges {
			break
		}
		for _, callee := range g.Callees(caller) {
			if len(export.Edges) >= limitEdges {
				break
			}
			if !surviving[callee] {
				continue
			}
			export.Edges = append(export.Edges, [2]string{caller, callee})
		}
	}

	for _, id := range roles.Entrypoints {
		if surviving[id] {
			export.EntrypointIDs = append(export.EntrypointIDs, id)
		}
	}
	for _, id := range roles.Sinks {
		if surviving[id] {
			export.SinkIDs = append(export.SinkIDs, id)
		}
	}
	return export
}

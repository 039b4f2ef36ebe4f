package graph

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/perimetric/riskweaver/pkg/config"
	"github.com/perimetric/riskweaver/pkg/scanner"
)

// Builder assembles the frozen call graph from scanned units. Two passes:
// the first registers every declared callable as a node, so forward
// references across files resolve; the second links heuristic call edges by
// simple-name match with a bounded candidate expansion. Unmatched calls are
// dropped rather than synthesized; the graph only ever under-approximates
// unresolvable dispatch.
type Builder struct {
	logger *slog.Logger
	cfg    *config.Config
}

// NewBuilder creates a graph builder bound to the frozen classification config.
func NewBuilder(logger *slog.Logger, cfg *config.Config) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger, cfg: cfg}
}

// Build produces the graph and its derived role sets. The returned graph is
// complete and must not be mutated by callers.
func (b *Builder) Build(scan *scanner.Result) (*Graph, *RoleSets) {
	g := &Graph{
		nodes: make(map[string]*MethodNode),
		adj:   make(map[string][]string),
	}

	// Pass 1: register nodes in discovery order (units are path-sorted, so
	// ids and duplicate-collision outcomes are identical across runs).
	byName := make(map[string][]string) // simple name -> node ids, discovery order
	calls := make(map[string][]string)  // node id -> invoked simple names
	truncated := false

	for _, unit := range scan.Units {
		for _, m := range unit.Methods {
			if b.cfg.Graph.MaxNodes > 0 && len(g.order) >= b.cfg.Graph.MaxNodes {
				truncated = true
				break
			}
			id := methodID(m)
			if _, exists := g.nodes[id]; exists {
				// Duplicate signature: first discovery wins.
				continue
			}
			node := b.newNode(id, unit.Path, m)
			node.order = len(g.order)
			g.nodes[id] = node
			g.order = append(g.order, id)
			byName[m.Name] = append(byName[m.Name], id)
			calls[id] = m.Calls
		}
	}
	if truncated {
		b.logger.Warn("graph truncated at node cap", "max_nodes", b.cfg.Graph.MaxNodes)
	}

	// Pass 2: resolve call names against the complete node set. A simple
	// name may be declared many times; expansion is bounded to keep the
	// edge count from blowing up on common names.
	expansion := b.cfg.Graph.CandidateExpansion
	if expansion <= 0 {
		expansion = 20
	}
	for _, caller := range g.order {
		seen := make(map[string]bool)
		for _, name := range calls[caller] {
			candidates := byName[name]
			if len(candidates) > expansion {
				candidates = candidates[:expansion]
			}
			for _, callee := range candidates {
				if seen[callee] {
					continue
				}
				if b.cfg.Graph.MaxEdges > 0 && g.edges >= b.cfg.Graph.MaxEdges {
					b.logger.Warn("graph truncated at edge cap", "max_edges", b.cfg.Graph.MaxEdges)
					return g, b.deriveRoles(g)
				}
				seen[callee] = true
				g.adj[caller] = append(g.adj[caller], callee)
				g.edges++
			}
		}
	}

	return g, b.deriveRoles(g)
}

// newNode classifies one scanned method into a graph node. Role assignment is
// first-match-wins over the ordered predicates: entrypoint, sink, test,
// regular.
func (b *Builder) newNode(id, file string, m scanner.Method) *MethodNode {
	node := &MethodNode{
		ID:         id,
		File:       file,
		Line:       m.Line,
		Class:      qualifiedClass(m),
		ClassKind:  m.ClassKind,
		Complexity: m.Complexity,
		Body:       m.Body,
		Test:       m.Test,
		ParamShape: paramShape(m.Params),
	}

	node.HasAuth = b.cfg.HasAuthAnnotation(m.Annotations)
	node.HasValidation = b.cfg.HasValidationAnnotation(m.Annotations) ||
		(m.Body != "" && (b.cfg.MatchesValidateCall(m.Body) || b.cfg.MatchesSanitizeCall(m.Body)))
	node.HasRateLimit = b.cfg.HasRateAnnotation(m.Annotations)
	if m.Body != "" {
		node.HasSanitize = b.cfg.MatchesSanitizeCall(m.Body)
		node.HasAudit = b.cfg.MatchesAuditCall(m.Body)
	}

	node.EntryKind = b.cfg.EntryKind(m.Annotations)
	if m.Body != "" {
		node.SinkKind, node.Privileged, _ = b.cfg.SinkKind(m.Body)
	}

	for _, c := range m.Catches {
		node.Catches = append(node.Catches, CatchSite(c))
	}

	switch {
	case node.EntryKind != "":
		node.Role = RoleEntrypoint
	case node.SinkKind != "":
		node.Role = RoleSink
	case m.Test:
		node.Role = RoleTest
	default:
		node.Role = RoleRegular
	}
	return node
}

func (b *Builder) deriveRoles(g *Graph) *RoleSets {
	roles := &RoleSets{
		entrypointSet: make(map[string]bool),
		sinkSet:       make(map[string]bool),
	}
	for _, id := range g.order {
		switch g.nodes[id].Role {
		case RoleEntrypoint:
			roles.Entrypoints = append(roles.Entrypoints, id)
			roles.entrypointSet[id] = true
		case RoleSink:
			roles.Sinks = append(roles.Sinks, id)
			roles.sinkSet[id] = true
		case RoleTest:
			roles.Tests = append(roles.Tests, id)
		}
	}
	return roles
}

// methodID builds the canonical signature id: pkg.Class#name(paramTypes).
func methodID(m scanner.Method) string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = strings.TrimSpace(p)
	}
	id := fmt.Sprintf("%s#%s(%s)", qualifiedClass(m), m.Name, strings.Join(params, ","))
	return strings.TrimPrefix(id, ".")
}

func qualifiedClass(m scanner.Method) string {
	if m.Package == "" {
		return m.Class
	}
	return m.Package + "." + m.Class
}

// paramShape buckets parameter types by input structure, most permissive
// bucket wins.
func paramShape(params []string) ParamShape {
	if len(params) == 0 {
		return ShapeLow
	}
	joined := strings.Join(params, " ")
	if strings.Contains(joined, "InputStream") || strings.Contains(joined, "byte[") {
		return ShapeBinary
	}
	for _, p := range params {
		if strings.HasSuffix(strings.TrimSpace(p), "Object") {
			return ShapeUntyped
		}
	}
	if strings.Contains(joined, "Map") || strings.Contains(joined, "JsonNode") {
		return ShapeUntyped
	}
	if strings.Contains(joined, "String") {
		return ShapeStringy
	}
	return ShapeLow
}

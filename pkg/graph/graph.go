package graph

// Role classifies a node by its structural function. Exactly one role per
// node; classification is first-match-wins over the ordered predicate list
// entrypoint > sink > test > regular.
type Role string

const (
	RoleEntrypoint Role = "entrypoint"
	RoleSink       Role = "sink"
	RoleTest       Role = "test"
	RoleRegular    Role = "regular"
)

// ParamShape buckets a callable's parameter list by how much structure the
// types impose on the input. Used by the input-entropy metric.
type ParamShape string

const (
	ShapeLow     ParamShape = "low"
	ShapeStringy ParamShape = "stringy"
	ShapeUntyped ParamShape = "untyped"
	ShapeBinary  ParamShape = "binary"
)

// ParamShapes lists every bucket, in fixed order.
var ParamShapes = []ParamShape{ShapeLow, ShapeStringy, ShapeUntyped, ShapeBinary}

// MethodNode is one declared callable in the frozen call graph.
type MethodNode struct {
	ID   string
	File string
	Line int
	Role Role

	HasAuth       bool
	HasValidation bool
	HasSanitize   bool
	HasRateLimit  bool
	HasAudit      bool
	ParamShape    ParamShape

	EntryKind  string // http | mq | job, set for entrypoints
	SinkKind   string // db | fs | http, set for sinks and sink-shaped nodes
	Privileged bool

	Class      string
	ClassKind  string
	Complexity int
	Body       string
	Test       bool

	// Catches carries the node's exception-handling constructs for the
	// fail-safe and error-transparency metrics.
	Catches []CatchSite

	order int
}

// CatchSite locates one catch construct inside a node.
type CatchSite struct {
	Body string
	Line int
}

// Checkpoint reports whether the node performs authorization or validation,
// i.e. counts as a defensive layer on a path.
func (n *MethodNode) Checkpoint() bool {
	return n.HasAuth || n.HasValidation || n.HasSanitize
}

// Sanitizes reports whether the node cleans data flowing through it.
func (n *MethodNode) Sanitizes() bool {
	return n.HasValidation || n.HasSanitize
}

// Graph is the immutable call graph: one node per declared callable plus an
// adjacency mapping to callee ids. Built once per run; afterwards analyzers
// hold read-only references. Every edge endpoint references a registered
// node; unresolved calls are dropped at build time, never synthesized.
type Graph struct {
	nodes map[string]*MethodNode
	order []string            // node ids in discovery order
	adj   map[string][]string // callee ids, deduped, in callee discovery order
	edges int
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *MethodNode {
	return g.nodes[id]
}

// NodeIDs returns all node ids in discovery order. Callers must not mutate
// the returned slice.
func (g *Graph) NodeIDs() []string {
	return g.order
}

// Callees returns the callee ids of a node in deterministic order. Callers
// must not mutate the returned slice.
func (g *Graph) Callees(id string) []string {
	return g.adj[id]
}

// NodeCount returns the number of registered nodes.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of resolved call edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// RoleSets are the derived per-role id sets, each in discovery order.
type RoleSets struct {
	Entrypoints []string
	Sinks       []string
	Tests       []string

	entrypointSet map[string]bool
	sinkSet       map[string]bool
}

// IsEntrypoint reports membership in the entrypoint set.
func (r *RoleSets) IsEntrypoint(id string) bool { return r.entrypointSet[id] }

// IsSink reports membership in the sink set.
func (r *RoleSets) IsSink(id string) bool { return r.sinkSet[id] }

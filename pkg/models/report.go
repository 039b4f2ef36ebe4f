package models

// Metric status values. Unavailable is not an error: it means the graph lacks
// the structural precondition the metric needs.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// MetricResult is the output of one analyzer run over the frozen graph.
type MetricResult struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Group    string                 `json:"group"`
	Status   string                 `json:"status"`
	Reason   string                 `json:"reason,omitempty"`
	Score    *float64               `json:"normalized_score"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
	Findings []Finding              `json:"findings"`
}

// OK reports whether the metric produced a usable score.
func (m *MetricResult) OK() bool {
	return m.Status == StatusOK && m.Score != nil
}

// AggregateScore rolls available metric scores into per-group means and one
// overall equal-weight mean. Score is null when zero metrics are available.
type AggregateScore struct {
	Score      *float64            `json:"score"`
	Components map[string]float64  `json:"components"`
	Groups     map[string]*float64 `json:"groups"`
	Available  int                 `json:"available"`
	Notes      []string            `json:"notes,omitempty"`
}

// TopologyExport is the truncated graph shipped to the external renderer.
// Nodes come first-N in discovery order; edges only reference surviving nodes.
type TopologyExport struct {
	Nodes         []string    `json:"nodes"`
	Edges         [][2]string `json:"edges"`
	EntrypointIDs []string    `json:"entrypoint_ids"`
	SinkIDs       []string    `json:"sink_ids"`
}

// CreationInfo records provenance for one engine run.
type CreationInfo struct {
	Created     string `json:"created"`
	RunID       string `json:"run_id"`
	ToolName    string `json:"tool_name"`
	ToolVersion string `json:"tool_version"`
}

// ScanSummary describes what the source scanner saw.
type ScanSummary struct {
	FilesScanned int      `json:"files_scanned"`
	FilesParsed  int      `json:"files_parsed"`
	Warnings     []string `json:"warnings,omitempty"`
}

// GraphSummary describes the built call graph.
type GraphSummary struct {
	Nodes       int `json:"nodes"`
	Edges       int `json:"edges"`
	Entrypoints int `json:"entrypoints"`
	Sinks       int `json:"sinks"`
	Tests       int `json:"tests"`
}

// AnalysisReport is the single immutable result object of one engine run.
type AnalysisReport struct {
	CreationInfo CreationInfo   `json:"creation_info"`
	Repository   string         `json:"repository"`
	Scan         ScanSummary    `json:"scan"`
	Graph        GraphSummary   `json:"graph"`
	Metrics      []MetricResult `json:"metrics"`
	Aggregate    AggregateScore `json:"aggregate"`
	Export       TopologyExport `json:"export"`
}

// Dependency is one build-manifest coordinate consumed by the dependency
// risk metric.
type Dependency struct {
	Group    string `json:"group"`
	Artifact string `json:"artifact"`
	Scope    string `json:"scope"`
}

// DependencyReport is the externally resolved dependency list. It can be
// loaded from a pre-resolved JSON file or assembled from build manifests.
type DependencyReport struct {
	Dependencies   []Dependency `json:"dependencies"`
	InternalPrefix string       `json:"internal_prefix,omitempty"`
	Source         string       `json:"source"`
}

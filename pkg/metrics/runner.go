// Package metrics implements the 15 structural risk analyzers. Every analyzer
// is a pure read over the frozen graph: it never mutates the graph, the role
// sets or another analyzer's output, so the whole battery runs concurrently
// behind one barrier.
package metrics

import (
	"log/slog"
	"sync"

	"github.com/perimetric/riskweaver/pkg/config"
	"github.com/perimetric/riskweaver/pkg/graph"
	"github.com/perimetric/riskweaver/pkg/models"
)

// Inputs is everything one analyzer run reads. All fields are read-only for
// the duration of the run.
type Inputs struct {
	Graph *graph.Graph
	Roles *graph.RoleSets

	// Languages is the sorted extension census of the checkout.
	Languages []string

	// Deps is the externally resolved dependency report, nil when no build
	// manifest or report was found. DepsEnabled gates the dependency metric
	// regardless of whether Deps is present.
	Deps        *models.DependencyReport
	DepsEnabled bool
}

// Analyzer runs the fixed metric battery over one frozen graph.
type Analyzer struct {
	logger *slog.Logger
	cfg    *config.Config
}

// NewAnalyzer creates an analyzer bound to the frozen classification config.
func NewAnalyzer(logger *slog.Logger, cfg *config.Config) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger, cfg: cfg}
}

type metricFunc func(a *Analyzer, in *Inputs) models.MetricResult

type metricDef struct {
	id    string
	name  string
	group string
	fn    metricFunc
}

// registry fixes metric identity and report order.
var registry = []metricDef{
	{"A1", "attack surface exposure", "A", (*Analyzer).attackSurfaceExposure},
	{"A2", "explosive complexity index", "A", (*Analyzer).explosiveComplexity},
	{"A3", "input entropy", "A", (*Analyzer).inputEntropy},
	{"B1", "defense-in-depth score", "B", (*Analyzer).defenseInDepth},
	{"B2", "privilege proximity index", "B", (*Analyzer).privilegeProximity},
	{"B3", "multi-path security parity", "B", (*Analyzer).pathSecurityParity},
	{"B4", "fail-safe score", "B", (*Analyzer).failSafeScore},
	{"C1", "tainted path complexity", "C", (*Analyzer).taintedPathComplexity},
	{"C2", "error transparency index", "C", (*Analyzer).errorTransparency},
	{"C3", "secret flow analysis", "C", (*Analyzer).secretFlow},
	{"D1", "polyglot attack drift", "D", (*Analyzer).polyglotDrift},
	{"D2", "trust chain propagation depth", "D", (*Analyzer).trustChainDepth},
	{"E1", "open-source dependency risk", "E", (*Analyzer).dependencyRisk},
	{"F1", "fix complexity predictor", "F", (*Analyzer).fixComplexity},
	{"F2", "security regression probability", "F", (*Analyzer).regressionProbability},
}

// MetricIDs returns the metric ids in report order.
func MetricIDs() []string {
	ids := make([]string, len(registry))
	for i, def := range registry {
		ids[i] = def.id
	}
	return ids
}

// Run executes every analyzer concurrently and returns results in fixed
// registry order. The returned slice is complete: the aggregator may assume
// exactly one result per registered metric.
func (a *Analyzer) Run(in *Inputs) []models.MetricResult {
	results := make([]models.MetricResult, len(registry))
	var wg sync.WaitGroup
	for i, def := range registry {
		wg.Add(1)
		go func(i int, def metricDef) {
			defer wg.Done()
			res := def.fn(a, in)
			res.ID = def.id
			res.Name = def.name
			res.Group = def.group
			for j := range res.Findings {
				res.Findings[j].Metric = def.id
			}
			models.SortFindings(res.Findings)
			if res.Findings == nil {
				res.Findings = []models.Finding{}
			}
			results[i] = res
			a.logger.Debug("metric complete", "metric", def.id, "status", res.Status)
		}(i, def)
	}
	wg.Wait()
	return results
}

// ok builds a scored result, clipping the score into [0,1].
func ok(score float64, raw map[string]interface{}, findings []models.Finding) models.MetricResult {
	s := clip01(score)
	return models.MetricResult{
		Status:   models.StatusOK,
		Score:    &s,
		Raw:      raw,
		Findings: findings,
	}
}

// unavailable builds a null-score result for a missing structural precondition.
func unavailable(reason string) models.MetricResult {
	return models.MetricResult{
		Status: models.StatusUnavailable,
		Reason: reason,
	}
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/perimetric/riskweaver/pkg/graph"
	"github.com/perimetric/riskweaver/pkg/models"
)

const (
	aseSampleCap = 50
	eciTopK      = 10
)

// attackSurfaceExposure (A1) scores each entrypoint by missing auth, missing
// validation and normalized fan-out, then averages over all entrypoints.
func (a *Analyzer) attackSurfaceExposure(in *Inputs) models.MetricResult {
	entries := in.Roles.Entrypoints
	if len(entries) == 0 {
		return unavailable("no entrypoints discovered")
	}

	maxOutdeg := 0
	for _, id := range entries {
		if d := len(in.Graph.Callees(id)); d > maxOutdeg {
			maxOutdeg = d
		}
	}

	type entryScore struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}

	var findings []models.Finding
	var sample []entryScore
	total := 0.0
	audited := 0
	for _, id := range entries {
		node := in.Graph.Node(id)
		if node.HasAudit {
			audited++
		}
		auth, validation := 0.0, 0.0
		if node.HasAuth {
			auth = 1
		}
		if node.HasValidation {
			validation = 1
		}
		fanout := 0.0
		if maxOutdeg > 0 {
			fanout = float64(len(in.Graph.Callees(id))) / float64(maxOutdeg)
		}
		term := ((1 - auth) + (1 - validation) + fanout) / 3
		total += term
		sample = append(sample, entryScore{ID: id, Score: term})

		if !node.HasAuth {
			findings = append(findings, models.Finding{
				Severity: models.SeverityHigh,
				File:     node.File,
				Line:     node.Line,
				Method:   id,
				What:     "externally reachable entrypoint has no authorization marker",
				Why:      "anyone who can reach the endpoint executes it with full privileges",
				Fix:      "guard the handler with an authorization annotation or an explicit access check",
			})
		}
		if !node.HasValidation {
			findings = append(findings, models.Finding{
				Severity: models.SeverityMedium,
				File:     node.File,
				Line:     node.Line,
				Method:   id,
				What:     "entrypoint accepts input without a validation marker",
				Why:      "unvalidated input propagates untrusted data into the call graph",
				Fix:      "validate or sanitize request parameters at the boundary",
			})
		}
	}

	sort.SliceStable(sample, func(i, j int) bool { return sample[i].Score > sample[j].Score })
	if len(sample) > aseSampleCap {
		sample = sample[:aseSampleCap]
	}

	return ok(total/float64(len(entries)), map[string]interface{}{
		"entrypoints": len(entries),
		"audited":     audited,
		"max_outdeg":  maxOutdeg,
		"top":         sample,
	}, findings)
}

// explosiveComplexity (A2) weights each node reached from an entrypoint by
// its normalized fan-out, discounted by distance, and averages the top K.
func (a *Analyzer) explosiveComplexity(in *Inputs) models.MetricResult {
	entries := in.Roles.Entrypoints
	if len(entries) == 0 {
		return unavailable("no entrypoints discovered")
	}

	dist := in.Graph.DistancesFrom(entries, a.cfg.Graph.MaxDepth)

	maxOutdeg := 0
	for id := range dist {
		if d := len(in.Graph.Callees(id)); d > maxOutdeg {
			maxOutdeg = d
		}
	}

	type weighted struct {
		id     string
		weight float64
	}
	var values []weighted
	var findings []models.Finding
	for _, id := range in.Graph.NodeIDs() {
		d, reached := dist[id]
		if !reached {
			continue
		}
		w := 0.0
		if maxOutdeg > 0 {
			w = (float64(len(in.Graph.Callees(id))) / float64(maxOutdeg)) / float64(d+1)
		}
		values = append(values, weighted{id: id, weight: w})

		node := in.Graph.Node(id)
		pressure := float64(node.Complexity) / float64(d+1)
		if pressure >= a.cfg.Thresholds.ECIMedium {
			severity := models.SeverityMedium
			if pressure >= a.cfg.Thresholds.ECIHigh {
				severity = models.SeverityHigh
			}
			findings = append(findings, models.Finding{
				Severity: severity,
				File:     node.File,
				Line:     node.Line,
				Method:   id,
				What:     fmt.Sprintf("complex method %.1f sits %d hops from an entrypoint", pressure, d),
				Why:      "high complexity close to the attack surface concentrates exploitable logic",
				Fix:      "split the method or move the complex logic behind a validated boundary",
			})
		}
	}

	// Stable top-K: weight desc, then discovery order (values already follow it).
	sort.SliceStable(values, func(i, j int) bool { return values[i].weight > values[j].weight })
	k := eciTopK
	if len(values) < k {
		k = len(values)
	}
	total := 0.0
	top := make([]map[string]interface{}, 0, k)
	for _, v := range values[:k] {
		total += v.weight
		top = append(top, map[string]interface{}{"id": v.id, "weight": v.weight})
	}
	score := 0.0
	if k > 0 {
		score = total / float64(k)
	}

	return ok(score, map[string]interface{}{
		"reached":    len(dist),
		"max_outdeg": maxOutdeg,
		"top":        top,
	}, findings)
}

// inputEntropy (A3) measures how evenly entrypoint parameter shapes are
// spread, weighting each shape bucket by the fan-out reachable through its
// entrypoints. A surface taking everything from primitives to raw bytes
// leaves more room for malformed input than a uniform one.
func (a *Analyzer) inputEntropy(in *Inputs) models.MetricResult {
	entries := in.Roles.Entrypoints
	if len(entries) == 0 {
		return unavailable("no entrypoints discovered")
	}

	weights := make(map[graph.ParamShape]float64, len(graph.ParamShapes))
	counts := make(map[graph.ParamShape]int, len(graph.ParamShapes))
	totalWeight := 0.0
	for _, id := range entries {
		node := in.Graph.Node(id)
		w := float64(in.Graph.ReachableCount(id, a.cfg.Graph.MaxDepth))
		weights[node.ParamShape] += w
		counts[node.ParamShape]++
		totalWeight += w
	}
	if totalWeight == 0 {
		// Every entrypoint is a leaf: fall back to bucket population.
		for shape, n := range counts {
			weights[shape] = float64(n)
			totalWeight += float64(n)
		}
	}

	entropy := 0.0
	for _, shape := range graph.ParamShapes {
		w := weights[shape]
		if w <= 0 {
			continue
		}
		p := w / totalWeight
		entropy -= p * math.Log2(p)
	}
	score := entropy / math.Log2(float64(len(graph.ParamShapes)))

	var findings []models.Finding
	if score >= a.cfg.Thresholds.EntropyMedium {
		severity := models.SeverityMedium
		if score >= a.cfg.Thresholds.EntropyHigh {
			severity = models.SeverityHigh
		}
		for _, shape := range []graph.ParamShape{graph.ShapeUntyped, graph.ShapeBinary} {
			if counts[shape] == 0 {
				continue
			}
			findings = append(findings, models.Finding{
				Severity: severity,
				What:     fmt.Sprintf("%d entrypoint(s) accept %s input on a high-entropy surface", counts[shape], shape),
				Why:      "loosely typed input shapes defeat static validation of the boundary",
				Fix:      "replace untyped or raw payload parameters with dedicated request types",
			})
		}
	}

	raw := map[string]interface{}{"entropy": entropy}
	for _, shape := range graph.ParamShapes {
		raw["bucket_"+string(shape)] = counts[shape]
	}
	return ok(score, raw, findings)
}

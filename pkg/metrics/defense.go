package metrics

import (
	"fmt"
	"strings"

	"github.com/perimetric/riskweaver/pkg/models"
)

const catchSampleCap = 50

// defenseInDepth (B1) walks the shortest path of each reachable
// (entrypoint, sink) pair and measures what fraction of path nodes perform
// an auth or validation checkpoint. Thin checkpoint coverage raises the score.
func (a *Analyzer) defenseInDepth(in *Inputs) models.MetricResult {
	entries := in.Roles.Entrypoints
	sinks := in.Roles.Sinks
	if len(entries) == 0 {
		return unavailable("no entrypoints discovered")
	}
	if len(sinks) == 0 {
		return unavailable("no sinks discovered")
	}

	pairs := 0
	total := 0.0
	worstRatio := 1.0
	var worstEntry, worstSink string
	for _, e := range entries {
		if pairs >= a.cfg.Graph.PairCap {
			break
		}
		for _, s := range sinks {
			if pairs >= a.cfg.Graph.PairCap {
				break
			}
			path := in.Graph.ShortestPath(e, s, a.cfg.Graph.MaxDepth)
			if path == nil {
				continue
			}
			checkpoints := 0
			for _, id := range path {
				if in.Graph.Node(id).Checkpoint() {
					checkpoints++
				}
			}
			ratio := float64(checkpoints) / float64(len(path))
			total += ratio
			pairs++
			if ratio < worstRatio {
				worstRatio = ratio
				worstEntry, worstSink = e, s
			}
		}
	}
	if pairs == 0 {
		return unavailable("no sink reachable from an entrypoint within the depth bound")
	}

	var findings []models.Finding
	if worstRatio < a.cfg.Thresholds.IDSHigh {
		severity := models.SeverityHigh
		if worstRatio < a.cfg.Thresholds.IDSCritical {
			severity = models.SeverityCritical
		}
		node := in.Graph.Node(worstEntry)
		findings = append(findings, models.Finding{
			Severity: severity,
			File:     node.File,
			Line:     node.Line,
			Method:   worstEntry,
			What:     fmt.Sprintf("path to sink %s carries checkpoint coverage %.2f", worstSink, worstRatio),
			Why:      "a sink reachable through unguarded hops has no second line of defense",
			Fix:      "add an authorization or validation step on the intermediate layer",
		})
	}

	return ok(1-total/float64(pairs), map[string]interface{}{
		"pairs":       pairs,
		"worst_ratio": worstRatio,
	}, findings)
}

// privilegeProximity (B2) scores how close the nearest sink sits to the
// attack surface: score = 1/(1+minDistance).
func (a *Analyzer) privilegeProximity(in *Inputs) models.MetricResult {
	entries := in.Roles.Entrypoints
	sinks := in.Roles.Sinks
	if len(entries) == 0 {
		return unavailable("no entrypoints discovered")
	}
	if len(sinks) == 0 {
		return unavailable("no sinks discovered")
	}

	dist := in.Graph.DistancesFrom(entries, a.cfg.Graph.MaxDepth)
	minDistance := -1
	var nearest string
	for _, s := range sinks {
		d, reached := dist[s]
		if !reached {
			continue
		}
		if minDistance < 0 || d < minDistance {
			minDistance = d
			nearest = s
		}
	}
	if minDistance < 0 {
		return unavailable("no sink reachable from an entrypoint within the depth bound")
	}

	var findings []models.Finding
	if minDistance <= a.cfg.Thresholds.PPIHighDistance {
		severity := models.SeverityHigh
		if minDistance <= a.cfg.Thresholds.PPICriticalDistance {
			severity = models.SeverityCritical
		}
		node := in.Graph.Node(nearest)
		findings = append(findings, models.Finding{
			Severity: severity,
			File:     node.File,
			Line:     node.Line,
			Method:   nearest,
			What:     fmt.Sprintf("privileged sink is %d hop(s) from an entrypoint", minDistance),
			Why:      "a short distance leaves little room for defensive layers between input and privilege",
			Fix:      "route the call through a dedicated service layer with its own checks",
		})
	}

	return ok(1/float64(1+minDistance), map[string]interface{}{
		"min_distance": minDistance,
		"nearest_sink": nearest,
	}, findings)
}

// pathSecurityParity (B3) enumerates alternative simple paths per pair and
// compares their checkpoint counts: a lightly guarded path next to a heavily
// guarded one means some route bypasses the checks.
func (a *Analyzer) pathSecurityParity(in *Inputs) models.MetricResult {
	entries := in.Roles.Entrypoints
	sinks := in.Roles.Sinks
	if len(entries) == 0 {
		return unavailable("no entrypoints discovered")
	}
	if len(sinks) == 0 {
		return unavailable("no sinks discovered")
	}

	pairs := 0
	worst := 1.0
	var worstEntry, worstSink string
	for _, e := range entries {
		if pairs >= a.cfg.Graph.PairCap {
			break
		}
		for _, s := range sinks {
			if pairs >= a.cfg.Graph.PairCap {
				break
			}
			paths := in.Graph.SimplePaths(e, s, a.cfg.Graph.MaxDepth, a.cfg.Graph.PathsPerPair)
			if len(paths) == 0 {
				continue
			}
			pairs++
			minCk, maxCk := -1, 0
			for _, path := range paths {
				ck := 0
				for _, id := range path {
					if in.Graph.Node(id).Checkpoint() {
						ck++
					}
				}
				if minCk < 0 || ck < minCk {
					minCk = ck
				}
				if ck > maxCk {
					maxCk = ck
				}
			}
			ratio := 1.0
			if maxCk > 0 {
				ratio = float64(minCk) / float64(maxCk)
			}
			if ratio < worst {
				worst = ratio
				worstEntry, worstSink = e, s
			}
		}
	}
	if pairs == 0 {
		return unavailable("no path enumerated between an entrypoint and a sink")
	}

	score := 1 - worst
	var findings []models.Finding
	if score >= a.cfg.Thresholds.MPSPMedium {
		severity := models.SeverityMedium
		if score >= a.cfg.Thresholds.MPSPHigh {
			severity = models.SeverityHigh
		}
		node := in.Graph.Node(worstEntry)
		findings = append(findings, models.Finding{
			Severity: severity,
			File:     node.File,
			Line:     node.Line,
			Method:   worstEntry,
			What:     fmt.Sprintf("routes to sink %s carry unequal checkpoint counts (parity %.2f)", worstSink, worst),
			Why:      "the least guarded route sets the effective security of the whole pair",
			Fix:      "move the checkpoint into a layer every route passes through",
		})
	}

	return ok(score, map[string]interface{}{
		"pairs":        pairs,
		"worst_parity": worst,
	}, findings)
}

// failSafeScore (B4) classifies the catch constructs reachable from the
// attack surface: a rethrow fails safely, everything else swallows the error.
// Score is the unsafe share.
func (a *Analyzer) failSafeScore(in *Inputs) models.MetricResult {
	entries := in.Roles.Entrypoints
	if len(entries) == 0 {
		return unavailable("no entrypoints discovered")
	}
	reachable := in.Graph.DistancesFrom(entries, a.cfg.Graph.MaxDepth)

	total, safe := 0, 0
	var findings []models.Finding
	for _, id := range in.Graph.NodeIDs() {
		if _, ok := reachable[id]; !ok {
			continue
		}
		node := in.Graph.Node(id)
		for _, c := range node.Catches {
			total++
			body := strings.TrimSpace(strings.Trim(strings.TrimSpace(c.Body), "{}"))
			switch {
			case strings.Contains(body, "throw"):
				safe++
			case body == "":
				if len(findings) < catchSampleCap {
					findings = append(findings, models.Finding{
						Severity: models.SeverityCritical,
						File:     node.File,
						Line:     c.Line,
						Method:   id,
						What:     "empty catch block swallows the exception",
						Why:      "silent failure hides broken security checks and corrupt state",
						Fix:      "rethrow, or log and abort the operation",
					})
				}
			case strings.Contains(body, "return"):
				if len(findings) < catchSampleCap {
					findings = append(findings, models.Finding{
						Severity: models.SeverityMedium,
						File:     node.File,
						Line:     c.Line,
						Method:   id,
						What:     "catch block substitutes a default return value",
						Why:      "continuing with a fallback value after a failure can bypass the intended guard",
						Fix:      "propagate the failure instead of defaulting",
					})
				}
			}
		}
	}
	if total == 0 {
		return ok(0, map[string]interface{}{"catches": 0}, nil)
	}

	return ok(1-float64(safe)/float64(total), map[string]interface{}{
		"catches": total,
		"safe":    safe,
	}, findings)
}

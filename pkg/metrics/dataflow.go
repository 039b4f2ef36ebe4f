package metrics

import (
	"fmt"
	"strings"

	"github.com/perimetric/riskweaver/pkg/models"
)

const (
	leakSampleCap = 20
	tcpdCap       = 10.0
)

// taintedPathComplexity (C1) follows calls from entrypoints and tracks the
// longest run of consecutive hops without a sanitizing node; the run resets
// on any validation or sanitization flag. On reaching a sink the run is
// normalized by path length; the system score is the worst ratio observed.
func (a *Analyzer) taintedPathComplexity(in *Inputs) models.MetricResult {
	entries := in.Roles.Entrypoints
	sinks := in.Roles.Sinks
	if len(entries) == 0 {
		return unavailable("no entrypoints discovered")
	}
	if len(sinks) == 0 {
		return unavailable("no sinks discovered")
	}

	type state struct {
		id    string
		run   int
		depth int
	}
	seen := make(map[string]map[int]bool)
	visit := func(id string, run int) bool {
		runs := seen[id]
		if runs == nil {
			runs = make(map[int]bool)
			seen[id] = runs
		}
		if runs[run] {
			return false
		}
		runs[run] = true
		return true
	}

	var queue []state
	for _, e := range entries {
		run := 1
		if in.Graph.Node(e).Sanitizes() {
			run = 0
		}
		if visit(e, run) {
			queue = append(queue, state{id: e, run: run, depth: 0})
		}
	}

	maxRatio := 0.0
	maxRun := 0
	sinkHits := 0
	var worstSink string
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if in.Roles.IsSink(cur.id) {
			sinkHits++
			ratio := float64(cur.run) / float64(cur.depth+1)
			if ratio > maxRatio {
				maxRatio = ratio
			}
			if cur.run > maxRun {
				maxRun = cur.run
				worstSink = cur.id
			}
		}
		if cur.depth >= a.cfg.Graph.MaxDepth {
			continue
		}
		for _, next := range in.Graph.Callees(cur.id) {
			run := cur.run + 1
			if in.Graph.Node(next).Sanitizes() {
				run = 0
			}
			if visit(next, run) {
				queue = append(queue, state{id: next, run: run, depth: cur.depth + 1})
			}
		}
	}
	if sinkHits == 0 {
		return unavailable("no sink reachable from an entrypoint within the depth bound")
	}

	var findings []models.Finding
	if maxRun >= a.cfg.Thresholds.TPCMediumHops {
		severity := models.SeverityMedium
		switch {
		case maxRun >= a.cfg.Thresholds.TPCCriticalHops:
			severity = models.SeverityCritical
		case maxRun >= a.cfg.Thresholds.TPCHighHops:
			severity = models.SeverityHigh
		}
		node := in.Graph.Node(worstSink)
		findings = append(findings, models.Finding{
			Severity: severity,
			File:     node.File,
			Line:     node.Line,
			Method:   worstSink,
			What:     fmt.Sprintf("data reaches this sink after %d consecutive unsanitized hops", maxRun),
			Why:      "nothing on the path between input and sink cleans the tainted data",
			Fix:      "sanitize or validate the data before it crosses into the sink layer",
		})
	}

	return ok(maxRatio, map[string]interface{}{
		"max_consecutive_unsafe_hops": maxRun,
		"sink_reaches":                sinkHits,
	}, findings)
}

// errorTransparency (C2) measures the fraction of catch blocks that forward
// raw exception detail toward a response boundary.
func (a *Analyzer) errorTransparency(in *Inputs) models.MetricResult {
	leakPattern := a.cfg.ExceptionLeakPattern()
	total, leaks := 0, 0
	var findings []models.Finding
	for _, id := range in.Graph.NodeIDs() {
		node := in.Graph.Node(id)
		for _, c := range node.Catches {
			total++
			if !leakPattern.MatchString(c.Body) {
				continue
			}
			if !strings.Contains(c.Body, "return") && !strings.Contains(c.Body, "Response") {
				continue
			}
			leaks++
			if len(findings) < leakSampleCap {
				findings = append(findings, models.Finding{
					Severity: models.SeverityHigh,
					File:     node.File,
					Line:     c.Line,
					Method:   id,
					What:     "catch block returns raw exception detail to the caller",
					Why:      "stack traces and exception messages expose internals useful to an attacker",
					Fix:      "map the exception to a generic error response and log the detail server-side",
				})
			}
		}
	}
	if total == 0 {
		return ok(0, map[string]interface{}{"catches": 0}, nil)
	}

	return ok(float64(leaks)/float64(total), map[string]interface{}{
		"catches": total,
		"leaks":   leaks,
	}, findings)
}

// secretFlow (C3) scans body lines naming secret-like identifiers and flags
// the ones that also hit a logging or serialization egress.
func (a *Analyzer) secretFlow(in *Inputs) models.MetricResult {
	secretPattern := a.cfg.SecretWordPattern()
	logPattern := a.cfg.LogCallPattern()
	serializePattern := a.cfg.SerializeCallPattern()

	secretLines, leakLines := 0, 0
	var findings []models.Finding
	for _, id := range in.Graph.NodeIDs() {
		node := in.Graph.Node(id)
		if node.Body == "" {
			continue
		}
		for i, line := range strings.Split(node.Body, "\n") {
			if !secretPattern.MatchString(line) {
				continue
			}
			secretLines++
			if !logPattern.MatchString(line) && !serializePattern.MatchString(line) {
				continue
			}
			leakLines++
			if len(findings) < leakSampleCap {
				findings = append(findings, models.Finding{
					Severity: models.SeverityHigh,
					File:     node.File,
					Line:     node.Line + i,
					Method:   id,
					What:     "secret-like identifier flows into a logging or serialization call",
					Why:      "secrets written to logs or payloads persist outside the trust boundary",
					Fix:      "redact the value or drop the field before the egress call",
				})
			}
		}
	}
	if secretLines == 0 {
		return ok(0, map[string]interface{}{"secret_lines": 0}, nil)
	}

	return ok(float64(leakLines)/float64(secretLines), map[string]interface{}{
		"secret_lines": secretLines,
		"leak_lines":   leakLines,
	}, findings)
}

package metrics

import (
	"fmt"
	"strings"

	"github.com/perimetric/riskweaver/pkg/models"
)

const padBoundaryCap = 4.0

// polyglotDrift (D1) counts language boundaries in the checkout from the
// extension census. Each boundary is a place where validation conventions
// can silently diverge.
func (a *Analyzer) polyglotDrift(in *Inputs) models.MetricResult {
	boundaries := len(in.Languages) - 1
	if boundaries < 0 {
		boundaries = 0
	}

	var findings []models.Finding
	if boundaries >= a.cfg.Thresholds.PADMediumBoundaries {
		severity := models.SeverityMedium
		if boundaries >= a.cfg.Thresholds.PADHighBoundaries {
			severity = models.SeverityHigh
		}
		findings = append(findings, models.Finding{
			Severity: severity,
			What:     fmt.Sprintf("checkout spans %d language boundary(ies): %s", boundaries, strings.Join(in.Languages, ", ")),
			Why:      "data crossing a language boundary is re-parsed under different rules on each side",
			Fix:      "validate on both sides of every cross-language interface",
		})
	}

	return ok(float64(boundaries)/padBoundaryCap, map[string]interface{}{
		"languages":  in.Languages,
		"boundaries": boundaries,
	}, findings)
}

// trustChainDepth (D2) follows calls from authenticated entrypoints and
// tracks hops since the last auth check; the longest chain observed at a
// sink measures how far the initial decision is trusted downstream.
func (a *Analyzer) trustChainDepth(in *Inputs) models.MetricResult {
	var seeds []string
	for _, e := range in.Roles.Entrypoints {
		if in.Graph.Node(e).HasAuth {
			seeds = append(seeds, e)
		}
	}
	if len(seeds) == 0 {
		return unavailable("no authenticated entrypoints discovered")
	}
	if len(in.Roles.Sinks) == 0 {
		return unavailable("no sinks discovered")
	}

	type state struct {
		id    string
		hops  int
		depth int
	}
	seen := make(map[string]map[int]bool)
	visit := func(id string, hops int) bool {
		m := seen[id]
		if m == nil {
			m = make(map[int]bool)
			seen[id] = m
		}
		if m[hops] {
			return false
		}
		m[hops] = true
		return true
	}

	var queue []state
	for _, e := range seeds {
		if visit(e, 0) {
			queue = append(queue, state{id: e})
		}
	}

	maxHops := -1
	var worstSink string
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if in.Roles.IsSink(cur.id) && cur.hops > maxHops {
			maxHops = cur.hops
			worstSink = cur.id
		}
		if cur.depth >= a.cfg.Graph.MaxDepth {
			continue
		}
		for _, next := range in.Graph.Callees(cur.id) {
			hops := cur.hops + 1
			if in.Graph.Node(next).HasAuth {
				hops = 0
			}
			if visit(next, hops) {
				queue = append(queue, state{id: next, hops: hops, depth: cur.depth + 1})
			}
		}
	}
	if maxHops < 0 {
		return unavailable("no sink reachable from an authenticated entrypoint within the depth bound")
	}

	var findings []models.Finding
	if maxHops >= a.cfg.Thresholds.TCPDMediumHops {
		severity := models.SeverityMedium
		if maxHops >= a.cfg.Thresholds.TCPDHighHops {
			severity = models.SeverityHigh
		}
		node := in.Graph.Node(worstSink)
		findings = append(findings, models.Finding{
			Severity: severity,
			File:     node.File,
			Line:     node.Line,
			Method:   worstSink,
			What:     fmt.Sprintf("sink executes %d hop(s) after the last authorization check", maxHops),
			Why:      "every hop past the check trusts the caller chain instead of re-verifying",
			Fix:      "re-check authorization in the layer that owns the privileged operation",
		})
	}

	return ok(float64(maxHops)/tcpdCap, map[string]interface{}{
		"max_hops_since_auth": maxHops,
		"seeds":               len(seeds),
	}, findings)
}

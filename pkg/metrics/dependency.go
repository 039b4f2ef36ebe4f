package metrics

import (
	"fmt"

	"github.com/perimetric/riskweaver/pkg/deps"
	"github.com/perimetric/riskweaver/pkg/models"
)

const osdrRawCap = 50.0

// dependencyRisk (E1) consumes the externally resolved dependency list and
// weighs non-baseline dependencies by how security-sensitive they are.
// Self-built security code weighs heaviest: it carries all the risk of a
// security library with none of the external review.
func (a *Analyzer) dependencyRisk(in *Inputs) models.MetricResult {
	if !in.DepsEnabled {
		return unavailable("dependency analysis disabled")
	}
	if in.Deps == nil {
		return unavailable("no build manifest or dependency report found")
	}

	counts := deps.Count(in.Deps, a.cfg)
	raw := float64(counts.Other) + 2*float64(counts.RiskySecurity) + 3*float64(counts.SecuritySelf)

	var findings []models.Finding
	if counts.SecuritySelf > 0 {
		findings = append(findings, models.Finding{
			Severity: models.SeverityHigh,
			What:     fmt.Sprintf("%d first-party security module(s) in the dependency set", counts.SecuritySelf),
			Why:      "hand-rolled crypto and auth code misses the review a vetted library gets",
			Fix:      "replace the module with an established security library",
		})
	}
	if counts.RiskySecurity > 0 {
		findings = append(findings, models.Finding{
			Severity: models.SeverityMedium,
			What:     fmt.Sprintf("%d third-party security-sensitive dependency(ies)", counts.RiskySecurity),
			Why:      "security libraries are high-value targets and need prompt patching",
			Fix:      "pin versions and track advisories for these dependencies",
		})
	}
	if counts.Other >= a.cfg.Thresholds.OSDROtherMedium {
		severity := models.SeverityMedium
		if counts.Other >= a.cfg.Thresholds.OSDROtherHigh {
			severity = models.SeverityHigh
		}
		findings = append(findings, models.Finding{
			Severity: severity,
			What:     fmt.Sprintf("%d dependencies outside the platform baseline", counts.Other),
			Why:      "every extra dependency widens the supply-chain surface",
			Fix:      "audit the dependency list and drop what the build does not need",
		})
	}

	return ok(raw/osdrRawCap, map[string]interface{}{
		"total":          counts.Total,
		"baseline":       counts.Baseline,
		"internal":       counts.Internal,
		"security_self":  counts.SecuritySelf,
		"risky_security": counts.RiskySecurity,
		"other":          counts.Other,
		"source":         in.Deps.Source,
	}, findings)
}

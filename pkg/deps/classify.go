package deps

import (
	"strings"

	"github.com/perimetric/riskweaver/pkg/config"
	"github.com/perimetric/riskweaver/pkg/models"
)

// Class buckets a dependency for the dependency risk metric.
type Class string

const (
	ClassBaseline      Class = "baseline"
	ClassInternal      Class = "internal"
	ClassSecuritySelf  Class = "security_self"
	ClassRiskySecurity Class = "risky_security"
	ClassOther         Class = "other"
)

// Counts aggregates classification totals over a dependency report.
type Counts struct {
	Baseline      int
	Internal      int
	SecuritySelf  int
	RiskySecurity int
	Other         int
	Total         int
}

// Classify assigns one class to a dependency. Internal coordinates carrying a
// security keyword count as security_self: hand-rolled security code is
// riskier than a vetted library.
func Classify(dep models.Dependency, internalPrefix string, cfg *config.Config) Class {
	group := strings.ToLower(dep.Group)
	artifact := strings.ToLower(dep.Artifact)
	internal := internalPrefix != "" && strings.HasPrefix(group, strings.ToLower(internalPrefix))
	security := false
	for _, kw := range cfg.Dependencies.SecurityKeywords {
		if strings.Contains(group, kw) || strings.Contains(artifact, kw) {
			security = true
			break
		}
	}
	switch {
	case internal && security:
		return ClassSecuritySelf
	case internal:
		return ClassInternal
	case security:
		return ClassRiskySecurity
	}
	for _, bg := range cfg.Dependencies.BaselineGroups {
		if strings.HasPrefix(group, bg) {
			return ClassBaseline
		}
	}
	return ClassOther
}

// Count classifies every dependency in the report.
func Count(report *models.DependencyReport, cfg *config.Config) Counts {
	var c Counts
	if report == nil {
		return c
	}
	for _, dep := range report.Dependencies {
		c.Total++
		switch Classify(dep, report.InternalPrefix, cfg) {
		case ClassBaseline:
			c.Baseline++
		case ClassInternal:
			c.Internal++
		case ClassSecuritySelf:
			c.SecuritySelf++
		case ClassRiskySecurity:
			c.RiskySecurity++
		default:
			c.Other++
		}
	}
	return c
}

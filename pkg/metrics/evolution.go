package metrics

import (
	"hash/fnv"
	"strings"

	"github.com/perimetric/riskweaver/pkg/graph"
	"github.com/perimetric/riskweaver/pkg/models"
)

const (
	vfcpCouplingCap   = 20.0
	vfcpComplexityCap = 30.0
	dupMinTokens      = 40
	srpSampleCap      = 20
)

// fixComplexity (F1) predicts how expensive a security fix would be from
// structural proxies: coupling, cognitive complexity, test coverage estimate,
// body duplication and the concrete/abstract type mix. Test code is excluded
// from the production aggregates.
func (a *Analyzer) fixComplexity(in *Inputs) models.MetricResult {
	if in.Graph.NodeCount() == 0 {
		return unavailable("empty graph")
	}

	testBodies := collectTestBodies(in.Graph)

	prodNodes := 0
	totalOutdeg, totalComplexity := 0, 0
	typeKinds := make(map[string]string) // qualified type -> kind
	bodyHashes := make(map[uint64]bool)
	hashedBodies := 0
	duplicates := 0
	for _, id := range in.Graph.NodeIDs() {
		node := in.Graph.Node(id)
		if node.Test {
			continue
		}
		prodNodes++
		totalOutdeg += len(in.Graph.Callees(id))
		totalComplexity += node.Complexity
		if node.Class != "" {
			typeKinds[node.Class] = node.ClassKind
		}
		if h, ok := bodyHash(node.Body); ok {
			hashedBodies++
			if bodyHashes[h] {
				duplicates++
			}
			bodyHashes[h] = true
		}
	}
	if prodNodes == 0 {
		return unavailable("no production code in graph")
	}

	coupling := clip01(float64(totalOutdeg) / float64(prodNodes) / vfcpCouplingCap)
	complexity := clip01(float64(totalComplexity) / float64(prodNodes) / vfcpComplexityCap)

	coveredTypes := 0
	concreteTypes := 0
	for qualified, kind := range typeKinds {
		if kind == "concrete" {
			concreteTypes++
		}
		if referencedInTests(testBodies, simpleName(qualified)) {
			coveredTypes++
		}
	}
	coverage := 0.0
	abstraction := 0.0
	if len(typeKinds) > 0 {
		coverage = float64(coveredTypes) / float64(len(typeKinds))
		abstraction = 1 - float64(concreteTypes)/float64(len(typeKinds))
	}
	duplication := 0.0
	if hashedBodies > 0 {
		duplication = float64(duplicates) / float64(hashedBodies)
	}

	score := 0.25*coupling + 0.25*complexity + 0.20*(1-coverage) + 0.15*duplication + 0.15*abstraction

	var findings []models.Finding
	if coverage < a.cfg.Thresholds.VFCPLowCoverage {
		findings = append(findings, models.Finding{
			Severity: models.SeverityMedium,
			What:     "most production types are never referenced from test code",
			Why:      "an untested fix site makes every security patch a regression gamble",
			Fix:      "cover the security-relevant types with tests before changing them",
		})
	}
	if duplication > a.cfg.Thresholds.VFCPHighDuplication {
		findings = append(findings, models.Finding{
			Severity: models.SeverityMedium,
			What:     "a large share of method bodies are duplicated",
			Why:      "a vulnerability fixed in one copy survives in the others",
			Fix:      "deduplicate the shared logic into one owning method",
		})
	}

	return ok(score, map[string]interface{}{
		"coupling":    coupling,
		"complexity":  complexity,
		"coverage":    coverage,
		"duplication": duplication,
		"abstraction": abstraction,
	}, findings)
}

// regressionProbability (F2) finds security constructs (auth, validation,
// sanitization) whose enclosing type no test ever references; an untested
// guard is the one most likely to silently break.
func (a *Analyzer) regressionProbability(in *Inputs) models.MetricResult {
	testBodies := collectTestBodies(in.Graph)

	constructs, uncovered := 0, 0
	var findings []models.Finding
	for _, id := range in.Graph.NodeIDs() {
		node := in.Graph.Node(id)
		if node.Test || !(node.HasAuth || node.HasValidation || node.HasSanitize) {
			continue
		}
		constructs++
		if referencedInTests(testBodies, simpleName(node.Class)) {
			continue
		}
		uncovered++
		if len(findings) < srpSampleCap {
			findings = append(findings, models.Finding{
				Severity: models.SeverityMedium,
				File:     node.File,
				Line:     node.Line,
				Method:   id,
				What:     "security check has no test referencing its enclosing type",
				Why:      "a regression in an untested guard ships silently",
				Fix:      "add a test asserting the check rejects unauthorized or invalid input",
			})
		}
	}
	if constructs == 0 {
		return ok(0, map[string]interface{}{"constructs": 0}, nil)
	}

	return ok(float64(uncovered)/float64(constructs), map[string]interface{}{
		"constructs": constructs,
		"uncovered":  uncovered,
	}, findings)
}

func collectTestBodies(g *graph.Graph) []string {
	var bodies []string
	for _, id := range g.NodeIDs() {
		node := g.Node(id)
		if node.Test && node.Body != "" {
			bodies = append(bodies, node.Body)
		}
	}
	return bodies
}

func referencedInTests(testBodies []string, typeName string) bool {
	if typeName == "" {
		return false
	}
	for _, body := range testBodies {
		if strings.Contains(body, typeName) {
			return true
		}
	}
	return false
}

func simpleName(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// bodyHash normalizes a body to its token stream and hashes it; bodies below
// the token floor are too small to count as meaningful duplication.
func bodyHash(body string) (uint64, bool) {
	tokens := strings.Fields(body)
	if len(tokens) < dupMinTokens {
		return 0, false
	}
	h := fnv.New64a()
	for _, tok := range tokens {
		h.Write([]byte(tok))
		h.Write([]byte{0})
	}
	return h.Sum64(), true
}

// Package deps resolves the dependency list consumed by the dependency risk
// metric. The engine treats this input as external: it can come from a
// pre-resolved JSON report, or be assembled here by parsing Maven and Gradle
// build manifests directly; no build tool is invoked.
package deps

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/perimetric/riskweaver/pkg/models"
)

var manifestSkipDirs = map[string]bool{
	".git":    true,
	"target":  true,
	"build":   true,
	".gradle": true,
	".idea":   true,
}

var (
	gradleDepDeclPattern = regexp.MustCompile(`^\s*(?:implementation|api|compileOnly|runtimeOnly|testImplementation|testRuntimeOnly)\b`)
	gradleCoordPattern   = regexp.MustCompile(`['"]([^'"]+:[^'"]+)['"]`)
	gradleGroupArg       = regexp.MustCompile(`\bgroup\s*[:=]\s*['"]([^'"]+)['"]`)
	gradleNameArg        = regexp.MustCompile(`\bname\s*[:=]\s*['"]([^'"]+)['"]`)
	gradleProjectGroup   = regexp.MustCompile(`(?m)^\s*group\s*=\s*['"]([^'"]+)['"]`)

	pomGroupIDPattern = regexp.MustCompile(`<groupId>\s*([^<]+?)\s*</groupId>`)
	pomParentBlock    = regexp.MustCompile(`(?s)<parent>.*?</parent>`)
	pomParentGroupID  = regexp.MustCompile(`(?s)<parent>.*?<groupId>\s*([^<]+?)\s*</groupId>.*?</parent>`)
	pomDepPattern     = regexp.MustCompile(`(?s)<dependency>\s*` +
		`<groupId>\s*([^<]+?)\s*</groupId>\s*` +
		`<artifactId>\s*([^<]+?)\s*</artifactId>` +
		`(?:\s*<version>[^<]*</version>)?` +
		`(?:\s*<scope>\s*([^<]*?)\s*</scope>)?`)
)

// LoadReport reads a pre-resolved dependency report from a JSON file.
func LoadReport(path string) (*models.DependencyReport, error) {
	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied report path
	if err != nil {
		return nil, fmt.Errorf("failed to read dependency report %s: %w", path, err)
	}
	var report models.DependencyReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse dependency report %s: %w", path, err)
	}
	if report.Source == "" {
		report.Source = path
	}
	return &report, nil
}

// Resolve walks the checkout for build manifests and assembles the dependency
// report. Returns nil (no error) when no manifest exists, in which case the
// metric reports unavailable.
func Resolve(root string) (*models.DependencyReport, error) {
	var pomFiles, gradleFiles []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if manifestSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		switch d.Name() {
		case "pom.xml":
			pomFiles = append(pomFiles, path)
		case "build.gradle", "build.gradle.kts":
			gradleFiles = append(gradleFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk for build manifests: %w", err)
	}
	if len(pomFiles) == 0 && len(gradleFiles) == 0 {
		return nil, nil
	}
	sort.Strings(pomFiles)
	sort.Strings(gradleFiles)

	report := &models.DependencyReport{
		InternalPrefix: detectInternalPrefix(root),
		Source:         "manifests",
	}

	seen := make(map[string]bool)
	add := func(deps []models.Dependency) {
		for _, d := range deps {
			key := d.Group + ":" + d.Artifact
			if seen[key] {
				continue
			}
			seen[key] = true
			report.Dependencies = append(report.Dependencies, d)
		}
	}

	for _, pf := range pomFiles {
		text, err := os.ReadFile(pf) // #nosec G304 - path comes from the scanned tree
		if err != nil {
			continue
		}
		add(parsePomDependencies(string(text)))
	}
	for _, gf := range gradleFiles {
		text, err := os.ReadFile(gf) // #nosec G304 - path comes from the scanned tree
		if err != nil {
			continue
		}
		add(parseGradleDependencies(string(text)))
	}
	return report, nil
}

// parsePomDependencies extracts <dependency> coordinates from pom.xml text.
func parsePomDependencies(text string) []models.Dependency {
	var deps []models.Dependency
	for _, m := range pomDepPattern.FindAllStringSubmatch(text, -1) {
		scope := strings.TrimSpace(m[3])
		if scope == "" {
			scope = "compile"
		}
		deps = append(deps, models.Dependency{
			Group:    strings.TrimSpace(m[1]),
			Artifact: strings.TrimSpace(m[2]),
			Scope:    scope,
		})
	}
	return deps
}

// parseGradleDependencies extracts coordinates from build.gradle(.kts) text.
// Multi-line declarations are stitched together by paren balance.
func parseGradleDependencies(text string) []models.Dependency {
	var deps []models.Dependency
	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		line := lines[i]
		if !gradleDepDeclPattern.MatchString(line) {
			i++
			continue
		}

		statement := line
		parenDepth := strings.Count(line, "(") - strings.Count(line, ")")
		j := i
		for parenDepth > 0 && j+1 < len(lines) {
			j++
			statement += "\n" + lines[j]
			parenDepth += strings.Count(lines[j], "(") - strings.Count(lines[j], ")")
		}

		groupMatch := gradleGroupArg.FindStringSubmatch(statement)
		nameMatch := gradleNameArg.FindStringSubmatch(statement)
		if groupMatch != nil && nameMatch != nil {
			deps = append(deps, models.Dependency{
				Group:    strings.TrimSpace(groupMatch[1]),
				Artifact: strings.TrimSpace(nameMatch[1]),
				Scope:    "compile",
			})
		} else {
			for _, coordMatch := range gradleCoordPattern.FindAllStringSubmatch(statement, -1) {
				parts := strings.Split(coordMatch[1], ":")
				if len(parts) >= 2 {
					group := strings.TrimSpace(parts[0])
					artifact := strings.TrimSpace(parts[1])
					if group != "" && artifact != "" {
						deps = append(deps, models.Dependency{
							Group:    group,
							Artifact: artifact,
							Scope:    "compile",
						})
					}
				}
			}
		}

		i = j + 1
	}
	return deps
}

// detectInternalPrefix pulls the project's own groupId from the root build
// manifest so first-party dependencies classify as internal.
func detectInternalPrefix(root string) string {
	if text, err := os.ReadFile(filepath.Join(root, "pom.xml")); err == nil {
		if gid := extractPomGroupID(string(text)); gid != "" {
			return gid
		}
	}
	for _, name := range []string{"build.gradle", "build.gradle.kts"} {
		if text, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			if m := gradleProjectGroup.FindStringSubmatch(string(text)); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// extractPomGroupID resolves the project groupId, ignoring the <parent> block
// first: in child modules the first <groupId> often belongs to the parent.
func extractPomGroupID(text string) string {
	stripped := pomParentBlock.ReplaceAllString(text, "")
	if m := pomGroupIDPattern.FindStringSubmatch(stripped); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := pomParentGroupID.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

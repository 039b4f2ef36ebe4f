package output

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/perimetric/riskweaver/pkg/config"
	"github.com/perimetric/riskweaver/pkg/metrics"
	"github.com/perimetric/riskweaver/pkg/models"
)

func demoPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join("..", "..", "examples", "spring-demo")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("demo checkout missing: %v", err)
	}
	return path
}

func quietGenerator(t *testing.T) *Generator {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGeneratorWithConfig(logger, cfg)
}

func TestGenerateOverDemoCheckout(t *testing.T) {
	g := quietGenerator(t)
	report, err := g.Generate(context.Background(), Options{
		RepoPath:    demoPath(t),
		DepsEnabled: true,
		ExportNodes: -1,
		ExportEdges: -1,
	})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	if report.CreationInfo.ToolName != "riskweaver" {
		t.Errorf("ToolName = %q", report.CreationInfo.ToolName)
	}
	if report.CreationInfo.RunID == "" || report.CreationInfo.Created == "" {
		t.Error("CreationInfo must carry a run id and timestamp")
	}
	if report.Scan.FilesParsed < 5 {
		t.Errorf("FilesParsed = %d, want the 5 demo java files", report.Scan.FilesParsed)
	}
	if report.Graph.Entrypoints < 2 {
		t.Errorf("Entrypoints = %d, want the two annotated handlers", report.Graph.Entrypoints)
	}
	if report.Graph.Sinks < 1 {
		t.Errorf("Sinks = %d, want at least the repository writes", report.Graph.Sinks)
	}
	if report.Graph.Tests < 1 {
		t.Errorf("Tests = %d, want the service test", report.Graph.Tests)
	}

	if len(report.Metrics) != len(metrics.MetricIDs()) {
		t.Fatalf("Expected %d metric results, got %d", len(metrics.MetricIDs()), len(report.Metrics))
	}
	byID := make(map[string]models.MetricResult, len(report.Metrics))
	for _, res := range report.Metrics {
		byID[res.ID] = res
		if res.OK() && (*res.Score < 0 || *res.Score > 1) {
			t.Errorf("Metric %s: score %f outside [0,1]", res.ID, *res.Score)
		}
	}
	// The unguarded POST handler must surface on the attack surface metric.
	if a1 := byID["A1"]; !a1.OK() || len(a1.Findings) == 0 {
		t.Errorf("A1 should be ok with findings, got %+v", a1)
	}
	// The empty catch in the repository must surface on the fail-safe metric.
	if b4 := byID["B4"]; !b4.OK() || len(b4.Findings) == 0 {
		t.Errorf("B4 should be ok with findings, got %+v", b4)
	}
	// The demo pom exists, so the dependency metric must be available.
	if e1 := byID["E1"]; !e1.OK() {
		t.Errorf("E1 should be ok with the demo pom present, got %+v", e1)
	}

	if report.Aggregate.Score == nil {
		t.Fatal("Aggregate score must be available for the demo checkout")
	}
	if *report.Aggregate.Score < 0 || *report.Aggregate.Score > 1 {
		t.Errorf("Aggregate score %f outside [0,1]", *report.Aggregate.Score)
	}

	if len(report.Export.Nodes) != report.Graph.Nodes {
		t.Errorf("Export below the limit should carry every node: %d vs %d",
			len(report.Export.Nodes), report.Graph.Nodes)
	}
	if len(report.Export.EntrypointIDs) != report.Graph.Entrypoints {
		t.Errorf("Untruncated export must keep every entrypoint id")
	}
}

func TestGenerateDepsDisabled(t *testing.T) {
	g := quietGenerator(t)
	report, err := g.Generate(context.Background(), Options{
		RepoPath:    demoPath(t),
		ExportNodes: -1,
		ExportEdges: -1,
	})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	for _, res := range report.Metrics {
		if res.ID != "E1" {
			continue
		}
		if res.Status != models.StatusUnavailable {
			t.Errorf("E1 must be unavailable when dependency analysis is off, got %q", res.Status)
		}
	}
}

func TestGenerateExportLimitOverride(t *testing.T) {
	g := quietGenerator(t)
	report, err := g.Generate(context.Background(), Options{
		RepoPath:    demoPath(t),
		ExportNodes: 3,
		ExportEdges: 0,
	})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if len(report.Export.Nodes) != 3 {
		t.Errorf("Export nodes = %d, want 3", len(report.Export.Nodes))
	}
	if len(report.Export.Edges) != 0 {
		t.Errorf("Export edges = %d, want 0", len(report.Export.Edges))
	}
}

func TestGenerateRejectsMissingRoot(t *testing.T) {
	g := quietGenerator(t)
	if _, err := g.Generate(context.Background(), Options{
		RepoPath:    filepath.Join(t.TempDir(), "absent"),
		ExportNodes: -1,
		ExportEdges: -1,
	}); err == nil {
		t.Error("Expected error for a missing repository root")
	}
}

func TestGenerateBrokenDepsReportDegradesToWarning(t *testing.T) {
	g := quietGenerator(t)
	badReport := filepath.Join(t.TempDir(), "deps.json")
	if err := os.WriteFile(badReport, []byte("{broken"), 0600); err != nil {
		t.Fatal(err)
	}
	report, err := g.Generate(context.Background(), Options{
		RepoPath:       demoPath(t),
		DepsEnabled:    true,
		DepsReportPath: badReport,
		ExportNodes:    -1,
		ExportEdges:    -1,
	})
	if err != nil {
		t.Fatalf("Generate() must not fail on a broken report: %v", err)
	}
	found := false
	for _, w := range report.Scan.Warnings {
		if len(w) > 0 {
			found = true
		}
	}
	if !found {
		t.Error("Expected a warning about the unusable dependency report")
	}
}

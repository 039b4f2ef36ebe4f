// Package output assembles the analysis report: it orchestrates the scan,
// graph build, metric battery and topology export into the single immutable
// result object of one run.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/perimetric/riskweaver/pkg/config"
	"github.com/perimetric/riskweaver/pkg/deps"
	"github.com/perimetric/riskweaver/pkg/graph"
	"github.com/perimetric/riskweaver/pkg/metrics"
	"github.com/perimetric/riskweaver/pkg/models"
	"github.com/perimetric/riskweaver/pkg/scanner"
	"github.com/perimetric/riskweaver/pkg/utils"
	"github.com/perimetric/riskweaver/pkg/version"
)

// Options configure one analysis run. Zero-valued numeric overrides keep the
// config defaults; export limits use -1 for "config default" because 0 is a
// meaningful cap.
type Options struct {
	RepoPath       string
	Verbose        bool
	DepsEnabled    bool
	DepsReportPath string
	SkipDirs       []string

	MaxDepth int
	MaxNodes int
	MaxEdges int

	ExportNodes int
	ExportEdges int
}

// Generator runs complete analyses. One generator holds one frozen config;
// per-run option overrides are applied onto a copy, never onto shared state.
type Generator struct {
	logger  *slog.Logger
	verbose *utils.VerboseLogger
	cfg     *config.Config
}

// NewGenerator creates a generator with the default (embedded or local)
// configuration. The logger writes to stderr so stdout stays clean JSON.
func NewGenerator(verbose bool) (*Generator, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.DefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &Generator{
		logger:  logger,
		verbose: utils.NewVerboseLogger(verbose),
		cfg:     cfg,
	}, nil
}

// NewGeneratorWithConfig creates a generator with an explicit configuration.
func NewGeneratorWithConfig(logger *slog.Logger, cfg *config.Config) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		logger:  logger,
		verbose: utils.NewVerboseLogger(false),
		cfg:     cfg,
	}
}

// Generate runs one analysis over opts.RepoPath and returns the report.
// Parse failures and missing manifests degrade to warnings or unavailable
// metrics; the only fatal input condition is an unreadable repository root.
func (g *Generator) Generate(ctx context.Context, opts Options) (*models.AnalysisReport, error) {
	cfg := g.runConfig(opts)
	instr := utils.NewInstrumentation(g.logger, opts.Verbose)

	var scan *scanner.Result
	err := instr.TimedOperation("scan", func() error {
		sc := scanner.NewScanner(g.logger)
		if len(opts.SkipDirs) > 0 {
			sc.SetSkipDirs(opts.SkipDirs)
		}
		var scanErr error
		scan, scanErr = sc.Scan(ctx, opts.RepoPath)
		return scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	g.verbose.Logf("Scanned %d files, parsed %d units\n", scan.FilesScanned, len(scan.Units))

	var callGraph *graph.Graph
	var roles *graph.RoleSets
	_ = instr.TimedOperation("graph build", func() error {
		callGraph, roles = graph.NewBuilder(g.logger, cfg).Build(scan)
		return nil
	})
	g.verbose.Logf("Graph: %d nodes, %d edges, %d entrypoints, %d sinks\n",
		callGraph.NodeCount(), callGraph.EdgeCount(), len(roles.Entrypoints), len(roles.Sinks))

	depReport, warnings := g.resolveDeps(opts)
	warnings = append(scan.Warnings, warnings...)

	analyzer := metrics.NewAnalyzer(g.logger, cfg)
	results := analyzer.Run(&metrics.Inputs{
		Graph:       callGraph,
		Roles:       roles,
		Languages:   scan.Languages,
		Deps:        depReport,
		DepsEnabled: opts.DepsEnabled,
	})

	limitNodes, limitEdges := exportLimits(cfg, opts)
	report := &models.AnalysisReport{
		CreationInfo: models.CreationInfo{
			Created:     time.Now().UTC().Format(time.RFC3339),
			RunID:       uuid.NewString(),
			ToolName:    "riskweaver",
			ToolVersion: version.GetVersion(),
		},
		Repository: opts.RepoPath,
		Scan: models.ScanSummary{
			FilesScanned: scan.FilesScanned,
			FilesParsed:  len(scan.Units),
			Warnings:     warnings,
		},
		Graph: models.GraphSummary{
			Nodes:       callGraph.NodeCount(),
			Edges:       callGraph.EdgeCount(),
			Entrypoints: len(roles.Entrypoints),
			Sinks:       len(roles.Sinks),
			Tests:       len(roles.Tests),
		},
		Metrics:   results,
		Aggregate: metrics.Aggregate(results),
		Export:    ExportTopology(callGraph, roles, limitNodes, limitEdges),
	}
	return report, nil
}

// runConfig applies per-run overrides onto a copy of the frozen config.
func (g *Generator) runConfig(opts Options) *config.Config {
	cfg := *g.cfg
	if opts.MaxDepth > 0 {
		cfg.Graph.MaxDepth = opts.MaxDepth
	}
	if opts.MaxNodes > 0 {
		cfg.Graph.MaxNodes = opts.MaxNodes
	}
	if opts.MaxEdges > 0 {
		cfg.Graph.MaxEdges = opts.MaxEdges
	}
	return &cfg
}

func exportLimits(cfg *config.Config, opts Options) (int, int) {
	limitNodes, limitEdges := cfg.Export.LimitNodes, cfg.Export.LimitEdges
	if opts.ExportNodes >= 0 {
		limitNodes = opts.ExportNodes
	}
	if opts.ExportEdges >= 0 {
		limitEdges = opts.ExportEdges
	}
	return limitNodes, limitEdges
}

// resolveDeps produces the dependency report for the dependency risk metric.
// A missing manifest is not an error; a broken operator-supplied report file
// degrades to a warning so the rest of the run proceeds.
func (g *Generator) resolveDeps(opts Options) (*models.DependencyReport, []string) {
	if !opts.DepsEnabled {
		return nil, nil
	}
	if opts.DepsReportPath != "" {
		report, err := deps.LoadReport(opts.DepsReportPath)
		if err != nil {
			g.logger.Warn("dependency report unusable", "error", err)
			return nil, []string{fmt.Sprintf("dependency report unusable: %v", err)}
		}
		return report, nil
	}
	report, err := deps.Resolve(opts.RepoPath)
	if err != nil {
		g.logger.Warn("manifest resolution failed", "error", err)
		return nil, []string{fmt.Sprintf("manifest resolution failed: %v", err)}
	}
	return report, nil
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/perimetric/riskweaver/pkg/models"
	"github.com/perimetric/riskweaver/pkg/output"
	"github.com/perimetric/riskweaver/pkg/utils"
	"github.com/perimetric/riskweaver/pkg/version"
)

func main() {
	var (
		repoPath    = flag.String("repo", ".", "Path to the source checkout to analyze")
		outputFile  = flag.String("o", "", "Write report to file instead of stdout")
		verbose     = flag.Bool("v", false, "Verbose output")
		maxDepth    = flag.Int("max-depth", 0, "Maximum traversal depth for graph metrics (0 = config default)")
		maxNodes    = flag.Int("max-nodes", 0, "Maximum call graph nodes (0 = config default)")
		maxEdges    = flag.Int("max-edges", 0, "Maximum call graph edges (0 = config default)")
		exportNodes = flag.Int("export-nodes", -1, "Maximum nodes in the exported topology (-1 = config default)")
		exportEdges = flag.Int("export-edges", -1, "Maximum edges in the exported topology (-1 = config default)")
		skipDirs    = flag.String("skip-dirs", "", "Comma-separated list of additional directory names to skip")
		depsEnabled = flag.Bool("deps", false, "Enable the dependency risk metric")
		depsReport  = flag.String("deps-report", "", "Pre-resolved dependency report (JSON) - optional")
		showVersion = flag.Bool("version", false, "Show version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersionWithCommit())
		os.Exit(0)
	}

	generator, err := output.NewGenerator(*verbose)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	report, err := generator.Generate(context.Background(), output.Options{
		RepoPath:       *repoPath,
		Verbose:        *verbose,
		DepsEnabled:    *depsEnabled || *depsReport != "",
		DepsReportPath: *depsReport,
		SkipDirs:       utils.ParseCommaDelimited(*skipDirs),
		MaxDepth:       *maxDepth,
		MaxNodes:       *maxNodes,
		MaxEdges:       *maxEdges,
		ExportNodes:    *exportNodes,
		ExportEdges:    *exportEdges,
	})
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	if *outputFile != "" {
		if err := writeReportToFile(report, *outputFile); err != nil {
			log.Fatalf("Failed to write report to file: %v", err)
		}
	} else {
		if err := writeReportToStdout(report); err != nil {
			log.Fatalf("Failed to write report to stdout: %v", err)
		}
	}
}

// writeReportToFile writes an analysis report to the specified file
func writeReportToFile(report *models.AnalysisReport, filename string) error {
	file, err := utils.SafeCreateFile(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", filename, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to write report to file %s: %w", filename, err)
	}

	fmt.Fprintf(os.Stderr, "Report successfully written to: %s\n", filename)
	return nil
}

// writeReportToStdout writes an analysis report to stdout
func writeReportToStdout(report *models.AnalysisReport) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxFileSize is the largest source unit the scanner will parse (10MB).
// Oversized units are skipped with a warning, never a failure.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Directories that never contain analyzable sources.
var skipDirs = map[string]bool{
	".git":    true,
	"target":  true,
	"build":   true,
	".gradle": true,
	".idea":   true,
}

// Extension census buckets for the technology-boundary metric.
var languageExtensions = map[string][]string{
	"java":   {".java"},
	"kotlin": {".kt", ".kts"},
	"js":     {".js", ".jsx"},
	"ts":     {".ts", ".tsx"},
	"python": {".py"},
	"go":     {".go"},
	"rust":   {".rs"},
	"csharp": {".cs"},
}

// CatchBlock is one exception-handling construct found inside a method body.
type CatchBlock struct {
	Body string
	Line int
}

// Method is one declared callable extracted from a source unit.
type Method struct {
	Name        string
	Class       string // dotted chain of enclosing type names
	ClassKind   string // concrete | abstract | interface
	Package     string
	Params      []string // parameter type texts, in declaration order
	Annotations []string
	Line        int
	Body        string   // capped body text
	Calls       []string // invoked simple names, in source order
	Catches     []CatchBlock
	Complexity  int
	Test        bool
}

// Unit is one successfully parsed source file.
type Unit struct {
	Path    string // relative to the scanned root
	Methods []Method
}

// Result is the merged outcome of one scan. Units are ordered by path so that
// downstream node discovery order is reproducible regardless of how parsing
// work was scheduled.
type Result struct {
	Units        []Unit
	Warnings     []string
	FilesScanned int
	Languages    []string // sorted census of languages present in the checkout
}

// Scanner walks a checkout and parses every Java source unit into method
// declarations. Safe for a single Scan call at a time; each parse uses its
// own tree-sitter parser instance, so file parsing runs in parallel.
type Scanner struct {
	logger      *slog.Logger
	maxFileSize int64
	workers     int
	extraSkip   map[string]bool
}

// NewScanner creates a scanner with default bounds.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		logger:      logger,
		maxFileSize: DefaultMaxFileSize,
		workers:     runtime.GOMAXPROCS(0),
	}
}

// SetSkipDirs adds directory names to exclude from the walk, on top of the
// built-in exclusions.
func (s *Scanner) SetSkipDirs(names []string) {
	if s.extraSkip == nil {
		s.extraSkip = make(map[string]bool, len(names))
	}
	for _, name := range names {
		s.extraSkip[name] = true
	}
}

// Scan walks root, parses all Java units in parallel and merges the results
// in sorted path order.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat repository root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", root)
	}

	paths, languages, err := s.collectFiles(root)
	if err != nil {
		return nil, err
	}

	result := &Result{
		FilesScanned: len(paths),
		Languages:    languages,
	}

	// Parse in parallel; slots keep the sorted-path order independent of
	// scheduling so node ids are stable across runs.
	type slot struct {
		unit    *Unit
		warning string
	}
	slots := make([]slot, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			unit, warn := s.parseFile(gctx, root, rel)
			slots[i] = slot{unit: unit, warning: warn}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, sl := range slots {
		if sl.warning != "" {
			result.Warnings = append(result.Warnings, sl.warning)
		}
		if sl.unit != nil {
			result.Units = append(result.Units, *sl.unit)
		}
	}

	s.logger.Debug("scan complete",
		"files", result.FilesScanned,
		"parsed", len(result.Units),
		"warnings", len(result.Warnings))
	return result, nil
}

// collectFiles walks the tree once, returning sorted Java paths and the
// language census.
func (s *Scanner) collectFiles(root string) ([]string, []string, error) {
	var javaPaths []string
	extCounts := make(map[string]int)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip, the scan continues.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || s.extraSkip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != "" {
			extCounts[ext]++
		}
		if ext == ".java" {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			javaPaths = append(javaPaths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk repository: %w", err)
	}

	sort.Strings(javaPaths)

	var languages []string
	for lang, exts := range languageExtensions {
		for _, ext := range exts {
			if extCounts[ext] > 0 {
				languages = append(languages, lang)
				break
			}
		}
	}
	sort.Strings(languages)

	return javaPaths, languages, nil
}

// parseFile reads and parses one unit. Returns a nil unit plus a warning when
// the unit must be skipped; a parse failure never aborts the scan.
func (s *Scanner) parseFile(ctx context.Context, root, rel string) (*Unit, string) {
	full := filepath.Join(root, filepath.FromSlash(rel))

	fi, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Sprintf("%s: %v", rel, err)
	}
	if fi.Size() > s.maxFileSize {
		return nil, fmt.Sprintf("%s: exceeds max file size (%d bytes)", rel, fi.Size())
	}

	content, err := os.ReadFile(full) // #nosec G304 - path comes from the scanned tree
	if err != nil {
		return nil, fmt.Sprintf("%s: %v", rel, err)
	}

	methods, err := parseJavaUnit(ctx, content, rel, isTestPath(rel))
	if err != nil {
		return nil, fmt.Sprintf("%s: %v", rel, err)
	}
	return &Unit{Path: rel, Methods: methods}, ""
}

// isTestPath applies the naming-convention heuristic for test code.
func isTestPath(rel string) bool {
	for _, p := range strings.Split(strings.ToLower(rel), "/") {
		if p == "test" || p == "tests" {
			return true
		}
	}
	return false
}

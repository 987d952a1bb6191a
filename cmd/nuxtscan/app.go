// # cmd/nuxtscan/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gobwas/glob"
	"github.com/sourcegraph/conc/pool"

	"nuxtscan/internal/audit"
	"nuxtscan/internal/config"
	"nuxtscan/internal/graph"
	"nuxtscan/internal/history"
	"nuxtscan/internal/observability"
	"nuxtscan/internal/output"
	"nuxtscan/internal/parser"
	"nuxtscan/internal/resolver"
	"nuxtscan/internal/scanner"
	"nuxtscan/internal/watcher"
)

const (
	ModeClean = "clean"
	ModeVuln  = "vuln"
)

type App struct {
	Config *config.Config
	Parser *parser.Parser
	Mode   string

	store      *history.Store
	advisories audit.AdvisoryClient
	teaProgram *tea.Program

	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

// RunResult is one pipeline pass over the project tree.
type RunResult struct {
	Findings     []output.Finding
	UnitCount    int
	SkippedCount int
	SymbolCount  int
	EdgeCount    int
	Duration     time.Duration
}

func NewApp(cfg *config.Config, mode string) (*App, error) {
	if mode != ModeClean && mode != ModeVuln {
		return nil, &config.ConfigurationError{Detail: fmt.Sprintf("mode must be clean or vuln, got %q", mode)}
	}

	a := &App{
		Config: cfg,
		Parser: parser.NewParser(parser.NewGrammarLoader()),
		Mode:   mode,
	}

	for _, pattern := range cfg.Exclude.Dirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, &config.ConfigurationError{Detail: fmt.Sprintf("invalid exclude dir pattern %q: %v", pattern, err)}
		}
		a.dirGlobs = append(a.dirGlobs, g)
	}
	for _, pattern := range cfg.Exclude.Files {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, &config.ConfigurationError{Detail: fmt.Sprintf("invalid exclude file pattern %q: %v", pattern, err)}
		}
		a.fileGlobs = append(a.fileGlobs, g)
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	if mode == ModeVuln && cfg.Audit.Enabled {
		a.advisories = audit.NewHTTPAdvisoryClient(cfg.Audit.Endpoint, cfg.Audit.RequestsPerSecond, cfg.Audit.Timeout)
	}

	return a, nil
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Run executes one full pipeline pass: discover, parse+extract in parallel,
// barrier, build+resolve the graph, then the mode-specific analyses.
func (a *App) Run(ctx context.Context) (*RunResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Run")
	defer span.End()

	start := time.Now()

	files, err := a.discoverUnits()
	if err != nil {
		return nil, err
	}
	slog.Debug("discovered source units", "count", len(files))

	var scn *scanner.Scanner
	var visitors []parser.TreeVisitor
	if a.Mode == ModeVuln {
		scn = scanner.NewScanner(a.Config.Scanner.Sanitizers)
		visitors = append(visitors, scn)
	}

	g := graph.NewGraph()
	var (
		findingsMu sync.Mutex
		findings   []output.Finding
		skipped    int
	)

	// Parse and extract in parallel; the scanner rides along as a tree
	// visitor. Nothing queries the graph until Wait returns.
	workers := pool.New().WithMaxGoroutines(runtime.NumCPU())
	for _, rel := range files {
		workers.Go(func() {
			unit, finding := a.parseUnit(rel, visitors)
			g.AddUnit(unit)
			if finding != nil {
				findingsMu.Lock()
				findings = append(findings, *finding)
				skipped++
				findingsMu.Unlock()
			}
		})
	}
	workers.Wait()

	a.markEntries(g)

	for _, sym := range g.Redeclared {
		slog.Warn("redeclared symbol", "name", sym.Name, "file", sym.Location.File, "line", sym.Location.Line)
	}

	resolveStart := time.Now()
	res := resolver.NewResolver(g, a.Config.SrcDir)
	findings = append(findings, res.Resolve()...)
	observability.AnalysisDuration.WithLabelValues("resolve").Observe(time.Since(resolveStart).Seconds())

	switch a.Mode {
	case ModeClean:
		findings = append(findings, a.runClean(ctx, g)...)
	case ModeVuln:
		findings = append(findings, a.runVuln(ctx, g, scn)...)
	}

	output.Sort(findings)

	result := &RunResult{
		Findings:     findings,
		UnitCount:    g.UnitCount(),
		SkippedCount: skipped,
		SymbolCount:  g.SymbolCount(),
		EdgeCount:    g.EdgeCount(),
		Duration:     time.Since(start),
	}

	a.publishMetrics(result)

	if err := a.writeReport(result.Findings); err != nil {
		return nil, err
	}
	if err := a.saveSnapshot(result); err != nil {
		slog.Warn("failed to save history snapshot", "error", err)
	}

	return result, nil
}

// parseUnit reads and parses one unit. A failed unit still registers in the
// graph as skipped so resolution knows the path exists.
func (a *App) parseUnit(rel string, visitors []parser.TreeVisitor) (*parser.Unit, *output.Finding) {
	content, err := os.ReadFile(filepath.Join(a.Config.Root, filepath.FromSlash(rel)))
	if err != nil {
		return &parser.Unit{Path: rel, Skipped: true}, &output.Finding{
			Category:    output.CategoryParseError,
			Severity:    output.SeverityInfo,
			File:        rel,
			Description: fmt.Sprintf("read failed: %v", err),
		}
	}

	parseStart := time.Now()
	unit, err := a.Parser.ParseUnit(rel, content, visitors...)
	if err != nil {
		observability.UnitsSkipped.Inc()
		finding := &output.Finding{
			Category:    output.CategoryParseError,
			Severity:    output.SeverityInfo,
			File:        rel,
			Description: "syntax error, unit skipped",
		}
		var pf *parser.ParseFailure
		if errors.As(err, &pf) {
			finding.Line = pf.Line
			finding.Description = fmt.Sprintf("%s, unit skipped", pf.Message)
		}
		return &parser.Unit{Path: rel, Skipped: true}, finding
	}

	observability.ParsingDuration.WithLabelValues(string(unit.Dialect)).Observe(time.Since(parseStart).Seconds())
	observability.UnitsParsed.WithLabelValues(string(unit.Dialect)).Inc()
	return unit, nil
}

func (a *App) runClean(ctx context.Context, g *graph.Graph) []output.Finding {
	_, span := observability.Tracer.Start(ctx, "app.runClean")
	defer span.End()

	analysisStart := time.Now()
	analysis := g.Analyze()
	findings := analysis.Findings()
	observability.AnalysisDuration.WithLabelValues("reachability").Observe(time.Since(analysisStart).Seconds())

	for _, unit := range g.Units() {
		for _, call := range unit.Console {
			findings = append(findings, output.Finding{
				Category:    output.CategoryConsoleCall,
				Severity:    output.SeverityInfo,
				File:        unit.Path,
				Line:        call.Location.Line,
				Description: fmt.Sprintf("console.%s left in source: %s", call.Level, call.Code),
			})
		}
	}

	deps, err := audit.LoadManifest(filepath.Join(a.Config.Root, "package.json"))
	if err != nil {
		slog.Warn("failed to load package manifest", "error", err)
		return findings
	}
	audit.CountImportSites(deps, g.Units())
	auditor := audit.NewAuditor(nil, a.Config.Audit.AllowPackages)
	return append(findings, auditor.UnusedPackages(deps)...)
}

func (a *App) runVuln(ctx context.Context, g *graph.Graph, scn *scanner.Scanner) []output.Finding {
	ctx, span := observability.Tracer.Start(ctx, "app.runVuln")
	defer span.End()

	findings := scn.Findings()

	if a.advisories == nil {
		return findings
	}

	deps, err := audit.LoadManifest(filepath.Join(a.Config.Root, "package.json"))
	if err != nil {
		slog.Warn("failed to load package manifest", "error", err)
		return findings
	}
	audit.CountImportSites(deps, g.Units())

	auditStart := time.Now()
	auditor := audit.NewAuditor(a.advisories, a.Config.Audit.AllowPackages)
	vulns := auditor.KnownVulnerabilities(ctx, deps)
	observability.AnalysisDuration.WithLabelValues("audit").Observe(time.Since(auditStart).Seconds())

	return append(findings, vulns...)
}

// discoverUnits walks the project tree and returns root-relative slash paths
// for every unit the engine parses, in walk order.
func (a *App) discoverUnits() ([]string, error) {
	var files []string

	err := filepath.WalkDir(a.Config.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(p)
		if d.IsDir() {
			if p != a.Config.Root {
				for _, g := range a.dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
			}
			return nil
		}

		if _, ok := a.Parser.DetectDialect(p); !ok {
			return nil
		}
		for _, g := range a.fileGlobs {
			if g.Match(base) {
				return nil
			}
		}

		rel, err := filepath.Rel(a.Config.Root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// markEntries applies the entry-point rules: any unit under an entry
// directory, plus any unit whose base name matches an entry file pattern.
func (a *App) markEntries(g *graph.Graph) {
	prefix := ""
	if a.Config.SrcDir != "" {
		prefix = path.Clean(a.Config.SrcDir) + "/"
	}

	for _, unit := range g.Units() {
		rel := unit.Path
		if prefix != "" {
			if !strings.HasPrefix(rel, prefix) {
				continue
			}
			rel = strings.TrimPrefix(rel, prefix)
		}

		for _, dir := range a.Config.Entrypoints.Dirs {
			if strings.HasPrefix(rel, dir+"/") {
				g.MarkEntry(unit.Path)
			}
		}
		for _, pattern := range a.Config.Entrypoints.Files {
			if ok, _ := path.Match(pattern, path.Base(rel)); ok {
				g.MarkEntry(unit.Path)
			}
		}
	}
}

func (a *App) publishMetrics(result *RunResult) {
	observability.GraphSymbols.Set(float64(result.SymbolCount))
	observability.GraphEdges.Set(float64(result.EdgeCount))
	observability.FindingsTotal.Reset()
	for category, count := range output.CountByCategory(result.Findings) {
		observability.FindingsTotal.WithLabelValues(string(category)).Set(float64(count))
	}
}

func (a *App) writeReport(findings []output.Finding) error {
	if a.Config.Output.CSV == "" {
		return nil
	}
	csv, err := output.NewCSVGenerator().Generate(findings)
	if err != nil {
		return fmt.Errorf("generate csv report: %w", err)
	}
	if err := os.WriteFile(a.Config.Output.CSV, []byte(csv), 0o644); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	return nil
}

func (a *App) saveSnapshot(result *RunResult) error {
	if a.store == nil {
		return nil
	}
	snapshot := history.NewSnapshot(a.Mode, result.Findings)
	snapshot.UnitCount = result.UnitCount
	snapshot.SkippedCount = result.SkippedCount
	snapshot.SymbolCount = result.SymbolCount
	snapshot.EdgeCount = result.EdgeCount
	return a.store.SaveSnapshot(a.Config.Root, snapshot)
}

// HandleChanges re-runs the pipeline after a debounced change set. The graph
// is rebuilt from scratch; parse trees are cheap next to the correctness
// risk of incremental cross-unit invalidation.
func (a *App) HandleChanges(paths []string) {
	observability.WatcherEventsTotal.Inc()
	slog.Info("detected changes", "count", len(paths))

	result, err := a.Run(context.Background())
	if err != nil {
		slog.Error("rescan failed", "error", err)
		return
	}

	a.PrintSummary(result)

	if a.teaProgram != nil {
		a.teaProgram.Send(updateMsg{
			findings:  result.Findings,
			unitCount: result.UnitCount,
			duration:  result.Duration,
		})
	}
}

func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	return w.Watch(a.Config.Root)
}

func (a *App) RunUI(initial *RunResult) error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	go func() {
		p.Send(updateMsg{
			findings:  initial.Findings,
			unitCount: initial.UnitCount,
			duration:  initial.Duration,
		})
	}()

	_, err := p.Run()
	return err
}

func (a *App) PrintSummary(result *RunResult) {
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Scanned %d units (%d skipped) in %v\n", result.UnitCount, result.SkippedCount, result.Duration.Round(time.Millisecond))
	fmt.Printf("Graph: %d symbols, %d edges\n", result.SymbolCount, result.EdgeCount)

	if len(result.Findings) == 0 {
		fmt.Println("No findings.")
		fmt.Println(strings.Repeat("-", 40))
		return
	}

	counts := output.CountByCategory(result.Findings)
	for _, category := range []output.Category{
		output.CategoryVulnerability,
		output.CategoryKnownVulnerability,
		output.CategoryUnusedExport,
		output.CategoryUnusedImport,
		output.CategoryUnusedVariable,
		output.CategoryUnusedCssClass,
		output.CategoryUnusedPackage,
		output.CategoryUnresolvedImport,
		output.CategoryConsoleCall,
		output.CategoryParseError,
		output.CategoryAuditUnavailable,
	} {
		if n := counts[category]; n > 0 {
			fmt.Printf("%4d  %s\n", n, category)
		}
	}
	fmt.Println(strings.Repeat("-", 40))
}

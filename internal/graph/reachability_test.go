// # internal/graph/reachability_test.go
package graph

import (
	"testing"

	"nuxtscan/internal/output"
	"nuxtscan/internal/parser"
)

func unitWith(path string, symbols ...parser.Symbol) *parser.Unit {
	return &parser.Unit{Path: path, Symbols: symbols}
}

func export(name string) parser.Symbol {
	return parser.Symbol{Name: name, Kind: parser.KindExportBinding, Exported: true}
}

func variable(name string) parser.Symbol {
	return parser.Symbol{Name: name, Kind: parser.KindVariable}
}

func cssClass(name string) parser.Symbol {
	return parser.Symbol{Name: name, Kind: parser.KindCssClass}
}

func TestAnalyze_DeadSetMembership(t *testing.T) {
	g := NewGraph()
	g.AddUnit(unitWith("lib.js", export("used"), export("orphan"), variable("local")))
	g.AddUnit(unitWith("pages/index.vue", export("default")))
	g.MarkEntry("pages/index.vue")

	usedID, ok := g.Lookup(SymbolKey{Unit: "lib.js", Name: "used", Kind: parser.KindExportBinding})
	if !ok {
		t.Fatal("used export not interned")
	}
	g.AddEdge(usedID, "pages/index.vue", parser.Static, parser.Location{File: "pages/index.vue", Line: 3})

	analysis := g.Analyze()

	if !analysis.Live[usedID] {
		t.Error("statically referenced export not live")
	}
	if !analysis.LiveUnits["lib.js"] {
		t.Error("unit of referenced symbol not live")
	}

	deadNames := make(map[string]bool)
	for _, node := range analysis.Unused {
		deadNames[node.Symbol.Name] = true
	}
	if !deadNames["orphan"] {
		t.Error("unreferenced export not in dead set")
	}
	if !deadNames["local"] {
		t.Error("unreferenced variable not in dead set")
	}
	if deadNames["used"] {
		t.Error("referenced export reported dead")
	}
	// Exports of entry units are roots, never dead.
	if deadNames["default"] {
		t.Error("entry-unit export reported dead")
	}
}

func TestAnalyze_DynamicOnlyIsPossiblyUnused(t *testing.T) {
	g := NewGraph()
	g.AddUnit(unitWith("styles.css", cssClass("maybe"), cssClass("dead")))

	maybeID, ok := g.Lookup(SymbolKey{Name: "maybe", Kind: parser.KindCssClass})
	if !ok {
		t.Fatal("css class not interned under project-wide scope")
	}
	g.AddEdge(maybeID, "pages/index.vue", parser.Dynamic, parser.Location{})

	analysis := g.Analyze()

	possibly := make(map[string]bool)
	for _, node := range analysis.PossiblyUnused {
		possibly[node.Symbol.Name] = true
	}
	dead := make(map[string]bool)
	for _, node := range analysis.Unused {
		dead[node.Symbol.Name] = true
	}

	if !possibly["maybe"] {
		t.Error("dynamic-only class not reported possibly-unused")
	}
	if dead["maybe"] {
		t.Error("dynamic-only class reported unused")
	}
	if !dead["dead"] {
		t.Error("unreferenced class not reported unused")
	}
}

func TestAnalyze_StaticEdgeBeatsDynamic(t *testing.T) {
	g := NewGraph()
	g.AddUnit(unitWith("styles.css", cssClass("both")))

	id, _ := g.Lookup(SymbolKey{Name: "both", Kind: parser.KindCssClass})
	g.AddEdge(id, "a.vue", parser.Dynamic, parser.Location{})
	g.AddEdge(id, "b.vue", parser.Static, parser.Location{})

	analysis := g.Analyze()
	if len(analysis.Unused) != 0 || len(analysis.PossiblyUnused) != 0 {
		t.Errorf("statically referenced class reported: unused=%d possibly=%d",
			len(analysis.Unused), len(analysis.PossiblyUnused))
	}
}

func TestAnalyze_SkippedUnitContributesNothing(t *testing.T) {
	g := NewGraph()
	g.AddUnit(&parser.Unit{Path: "broken.js", Skipped: true, Symbols: []parser.Symbol{variable("ghost")}})

	if g.SymbolCount() != 0 {
		t.Errorf("skipped unit interned %d symbols", g.SymbolCount())
	}
}

func TestAddUnit_RedeclarationWarns(t *testing.T) {
	g := NewGraph()
	g.AddUnit(unitWith("a.js", variable("x"), variable("x")))

	if len(g.Redeclared) != 1 {
		t.Fatalf("expected 1 redeclaration, got %d", len(g.Redeclared))
	}
	if g.SymbolCount() != 1 {
		t.Errorf("redeclaration merged into %d nodes, want 1", g.SymbolCount())
	}
}

func TestAddUnit_SameClassAcrossStylesheets(t *testing.T) {
	g := NewGraph()
	g.AddUnit(unitWith("a.css", cssClass("btn")))
	g.AddUnit(unitWith("b.css", cssClass("btn")))

	if len(g.Redeclared) != 0 {
		t.Errorf("duplicate class across stylesheets flagged as redeclaration")
	}
	if g.SymbolCount() != 1 {
		t.Errorf("project-wide class scope interned %d nodes, want 1", g.SymbolCount())
	}
}

func TestFindings_Categories(t *testing.T) {
	g := NewGraph()
	g.AddUnit(unitWith("mod.js",
		parser.Symbol{Name: "lodash", Kind: parser.KindImportBinding, FromSpecifier: "lodash"},
		export("unusedExport"),
		variable("unusedVar"),
	))
	g.AddUnit(unitWith("styles.css", cssClass("unused-class")))

	findings := g.Analyze().Findings()

	byCategory := output.CountByCategory(findings)
	for _, want := range []output.Category{
		output.CategoryUnusedImport,
		output.CategoryUnusedExport,
		output.CategoryUnusedVariable,
		output.CategoryUnusedCssClass,
	} {
		if byCategory[want] != 1 {
			t.Errorf("category %s count = %d, want 1", want, byCategory[want])
		}
	}
	for _, f := range findings {
		if f.Severity != output.SeverityUnused {
			t.Errorf("finding %+v severity = %s, want unused", f, f.Severity)
		}
	}
}

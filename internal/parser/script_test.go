// # internal/parser/script_test.go
package parser

import (
	"testing"
)

func newTestParser() *Parser {
	return NewParser(NewGrammarLoader())
}

func findSymbol(unit *Unit, name string, kind SymbolKind) (Symbol, bool) {
	for _, s := range unit.Symbols {
		if s.Name == name && s.Kind == kind {
			return s, true
		}
	}
	return Symbol{}, false
}

func hasRef(unit *Unit, name string, kind RefKind) bool {
	for _, r := range unit.Refs {
		if r.Name == name && r.Kind == kind {
			return true
		}
	}
	return false
}

func TestParseScript_ImportsAndBindings(t *testing.T) {
	src := `
import defaultThing from './thing'
import * as helpers from '~/utils/helpers'
import { one, two as alias } from '@scope/pkg'
import 'normalize.css'
`
	unit, err := newTestParser().ParseUnit("main.ts", []byte(src))
	if err != nil {
		t.Fatalf("ParseUnit failed: %v", err)
	}

	if len(unit.Imports) != 4 {
		t.Fatalf("expected 4 imports, got %d", len(unit.Imports))
	}

	sideEffects := 0
	for _, imp := range unit.Imports {
		if imp.SideEffect {
			sideEffects++
		}
	}
	if sideEffects != 1 {
		t.Errorf("expected 1 side-effect import, got %d", sideEffects)
	}

	def, ok := findSymbol(unit, "defaultThing", KindImportBinding)
	if !ok {
		t.Fatal("default import binding not extracted")
	}
	if def.OriginName != "default" || def.FromSpecifier != "./thing" {
		t.Errorf("default binding wrong: origin=%q specifier=%q", def.OriginName, def.FromSpecifier)
	}

	ns, ok := findSymbol(unit, "helpers", KindImportBinding)
	if !ok {
		t.Fatal("namespace import binding not extracted")
	}
	if ns.SubKind != SubKindNamespace {
		t.Errorf("expected namespace subkind, got %q", ns.SubKind)
	}

	aliased, ok := findSymbol(unit, "alias", KindImportBinding)
	if !ok {
		t.Fatal("aliased named import binding not extracted")
	}
	if aliased.OriginName != "two" {
		t.Errorf("aliased binding origin = %q, want two", aliased.OriginName)
	}

	// Bare specifiers map to their npm package.
	pkgs := make(map[string]bool)
	for _, imp := range unit.Imports {
		if imp.Package != "" {
			pkgs[imp.Package] = true
		}
	}
	if !pkgs["@scope/pkg"] || !pkgs["normalize.css"] {
		t.Errorf("package names missing: %v", pkgs)
	}
}

func TestParseScript_ExportsAndReferences(t *testing.T) {
	src := `
const secret = 42
export const answer = secret + 1
export function compute() { return answer }
export default compute
function helper() {}
`
	unit, err := newTestParser().ParseUnit("lib.js", []byte(src))
	if err != nil {
		t.Fatalf("ParseUnit failed: %v", err)
	}

	if _, ok := findSymbol(unit, "secret", KindVariable); !ok {
		t.Error("module-scope variable not extracted")
	}
	if _, ok := findSymbol(unit, "answer", KindExportBinding); !ok {
		t.Error("exported const not extracted as export binding")
	}
	if _, ok := findSymbol(unit, "compute", KindExportBinding); !ok {
		t.Error("exported function not extracted as export binding")
	}
	if _, ok := findSymbol(unit, "default", KindExportBinding); !ok {
		t.Error("default export not extracted")
	}
	if _, ok := findSymbol(unit, "helper", KindFunction); !ok {
		t.Error("module-scope function not extracted")
	}

	if !hasRef(unit, "secret", RefIdentifier) {
		t.Error("initializer reference to secret not recorded")
	}
	if !hasRef(unit, "answer", RefIdentifier) {
		t.Error("function-body reference to answer not recorded")
	}
	if !hasRef(unit, "compute", RefIdentifier) {
		t.Error("default-export reference to compute not recorded")
	}
}

func TestParseScript_ReExports(t *testing.T) {
	src := `
export { original as renamed } from './origin'
export * from './everything'
`
	unit, err := newTestParser().ParseUnit("index.js", []byte(src))
	if err != nil {
		t.Fatalf("ParseUnit failed: %v", err)
	}

	re, ok := findSymbol(unit, "renamed", KindExportBinding)
	if !ok {
		t.Fatal("named re-export not extracted")
	}
	if re.SubKind != SubKindReExport || re.OriginName != "original" || re.FromSpecifier != "./origin" {
		t.Errorf("re-export record wrong: %+v", re)
	}

	star, ok := findSymbol(unit, "*", KindExportBinding)
	if !ok {
		t.Fatal("star re-export not extracted")
	}
	if star.SubKind != SubKindStar || star.FromSpecifier != "./everything" {
		t.Errorf("star re-export record wrong: %+v", star)
	}
}

func TestParseScript_ConsoleCalls(t *testing.T) {
	src := `
const user = loadUser()
console.log("debugging", user)
console.error("boom")
`
	unit, err := newTestParser().ParseUnit("debug.js", []byte(src))
	if err != nil {
		t.Fatalf("ParseUnit failed: %v", err)
	}

	if len(unit.Console) != 2 {
		t.Fatalf("expected 2 console calls, got %d", len(unit.Console))
	}
	if unit.Console[0].Level != "log" || unit.Console[1].Level != "error" {
		t.Errorf("console levels wrong: %+v", unit.Console)
	}

	// The callee is a diagnostic, not a usage, but arguments still count.
	if !hasRef(unit, "user", RefIdentifier) {
		t.Error("console argument reference not recorded")
	}
	if hasRef(unit, "console", RefIdentifier) {
		t.Error("console callee recorded as a reference")
	}
}

func TestParseScript_SyntaxErrorSkipsUnit(t *testing.T) {
	_, err := newTestParser().ParseUnit("broken.js", []byte("const x = {{{"))
	if err == nil {
		t.Fatal("expected parse failure")
	}
	pf, ok := err.(*ParseFailure)
	if !ok {
		t.Fatalf("expected *ParseFailure, got %T", err)
	}
	if pf.Path != "broken.js" {
		t.Errorf("failure path = %q", pf.Path)
	}
}

func TestPackageName(t *testing.T) {
	cases := []struct {
		specifier string
		want      string
	}{
		{"vue", "vue"},
		{"lodash/merge", "lodash"},
		{"@scope/pkg/sub", "@scope/pkg"},
		{"./local", ""},
		{"../up", ""},
		{"~/components/NavBar.vue", ""},
		{"@/utils", ""},
		{"@@/nuxt.config", ""},
	}
	for _, c := range cases {
		if got := PackageName(c.specifier); got != c.want {
			t.Errorf("PackageName(%q) = %q, want %q", c.specifier, got, c.want)
		}
	}
}

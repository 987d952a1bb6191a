// # internal/resolver/resolver.go
package resolver

import (
	"fmt"
	"path"
	"strings"

	"nuxtscan/internal/graph"
	"nuxtscan/internal/output"
	"nuxtscan/internal/parser"
)

// extensionCandidates are tried in order when a specifier omits the
// extension, mirroring the bundler's resolution order.
var extensionCandidates = []string{".vue", ".ts", ".js", ".mjs", ".cjs"}

// Resolver links reference records to the symbols they name. Module-local
// names resolve within their unit; imported names resolve across units
// through specifier resolution, including the framework path aliases.
type Resolver struct {
	graph *graph.Graph

	// Alias prefix -> root-relative directory. "~" and "@" map to the source
	// dir, "~~" and "@@" to the project root.
	aliases map[string]string

	findings []output.Finding
}

func NewResolver(g *graph.Graph, srcDir string) *Resolver {
	return &Resolver{
		graph: g,
		aliases: map[string]string{
			"~~": "",
			"@@": "",
			"~":  srcDir,
			"@":  srcDir,
		},
	}
}

// Resolve wires every reference site in every unit into the graph. Runs
// single-threaded after all units are added; returns the UnresolvedImport
// findings accumulated along the way.
func (r *Resolver) Resolve() []output.Finding {
	for _, unit := range r.graph.Units() {
		if unit.Skipped {
			continue
		}
		r.resolveImports(unit)
		r.resolveReferences(unit)
	}
	output.Sort(r.findings)
	return r.findings
}

// resolveImports adds the cross-unit edges. An import statement is itself a
// literal reference: each binding targets the origin unit's export binding,
// so a chain of re-exports keeps the original declaration live.
func (r *Resolver) resolveImports(unit *parser.Unit) {
	for _, sym := range unit.Symbols {
		switch {
		case sym.Kind == parser.KindImportBinding:
			r.linkBinding(unit, sym)
		case sym.Kind == parser.KindExportBinding && sym.SubKind == parser.SubKindReExport:
			r.linkBinding(unit, sym)
		}
	}
}

func (r *Resolver) linkBinding(unit *parser.Unit, sym parser.Symbol) {
	target, ok := r.resolveSpecifier(unit.Path, sym.FromSpecifier)
	if !ok {
		if packageSpecifier(sym.FromSpecifier) {
			// Bare package imports resolve in node_modules, outside the
			// project tree; the auditor accounts for them.
			return
		}
		r.findings = append(r.findings, output.Finding{
			Category:    output.CategoryUnresolvedImport,
			Severity:    output.SeverityInfo,
			File:        unit.Path,
			Line:        sym.Location.Line,
			Description: fmt.Sprintf("import specifier %q does not resolve to a project file", sym.FromSpecifier),
		})
		return
	}

	if sym.SubKind == parser.SubKindNamespace {
		// import * as ns: every export of the target is referenced.
		for _, node := range r.graph.UnitSymbols(target) {
			if node.Key.Kind == parser.KindExportBinding {
				r.graph.AddEdge(node.ID, unit.Path, parser.Static, sym.Location)
			}
		}
		return
	}

	origin := sym.OriginName
	if origin == "" {
		origin = sym.Name
	}
	if id, ok := r.lookupExport(target, origin, nil); ok {
		r.graph.AddEdge(id, unit.Path, parser.Static, sym.Location)
		return
	}

	r.findings = append(r.findings, output.Finding{
		Category:    output.CategoryUnresolvedImport,
		Severity:    output.SeverityInfo,
		File:        unit.Path,
		Line:        sym.Location.Line,
		Description: fmt.Sprintf("%q has no export named %q", sym.FromSpecifier, origin),
	})
}

// lookupExport finds an export binding in a unit, following star re-exports
// with a visited set so mutually re-exporting modules terminate.
func (r *Resolver) lookupExport(unitPath, name string, visited map[string]bool) (graph.SymbolID, bool) {
	if visited[unitPath] {
		return 0, false
	}

	key := graph.SymbolKey{Unit: unitPath, Name: name, Kind: parser.KindExportBinding}
	if id, ok := r.graph.Lookup(key); ok {
		return id, true
	}

	if visited == nil {
		visited = make(map[string]bool)
	}
	visited[unitPath] = true

	for _, node := range r.graph.UnitSymbols(unitPath) {
		if node.Symbol.SubKind != parser.SubKindStar {
			continue
		}
		target, ok := r.resolveSpecifier(unitPath, node.Symbol.FromSpecifier)
		if !ok {
			continue
		}
		if id, ok := r.lookupExport(target, name, visited); ok {
			// The hop through the star re-export keeps the intermediate
			// module's carrier alive too.
			r.graph.AddEdge(node.ID, unitPath, parser.Static, node.Symbol.Location)
			return id, true
		}
	}
	return 0, false
}

// resolveReferences wires the unit's identifier and class usages. Identifier
// refs resolve unit-locally (import bindings shadow module declarations);
// class refs resolve in the project-wide stylesheet scope.
func (r *Resolver) resolveReferences(unit *parser.Unit) {
	for _, ref := range unit.Refs {
		switch ref.Kind {
		case parser.RefIdentifier:
			if id, ok := r.lookupLocal(unit.Path, ref.Name); ok {
				r.graph.AddEdge(id, unit.Path, ref.Confidence, ref.Location)
			}

		case parser.RefCssClass:
			if ref.Name == "" {
				// Unreducible class expression: a dynamic edge to every class
				// this unit declares downgrades them rather than reviving them.
				for _, node := range r.graph.UnitSymbols(unit.Path) {
					if node.Key.Kind == parser.KindCssClass {
						r.graph.AddEdge(node.ID, unit.Path, parser.Dynamic, ref.Location)
					}
				}
				continue
			}
			key := graph.SymbolKey{Name: ref.Name, Kind: parser.KindCssClass}
			if id, ok := r.graph.Lookup(key); ok {
				r.graph.AddEdge(id, unit.Path, ref.Confidence, ref.Location)
			}
		}
	}
}

// lookupLocal resolves an identifier within its unit. Unresolved names are
// globals or block-locals and are silently skipped.
func (r *Resolver) lookupLocal(unitPath, name string) (graph.SymbolID, bool) {
	for _, kind := range []parser.SymbolKind{
		parser.KindImportBinding,
		parser.KindVariable,
		parser.KindFunction,
		parser.KindExportBinding,
	} {
		key := graph.SymbolKey{Unit: unitPath, Name: name, Kind: kind}
		if id, ok := r.graph.Lookup(key); ok {
			return id, true
		}
	}
	return 0, false
}

// resolveSpecifier maps an import specifier written in fromUnit to the
// root-relative path of a parsed unit. Tries the literal path, then the
// extension candidates, then index files.
func (r *Resolver) resolveSpecifier(fromUnit, specifier string) (string, bool) {
	if specifier == "" {
		return "", false
	}

	var base string
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"):
		base = path.Join(path.Dir(fromUnit), specifier)
	case strings.HasPrefix(specifier, "/"):
		base = strings.TrimPrefix(specifier, "/")
	default:
		alias, rest, ok := r.splitAlias(specifier)
		if !ok {
			return "", false
		}
		base = path.Join(alias, rest)
	}
	base = path.Clean(base)

	if _, ok := r.graph.Unit(base); ok {
		return base, true
	}
	for _, ext := range extensionCandidates {
		if _, ok := r.graph.Unit(base + ext); ok {
			return base + ext, true
		}
	}
	for _, ext := range extensionCandidates {
		candidate := path.Join(base, "index"+ext)
		if _, ok := r.graph.Unit(candidate); ok {
			return candidate, true
		}
	}
	return "", false
}

// splitAlias matches the longest alias prefix ("~~" before "~").
func (r *Resolver) splitAlias(specifier string) (dir, rest string, ok bool) {
	for _, prefix := range []string{"~~", "@@", "~", "@"} {
		if specifier == prefix {
			return r.aliases[prefix], "", true
		}
		if strings.HasPrefix(specifier, prefix+"/") {
			return r.aliases[prefix], specifier[len(prefix)+1:], true
		}
	}
	return "", "", false
}

func packageSpecifier(specifier string) bool {
	return parser.PackageName(specifier) != ""
}

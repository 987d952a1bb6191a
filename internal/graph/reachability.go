// # internal/graph/reachability.go
package graph

import (
	"fmt"

	"nuxtscan/internal/output"
	"nuxtscan/internal/parser"
)

// Analysis is the outcome of one reachability pass. Live is the set of
// symbols transitively referenced from entry units over Static edges;
// Unused and PossiblyUnused carry the dead set, already split by the
// confidence of whatever incoming edges exist.
type Analysis struct {
	Live           map[SymbolID]bool
	LiveUnits      map[string]bool
	Unused         []Node
	PossiblyUnused []Node
}

// Analyze computes the live set via breadth-first traversal from the entry
// units and classifies every declared symbol. A symbol is dead exactly when
// no Static edge targets it and it is not a root; Dynamic-only incoming
// edges downgrade dead to possibly-unused, never to live.
func (g *Graph) Analyze() *Analysis {
	a := &Analysis{
		Live:      make(map[SymbolID]bool),
		LiveUnits: make(map[string]bool),
	}

	// Unit-level BFS: an entry unit's module executes, so every reference
	// site it contains fires; each target symbol is live and pulls its
	// declaring unit into the frontier.
	queue := g.entrySnapshot()
	for _, path := range queue {
		a.LiveUnits[path] = true
	}
	for len(queue) > 0 {
		unit := queue[0]
		queue = queue[1:]

		for _, ref := range g.edgesFrom(unit) {
			if ref.edge.Confidence != parser.Static {
				continue
			}
			if !a.Live[ref.target] {
				a.Live[ref.target] = true
			}
			decl := g.nodes[ref.target].DeclaringUnit
			if !a.LiveUnits[decl] {
				a.LiveUnits[decl] = true
				queue = append(queue, decl)
			}
		}
	}

	// Roots: exported symbols of entry units (routed pages, registered
	// plugins). They are invoked by the framework, not by a reference site.
	for _, node := range g.nodesSnapshot() {
		if node.Key.Kind == parser.KindExportBinding && g.IsEntry(node.DeclaringUnit) {
			a.Live[node.ID] = true
			continue
		}

		staticIn, dynamicIn := 0, 0
		for _, edge := range g.incomingEdges(node.ID) {
			if edge.Confidence == parser.Static {
				staticIn++
			} else {
				dynamicIn++
			}
		}
		if staticIn > 0 {
			continue
		}
		if node.Symbol.SubKind == parser.SubKindStar {
			// Synthetic star re-export carrier, not a reportable name.
			continue
		}

		if dynamicIn > 0 {
			a.PossiblyUnused = append(a.PossiblyUnused, node)
		} else {
			a.Unused = append(a.Unused, node)
		}
	}

	return a
}

// Findings converts the dead set into reporter records.
func (a *Analysis) Findings() []output.Finding {
	var findings []output.Finding
	for _, node := range a.Unused {
		findings = append(findings, deadFinding(node, output.SeverityUnused))
	}
	for _, node := range a.PossiblyUnused {
		findings = append(findings, deadFinding(node, output.SeverityPossiblyUnused))
	}
	output.Sort(findings)
	return findings
}

func deadFinding(node Node, severity output.Severity) output.Finding {
	var category output.Category
	var desc string

	switch node.Key.Kind {
	case parser.KindImportBinding:
		category = output.CategoryUnusedImport
		desc = fmt.Sprintf("imported binding %q from %q is never used", node.Symbol.Name, node.Symbol.FromSpecifier)
	case parser.KindExportBinding:
		category = output.CategoryUnusedExport
		if node.Symbol.Name == "default" {
			desc = "default export is never imported"
		} else {
			desc = fmt.Sprintf("exported symbol %q is never imported", node.Symbol.Name)
		}
	case parser.KindFunction:
		category = output.CategoryUnusedVariable
		desc = fmt.Sprintf("function %q is never called", node.Symbol.Name)
	case parser.KindCssClass:
		category = output.CategoryUnusedCssClass
		desc = fmt.Sprintf("css class %q is never referenced", node.Symbol.Name)
	default:
		category = output.CategoryUnusedVariable
		desc = fmt.Sprintf("variable %q is never used", node.Symbol.Name)
	}

	return output.Finding{
		Category:    category,
		Severity:    severity,
		File:        node.DeclaringUnit,
		Line:        node.Symbol.Location.Line,
		Description: desc,
	}
}

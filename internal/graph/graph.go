// # internal/graph/graph.go
package graph

import (
	"sync"

	"nuxtscan/internal/parser"
)

// SymbolID is an interned identity; edges reference IDs rather than symbol
// pointers so traversal is cycle-safe and construction can merge worker
// output without sharing object graphs.
type SymbolID int

// SymbolKey identifies one declaration. CSS classes use Unit "" because
// class names resolve in a single project-wide scope.
type SymbolKey struct {
	Unit string
	Name string
	Kind parser.SymbolKind
}

type Node struct {
	ID            SymbolID
	Key           SymbolKey
	Symbol        parser.Symbol
	DeclaringUnit string
}

// Edge is one resolved reference site targeting a symbol.
type Edge struct {
	FromUnit   string
	Confidence parser.Confidence
	Location   parser.Location
}

// Graph is the project-wide usage graph. Built once after the parse barrier,
// read-only afterward.
type Graph struct {
	mu sync.RWMutex

	units      map[string]*parser.Unit
	nodes      []Node
	index      map[SymbolKey]SymbolID
	incoming   map[SymbolID][]Edge
	byFromUnit map[string][]edgeRef
	entryUnits map[string]bool

	// Redeclarations of one identity in one scope: a warning, never a merge.
	Redeclared []parser.Symbol
}

type edgeRef struct {
	target SymbolID
	edge   Edge
}

func NewGraph() *Graph {
	return &Graph{
		units:      make(map[string]*parser.Unit),
		index:      make(map[SymbolKey]SymbolID),
		incoming:   make(map[SymbolID][]Edge),
		byFromUnit: make(map[string][]edgeRef),
		entryUnits: make(map[string]bool),
	}
}

// AddUnit interns every symbol the unit declares. Skipped units register for
// bookkeeping but contribute no symbols.
func (g *Graph) AddUnit(unit *parser.Unit) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.units[unit.Path] = unit
	if unit.Skipped {
		return
	}

	for _, sym := range unit.Symbols {
		key := SymbolKey{Unit: unit.Path, Name: sym.Name, Kind: sym.Kind}
		if sym.Kind == parser.KindCssClass {
			key.Unit = ""
		}

		if _, exists := g.index[key]; exists {
			// Same class declared in several stylesheets is normal; any other
			// duplicate identity is a redeclaration warning.
			if sym.Kind != parser.KindCssClass {
				g.Redeclared = append(g.Redeclared, sym)
			}
			continue
		}

		id := SymbolID(len(g.nodes))
		g.nodes = append(g.nodes, Node{
			ID:            id,
			Key:           key,
			Symbol:        sym,
			DeclaringUnit: unit.Path,
		})
		g.index[key] = id
	}
}

func (g *Graph) MarkEntry(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entryUnits[path] = true
}

func (g *Graph) IsEntry(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entryUnits[path]
}

func (g *Graph) Lookup(key SymbolKey) (SymbolID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.index[key]
	return id, ok
}

// AddEdge records a resolved reference site. The reachability pass never
// invents edges; everything it traverses went through here.
func (g *Graph) AddEdge(target SymbolID, fromUnit string, confidence parser.Confidence, loc parser.Location) {
	g.mu.Lock()
	defer g.mu.Unlock()

	edge := Edge{FromUnit: fromUnit, Confidence: confidence, Location: loc}
	g.incoming[target] = append(g.incoming[target], edge)
	g.byFromUnit[fromUnit] = append(g.byFromUnit[fromUnit], edgeRef{target: target, edge: edge})
}

func (g *Graph) Unit(path string) (*parser.Unit, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	u, ok := g.units[path]
	return u, ok
}

func (g *Graph) Units() []*parser.Unit {
	g.mu.RLock()
	defer g.mu.RUnlock()
	units := make([]*parser.Unit, 0, len(g.units))
	for _, u := range g.units {
		units = append(units, u)
	}
	return units
}

func (g *Graph) UnitCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.units)
}

func (g *Graph) SymbolCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, edges := range g.incoming {
		n += len(edges)
	}
	return n
}

// UnitSymbols returns the nodes declared by one unit, css classes included.
func (g *Graph) UnitSymbols(path string) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var nodes []Node
	for _, n := range g.nodes {
		if n.DeclaringUnit == path {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (g *Graph) nodesSnapshot() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Node(nil), g.nodes...)
}

func (g *Graph) incomingEdges(id SymbolID) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Edge(nil), g.incoming[id]...)
}

func (g *Graph) edgesFrom(path string) []edgeRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]edgeRef(nil), g.byFromUnit[path]...)
}

func (g *Graph) entrySnapshot() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	entries := make([]string, 0, len(g.entryUnits))
	for path := range g.entryUnits {
		entries = append(entries, path)
	}
	return entries
}

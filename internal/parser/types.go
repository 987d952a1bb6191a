// # internal/parser/types.go
package parser

import (
	"time"
)

type Dialect string

const (
	DialectScript    Dialect = "script"    // .js/.mjs/.cjs/.ts module scripts
	DialectComponent Dialect = "component" // .vue single-file components
	DialectStyle     Dialect = "style"     // .css/.scss/.sass stylesheets
)

// Unit is one logical source file after parsing and extraction.
// A component unit may contribute records from up to three subtrees
// (script, template, style) that share the script's import scope.
type Unit struct {
	Path     string
	Dialect  Dialect
	Skipped  bool // parse failed; ParseFailure carries the detail
	Imports  []Import
	Symbols  []Symbol
	Refs     []Reference
	Console  []ConsoleCall
	ParsedAt time.Time

	// HasDynamicClassExpr is set when a class binding in this unit could not
	// be reduced to literals. Classes declared here that would otherwise be
	// dead are downgraded to possibly-unused.
	HasDynamicClassExpr bool
}

// Import is one import statement. Bindings introduced by the statement are
// additionally emitted as KindImportBinding Symbols; the Import record feeds
// cross-unit resolution and the package auditor.
type Import struct {
	Specifier  string // as written in source
	Package    string // bare package name when the specifier is not project-relative
	SideEffect bool   // import "x" with no bindings
	Location   Location
}

type SymbolKind int

const (
	KindImportBinding SymbolKind = iota
	KindExportBinding
	KindVariable
	KindFunction
	KindCssClass
)

func (k SymbolKind) String() string {
	switch k {
	case KindImportBinding:
		return "import"
	case KindExportBinding:
		return "export"
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindCssClass:
		return "css-class"
	}
	return "unknown"
}

const (
	SubKindNamed     = "named"
	SubKindDefault   = "default"
	SubKindNamespace = "namespace"
	SubKindReExport  = "reexport"
	SubKindStar      = "star-reexport"
)

// Symbol is one declared name.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	SubKind  string
	Exported bool

	// Import bindings: the specifier the binding came from and the exported
	// name on the other side (differs from Name when aliased).
	FromSpecifier string
	OriginName    string

	Location Location
}

type Confidence int

const (
	Static Confidence = iota
	Dynamic
)

func (c Confidence) String() string {
	if c == Dynamic {
		return "dynamic"
	}
	return "static"
}

type RefKind int

const (
	RefIdentifier RefKind = iota
	RefCssClass
)

// Reference is one usage occurrence. Dynamic references carry no target name
// and may never mark a symbol dead on their own.
type Reference struct {
	Name       string
	Kind       RefKind
	Confidence Confidence
	Location   Location
}

// ConsoleCall is a console.log/warn/error style diagnostic statement. These
// are findings in their own right, not symbols.
type ConsoleCall struct {
	Level    string
	Code     string
	Location Location
}

type Location struct {
	File   string
	Line   int
	Column int
}

// ParseFailure reports a unit that could not be parsed. The run continues;
// the failing unit contributes only this record.
type ParseFailure struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseFailure) Error() string {
	return e.Path + ": " + e.Message
}

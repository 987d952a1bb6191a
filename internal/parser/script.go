// # internal/parser/script.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var consoleLevels = map[string]bool{
	"log":   true,
	"warn":  true,
	"error": true,
	"info":  true,
	"debug": true,
}

// extractScript walks a javascript/typescript tree and emits imports,
// exports, module-scope declarations, identifier references and console
// diagnostics. Block-local declarations are intentionally not extracted;
// their identifiers still count as references so module-scope symbols used
// inside functions register as live.
func extractScript(block Block, unit *Unit) {
	e := &scriptExtractor{block: block, unit: unit}
	e.walk(block.Root)
}

type scriptExtractor struct {
	block Block
	unit  *Unit
}

func (e *scriptExtractor) walk(node *sitter.Node) {
	switch node.Kind() {
	case "import_statement":
		e.extractImport(node)
		return

	case "export_statement":
		e.extractExport(node)
		return

	case "lexical_declaration", "variable_declaration":
		if e.isModuleScope(node) {
			e.declareVariables(node, true)
		}

	case "function_declaration", "generator_function_declaration":
		if e.isModuleScope(node) {
			if name := node.ChildByFieldName("name"); name != nil {
				e.unit.Symbols = append(e.unit.Symbols, Symbol{
					Name:     e.block.Text(name),
					Kind:     KindFunction,
					Location: e.block.Loc(name),
				})
			}
		}

	case "call_expression":
		if e.extractConsoleCall(node) {
			// The callee is a diagnostic, not a usage; still walk the
			// arguments for references.
			if args := node.ChildByFieldName("arguments"); args != nil {
				e.walk(args)
			}
			return
		}

	case "identifier":
		e.maybeReference(node)
		return

	case "shorthand_property_identifier":
		e.addReference(e.block.Text(node), node)
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i))
	}
}

// isModuleScope reports whether a declaration sits directly in module scope.
// Exported declarations are handled by extractExport instead.
func (e *scriptExtractor) isModuleScope(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Kind() == "program"
}

func (e *scriptExtractor) declareVariables(decl *sitter.Node, emit bool) {
	for i := uint(0); i < decl.ChildCount(); i++ {
		child := decl.Child(i)
		if child.Kind() != "variable_declarator" {
			continue
		}
		name := child.ChildByFieldName("name")
		if emit && name != nil && name.Kind() == "identifier" {
			e.unit.Symbols = append(e.unit.Symbols, Symbol{
				Name:     e.block.Text(name),
				Kind:     KindVariable,
				Location: e.block.Loc(name),
			})
		}
	}
}

func (e *scriptExtractor) extractImport(node *sitter.Node) {
	specifier, ok := e.stringField(node, "source")
	if !ok {
		return
	}

	imp := Import{
		Specifier: specifier,
		Package:   PackageName(specifier),
		Location:  e.block.Loc(node),
	}

	bindings := 0
	for i := uint(0); i < node.ChildCount(); i++ {
		clause := node.Child(i)
		if clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.ChildCount(); j++ {
			part := clause.Child(j)
			switch part.Kind() {
			case "identifier":
				bindings++
				e.unit.Symbols = append(e.unit.Symbols, Symbol{
					Name:          e.block.Text(part),
					Kind:          KindImportBinding,
					SubKind:       SubKindDefault,
					FromSpecifier: specifier,
					OriginName:    "default",
					Location:      e.block.Loc(part),
				})
			case "namespace_import":
				for k := uint(0); k < part.ChildCount(); k++ {
					if id := part.Child(k); id.Kind() == "identifier" {
						bindings++
						e.unit.Symbols = append(e.unit.Symbols, Symbol{
							Name:          e.block.Text(id),
							Kind:          KindImportBinding,
							SubKind:       SubKindNamespace,
							FromSpecifier: specifier,
							OriginName:    "*",
							Location:      e.block.Loc(id),
						})
					}
				}
			case "named_imports":
				for k := uint(0); k < part.ChildCount(); k++ {
					spec := part.Child(k)
					if spec.Kind() != "import_specifier" {
						continue
					}
					name := spec.ChildByFieldName("name")
					if name == nil {
						continue
					}
					local := name
					if alias := spec.ChildByFieldName("alias"); alias != nil {
						local = alias
					}
					bindings++
					e.unit.Symbols = append(e.unit.Symbols, Symbol{
						Name:          e.block.Text(local),
						Kind:          KindImportBinding,
						SubKind:       SubKindNamed,
						FromSpecifier: specifier,
						OriginName:    e.block.Text(name),
						Location:      e.block.Loc(local),
					})
				}
			}
		}
	}

	imp.SideEffect = bindings == 0
	e.unit.Imports = append(e.unit.Imports, imp)
}

func (e *scriptExtractor) extractExport(node *sitter.Node) {
	if specifier, ok := e.stringField(node, "source"); ok {
		// Re-export: alias edges back to the origin module keep re-export
		// chains alive without a local binding.
		e.unit.Imports = append(e.unit.Imports, Import{
			Specifier: specifier,
			Package:   PackageName(specifier),
			Location:  e.block.Loc(node),
		})

		star := false
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			switch child.Kind() {
			case "*", "namespace_export":
				star = true
			case "export_clause":
				for j := uint(0); j < child.ChildCount(); j++ {
					spec := child.Child(j)
					if spec.Kind() != "export_specifier" {
						continue
					}
					name := spec.ChildByFieldName("name")
					if name == nil {
						continue
					}
					exported := name
					if alias := spec.ChildByFieldName("alias"); alias != nil {
						exported = alias
					}
					e.unit.Symbols = append(e.unit.Symbols, Symbol{
						Name:          e.block.Text(exported),
						Kind:          KindExportBinding,
						SubKind:       SubKindReExport,
						Exported:      true,
						FromSpecifier: specifier,
						OriginName:    e.block.Text(name),
						Location:      e.block.Loc(exported),
					})
				}
			}
		}
		if star {
			e.unit.Symbols = append(e.unit.Symbols, Symbol{
				Name:          "*",
				Kind:          KindExportBinding,
				SubKind:       SubKindStar,
				Exported:      true,
				FromSpecifier: specifier,
				Location:      e.block.Loc(node),
			})
		}
		return
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		switch decl.Kind() {
		case "lexical_declaration", "variable_declaration":
			for i := uint(0); i < decl.ChildCount(); i++ {
				child := decl.Child(i)
				if child.Kind() != "variable_declarator" {
					continue
				}
				if name := child.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
					e.unit.Symbols = append(e.unit.Symbols, Symbol{
						Name:     e.block.Text(name),
						Kind:     KindExportBinding,
						Exported: true,
						Location: e.block.Loc(name),
					})
				}
			}
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				e.unit.Symbols = append(e.unit.Symbols, Symbol{
					Name:     e.block.Text(name),
					Kind:     KindExportBinding,
					Exported: true,
					Location: e.block.Loc(name),
				})
			}
		default:
			// export default <expr>: grammar puts declarations in the same
			// field, so anything else is the default value expression.
			e.unit.Symbols = append(e.unit.Symbols, Symbol{
				Name:     "default",
				Kind:     KindExportBinding,
				SubKind:  SubKindDefault,
				Exported: true,
				Location: e.block.Loc(node),
			})
		}
		// Initializer expressions still carry references.
		for i := uint(0); i < decl.ChildCount(); i++ {
			e.walk(decl.Child(i))
		}
		return
	}

	if value := node.ChildByFieldName("value"); value != nil {
		e.unit.Symbols = append(e.unit.Symbols, Symbol{
			Name:     "default",
			Kind:     KindExportBinding,
			SubKind:  SubKindDefault,
			Exported: true,
			Location: e.block.Loc(node),
		})
		e.walk(value)
		return
	}

	// export { a, b as c }: exports alias local symbols, so each specifier
	// both declares an export and references the local name.
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "export_clause" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			spec := child.Child(j)
			if spec.Kind() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil {
				continue
			}
			exported := name
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = alias
			}
			e.unit.Symbols = append(e.unit.Symbols, Symbol{
				Name:       e.block.Text(exported),
				Kind:       KindExportBinding,
				Exported:   true,
				OriginName: e.block.Text(name),
				Location:   e.block.Loc(exported),
			})
			e.addReference(e.block.Text(name), name)
		}
	}
}

func (e *scriptExtractor) extractConsoleCall(call *sitter.Node) bool {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "member_expression" {
		return false
	}
	object := fn.ChildByFieldName("object")
	property := fn.ChildByFieldName("property")
	if object == nil || property == nil || object.Kind() != "identifier" {
		return false
	}
	if e.block.Text(object) != "console" {
		return false
	}
	level := e.block.Text(property)
	if !consoleLevels[level] {
		return false
	}

	code := e.block.Text(call)
	if idx := strings.IndexByte(code, '\n'); idx >= 0 {
		code = code[:idx]
	}
	e.unit.Console = append(e.unit.Console, ConsoleCall{
		Level:    level,
		Code:     code,
		Location: e.block.Loc(call),
	})
	return true
}

// maybeReference records an identifier usage unless the identifier sits in a
// declaration-name position.
func (e *scriptExtractor) maybeReference(node *sitter.Node) {
	parent := node.Parent()
	if parent == nil {
		return
	}

	switch parent.Kind() {
	case "variable_declarator":
		if name := parent.ChildByFieldName("name"); name != nil && sameNode(name, node) {
			return
		}
	case "function_declaration", "generator_function_declaration", "class_declaration",
		"method_definition", "function_expression":
		if name := parent.ChildByFieldName("name"); name != nil && sameNode(name, node) {
			return
		}
	case "import_specifier", "namespace_import", "import_clause", "export_specifier":
		return
	case "formal_parameters", "required_parameter", "optional_parameter", "rest_pattern",
		"object_pattern", "array_pattern", "catch_clause":
		return
	case "arrow_function":
		if param := parent.ChildByFieldName("parameter"); param != nil && sameNode(param, node) {
			return
		}
	case "pair_pattern", "assignment_pattern":
		return
	}

	e.addReference(e.block.Text(node), node)
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

func (e *scriptExtractor) addReference(name string, node *sitter.Node) {
	e.unit.Refs = append(e.unit.Refs, Reference{
		Name:       name,
		Kind:       RefIdentifier,
		Confidence: Static,
		Location:   e.block.Loc(node),
	})
}

// stringField reads a string-literal field off a node, e.g. the import
// source. Returns false for computed or missing sources.
func (e *scriptExtractor) stringField(node *sitter.Node, field string) (string, bool) {
	value := node.ChildByFieldName(field)
	if value == nil || value.Kind() != "string" {
		return "", false
	}
	return stringLiteralValue(value, e.block.Source)
}

func stringLiteralValue(node *sitter.Node, source []byte) (string, bool) {
	var b strings.Builder
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "string_fragment" {
			b.WriteString(string(source[child.StartByte():child.EndByte()]))
		}
	}
	return b.String(), true
}

// PackageName maps a bare import specifier to its npm package name.
// Project-relative specifiers (./x, ../x, /x and the Nuxt aliases ~, ~~, @/,
// @@) return "".
func PackageName(specifier string) string {
	if specifier == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(specifier, "."),
		strings.HasPrefix(specifier, "/"),
		strings.HasPrefix(specifier, "~"),
		strings.HasPrefix(specifier, "@/"),
		strings.HasPrefix(specifier, "@@"):
		return ""
	}

	parts := strings.Split(specifier, "/")
	if strings.HasPrefix(specifier, "@") {
		if len(parts) < 2 {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

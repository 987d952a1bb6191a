// # internal/parser/style.go
package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// extractStyle collects class selector declarations from a css tree.
// Element, id and attribute selectors carry no project symbols and are
// skipped; class names form one project-wide resolution scope.
func extractStyle(block Block, unit *Unit) {
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node.Kind() == "class_selector" {
			for i := uint(0); i < node.ChildCount(); i++ {
				child := node.Child(i)
				if child.Kind() != "class_name" {
					continue
				}
				unit.Symbols = append(unit.Symbols, Symbol{
					Name:     block.Text(child),
					Kind:     KindCssClass,
					Location: block.Loc(child),
				})
			}
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(block.Root)
}

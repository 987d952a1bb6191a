// # internal/parser/sfc.go
package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// splitComponent locates the top-level <script>, <template> and <style>
// blocks of a single-file component. The whole file is parsed once with the
// html grammar; script and style bodies come back as raw_text nodes that are
// re-parsed with their own grammars, while the template subtree is consumed
// in place. All three share one SourceUnit and one import scope.
type componentBlocks struct {
	Script     *rawBlock
	ScriptLang string
	Template   *templateBlock
	Styles     []*rawBlock
}

type rawBlock struct {
	Content  []byte
	StartRow int
	StartCol int
}

type templateBlock struct {
	Node *sitter.Node
}

func splitComponent(root *sitter.Node, source []byte) componentBlocks {
	var blocks componentBlocks

	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		switch child.Kind() {
		case "element", "script_element", "style_element":
		default:
			continue
		}

		tag, attrs := startTag(child, source)
		switch tag {
		case "script":
			if raw := rawTextBlock(child, source); raw != nil {
				blocks.Script = raw
				blocks.ScriptLang = attrs["lang"]
			}
		case "template":
			if blocks.Template == nil {
				blocks.Template = &templateBlock{Node: child}
			}
		case "style":
			if raw := rawTextBlock(child, source); raw != nil {
				blocks.Styles = append(blocks.Styles, raw)
			}
		}
	}

	return blocks
}

// startTag returns the element's tag name and attribute map (values only for
// plainly quoted attributes; bare attributes map to "").
func startTag(element *sitter.Node, source []byte) (string, map[string]string) {
	attrs := make(map[string]string)

	var open *sitter.Node
	for i := uint(0); i < element.ChildCount(); i++ {
		child := element.Child(i)
		if k := child.Kind(); k == "start_tag" || k == "self_closing_tag" {
			open = child
			break
		}
	}
	if open == nil {
		return "", attrs
	}

	tag := ""
	for i := uint(0); i < open.ChildCount(); i++ {
		child := open.Child(i)
		switch child.Kind() {
		case "tag_name":
			tag = nodeText(child, source)
		case "attribute":
			name, value := attributeNameValue(child, source)
			if name != "" {
				attrs[name] = value
			}
		}
	}
	return tag, attrs
}

// AttributeParts exposes attribute name/value splitting to tree visitors
// that walk markup blocks outside this package.
func AttributeParts(attr *sitter.Node, source []byte) (string, string) {
	return attributeNameValue(attr, source)
}

func attributeNameValue(attr *sitter.Node, source []byte) (string, string) {
	var name, value string
	for i := uint(0); i < attr.ChildCount(); i++ {
		child := attr.Child(i)
		switch child.Kind() {
		case "attribute_name":
			name = nodeText(child, source)
		case "attribute_value":
			value = nodeText(child, source)
		case "quoted_attribute_value":
			for j := uint(0); j < child.ChildCount(); j++ {
				if inner := child.Child(j); inner.Kind() == "attribute_value" {
					value = nodeText(inner, source)
				}
			}
		}
	}
	return name, value
}

// attributeValueNode returns the attribute_value node so callers can keep
// source positions for expression sub-parses.
func attributeValueNode(attr *sitter.Node) *sitter.Node {
	for i := uint(0); i < attr.ChildCount(); i++ {
		child := attr.Child(i)
		switch child.Kind() {
		case "attribute_value":
			return child
		case "quoted_attribute_value":
			for j := uint(0); j < child.ChildCount(); j++ {
				if inner := child.Child(j); inner.Kind() == "attribute_value" {
					return inner
				}
			}
		}
	}
	return nil
}

func rawTextBlock(element *sitter.Node, source []byte) *rawBlock {
	for i := uint(0); i < element.ChildCount(); i++ {
		child := element.Child(i)
		if child.Kind() != "raw_text" {
			continue
		}
		return &rawBlock{
			Content:  source[child.StartByte():child.EndByte()],
			StartRow: int(child.StartPosition().Row),
			StartCol: int(child.StartPosition().Column),
		}
	}
	return nil
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

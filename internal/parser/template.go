// # internal/parser/template.go
package parser

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var interpolationRE = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)

// extractTemplate walks the markup subtree of a component. Class attributes
// become CssClass references; binding and interpolation expressions are
// sub-parsed with the javascript grammar so template usages of script-scope
// names register as references.
func extractTemplate(p *Parser, block Block, unit *Unit) {
	t := &templateExtractor{parser: p, block: block, unit: unit}
	t.walk(block.Root)
}

type templateExtractor struct {
	parser *Parser
	block  Block
	unit   *Unit
}

func (t *templateExtractor) walk(node *sitter.Node) {
	switch node.Kind() {
	case "start_tag", "self_closing_tag":
		t.extractTag(node)
	case "text":
		t.extractInterpolations(node)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		t.walk(node.Child(i))
	}
}

func (t *templateExtractor) extractTag(tag *sitter.Node) {
	for i := uint(0); i < tag.ChildCount(); i++ {
		child := tag.Child(i)
		switch child.Kind() {
		case "tag_name":
			t.extractComponentRef(child)
		case "attribute":
			t.extractAttribute(child)
		}
	}
}

// extractComponentRef records a usage of a locally imported component.
// Kebab-case tags normalize to the PascalCase binding name; plain lowercase
// tags are regular html elements and are skipped.
func (t *templateExtractor) extractComponentRef(tagName *sitter.Node) {
	name := t.block.Text(tagName)
	if name == "" {
		return
	}
	hasUpper := strings.ToLower(name) != name
	if !hasUpper && !strings.Contains(name, "-") {
		return
	}
	t.unit.Refs = append(t.unit.Refs, Reference{
		Name:       pascalCase(name),
		Kind:       RefIdentifier,
		Confidence: Static,
		Location:   t.block.Loc(tagName),
	})
}

func (t *templateExtractor) extractAttribute(attr *sitter.Node) {
	name, _ := attributeNameValue(attr, t.block.Source)
	valueNode := attributeValueNode(attr)

	switch {
	case name == "class":
		if valueNode != nil {
			t.addStaticClasses(t.block.Text(valueNode), valueNode)
		}

	case name == ":class" || name == "v-bind:class":
		if valueNode != nil {
			t.extractClassExpression(valueNode)
		}

	case name == "v-html":
		// Scanner territory; the raw-content binding is not a symbol usage.

	case strings.HasPrefix(name, ":") || strings.HasPrefix(name, "@") || strings.HasPrefix(name, "v-"):
		if valueNode != nil {
			t.extractExpressionRefs(valueNode)
		}
	}
}

func (t *templateExtractor) addStaticClasses(value string, node *sitter.Node) {
	for _, class := range strings.Fields(value) {
		t.unit.Refs = append(t.unit.Refs, Reference{
			Name:       class,
			Kind:       RefCssClass,
			Confidence: Static,
			Location:   t.block.Loc(node),
		})
	}
}

// extractClassExpression reduces a :class binding to its statically known
// class names. Literal strings and object keys resolve as Static references;
// any identifier or call in the expression additionally yields one Dynamic
// reference, which can downgrade otherwise-dead classes of this unit to
// possibly-unused but never revives them outright.
func (t *templateExtractor) extractClassExpression(valueNode *sitter.Node) {
	exprBlock, root, done, ok := t.parseExpression(valueNode)
	if !ok {
		return
	}
	defer done()

	dynamic := false

	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		switch node.Kind() {
		case "string", "template_string":
			if text, ok := stringLiteralValue(node, exprBlock.Source); ok {
				t.addStaticClasses(text, valueNode)
			}
			return
		case "property_identifier":
			if parent := node.Parent(); parent != nil && parent.Kind() == "pair" {
				if key := parent.ChildByFieldName("key"); key != nil && sameNode(key, node) {
					t.addStaticClasses(exprBlock.Text(node), valueNode)
					return
				}
			}
			dynamic = true
			return
		case "identifier":
			dynamic = true
			// The identifier itself is a script-scope usage.
			t.unit.Refs = append(t.unit.Refs, Reference{
				Name:       exprBlock.Text(node),
				Kind:       RefIdentifier,
				Confidence: Static,
				Location:   t.block.Loc(valueNode),
			})
			return
		case "call_expression":
			dynamic = true
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			visit(node.Child(i))
		}
	}
	visit(root)

	if dynamic {
		t.unit.HasDynamicClassExpr = true
		t.unit.Refs = append(t.unit.Refs, Reference{
			Kind:       RefCssClass,
			Confidence: Dynamic,
			Location:   t.block.Loc(valueNode),
		})
	}
}

// extractExpressionRefs records identifier usages inside a directive or
// event-handler expression.
func (t *templateExtractor) extractExpressionRefs(valueNode *sitter.Node) {
	exprBlock, root, done, ok := t.parseExpression(valueNode)
	if !ok {
		return
	}
	defer done()

	e := &scriptExtractor{block: exprBlock, unit: t.unit}
	e.walk(root)
}

func (t *templateExtractor) extractInterpolations(text *sitter.Node) {
	raw := t.block.Text(text)
	for _, match := range interpolationRE.FindAllStringSubmatchIndex(raw, -1) {
		expr := raw[match[2]:match[3]]
		startRow := int(text.StartPosition().Row) + strings.Count(raw[:match[2]], "\n")

		sub, err := t.parser.parse(LangJavaScript, []byte(expr))
		if err != nil {
			continue
		}
		exprBlock := Block{
			Kind:     BlockScript,
			Language: LangJavaScript,
			Root:     sub.RootNode(),
			Source:   []byte(expr),
			Path:     t.block.Path,
			StartRow: t.block.StartRow + startRow,
		}
		e := &scriptExtractor{block: exprBlock, unit: t.unit}
		e.walk(sub.RootNode())
		sub.Close()
	}
}

// parseExpression parses an attribute value as a javascript expression with
// positions anchored at the attribute value node.
func (t *templateExtractor) parseExpression(valueNode *sitter.Node) (Block, *sitter.Node, func(), bool) {
	expr := t.block.Text(valueNode)
	if strings.TrimSpace(expr) == "" {
		return Block{}, nil, nil, false
	}

	sub, err := t.parser.parse(LangJavaScript, []byte(expr))
	if err != nil {
		return Block{}, nil, nil, false
	}

	exprBlock := Block{
		Kind:     BlockScript,
		Language: LangJavaScript,
		Root:     sub.RootNode(),
		Source:   []byte(expr),
		Path:     t.block.Path,
		StartRow: t.block.StartRow + int(valueNode.StartPosition().Row),
		StartCol: int(valueNode.StartPosition().Column),
	}
	return exprBlock, sub.RootNode(), func() { sub.Close() }, true
}

// pascalCase converts a kebab-case component tag to the conventional
// PascalCase binding name ("nav-bar" -> "NavBar", "NavBar" stays put).
func pascalCase(tag string) string {
	parts := strings.Split(tag, "-")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

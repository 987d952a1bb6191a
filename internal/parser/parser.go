// # internal/parser/parser.go
package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type BlockKind string

const (
	BlockScript   BlockKind = "script"
	BlockTemplate BlockKind = "template"
	BlockStyle    BlockKind = "style"
)

// Block is one dialect-tagged subtree handed to extractors and tree
// visitors. StartRow/StartCol map subtree coordinates back to the enclosing
// file for component blocks.
type Block struct {
	Kind     BlockKind
	Language string
	Root     *sitter.Node
	Source   []byte
	Path     string
	StartRow int
	StartCol int
}

// Loc converts a node position inside the block to a file location.
func (b Block) Loc(node *sitter.Node) Location {
	row := int(node.StartPosition().Row)
	col := int(node.StartPosition().Column)
	if row == 0 {
		col += b.StartCol
	}
	return Location{
		File:   b.Path,
		Line:   b.StartRow + row + 1,
		Column: col + 1,
	}
}

func (b Block) Text(node *sitter.Node) string {
	return string(b.Source[node.StartByte():node.EndByte()])
}

// TreeVisitor observes every parsed block before its tree is released.
// The pattern scanner hooks in here; it shares no state with extraction.
type TreeVisitor interface {
	VisitBlock(b Block)
}

type Parser struct {
	loader *GrammarLoader
}

func NewParser(loader *GrammarLoader) *Parser {
	return &Parser{loader: loader}
}

// DetectDialect maps a path to the dialect that parses it. The second return
// is false for files the engine does not analyze.
func (p *Parser) DetectDialect(path string) (Dialect, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs", ".ts":
		return DialectScript, true
	case ".vue":
		return DialectComponent, true
	case ".css", ".scss", ".sass":
		return DialectStyle, true
	}
	return "", false
}

// ParseUnit parses one source file into a Unit. A *ParseFailure return means
// the unit must be recorded as skipped; the caller continues with the rest of
// the tree. Visitors run on every successfully parsed block.
func (p *Parser) ParseUnit(path string, content []byte, visitors ...TreeVisitor) (*Unit, error) {
	dialect, ok := p.DetectDialect(path)
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	unit := &Unit{
		Path:     path,
		Dialect:  dialect,
		ParsedAt: time.Now(),
	}

	switch dialect {
	case DialectScript:
		if err := p.parseScriptUnit(unit, content, visitors); err != nil {
			return nil, err
		}
	case DialectStyle:
		if err := p.parseStyleUnit(unit, content, visitors); err != nil {
			return nil, err
		}
	case DialectComponent:
		if err := p.parseComponentUnit(unit, content, visitors); err != nil {
			return nil, err
		}
	}

	return unit, nil
}

func (p *Parser) parseScriptUnit(unit *Unit, content []byte, visitors []TreeVisitor) error {
	lang := LangJavaScript
	if strings.EqualFold(filepath.Ext(unit.Path), ".ts") {
		lang = LangTypeScript
	}

	tree, err := p.parse(lang, content)
	if err != nil {
		return &ParseFailure{Path: unit.Path, Message: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if line, found := firstErrorLine(root); found {
		return &ParseFailure{Path: unit.Path, Line: line, Message: "syntax error"}
	}

	block := Block{Kind: BlockScript, Language: lang, Root: root, Source: content, Path: unit.Path}
	extractScript(block, unit)
	visitAll(visitors, block)
	return nil
}

func (p *Parser) parseStyleUnit(unit *Unit, content []byte, visitors []TreeVisitor) error {
	tree, err := p.parse(LangCSS, content)
	if err != nil {
		return &ParseFailure{Path: unit.Path, Message: err.Error()}
	}
	defer tree.Close()

	// Preprocessor dialects (.scss/.sass) are parsed best-effort with the css
	// grammar: class selectors survive partial error recovery, so error nodes
	// do not skip the unit the way script errors do.
	block := Block{Kind: BlockStyle, Language: LangCSS, Root: tree.RootNode(), Source: content, Path: unit.Path}
	extractStyle(block, unit)
	visitAll(visitors, block)
	return nil
}

func (p *Parser) parseComponentUnit(unit *Unit, content []byte, visitors []TreeVisitor) error {
	tree, err := p.parse(LangHTML, content)
	if err != nil {
		return &ParseFailure{Path: unit.Path, Message: err.Error()}
	}
	defer tree.Close()

	blocks := splitComponent(tree.RootNode(), content)
	if blocks.Script != nil {
		lang := LangJavaScript
		if strings.EqualFold(blocks.ScriptLang, "ts") {
			lang = LangTypeScript
		}
		sub, err := p.parse(lang, blocks.Script.Content)
		if err != nil {
			return &ParseFailure{Path: unit.Path, Line: blocks.Script.StartRow + 1, Message: err.Error()}
		}
		defer sub.Close()

		if line, found := firstErrorLine(sub.RootNode()); found {
			return &ParseFailure{Path: unit.Path, Line: blocks.Script.StartRow + line, Message: "syntax error in script block"}
		}

		block := Block{
			Kind:     BlockScript,
			Language: lang,
			Root:     sub.RootNode(),
			Source:   blocks.Script.Content,
			Path:     unit.Path,
			StartRow: blocks.Script.StartRow,
			StartCol: blocks.Script.StartCol,
		}
		extractScript(block, unit)
		visitAll(visitors, block)
	}

	if blocks.Template != nil {
		block := Block{
			Kind:     BlockTemplate,
			Language: LangHTML,
			Root:     blocks.Template.Node,
			Source:   content,
			Path:     unit.Path,
		}
		extractTemplate(p, block, unit)
		visitAll(visitors, block)
	}

	for _, styleBlock := range blocks.Styles {
		sub, err := p.parse(LangCSS, styleBlock.Content)
		if err != nil {
			return &ParseFailure{Path: unit.Path, Line: styleBlock.StartRow + 1, Message: err.Error()}
		}
		defer sub.Close()

		block := Block{
			Kind:     BlockStyle,
			Language: LangCSS,
			Root:     sub.RootNode(),
			Source:   styleBlock.Content,
			Path:     unit.Path,
			StartRow: styleBlock.StartRow,
			StartCol: styleBlock.StartCol,
		}
		extractStyle(block, unit)
		visitAll(visitors, block)
	}

	return nil
}

func (p *Parser) parse(lang string, content []byte) (*sitter.Tree, error) {
	pool, err := p.loader.Pool(lang)
	if err != nil {
		return nil, err
	}

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed (%s)", lang)
	}
	return tree, nil
}

func visitAll(visitors []TreeVisitor, block Block) {
	for _, v := range visitors {
		v.VisitBlock(block)
	}
}

// firstErrorLine walks for the first ERROR or MISSING node, returning its
// 1-based line within the parsed source.
func firstErrorLine(root *sitter.Node) (int, bool) {
	if !root.HasError() {
		return 0, false
	}

	var find func(node *sitter.Node) (int, bool)
	find = func(node *sitter.Node) (int, bool) {
		if node.IsError() || node.IsMissing() {
			return int(node.StartPosition().Row) + 1, true
		}
		if !node.HasError() {
			return 0, false
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			if line, ok := find(node.Child(i)); ok {
				return line, ok
			}
		}
		return int(node.StartPosition().Row) + 1, true
	}
	return find(root)
}

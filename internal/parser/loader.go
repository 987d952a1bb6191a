// # internal/parser/loader.go
package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangCSS        = "css"
	LangHTML       = "html"
)

// GrammarLoader owns the tree-sitter grammars for the front-end dialects and
// a parser pool per grammar.
type GrammarLoader struct {
	languages map[string]*sitter.Language
	pools     map[string]*ParserPool
}

func NewGrammarLoader() *GrammarLoader {
	gl := &GrammarLoader{
		languages: make(map[string]*sitter.Language),
		pools:     make(map[string]*ParserPool),
	}

	gl.languages[LangJavaScript] = sitter.NewLanguage(tree_sitter_javascript.Language())
	gl.languages[LangTypeScript] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	gl.languages[LangCSS] = sitter.NewLanguage(tree_sitter_css.Language())
	gl.languages[LangHTML] = sitter.NewLanguage(tree_sitter_html.Language())

	for name, lang := range gl.languages {
		gl.pools[name] = NewParserPool(lang)
	}

	return gl
}

func (gl *GrammarLoader) Language(name string) (*sitter.Language, error) {
	lang, ok := gl.languages[name]
	if !ok {
		return nil, fmt.Errorf("grammar not loaded: %s", name)
	}
	return lang, nil
}

func (gl *GrammarLoader) Pool(name string) (*ParserPool, error) {
	pool, ok := gl.pools[name]
	if !ok {
		return nil, fmt.Errorf("grammar not loaded: %s", name)
	}
	return pool, nil
}

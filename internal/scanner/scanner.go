// # internal/scanner/scanner.go
package scanner

import (
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"nuxtscan/internal/output"
	"nuxtscan/internal/parser"
)

// Scanner matches risky syntactic patterns against parsed blocks. It hooks
// into the parser as a tree visitor, so it sees every tree exactly once,
// during parsing, and shares no state with symbol extraction. Workers parse
// in parallel; the findings slice is the only shared state.
type Scanner struct {
	mu         sync.Mutex
	findings   []output.Finding
	sanitizers map[string]bool
}

// NewScanner takes the allowlist of sanitizing call names that make a raw
// html binding acceptable ("sanitizeHtml", "DOMPurify.sanitize", ...).
func NewScanner(sanitizers []string) *Scanner {
	allow := make(map[string]bool, len(sanitizers))
	for _, s := range sanitizers {
		allow[s] = true
	}
	return &Scanner{sanitizers: allow}
}

// Findings returns the matches sorted for the reporter.
func (s *Scanner) Findings() []output.Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	findings := append([]output.Finding(nil), s.findings...)
	output.Sort(findings)
	return findings
}

func (s *Scanner) VisitBlock(block parser.Block) {
	switch block.Kind {
	case parser.BlockScript:
		s.scanScript(block)
	case parser.BlockTemplate:
		s.scanTemplate(block)
	}
}

func (s *Scanner) scanScript(block parser.Block) {
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Kind() {
		case "call_expression":
			s.checkCall(block, node)
		case "new_expression":
			s.checkNewFunction(block, node)
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(block.Root)
}

func (s *Scanner) checkCall(block parser.Block, call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return
	}

	switch block.Text(fn) {
	case "eval":
		s.report(output.SeverityCritical, block.Loc(call),
			"eval() executes arbitrary strings as code")

	case "Function":
		// Function("...") without new still compiles its argument.
		s.report(output.SeverityCritical, block.Loc(call),
			"Function() constructor executes arbitrary strings as code")

	case "setTimeout", "setInterval":
		s.checkTimer(block, fn, call)
	}
}

func (s *Scanner) checkNewFunction(block parser.Block, node *sitter.Node) {
	ctor := node.ChildByFieldName("constructor")
	if ctor != nil && ctor.Kind() == "identifier" && block.Text(ctor) == "Function" {
		s.report(output.SeverityCritical, block.Loc(node),
			"new Function() executes arbitrary strings as code")
	}
}

// checkTimer flags timer calls whose callback is not clearly a function:
// a string literal first argument is implicit eval, and any other
// non-function, non-identifier expression is suspicious enough to report.
func (s *Scanner) checkTimer(block parser.Block, fn, call *sitter.Node) {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return
	}

	var first *sitter.Node
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if child.IsNamed() {
			first = child
			break
		}
	}
	if first == nil {
		return
	}

	name := block.Text(fn)
	switch first.Kind() {
	case "string", "template_string":
		s.report(output.SeverityMedium, block.Loc(call),
			fmt.Sprintf("%s with a string argument is implicit eval", name))
	case "arrow_function", "function_expression", "identifier", "member_expression":
		// Function literal or a reference presumed to be one.
	default:
		s.report(output.SeverityMedium, block.Loc(call),
			fmt.Sprintf("%s first argument is not a function", name))
	}
}

// scanTemplate flags v-html bindings. The check is purely syntactic: the
// binding passes only when its expression is a direct call to an allowlisted
// sanitizer.
func (s *Scanner) scanTemplate(block parser.Block) {
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node.Kind() == "attribute" {
			s.checkRawHTML(block, node)
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(block.Root)
}

func (s *Scanner) checkRawHTML(block parser.Block, attr *sitter.Node) {
	name, value := parser.AttributeParts(attr, block.Source)
	if name != "v-html" {
		return
	}
	if s.sanitized(value) {
		return
	}
	s.report(output.SeverityHigh, block.Loc(attr),
		"v-html renders unsanitized markup (XSS)")
}

// sanitized reports whether the expression is a call whose callee is on the
// sanitizer allowlist, e.g. "DOMPurify.sanitize(userInput)".
func (s *Scanner) sanitized(expr string) bool {
	expr = strings.TrimSpace(expr)
	open := strings.IndexByte(expr, '(')
	if open <= 0 || !strings.HasSuffix(expr, ")") {
		return false
	}
	return s.sanitizers[strings.TrimSpace(expr[:open])]
}

func (s *Scanner) report(severity output.Severity, loc parser.Location, desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, output.Finding{
		Category:    output.CategoryVulnerability,
		Severity:    severity,
		File:        loc.File,
		Line:        loc.Line,
		Description: desc,
	})
}

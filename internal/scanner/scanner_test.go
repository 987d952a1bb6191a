// # internal/scanner/scanner_test.go
package scanner

import (
	"testing"

	"nuxtscan/internal/output"
	"nuxtscan/internal/parser"
)

func scan(t *testing.T, path, src string) []output.Finding {
	t.Helper()
	s := NewScanner([]string{"sanitizeHtml", "DOMPurify.sanitize", "$sanitize"})
	p := parser.NewParser(parser.NewGrammarLoader())
	if _, err := p.ParseUnit(path, []byte(src), s); err != nil {
		t.Fatalf("ParseUnit failed: %v", err)
	}
	return s.Findings()
}

func TestScanner_EvalIsCritical(t *testing.T) {
	findings := scan(t, "danger.js", `eval("some code")`)
	if len(findings) != 1 {
		t.Fatalf("expected exactly 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Category != output.CategoryVulnerability || f.Severity != output.SeverityCritical {
		t.Errorf("finding = %+v", f)
	}
	if f.Line != 1 {
		t.Errorf("line = %d, want 1", f.Line)
	}
}

func TestScanner_NewFunctionIsCritical(t *testing.T) {
	findings := scan(t, "danger.js", `const fn = new Function("return 1")`)
	if len(findings) != 1 || findings[0].Severity != output.SeverityCritical {
		t.Fatalf("findings = %+v", findings)
	}
}

func TestScanner_TimerArguments(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want int
	}{
		{"function ref is clean", `setTimeout(someFunctionRef, 1000)`, 0},
		{"arrow is clean", `setTimeout(() => tick(), 1000)`, 0},
		{"member ref is clean", `setInterval(obj.poll, 5000)`, 0},
		{"string literal is implicit eval", `setTimeout("someFunctionRef()", 1000)`, 1},
		{"interval string", `setInterval("tick()", 50)`, 1},
		{"call result is suspicious", `setTimeout(makeHandler(), 1000)`, 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			findings := scan(t, "timers.js", c.src)
			if len(findings) != c.want {
				t.Fatalf("got %d findings, want %d: %+v", len(findings), c.want, findings)
			}
			if c.want == 1 && findings[0].Severity != output.SeverityMedium {
				t.Errorf("severity = %s, want medium", findings[0].Severity)
			}
		})
	}
}

func TestScanner_RawHTMLBinding(t *testing.T) {
	unsafe := `<template>
  <div v-html="userContent"></div>
</template>
`
	findings := scan(t, "unsafe.vue", unsafe)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(findings), findings)
	}
	if findings[0].Severity != output.SeverityHigh {
		t.Errorf("severity = %s, want high", findings[0].Severity)
	}
	if findings[0].Line != 2 {
		t.Errorf("line = %d, want 2", findings[0].Line)
	}
}

func TestScanner_SanitizedRawHTMLAllowed(t *testing.T) {
	safe := `<template>
  <div v-html="DOMPurify.sanitize(userContent)"></div>
  <div v-html="sanitizeHtml(comment)"></div>
</template>
`
	findings := scan(t, "safe.vue", safe)
	if len(findings) != 0 {
		t.Fatalf("sanitized bindings flagged: %+v", findings)
	}
}

func TestScanner_ComponentScriptBlock(t *testing.T) {
	src := `<template><div /></template>
<script>
eval(payload)
</script>
`
	findings := scan(t, "page.vue", src)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Line != 3 {
		t.Errorf("line = %d, want 3", findings[0].Line)
	}
}

func TestScanner_CleanSourceNoFindings(t *testing.T) {
	findings := scan(t, "clean.js", `
const handler = () => {}
setTimeout(handler, 10)
export function run() { return handler }
`)
	if len(findings) != 0 {
		t.Fatalf("clean source produced findings: %+v", findings)
	}
}

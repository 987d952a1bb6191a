// # cmd/nuxtscan/app_test.go
package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nuxtscan/internal/config"
	"nuxtscan/internal/output"
)

// writeProject lays out a small framework-shaped project tree.
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"pages/index.vue": `<template>
  <div class="title">
    <NavBar />
  </div>
</template>

<script>
import NavBar from '../components/NavBar.vue'
import { used } from '~/utils/math'

const total = used + 1
const abandoned = 99

export default { name: 'IndexPage' }
</script>
`,
		"components/NavBar.vue": `<template>
  <nav class="nav">menu</nav>
</template>

<script>
export default { name: 'NavBar' }
</script>

<style>
.nav { display: flex; }
.nav-hidden { display: none; }
</style>
`,
		"utils/math.js": `export const used = 2
export const neverUsed = 3
`,
		"assets/global.css": `.title { font-weight: bold; }
.orphan { color: pink; }
`,
		"scripts/legacy.js": `eval(payload)
setTimeout("tick()", 50)
console.log("leftover")
`,
		"package.json": `{
  "dependencies": {
    "vue": "^3.4.0",
    "lodash": "^4.17.21"
  }
}`,
	}

	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func newTestApp(t *testing.T, root, mode string) (*App, *config.Config) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Root = root
	require.NoError(t, cfg.Validate())

	app, err := NewApp(cfg, mode)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app, cfg
}

func TestRun_CleanMode(t *testing.T) {
	root := writeProject(t)
	app, _ := newTestApp(t, root, ModeClean)

	result, err := app.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, result.UnitCount)
	require.Zero(t, result.SkippedCount)

	counts := output.CountByCategory(result.Findings)

	require.NotZero(t, counts[output.CategoryUnusedExport], "neverUsed should be dead")
	require.NotZero(t, counts[output.CategoryUnusedCssClass], "orphan and nav-hidden should be dead")
	require.Equal(t, 1, counts[output.CategoryUnusedPackage], "lodash is declared but unimported")
	require.NotZero(t, counts[output.CategoryConsoleCall])
	require.Zero(t, counts[output.CategoryVulnerability], "clean mode excludes the pattern scanner")
	require.Zero(t, counts[output.CategoryUnresolvedImport])

	// Symbols referenced from the entry page stay out of the report.
	for _, f := range result.Findings {
		require.NotContains(t, f.Description, `"used"`, "imported export reported: %+v", f)
		require.NotContains(t, f.Description, `"title"`)
		require.NotContains(t, f.Description, `"nav"`)
	}
}

func TestRun_CleanMode_ReportsUnusedVariable(t *testing.T) {
	root := writeProject(t)
	app, _ := newTestApp(t, root, ModeClean)

	result, err := app.Run(context.Background())
	require.NoError(t, err)

	found := false
	for _, f := range result.Findings {
		if f.Category == output.CategoryUnusedVariable && strings.Contains(f.Description, "abandoned") {
			found = true
			require.Equal(t, "pages/index.vue", f.File)
		}
	}
	require.True(t, found, "abandoned variable not reported")
}

func TestRun_VulnMode(t *testing.T) {
	root := writeProject(t)
	app, _ := newTestApp(t, root, ModeVuln)

	result, err := app.Run(context.Background())
	require.NoError(t, err)

	counts := output.CountByCategory(result.Findings)
	require.Equal(t, 2, counts[output.CategoryVulnerability], "eval + string timer")
	require.Zero(t, counts[output.CategoryUnusedExport], "vuln mode excludes dead-code reporting")
	require.Zero(t, counts[output.CategoryUnusedPackage])

	severities := output.CountBySeverity(result.Findings)
	require.Equal(t, 1, severities[output.SeverityCritical])
	require.Equal(t, 1, severities[output.SeverityMedium])
}

func TestRun_WritesCSVReport(t *testing.T) {
	root := writeProject(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Root = root
	cfg.Output.CSV = filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, cfg.Validate())

	app, err := NewApp(cfg, ModeClean)
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Output.CSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Equal(t, "Category,Severity,File,Line,Description", lines[0])
	require.Greater(t, len(lines), 1)
}

func TestRun_ParseErrorDoesNotAbort(t *testing.T) {
	root := writeProject(t)
	broken := filepath.Join(root, "utils", "broken.js")
	require.NoError(t, os.WriteFile(broken, []byte("const x = {{{"), 0o644))

	app, _ := newTestApp(t, root, ModeClean)
	result, err := app.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.SkippedCount)

	counts := output.CountByCategory(result.Findings)
	require.Equal(t, 1, counts[output.CategoryParseError])
	// The rest of the tree still produced findings.
	require.NotZero(t, counts[output.CategoryUnusedExport])
}

func TestRun_Idempotent(t *testing.T) {
	root := writeProject(t)
	app, _ := newTestApp(t, root, ModeClean)

	first, err := app.Run(context.Background())
	require.NoError(t, err)
	second, err := app.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, first.Findings, second.Findings)
}

func TestDiscoverUnits_SkipsExcludedDirs(t *testing.T) {
	root := writeProject(t)
	nested := filepath.Join(root, "node_modules", "dep")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "index.js"), []byte("export const x = 1"), 0o644))

	app, _ := newTestApp(t, root, ModeClean)
	files, err := app.discoverUnits()
	require.NoError(t, err)

	for _, f := range files {
		require.NotContains(t, f, "node_modules")
	}
}

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluralizeCount(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{count: 0, want: "0 issues"},
		{count: 1, want: "1 issue"},
		{count: 2, want: "2 issues"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, pluralizeCount(tt.count, "issue", "issues"))
		})
	}
}

func TestPrintDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{w: &buf, printSource: true}

	r.PrintDiagnostics([]Diagnostic{
		{Severity: SeverityWarning, Source: "loader", Text: "dropped unsupported config value", Path: "b.js", Key: "plugins.0"},
		{Severity: SeverityInfo, Source: "pipeline", Text: "no tailwind config found"},
		{Severity: SeverityError, Source: "inject", Text: "invalid literal: middle"},
		{Severity: SeverityWarning, Text: "failed to load config", Path: "a.json"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"error: invalid literal: middle (inject)",
		"warning: a.json: failed to load config",
		"warning: b.js: plugins.0: dropped unsupported config value (loader)",
		"info: no tailwind config found (pipeline)",
	}, lines)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{w: &buf}

	r.PrintSummary(Summary{
		ConfigPaths:    []string{"layer/tailwind.config.ts", "tailwind.config.js"},
		ContentGlobs:   18,
		Modules:        4,
		FilesWritten:   3,
		FilesUnchanged: 2,
		CSSEntry:       "assets/css/tailwind.css",
		CSSDefault:     true,
		Diagnostics: []Diagnostic{
			{Severity: SeverityError, Text: "x"},
			{Severity: SeverityWarning, Text: "y"},
			{Severity: SeverityWarning, Text: "z"},
			{Severity: SeverityInfo, Text: "ignored"},
		},
	})

	assert.Equal(t, `✓ Tailwind config resolved
  Config files: 2
    - layer/tailwind.config.ts
    - tailwind.config.js
  Content globs: 18
  Modules: 4
  Files written: 3 (2 unchanged)
  CSS entry: assets/css/tailwind.css (generated)

3 issues (1 error, 2 warnings)
`, buf.String())
}

func TestPrintSummary_NoConfig(t *testing.T) {
	var buf bytes.Buffer
	(&Reporter{w: &buf}).PrintSummary(Summary{ContentGlobs: 9})

	out := buf.String()
	assert.Contains(t, out, "Config files: none (defaults)")
	assert.NotContains(t, out, "Modules:")
	assert.NotContains(t, out, "issue")
}

func TestPrintModules(t *testing.T) {
	var buf bytes.Buffer
	PrintModules(&buf, []ModuleRow{
		{Module: "#tailwind-config/theme/colors", Kind: "leaf", Exports: 3},
		{Module: "#tailwind-config", Kind: "root", Exports: 2},
	})

	out := buf.String()
	assert.Contains(t, out, "MODULE")
	assert.Contains(t, out, "#tailwind-config/theme/colors")
	assert.Contains(t, out, "leaf")
	assert.Contains(t, out, "(2 modules)")

	buf.Reset()
	PrintModules(&buf, nil)
	assert.Equal(t, "(0 modules)\n", buf.String())
}

func TestRenderStyle_NoColors(t *testing.T) {
	assert.Equal(t, "plain", RenderStyle(StyleRed, "plain", false))
}

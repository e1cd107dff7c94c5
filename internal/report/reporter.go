// Package report renders build results for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Severity levels of a diagnostic.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Diagnostic is one problem reported while building the config.
type Diagnostic struct {
	Severity string `json:"severity"`
	Source   string `json:"source"` // component that reported it, e.g. "loader"
	Text     string `json:"text"`
	Path     string `json:"path,omitempty"`
	Key      string `json:"key,omitempty"` // dotted config key, if any
}

// Summary is what a build produced.
type Summary struct {
	ConfigPaths    []string
	ContentGlobs   int
	Modules        int
	FilesWritten   int
	FilesUnchanged int
	CSSEntry       string
	CSSDefault     bool
	Diagnostics    []Diagnostic
}

// Config controls reporter output.
type Config struct {
	UseColors   bool
	PrintSource bool
}

// Reporter writes diagnostics and summaries.
type Reporter struct {
	w           io.Writer
	useColors   bool
	printSource bool
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer, config Config) *Reporter {
	return &Reporter{
		w:           w,
		useColors:   shouldUseColors(config),
		printSource: config.PrintSource,
	}
}

// shouldUseColors determines if colors should be enabled
func shouldUseColors(config Config) bool {
	// Explicit flag wins
	if config.UseColors {
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}

	// Auto-detect TTY
	if fileInfo, err := os.Stdout.Stat(); err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		return true
	}
	return false
}

// UseColors returns whether colors are enabled
func (r *Reporter) UseColors() bool {
	return r.useColors
}

// PrintDiagnostics writes one line per diagnostic, errors first, then by
// path.
func (r *Reporter) PrintDiagnostics(diags []Diagnostic) {
	sorted := append([]Diagnostic(nil), diags...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ri, rj := severityRank(sorted[i].Severity), severityRank(sorted[j].Severity); ri != rj {
			return ri < rj
		}
		return sorted[i].Path < sorted[j].Path
	})
	for _, d := range sorted {
		r.printDiagnostic(d)
	}
}

// printDiagnostic formats a single diagnostic.
// Format: [path: ][key: ]text [(source)]
func (r *Reporter) printDiagnostic(d Diagnostic) {
	style := StyleGray
	switch d.Severity {
	case SeverityError:
		style = StyleRed
	case SeverityWarning:
		style = StyleYellow
	}

	line := RenderStyle(style, d.Severity+":", r.useColors)
	if d.Path != "" {
		line += " " + RenderStyle(StyleCyan, d.Path+":", r.useColors)
	}
	if d.Key != "" {
		line += " " + d.Key + ":"
	}
	line += " " + d.Text
	if r.printSource && d.Source != "" {
		line += RenderStyle(StyleGray, " ("+d.Source+")", r.useColors)
	}
	fmt.Fprintln(r.w, line)
}

func severityRank(s string) int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// PrintSummary writes what the build produced followed by a count of
// diagnostics.
func (r *Reporter) PrintSummary(s Summary) {
	fmt.Fprintln(r.w, RenderStyle(StyleGreen, "✓ Tailwind config resolved", r.useColors))

	if len(s.ConfigPaths) == 0 {
		fmt.Fprintln(r.w, "  Config files: none (defaults)")
	} else {
		fmt.Fprintf(r.w, "  Config files: %d\n", len(s.ConfigPaths))
		for _, p := range s.ConfigPaths {
			fmt.Fprintf(r.w, "    - %s\n", p)
		}
	}
	fmt.Fprintf(r.w, "  Content globs: %d\n", s.ContentGlobs)
	if s.Modules > 0 {
		fmt.Fprintf(r.w, "  Modules: %d\n", s.Modules)
	}
	if s.FilesWritten+s.FilesUnchanged > 0 {
		fmt.Fprintf(r.w, "  Files written: %d (%d unchanged)\n", s.FilesWritten, s.FilesUnchanged)
	}
	if s.CSSEntry != "" {
		entry := s.CSSEntry
		if s.CSSDefault {
			entry += " (generated)"
		}
		fmt.Fprintf(r.w, "  CSS entry: %s\n", entry)
	}

	var errors, warnings int
	for _, d := range s.Diagnostics {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	if errors+warnings == 0 {
		return
	}

	fmt.Fprintln(r.w, "")
	if errors > 0 && warnings > 0 {
		fmt.Fprintf(r.w, "%s (%s, %s)\n",
			pluralizeCount(errors+warnings, "issue", "issues"),
			pluralizeCount(errors, "error", "errors"),
			pluralizeCount(warnings, "warning", "warnings"))
	} else {
		fmt.Fprintf(r.w, "%s\n", pluralizeCount(errors+warnings, "issue", "issues"))
	}
}

// pluralizeCount returns a formatted string with count and singular/plural form
func pluralizeCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

package twconfig

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/yacobolo/twconfig/internal/report"
	"github.com/yacobolo/twconfig/internal/tree"
)

// OutputFormat selects how a build result is printed.
type OutputFormat string

// Output formats
const (
	OutputSummary  OutputFormat = "summary" // counts and diagnostics (default)
	OutputModules  OutputFormat = "modules" // table of exposed modules
	OutputResolved OutputFormat = "config"  // resolved config as JSON
	OutputJSON     OutputFormat = "json"    // machine-readable report
	OutputNone     OutputFormat = "none"
)

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	UseColors   bool
	PrintSource bool // show the reporting component after each diagnostic
}

// DetermineOutputFormat selects the output format from flags.
func DetermineOutputFormat(formatFlag string, quiet bool) OutputFormat {
	// Explicit -quiet flag wins
	if quiet {
		return OutputNone
	}

	switch formatFlag {
	case "summary":
		return OutputSummary
	case "modules", "table":
		return OutputModules
	case "config":
		return OutputResolved
	case "json":
		return OutputJSON
	default:
		// Unknown or empty format falls back to the default
		return OutputSummary
	}
}

// WriteOutput writes result in the given format.
func WriteOutput(w io.Writer, result *Result, format OutputFormat, config OutputConfig) error {
	switch format {
	case OutputNone:
		return nil

	case OutputSummary:
		reporter := report.NewReporter(w, report.Config{UseColors: config.UseColors, PrintSource: config.PrintSource})
		reporter.PrintDiagnostics(result.Diagnostics)
		if len(result.Diagnostics) > 0 {
			fmt.Fprintln(w, "")
		}
		reporter.PrintSummary(result.summary())
		return nil

	case OutputModules:
		report.PrintModules(w, result.moduleRows())
		return nil

	case OutputResolved:
		body, err := tree.EncodeIndent(tree.StripFuncs(result.Resolved), "  ")
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_, err = fmt.Fprintln(w, body)
		return err

	case OutputJSON:
		return WriteJSON(w, result)

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func (r *Result) summary() report.Summary {
	s := report.Summary{
		ContentGlobs: len(r.ContentGlobs),
		CSSEntry:     relTo(r.RootDir, r.CSSFile),
		CSSDefault:   r.CSSEntry.Default,
		Diagnostics:  r.Diagnostics,
	}
	for _, p := range r.ConfigPaths {
		s.ConfigPaths = append(s.ConfigPaths, relTo(r.RootDir, p))
	}
	if r.Graph != nil {
		s.Modules = len(r.Graph.Modules)
	}
	for _, f := range r.Files {
		if f.Changed {
			s.FilesWritten++
		} else {
			s.FilesUnchanged++
		}
	}
	return s
}

func (r *Result) moduleRows() []report.ModuleRow {
	if r.Graph == nil {
		return nil
	}
	rows := make([]report.ModuleRow, len(r.Graph.Modules))
	for i, m := range r.Graph.Modules {
		name := r.Graph.Alias
		if m.Subpath != "" {
			name += "/" + m.Subpath
		}
		rows[i] = report.ModuleRow{Module: name, Kind: m.Kind.String(), Exports: len(m.Exports)}
	}
	return rows
}

func relTo(root, p string) string {
	if p == "" || root == "" || !filepath.IsAbs(p) {
		return p
	}
	if r, err := filepath.Rel(root, p); err == nil {
		return r
	}
	return p
}

package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// ModuleRow is one generated module in a listing.
type ModuleRow struct {
	Module  string
	Kind    string
	Exports int
}

// PrintModules renders the generated modules as a table.
func PrintModules(w io.Writer, rows []ModuleRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 modules)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Module", "Kind", "Exports"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Module, r.Kind, r.Exports})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d modules)\n", len(rows))
}

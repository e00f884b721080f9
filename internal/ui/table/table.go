// Package table is the terminal front end of a grid. It runs an
// interactive viewer (sorting, column filters, quick filter, column
// visibility and resizing, pagination, clipboard yank) on a TTY and falls
// back to the export writers when output is piped.
package table

import (
	"io"
	"os"

	"github.com/imgajeed76/pgrid/internal/export"
	"github.com/imgajeed76/pgrid/internal/grid"
	"golang.org/x/term"
)

// DisplayOptions controls how a grid is shown.
type DisplayOptions struct {
	// Format prints the filtered rows in this format instead of starting
	// the viewer.
	Format export.Format
	// NoPager forces plain table output even on a TTY.
	NoPager bool
	// ExportFormat is the format the viewer's export key writes.
	ExportFormat export.Format
	// Out defaults to os.Stdout.
	Out io.Writer
}

// Display picks the right output mode based on options and environment,
// then renders g.
func Display[T any](g *grid.Grid[T], opts DisplayOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	if opts.Format != "" {
		return export.Write(out, opts.Format, g.Snapshot(grid.ExportFiltered))
	}

	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	if !isTTY || opts.NoPager {
		return export.Write(out, export.FormatPlain, g.Snapshot(grid.ExportFiltered))
	}

	return RunTableTUI(g, out, opts.ExportFormat)
}

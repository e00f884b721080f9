package grid

import (
	"errors"
	"fmt"
	"io"

	"github.com/imgajeed76/pgrid/internal/export"
	"github.com/imgajeed76/pgrid/internal/metrics"
)

// ErrExportDisabled is returned when a format is not enabled in
// ExportOptions.
var ErrExportDisabled = errors.New("export format not enabled")

// ExportMode picks which rows a snapshot contains.
type ExportMode int

const (
	// ExportFiltered exports every row that passes the filters, in sort
	// order, across all pages.
	ExportFiltered ExportMode = iota
	// ExportAll exports every input row in input order.
	ExportAll
)

// Snapshot captures the visible columns' rendered text for mode.
func (g *Grid[T]) Snapshot(mode ExportMode) export.Snapshot {
	var rows []T
	if mode == ExportAll {
		rows = g.rows
	} else {
		rows = Values(g.proj.Filtered)
	}

	visible := g.VisibleColumns()
	snap := export.Snapshot{
		Title:  g.opts.Title,
		Header: make([]string, len(visible)),
		Body:   make([][]string, len(rows)),
		Widths: g.Widths(),
	}
	for i, c := range visible {
		snap.Header[i] = c.Label()
	}
	for i, r := range rows {
		line := make([]string, len(visible))
		for j, c := range visible {
			line[j] = c.CellOf(r).Text
		}
		snap.Body[i] = line
	}
	if footer := footerRow(visible, rows); footer != nil {
		snap.Footer = make([]string, len(footer))
		for i, c := range footer {
			snap.Footer[i] = c.Text
		}
	}
	return snap
}

// FileName returns the export file name for format.
func (g *Grid[T]) FileName(f export.Format) string {
	return export.FileName(g.opts.Export.FileName, f)
}

// CanExport reports whether format f is enabled for this grid.
func (g *Grid[T]) CanExport(f export.Format) bool {
	return g.opts.Export.Allows(f)
}

// Export writes the filtered rows in format f to w. Writer failures are
// returned as is; the grid does not retry.
func (g *Grid[T]) Export(w io.Writer, f export.Format) error {
	if !g.CanExport(f) {
		return fmt.Errorf("%s: %w", f, ErrExportDisabled)
	}
	err := export.Write(w, f, g.Snapshot(ExportFiltered))
	metrics.ObserveExport(string(f), err)
	if err != nil {
		g.log.Error().Err(err).Str("format", string(f)).Msg("export failed")
	}
	return err
}

// Package grid is a generic data-grid engine. A Grid turns a slice of
// typed records into a sortable, filterable, paginated table with
// user-adjustable columns, keeps its view state in a viewstate.Store,
// mirrors that state to durable storage when given a storage key, and
// produces export snapshots of what the user sees.
//
// A Grid has a single writer and is not safe for concurrent use.
package grid

import (
	"context"
	"strconv"
	"time"

	"github.com/imgajeed76/pgrid/internal/export"
	"github.com/imgajeed76/pgrid/internal/metrics"
	"github.com/imgajeed76/pgrid/internal/persist"
	"github.com/imgajeed76/pgrid/internal/viewstate"
	"github.com/rs/zerolog"
)

// PaginationOptions configures the initial page size and the selector.
type PaginationOptions struct {
	PageSize        int
	PageSizeOptions []int
}

// ExportOptions enables the document exports. Text formats (plain, JSON,
// TSV) are always available; XLSX and PDF need Enabled plus their flag.
// The zero value therefore allows text formats only; start from
// DefaultExportOptions to offer every format.
type ExportOptions struct {
	Enabled  bool
	FileName string
	PDF      bool
	Excel    bool
}

// DefaultExportOptions allows every format under export.DefaultFileName.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{Enabled: true, FileName: export.DefaultFileName, PDF: true, Excel: true}
}

// Allows reports whether format may be exported.
func (o ExportOptions) Allows(f export.Format) bool {
	switch f {
	case export.FormatXLSX:
		return o.Enabled && o.Excel
	case export.FormatPDF:
		return o.Enabled && o.PDF
	default:
		return true
	}
}

// Options is everything a caller supplies to build a Grid.
type Options[T any] struct {
	Columns []Column[T]
	Rows    []T
	// RecordCount, when positive, is the authoritative total held by a
	// paginating data source. Rows are then treated as the current page.
	RecordCount int
	Loading     bool
	Title       string
	Pagination  PaginationOptions
	// Export gates the document formats; see DefaultExportOptions.
	Export ExportOptions

	// StorageKey names the grid in Persistence. Empty disables
	// persistence, as does a nil Persistence.
	StorageKey  string
	Persistence *persist.Adapter

	// RowID identifies a row; the default is its input index.
	RowID      func(row T, index int) string
	RowActions func(row T) Cell
	OnRowClick func(row T)

	OnSortingChange      func(sorting []viewstate.SortKey)
	OnFilterChange       func(columnFilters map[string]any, globalFilter string)
	OnPageChange         func(pageIndex int)
	OnPageSizeChange     func(pageSize int)
	OnVisibilityChange   func(visibility map[string]bool)
	OnColumnSizingChange func(sizing map[string]int)

	Logger *zerolog.Logger
}

// Grid is one mounted data grid.
type Grid[T any] struct {
	ctx     context.Context
	opts    Options[T]
	columns []Column[T]
	schema  viewstate.Schema
	store   *viewstate.Store
	filters *FilterPopover
	log     zerolog.Logger

	rows        []T
	recordCount int
	loading     bool
	proj        Projection[T]
}

// New validates the columns, restores persisted view state when keyed, and
// computes the first projection. ctx is used for persistence I/O for the
// lifetime of the grid.
func New[T any](ctx context.Context, opts Options[T]) (*Grid[T], error) {
	if err := ValidateColumns(opts.Columns); err != nil {
		return nil, err
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	g := &Grid[T]{
		ctx:         ctx,
		opts:        opts,
		columns:     append([]Column[T](nil), opts.Columns...),
		log:         log.With().Str("grid", opts.StorageKey).Logger(),
		rows:        opts.Rows,
		recordCount: opts.RecordCount,
		loading:     opts.Loading,
	}
	g.schema = Schema(g.columns)

	initial := viewstate.New(opts.Pagination.PageSize)
	if g.persistent() {
		if p, ok := opts.Persistence.Load(ctx, opts.StorageKey); ok {
			p = opts.Persistence.Reconcile(p, g.schema)
			initial = p.Apply(initial)
			g.log.Debug().Msg("restored view state")
		}
	}

	g.store = viewstate.NewStore(g.schema, initial)
	g.filters = newFilterPopover(g.schema, g.store.State, g.Dispatch)
	if g.persistent() {
		g.store.Subscribe(g.save)
	}
	g.store.Subscribe(g.notify)

	g.refresh()
	return g, nil
}

func (g *Grid[T]) persistent() bool {
	return g.opts.StorageKey != "" && g.opts.Persistence != nil
}

// Dispatch applies a to the view state and recomputes the projection. It
// reports whether anything changed.
func (g *Grid[T]) Dispatch(a viewstate.Action) bool {
	if !g.store.Dispatch(a) {
		return false
	}
	g.log.Debug().Str("action", a.Name()).Msg("dispatch")
	g.refresh()
	return true
}

// refresh recomputes the projection and writes a clamped page index back
// to the store, so the stored page never points past the last page.
func (g *Grid[T]) refresh() {
	start := time.Now()
	g.proj = Project(g.rows, g.columns, g.store.State(), g.recordCount)
	metrics.ObserveProjection(time.Since(start))

	if g.loading {
		return
	}
	if s := g.store.State(); g.proj.PageIndex != s.PageIndex {
		g.log.Debug().Int("requested", s.PageIndex).Int("clamped", g.proj.PageIndex).Msg("page out of range")
		g.store.Dispatch(viewstate.SetPage{Index: g.proj.PageIndex})
	}
}

func (g *Grid[T]) save(c viewstate.Change) {
	if c.PersistedChanged() {
		g.opts.Persistence.SaveState(g.ctx, g.opts.StorageKey, c.Next.Persisted())
	}
	if c.SizingChanged() {
		g.opts.Persistence.SaveSizing(g.ctx, g.opts.StorageKey, c.Next.ColumnSizing)
	}
}

func (g *Grid[T]) notify(c viewstate.Change) {
	o := g.opts
	if o.OnSortingChange != nil && c.SortingChanged() {
		o.OnSortingChange(c.Next.Sorting)
	}
	if o.OnFilterChange != nil && c.FiltersChanged() {
		o.OnFilterChange(c.Next.ColumnFilters, c.Next.GlobalFilter)
	}
	if o.OnPageChange != nil && c.PageChanged() {
		o.OnPageChange(c.Next.PageIndex)
	}
	if o.OnPageSizeChange != nil && c.PageSizeChanged() {
		o.OnPageSizeChange(c.Next.PageSize)
	}
	if o.OnVisibilityChange != nil && c.VisibilityChanged() {
		o.OnVisibilityChange(c.Next.ColumnVisibility)
	}
	if o.OnColumnSizingChange != nil && c.SizingChanged() {
		o.OnColumnSizingChange(c.Next.ColumnSizing)
	}
}

// SetRows replaces the row set, as a paginating data source does after a
// refetch. recordCount follows the same rule as Options.RecordCount.
func (g *Grid[T]) SetRows(rows []T, recordCount int) {
	g.rows = rows
	g.recordCount = recordCount
	g.loading = false
	g.refresh()
}

// SetLoading toggles the loading state.
func (g *Grid[T]) SetLoading(loading bool) {
	g.loading = loading
	if !loading {
		g.refresh()
	}
}

// Loading reports whether the grid is waiting for rows.
func (g *Grid[T]) Loading() bool { return g.loading }

// State returns a copy of the view state.
func (g *Grid[T]) State() viewstate.State { return g.store.State() }

// Projection returns the current projection.
func (g *Grid[T]) Projection() Projection[T] { return g.proj }

// Columns returns every column in display order, hidden ones included.
func (g *Grid[T]) Columns() []Column[T] { return g.columns }

// Column looks a column up by id.
func (g *Grid[T]) Column(id string) (Column[T], bool) {
	for _, c := range g.columns {
		if c.id == id {
			return c, true
		}
	}
	return Column[T]{}, false
}

// VisibleColumns returns the shown columns in display order.
func (g *Grid[T]) VisibleColumns() []Column[T] {
	s := g.store.State()
	var out []Column[T]
	for _, c := range g.columns {
		if s.IsVisible(c.id) {
			out = append(out, c)
		}
	}
	return out
}

// Schema returns the store schema derived from the columns.
func (g *Grid[T]) Schema() viewstate.Schema { return g.schema }

// Filters returns the column filter popover.
func (g *Grid[T]) Filters() *FilterPopover { return g.filters }

// Title returns the configured title.
func (g *Grid[T]) Title() string { return g.opts.Title }

// SetGlobalFilter sets the quick filter.
func (g *Grid[T]) SetGlobalFilter(query string) bool {
	return g.Dispatch(viewstate.SetGlobalFilter{Value: query})
}

// Faceted returns the value counts of columnID over the filtered rows.
func (g *Grid[T]) Faceted(columnID string) (map[string]int, bool) {
	f, ok := g.proj.Faceted[columnID]
	return f, ok
}

// RowID returns the identity of the row at input index.
func (g *Grid[T]) RowID(e Entry[T]) string {
	if g.opts.RowID != nil {
		return g.opts.RowID(e.Row, e.Index)
	}
	return strconv.Itoa(e.Index)
}

// ClickRow invokes OnRowClick for the row at position i of the current
// page. It reports whether a callback ran.
func (g *Grid[T]) ClickRow(i int) bool {
	if g.opts.OnRowClick == nil || g.loading || i < 0 || i >= len(g.proj.Rows) {
		return false
	}
	g.opts.OnRowClick(g.proj.Rows[i].Row)
	return true
}

// ColumnToggle is one entry of the column visibility menu.
type ColumnToggle struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

// VisibilityMenu lists the hideable columns with their visibility.
func (g *Grid[T]) VisibilityMenu() []ColumnToggle {
	s := g.store.State()
	var out []ColumnToggle
	for _, c := range g.columns {
		if c.hideable {
			out = append(out, ColumnToggle{ID: c.id, Label: c.Label(), Visible: s.IsVisible(c.id)})
		}
	}
	return out
}

// ToggleVisibility flips a hideable column between shown and hidden.
func (g *Grid[T]) ToggleVisibility(columnID string) bool {
	visible := g.store.State().IsVisible(columnID)
	return g.Dispatch(viewstate.SetColumnVisibility{ColumnID: columnID, Visible: !visible})
}

// Reset discards every view adjustment and the stored copy of it.
func (g *Grid[T]) Reset() error {
	g.Dispatch(viewstate.ResetView{})
	if g.persistent() {
		return g.opts.Persistence.Reset(g.ctx, g.opts.StorageKey)
	}
	return nil
}

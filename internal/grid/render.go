package grid

// RenderState is the top-level state of the table body.
type RenderState int

const (
	StateLoading RenderState = iota
	StateEmpty
	StatePopulated
)

func (s RenderState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	default:
		return "populated"
	}
}

// EmptyMessage is shown when no rows survive the filters.
const EmptyMessage = "No results."

// RowView is one rendered body row.
type RowView struct {
	ID      string
	Index   int
	Cells   []Cell
	Actions Cell
	Focused bool
	// Dimmed marks the actions of rows that are not focused. It is purely
	// visual; the actions stay usable.
	Dimmed bool
}

// TableView is everything a renderer needs to draw the grid body.
type TableView struct {
	State      RenderState
	Title      string
	Headers    []HeaderView
	Rows       []RowView
	HasActions bool
	// Footer is nil unless a visible column defines a footer.
	Footer  []Cell
	Message string
}

// Table renders the current page. focus is the position of the focused
// row within the page, or -1.
func (g *Grid[T]) Table(focus int) TableView {
	v := TableView{
		Title:      g.opts.Title,
		Headers:    g.Headers(),
		HasActions: g.opts.RowActions != nil,
	}

	switch {
	case g.loading:
		v.State = StateLoading
		return v
	case len(g.proj.Rows) == 0:
		v.State = StateEmpty
		v.Message = EmptyMessage
		return v
	}
	v.State = StatePopulated

	visible := g.VisibleColumns()
	v.Rows = make([]RowView, len(g.proj.Rows))
	for i, e := range g.proj.Rows {
		cells := make([]Cell, len(visible))
		for j, c := range visible {
			cells[j] = c.CellOf(e.Row)
		}
		r := RowView{
			ID:      g.RowID(e),
			Index:   e.Index,
			Cells:   cells,
			Focused: i == focus,
		}
		if g.opts.RowActions != nil {
			r.Actions = g.opts.RowActions(e.Row)
			r.Dimmed = !r.Focused
		}
		v.Rows[i] = r
	}

	v.Footer = footerRow(visible, Values(g.proj.Rows))
	return v
}

// footerRow renders the footer over rows, or nil when no column has one.
func footerRow[T any](columns []Column[T], rows []T) []Cell {
	has := false
	for _, c := range columns {
		if c.HasFooter() {
			has = true
			break
		}
	}
	if !has {
		return nil
	}
	out := make([]Cell, len(columns))
	for i, c := range columns {
		out[i] = c.FooterOf(rows)
	}
	return out
}

package grid

import "github.com/imgajeed76/pgrid/internal/viewstate"

// Sort indicator icons.
const (
	IconUnsorted = "↕"
	IconAsc      = "↑"
	IconDesc     = "↓"
)

// HeaderView is the rendered state of one column header.
type HeaderView struct {
	ID         string
	Label      string
	Sortable   bool
	Sorted     bool
	Desc       bool
	Filterable bool
	Filtered   bool
	Resizable  bool
	Resizing   bool
	// Width includes an in-flight resize drag.
	Width int
}

// Icon returns the sort indicator, or "" for non-sortable columns.
func (h HeaderView) Icon() string {
	switch {
	case !h.Sortable:
		return ""
	case !h.Sorted:
		return IconUnsorted
	case h.Desc:
		return IconDesc
	default:
		return IconAsc
	}
}

// Headers returns the header state of every visible column.
func (g *Grid[T]) Headers() []HeaderView {
	s := g.store.State()
	var out []HeaderView
	for _, c := range g.columns {
		if !s.IsVisible(c.id) {
			continue
		}
		m := c.Meta()
		desc, sorted := s.SortDirection(c.id)
		out = append(out, HeaderView{
			ID:         c.id,
			Label:      c.Label(),
			Sortable:   c.sortable,
			Sorted:     sorted,
			Desc:       desc,
			Filterable: c.filterable,
			Filtered:   s.IsFiltered(c.id),
			Resizable:  c.resizable,
			Resizing:   s.SizingInfo.Active() && s.SizingInfo.ColumnID == c.id,
			Width:      s.LiveWidth(m),
		})
	}
	return out
}

// ClickHeader advances the sort of columnID and clears any other sort.
func (g *Grid[T]) ClickHeader(columnID string) bool {
	return g.Dispatch(viewstate.ToggleSort{ColumnID: columnID})
}

// BeginResize starts dragging the edge of columnID.
func (g *Grid[T]) BeginResize(columnID string) bool {
	return g.Dispatch(viewstate.BeginResize{ColumnID: columnID})
}

// DragResize moves the active drag to delta pixels from where it began.
func (g *Grid[T]) DragResize(delta int) bool {
	return g.Dispatch(viewstate.DragResize{Delta: delta})
}

// EndResize commits the dragged width.
func (g *Grid[T]) EndResize() bool {
	return g.Dispatch(viewstate.EndResize{})
}

// CancelResize abandons the active drag.
func (g *Grid[T]) CancelResize() bool {
	return g.Dispatch(viewstate.CancelResize{})
}

// Widths returns the live width of every visible column, in display order.
func (g *Grid[T]) Widths() []int {
	s := g.store.State()
	var out []int
	for _, c := range g.columns {
		if s.IsVisible(c.id) {
			out = append(out, s.LiveWidth(c.Meta()))
		}
	}
	return out
}

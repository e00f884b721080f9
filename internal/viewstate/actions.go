package viewstate

// Action is a discrete change to a grid's view state. Actions that do not
// apply (sorting a non-sortable column, hiding a column that cannot be
// hidden) leave the state untouched rather than failing.
type Action interface {
	// Name identifies the action in logs and on the wire.
	Name() string
	apply(schema Schema, s *State)
}

// Reduce applies a to a copy of s and returns the result. It never mutates s.
func Reduce(schema Schema, s State, a Action) State {
	next := s.Clone()
	if a != nil {
		a.apply(schema, &next)
	}
	return next
}

// SetSorting replaces the sort order. Keys naming unknown or non-sortable
// columns are dropped, as are repeated keys for the same column.
type SetSorting struct {
	Sorting []SortKey
}

func (SetSorting) Name() string { return "setSorting" }

func (a SetSorting) apply(schema Schema, s *State) {
	seen := make(map[string]bool, len(a.Sorting))
	var keys []SortKey
	for _, k := range a.Sorting {
		m, ok := schema.Lookup(k.ColumnID)
		if !ok || !m.Sortable || seen[k.ColumnID] {
			continue
		}
		seen[k.ColumnID] = true
		keys = append(keys, k)
	}
	s.Sorting = keys
}

// ToggleSort advances one column through unsorted, ascending, descending and
// back to unsorted. Any other column's sort is cleared.
type ToggleSort struct {
	ColumnID string
}

func (ToggleSort) Name() string { return "toggleSort" }

func (a ToggleSort) apply(schema Schema, s *State) {
	m, ok := schema.Lookup(a.ColumnID)
	if !ok || !m.Sortable {
		return
	}
	desc, sorted := s.SortDirection(a.ColumnID)
	switch {
	case !sorted:
		s.Sorting = []SortKey{{ColumnID: a.ColumnID}}
	case !desc:
		s.Sorting = []SortKey{{ColumnID: a.ColumnID, Desc: true}}
	default:
		s.Sorting = nil
	}
}

// SetColumnFilter stores a filter value verbatim. A nil value removes the
// entry, like ClearColumnFilter.
type SetColumnFilter struct {
	ColumnID string
	Value    any
}

func (SetColumnFilter) Name() string { return "setColumnFilter" }

func (a SetColumnFilter) apply(_ Schema, s *State) {
	if a.Value == nil {
		delete(s.ColumnFilters, a.ColumnID)
		return
	}
	s.ColumnFilters[a.ColumnID] = a.Value
}

// ClearColumnFilter removes the filter entry for a column.
type ClearColumnFilter struct {
	ColumnID string
}

func (ClearColumnFilter) Name() string { return "clearColumnFilter" }

func (a ClearColumnFilter) apply(_ Schema, s *State) {
	delete(s.ColumnFilters, a.ColumnID)
}

// SetGlobalFilter sets the quick-filter string.
type SetGlobalFilter struct {
	Value string
}

func (SetGlobalFilter) Name() string { return "setGlobalFilter" }

func (a SetGlobalFilter) apply(_ Schema, s *State) {
	s.GlobalFilter = a.Value
}

// SetColumnVisibility shows or hides a hideable column.
type SetColumnVisibility struct {
	ColumnID string
	Visible  bool
}

func (SetColumnVisibility) Name() string { return "setColumnVisibility" }

func (a SetColumnVisibility) apply(schema Schema, s *State) {
	m, ok := schema.Lookup(a.ColumnID)
	if !ok || !m.Hideable {
		return
	}
	if a.Visible {
		delete(s.ColumnVisibility, a.ColumnID)
		return
	}
	s.ColumnVisibility[a.ColumnID] = false
}

// SetColumnWidth commits a width for a resizable column, clamped to its
// minimum size.
type SetColumnWidth struct {
	ColumnID string
	Width    int
}

func (SetColumnWidth) Name() string { return "setColumnWidth" }

func (a SetColumnWidth) apply(schema Schema, s *State) {
	m, ok := schema.Lookup(a.ColumnID)
	if !ok || !m.Resizable {
		return
	}
	s.ColumnSizing[a.ColumnID] = clampWidth(a.Width, m)
}

// BeginResize starts a drag on a resizable column.
type BeginResize struct {
	ColumnID string
}

func (BeginResize) Name() string { return "beginResize" }

func (a BeginResize) apply(schema Schema, s *State) {
	m, ok := schema.Lookup(a.ColumnID)
	if !ok || !m.Resizable {
		return
	}
	s.SizingInfo = ResizeInfo{ColumnID: a.ColumnID, StartWidth: s.ColumnWidth(m)}
}

// DragResize records the drag offset from where the resize began.
type DragResize struct {
	Delta int
}

func (DragResize) Name() string { return "dragResize" }

func (a DragResize) apply(_ Schema, s *State) {
	if !s.SizingInfo.Active() {
		return
	}
	s.SizingInfo.Delta = a.Delta
}

// EndResize commits the dragged width and clears the drag state. An empty
// ColumnID ends whichever drag is active.
type EndResize struct {
	ColumnID string
}

func (EndResize) Name() string { return "endResize" }

func (a EndResize) apply(schema Schema, s *State) {
	info := s.SizingInfo
	if !info.Active() || (a.ColumnID != "" && a.ColumnID != info.ColumnID) {
		return
	}
	s.SizingInfo = ResizeInfo{}
	if m, ok := schema.Lookup(info.ColumnID); ok {
		s.ColumnSizing[info.ColumnID] = clampWidth(info.StartWidth+info.Delta, m)
	}
}

// CancelResize drops an in-flight drag without committing it.
type CancelResize struct{}

func (CancelResize) Name() string { return "cancelResize" }

func (CancelResize) apply(_ Schema, s *State) {
	s.SizingInfo = ResizeInfo{}
}

// SetPage moves to a 0-based page. Negative indexes become 0; the upper
// bound depends on the row count and is enforced by the projection.
type SetPage struct {
	Index int
}

func (SetPage) Name() string { return "setPage" }

func (a SetPage) apply(_ Schema, s *State) {
	if a.Index < 0 {
		a.Index = 0
	}
	s.PageIndex = a.Index
}

// SetPageSize changes the page size and always returns to page 0. Sizes
// above MaxPageSize are clamped; non-positive sizes are ignored.
type SetPageSize struct {
	Size int
}

func (SetPageSize) Name() string { return "setPageSize" }

func (a SetPageSize) apply(_ Schema, s *State) {
	if a.Size <= 0 {
		return
	}
	s.PageSize = ClampPageSize(a.Size)
	s.PageIndex = 0
}

// ResetView discards every user adjustment and keeps only the page size.
type ResetView struct{}

func (ResetView) Name() string { return "resetView" }

func (ResetView) apply(_ Schema, s *State) {
	*s = New(s.PageSize)
}

package grid

import "github.com/imgajeed76/pgrid/internal/viewstate"

// FilterPopover stages column filter edits. Typing changes only a
// per-column buffer; the committed filter, and therefore the projection,
// changes on Apply or Clear. At most one column is open at a time.
type FilterPopover struct {
	schema   viewstate.Schema
	state    func() viewstate.State
	dispatch func(viewstate.Action) bool

	open    string
	buffers map[string]string
}

func newFilterPopover(schema viewstate.Schema, state func() viewstate.State, dispatch func(viewstate.Action) bool) *FilterPopover {
	return &FilterPopover{
		schema:   schema,
		state:    state,
		dispatch: dispatch,
		buffers:  make(map[string]string),
	}
}

// Open seeds the buffer of columnID from its committed filter and opens
// it, discarding edits in any other open column. It reports false for
// unknown or non-filterable columns.
func (f *FilterPopover) Open(columnID string) bool {
	m, ok := f.schema.Lookup(columnID)
	if !ok || !m.Filterable {
		return false
	}
	if f.open != "" && f.open != columnID {
		f.Close(f.open)
	}
	seed := ""
	if v, ok := f.state().FilterValue(columnID); ok && v != nil {
		seed = filterText(v)
	}
	f.buffers[columnID] = seed
	f.open = columnID
	return true
}

// IsOpen reports whether columnID is the open column.
func (f *FilterPopover) IsOpen(columnID string) bool {
	return f.open != "" && f.open == columnID
}

// OpenColumn returns the open column id, or "".
func (f *FilterPopover) OpenColumn() string { return f.open }

// Type replaces the buffer of the open column. It is ignored when
// columnID is not open.
func (f *FilterPopover) Type(columnID, text string) bool {
	if !f.IsOpen(columnID) {
		return false
	}
	f.buffers[columnID] = text
	return true
}

// Buffer returns the staged text of columnID.
func (f *FilterPopover) Buffer(columnID string) string {
	return f.buffers[columnID]
}

// Apply commits the buffer and closes. An empty buffer removes the filter
// rather than storing an empty string.
func (f *FilterPopover) Apply(columnID string) bool {
	if !f.IsOpen(columnID) {
		return false
	}
	value := f.buffers[columnID]
	f.open = ""
	delete(f.buffers, columnID)
	if value == "" {
		return f.dispatch(viewstate.ClearColumnFilter{ColumnID: columnID})
	}
	return f.dispatch(viewstate.SetColumnFilter{ColumnID: columnID, Value: value})
}

// Clear removes the committed filter, empties the buffer and closes.
func (f *FilterPopover) Clear(columnID string) bool {
	f.buffers[columnID] = ""
	if f.open == columnID {
		f.open = ""
	}
	return f.dispatch(viewstate.ClearColumnFilter{ColumnID: columnID})
}

// Close discards staged edits.
func (f *FilterPopover) Close(columnID string) {
	if f.open == columnID {
		f.open = ""
	}
	delete(f.buffers, columnID)
}

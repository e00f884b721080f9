// Package viewstate owns the user-adjustable parameters of a data grid:
// sorting, column filters, the global quick filter, column visibility,
// column widths and the page cursor.
//
// State is a plain value. Every mutation goes through an Action applied by
// Reduce, and a Store holds the current value for one grid instance and
// notifies subscribers after each dispatch.
package viewstate

import "reflect"

const (
	// DefaultPageSize is used when neither the caller nor persisted state
	// supplies a page size.
	DefaultPageSize = 10

	// MaxPageSize bounds every page size the store accepts, whether
	// dispatched or restored from storage.
	MaxPageSize = 1000

	// DefaultColumnSize and DefaultColumnMinSize are the pixel widths a
	// column gets when its definition leaves them unset.
	DefaultColumnSize    = 150
	DefaultColumnMinSize = 40
)

// DefaultPageSizeOptions is the page-size selector offered when the caller
// does not provide one.
var DefaultPageSizeOptions = []int{5, 10, 20, 50, 100}

// SortKey is one entry of the sort order. The first key is the primary one.
type SortKey struct {
	ColumnID string `json:"id"`
	Desc     bool   `json:"desc"`
}

// ResizeInfo is the frame-local drag state of a column resize. It is never
// persisted.
type ResizeInfo struct {
	ColumnID   string
	StartWidth int
	Delta      int
}

// Active reports whether a resize drag is in progress.
func (r ResizeInfo) Active() bool {
	return r.ColumnID != ""
}

// State is the full view state of one grid.
type State struct {
	Sorting          []SortKey
	ColumnFilters    map[string]any
	GlobalFilter     string
	ColumnVisibility map[string]bool
	ColumnSizing     map[string]int
	SizingInfo       ResizeInfo
	PageIndex        int
	PageSize         int
}

// New returns an empty state with the given page size (DefaultPageSize when
// size is not positive, MaxPageSize when it is larger).
func New(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		ColumnFilters:    map[string]any{},
		ColumnVisibility: map[string]bool{},
		ColumnSizing:     map[string]int{},
		PageSize:         ClampPageSize(pageSize),
	}
}

// ClampPageSize limits a positive size to MaxPageSize.
func ClampPageSize(size int) int {
	return min(size, MaxPageSize)
}

// Clone returns a deep copy. Filter values are copied by reference; the
// engine treats them as opaque and never mutates them.
func (s State) Clone() State {
	out := s
	if s.Sorting != nil {
		out.Sorting = append([]SortKey(nil), s.Sorting...)
	}
	out.ColumnFilters = make(map[string]any, len(s.ColumnFilters))
	for k, v := range s.ColumnFilters {
		out.ColumnFilters[k] = v
	}
	out.ColumnVisibility = make(map[string]bool, len(s.ColumnVisibility))
	for k, v := range s.ColumnVisibility {
		out.ColumnVisibility[k] = v
	}
	out.ColumnSizing = make(map[string]int, len(s.ColumnSizing))
	for k, v := range s.ColumnSizing {
		out.ColumnSizing[k] = v
	}
	return out
}

// Equal reports whether two states are identical, including transient
// resize state.
func Equal(a, b State) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize makes nil and empty collections compare equal.
func normalize(s State) State {
	s = s.Clone()
	if len(s.Sorting) == 0 {
		s.Sorting = nil
	}
	return s
}

// SortDirection returns the direction of columnID in the sort order.
func (s State) SortDirection(columnID string) (desc bool, sorted bool) {
	for _, k := range s.Sorting {
		if k.ColumnID == columnID {
			return k.Desc, true
		}
	}
	return false, false
}

// IsFiltered reports whether a filter entry exists for columnID.
func (s State) IsFiltered(columnID string) bool {
	_, ok := s.ColumnFilters[columnID]
	return ok
}

// FilterValue returns the committed filter value for columnID.
func (s State) FilterValue(columnID string) (any, bool) {
	v, ok := s.ColumnFilters[columnID]
	return v, ok
}

// IsVisible reports whether columnID is shown. Columns are visible unless
// explicitly hidden.
func (s State) IsVisible(columnID string) bool {
	v, ok := s.ColumnVisibility[columnID]
	return !ok || v
}

// ColumnWidth returns the committed width of a column.
func (s State) ColumnWidth(m ColumnMeta) int {
	if w, ok := s.ColumnSizing[m.ID]; ok {
		return clampWidth(w, m)
	}
	return m.size()
}

// LiveWidth returns the width to draw for a column, including an in-flight
// resize drag.
func (s State) LiveWidth(m ColumnMeta) int {
	if s.SizingInfo.Active() && s.SizingInfo.ColumnID == m.ID {
		return clampWidth(s.SizingInfo.StartWidth+s.SizingInfo.Delta, m)
	}
	return s.ColumnWidth(m)
}

func clampWidth(w int, m ColumnMeta) int {
	if lo := m.minSize(); w < lo {
		return lo
	}
	return w
}

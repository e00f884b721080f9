package viewstate

import "reflect"

// Change describes one dispatch that altered the state.
type Change struct {
	Prev   State
	Next   State
	Action Action
}

// SortingChanged reports whether the sort order differs.
func (c Change) SortingChanged() bool {
	return !reflect.DeepEqual(normalize(c.Prev).Sorting, normalize(c.Next).Sorting)
}

// FiltersChanged reports whether column filters or the global filter differ.
func (c Change) FiltersChanged() bool {
	return c.Prev.GlobalFilter != c.Next.GlobalFilter ||
		!reflect.DeepEqual(c.Prev.ColumnFilters, c.Next.ColumnFilters)
}

// VisibilityChanged reports whether column visibility differs.
func (c Change) VisibilityChanged() bool {
	return !reflect.DeepEqual(c.Prev.ColumnVisibility, c.Next.ColumnVisibility)
}

// SizingChanged reports whether committed column widths differ. Drag
// progress alone does not count.
func (c Change) SizingChanged() bool {
	return !reflect.DeepEqual(c.Prev.ColumnSizing, c.Next.ColumnSizing)
}

// PageChanged reports whether the page index differs.
func (c Change) PageChanged() bool {
	return c.Prev.PageIndex != c.Next.PageIndex
}

// PageSizeChanged reports whether the page size differs.
func (c Change) PageSizeChanged() bool {
	return c.Prev.PageSize != c.Next.PageSize
}

// PersistedChanged reports whether anything stored in the state slot differs.
func (c Change) PersistedChanged() bool {
	return c.SortingChanged() || c.FiltersChanged() || c.VisibilityChanged() ||
		c.PageChanged() || c.PageSizeChanged()
}

// Listener is called synchronously after every dispatch that changed state.
type Listener func(Change)

// Store holds the view state of one grid instance. It has a single writer
// and is not safe for concurrent use.
type Store struct {
	schema    Schema
	state     State
	listeners []Listener
}

// NewStore creates a store seeded with initial.
func NewStore(schema Schema, initial State) *Store {
	st := initial.Clone()
	if st.PageSize <= 0 {
		st.PageSize = DefaultPageSize
	}
	return &Store{schema: schema, state: st}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	return s.state.Clone()
}

// Schema returns the column set the store validates actions against.
func (s *Store) Schema() Schema {
	return s.schema
}

// Dispatch applies a and notifies listeners. It reports whether the state
// changed.
func (s *Store) Dispatch(a Action) bool {
	prev := s.state
	next := Reduce(s.schema, prev, a)
	if Equal(prev, next) {
		return false
	}
	s.state = next
	change := Change{Prev: prev.Clone(), Next: next.Clone(), Action: a}
	for _, l := range s.listeners {
		if l != nil {
			l(change)
		}
	}
	return true
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.listeners = append(s.listeners, l)
	idx := len(s.listeners) - 1
	return func() {
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

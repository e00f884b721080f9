package grid

import (
	"cmp"
	"errors"
	"fmt"
	"time"

	"github.com/imgajeed76/pgrid/internal/viewstate"
)

// Cell is the rendered form of a value. Text is what filtering and export
// see; Styled, when set, is what an interactive renderer draws instead.
type Cell struct {
	Text   string
	Styled string
}

// TextCell returns a cell with plain text only.
func TextCell(s string) Cell {
	return Cell{Text: s}
}

// Display returns the styled form when present, else the text.
func (c Cell) Display() string {
	if c.Styled != "" {
		return c.Styled
	}
	return c.Text
}

// Column describes one column of a Grid over rows of type T. Build columns
// with Accessor, TimeAccessor or AccessorFunc, then refine them with the
// chainable setters; each setter returns a modified copy.
type Column[T any] struct {
	id     string
	header string

	// text renders the accessor value with its default format; compare
	// orders two rows by the accessor value.
	text    func(T) string
	compare func(a, b T) int

	render func(T) Cell
	footer func(rows []T) Cell
	filter func(row T, value any) bool

	sortable   bool
	filterable bool
	hideable   bool
	resizable  bool
	size       int
	minSize    int
}

// Accessor builds a column reading an ordered value from each row. Values
// sort with cmp.Compare and render with their default formatting.
func Accessor[T any, V cmp.Ordered](id string, get func(T) V) Column[T] {
	if get == nil {
		return newColumn[T](id, nil, nil)
	}
	return newColumn(id,
		func(row T) string { return formatValue(get(row)) },
		func(a, b T) int { return cmp.Compare(get(a), get(b)) },
	)
}

// TimeAccessor builds a column over a time value, sorting chronologically.
// The default rendering is "2006-01-02 15:04:05"; zero times render empty.
func TimeAccessor[T any](id string, get func(T) time.Time) Column[T] {
	if get == nil {
		return newColumn[T](id, nil, nil)
	}
	return newColumn(id,
		func(row T) string { return formatTime(get(row)) },
		func(a, b T) int { return get(a).Compare(get(b)) },
	)
}

// AccessorFunc builds a column over any value type with an explicit
// comparator and formatter.
func AccessorFunc[T, V any](id string, get func(T) V, compare func(a, b V) int, format func(V) string) Column[T] {
	if get == nil || compare == nil || format == nil {
		return newColumn[T](id, nil, nil)
	}
	return newColumn(id,
		func(row T) string { return format(get(row)) },
		func(a, b T) int { return compare(get(a), get(b)) },
	)
}

func newColumn[T any](id string, text func(T) string, compare func(a, b T) int) Column[T] {
	return Column[T]{
		id:         id,
		text:       text,
		compare:    compare,
		sortable:   true,
		filterable: true,
		hideable:   true,
		resizable:  true,
	}
}

// Header sets the label shown in the header and used as the export title.
func (c Column[T]) Header(label string) Column[T] { c.header = label; return c }

// Render sets a cell renderer. Its Text replaces the default formatting
// everywhere, including filtering and export.
func (c Column[T]) Render(fn func(T) Cell) Column[T] { c.render = fn; return c }

// Footer sets an aggregate rendered below the rows from the rows being
// shown or exported.
func (c Column[T]) Footer(fn func(rows []T) Cell) Column[T] { c.footer = fn; return c }

// FilterFunc replaces the substring match for this column's filter.
func (c Column[T]) FilterFunc(fn func(row T, value any) bool) Column[T] { c.filter = fn; return c }

// Sortable enables or disables sorting.
func (c Column[T]) Sortable(on bool) Column[T] { c.sortable = on; return c }

// Filterable enables or disables column and global filtering.
func (c Column[T]) Filterable(on bool) Column[T] { c.filterable = on; return c }

// Hideable controls whether the user may hide the column.
func (c Column[T]) Hideable(on bool) Column[T] { c.hideable = on; return c }

// Resizable controls whether the user may resize the column.
func (c Column[T]) Resizable(on bool) Column[T] { c.resizable = on; return c }

// Size sets the default and minimum width in pixels. Non-positive values
// keep the defaults.
func (c Column[T]) Size(size, minSize int) Column[T] {
	c.size, c.minSize = size, minSize
	return c
}

// ID returns the column identifier.
func (c Column[T]) ID() string { return c.id }

// Label returns the header label, falling back to the id.
func (c Column[T]) Label() string {
	if c.header != "" {
		return c.header
	}
	return c.id
}

// Meta returns the flags the view-state store validates actions against.
func (c Column[T]) Meta() viewstate.ColumnMeta {
	return viewstate.ColumnMeta{
		ID:         c.id,
		Sortable:   c.sortable,
		Filterable: c.filterable,
		Hideable:   c.hideable,
		Resizable:  c.resizable,
		Size:       c.size,
		MinSize:    c.minSize,
	}
}

// CellOf renders row for this column.
func (c Column[T]) CellOf(row T) Cell {
	if c.render != nil {
		return c.render(row)
	}
	return Cell{Text: c.text(row)}
}

// HasFooter reports whether the column defines a footer aggregate.
func (c Column[T]) HasFooter() bool { return c.footer != nil }

// FooterOf renders the footer over rows. Columns without a footer render
// an empty cell.
func (c Column[T]) FooterOf(rows []T) Cell {
	if c.footer == nil {
		return Cell{}
	}
	return c.footer(rows)
}

// Compare orders two rows by this column's value.
func (c Column[T]) Compare(a, b T) int { return c.compare(a, b) }

// Schema converts column definitions to the store's schema.
func Schema[T any](columns []Column[T]) viewstate.Schema {
	out := make(viewstate.Schema, len(columns))
	for i, c := range columns {
		out[i] = c.Meta()
	}
	return out
}

// ValidateColumns rejects empty or duplicate ids and columns without an
// accessor.
func ValidateColumns[T any](columns []Column[T]) error {
	if len(columns) == 0 {
		return errors.New("grid needs at least one column")
	}
	seen := make(map[string]bool, len(columns))
	var errs []error
	for i, c := range columns {
		switch {
		case c.id == "":
			errs = append(errs, fmt.Errorf("column %d: empty id", i))
		case seen[c.id]:
			errs = append(errs, fmt.Errorf("column %d: duplicate id %q", i, c.id))
		}
		seen[c.id] = true
		if c.text == nil || c.compare == nil {
			errs = append(errs, fmt.Errorf("column %q: missing accessor", c.id))
		}
	}
	return errors.Join(errs...)
}

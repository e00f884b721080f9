package grid

import (
	"fmt"
	"strings"

	"github.com/imgajeed76/pgrid/internal/viewstate"
)

// Entry is a row together with its position in the caller's input.
type Entry[T any] struct {
	Index int
	Row   T
}

// Projection is the filtered, sorted and paginated view of a row set.
type Projection[T any] struct {
	// Rows is the current page.
	Rows []Entry[T]
	// Filtered is every row that passed the filters, sorted, unpaginated.
	Filtered []Entry[T]
	// TotalFiltered is len(Filtered).
	TotalFiltered int
	// Total is the row count pagination is computed from: the caller's
	// record count under manual pagination, TotalFiltered otherwise.
	Total int
	// PageIndex is the effective page after clamping.
	PageIndex int
	PageSize  int
	PageCount int
	// Faceted maps column id to the count of each rendered value among
	// the filtered rows.
	Faceted map[string]map[string]int
}

// Values returns the rows of entries without their indexes.
func Values[T any](entries []Entry[T]) []T {
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.Row
	}
	return out
}

// Project derives the visible rows from rows and state. A recordCount
// above zero switches to manual pagination: rows are taken to be the
// current page already and the count is authoritative for paging.
//
// Stages run in a fixed order: global filter, column filters, stable sort,
// pagination. Project does not modify rows or state.
func Project[T any](rows []T, columns []Column[T], state viewstate.State, recordCount int) Projection[T] {
	byID := make(map[string]*Column[T], len(columns))
	for i := range columns {
		byID[columns[i].id] = &columns[i]
	}

	entries := make([]Entry[T], 0, len(rows))
	for i, r := range rows {
		entries = append(entries, Entry[T]{Index: i, Row: r})
	}

	entries = applyGlobalFilter(entries, columns, state.GlobalFilter)
	entries = applyColumnFilters(entries, state.ColumnFilters, byID)
	sortEntries(entries, state.Sorting, byID)

	p := Projection[T]{
		Filtered:      entries,
		TotalFiltered: len(entries),
		Faceted:       facets(entries, columns),
	}
	paginate(&p, state.PageIndex, state.PageSize, recordCount)
	return p
}

func applyGlobalFilter[T any](entries []Entry[T], columns []Column[T], query string) []Entry[T] {
	if query == "" {
		return entries
	}
	needle := strings.ToLower(query)
	out := entries[:0:0]
	for _, e := range entries {
		for i := range columns {
			c := &columns[i]
			if c.filterable && containsFold(c.CellOf(e.Row).Text, needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func applyColumnFilters[T any](entries []Entry[T], filters map[string]any, byID map[string]*Column[T]) []Entry[T] {
	type active struct {
		col    *Column[T]
		value  any
		needle string
	}
	var checks []active
	for id, v := range filters {
		c, ok := byID[id]
		if !ok || !c.filterable || isEmptyFilter(v) {
			continue
		}
		checks = append(checks, active{col: c, value: v, needle: strings.ToLower(filterText(v))})
	}
	if len(checks) == 0 {
		return entries
	}

	out := entries[:0:0]
	for _, e := range entries {
		keep := true
		for _, f := range checks {
			var ok bool
			if f.col.filter != nil {
				ok = f.col.filter(e.Row, f.value)
			} else {
				ok = containsFold(f.col.CellOf(e.Row).Text, f.needle)
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, e)
		}
	}
	return out
}

func isEmptyFilter(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func filterText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// containsFold reports whether lowerNeedle occurs in s, ignoring case.
func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

func facets[T any](entries []Entry[T], columns []Column[T]) map[string]map[string]int {
	out := make(map[string]map[string]int, len(columns))
	for i := range columns {
		c := &columns[i]
		counts := make(map[string]int)
		for _, e := range entries {
			counts[c.CellOf(e.Row).Text]++
		}
		out[c.id] = counts
	}
	return out
}

func paginate[T any](p *Projection[T], pageIndex, pageSize, recordCount int) {
	if pageSize <= 0 {
		pageSize = viewstate.DefaultPageSize
	}
	manual := recordCount > 0

	p.PageSize = pageSize
	p.Total = p.TotalFiltered
	if manual {
		p.Total = recordCount
	}
	p.PageCount = PageCount(p.Total, pageSize)
	p.PageIndex = min(max(pageIndex, 0), p.PageCount-1)

	if manual {
		p.Rows = p.Filtered
		return
	}
	start := p.PageIndex * pageSize
	end := min(start+pageSize, p.TotalFiltered)
	p.Rows = p.Filtered[start:end]
}

// PageCount is ceil(total/pageSize), never less than 1.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	n := total / pageSize
	if total%pageSize != 0 {
		n++
	}
	return n
}

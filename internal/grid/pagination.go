package grid

import "github.com/imgajeed76/pgrid/internal/viewstate"

// PaginationView describes the pagination control. Page is 1-based;
// PageIndex is the 0-based index the store holds. Its methods build
// actions for the caller to dispatch and never touch state themselves.
type PaginationView struct {
	Page            int
	PageIndex       int
	PageCount       int
	PageSize        int
	PageSizeOptions []int
	Total           int
	// From and To are the 1-based row range on the page, 0 when empty.
	From, To int
	CanPrev  bool
	CanNext  bool
}

// Pagination returns the pagination control for the current projection.
func (g *Grid[T]) Pagination() PaginationView {
	p := g.proj
	opts := g.opts.Pagination.PageSizeOptions
	if len(opts) == 0 {
		opts = viewstate.DefaultPageSizeOptions
	}
	v := PaginationView{
		Page:            p.PageIndex + 1,
		PageIndex:       p.PageIndex,
		PageCount:       p.PageCount,
		PageSize:        p.PageSize,
		PageSizeOptions: opts,
		Total:           p.Total,
		CanPrev:         p.PageIndex > 0,
		CanNext:         p.PageIndex < p.PageCount-1,
	}
	if p.Total > 0 && len(p.Rows) > 0 {
		v.From = p.PageIndex*p.PageSize + 1
		v.To = v.From + len(p.Rows) - 1
	}
	return v
}

// GoTo returns the action for a 1-based page, clamped to the valid range.
func (v PaginationView) GoTo(page int) viewstate.Action {
	page = min(max(page, 1), max(v.PageCount, 1))
	return viewstate.SetPage{Index: page - 1}
}

// Next returns the action for the following page.
func (v PaginationView) Next() viewstate.Action { return v.GoTo(v.Page + 1) }

// Prev returns the action for the preceding page.
func (v PaginationView) Prev() viewstate.Action { return v.GoTo(v.Page - 1) }

// First returns the action for page 1.
func (v PaginationView) First() viewstate.Action { return v.GoTo(1) }

// Last returns the action for the last page.
func (v PaginationView) Last() viewstate.Action { return v.GoTo(v.PageCount) }

// SelectSize returns the action for a new page size.
func (v PaginationView) SelectSize(size int) viewstate.Action {
	return viewstate.SetPageSize{Size: size}
}

// NextSize returns the page-size option after the current one, wrapping.
func (v PaginationView) NextSize() int {
	for i, o := range v.PageSizeOptions {
		if o == v.PageSize {
			return v.PageSizeOptions[(i+1)%len(v.PageSizeOptions)]
		}
	}
	if len(v.PageSizeOptions) > 0 {
		return v.PageSizeOptions[0]
	}
	return v.PageSize
}

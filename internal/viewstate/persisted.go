package viewstate

// Persisted is the durable projection of State. Column widths live in their
// own storage slot and are carried in ColumnSizing, which is excluded from
// the JSON of the state slot. Drag state is never persisted.
type Persisted struct {
	Sorting          []SortKey       `json:"sorting"`
	ColumnFilters    map[string]any  `json:"columnFilters"`
	ColumnVisibility map[string]bool `json:"columnVisibility"`
	PageIndex        int             `json:"pageIndex"`
	PageSize         int             `json:"pageSize"`
	GlobalFilter     string          `json:"globalFilter"`

	ColumnSizing map[string]int `json:"-"`
}

// Persisted returns the durable slices of s.
func (s State) Persisted() Persisted {
	c := s.Clone()
	sorting := c.Sorting
	if sorting == nil {
		sorting = []SortKey{}
	}
	return Persisted{
		Sorting:          sorting,
		ColumnFilters:    c.ColumnFilters,
		ColumnVisibility: c.ColumnVisibility,
		PageIndex:        c.PageIndex,
		PageSize:         c.PageSize,
		GlobalFilter:     c.GlobalFilter,
		ColumnSizing:     c.ColumnSizing,
	}
}

// Apply overlays p on base. Empty collections in p leave base's values
// alone, and a non-positive page size keeps base's size.
func (p Persisted) Apply(base State) State {
	s := base.Clone()
	if p.Sorting != nil {
		s.Sorting = append([]SortKey(nil), p.Sorting...)
	}
	for k, v := range p.ColumnFilters {
		s.ColumnFilters[k] = v
	}
	for k, v := range p.ColumnVisibility {
		s.ColumnVisibility[k] = v
	}
	for k, v := range p.ColumnSizing {
		s.ColumnSizing[k] = v
	}
	s.GlobalFilter = p.GlobalFilter
	if p.PageSize > 0 {
		s.PageSize = ClampPageSize(p.PageSize)
	}
	if p.PageIndex >= 0 {
		s.PageIndex = p.PageIndex
	}
	s.SizingInfo = ResizeInfo{}
	return s
}

// Reconcile drops everything in p that refers to columns outside schema, or
// that the schema no longer permits, keeping the rest. Stored state written
// by an older column set therefore loads partially instead of failing.
func (p Persisted) Reconcile(schema Schema) Persisted {
	out := Persisted{
		GlobalFilter:     p.GlobalFilter,
		PageIndex:        p.PageIndex,
		PageSize:         p.PageSize,
		ColumnFilters:    map[string]any{},
		ColumnVisibility: map[string]bool{},
		ColumnSizing:     map[string]int{},
	}
	if out.PageIndex < 0 {
		out.PageIndex = 0
	}
	if out.PageSize < 0 {
		out.PageSize = 0
	}
	out.PageSize = ClampPageSize(out.PageSize)

	if p.Sorting != nil {
		out.Sorting = Reduce(schema, New(0), SetSorting{Sorting: p.Sorting}).Sorting
		if out.Sorting == nil {
			out.Sorting = []SortKey{}
		}
	}
	for id, v := range p.ColumnFilters {
		if schema.Has(id) && v != nil {
			out.ColumnFilters[id] = v
		}
	}
	for id, v := range p.ColumnVisibility {
		if m, ok := schema.Lookup(id); ok && m.Hideable {
			out.ColumnVisibility[id] = v
		}
	}
	for id, w := range p.ColumnSizing {
		if m, ok := schema.Lookup(id); ok && m.Resizable && w > 0 {
			out.ColumnSizing[id] = clampWidth(w, m)
		}
	}
	return out
}

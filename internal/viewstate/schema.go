package viewstate

// ColumnMeta is the part of a column definition the store needs to decide
// whether an action applies.
type ColumnMeta struct {
	ID         string
	Sortable   bool
	Filterable bool
	Hideable   bool
	Resizable  bool
	Size       int
	MinSize    int
}

func (m ColumnMeta) size() int {
	if m.Size > 0 {
		return m.Size
	}
	return DefaultColumnSize
}

func (m ColumnMeta) minSize() int {
	if m.MinSize > 0 {
		return m.MinSize
	}
	return DefaultColumnMinSize
}

// Schema is the ordered column set of a grid.
type Schema []ColumnMeta

// Lookup finds a column by id.
func (s Schema) Lookup(id string) (ColumnMeta, bool) {
	for _, m := range s {
		if m.ID == id {
			return m, true
		}
	}
	return ColumnMeta{}, false
}

// Has reports whether id names a column of the schema.
func (s Schema) Has(id string) bool {
	_, ok := s.Lookup(id)
	return ok
}

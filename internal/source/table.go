// Package source loads rows for the grid from CSV files, JSON files and
// PostgreSQL queries. Rows are untyped records; each column's kind is
// inferred from its values so numbers and timestamps sort naturally while
// cells keep their original text.
package source

import (
	"cmp"
	"strconv"
	"strings"
	"time"

	"github.com/imgajeed76/pgrid/internal/grid"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "text"
	}
}

// Null is the text shown for missing values.
const Null = "NULL"

// Value is one cell of a Record. Text is always set; Num and Time hold the
// parsed value when the column's kind calls for it.
type Value struct {
	Text string
	Num  float64
	Time time.Time
	Null bool
}

// Record is one row.
type Record []Value

// Field describes one column.
type Field struct {
	Name string
	Kind Kind
}

// Table is a loaded row set.
type Table struct {
	Name    string
	Fields  []Field
	Records []Record
}

// timeLayouts are tried in order when inferring time columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// infer decides each field's kind from its non-null values and fills in
// Num or Time. A column is numeric only if every value parses as a number,
// and likewise for times; anything mixed is text.
func (t *Table) infer() {
	for col := range t.Fields {
		if t.Fields[col].Kind != KindText {
			continue
		}
		numeric, timed, seen := true, true, false
		for _, r := range t.Records {
			v := r[col]
			if v.Null || v.Text == "" {
				continue
			}
			seen = true
			if numeric {
				_, numeric = parseNumber(v.Text)
			}
			if timed {
				_, timed = parseTime(v.Text)
			}
			if !numeric && !timed {
				break
			}
		}
		switch {
		case !seen:
		case numeric:
			t.Fields[col].Kind = KindNumber
		case timed:
			t.Fields[col].Kind = KindTime
		}
	}

	for _, r := range t.Records {
		for col, f := range t.Fields {
			v := &r[col]
			if v.Null || v.Text == "" {
				continue
			}
			switch f.Kind {
			case KindNumber:
				if v.Num == 0 {
					v.Num, _ = parseNumber(v.Text)
				}
			case KindTime:
				if v.Time.IsZero() {
					v.Time, _ = parseTime(v.Text)
				}
			}
		}
	}
}

// pad makes every record as wide as the header. Missing trailing cells
// are null.
func (t *Table) pad() {
	for i, r := range t.Records {
		for len(r) < len(t.Fields) {
			r = append(r, Value{Null: true})
		}
		t.Records[i] = r[:len(t.Fields)]
	}
}

// Columns builds grid columns for the table. Cells show their original
// text; sorting uses the inferred kind with nulls first.
func (t *Table) Columns() []grid.Column[Record] {
	cols := make([]grid.Column[Record], len(t.Fields))
	for i, f := range t.Fields {
		get := func(r Record) Value { return r[i] }
		cols[i] = grid.AccessorFunc(f.Name, get, compareFunc(f.Kind), func(v Value) string { return v.Text }).
			Header(f.Name)
	}
	return cols
}

func compareFunc(k Kind) func(a, b Value) int {
	return func(a, b Value) int {
		switch {
		case a.Null && b.Null:
			return 0
		case a.Null:
			return -1
		case b.Null:
			return 1
		}
		switch k {
		case KindNumber:
			return cmp.Compare(a.Num, b.Num)
		case KindTime:
			return a.Time.Compare(b.Time)
		default:
			return strings.Compare(a.Text, b.Text)
		}
	}
}

func newTable(name string, header []string) *Table {
	t := &Table{Name: name, Fields: make([]Field, len(header))}
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		// Column ids must be unique within a grid.
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = h + "_" + strconv.Itoa(n+1)
		} else {
			seen[h] = 1
		}
		t.Fields[i] = Field{Name: h}
	}
	return t
}

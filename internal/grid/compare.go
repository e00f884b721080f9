package grid

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/imgajeed76/pgrid/internal/viewstate"
)

// TimeLayout is the default rendering of TimeAccessor values.
const TimeLayout = "2006-01-02 15:04:05"

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

type sortColumn[T any] struct {
	col  *Column[T]
	desc bool
}

// sortEntries stably sorts entries by keys in priority order. Keys naming
// unknown or non-sortable columns are skipped.
func sortEntries[T any](entries []Entry[T], keys []viewstate.SortKey, byID map[string]*Column[T]) {
	var order []sortColumn[T]
	for _, k := range keys {
		if c, ok := byID[k.ColumnID]; ok && c.sortable {
			order = append(order, sortColumn[T]{col: c, desc: k.Desc})
		}
	}
	if len(order) == 0 {
		return
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Row, entries[j].Row
		for _, o := range order {
			r := o.col.compare(a, b)
			if r == 0 {
				continue
			}
			if o.desc {
				return r > 0
			}
			return r < 0
		}
		return false
	})
}

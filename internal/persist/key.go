// Package persist mirrors a grid's durable view state into a key-value
// backend and restores it on the next session.
//
// Every operation is best-effort. A backend that is missing, full or
// returns garbage degrades the grid to in-memory state and a log line; it
// never fails a render.
package persist

import (
	"fmt"
	"net/url"
	"strings"
)

// Slot names the kind of value stored for a grid.
type Slot string

const (
	// SlotState holds sorting, filters, visibility and the page cursor.
	SlotState Slot = "state"
	// SlotColumnSizing holds committed column widths.
	SlotColumnSizing Slot = "columnSizing"
)

// Slots lists every slot a grid owns.
var Slots = []Slot{SlotState, SlotColumnSizing}

const keyPrefix = "pgrid:"

// Key addresses one stored value. The grid id is escaped in String, so
// "a-state" used as a grid id can never alias the state slot of grid "a".
type Key struct {
	Grid string
	Slot Slot
}

// StateKey returns the state slot key for grid.
func StateKey(grid string) Key { return Key{Grid: grid, Slot: SlotState} }

// SizingKey returns the column sizing slot key for grid.
func SizingKey(grid string) Key { return Key{Grid: grid, Slot: SlotColumnSizing} }

// String renders the key as "pgrid:<escaped grid>:<slot>".
func (k Key) String() string {
	return keyPrefix + url.QueryEscape(k.Grid) + ":" + string(k.Slot)
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	rest, ok := strings.CutPrefix(s, keyPrefix)
	if !ok {
		return Key{}, fmt.Errorf("parse key %q: missing %q prefix", s, keyPrefix)
	}
	i := strings.LastIndexByte(rest, ':')
	if i < 0 {
		return Key{}, fmt.Errorf("parse key %q: missing slot", s)
	}
	grid, err := url.QueryUnescape(rest[:i])
	if err != nil {
		return Key{}, fmt.Errorf("parse key %q: %w", s, err)
	}
	slot := Slot(rest[i+1:])
	if slot != SlotState && slot != SlotColumnSizing {
		return Key{}, fmt.Errorf("parse key %q: unknown slot %q", s, slot)
	}
	return Key{Grid: grid, Slot: slot}, nil
}

// GridPrefix is the common prefix of every key belonging to grid.
func GridPrefix(grid string) string {
	return keyPrefix + url.QueryEscape(grid) + ":"
}

package table

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/imgajeed76/pgrid/internal/export"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
)

type person struct {
	Name string
	Age  int
}

func people(n int) []person {
	out := make([]person, n)
	for i := range out {
		out[i] = person{Name: fmt.Sprintf("p%02d", i), Age: 50 - i}
	}
	return out
}

func newTestModel(t *testing.T, mutate func(*grid.Options[person])) tableModel[person] {
	t.Helper()
	styles.SetNoColor(true)
	t.Cleanup(func() { styles.SetNoColor(false) })

	opts := grid.Options[person]{
		Columns: []grid.Column[person]{
			grid.Accessor("name", func(p person) string { return p.Name }).Header("Name"),
			grid.Accessor("age", func(p person) int { return p.Age }).Header("Age"),
		},
		Rows:       people(12),
		Title:      "people",
		Pagination: grid.PaginationOptions{PageSize: 5},
	}
	if mutate != nil {
		mutate(&opts)
	}
	g, err := grid.New(context.Background(), opts)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	m := newTableModel(g, export.FormatPlain)
	return send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
}

func send(m tableModel[person], msgs ...tea.Msg) tableModel[person] {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(tableModel[person])
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(s string) []tea.Msg {
	var out []tea.Msg
	for _, r := range s {
		out = append(out, runes(string(r)))
	}
	return out
}

func TestTUI_SortFocusedColumn(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(m, tea.KeyMsg{Type: tea.KeyRight}, runes("s"))

	sorting := m.grid.State().Sorting
	if len(sorting) != 1 || sorting[0].ColumnID != "age" || sorting[0].Desc {
		t.Fatalf("sorting = %+v, want age ascending", sorting)
	}
	if first := m.grid.Projection().Rows[0].Row; first.Name != "p11" {
		t.Errorf("first row = %s, want youngest p11", first.Name)
	}

	m = send(m, runes("s"))
	if s := m.grid.State().Sorting; len(s) != 1 || !s[0].Desc {
		t.Errorf("second press: %+v, want descending", s)
	}
}

func TestTUI_FilterPopoverStagesUntilApply(t *testing.T) {
	m := newTestModel(t, nil)

	m = send(m, runes("f"))
	if m.mode != tableModeFilter || !m.grid.Filters().IsOpen("name") {
		t.Fatal("filter popover not open")
	}
	m = send(m, typeText("p1")...)
	if got := m.grid.Filters().Buffer("name"); got != "p1" {
		t.Fatalf("buffer = %q", got)
	}
	if m.grid.State().IsFiltered("name") {
		t.Fatal("typing must not commit the filter")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != tableModeNormal {
		t.Fatal("apply should close the popover")
	}
	if v, _ := m.grid.State().FilterValue("name"); v != "p1" {
		t.Fatalf("filter = %v, want p1", v)
	}
	if got := m.grid.Projection().TotalFiltered; got != 2 {
		t.Errorf("TotalFiltered = %d, want 2 (p10, p11)", got)
	}

	// Esc discards a staged edit.
	m = send(m, runes("f"))
	if got := m.filterInput.Value(); got != "p1" {
		t.Errorf("reopened buffer = %q, want committed value", got)
	}
	m = send(m, runes("0"), tea.KeyMsg{Type: tea.KeyEsc})
	if v, _ := m.grid.State().FilterValue("name"); v != "p1" {
		t.Errorf("after esc filter = %v, want p1", v)
	}

	// ctrl+x clears the committed filter.
	m = send(m, runes("f"), tea.KeyMsg{Type: tea.KeyCtrlX})
	if m.grid.State().IsFiltered("name") {
		t.Error("ctrl+x should clear the filter")
	}
}

func TestTUI_QuickFilterLiveAndCancel(t *testing.T) {
	m := newTestModel(t, nil)

	m = send(m, runes("/"))
	m = send(m, typeText("p0")...)
	if got := m.grid.State().GlobalFilter; got != "p0" {
		t.Fatalf("global filter = %q, want live update", got)
	}
	if got := m.grid.Projection().TotalFiltered; got != 10 {
		t.Errorf("TotalFiltered = %d, want 10", got)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.grid.State().GlobalFilter; got != "" {
		t.Errorf("esc should restore the previous filter, got %q", got)
	}

	m = send(m, runes("/"))
	m = send(m, typeText("p11")...)
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != tableModeNormal || m.grid.State().GlobalFilter != "p11" {
		t.Errorf("enter should keep the filter: mode=%d filter=%q", m.mode, m.grid.State().GlobalFilter)
	}
}

func TestTUI_Pagination(t *testing.T) {
	m := newTestModel(t, nil)

	m = send(m, tea.KeyMsg{Type: tea.KeyDown}, runes("n"))
	if got := m.grid.State().PageIndex; got != 1 {
		t.Fatalf("PageIndex = %d, want 1", got)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want reset to 0", m.cursor)
	}

	m = send(m, runes("G"))
	if got := m.grid.State().PageIndex; got != 2 {
		t.Errorf("last page = %d, want 2", got)
	}
	m = send(m, runes("n"))
	if got := m.grid.State().PageIndex; got != 2 {
		t.Errorf("next past the end = %d, want 2", got)
	}
	m = send(m, runes("g"))
	if got := m.grid.State().PageIndex; got != 0 {
		t.Errorf("first page = %d, want 0", got)
	}

	m = send(m, runes("z"))
	if got := m.grid.State().PageSize; got != 10 {
		t.Errorf("page size = %d, want next option 10", got)
	}
}

func TestTUI_ColumnsMenu(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(m, tea.KeyMsg{Type: tea.KeyRight})

	m = send(m, runes("c"), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeySpace})
	if m.grid.State().IsVisible("age") {
		t.Fatal("age should be hidden")
	}
	if m.colCursor != 0 {
		t.Errorf("colCursor = %d, want clamped to 0", m.colCursor)
	}

	m = send(m, runes("c"))
	if m.mode != tableModeNormal {
		t.Error("c should close the menu")
	}
	if strings.Contains(m.View(), "Age") {
		t.Error("hidden column still rendered")
	}
}

func TestTUI_Resize(t *testing.T) {
	m := newTestModel(t, nil)

	m = send(m, runes("r"), tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyRight})
	if m.grid.State().SizingInfo.Delta != 2*pxPerCell {
		t.Fatalf("delta = %d", m.grid.State().SizingInfo.Delta)
	}
	if _, ok := m.grid.State().ColumnSizing["name"]; ok {
		t.Fatal("drag must not commit")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.grid.State().ColumnSizing["name"]; got != 150+2*pxPerCell {
		t.Errorf("width = %d, want %d", got, 150+2*pxPerCell)
	}

	m = send(m, runes("r"), tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.grid.State().ColumnSizing["name"]; got != 150+2*pxPerCell {
		t.Errorf("cancelled drag changed width to %d", got)
	}
}

func TestTUI_RowClick(t *testing.T) {
	var clicked []string
	m := newTestModel(t, func(o *grid.Options[person]) {
		o.OnRowClick = func(p person) { clicked = append(clicked, p.Name) }
	})

	m = send(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	if len(clicked) != 1 || clicked[0] != "p02" {
		t.Errorf("clicked = %v, want [p02]", clicked)
	}
}

func TestTUI_PrintOnExit(t *testing.T) {
	m := newTestModel(t, nil)
	next, cmd := m.Update(runes("J"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if f, ok := next.(tableModel[person]).exitMode.format(); !ok || f != export.FormatJSON {
		t.Errorf("exit format = %q", f)
	}
}

func TestTUI_ViewStates(t *testing.T) {
	m := newTestModel(t, func(o *grid.Options[person]) {
		o.Loading = true
		o.RowActions = func(p person) grid.Cell { return grid.TextCell("[edit]") }
	})
	if !strings.Contains(m.View(), "Loading...") {
		t.Fatalf("loading view:\n%s", m.View())
	}

	m = send(m, LoadedMsg[person]{Rows: people(3)})
	view := m.View()
	for _, want := range []string{"people: 3 rows, 2 columns", "Name ↕", "p02", "[edit]", "Page 1 of 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}

	m = send(m, runes("/"))
	m = send(m, typeText("zzz")...)
	if !strings.Contains(m.View(), grid.EmptyMessage) {
		t.Errorf("empty view lacks %q", grid.EmptyMessage)
	}
}

func TestDisplay_PipedOutput(t *testing.T) {
	m := newTestModel(t, nil)
	var buf bytes.Buffer

	if err := Display(m.grid, DisplayOptions{Out: &buf}); err != nil {
		t.Fatalf("display: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "(12 rows)") || !strings.Contains(out, "p11") {
		t.Errorf("plain output:\n%s", out)
	}

	buf.Reset()
	if err := Display(m.grid, DisplayOptions{Out: &buf, Format: export.FormatTSV}); err != nil {
		t.Fatalf("display tsv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Name\tAge\n") {
		t.Errorf("tsv output:\n%s", buf.String())
	}
}

func TestPadOrTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdefgh", 6, "abc..."},
		{"abcdef", 3, "abc"},
		{"日本語", 5, "日..."},
		{"日本語", 7, "日本語 "},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		if got := PadOrTruncate(tt.in, tt.width); got != tt.want {
			t.Errorf("PadOrTruncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestApplyViewport(t *testing.T) {
	if got := applyViewport("abcdefgh", 2, 3); got != "cde" {
		t.Errorf("got %q, want cde", got)
	}
	if got := applyViewport("ab", 0, 4); got != "ab  " {
		t.Errorf("got %q, want padded", got)
	}
	styled := "\x1b[1mabc\x1b[0mdef"
	if got := applyViewport(styled, 1, 3); got != "\x1b[1mbc\x1b[0md" {
		t.Errorf("got %q", got)
	}
}

package grid

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/imgajeed76/pgrid/internal/export"
	"github.com/imgajeed76/pgrid/internal/persist"
	"github.com/imgajeed76/pgrid/internal/viewstate"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func totalFooter(rows []txn) Cell {
	sum := 0
	for _, r := range rows {
		sum += r.Amount
	}
	return TextCell(fmt.Sprint(sum))
}

func newTestGrid(t *testing.T, opts Options[txn]) *Grid[txn] {
	t.Helper()
	if opts.Columns == nil {
		opts.Columns = txnColumns()
	}
	g, err := New(context.Background(), opts)
	require.NoError(t, err)
	return g
}

func TestNew_RejectsInvalidColumns(t *testing.T) {
	_, err := New(context.Background(), Options[txn]{})
	assert.Error(t, err)
}

func TestGrid_PersistsAndRestoresAcrossMounts(t *testing.T) {
	adapter := persist.NewAdapter(persist.NewMemoryBackend(), zerolog.Nop())
	rows := amounts(10, 20, 20, 5, 30, 20, 15)
	opts := Options[txn]{Rows: rows, StorageKey: "ledger", Persistence: adapter}

	g := newTestGrid(t, opts)
	g.ClickHeader("amount")
	g.ClickHeader("amount")
	g.Dispatch(viewstate.SetPageSize{Size: 5})
	g.Dispatch(viewstate.SetPage{Index: 1})
	g.ToggleVisibility("status")
	g.SetGlobalFilter("c")
	require.True(t, g.BeginResize("customer"))
	g.DragResize(25)
	g.EndResize()

	before := g.State()

	again := newTestGrid(t, opts)
	after := again.State()
	assert.True(t, viewstate.Equal(before, after), "restored %+v, want %+v", after, before)
	assert.Equal(t, 175, after.ColumnSizing["customer"])
}

func TestGrid_NoStorageKeyMeansNoPersistence(t *testing.T) {
	backend := persist.NewMemoryBackend()
	adapter := persist.NewAdapter(backend, zerolog.Nop())

	g := newTestGrid(t, Options[txn]{Rows: amounts(1, 2), Persistence: adapter})
	g.ClickHeader("amount")

	keys, err := backend.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestGrid_RestoreDropsRemovedColumns(t *testing.T) {
	ctx := context.Background()
	adapter := persist.NewAdapter(persist.NewMemoryBackend(), zerolog.Nop())
	adapter.Save(ctx, "ledger", viewstate.Persisted{
		Sorting:          []viewstate.SortKey{{ColumnID: "legacy"}},
		ColumnFilters:    map[string]any{"legacy": "x", "status": "draft"},
		ColumnVisibility: map[string]bool{"legacy": false},
		PageSize:         20,
		ColumnSizing:     map[string]int{"legacy": 300, "amount": 90},
	})

	g := newTestGrid(t, Options[txn]{Rows: amounts(1), StorageKey: "ledger", Persistence: adapter})
	s := g.State()

	assert.Empty(t, s.Sorting)
	assert.Equal(t, map[string]any{"status": "draft"}, s.ColumnFilters)
	assert.Empty(t, s.ColumnVisibility)
	assert.Equal(t, map[string]int{"amount": 90}, s.ColumnSizing)
	assert.Equal(t, 20, s.PageSize)
}

func TestGrid_SizingSavedOnlyOnRelease(t *testing.T) {
	ctx := context.Background()
	backend := persist.NewMemoryBackend()
	adapter := persist.NewAdapter(backend, zerolog.Nop())
	g := newTestGrid(t, Options[txn]{Rows: amounts(1), StorageKey: "ledger", Persistence: adapter})

	var sizes []map[string]int
	g.opts.OnColumnSizingChange = func(m map[string]int) { sizes = append(sizes, m) }

	g.BeginResize("amount")
	g.DragResize(40)
	g.DragResize(60)

	_, err := backend.Get(ctx, persist.SizingKey("ledger"))
	assert.ErrorIs(t, err, persist.ErrNotFound, "nothing saved mid-drag")
	assert.Equal(t, 210, g.Headers()[2].Width)
	assert.True(t, g.Headers()[2].Resizing)

	g.EndResize()
	raw, err := backend.Get(ctx, persist.SizingKey("ledger"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":210}`, string(raw))
	assert.Equal(t, []map[string]int{{"amount": 210}}, sizes)
}

func TestGrid_ClampsPageAfterFilterShrinksRows(t *testing.T) {
	var pages []int
	g := newTestGrid(t, Options[txn]{
		Rows:         amounts(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11),
		Pagination:   PaginationOptions{PageSize: 3},
		OnPageChange: func(i int) { pages = append(pages, i) },
	})
	g.Dispatch(viewstate.SetPage{Index: 3})
	require.Equal(t, 3, g.State().PageIndex)

	// Only c1 and c10 survive: one page.
	g.Filters().Open("customer")
	g.Filters().Type("customer", "c1")
	g.Filters().Apply("customer")

	assert.Equal(t, 0, g.State().PageIndex, "clamped index written back")
	assert.Equal(t, 0, g.Projection().PageIndex)
	assert.Len(t, g.Projection().Rows, 2)
	assert.Equal(t, []int{3, 0}, pages)
}

func TestGrid_PageSizeChangeResetsPage(t *testing.T) {
	var sizes, pages []int
	g := newTestGrid(t, Options[txn]{
		Rows:             amounts(make([]int, 100)...),
		OnPageChange:     func(i int) { pages = append(pages, i) },
		OnPageSizeChange: func(n int) { sizes = append(sizes, n) },
	})
	g.Dispatch(viewstate.SetPage{Index: 3})
	g.Dispatch(g.Pagination().SelectSize(20))

	s := g.State()
	assert.Equal(t, 20, s.PageSize)
	assert.Equal(t, 0, s.PageIndex)
	assert.Equal(t, []int{20}, sizes)
	assert.Equal(t, []int{3, 0}, pages)
}

func TestGrid_OversizedPageSizeIsBoundedAndRestorable(t *testing.T) {
	ctx := context.Background()
	adapter := persist.NewAdapter(persist.NewMemoryBackend(), zerolog.Nop())
	opts := Options[txn]{Rows: amounts(10, 20, 20, 5, 30, 20, 15), StorageKey: "ledger", Persistence: adapter}

	g := newTestGrid(t, opts)
	require.NotPanics(t, func() {
		g.Dispatch(viewstate.SetPageSize{Size: math.MaxInt})
		g.Dispatch(viewstate.SetPage{Index: math.MaxInt})
	})
	assert.Equal(t, viewstate.MaxPageSize, g.State().PageSize)
	assert.Equal(t, 0, g.State().PageIndex)
	assert.Len(t, g.Projection().Rows, 7)

	p, ok := adapter.Load(ctx, "ledger")
	require.True(t, ok)
	assert.Equal(t, viewstate.MaxPageSize, p.PageSize)

	// Stored state written before sizes were bounded still mounts.
	adapter.Save(ctx, "ledger", viewstate.Persisted{PageSize: math.MaxInt, PageIndex: math.MaxInt})
	var again *Grid[txn]
	require.NotPanics(t, func() { again = newTestGrid(t, opts) })
	assert.Equal(t, viewstate.MaxPageSize, again.State().PageSize)
	assert.Equal(t, 0, again.Projection().PageIndex)
	assert.Equal(t, 1, again.Pagination().Page)
}

func TestGrid_Callbacks(t *testing.T) {
	var sorting [][]viewstate.SortKey
	var filters []string
	var visibility []map[string]bool
	g := newTestGrid(t, Options[txn]{
		Rows:            amounts(1, 2),
		OnSortingChange: func(s []viewstate.SortKey) { sorting = append(sorting, s) },
		OnFilterChange: func(cf map[string]any, global string) {
			filters = append(filters, fmt.Sprintf("%v|%s", cf, global))
		},
		OnVisibilityChange: func(v map[string]bool) { visibility = append(visibility, v) },
	})

	g.ClickHeader("amount")
	g.SetGlobalFilter("c")
	g.ToggleVisibility("status")
	g.ClickHeader("nope")

	require.Len(t, sorting, 1)
	assert.Equal(t, []viewstate.SortKey{{ColumnID: "amount"}}, sorting[0])
	assert.Equal(t, []string{"map[]|c"}, filters)
	assert.Equal(t, []map[string]bool{{"status": false}}, visibility)
}

func TestFilterPopover_StagedIsolation(t *testing.T) {
	g := newTestGrid(t, Options[txn]{Rows: amounts(10, 20, 30)})
	f := g.Filters()

	require.True(t, f.Open("amount"))
	assert.Equal(t, "", f.Buffer("amount"))

	f.Type("amount", "2")
	assert.Equal(t, 3, g.Projection().TotalFiltered, "typing must not filter")
	assert.False(t, g.State().IsFiltered("amount"))

	f.Apply("amount")
	assert.False(t, f.IsOpen("amount"))
	assert.Equal(t, 1, g.Projection().TotalFiltered)
	v, _ := g.State().FilterValue("amount")
	assert.Equal(t, "2", v)

	// Reopening seeds from the committed value; closing discards edits.
	f.Open("amount")
	assert.Equal(t, "2", f.Buffer("amount"))
	f.Type("amount", "999")
	f.Close("amount")
	v, _ = g.State().FilterValue("amount")
	assert.Equal(t, "2", v)

	f.Open("amount")
	f.Clear("amount")
	assert.False(t, g.State().IsFiltered("amount"), "clear removes the key")
	assert.Equal(t, "", f.Buffer("amount"))
	assert.False(t, f.IsOpen("amount"))
	assert.Equal(t, 3, g.Projection().TotalFiltered)
}

func TestFilterPopover_Rules(t *testing.T) {
	cols := txnColumns()
	cols[1] = cols[1].Filterable(false)
	g := newTestGrid(t, Options[txn]{Columns: cols, Rows: amounts(1)})
	f := g.Filters()

	assert.False(t, f.Open("status"), "non-filterable")
	assert.False(t, f.Type("amount", "1"), "not open")

	f.Open("amount")
	f.Type("amount", "1")
	f.Open("customer")
	assert.Equal(t, "customer", f.OpenColumn())
	assert.Equal(t, "", f.Buffer("amount"), "switching columns discards edits")

	f.Type("customer", "")
	f.Apply("customer")
	assert.False(t, g.State().IsFiltered("customer"), "empty apply stores nothing")
}

func TestHeaders_SortIcons(t *testing.T) {
	cols := txnColumns()
	cols[1] = cols[1].Sortable(false)
	g := newTestGrid(t, Options[txn]{Columns: cols, Rows: amounts(1)})

	icons := func() []string {
		var out []string
		for _, h := range g.Headers() {
			out = append(out, h.Icon())
		}
		return out
	}

	assert.Equal(t, []string{IconUnsorted, "", IconUnsorted}, icons())
	g.ClickHeader("amount")
	assert.Equal(t, []string{IconUnsorted, "", IconAsc}, icons())
	g.ClickHeader("amount")
	assert.Equal(t, []string{IconUnsorted, "", IconDesc}, icons())
	g.ClickHeader("customer")
	assert.Equal(t, []string{IconAsc, "", IconUnsorted}, icons(), "single active sort")
	g.ClickHeader("customer")
	g.ClickHeader("customer")
	assert.Equal(t, []string{IconUnsorted, "", IconUnsorted}, icons())

	assert.False(t, g.ClickHeader("status"))
}

func TestTable_States(t *testing.T) {
	g := newTestGrid(t, Options[txn]{Rows: nil, Loading: true})
	v := g.Table(-1)
	assert.Equal(t, StateLoading, v.State)
	assert.Empty(t, v.Rows)

	g.SetRows(nil, 0)
	v = g.Table(-1)
	assert.Equal(t, StateEmpty, v.State)
	assert.Equal(t, "No results.", v.Message)

	g.SetRows(amounts(5, 6), 0)
	v = g.Table(-1)
	assert.Equal(t, StatePopulated, v.State)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "c0", v.Rows[0].Cells[0].Text)
	assert.Nil(t, v.Footer, "no column defines a footer")
	assert.False(t, v.HasActions)
}

func TestTable_ActionsAndFooter(t *testing.T) {
	cols := txnColumns()
	cols[2] = cols[2].Footer(totalFooter)
	g := newTestGrid(t, Options[txn]{
		Columns:    cols,
		Rows:       amounts(5, 6, 7),
		RowActions: func(r txn) Cell { return TextCell("edit") },
		RowID:      func(r txn, _ int) string { return r.Customer },
		Pagination: PaginationOptions{PageSize: 2},
	})

	v := g.Table(1)
	require.Len(t, v.Rows, 2)
	assert.True(t, v.HasActions)
	assert.True(t, v.Rows[0].Dimmed)
	assert.False(t, v.Rows[1].Dimmed)
	assert.True(t, v.Rows[1].Focused)
	assert.Equal(t, "c1", v.Rows[1].ID)
	assert.Equal(t, "edit", v.Rows[0].Actions.Text)

	require.Len(t, v.Footer, 3)
	assert.Equal(t, "11", v.Footer[2].Text, "footer covers the page")
	assert.Equal(t, "", v.Footer[0].Text)

	g.ToggleVisibility("amount")
	assert.Nil(t, g.Table(-1).Footer, "footer column hidden")
}

func TestClickRow(t *testing.T) {
	var clicked []string
	g := newTestGrid(t, Options[txn]{
		Rows:       amounts(3, 1, 2),
		OnRowClick: func(r txn) { clicked = append(clicked, r.Customer) },
	})
	g.ClickHeader("amount")

	assert.True(t, g.ClickRow(0))
	assert.False(t, g.ClickRow(5))
	assert.Equal(t, []string{"c1"}, clicked)
}

func TestPaginationView(t *testing.T) {
	g := newTestGrid(t, Options[txn]{
		Rows:       amounts(make([]int, 23)...),
		Pagination: PaginationOptions{PageSize: 10, PageSizeOptions: []int{10, 25}},
	})

	v := g.Pagination()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 3, v.PageCount)
	assert.Equal(t, []int{10, 25}, v.PageSizeOptions)
	assert.Equal(t, 1, v.From)
	assert.Equal(t, 10, v.To)
	assert.False(t, v.CanPrev)
	assert.True(t, v.CanNext)
	assert.Equal(t, 25, v.NextSize())

	assert.Equal(t, viewstate.SetPage{Index: 2}, v.GoTo(99))
	assert.Equal(t, viewstate.SetPage{Index: 0}, v.GoTo(-4))
	assert.Equal(t, 0, g.State().PageIndex, "views never mutate state")

	g.Dispatch(v.Last())
	v = g.Pagination()
	assert.Equal(t, 3, v.Page)
	assert.Equal(t, 21, v.From)
	assert.Equal(t, 23, v.To)
	assert.False(t, v.CanNext)
	assert.Equal(t, viewstate.SetPage{Index: 1}, v.Prev())

	empty := newTestGrid(t, Options[txn]{})
	ev := empty.Pagination()
	assert.Equal(t, 1, ev.PageCount)
	assert.Equal(t, viewstate.DefaultPageSizeOptions, ev.PageSizeOptions)
	assert.Zero(t, ev.From)
}

func TestPaginationView_RecordCount(t *testing.T) {
	g := newTestGrid(t, Options[txn]{Rows: amounts(1, 2, 3, 4, 5), RecordCount: 42, Pagination: PaginationOptions{PageSize: 5}})
	v := g.Pagination()
	assert.Equal(t, 42, v.Total)
	assert.Equal(t, 9, v.PageCount)
}

func TestSnapshot(t *testing.T) {
	cols := txnColumns()
	cols[2] = cols[2].Footer(totalFooter)
	g := newTestGrid(t, Options[txn]{
		Columns:    cols,
		Rows:       amounts(10, 20, 30, 40),
		Title:      "Ledger",
		Pagination: PaginationOptions{PageSize: 1},
	})
	g.ClickHeader("amount")
	g.ClickHeader("amount")
	g.Dispatch(viewstate.SetColumnFilter{ColumnID: "customer", Value: "c"})
	g.ToggleVisibility("status")
	g.Dispatch(viewstate.SetColumnFilter{ColumnID: "amount", Value: "0"})

	snap := g.Snapshot(ExportFiltered)
	assert.Equal(t, "Ledger", snap.Title)
	assert.Equal(t, []string{"Customer", "Amount"}, snap.Header)
	assert.Equal(t, [][]string{{"c3", "40"}, {"c2", "30"}, {"c1", "20"}, {"c0", "10"}}, snap.Body,
		"whole filtered set, not the page")
	assert.Equal(t, []string{"", "100"}, snap.Footer)
	assert.Equal(t, []int{viewstate.DefaultColumnSize, viewstate.DefaultColumnSize}, snap.Widths)

	g.SetGlobalFilter("c3")
	all := g.Snapshot(ExportAll)
	assert.Len(t, all.Body, 4)
	assert.Equal(t, "c0", all.Body[0][0], "input order")
}

func TestExport(t *testing.T) {
	g := newTestGrid(t, Options[txn]{Rows: amounts(1, 2)})

	var buf bytes.Buffer
	err := g.Export(&buf, export.FormatXLSX)
	assert.ErrorIs(t, err, ErrExportDisabled)

	require.NoError(t, g.Export(&buf, export.FormatTSV))
	assert.Equal(t, "Customer\tStatus\tAmount\nc0\tdraft\t1\nc1\tdraft\t2\n", buf.String())

	assert.Equal(t, "export.pdf", g.FileName(export.FormatPDF))

	named := newTestGrid(t, Options[txn]{
		Rows:   amounts(1),
		Export: ExportOptions{Enabled: true, FileName: "ledger", PDF: true, Excel: true},
	})
	assert.Equal(t, "ledger.xlsx", named.FileName(export.FormatXLSX))
	buf.Reset()
	require.NoError(t, named.Export(&buf, export.FormatPDF))
	assert.NotZero(t, buf.Len())
}

func TestExportOptions_Defaults(t *testing.T) {
	var zero ExportOptions
	assert.True(t, zero.Allows(export.FormatTSV))
	assert.False(t, zero.Allows(export.FormatXLSX))
	assert.False(t, zero.Allows(export.FormatPDF))

	def := DefaultExportOptions()
	for _, f := range []export.Format{export.FormatXLSX, export.FormatPDF, export.FormatJSON} {
		assert.True(t, def.Allows(f), f)
	}
	g := newTestGrid(t, Options[txn]{Rows: amounts(1), Export: def})
	assert.Equal(t, "export.xlsx", g.FileName(export.FormatXLSX))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	backend := persist.NewMemoryBackend()
	adapter := persist.NewAdapter(backend, zerolog.Nop())
	g := newTestGrid(t, Options[txn]{Rows: amounts(1), StorageKey: "ledger", Persistence: adapter})
	g.ClickHeader("amount")
	g.Dispatch(viewstate.SetPageSize{Size: 50})

	require.NoError(t, g.Reset())
	assert.Empty(t, g.State().Sorting)
	assert.Equal(t, 50, g.State().PageSize, "page size survives a reset")

	keys, err := backend.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestVisibilityMenu(t *testing.T) {
	cols := txnColumns()
	cols[0] = cols[0].Hideable(false)
	g := newTestGrid(t, Options[txn]{Columns: cols, Rows: amounts(1)})
	g.ToggleVisibility("amount")

	assert.Equal(t, []ColumnToggle{
		{ID: "status", Label: "Status", Visible: true},
		{ID: "amount", Label: "Amount", Visible: false},
	}, g.VisibilityMenu())

	assert.False(t, g.ToggleVisibility("customer"))
	assert.Len(t, g.VisibleColumns(), 2)
}

func TestFaceted(t *testing.T) {
	g := newTestGrid(t, Options[txn]{Rows: []txn{{Status: "draft"}, {Status: "paid"}, {Status: "draft"}}})
	f, ok := g.Faceted("status")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"draft": 2, "paid": 1}, f)

	_, ok = g.Faceted("nope")
	assert.False(t, ok)
}

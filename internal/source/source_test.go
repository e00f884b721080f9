package source

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/imgajeed76/pgrid/internal/db"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/imgajeed76/pgrid/internal/viewstate"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersCSV = `customer,amount,placed
Smith & Co,10,2024-03-01
Jones,9,2024-01-15
Blacksmith Ltd,100,2023-12-31
`

func TestReadCSV_InfersKinds(t *testing.T) {
	tbl, err := ReadCSV("orders", strings.NewReader(ordersCSV), ',')
	require.NoError(t, err)

	require.Len(t, tbl.Fields, 3)
	assert.Equal(t, KindText, tbl.Fields[0].Kind)
	assert.Equal(t, KindNumber, tbl.Fields[1].Kind)
	assert.Equal(t, KindTime, tbl.Fields[2].Kind)

	require.Len(t, tbl.Records, 3)
	assert.Equal(t, 100.0, tbl.Records[2][1].Num)
	assert.Equal(t, "100", tbl.Records[2][1].Text)
	assert.Equal(t, 2024, tbl.Records[0][2].Time.Year())
}

func TestReadCSV_MixedColumnIsText(t *testing.T) {
	tbl, err := ReadCSV("x", strings.NewReader("v\n1\ntwo\n3\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, KindText, tbl.Fields[0].Kind)
}

func TestReadCSV_ShortRowsAndEmptyCellsAreNull(t *testing.T) {
	tbl, err := ReadCSV("x", strings.NewReader("a,b,c\n1,,3\n4\n"), ',')
	require.NoError(t, err)

	require.Len(t, tbl.Records, 2)
	assert.True(t, tbl.Records[0][1].Null)
	assert.True(t, tbl.Records[1][1].Null)
	assert.True(t, tbl.Records[1][2].Null)
	assert.Equal(t, KindNumber, tbl.Fields[2].Kind)
}

func TestReadCSV_Latin1AndBOM(t *testing.T) {
	raw := append([]byte("\xef\xbb\xbfname\n"), []byte("M\xfcller\n")...)
	tbl, err := ReadCSV("x", strings.NewReader(string(raw)), ',')
	require.NoError(t, err)

	assert.Equal(t, "name", tbl.Fields[0].Name)
	assert.Equal(t, "Müller", tbl.Records[0][0].Text)
}

func TestReadCSV_DuplicateAndBlankHeaders(t *testing.T) {
	tbl, err := ReadCSV("x", strings.NewReader("id,id,\n1,2,3\n"), ',')
	require.NoError(t, err)

	var names []string
	for _, f := range tbl.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id", "id_2", "column_3"}, names)
	assert.NoError(t, grid.ValidateColumns(tbl.Columns()))
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV("x", strings.NewReader(""), ',')
	assert.ErrorIs(t, err, util.ErrEmptySource)
}

func TestReadJSON_KeepsKeyOrder(t *testing.T) {
	doc := `[
		{"zeta": 1, "alpha": "a", "tags": ["x", "y"]},
		{"alpha": "b", "extra": null, "zeta": 2.5}
	]`
	tbl, err := ReadJSON("rows", strings.NewReader(doc))
	require.NoError(t, err)

	var names []string
	for _, f := range tbl.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "tags", "extra"}, names)
	assert.Equal(t, KindNumber, tbl.Fields[0].Kind)

	assert.Equal(t, `["x","y"]`, tbl.Records[0][2].Text)
	assert.True(t, tbl.Records[0][3].Null, "missing key is null")
	assert.True(t, tbl.Records[1][3].Null, "json null is null")
	assert.True(t, tbl.Records[1][2].Null)
	assert.Equal(t, 2.5, tbl.Records[1][0].Num)
}

func TestReadJSON_RejectsNonArray(t *testing.T) {
	_, err := ReadJSON("x", strings.NewReader(`{"a": 1}`))
	assert.Error(t, err)

	_, err = ReadJSON("x", strings.NewReader(`[1, 2]`))
	assert.Error(t, err)

	_, err = ReadJSON("x", strings.NewReader(`[]`))
	assert.ErrorIs(t, err, util.ErrEmptySource)
}

func TestFromResultSet(t *testing.T) {
	placed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rs := &db.ResultSet{
		Columns: []string{"id", "total", "note", "placed"},
		Rows: [][]any{
			{int64(1), pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true}, "line\nbreak", placed},
			{int64(2), pgtype.Numeric{}, nil, nil},
		},
	}

	tbl, err := FromResultSet("q", rs)
	require.NoError(t, err)

	assert.Equal(t, KindNumber, tbl.Fields[0].Kind)
	assert.Equal(t, KindNumber, tbl.Fields[1].Kind)
	assert.Equal(t, KindTime, tbl.Fields[3].Kind)

	first := tbl.Records[0]
	assert.Equal(t, "123.45", first[1].Text)
	assert.InDelta(t, 123.45, first[1].Num, 1e-9)
	assert.Equal(t, `line\nbreak`, first[2].Text)
	assert.Equal(t, placed, first[3].Time)

	second := tbl.Records[1]
	assert.True(t, second[1].Null)
	assert.Equal(t, Null, second[2].Text)
	assert.True(t, second[3].Null)

	_, err = FromResultSet("q", &db.ResultSet{})
	assert.ErrorIs(t, err, util.ErrEmptySource)
}

func TestColumns_SortByInferredKind(t *testing.T) {
	tbl, err := ReadCSV("orders", strings.NewReader(ordersCSV+",,\n"), ',')
	require.NoError(t, err)

	st := viewstate.New(10)
	st.Sorting = []viewstate.SortKey{{ColumnID: "amount"}}
	p := grid.Project(tbl.Records, tbl.Columns(), st, 0)

	var got []int
	for _, e := range p.Rows {
		got = append(got, e.Index)
	}
	// Null first, then 9 < 10 < 100 numerically.
	assert.Equal(t, []int{3, 1, 0, 2}, got)

	st.Sorting = []viewstate.SortKey{{ColumnID: "placed", Desc: true}}
	p = grid.Project(tbl.Records, tbl.Columns(), st, 0)
	assert.Equal(t, 0, p.Rows[0].Index)
}

func TestColumns_FilterOnOriginalText(t *testing.T) {
	tbl, err := ReadCSV("orders", strings.NewReader(ordersCSV), ',')
	require.NoError(t, err)

	st := viewstate.New(10)
	st.GlobalFilter = "smith"
	p := grid.Project(tbl.Records, tbl.Columns(), st, 0)
	assert.Equal(t, 2, p.TotalFiltered)

	st = viewstate.New(10)
	st.ColumnFilters["placed"] = "2024-01"
	p = grid.Project(tbl.Records, tbl.Columns(), st, 0)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, 1, p.Rows[0].Index)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(ordersCSV), 0o644))
	tsvPath := filepath.Join(dir, "orders.tsv")
	require.NoError(t, os.WriteFile(tsvPath, []byte("a\tb\n1\t2\n"), 0o644))

	tbl, err := Load(csvPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "orders", tbl.Name)
	assert.Len(t, tbl.Records, 3)

	tbl, err = Load(tsvPath, nil)
	require.NoError(t, err)
	assert.Len(t, tbl.Fields, 2)

	tbl, err = Load("-", strings.NewReader("x\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, "stdin", tbl.Name)

	_, err = Load(filepath.Join(dir, "orders.xml"), nil)
	assert.ErrorIs(t, err, util.ErrUnknownSource)

	_, err = Load("", nil)
	assert.ErrorIs(t, err, util.ErrNoSource)
}

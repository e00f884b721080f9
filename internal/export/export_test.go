package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
)

func sample() Snapshot {
	return Snapshot{
		Title:  "Invoices",
		Header: []string{"Customer", "Status", "Amount"},
		Body: [][]string{
			{"Smith & Co", "draft", "10.00"},
			{"Jones", "approved", "20.00"},
		},
		Footer: []string{"", "", "30.00"},
		Widths: []int{200, 100, 100},
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		base string
		f    Format
		want string
	}{
		{"", FormatXLSX, "export.xlsx"},
		{"  ", FormatPDF, "export.pdf"},
		{"ledger", FormatPDF, "ledger.pdf"},
		{"ledger.XLSX", FormatXLSX, "ledger.XLSX"},
		{"ledger", FormatPlain, "ledger.txt"},
	}
	for _, tt := range tests {
		if got := FileName(tt.base, tt.f); got != tt.want {
			t.Errorf("FileName(%q, %s) = %q, want %q", tt.base, tt.f, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"xlsx": FormatXLSX, ".PDF": FormatPDF, "excel": FormatXLSX,
		"txt": FormatPlain, "json": FormatJSON, "raw": FormatTSV,
	} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Error("ParseFormat(docx) should fail")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Customer", "Status", "Amount"}, rows[0])
	assert.Equal(t, []string{"Smith & Co", "draft", "10.00"}, rows[1])
	assert.Equal(t, "30.00", rows[3][2])

	width, err := f.GetColWidth(SheetName, "A")
	require.NoError(t, err)
	assert.InDelta(t, 200.0/pxPerChar, width, 0.01)

	headerStyle, err := f.GetCellStyle(SheetName, "A1")
	require.NoError(t, err)
	bodyStyle, err := f.GetCellStyle(SheetName, "A2")
	require.NoError(t, err)
	assert.NotEqual(t, headerStyle, bodyStyle, "header is styled bold")
}

func TestWriteXLSX_NoFooter(t *testing.T) {
	snap := sample()
	snap.Footer = nil

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, snap))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sample()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDF_PaginatesLongTables(t *testing.T) {
	snap := sample()
	snap.Body = nil
	for i := 0; i < 200; i++ {
		snap.Body = append(snap.Body, []string{fmt.Sprintf("customer %d", i), "draft", "1.00"})
	}

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, snap))
	pages := strings.Count(buf.String(), "<</Type /Page\n")
	assert.Greater(t, pages, 1)
}

func TestWritePDF_KeepsNonLatinText(t *testing.T) {
	snap := sample()
	snap.Body = [][]string{{"Łódź", "Иванов", "Ωmega"}}

	var buf bytes.Buffer
	require.NoError(t, writePDF(&buf, snap, false))

	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	for _, s := range []string{"Łódź", "Иванов", "Ωmega"} {
		want, err := enc.String(s)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), want, "cell %q", s)
	}
}

func TestPDFText(t *testing.T) {
	assert.Equal(t, "Łódź 山田", pdfText("Łódź 山田"))
	assert.Equal(t, "ok \uFFFD", pdfText("ok \U0001F600"))
}

func TestFit_TrimsWholeRunes(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(pdfFont, "", pdfFontRegular)
	pdf.SetFont(pdfFont, "", pdfFontSize)

	got := fit(pdf, strings.Repeat("ź", 200), 20)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, utf8.ValidString(got))
	assert.Less(t, len(got), 400)
}

func TestColumnWidths(t *testing.T) {
	got := columnWidths(sample(), 190)
	assert.InDeltaSlice(t, []float64{95, 47.5, 47.5}, got, 0.001)

	equal := columnWidths(Snapshot{Header: []string{"a", "b"}}, 100)
	assert.Equal(t, []float64{50, 50}, equal)
}

func TestWritePlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlain(&buf, sample()))

	want := "Invoices\n\n" +
		"Customer    Status    Amount\n" +
		"──────────  ────────  ──────\n" +
		"Smith & Co  draft     10.00 \n" +
		"Jones       approved  20.00 \n" +
		"──────────  ────────  ──────\n" +
		"                      30.00 \n" +
		"\n(2 rows)\n"
	assert.Equal(t, want, buf.String())
}

func TestWritePlain_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlain(&buf, Snapshot{}))
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, map[string]string{"Customer": "Smith & Co", "Status": "draft", "Amount": "10.00"}, got[0])

	// Column order is kept in the document.
	assert.Less(t, strings.Index(buf.String(), `"Customer"`), strings.Index(buf.String(), `"Amount"`))

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, Snapshot{Header: []string{"a"}}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteTSV(t *testing.T) {
	snap := Snapshot{
		Header: []string{"a", "b"},
		Body:   [][]string{{"x\ty", "line1\nline2"}},
		Footer: []string{"ignored", ""},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, snap))
	assert.Equal(t, "a\tb\nx\\ty\tline1\\nline2\n", buf.String())
}

func TestWrite_Dispatch(t *testing.T) {
	for _, f := range Formats {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, sample()), f)
		assert.NotZero(t, buf.Len(), f)
	}
	assert.Error(t, Write(&bytes.Buffer{}, Format("docx"), sample()))
}

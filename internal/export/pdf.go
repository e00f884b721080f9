package export

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// DejaVu Sans covers Latin, Greek, Cyrillic and most symbol blocks. Cell
// text is written as Unicode either way, so it stays searchable and
// copyable even where a glyph is missing.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	pdfFontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	pdfFontBold []byte
)

const pdfFont = "DejaVu"

const (
	pdfFontSize  = 8.0
	pdfTitleSize = 14.0
	pdfRowHeight = 6.0
	pdfMargin    = 10.0
)

type rgb struct{ r, g, b int }

var (
	pdfHeaderFill = rgb{41, 128, 185}
	pdfHeaderText = rgb{255, 255, 255}
	pdfStripeFill = rgb{245, 245, 245}
	pdfFooterFill = rgb{240, 240, 240}
	pdfTextColor  = rgb{0, 0, 0}
)

// WritePDF lays snap out on A4 pages: a title block, then a table whose
// header repeats on every page, with striped body rows and a bold footer.
func WritePDF(w io.Writer, snap Snapshot) error {
	return writePDF(w, snap, true)
}

func writePDF(w io.Writer, snap Snapshot, compress bool) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.AddUTF8FontFromBytes(pdfFont, "", pdfFontRegular)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", pdfFontBold)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AliasNbPages("")
	if snap.Title != "" {
		pdf.SetTitle(pdfText(snap.Title), true)
	}
	pdf.SetCreator("pgrid", true)

	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(snap, pageW-2*pdfMargin)
	bottom := pageH - pdfMargin - pdfRowHeight

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin + 2)
		pdf.SetFont(pdfFont, "", pdfFontSize-1)
		setText(pdf, pdfTextColor)
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	if snap.Title != "" {
		pdf.SetFont(pdfFont, "B", pdfTitleSize)
		setText(pdf, pdfTextColor)
		pdf.CellFormat(0, 8, pdfText(snap.Title), "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", pdfFontSize)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d rows", len(snap.Body)), "", 1, "L", false, 0, "")
		pdf.Ln(3)
	}

	header := func() {
		pdf.SetFont(pdfFont, "B", pdfFontSize)
		setFill(pdf, pdfHeaderFill)
		setText(pdf, pdfHeaderText)
		drawRow(pdf, widths, snap.Header, true)
	}
	header()

	pdf.SetFont(pdfFont, "", pdfFontSize)
	for i, row := range snap.Body {
		if pdf.GetY() > bottom {
			pdf.AddPage()
			header()
			pdf.SetFont(pdfFont, "", pdfFontSize)
		}
		setText(pdf, pdfTextColor)
		setFill(pdf, pdfStripeFill)
		drawRow(pdf, widths, row, i%2 == 1)
	}

	if snap.HasFooter() {
		if pdf.GetY() > bottom {
			pdf.AddPage()
			header()
		}
		pdf.SetFont(pdfFont, "B", pdfFontSize)
		setFill(pdf, pdfFooterFill)
		setText(pdf, pdfTextColor)
		drawRow(pdf, widths, snap.Footer, true)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// columnWidths scales the snapshot's pixel widths to fill usable millimetres.
func columnWidths(snap Snapshot, usable float64) []float64 {
	n := len(snap.Header)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	total := 0
	for i := 0; i < n; i++ {
		if i < len(snap.Widths) && snap.Widths[i] > 0 {
			total += snap.Widths[i]
		}
	}
	for i := range out {
		if total == 0 || i >= len(snap.Widths) || snap.Widths[i] <= 0 {
			out[i] = usable / float64(n)
			continue
		}
		out[i] = usable * float64(snap.Widths[i]) / float64(total)
	}
	return out
}

func drawRow(pdf *fpdf.Fpdf, widths []float64, cells []string, fill bool) {
	for i, w := range widths {
		text := ""
		if i < len(cells) {
			text = fit(pdf, pdfText(cells[i]), w-2)
		}
		pdf.CellFormat(w, pdfRowHeight, text, "1", 0, "L", fill, 0, "")
	}
	pdf.Ln(-1)
}

// fit shortens s with a trailing "..." until it fits width.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if t := string(r) + "..."; pdf.GetStringWidth(t) <= width {
			return t
		}
	}
	return ""
}

// pdfText replaces runes outside the Basic Multilingual Plane, which the
// embedded font tables cannot index.
func pdfText(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '\uFFFD'
		}
		return r
	}, s)
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }

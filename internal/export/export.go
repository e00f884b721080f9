// Package export turns a grid snapshot into a document: XLSX, PDF, an
// aligned plain-text table, a JSON array of objects, or tab-separated text.
//
// Every writer works from rendered cell text, never raw values, so what the
// user sees on screen is exactly what ends up in the file.
package export

import (
	"fmt"
	"io"
	"strings"
)

// DefaultFileName is used when the caller does not name the export.
const DefaultFileName = "export"

// Snapshot is the exported content of a grid at one point in time.
type Snapshot struct {
	Title  string
	Header []string
	Body   [][]string
	// Footer is nil when no exported column defines a footer.
	Footer []string
	// Widths are the column widths in pixels, parallel to Header. Writers
	// that lay out fixed columns scale them; others ignore them.
	Widths []int
}

// HasFooter reports whether a footer row is present.
func (s Snapshot) HasFooter() bool {
	return s.Footer != nil
}

// Format is an export document type.
type Format string

const (
	FormatXLSX  Format = "xlsx"
	FormatPDF   Format = "pdf"
	FormatPlain Format = "plain"
	FormatJSON  Format = "json"
	FormatTSV   Format = "tsv"
)

// Formats lists every supported format.
var Formats = []Format{FormatXLSX, FormatPDF, FormatPlain, FormatJSON, FormatTSV}

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch s {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	case "plain", "txt", "text":
		return FormatPlain, nil
	case "json":
		return FormatJSON, nil
	case "tsv", "raw":
		return FormatTSV, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Ext returns the file extension, without the dot.
func (f Format) Ext() string {
	if f == FormatPlain {
		return "txt"
	}
	return string(f)
}

// ContentType returns the MIME type of documents in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// FileName builds "<base>.<ext>", defaulting base to DefaultFileName. An
// extension already present on base is not repeated.
func FileName(base string, f Format) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultFileName
	}
	ext := "." + f.Ext()
	if strings.HasSuffix(strings.ToLower(base), ext) {
		return base
	}
	return base + ext
}

// Write renders snap in format f to w.
func Write(w io.Writer, f Format, snap Snapshot) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, snap)
	case FormatPDF:
		return WritePDF(w, snap)
	case FormatPlain:
		return WritePlain(w, snap)
	case FormatJSON:
		return WriteJSON(w, snap)
	case FormatTSV:
		return WriteTSV(w, snap)
	}
	return fmt.Errorf("unknown export format %q", f)
}

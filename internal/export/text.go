package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// WritePlain prints an aligned table with full cell content, no truncation.
func WritePlain(w io.Writer, snap Snapshot) error {
	bw := bufio.NewWriter(w)

	if len(snap.Header) == 0 {
		fmt.Fprintln(bw, "(0 rows)")
		return bw.Flush()
	}

	colWidths := make([]int, len(snap.Header))
	grow := func(row []string) {
		for i, val := range row {
			if i < len(colWidths) {
				colWidths[i] = max(colWidths[i], runewidth.StringWidth(val))
			}
		}
	}
	grow(snap.Header)
	for _, row := range snap.Body {
		grow(row)
	}
	grow(snap.Footer)

	printRow := func(row []string) {
		for i := range colWidths {
			if i > 0 {
				bw.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			bw.WriteString(runewidth.FillRight(val, colWidths[i]))
		}
		bw.WriteString("\n")
	}
	separator := func() {
		for i, cw := range colWidths {
			if i > 0 {
				bw.WriteString("  ")
			}
			bw.WriteString(strings.Repeat("─", cw))
		}
		bw.WriteString("\n")
	}

	if snap.Title != "" {
		fmt.Fprintf(bw, "%s\n\n", snap.Title)
	}
	printRow(snap.Header)
	separator()
	for _, row := range snap.Body {
		printRow(row)
	}
	if snap.HasFooter() {
		separator()
		printRow(snap.Footer)
	}

	fmt.Fprintf(bw, "\n(%d rows)\n", len(snap.Body))
	return bw.Flush()
}

// WriteJSON writes the body as an array of objects keyed by header label.
// Keys keep column order. The footer is not included.
func WriteJSON(w io.Writer, snap Snapshot) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("[")
	for i, row := range snap.Body {
		if i > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n  {")
		for j, name := range snap.Header {
			if j > 0 {
				bw.WriteString(", ")
			}
			key, err := json.Marshal(name)
			if err != nil {
				return err
			}
			val := []byte("null")
			if j < len(row) {
				if val, err = json.Marshal(row[j]); err != nil {
					return err
				}
			}
			bw.Write(key)
			bw.WriteString(": ")
			bw.Write(val)
		}
		bw.WriteString("}")
	}
	if len(snap.Body) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")
	return bw.Flush()
}

// WriteTSV writes the header and body as tab-separated lines, escaping tabs
// and newlines inside cells.
func WriteTSV(w io.Writer, snap Snapshot) error {
	bw := bufio.NewWriter(w)
	writeLine := func(row []string) {
		for i, v := range row {
			if i > 0 {
				bw.WriteString("\t")
			}
			bw.WriteString(escapeTSV(v))
		}
		bw.WriteString("\n")
	}
	writeLine(snap.Header)
	for _, row := range snap.Body {
		writeLine(row)
	}
	return bw.Flush()
}

func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/imgajeed76/pgrid/internal/util"
)

// ReadCSV reads a CSV document whose first record is the header. Input that
// is not valid UTF-8 is decoded as Latin-1. Empty cells are null.
func ReadCSV(name string, r io.Reader, comma rune) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	raw = util.ToValidUTF8Bytes(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))

	cr := csv.NewReader(bytes.NewReader(raw))
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", name, util.ErrEmptySource)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	t := newTable(name, header)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		row := make(Record, len(rec))
		for i, cell := range rec {
			if cell == "" {
				row[i] = Value{Null: true}
				continue
			}
			row[i] = Value{Text: util.EscapeControl(cell)}
		}
		t.Records = append(t.Records, row)
	}

	t.pad()
	t.infer()
	return t, nil
}

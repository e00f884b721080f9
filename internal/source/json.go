package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/imgajeed76/pgrid/internal/util"
)

// ReadJSON reads a JSON array of objects. Columns appear in the order their
// keys are first seen. Nested objects and arrays are kept as compact JSON
// text; JSON null and missing keys are null.
func ReadJSON(name string, r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("parse %s: expected an array of objects", name)
	}

	var (
		order []string
		index = map[string]int{}
		rows  []map[string]Value
	)
	for dec.More() {
		obj, keys, err := readObject(dec)
		if err != nil {
			return nil, fmt.Errorf("parse %s: row %d: %w", name, len(rows)+1, err)
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(order)
				order = append(order, k)
			}
		}
		rows = append(rows, obj)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%s: %w", name, util.ErrEmptySource)
	}

	t := newTable(name, order)
	t.Records = make([]Record, len(rows))
	for i, obj := range rows {
		rec := make(Record, len(order))
		for j, k := range order {
			v, ok := obj[k]
			if !ok {
				v = Value{Text: Null, Null: true}
			}
			rec[j] = v
		}
		t.Records[i] = rec
	}

	t.infer()
	return t, nil
}

// readObject decodes one object keeping the key order of the document.
func readObject(dec *json.Decoder) (map[string]Value, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected an object, got %v", tok)
	}

	obj := map[string]Value{}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, dup := obj[key]; !dup {
			keys = append(keys, key)
		}
		obj[key] = jsonValue(raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return obj, keys, nil
}

func jsonValue(raw json.RawMessage) Value {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		return Value{Text: Null, Null: true}
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return Value{Text: util.EscapeControl(s)}
		}
	case raw[0] == '{' || raw[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return Value{Text: buf.String()}
		}
	case string(raw) == "true" || string(raw) == "false":
		return Value{Text: string(raw)}
	default:
		if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return Value{Text: string(raw), Num: f}
		}
	}
	return Value{Text: string(raw)}
}

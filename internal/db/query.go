package db

import (
	"context"
	"fmt"
)

// ResultSet is a fully buffered query result. Values are what pgx decodes
// for each column type.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// QueryAll runs a read query and buffers every row.
func (db *DB) QueryAll(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	rs := &ResultSet{Columns: make([]string, len(fieldDescs))}
	for i, fd := range fieldDescs {
		rs.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		rs.Rows = append(rs.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

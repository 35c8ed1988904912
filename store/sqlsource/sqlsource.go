// Package sqlsource adapts a SQL query into a model.Source, letting the
// classifier scan a database table the same way it scans a file or a
// message stream: one row at a time, through the same pull-iterator
// contract.
package sqlsource

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/apicrafter/metacrafter/classifier/model"
)

// Source pulls rows from a SQL query through gorm's underlying
// database/sql connection pool. It implements model.Source so the
// analyzer and classification engine never know the records came from
// a database rather than a file.
type Source struct {
	rows    *sql.Rows
	columns []string
	scan    []any
	ptrs    []any
	closed  bool
}

// Open runs query against db and returns a Source ready for Next. The
// caller owns db's lifecycle; Open only borrows a connection for the
// duration of the resulting rows.Close (triggered automatically once
// Next reports exhaustion, or explicitly via Close).
func Open(db *gorm.DB, query string, args ...any) (*Source, error) {
	rows, err := db.Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("sqlsource: query failed: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlsource: reading columns: %w", err)
	}

	scan := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range scan {
		ptrs[i] = &scan[i]
	}

	return &Source{rows: rows, columns: cols, scan: scan, ptrs: ptrs}, nil
}

// Next scans the next row into a Record, or reports exhaustion. On
// exhaustion or scan error it closes the underlying rows and returns
// (Record{}, false); callers cannot distinguish "done" from "errored
// mid-stream" through this interface, matching the Source contract the
// rest of the module builds on.
func (s *Source) Next() (model.Record, bool) {
	if s.closed {
		return model.Record{}, false
	}
	if !s.rows.Next() {
		s.Close()
		return model.Record{}, false
	}
	if err := s.rows.Scan(s.ptrs...); err != nil {
		s.Close()
		return model.Record{}, false
	}

	values := make(map[string]any, len(s.columns))
	for i, col := range s.columns {
		values[col] = normalizeSQLValue(s.scan[i])
	}
	return model.NewRecord(s.columns, values), true
}

// Close releases the underlying rows early; safe to call more than once.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rows.Close()
}

// normalizeSQLValue converts the handful of driver-returned types
// database/sql hands back (notably []byte for text columns under some
// drivers) into the scalar shapes model.FromAny understands.
func normalizeSQLValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

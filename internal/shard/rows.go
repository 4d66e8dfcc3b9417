package shard

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Rows is a result set drained into memory. Draining releases the physical
// connection as soon as the query returns, so the next unit that shares the
// connection can run while the caller still iterates these rows.
type Rows struct {
	columns []string
	values  [][]any
	pos     int
	closed  bool
}

// drainRows reads every row of rows and closes it
func drainRows(rows *sql.Rows) (*Rows, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	r := &Rows{columns: columns}
	for rows.Next() {
		row := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(r.values)+1, err)
		}
		r.values = append(r.values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Columns returns the column names
func (r *Rows) Columns() ([]string, error) {
	return r.columns, nil
}

// Len returns the number of rows
func (r *Rows) Len() int {
	return len(r.values)
}

// Next advances to the next row
func (r *Rows) Next() bool {
	if r.closed || r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

// Values returns the raw values of the current row
func (r *Rows) Values() []any {
	if r.pos == 0 || r.pos > len(r.values) {
		return nil
	}
	return r.values[r.pos-1]
}

// Scan copies the current row into dest. It supports the destination types
// used with database/sql: sql.Scanner, *any, strings, byte slices, integers,
// floats, bools and time.Time.
func (r *Rows) Scan(dest ...any) error {
	if r.closed {
		return errors.New("rows are closed")
	}
	row := r.Values()
	if row == nil {
		return errors.New("Scan called without calling Next")
	}
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(row), len(dest))
	}
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return fmt.Errorf("converting column %d (%s): %w", i, r.columns[i], err)
		}
	}
	return nil
}

// Err always returns nil; errors surface while draining
func (r *Rows) Err() error {
	return nil
}

// Close marks the rows closed
func (r *Rows) Close() error {
	r.closed = true
	return nil
}

func assign(dest, src any) error {
	switch d := dest.(type) {
	case sql.Scanner:
		return d.Scan(src)
	case *any:
		if b, ok := src.([]byte); ok {
			*d = bytes.Clone(b)
			return nil
		}
		*d = src
		return nil
	case *string:
		if src == nil {
			return errors.New("NULL into string")
		}
		*d = asString(src)
		return nil
	case *[]byte:
		switch s := src.(type) {
		case nil:
			*d = nil
		case []byte:
			*d = bytes.Clone(s)
		default:
			*d = []byte(asString(s))
		}
		return nil
	case *int64:
		v, err := asInt64(src)
		if err != nil {
			return err
		}
		*d = v
		return nil
	case *int:
		v, err := asInt64(src)
		if err != nil {
			return err
		}
		*d = int(v)
		return nil
	case *float64:
		v, err := asFloat64(src)
		if err != nil {
			return err
		}
		*d = v
		return nil
	case *bool:
		switch s := src.(type) {
		case bool:
			*d = s
			return nil
		case nil:
			return errors.New("NULL into bool")
		default:
			v, err := strconv.ParseBool(asString(s))
			if err != nil {
				return err
			}
			*d = v
			return nil
		}
	case *time.Time:
		t, ok := src.(time.Time)
		if !ok {
			return fmt.Errorf("unsupported conversion from %T to time.Time", src)
		}
		*d = t
		return nil
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}
}

func asString(src any) string {
	switch s := src.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(s)
	}
}

func asInt64(src any) (int64, error) {
	switch s := src.(type) {
	case int64:
		return s, nil
	case float64:
		return int64(s), nil
	case bool:
		if s {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, errors.New("NULL into integer")
	default:
		return strconv.ParseInt(asString(s), 10, 64)
	}
}

func asFloat64(src any) (float64, error) {
	switch s := src.(type) {
	case float64:
		return s, nil
	case int64:
		return float64(s), nil
	case nil:
		return 0, errors.New("NULL into float")
	default:
		return strconv.ParseFloat(asString(s), 64)
	}
}

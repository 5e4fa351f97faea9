package columnar

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Column is one named, typed sequence of values. A nil value is a null.
// Non-null values are string, float64 or int64 according to the kind.
type Column struct {
	Field  Field
	Values []any
}

// StringColumn builds a string column from plain values.
func StringColumn(name string, values []string) Column {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return Column{Field: Field{Name: name, Kind: String}, Values: vals}
}

// NullColumn builds a column of n nulls.
func NullColumn(field Field, n int) Column {
	return Column{Field: field, Values: make([]any, n)}
}

// Batch is an ordered, bounded group of rows stored column by column.
type Batch struct {
	schema  *Schema
	columns []Column
	rows    int
}

// NewBatch assembles a batch. All columns must have the same length.
func NewBatch(columns ...Column) (*Batch, error) {
	rows := -1
	fields := make([]Field, 0, len(columns))
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c.Field.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Field.Name)
		}
		seen[c.Field.Name] = struct{}{}
		if rows == -1 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Field.Name, len(c.Values), rows)
		}
		fields = append(fields, c.Field)
	}
	if rows < 0 {
		rows = 0
	}
	return &Batch{schema: NewSchema(fields...), columns: columns, rows: rows}, nil
}

// Schema returns the batch schema.
func (b *Batch) Schema() *Schema { return b.schema }

// NumRows returns the number of rows.
func (b *Batch) NumRows() int { return b.rows }

// Columns returns the columns in declaration order.
func (b *Batch) Columns() []Column { return b.columns }

// Column looks up a column by name.
func (b *Batch) Column(name string) (Column, bool) {
	for _, c := range b.columns {
		if c.Field.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Strings returns the named column as plain strings. Nulls and a missing
// column both yield empty strings; numbers are formatted.
func (b *Batch) Strings(name string) []string {
	out := make([]string, b.rows)
	c, ok := b.Column(name)
	if !ok {
		return out
	}
	for i, v := range c.Values {
		out[i] = FormatValue(v)
	}
	return out
}

// Filter keeps the rows whose keep flag is set, preserving order.
func (b *Batch) Filter(keep []bool) *Batch {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	columns := make([]Column, len(b.columns))
	for i, c := range b.columns {
		vals := make([]any, 0, n)
		for row, v := range c.Values {
			if row < len(keep) && keep[row] {
				vals = append(vals, v)
			}
		}
		columns[i] = Column{Field: c.Field, Values: vals}
	}
	return &Batch{schema: b.schema, columns: columns, rows: n}
}

// Select projects the batch onto the named columns, in the given order.
// Names the batch does not carry are skipped.
func (b *Batch) Select(names ...string) *Batch {
	columns := make([]Column, 0, len(names))
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		if c, ok := b.Column(name); ok {
			columns = append(columns, c)
			fields = append(fields, c.Field)
		}
	}
	return &Batch{schema: NewSchema(fields...), columns: columns, rows: b.rows}
}

// FormatValue renders a cell as text. Nulls become the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// coerce converts a cell to the Go type matching kind. Values that cannot
// be represented become null.
func coerce(v any, kind Kind) any {
	if v == nil {
		return nil
	}
	if n, ok := v.(json.Number); ok {
		v = string(n)
	}
	switch kind {
	case String:
		return FormatValue(v)
	case Double:
		switch x := v.(type) {
		case float64:
			return x
		case float32:
			return float64(x)
		case int64:
			return float64(x)
		case int:
			return float64(x)
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f
			}
		}
	case Int64:
		switch x := v.(type) {
		case int64:
			return x
		case int:
			return int64(x)
		case float64:
			return int64(x)
		case string:
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return n
			}
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return int64(f)
			}
		}
	}
	return nil
}

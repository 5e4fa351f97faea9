// Package columnar reads and writes the parquet files that carry data
// between pipeline stages.
//
// Every column is an optional leaf of one of three kinds (string, double,
// int64), which covers the review corpus without pulling struct tags into
// the pipeline: the projection of a stage-1 file depends on which context
// columns a source actually carries, so schemas are built at runtime.
package columnar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Kind is the physical type of a column.
type Kind int

const (
	String Kind = iota
	Double
	Int64
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Double:
		return "double"
	case Int64:
		return "int64"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field names a column and its kind.
type Field struct {
	Name string
	Kind Kind
}

// Schema is an immutable set of fields. Field order is the order the
// schema was declared with; parquet itself stores leaves sorted by name.
type Schema struct {
	fields []Field
	index  map[string]int // field name -> parquet leaf index
	pq     *parquet.Schema
}

// NewSchema builds a schema from the given fields. Duplicate names keep the
// first occurrence.
func NewSchema(fields ...Field) *Schema {
	group := make(parquet.Group, len(fields))
	kept := make([]Field, 0, len(fields))
	for _, f := range fields {
		if _, dup := group[f.Name]; dup {
			continue
		}
		group[f.Name] = parquet.Optional(leafFor(f.Kind))
		kept = append(kept, f)
	}

	pq := parquet.NewSchema("review", group)
	index := make(map[string]int, len(kept))
	for i, f := range pq.Fields() {
		index[f.Name()] = i
	}

	return &Schema{fields: kept, index: index, pq: pq}
}

func leafFor(k Kind) parquet.Node {
	switch k {
	case Double:
		return parquet.Leaf(parquet.DoubleType)
	case Int64:
		return parquet.Leaf(parquet.Int64Type)
	default:
		return parquet.String()
	}
}

// schemaFromParquet recovers a Schema from a file footer.
func schemaFromParquet(pq *parquet.Schema) (*Schema, error) {
	fields := make([]Field, 0, len(pq.Fields()))
	for _, f := range pq.Fields() {
		if !f.Leaf() {
			return nil, fmt.Errorf("column %q: nested columns are not supported", f.Name())
		}
		var kind Kind
		switch f.Type().Kind() {
		case parquet.ByteArray:
			kind = String
		case parquet.Double:
			kind = Double
		case parquet.Int64:
			kind = Int64
		default:
			return nil, fmt.Errorf("column %q: unsupported type %s", f.Name(), f.Type())
		}
		fields = append(fields, Field{Name: f.Name(), Kind: kind})
	}
	return NewSchema(fields...), nil
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the schema has a column with the given name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Equal reports whether both schemas hold the same (name, kind) set.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.fields) != len(other.fields) {
		return false
	}
	kinds := make(map[string]Kind, len(s.fields))
	for _, f := range s.fields {
		kinds[f.Name] = f.Kind
	}
	for _, f := range other.fields {
		k, ok := kinds[f.Name]
		if !ok || k != f.Kind {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.Name + ":" + f.Kind.String()
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

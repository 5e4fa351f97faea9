package columnar

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// Reader streams a parquet file in bounded batches.
type Reader struct {
	f      *os.File
	file   *parquet.File
	schema *Schema
	groups []parquet.RowGroup
	group  int
	rows   parquet.Rows
}

// Open opens a parquet file for batched reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	schema, err := schemaFromParquet(pf.Schema())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return &Reader{f: f, file: pf, schema: schema, groups: pf.RowGroups()}, nil
}

// Schema returns the file schema.
func (r *Reader) Schema() *Schema { return r.schema }

// NumRows returns the total row count recorded in the footer.
func (r *Reader) NumRows() int64 { return r.file.NumRows() }

// Next reads up to size rows. It returns io.EOF once the file is exhausted;
// a non-empty batch is never returned together with an error.
func (r *Reader) Next(size int) (*Batch, error) {
	if size <= 0 {
		size = 1
	}
	leaves := r.schema.pq.Fields()
	values := make([][]any, len(leaves))
	buf := make([]parquet.Row, size)
	read := 0

	for read < size {
		if r.rows == nil {
			if r.group >= len(r.groups) {
				break
			}
			r.rows = r.groups[r.group].Rows()
			r.group++
		}

		n, err := r.rows.ReadRows(buf[:size-read])
		for _, row := range buf[:n] {
			for col := range leaves {
				values[col] = append(values[col], nil)
			}
			for _, v := range row {
				col := v.Column()
				if col < 0 || col >= len(leaves) || v.IsNull() {
					continue
				}
				values[col][len(values[col])-1] = decode(v)
			}
		}
		read += n

		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			r.rows.Close()
			r.rows = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
	}

	if read == 0 {
		return nil, io.EOF
	}

	columns := make([]Column, len(leaves))
	for col, leaf := range leaves {
		columns[col] = Column{
			Field:  r.schema.fields[r.fieldPos(leaf.Name())],
			Values: values[col],
		}
	}
	return NewBatch(columns...)
}

func (r *Reader) fieldPos(name string) int {
	for i, f := range r.schema.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func decode(v parquet.Value) any {
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	case parquet.Double:
		return v.Double()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Int64:
		return v.Int64()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Boolean:
		return v.Boolean()
	default:
		return nil
	}
}

// Close releases the file.
func (r *Reader) Close() error {
	if r.rows != nil {
		r.rows.Close()
		r.rows = nil
	}
	return r.f.Close()
}

// Stat returns the schema and row count of a parquet file without reading
// its rows.
func Stat(path string) (*Schema, int64, error) {
	r, err := Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()
	return r.Schema(), r.NumRows(), nil
}

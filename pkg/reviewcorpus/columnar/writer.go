package columnar

import (
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
)

// ErrWriterClosed is returned when writing to a closed writer.
var ErrWriterClosed = errors.New("columnar: writer is already closed")

// Writer appends batches to a parquet stream. The schema is fixed when the
// writer is created; every batch must match it.
type Writer struct {
	schema *Schema
	pw     *parquet.Writer
	rows   int64
	closed bool
}

// NewWriter starts a snappy-compressed parquet stream on w. Page statistics
// are disabled; the files are only ever scanned front to back.
func NewWriter(w io.Writer, schema *Schema) *Writer {
	pw := parquet.NewWriter(w,
		schema.pq,
		parquet.Compression(&parquet.Snappy),
		parquet.DataPageStatistics(false),
	)
	return &Writer{schema: schema, pw: pw}
}

// Schema returns the schema the writer was created with.
func (w *Writer) Schema() *Schema { return w.schema }

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int64 { return w.rows }

// Write appends one batch as its own row group.
func (w *Writer) Write(b *Batch) error {
	if w.closed {
		return ErrWriterClosed
	}
	if !w.schema.Equal(b.Schema()) {
		return fmt.Errorf("%w: writer has %s, batch has %s", internalerr.ErrSchemaMismatch, w.schema, b.Schema())
	}
	if b.NumRows() == 0 {
		return nil
	}

	rows := make([]parquet.Row, b.NumRows())
	leaves := w.schema.pq.Fields()
	for r := range rows {
		rows[r] = make(parquet.Row, 0, len(leaves))
	}
	for col, leaf := range leaves {
		c, _ := b.Column(leaf.Name())
		kind := w.schema.fields[w.fieldPos(leaf.Name())].Kind
		for r := range rows {
			v := coerce(c.Values[r], kind)
			if v == nil {
				rows[r] = append(rows[r], parquet.NullValue().Level(0, 0, col))
				continue
			}
			rows[r] = append(rows[r], parquet.ValueOf(v).Level(0, 1, col))
		}
	}

	if _, err := w.pw.WriteRows(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err := w.pw.Flush(); err != nil {
		return fmt.Errorf("flush row group: %w", err)
	}
	w.rows += int64(len(rows))
	return nil
}

func (w *Writer) fieldPos(name string) int {
	for i, f := range w.schema.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Close writes the footer. It does not close the underlying io.Writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.pw.Close()
}

package columnar

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
)

func reviewBatch(t *testing.T, asins []string, overall []any) *Batch {
	t.Helper()
	b, err := NewBatch(
		StringColumn("asin", asins),
		Column{Field: Field{Name: "overall", Kind: Double}, Values: overall},
	)
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	return b
}

func writeFile(t *testing.T, path string, batches ...*Batch) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	w := NewWriter(f, batches[0].Schema())
	for _, b := range batches {
		if err := w.Write(b); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestWriteReadAcrossRowGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.parquet")
	writeFile(t, path,
		reviewBatch(t, []string{"A1", "A2"}, []any{5.0, nil}),
		reviewBatch(t, []string{"A3"}, []any{3.0}),
	)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.NumRows() != 3 {
		t.Fatalf("Expected 3 rows in footer, got %d", r.NumRows())
	}

	var asins []string
	var overall []any
	for {
		b, err := r.Next(2)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		asins = append(asins, b.Strings("asin")...)
		c, _ := b.Column("overall")
		overall = append(overall, c.Values...)
	}

	want := []string{"A1", "A2", "A3"}
	if len(asins) != len(want) {
		t.Fatalf("Expected %v, got %v", want, asins)
	}
	for i := range want {
		if asins[i] != want[i] {
			t.Errorf("Row %d: expected %q, got %q", i, want[i], asins[i])
		}
	}
	if overall[1] != nil {
		t.Errorf("Null should round-trip as nil, got %v", overall[1])
	}
	if overall[2] != 3.0 {
		t.Errorf("Expected 3.0, got %v", overall[2])
	}
}

func TestWriterRejectsSchemaMismatch(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := NewWriter(f, NewSchema(Field{Name: "asin", Kind: String}))
	defer w.Close()

	err = w.Write(reviewBatch(t, []string{"A1"}, []any{1.0}))
	if !errors.Is(err, internalerr.ErrSchemaMismatch) {
		t.Fatalf("Expected ErrSchemaMismatch, got %v", err)
	}
}

func TestSchemaEqualIgnoresOrder(t *testing.T) {
	a := NewSchema(Field{"asin", String}, Field{"overall", Double})
	b := NewSchema(Field{"overall", Double}, Field{"asin", String})
	if !a.Equal(b) {
		t.Error("Schemas with the same fields should be equal")
	}
	c := NewSchema(Field{"overall", Int64}, Field{"asin", String})
	if a.Equal(c) {
		t.Error("Schemas with different kinds should differ")
	}
}

func TestBatchFilterAndSelect(t *testing.T) {
	b := reviewBatch(t, []string{"A1", "A2", "A3"}, []any{1.0, 2.0, 3.0})

	kept := b.Filter([]bool{true, false, true})
	if kept.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", kept.NumRows())
	}
	if got := kept.Strings("asin"); got[0] != "A1" || got[1] != "A3" {
		t.Errorf("Filter should preserve order, got %v", got)
	}

	sel := kept.Select("overall", "missing")
	if names := sel.Schema().Names(); len(names) != 1 || names[0] != "overall" {
		t.Errorf("Select should skip missing columns, got %v", names)
	}
}

func TestNewBatchRejectsRaggedColumns(t *testing.T) {
	_, err := NewBatch(
		StringColumn("a", []string{"x", "y"}),
		StringColumn("b", []string{"x"}),
	)
	if err == nil {
		t.Error("Ragged columns should be rejected")
	}
}

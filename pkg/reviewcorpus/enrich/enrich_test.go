package enrich

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columnar"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/normalize"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/stats"
)

// upperNormalizer counts calls and upper-cases its input.
type upperNormalizer struct{ calls atomic.Int64 }

func (u *upperNormalizer) Normalize(texts []string) []string {
	u.calls.Add(1)
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ToUpper(t)
	}
	return out
}

func writeParquet(t *testing.T, path string, cols ...columnar.Column) {
	t.Helper()
	b, err := columnar.NewBatch(cols...)
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := columnar.NewWriter(f, b.Schema())
	if err := w.Write(b); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func ingested(t *testing.T, dir, id string) {
	t.Helper()
	writeParquet(t, filepath.Join(dir, id+".json.parquet"),
		columnar.StringColumn("clean_summary", []string{"great", "", "", "nice"}),
		columnar.StringColumn("clean_review", []string{"works well", "", "battery died", ""}),
		columnar.StringColumn("reviewText", []string{"Works well.", "", "Battery died!", ""}),
		columnar.StringColumn("asin", []string{"A1", "A2", "A3", "A4"}),
		columnar.Column{Field: columnar.Field{Name: "overall", Kind: columnar.Double}, Values: []any{5.0, 3.0, 1.0, 4.0}},
		columnar.StringColumn("source", []string{id, id, id, id}),
	)
}

func newEnricher(t *testing.T, in, out string, n Normalizer) *Enricher {
	t.Helper()
	e, err := New(Options{InputDir: in, OutDir: out, Tag: "spacy", BatchSize: 3, Workers: 2, Normalizer: n})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func readAll(t *testing.T, path string) *columnar.Batch {
	t.Helper()
	r, err := columnar.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	b, err := r.Next(100)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return b
}

func TestEnrichJoinsAndNormalizes(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	ingested(t, in, "Books")
	ingested(t, in, "Toys")

	st, err := newEnricher(t, in, out, &upperNormalizer{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Written() != 2 || st.Failed() != 0 {
		t.Errorf("Expected 2 written, got written=%d failed=%d", st.Written(), st.Failed())
	}

	b := readAll(t, filepath.Join(out, "Books_spacy.parquet"))
	if got := b.Schema().Names(); len(got) != 4 {
		t.Fatalf("Expected 4 columns, got %v", got)
	}
	want := []string{"GREAT WORKS WELL", "", "BATTERY DIED", "NICE"}
	got := b.Strings("clean_embedding_text")
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if b.Strings("asin")[3] != "A4" || b.Strings("source")[0] != "Books" {
		t.Error("Passthrough columns should be copied unchanged")
	}
	if col, _ := b.Column("overall"); col.Values[0] != 5.0 {
		t.Errorf("Expected overall 5.0, got %#v", col.Values[0])
	}
}

func TestRerunSkipsEnrichedFiles(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	ingested(t, in, "Books")

	if _, err := newEnricher(t, in, out, &upperNormalizer{}).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	norm := &upperNormalizer{}
	st, err := newEnricher(t, in, out, norm).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if st.Skipped() != 1 || norm.calls.Load() != 0 {
		t.Errorf("Expected a skip without normalizing, got skipped=%d calls=%d", st.Skipped(), norm.calls.Load())
	}
}

func TestMissingPassthroughBecomesNull(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeParquet(t, filepath.Join(in, "Kitchen.json.parquet"),
		columnar.StringColumn("clean_review", []string{"loud"}),
		columnar.StringColumn("source", []string{"Kitchen"}),
	)

	if _, err := newEnricher(t, in, out, &upperNormalizer{}).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	b := readAll(t, filepath.Join(out, "Kitchen_spacy.parquet"))
	for _, name := range []string{"clean_embedding_text", "asin", "source", "overall"} {
		if !b.Schema().Has(name) {
			t.Errorf("Missing column %q", name)
		}
	}
	if col, _ := b.Column("asin"); col.Values[0] != nil {
		t.Errorf("Expected null asin, got %#v", col.Values[0])
	}
	if b.Strings("clean_embedding_text")[0] != "LOUD" {
		t.Errorf("Unexpected text %q", b.Strings("clean_embedding_text")[0])
	}
}

func TestFailedFileDoesNotBlockOthers(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	ingested(t, in, "Books")
	if err := os.WriteFile(filepath.Join(in, "Broken.json.parquet"), []byte("not parquet"), 0o644); err != nil {
		t.Fatal(err)
	}
	ingested(t, in, "Toys")

	st, err := newEnricher(t, in, out, &upperNormalizer{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Failed() != 1 || st.Written() != 2 {
		t.Errorf("Expected 1 failed and 2 written, got %d and %d", st.Failed(), st.Written())
	}
	for _, p := range []string{"Broken_spacy.parquet", "Broken.temp_spacy.parquet"} {
		if _, err := os.Stat(filepath.Join(out, p)); err == nil {
			t.Errorf("%s should not exist", p)
		}
	}
}

func TestStaleTempIsReplaced(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	ingested(t, in, "Books")
	temp := TempPath(out, "Books", "spacy")
	if err := os.WriteFile(temp, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := newEnricher(t, in, out, &upperNormalizer{}).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(temp); err == nil {
		t.Error("Stale temp should be gone")
	}
	if b := readAll(t, FinalPath(out, "Books", "spacy")); b.NumRows() != 4 {
		t.Errorf("Expected 4 rows, got %d", b.NumRows())
	}
}

func TestEmptyInputLeavesNothing(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	f, err := os.Create(filepath.Join(in, "Empty.json.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	w := columnar.NewWriter(f, columnar.NewSchema(columnar.Field{Name: "clean_review", Kind: columnar.String}))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	e := newEnricher(t, in, out, &upperNormalizer{})
	st := stats.New("enrich")
	if err := e.EnrichFile(context.Background(), filepath.Join(in, "Empty.json.parquet"), st); err != nil {
		t.Fatalf("EnrichFile: %v", err)
	}
	if st.Empty() != 1 {
		t.Errorf("Expected empty outcome, got %d", st.Empty())
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("Expected no output files, found %d", len(entries))
	}
}

func TestWithRealNormalizer(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	ingested(t, in, "Books")

	if _, err := newEnricher(t, in, out, normalize.New(nil, nil)).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	b := readAll(t, FinalPath(out, "Books", "spacy"))
	if got := b.Strings("clean_embedding_text")[2]; got != "battery died" {
		t.Errorf("Unexpected normalized text %q", got)
	}
}

func TestInputsAndNaming(t *testing.T) {
	in := t.TempDir()
	for _, name := range []string{
		"Books.json.parquet",
		"Toys.json.temp.parquet",
		"Heat.temperature.json.parquet",
		"dataset_embedding_spacy.parquet",
		"Kindle_spacy.parquet",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(in, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	e := newEnricher(t, in, in, &upperNormalizer{})
	got, err := e.Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	if len(got) != 2 || filepath.Base(got[0]) != "Books.json.parquet" ||
		filepath.Base(got[1]) != "Heat.temperature.json.parquet" {
		t.Errorf("Unexpected inputs: %v", got)
	}

	if SourceID("/data/Books.json.parquet") != "Books" {
		t.Errorf("Unexpected id %q", SourceID("/data/Books.json.parquet"))
	}
	if FinalPath("out", "Books", "spacy") != filepath.Join("out", "Books_spacy.parquet") {
		t.Error("Unexpected final path")
	}
	if TempPath("out", "Books", "spacy") != filepath.Join("out", "Books.temp_spacy.parquet") {
		t.Error("Unexpected temp path")
	}
}

package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEnumerateSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Toys.json"), "")
	touch(t, filepath.Join(dir, "Books.json.gz"), "")
	touch(t, filepath.Join(dir, "notes.txt"), "")
	touch(t, filepath.Join(dir, ".json"), "")
	if err := os.Mkdir(filepath.Join(dir, "Dir.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Enumerate(dir, nil)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d: %+v", len(files), files)
	}

	if files[0].ID != "Books" || files[0].Stem != "Books.json" {
		t.Errorf("Unexpected first file: %+v", files[0])
	}
	if files[1].ID != "Toys" || files[1].Stem != "Toys.json" {
		t.Errorf("Unexpected second file: %+v", files[1])
	}
	if files[1].Order != 1 {
		t.Errorf("Expected discovery order 1, got %d", files[1].Order)
	}
}

func TestEnumerateEmptyIsNotError(t *testing.T) {
	files, err := Enumerate(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Empty dir should not error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Expected no files, got %d", len(files))
	}
}

func TestReaderBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Books.json")
	touch(t, path, `{"reviewText":"one","overall":5.0}
{"reviewText":"two"}

{"reviewText":"three","unixReviewTime":1400000000}
`)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	first, err := r.Next(2)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(first))
	}

	second, err := r.Next(2)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(second) != 1 || second[0]["reviewText"] != "three" {
		t.Errorf("Unexpected second batch: %v", second)
	}

	if _, err := r.Next(2); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestReaderGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Books.json.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(`{"reviewText":"zipped"}` + "\n")); err != nil {
		t.Fatal(err)
	}
	gz.Close()
	f.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	recs, err := r.Next(10)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(recs) != 1 || recs[0]["reviewText"] != "zipped" {
		t.Errorf("Unexpected records: %v", recs)
	}
}

func TestReaderMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Bad.json")
	touch(t, path, "{\"reviewText\":\"ok\"}\n{not json\n")

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	_, err = r.Next(10)
	if !errors.Is(err, internalerr.ErrMalformedSource) {
		t.Errorf("Expected ErrMalformedSource, got %v", err)
	}
}

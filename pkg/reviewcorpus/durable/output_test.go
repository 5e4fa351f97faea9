package durable

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columnar"
)

func paths(t *testing.T) (string, string) {
	dir := t.TempDir()
	return filepath.Join(dir, "Books.json.parquet"), filepath.Join(dir, "Books.json.temp.parquet")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func batch(t *testing.T, values ...string) *columnar.Batch {
	t.Helper()
	b, err := columnar.NewBatch(columnar.StringColumn("clean_review", values))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestCommitPromotesTemp(t *testing.T) {
	final, temp := paths(t)

	out, err := Begin(final, temp)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer out.Close()

	if err := out.Write(batch(t, "great", "fine")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !exists(temp) {
		t.Fatal("Temp file should exist while writing")
	}

	ok, err := out.Commit()
	if err != nil || !ok {
		t.Fatalf("Commit: ok=%v err=%v", ok, err)
	}
	if exists(temp) {
		t.Error("Temp file should be gone after commit")
	}
	_, rows, err := columnar.Stat(final)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if rows != 2 {
		t.Errorf("Expected 2 rows, got %d", rows)
	}
}

func TestBeginSkipsCompleteOutput(t *testing.T) {
	final, temp := paths(t)
	if err := os.WriteFile(final, []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Begin(final, temp)
	if !errors.Is(err, ErrComplete) {
		t.Fatalf("Expected ErrComplete, got %v", err)
	}
}

func TestBeginDiscardsStaleTemp(t *testing.T) {
	final, temp := paths(t)
	if err := os.WriteFile(temp, []byte("partial garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := Begin(final, temp)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer out.Close()

	if !out.Stale() {
		t.Error("Stale temp should be reported")
	}
	if exists(temp) {
		t.Error("Stale temp should be deleted before work starts")
	}
}

func TestEmptyBatchesNeverCreateFile(t *testing.T) {
	final, temp := paths(t)

	out, err := Begin(final, temp)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	if err := out.Write(batch(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if exists(temp) {
		t.Error("Empty first batch must not create a writer")
	}

	ok, err := out.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if ok {
		t.Error("Commit with no rows should report false")
	}
	if exists(final) || exists(temp) {
		t.Error("No artifact should remain for an empty output")
	}
}

func TestCloseWithoutCommitDiscards(t *testing.T) {
	final, temp := paths(t)

	out, err := Begin(final, temp)
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Write(batch(t, "partial")); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if exists(temp) || exists(final) {
		t.Error("Abandoned output should leave nothing behind")
	}
}

func TestReplaceOverwritesFinal(t *testing.T) {
	final, temp := paths(t)
	if err := os.WriteFile(final, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := Replace(final, temp)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if err := out.Write(batch(t, "new")); err != nil {
		t.Fatal(err)
	}
	if _, err := out.Commit(); err != nil {
		t.Fatal(err)
	}

	_, rows, err := columnar.Stat(final)
	if err != nil {
		t.Fatalf("Final should be a parquet file now: %v", err)
	}
	if rows != 1 {
		t.Errorf("Expected 1 row, got %d", rows)
	}
}

func TestIsTemp(t *testing.T) {
	cases := map[string]bool{
		"Books.json.temp.parquet":              true,
		"Books.temp_spacy.parquet":             true,
		"dataset_embedding_spacy.temp.parquet": true,
		"Books.json.parquet":                   false,
		"Books_spacy.parquet":                  false,
		"Heat.temperature.json.parquet":        false,
		"Heat.temperature_spacy.parquet":       false,
		"Books.temp_.parquet":                  false,
		"Books.json.temp":                      false,
		"processed_spacy_sources.txt":          false,
	}
	for name, want := range cases {
		if got := IsTemp(name); got != want {
			t.Errorf("IsTemp(%q) = %v, want %v", name, got, want)
		}
	}
}

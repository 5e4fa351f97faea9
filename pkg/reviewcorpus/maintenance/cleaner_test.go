package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func place(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCleanerRemovesLeftovers(t *testing.T) {
	processed, enriched := t.TempDir(), t.TempDir()
	keep := []string{
		place(t, processed, "Books.json.parquet", "data"),
		place(t, processed, "Heat.temperature.json.parquet", "data"),
		place(t, enriched, "Books_spacy.parquet", "data"),
		place(t, enriched, "dataset_embedding_spacy.parquet", "data"),
		place(t, enriched, "processed_spacy_sources.txt", "Books_spacy\n"),
	}
	gone := []string{
		place(t, processed, "Toys.json.temp.parquet", "partial"),
		place(t, enriched, "Toys.temp_spacy.parquet", "partial"),
	}

	c := &Cleaner{Dirs: []string{processed, enriched, enriched, filepath.Join(processed, "missing")}}
	res, err := c.Clean(context.Background())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(res.Removed) != len(gone) || res.Errors != 0 {
		t.Errorf("Expected %d removals and no errors, got %+v", len(gone), res)
	}
	if res.Scanned != 7 {
		t.Errorf("Expected 7 scanned files, got %d", res.Scanned)
	}
	for _, p := range gone {
		if _, err := os.Stat(p); err == nil {
			t.Errorf("%s should be removed", p)
		}
	}
	for _, p := range keep {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should be kept", p)
		}
	}
}

func TestCleanerRemovesEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	corpus := place(t, dir, "dataset_embedding_spacy.parquet", "")

	res, err := (&Cleaner{Dirs: []string{dir}}).Clean(context.Background())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(res.Removed) != 1 {
		t.Errorf("Expected empty corpus removed, got %+v", res)
	}
	if _, err := os.Stat(corpus); err == nil {
		t.Error("Empty corpus should be gone")
	}
}

func TestCleanerDryRun(t *testing.T) {
	dir := t.TempDir()
	temp := place(t, dir, "Toys.json.temp.parquet", "partial")

	res, err := (&Cleaner{Dirs: []string{dir}, DryRun: true}).Clean(context.Background())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(res.Removed) != 1 {
		t.Errorf("Expected 1 reported removal, got %+v", res)
	}
	if _, err := os.Stat(temp); err != nil {
		t.Error("Dry run should not remove files")
	}
}

func TestCleanerInvalidConfig(t *testing.T) {
	if _, err := (&Cleaner{}).Clean(context.Background()); err == nil {
		t.Error("Expected error without directories")
	}
}

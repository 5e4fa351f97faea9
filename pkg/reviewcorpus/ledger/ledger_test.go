package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
)

func openBoth(t *testing.T) map[string]Ledger {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	out := make(map[string]Ledger)
	for _, backend := range []string{Text, SQLite} {
		l, err := Open(ctx, backend, Path(dir, "spacy", backend), "run-1")
		if err != nil {
			t.Fatalf("Open %s: %v", backend, err)
		}
		t.Cleanup(func() { l.Close() })
		out[backend] = l
	}
	return out
}

func TestAppendAndLoadPreservesOrder(t *testing.T) {
	ctx := context.Background()
	for backend, l := range openBoth(t) {
		t.Run(backend, func(t *testing.T) {
			ids, err := l.Load(ctx)
			if err != nil {
				t.Fatalf("Load empty: %v", err)
			}
			if len(ids) != 0 {
				t.Fatalf("Expected empty ledger, got %v", ids)
			}

			if err := l.Append(ctx, "Toys_spacy", "Books_spacy"); err != nil {
				t.Fatalf("Append: %v", err)
			}
			if err := l.Append(ctx, "Books_spacy", "", "Kindle_spacy"); err != nil {
				t.Fatalf("Append: %v", err)
			}

			ids, err = l.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			want := []string{"Toys_spacy", "Books_spacy", "Kindle_spacy"}
			if len(ids) != len(want) {
				t.Fatalf("Expected %v, got %v", want, ids)
			}
			for i := range want {
				if ids[i] != want[i] {
					t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
				}
			}
		})
	}
}

func TestTextLedgerFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed_spacy_sources.txt")
	if err := os.WriteFile(path, []byte("Books_spacy\n  \nToys_spacy  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := OpenText(path)
	if err := l.Append(ctx, "Kindle_spacy"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Books_spacy\n  \nToys_spacy  \nKindle_spacy\n" {
		t.Errorf("Unexpected ledger contents: %q", data)
	}

	ids, err := l.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 3 || ids[1] != "Toys_spacy" {
		t.Errorf("Expected trimmed ids, got %v", ids)
	}
}

func TestSQLiteLedgerRecordsRun(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := OpenSQLite(ctx, path, "run-a")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := l.Append(ctx, "Books"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	l.Close()

	l, err = OpenSQLite(ctx, path, "run-b")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()
	if err := l.Append(ctx, "Books", "Toys"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	runs, err := l.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if runs["Books"] != "run-a" || runs["Toys"] != "run-b" {
		t.Errorf("Unexpected runs: %v", runs)
	}
}

func TestUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "csv", "x", "")
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestPath(t *testing.T) {
	if got := Path("out", "spacy", Text); got != filepath.Join("out", "processed_spacy_sources.txt") {
		t.Errorf("Unexpected text path %q", got)
	}
	if got := Path("out", "spacy", SQLite); got != filepath.Join("out", "processed_spacy_sources.db") {
		t.Errorf("Unexpected sqlite path %q", got)
	}
}

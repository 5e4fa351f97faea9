// Package ledger records which per-source files have been folded into the
// consolidated corpus. Entries are only ever appended, and only after the
// corresponding rows are durable in the corpus file.
package ledger

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
)

// Backend names.
const (
	Text   = "text"
	SQLite = "sqlite"
)

// Ledger is an append-only, ordered set of merged source identifiers.
type Ledger interface {
	// Load returns every recorded identifier in the order it was appended.
	// A ledger that does not exist yet is empty.
	Load(ctx context.Context) ([]string, error)
	// Append durably records ids. Identifiers already present are ignored.
	Append(ctx context.Context, ids ...string) error
	Close() error
}

// Path returns the ledger location for a corpus directory and tag.
func Path(dir, tag, backend string) string {
	name := fmt.Sprintf("processed_%s_sources", tag)
	if backend == SQLite {
		return filepath.Join(dir, name+".db")
	}
	return filepath.Join(dir, name+".txt")
}

// Open opens the ledger for backend at path. runID is stored with each
// entry by backends that keep metadata.
func Open(ctx context.Context, backend, path, runID string) (Ledger, error) {
	switch backend {
	case "", Text:
		return OpenText(path), nil
	case SQLite:
		l, err := OpenSQLite(ctx, path, runID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrLedgerUnavailable, err)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("%w: unknown ledger backend %q", internalerr.ErrInvalidConfig, backend)
	}
}

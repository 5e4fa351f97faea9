package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
)

// TextLedger keeps one identifier per line in a plain file.
type TextLedger struct {
	path string
}

// OpenText returns a ledger backed by the file at path. The file is created
// on the first Append.
func OpenText(path string) *TextLedger {
	return &TextLedger{path: path}
}

// Load reads the identifiers, trimming whitespace and skipping blank lines.
func (l *TextLedger) Load(ctx context.Context) ([]string, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrLedgerUnavailable, err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", internalerr.ErrLedgerUnavailable, l.path, err)
	}
	return ids, nil
}

// Append writes ids that are not yet recorded and syncs the file.
func (l *TextLedger) Append(ctx context.Context, ids ...string) error {
	existing, err := l.Load(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		seen[id] = struct{}{}
	}

	var b strings.Builder
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		b.WriteString(id)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrLedgerUnavailable, err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", l.path, err)
	}
	return f.Close()
}

// Close is a no-op; the file is only open during Load and Append.
func (l *TextLedger) Close() error { return nil }

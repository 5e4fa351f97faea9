package ledger

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteLedger stores entries in an embedded database together with the
// run that merged them.
type SQLiteLedger struct {
	db    *sql.DB
	runID string
}

// OpenSQLite opens a SQLite ledger with WAL mode enabled.
func OpenSQLite(ctx context.Context, path, runID string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	// Appends must be on disk before Append returns.
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous=FULL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteLedger{db: db, runID: runID}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS merged_sources (
	position INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT UNIQUE NOT NULL,
	run_id TEXT,
	merged_at TEXT NOT NULL
);`)
	return err
}

// Close closes the database connection
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// Load returns the identifiers in append order.
func (l *SQLiteLedger) Load(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT source FROM merged_sources ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Append records ids in one transaction.
func (l *SQLiteLedger) Append(ctx context.Context, ids ...string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO merged_sources(source, run_id, merged_at) VALUES(?, ?, ?)
ON CONFLICT(source) DO NOTHING;`, id, l.runID, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Runs returns, for each recorded identifier, the run that merged it.
func (l *SQLiteLedger) Runs(ctx context.Context) (map[string]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT source, COALESCE(run_id, '') FROM merged_sources`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, run string
		if err := rows.Scan(&id, &run); err != nil {
			return nil, err
		}
		out[id] = run
	}
	return out, rows.Err()
}

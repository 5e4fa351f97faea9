// Package durable implements the temp-then-rename output used by every
// stage. An Output is acquired for one unit of work and must be closed on
// every exit path: Commit promotes the temp file to its final name, Close
// without a successful Commit deletes the temp file.
//
// A final file is the single source of truth for "this unit is done". A
// temp file is never trusted as partial progress.
package durable

import (
	"errors"
	"fmt"
	"os"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columnar"
)

// ErrComplete is returned by Begin when the final output already exists.
var ErrComplete = errors.New("durable: final output already exists")

// Output is a lazily created parquet file that only becomes visible under
// its final name after Commit.
type Output struct {
	final string
	temp  string
	stale bool

	f      *os.File
	w      *columnar.Writer
	done   bool
	closed bool
}

// Begin acquires the output for a unit of work that runs at most once.
// It returns ErrComplete if the final file exists. A leftover temp file is
// deleted before returning.
func Begin(final, temp string) (*Output, error) {
	if _, err := os.Stat(final); err == nil {
		return nil, ErrComplete
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", final, err)
	}
	return Replace(final, temp)
}

// Replace acquires the output for a unit of work whose result replaces the
// final file, if any, on Commit. A leftover temp file is deleted.
func Replace(final, temp string) (*Output, error) {
	o := &Output{final: final, temp: temp}
	err := os.Remove(temp)
	switch {
	case err == nil:
		o.stale = true
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("remove stale %s: %w", temp, err)
	}
	return o, nil
}

// Stale reports whether a temp file from an interrupted run was discarded.
func (o *Output) Stale() bool { return o.stale }

// FinalPath returns the path the output is promoted to.
func (o *Output) FinalPath() string { return o.final }

// TempPath returns the in-progress path.
func (o *Output) TempPath() string { return o.temp }

// Rows returns the number of rows written so far.
func (o *Output) Rows() int64 {
	if o.w == nil {
		return 0
	}
	return o.w.Rows()
}

// Schema returns the fixed output schema, or nil before the first write.
func (o *Output) Schema() *columnar.Schema {
	if o.w == nil {
		return nil
	}
	return o.w.Schema()
}

// Write appends a batch. Empty batches are dropped; the first non-empty
// batch creates the temp file and fixes the schema.
func (o *Output) Write(b *columnar.Batch) error {
	if o.done || o.closed {
		return columnar.ErrWriterClosed
	}
	if b.NumRows() == 0 {
		return nil
	}
	if o.w == nil {
		f, err := os.Create(o.temp)
		if err != nil {
			return fmt.Errorf("create %s: %w", o.temp, err)
		}
		o.f = f
		o.w = columnar.NewWriter(f, b.Schema())
	}
	return o.w.Write(b)
}

// Commit finishes the unit of work. If rows were written the temp file is
// flushed, synced and renamed over the final path and Commit reports true.
// If nothing was written no file is left behind and Commit reports false.
func (o *Output) Commit() (bool, error) {
	if o.done || o.closed {
		return false, columnar.ErrWriterClosed
	}
	o.done = true

	if o.w == nil {
		return false, removeIfExists(o.temp)
	}

	if err := o.w.Close(); err != nil {
		o.discard()
		return false, fmt.Errorf("close writer: %w", err)
	}
	if err := o.f.Sync(); err != nil {
		o.discard()
		return false, fmt.Errorf("sync %s: %w", o.temp, err)
	}
	if err := o.f.Close(); err != nil {
		o.f = nil
		o.discard()
		return false, fmt.Errorf("close %s: %w", o.temp, err)
	}
	o.f = nil
	if err := os.Rename(o.temp, o.final); err != nil {
		o.discard()
		return false, fmt.Errorf("promote %s: %w", o.temp, err)
	}
	return true, nil
}

// Close discards the temp file unless Commit already succeeded or ran.
// It is safe to call more than once and is meant to be deferred.
func (o *Output) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	if o.done {
		return nil
	}
	return o.discard()
}

func (o *Output) discard() error {
	if o.w != nil {
		_ = o.w.Close()
	}
	if o.f != nil {
		_ = o.f.Close()
		o.f = nil
	}
	return removeIfExists(o.temp)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Package stats holds the counters each stage reports when it finishes.
package stats

import (
	"sync/atomic"

	"go.uber.org/zap/zapcore"
)

// Stats provides stage statistics with thread-safe access.
// Counter fields use atomic operations for safe concurrent access from worker goroutines.
type Stats struct {
	stage string

	files   atomic.Int64
	skipped atomic.Int64
	written atomic.Int64
	empty   atomic.Int64
	failed  atomic.Int64

	rowsRead    atomic.Int64
	rowsKept    atomic.Int64
	rowsWritten atomic.Int64
}

// New creates zeroed counters for the named stage.
func New(stage string) *Stats {
	return &Stats{stage: stage}
}

// Stage returns the stage name.
func (s *Stats) Stage() string { return s.stage }

// Files returns the number of inputs the stage considered.
func (s *Stats) Files() int64 { return s.files.Load() }

// Skipped returns the number of inputs whose output already existed.
func (s *Stats) Skipped() int64 { return s.skipped.Load() }

// Written returns the number of outputs committed.
func (s *Stats) Written() int64 { return s.written.Load() }

// Empty returns the number of inputs that produced no rows.
func (s *Stats) Empty() int64 { return s.empty.Load() }

// Failed returns the number of inputs that were abandoned.
func (s *Stats) Failed() int64 { return s.failed.Load() }

// RowsRead returns the number of input rows read.
func (s *Stats) RowsRead() int64 { return s.rowsRead.Load() }

// RowsKept returns the number of rows that passed filtering.
func (s *Stats) RowsKept() int64 { return s.rowsKept.Load() }

// RowsDiscarded returns the number of rows removed by filtering.
func (s *Stats) RowsDiscarded() int64 { return s.rowsRead.Load() - s.rowsKept.Load() }

// RowsWritten returns the number of rows durably written.
func (s *Stats) RowsWritten() int64 { return s.rowsWritten.Load() }

// Increment methods return the new value after incrementing.
func (s *Stats) AddFiles(n int64) int64       { return s.files.Add(n) }
func (s *Stats) AddSkipped(n int64) int64     { return s.skipped.Add(n) }
func (s *Stats) AddWritten(n int64) int64     { return s.written.Add(n) }
func (s *Stats) AddEmpty(n int64) int64       { return s.empty.Add(n) }
func (s *Stats) AddFailed(n int64) int64      { return s.failed.Add(n) }
func (s *Stats) AddRowsRead(n int64) int64    { return s.rowsRead.Add(n) }
func (s *Stats) AddRowsKept(n int64) int64    { return s.rowsKept.Add(n) }
func (s *Stats) AddRowsWritten(n int64) int64 { return s.rowsWritten.Add(n) }

// MarshalLogObject implements zapcore.ObjectMarshaler for structured logging.
func (s *Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("stage", s.stage)
	enc.AddInt64("files", s.Files())
	enc.AddInt64("skipped", s.Skipped())
	enc.AddInt64("written", s.Written())
	enc.AddInt64("empty", s.Empty())
	enc.AddInt64("failed", s.Failed())
	enc.AddInt64("rows_read", s.RowsRead())
	enc.AddInt64("rows_kept", s.RowsKept())
	enc.AddInt64("rows_discarded", s.RowsDiscarded())
	enc.AddInt64("rows_written", s.RowsWritten())
	return nil
}

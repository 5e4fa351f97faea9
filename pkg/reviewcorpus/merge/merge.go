// Package merge folds per-source parquet files into one consolidated
// corpus file and records every folded source in a ledger.
//
// Parquet files cannot be extended in place, so each new source rewrites
// the corpus through a temp file: the existing corpus first, then the
// source. The source is recorded in the ledger only after the new corpus
// has been renamed into place, so every recorded identifier always
// has its rows in the corpus on disk. A pending marker written just before
// the rename lets the next run record identifiers whose rows reached the
// corpus when the process died before the ledger append.
package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columnar"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/durable"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/ledger"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/stats"
)

// DefaultBatchSize is the number of rows copied per batch.
const DefaultBatchSize = 50000

// CorpusPrefix starts the name of every consolidated file.
const CorpusPrefix = "dataset_embedding"

// Options configures a Merger.
type Options struct {
	// InputDir holds the per-source files to consolidate.
	InputDir string
	// OutDir receives the consolidated file.
	OutDir    string
	Tag       string
	BatchSize int
	Ledger    ledger.Ledger
	Logger    *zap.Logger
}

// Merger runs the consolidation stage. It is not safe for concurrent use;
// only one merge may run against a corpus at a time.
type Merger struct {
	opts Options
	log  *zap.Logger
}

// Candidate is a per-source file eligible for merging.
type Candidate struct {
	ID   string
	Path string
}

// New validates opts and creates a Merger.
func New(opts Options) (*Merger, error) {
	if opts.InputDir == "" || opts.OutDir == "" {
		return nil, fmt.Errorf("%w: merge needs input and output directories", internalerr.ErrInvalidConfig)
	}
	if opts.Ledger == nil {
		return nil, fmt.Errorf("%w: merge needs a ledger", internalerr.ErrInvalidConfig)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Merger{opts: opts, log: log.With(zap.String("component", "merge"))}, nil
}

// CorpusPath returns the consolidated file for a tag.
func CorpusPath(dir, tag string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.parquet", CorpusPrefix, tag))
}

func corpusTempPath(dir, tag string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.temp.parquet", CorpusPrefix, tag))
}

// Candidates lists the finished per-source files in dir, sorted by name.
// Temp files and consolidated files are never candidates.
func Candidates(dir string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var out []Candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		if durable.IsTemp(name) || strings.HasPrefix(name, CorpusPrefix) {
			continue
		}
		out = append(out, Candidate{
			ID:   strings.TrimSuffix(name, ".parquet"),
			Path: filepath.Join(dir, name),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Run merges every candidate not yet in the ledger. Having nothing new to
// merge is a normal outcome. A candidate that cannot be read in full or
// whose schema differs from the corpus is logged, counted as failed and
// left for a later run. Each source is committed and recorded before the
// next starts, so an error or crash keeps the sources already recorded. A
// source whose rows were committed but not recorded is settled by the next
// run from the pending marker.
func (m *Merger) Run(ctx context.Context) (*stats.Stats, error) {
	st := stats.New("merge")
	corpus := CorpusPath(m.opts.OutDir, m.opts.Tag)
	log := m.log.With(zap.String("corpus", filepath.Base(corpus)))

	exists, removed, err := dropTruncated(corpus)
	if err != nil {
		return st, err
	}
	if removed {
		log.Warn("deleted empty consolidated file, recreating it")
	}

	recorded, err := m.opts.Ledger.Load(ctx)
	if err != nil {
		return st, fmt.Errorf("load ledger: %w", err)
	}
	if recorded, err = m.settle(ctx, corpus, exists, recorded); err != nil {
		return st, err
	}
	log.Info("ledger loaded", zap.Int("entries", len(recorded)))

	candidates, err := Candidates(m.opts.InputDir)
	if err != nil {
		return st, err
	}
	done := make(map[string]struct{}, len(recorded))
	for _, id := range recorded {
		done[id] = struct{}{}
	}
	var pending []Candidate
	for _, c := range candidates {
		if _, ok := done[c.ID]; !ok {
			pending = append(pending, c)
		}
	}
	st.AddFiles(int64(len(pending)))
	st.AddSkipped(int64(len(candidates) - len(pending)))

	if len(pending) == 0 {
		if exists {
			log.Info("no files to add")
		} else {
			log.Info("nothing to merge")
		}
		return st, nil
	}
	log.Info("found new files", zap.Int("count", len(pending)), zap.Bool("corpus_exists", exists))

	var authority *columnar.Schema
	var base int64
	if exists {
		if authority, base, err = columnar.Stat(corpus); err != nil {
			return st, fmt.Errorf("read existing corpus: %w", err)
		}
	}

	var added int
	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		flog := log.With(zap.String("source", c.ID))

		schema, n, err := m.verify(ctx, c.Path)
		if err != nil {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			flog.Error("cannot read file, skipping", zap.Error(err))
			st.AddFailed(1)
			continue
		}
		if authority == nil {
			authority = schema
		}
		if !authority.Equal(schema) {
			flog.Error("file does not match the corpus schema, skipping",
				zap.Error(internalerr.ErrSchemaMismatch),
				zap.Stringer("corpus_schema", authority),
				zap.Stringer("file_schema", schema))
			st.AddFailed(1)
			continue
		}

		flog.Info("appending", zap.Int64("rows", n))
		st.AddRowsRead(n)
		st.AddRowsKept(n)
		if n > 0 {
			if err := m.rewrite(corpus, exists, base+n, c); err != nil {
				return st, err
			}
			exists = true
			base += n
		}
		if err := m.opts.Ledger.Append(ctx, c.ID); err != nil {
			return st, fmt.Errorf("record %s: %w", c.ID, err)
		}
		if err := removeIfExists(markerPath(m.opts.OutDir, m.opts.Tag)); err != nil {
			flog.Warn("cannot remove pending marker", zap.Error(err))
		}
		st.AddWritten(1)
		st.AddRowsWritten(n)
		added++
	}

	if added == 0 {
		log.Info("no compatible files to add")
		return st, nil
	}
	log.Info("merge finished", zap.Int("added", added), zap.Object("stats", st))
	return st, nil
}

// rewrite builds the new corpus from the current one and c, and promotes
// it. The pending marker is written before the rename.
func (m *Merger) rewrite(corpus string, exists bool, want int64, c Candidate) error {
	out, err := durable.Replace(corpus, corpusTempPath(m.opts.OutDir, m.opts.Tag))
	if err != nil {
		return err
	}
	defer out.Close()
	if out.Stale() {
		m.log.Warn("discarded temp corpus from an interrupted run")
	}

	if exists {
		if err := m.copyFile(corpus, out); err != nil {
			return fmt.Errorf("copy existing corpus: %w", err)
		}
	}
	if err := m.copyFile(c.Path, out); err != nil {
		return fmt.Errorf("append %s: %w", c.ID, err)
	}
	if out.Rows() != want {
		return fmt.Errorf("wrote %d corpus rows, expected %d", out.Rows(), want)
	}

	path := markerPath(m.opts.OutDir, m.opts.Tag)
	if err := writeMarker(path, pendingMarker{Rows: want, IDs: []string{c.ID}}); err != nil {
		return err
	}
	if _, err := out.Commit(); err != nil {
		_ = removeIfExists(path)
		return fmt.Errorf("commit corpus: %w", err)
	}
	return nil
}

// verify reads every row of path so that a file that cannot be decoded is
// rejected before the corpus is rewritten for it.
func (m *Merger) verify(ctx context.Context, path string) (*columnar.Schema, int64, error) {
	r, err := columnar.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()
	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, n, err
		}
		b, err := r.Next(m.opts.BatchSize)
		if errors.Is(err, io.EOF) {
			return r.Schema(), n, nil
		}
		if err != nil {
			return nil, n, err
		}
		n += int64(b.NumRows())
	}
}

// copyFile streams the rows of path into out.
func (m *Merger) copyFile(path string, out *durable.Output) error {
	r, err := columnar.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		b, err := r.Next(m.opts.BatchSize)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := out.Write(b); err != nil {
			return err
		}
	}
}

// dropTruncated deletes a zero-length corpus left by an interrupted create
// and reports whether a usable corpus exists.
func dropTruncated(path string) (exists, removed bool, err error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > 0 {
		return true, false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, false, fmt.Errorf("remove empty %s: %w", path, err)
	}
	return false, true, nil
}

// Package ingest turns raw review dumps into one parquet file per source,
// keeping only English rows and a fixed set of columns.
//
// Each source is an independent unit of work. A finished source has a
// final file and is skipped on later runs; an interrupted one leaves at
// most a temp file, which the next run throws away before starting the
// source again from its first record.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columnar"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columns"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/durable"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/pool"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/source"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/stats"
)

// DefaultBatchSize is the number of records read per batch.
const DefaultBatchSize = 50000

// Cleaner normalizes a column of raw text.
type Cleaner interface {
	CleanMany(texts []string) []string
}

// LanguageFilter decides whether a cleaned text is English.
// Implementations must be safe for concurrent use.
type LanguageFilter interface {
	IsEnglish(text string) bool
}

// Status is the outcome of one source.
type Status int

const (
	// Skipped means the final output already existed.
	Skipped Status = iota
	// Written means a final output was committed.
	Written
	// Empty means no row survived; nothing was left on disk.
	Empty
	// Failed means the source was abandoned; nothing was left on disk.
	Failed
)

func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Written:
		return "written"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what happened to one source.
type Result struct {
	Source   source.File
	Status   Status
	RowsRead int64
	RowsKept int64
	// Err is set when Status is Failed.
	Err error
}

// Options configures an Ingestor.
type Options struct {
	RawDir     string
	OutDir     string
	Extensions []string
	BatchSize  int
	// Workers bounds the language classification fan-out. Zero means one
	// per CPU.
	Workers int

	Cleaner Cleaner
	Filter  LanguageFilter
	Logger  *zap.Logger
	// Progress is the minimum interval between per-batch log lines.
	Progress time.Duration
}

// Ingestor runs the first stage.
type Ingestor struct {
	opts Options
	log  *zap.Logger
}

// New validates opts and creates an Ingestor.
func New(opts Options) (*Ingestor, error) {
	if opts.Cleaner == nil || opts.Filter == nil {
		return nil, fmt.Errorf("%w: ingest needs a cleaner and a language filter", internalerr.ErrInvalidConfig)
	}
	if opts.RawDir == "" || opts.OutDir == "" {
		return nil, fmt.Errorf("%w: ingest needs raw and output directories", internalerr.ErrInvalidConfig)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	opts.Workers = pool.Size(opts.Workers)
	if opts.Progress <= 0 {
		opts.Progress = 10 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{opts: opts, log: log.With(zap.String("component", "ingest"))}, nil
}

// FinalPath is where the committed output for f lives.
func FinalPath(dir string, f source.File) string {
	return filepath.Join(dir, f.Stem+".parquet")
}

// TempPath is where the in-progress output for f is written.
func TempPath(dir string, f source.File) string {
	return filepath.Join(dir, f.Stem+".temp.parquet")
}

// Run ingests every source in the raw directory, in name order. It
// returns an error only for run-fatal conditions: the raw directory cannot
// be listed, a dataset lacks the review text column, or ctx is done.
// Zero sources is a normal, logged outcome.
func (in *Ingestor) Run(ctx context.Context) (*stats.Stats, error) {
	st := stats.New("ingest")

	files, err := source.Enumerate(in.opts.RawDir, in.opts.Extensions)
	if err != nil {
		return st, err
	}
	in.log.Info("sources found", zap.Int("count", len(files)), zap.String("dir", in.opts.RawDir))
	if len(files) == 0 {
		in.log.Info("nothing to ingest")
		return st, nil
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.AddFiles(1)
		res, err := in.IngestSource(ctx, f)
		record(st, res)
		if err != nil {
			return st, err
		}
	}

	in.log.Info("ingest finished", zap.Object("stats", st))
	return st, nil
}

func record(st *stats.Stats, res Result) {
	st.AddRowsRead(res.RowsRead)
	st.AddRowsKept(res.RowsKept)
	switch res.Status {
	case Skipped:
		st.AddSkipped(1)
	case Written:
		st.AddWritten(1)
		st.AddRowsWritten(res.RowsKept)
	case Empty:
		st.AddEmpty(1)
	case Failed:
		st.AddFailed(1)
	}
}

// IngestSource processes one source. Read and schema problems are reported
// through Result with Status Failed; the returned error is reserved for
// conditions that must stop the whole run.
func (in *Ingestor) IngestSource(ctx context.Context, f source.File) (Result, error) {
	res := Result{Source: f}
	log := in.log.With(zap.String("source", f.ID))

	out, err := durable.Begin(FinalPath(in.opts.OutDir, f), TempPath(in.opts.OutDir, f))
	if errors.Is(err, durable.ErrComplete) {
		log.Info("already processed, skipping")
		res.Status = Skipped
		return res, nil
	}
	if err != nil {
		return in.fail(log, res, err), nil
	}
	defer out.Close()
	if out.Stale() {
		log.Warn("discarded temp output from an interrupted run", zap.String("path", out.TempPath()))
	}

	r, err := source.Open(f.Path)
	if err != nil {
		return in.fail(log, res, err), nil
	}
	defer r.Close()

	sometimes := rate.Sometimes{First: 1, Interval: in.opts.Progress}
	var split *columns.Split
	for batchNo := 1; ; batchNo++ {
		if err := ctx.Err(); err != nil {
			res.Status, res.Err = Failed, err
			return res, err
		}
		recs, err := r.Next(in.opts.BatchSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return in.fail(log, res, err), nil
		}

		if split == nil {
			s, err := columns.SplitColumns(keys(recs))
			if err != nil {
				res.Status = Failed
				res.Err = err
				log.Error("dataset is missing a required column", zap.Error(err))
				return res, fmt.Errorf("source %s: %w", f.ID, err)
			}
			split = &s
		}

		batch, err := in.transform(ctx, recs, *split, f.ID)
		if err != nil {
			res.Status, res.Err = Failed, err
			return res, err
		}
		res.RowsRead += int64(len(recs))
		res.RowsKept += int64(batch.NumRows())

		if err := out.Write(batch); err != nil {
			return in.fail(log, res, err), nil
		}
		sometimes.Do(func() {
			log.Info("batch processed",
				zap.Int("batch", batchNo),
				zap.Int("read", len(recs)),
				zap.Int("kept", batch.NumRows()),
				zap.Int64("rows_written", out.Rows()))
		})
	}

	committed, err := out.Commit()
	if err != nil {
		return in.fail(log, res, err), nil
	}
	if !committed {
		res.Status = Empty
		log.Info("no English rows, no output written", zap.Int64("read", res.RowsRead))
		return res, nil
	}

	res.Status = Written
	log.Info("source processed",
		zap.Int64("read", res.RowsRead),
		zap.Int64("kept", res.RowsKept),
		zap.Int64("discarded", res.RowsRead-res.RowsKept),
		zap.String("path", out.FinalPath()))
	return res, nil
}

func (in *Ingestor) fail(log *zap.Logger, res Result, err error) Result {
	res.Status = Failed
	res.Err = err
	log.Error("source skipped", zap.Error(err))
	return res
}

// transform cleans, classifies, filters and projects one batch of records.
// The returned batch may have zero rows.
func (in *Ingestor) transform(ctx context.Context, recs []source.Record, split columns.Split, id string) (*columnar.Batch, error) {
	n := len(recs)

	cleaned := make(map[string][]string, len(split.Text))
	for _, col := range split.Text {
		cleaned[col] = in.opts.Cleaner.CleanMany(textValues(recs, col))
	}

	keep, err := pool.Map(ctx, in.opts.Workers, cleaned[columns.ReviewText], in.opts.Filter.IsEnglish)
	if err != nil {
		return nil, err
	}

	var cols []columnar.Column
	for _, col := range []string{columns.Summary, columns.ReviewText} {
		if vals, ok := cleaned[col]; ok {
			cols = append(cols, columnar.StringColumn(columns.CleanName(col), vals))
		}
	}
	cols = append(cols, rawColumn(recs, columns.FieldOf(columns.ReviewText)))
	for _, col := range split.Context {
		cols = append(cols, rawColumn(recs, columns.FieldOf(col)))
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = id
	}
	cols = append(cols, columnar.StringColumn(columns.Source, ids))

	batch, err := columnar.NewBatch(cols...)
	if err != nil {
		return nil, err
	}
	return batch.Filter(keep), nil
}

// keys returns the union of field names across records, sorted.
func keys(recs []source.Record) []string {
	set := make(map[string]struct{})
	for _, rec := range recs {
		for k := range rec {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// textValues extracts a text field. Missing and non-string values become
// empty strings.
func textValues(recs []source.Record, col string) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		if s, ok := rec[col].(string); ok {
			out[i] = s
		}
	}
	return out
}

func rawColumn(recs []source.Record, field columnar.Field) columnar.Column {
	vals := make([]any, len(recs))
	for i, rec := range recs {
		vals[i] = rec[field.Name]
	}
	return columnar.Column{Field: field, Values: vals}
}

// Package enrich builds the embedding text for every ingested source. The
// cleaned summary and review are joined and normalized, and written next
// to the identifier columns in one file per source.
//
// Files are processed whole, several at a time. Every file has its own
// temp/final pair, so workers never touch each other's output.
package enrich

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
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columns"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/durable"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/pool"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/stats"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/text"
)

// DefaultBatchSize is the number of rows normalized per batch.
const DefaultBatchSize = 5000

// DefaultWorkerFraction is the share of CPUs used when Workers is unset.
const DefaultWorkerFraction = 0.75

// Passthrough are copied unchanged from the ingested file.
var Passthrough = []string{columns.ASIN, columns.Source, columns.Overall}

// Normalizer turns joined review text into embedding text. It must return
// one output per input, in order, and be safe for concurrent use.
type Normalizer interface {
	Normalize(texts []string) []string
}

// Options configures an Enricher.
type Options struct {
	InputDir  string
	OutDir    string
	Tag       string
	BatchSize int
	// Workers is the number of files processed at once. Zero means
	// WorkerFraction of the CPUs.
	Workers        int
	WorkerFraction float64

	Normalizer Normalizer
	Logger     *zap.Logger
}

// Enricher runs the enrichment stage.
type Enricher struct {
	opts Options
	log  *zap.Logger
}

// New validates opts and creates an Enricher.
func New(opts Options) (*Enricher, error) {
	if opts.Normalizer == nil {
		return nil, fmt.Errorf("%w: enrich needs a normalizer", internalerr.ErrInvalidConfig)
	}
	if opts.InputDir == "" || opts.OutDir == "" || opts.Tag == "" {
		return nil, fmt.Errorf("%w: enrich needs input and output directories and a tag", internalerr.ErrInvalidConfig)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.WorkerFraction <= 0 {
		opts.WorkerFraction = DefaultWorkerFraction
	}
	if opts.Workers <= 0 {
		opts.Workers = pool.Fraction(opts.WorkerFraction)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{opts: opts, log: log.With(zap.String("component", "enrich"))}, nil
}

// SourceID strips both suffixes of an ingested file name:
// "Books.json.parquet" -> "Books".
func SourceID(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), ".parquet")
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// FinalPath is where the enriched output for id lives.
func FinalPath(dir, id, tag string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.parquet", id, tag))
}

// TempPath is where the enriched output for id is written.
func TempPath(dir, id, tag string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.temp_%s.parquet", id, tag))
}

// Inputs lists the finished ingestion outputs in the input directory.
func (e *Enricher) Inputs() ([]string, error) {
	entries, err := os.ReadDir(e.opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.opts.InputDir, err)
	}
	var out []string
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		if durable.IsTemp(name) ||
			strings.HasPrefix(name, "dataset_embedding") ||
			strings.HasSuffix(name, "_"+e.opts.Tag+".parquet") {
			continue
		}
		out = append(out, filepath.Join(e.opts.InputDir, name))
	}
	sort.Strings(out)
	return out, nil
}

// Run enriches every input that has no final output yet. A failure on one
// file is logged and counted; it never stops the other files.
func (e *Enricher) Run(ctx context.Context) (*stats.Stats, error) {
	st := stats.New("enrich")

	inputs, err := e.Inputs()
	if err != nil {
		return st, err
	}
	e.log.Info("files found", zap.Int("count", len(inputs)), zap.Int("workers", e.opts.Workers))
	if len(inputs) == 0 {
		e.log.Info("nothing to enrich")
		return st, nil
	}
	if err := os.MkdirAll(e.opts.OutDir, 0o755); err != nil {
		return st, fmt.Errorf("create %s: %w", e.opts.OutDir, err)
	}

	st.AddFiles(int64(len(inputs)))
	errs := pool.Each(ctx, e.opts.Workers, inputs, func(ctx context.Context, path string) error {
		return e.EnrichFile(ctx, path, st)
	})
	for i, err := range errs {
		if err != nil {
			st.AddFailed(1)
			e.log.Error("file failed", zap.String("source", SourceID(inputs[i])), zap.Error(err))
		}
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	e.log.Info("enrich finished", zap.Object("stats", st))
	return st, nil
}

// EnrichFile processes one ingested file and updates st. A skipped or
// empty file is not an error.
func (e *Enricher) EnrichFile(ctx context.Context, path string, st *stats.Stats) error {
	id := SourceID(path)
	log := e.log.With(zap.String("source", id))

	out, err := durable.Begin(FinalPath(e.opts.OutDir, id, e.opts.Tag), TempPath(e.opts.OutDir, id, e.opts.Tag))
	if errors.Is(err, durable.ErrComplete) {
		log.Info("already enriched, skipping")
		st.AddSkipped(1)
		return nil
	}
	if err != nil {
		return err
	}
	defer out.Close()
	if out.Stale() {
		log.Warn("discarded temp output from an interrupted run", zap.String("path", out.TempPath()))
	}

	r, err := columnar.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var read int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := r.Next(e.opts.BatchSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		eb, err := e.transform(b)
		if err != nil {
			return err
		}
		if err := out.Write(eb); err != nil {
			return err
		}
		read += int64(b.NumRows())
		st.AddRowsRead(int64(b.NumRows()))
		st.AddRowsKept(int64(eb.NumRows()))
	}

	committed, err := out.Commit()
	if err != nil {
		return err
	}
	if !committed {
		log.Info("no rows, no output written")
		st.AddEmpty(1)
		return nil
	}
	st.AddWritten(1)
	st.AddRowsWritten(out.Rows())
	log.Info("file enriched", zap.Int64("rows", read), zap.String("path", out.FinalPath()))
	return nil
}

// transform joins the two cleaned text columns, normalizes the result and
// carries the passthrough columns. Passthrough columns missing from the
// input are written as nulls so every output has the same four columns.
func (e *Enricher) transform(b *columnar.Batch) (*columnar.Batch, error) {
	joined := text.JoinColumns(b.Strings(columns.CleanSummary), b.Strings(columns.CleanReview))
	normalized := e.opts.Normalizer.Normalize(joined)
	if len(normalized) != b.NumRows() {
		return nil, fmt.Errorf("normalizer returned %d rows for %d inputs", len(normalized), b.NumRows())
	}

	cols := []columnar.Column{columnar.StringColumn(columns.EmbeddingText, normalized)}
	for _, name := range Passthrough {
		field := columns.FieldOf(name)
		if c, ok := b.Column(name); ok {
			cols = append(cols, columnar.Column{Field: field, Values: c.Values})
			continue
		}
		cols = append(cols, columnar.NullColumn(field, b.NumRows()))
	}
	return columnar.NewBatch(cols...)
}

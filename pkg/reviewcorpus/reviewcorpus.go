// Package reviewcorpus wires the pipeline stages together: ingest raw
// review dumps, enrich them into embedding text, and consolidate the
// results into one corpus file.
package reviewcorpus

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/config"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/enrich"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/ingest"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/ledger"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/maintenance"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/merge"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/stats"
)

// Pipeline is one configured run of the stages.
type Pipeline struct {
	cfg   *config.Config
	comp  *config.Components
	log   *zap.Logger
	runID string
}

// Options configures a Pipeline
type Options struct {
	Config *config.Config
	// Components overrides the text collaborators built from Config.
	Components *config.Components
	Logger     *zap.Logger
}

// New creates a Pipeline. Each Pipeline gets its own run identifier, which
// tags its log lines and, with the sqlite ledger, its ledger entries.
func New(opts Options) (*Pipeline, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comp := opts.Components
	if comp == nil {
		var err error
		if comp, err = config.NewLoader(cfg).Load(); err != nil {
			return nil, err
		}
	}

	runID := ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{
		cfg:   cfg,
		comp:  comp,
		log:   log.With(zap.String("run_id", runID)),
		runID: runID,
	}, nil
}

// RunID returns the identifier of this run.
func (p *Pipeline) RunID() string { return p.runID }

// Config returns the configuration in use.
func (p *Pipeline) Config() *config.Config { return p.cfg }

// Components returns the text collaborators shared by the stages.
func (p *Pipeline) Components() *config.Components { return p.comp }

// Ingest runs the first stage over the raw directory.
func (p *Pipeline) Ingest(ctx context.Context) (*stats.Stats, error) {
	if err := os.MkdirAll(p.cfg.Paths.Processed, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", p.cfg.Paths.Processed, err)
	}
	in, err := ingest.New(ingest.Options{
		RawDir:     p.cfg.Paths.Raw,
		OutDir:     p.cfg.Paths.Processed,
		Extensions: p.cfg.Ingest.Extensions,
		BatchSize:  p.cfg.Ingest.BatchSize,
		Workers:    p.cfg.Ingest.Workers,
		Cleaner:    p.comp.Cleaner,
		Filter:     p.comp.Detector,
		Logger:     p.log,
	})
	if err != nil {
		return nil, err
	}
	return in.Run(ctx)
}

// Enrich runs the enrichment stage over the ingested files.
func (p *Pipeline) Enrich(ctx context.Context) (*stats.Stats, error) {
	e, err := enrich.New(enrich.Options{
		InputDir:       p.cfg.Paths.Processed,
		OutDir:         p.cfg.Paths.Enriched,
		Tag:            p.cfg.Tag,
		BatchSize:      p.cfg.Enrich.BatchSize,
		Workers:        p.cfg.Enrich.Workers,
		WorkerFraction: p.cfg.Enrich.WorkerFraction,
		Normalizer:     p.comp.Normalizer,
		Logger:         p.log,
	})
	if err != nil {
		return nil, err
	}
	return e.Run(ctx)
}

// Merge consolidates the configured per-source files into the corpus.
func (p *Pipeline) Merge(ctx context.Context) (*stats.Stats, error) {
	if err := os.MkdirAll(p.cfg.Paths.Merged, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", p.cfg.Paths.Merged, err)
	}
	l, err := p.OpenLedger(ctx)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	m, err := merge.New(merge.Options{
		InputDir:  p.cfg.MergeInputDir(),
		OutDir:    p.cfg.Paths.Merged,
		Tag:       p.cfg.Tag,
		BatchSize: p.cfg.Merge.BatchSize,
		Ledger:    l,
		Logger:    p.log,
	})
	if err != nil {
		return nil, err
	}
	return m.Run(ctx)
}

// OpenLedger opens the configured ledger. The caller closes it.
func (p *Pipeline) OpenLedger(ctx context.Context) (ledger.Ledger, error) {
	path := ledger.Path(p.cfg.Paths.Merged, p.cfg.Tag, p.cfg.Merge.Ledger)
	return ledger.Open(ctx, p.cfg.Merge.Ledger, path, p.runID)
}

// CorpusPath returns the consolidated file location.
func (p *Pipeline) CorpusPath() string {
	return merge.CorpusPath(p.cfg.Paths.Merged, p.cfg.Tag)
}

// Sweep removes leftovers of interrupted runs from every stage directory.
func (p *Pipeline) Sweep(ctx context.Context, dryRun bool) (maintenance.Result, error) {
	c := &maintenance.Cleaner{
		Dirs:   []string{p.cfg.Paths.Processed, p.cfg.Paths.Enriched, p.cfg.Paths.Merged},
		DryRun: dryRun,
		Logger: p.log,
	}
	return c.Clean(ctx)
}

// Run executes ingest, then enrich, then merge when enabled. It stops at
// the first stage that returns an error and reports the stats gathered so
// far.
func (p *Pipeline) Run(ctx context.Context) ([]*stats.Stats, error) {
	p.log.Info("run started")

	stages := []func(context.Context) (*stats.Stats, error){p.Ingest, p.Enrich}
	if p.cfg.Merge.Enabled {
		stages = append(stages, p.Merge)
	}

	var all []*stats.Stats
	for _, stage := range stages {
		st, err := stage(ctx)
		if st != nil {
			all = append(all, st)
		}
		if err != nil {
			return all, err
		}
	}

	p.log.Info("run finished")
	return all, nil
}

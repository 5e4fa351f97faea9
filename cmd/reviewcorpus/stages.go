package main

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/stats"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run ingest, enrich and merge in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStages(cmd, func(ctx context.Context, p *reviewcorpus.Pipeline) ([]*stats.Stats, error) {
			return p.Run(ctx)
		})
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Clean raw review dumps and keep English reviews",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStages(cmd, single((*reviewcorpus.Pipeline).Ingest))
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Add normalized embedding text to ingested files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStages(cmd, single((*reviewcorpus.Pipeline).Enrich))
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Append unmerged per-source files to the corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStages(cmd, single((*reviewcorpus.Pipeline).Merge))
	},
}

func init() {
	rootCmd.AddCommand(runCmd, ingestCmd, enrichCmd, mergeCmd)
}

type stageFunc func(context.Context, *reviewcorpus.Pipeline) ([]*stats.Stats, error)

func single(fn func(*reviewcorpus.Pipeline, context.Context) (*stats.Stats, error)) stageFunc {
	return func(ctx context.Context, p *reviewcorpus.Pipeline) ([]*stats.Stats, error) {
		st, err := fn(p, ctx)
		if st == nil {
			return nil, err
		}
		return []*stats.Stats{st}, err
	}
}

func runStages(cmd *cobra.Command, fn stageFunc) error {
	p, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signalContext()
	defer cancel()

	all, err := fn(ctx, p)
	for _, st := range all {
		printStats(cmd, st)
	}
	return err
}

func printStats(cmd *cobra.Command, st *stats.Stats) {
	cmd.Printf("%-7s files=%s written=%s skipped=%s empty=%s failed=%s rows_read=%s rows_kept=%s\n",
		st.Stage(),
		humanize.Comma(st.Files()),
		humanize.Comma(st.Written()),
		humanize.Comma(st.Skipped()),
		humanize.Comma(st.Empty()),
		humanize.Comma(st.Failed()),
		humanize.Comma(st.RowsRead()),
		humanize.Comma(st.RowsKept()),
	)
}

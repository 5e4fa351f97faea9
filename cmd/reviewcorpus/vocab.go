package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/vocab"
)

var (
	vocabColumn string
	vocabLimit  int64
	vocabTop    int
	vocabTh     = vocab.DefaultThresholds()
)

var vocabCmd = &cobra.Command{
	Use:   "vocab [file.parquet]",
	Short: "Suggest stoplist additions from token statistics",
	Long: `Reads a pipeline output file, the corpus by default, and lists tokens
that occur in most reviews across every source without associating with any
other token. Tokens already on the stoplist or in the keep set are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, done, err := setup()
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := signalContext()
		defer cancel()

		path := p.CorpusPath()
		if len(args) == 1 {
			path = args[0]
		}
		a, err := vocab.AnalyzeFile(ctx, path, vocab.Options{
			Column:    vocabColumn,
			Limit:     vocabLimit,
			MaxTokens: 200,
		})
		if err != nil {
			return err
		}

		stops := p.Components().Stops
		skip := func(tok string) bool { return stops.IsStop(tok) || stops.Keep(tok) }
		cands := vocab.Suggest(a.Stats(), vocabTh, skip)
		if vocabTop > 0 && len(cands) > vocabTop {
			cands = cands[:vocabTop]
		}

		cmd.Printf("%s reviews analysed, %s candidates\n", humanize.Comma(a.Docs()), humanize.Comma(int64(len(cands))))
		for _, c := range cands {
			cmd.Printf("%-20s score=%.3f df=%.1f%% npmi_max=%.3f spread=%.3f\n",
				c.Token, c.Score, c.DFPercent, c.PMIMax, c.SourceEntropy)
		}
		return nil
	},
}

func init() {
	f := vocabCmd.Flags()
	f.StringVar(&vocabColumn, "column", "", "token column (default clean_embedding_text, else clean_review)")
	f.Int64Var(&vocabLimit, "limit", 100000, "reviews to analyse, 0 for all")
	f.IntVar(&vocabTop, "top", 50, "candidates to print, 0 for all")
	f.Float64Var(&vocabTh.DFPercent, "min-df", vocabTh.DFPercent, "minimum document frequency percent")
	f.Float64Var(&vocabTh.PMIMax, "max-npmi", vocabTh.PMIMax, "maximum normalized PMI with any token")
	f.Float64Var(&vocabTh.SourceEntropy, "min-spread", vocabTh.SourceEntropy, "minimum spread over sources")
	rootCmd.AddCommand(vocabCmd)
}

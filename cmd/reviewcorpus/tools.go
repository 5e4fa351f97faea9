package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columnar"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/ledger"
)

var sweepDryRun bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove temp files and truncated corpora left by interrupted runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, done, err := setup()
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := signalContext()
		defer cancel()

		res, err := p.Sweep(ctx, sweepDryRun)
		if err != nil {
			return err
		}
		verb := "removed"
		if sweepDryRun {
			verb = "would remove"
		}
		for _, path := range res.Removed {
			cmd.Printf("%s %s\n", verb, path)
		}
		cmd.Printf("scanned %s files, %s %s\n",
			humanize.Comma(int64(res.Scanned)), verb, humanize.Comma(int64(len(res.Removed))))
		if res.Errors > 0 {
			return fmt.Errorf("%d leftovers could not be removed", res.Errors)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.parquet>",
	Short: "Print the schema and row count of a columnar file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		schema, rows, err := columnar.Stat(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("%s: %s rows, %s\n", args[0], humanize.Comma(rows), humanize.Bytes(uint64(info.Size())))
		for _, f := range schema.Fields() {
			cmd.Printf("  %-20s %s\n", f.Name, f.Kind)
		}
		return nil
	},
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List the sources already merged into the corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, done, err := setup()
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := signalContext()
		defer cancel()

		l, err := p.OpenLedger(ctx)
		if err != nil {
			return err
		}
		defer l.Close()

		ids, err := l.Load(ctx)
		if err != nil {
			return err
		}

		var runs map[string]string
		if sl, ok := l.(*ledger.SQLiteLedger); ok {
			if runs, err = sl.Runs(ctx); err != nil {
				return err
			}
		}

		sort.Strings(ids)
		for _, id := range ids {
			if run, ok := runs[id]; ok {
				cmd.Printf("%s\t%s\n", id, run)
				continue
			}
			cmd.Println(id)
		}
		cmd.Printf("%s sources merged into %s\n", humanize.Comma(int64(len(ids))), p.CorpusPath())
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		out, err := cfg.Marshal()
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		cmd.Print(string(out))
		return nil
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "list leftovers without removing them")
	rootCmd.AddCommand(sweepCmd, inspectCmd, ledgerCmd, configCmd)
}

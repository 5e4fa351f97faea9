// Command reviewcorpus runs the review corpus pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognicore/reviewcorpus/internal/logging"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/config"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "reviewcorpus",
	Short: "Build an embedding corpus from review dumps",
	Long: `Ingests newline-delimited JSON review dumps into cleaned English-only
columnar files, enriches them with normalized embedding text, and merges the
results into a single corpus file. Every stage can be interrupted and rerun;
finished work is skipped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "pipeline configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides the configuration")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "console or json, overrides the configuration")
}

// loadConfig reads the configuration file, or the defaults without one, and
// applies the logging flags.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

// setup builds the pipeline shared by the subcommands from the configuration
// and logging flags. The returned function flushes the logger.
func setup() (*reviewcorpus.Pipeline, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	done := func() { _ = log.Sync() }

	p, err := reviewcorpus.New(reviewcorpus.Options{Config: cfg, Logger: log})
	if err != nil {
		done()
		return nil, nil, err
	}
	return p, done, nil
}

// signalContext is cancelled on SIGINT or SIGTERM so stages stop between
// batches and leave only temp files behind.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

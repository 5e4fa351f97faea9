package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/langid"
)

// Merge inputs.
const (
	InputEnriched  = "enriched"
	InputProcessed = "processed"
)

// Config is the pipeline configuration file.
type Config struct {
	// Tag names the enrichment variant; it appears in enriched file names,
	// the corpus name and the ledger name.
	Tag       string    `yaml:"tag"`
	Paths     Paths     `yaml:"paths"`
	Ingest    Ingest    `yaml:"ingest"`
	Language  Language  `yaml:"language"`
	Enrich    Enrich    `yaml:"enrich"`
	Merge     Merge     `yaml:"merge"`
	Normalize Normalize `yaml:"normalize"`
	Log       Log       `yaml:"log"`
}

// Paths are the stage directories.
type Paths struct {
	Raw       string `yaml:"raw"`
	Processed string `yaml:"processed"`
	Enriched  string `yaml:"enriched"`
	Merged    string `yaml:"merged"`
}

// Ingest configures the first stage.
type Ingest struct {
	BatchSize   int      `yaml:"batch_size"`
	Workers     int      `yaml:"workers"`
	Extensions  []string `yaml:"extensions"`
	StripMarkup bool     `yaml:"strip_markup"`
}

// Language classifiers.
const (
	ClassifierLingua   = "lingua"
	ClassifierWhatlang = "whatlang"
)

// Language configures the English filter.
type Language struct {
	// Classifier is lingua or whatlang.
	Classifier string  `yaml:"classifier"`
	Threshold  float64 `yaml:"threshold"`
	MinWords   int     `yaml:"min_words"`
	// Candidates restricts detection to these ISO 639-1 codes.
	Candidates []string `yaml:"candidates"`
}

// Enrich configures the enrichment stage.
type Enrich struct {
	BatchSize      int     `yaml:"batch_size"`
	Workers        int     `yaml:"workers"`
	WorkerFraction float64 `yaml:"worker_fraction"`
}

// Merge configures consolidation.
type Merge struct {
	Enabled   bool   `yaml:"enabled"`
	Input     string `yaml:"input"`
	BatchSize int    `yaml:"batch_size"`
	Ledger    string `yaml:"ledger"`
}

// Normalize points at optional vocabulary files.
type Normalize struct {
	Stoplist string   `yaml:"stoplist"`
	Lexicon  string   `yaml:"lexicon"`
	Keep     []string `yaml:"keep"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the standard layout under data/.
func Default() *Config {
	return &Config{
		Tag: "spacy",
		Paths: Paths{
			Raw:       "data/raw",
			Processed: "data/processed",
			Enriched:  "data/processed/spacy",
			Merged:    "data/processed/spacy",
		},
		Ingest: Ingest{
			BatchSize:   50000,
			Extensions:  []string{".json.gz", ".json"},
			StripMarkup: true,
		},
		Language: Language{
			Classifier: ClassifierLingua,
			Threshold:  0.8,
			MinWords:   2,
			Candidates: append([]string(nil), langid.DefaultCandidates...),
		},
		Enrich:   Enrich{BatchSize: 5000, WorkerFraction: 0.75},
		Merge: Merge{
			Enabled:   true,
			Input:     InputEnriched,
			BatchSize: 50000,
			Ledger:    "text",
		},
		Normalize: Normalize{Keep: []string{"no", "not", "never"}},
		Log:       Log{Level: "info", Format: "console"},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{internalerr.ErrInvalidConfig}, args...)...)
	}
	switch {
	case c.Tag == "":
		return bad("tag must be set")
	case c.Paths.Raw == "" || c.Paths.Processed == "" || c.Paths.Enriched == "" || c.Paths.Merged == "":
		return bad("all paths must be set")
	case c.Ingest.BatchSize <= 0:
		return bad("ingest.batch_size must be positive")
	case c.Enrich.BatchSize <= 0:
		return bad("enrich.batch_size must be positive")
	case c.Merge.BatchSize <= 0:
		return bad("merge.batch_size must be positive")
	case c.Language.Classifier != ClassifierLingua && c.Language.Classifier != ClassifierWhatlang:
		return bad("language.classifier must be %s or %s, got %q", ClassifierLingua, ClassifierWhatlang, c.Language.Classifier)
	case c.Language.Threshold < 0 || c.Language.Threshold > 1:
		return bad("language.threshold must be within [0, 1], got %v", c.Language.Threshold)
	case c.Enrich.WorkerFraction < 0 || c.Enrich.WorkerFraction > 1:
		return bad("enrich.worker_fraction must be within [0, 1], got %v", c.Enrich.WorkerFraction)
	case c.Merge.Input != InputEnriched && c.Merge.Input != InputProcessed:
		return bad("merge.input must be %q or %q, got %q", InputEnriched, InputProcessed, c.Merge.Input)
	case c.Merge.Ledger != "text" && c.Merge.Ledger != "sqlite":
		return bad("merge.ledger must be text or sqlite, got %q", c.Merge.Ledger)
	case c.Log.Format != "console" && c.Log.Format != "json":
		return bad("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// MergeInputDir is the directory whose per-source files are consolidated.
func (c *Config) MergeInputDir() string {
	if c.Merge.Input == InputProcessed {
		return c.Paths.Processed
	}
	return c.Paths.Enriched
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

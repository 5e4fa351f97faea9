package config

import (
	"fmt"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/langid"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/lexicon"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/normalize"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/stoplist"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/text"
)

// Loader loads vocabulary files and constructs the text components.
type Loader struct {
	StoplistPath string
	LexiconPath  string
	Keep         []string

	StripMarkup bool
	Threshold   float64
	MinWords    int
	Languages   []string
	// Engine selects the built-in classifier, lingua by default.
	Engine string
	// Classifier overrides the built-in language classifier.
	Classifier langid.Classifier
}

// Components are the read-only text collaborators shared by the stages.
// They are built once per run and are safe for concurrent use.
type Components struct {
	Cleaner    *text.Cleaner
	Detector   *langid.Detector
	Normalizer *normalize.Normalizer
	// Stops is the stoplist the normalizer applies.
	Stops *stoplist.Manager
}

// NewLoader builds a Loader from the configuration file.
func NewLoader(cfg *Config) *Loader {
	return &Loader{
		StoplistPath: cfg.Normalize.Stoplist,
		LexiconPath:  cfg.Normalize.Lexicon,
		Keep:         cfg.Normalize.Keep,
		StripMarkup:  cfg.Ingest.StripMarkup,
		Threshold:    cfg.Language.Threshold,
		MinWords:     cfg.Language.MinWords,
		Languages:    cfg.Language.Candidates,
		Engine:       cfg.Language.Classifier,
	}
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{Cleaner: text.NewCleaner(l.StripMarkup)}

	// Stoplist: a file replaces the built-in list
	stops := stoplist.English
	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stops = sl.Terms
	}
	keep := l.Keep
	if keep == nil {
		keep = stoplist.DefaultKeep
	}

	// Lexicon: a file extends the built-in table
	lex := lexicon.Default()
	if l.LexiconPath != "" {
		extra, err := lexicon.LoadFromYAML(l.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		lex.Merge(extra)
	}
	comp.Stops = stoplist.NewManager(stops, keep)
	comp.Normalizer = normalize.New(lex, comp.Stops)

	clf := l.Classifier
	if clf == nil {
		switch l.Engine {
		case "", ClassifierLingua:
			clf = langid.NewLingua(l.Languages...)
		case ClassifierWhatlang:
			clf = langid.NewWhatlang(l.Languages...)
		default:
			return nil, fmt.Errorf("unknown language classifier %q", l.Engine)
		}
	}
	comp.Detector = langid.NewDetector(clf, l.Threshold, l.MinWords)

	return comp, nil
}

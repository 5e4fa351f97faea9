// Package langid decides whether review text is English.
package langid

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Unknown is returned when a language cannot be decided with enough
// confidence.
const Unknown = "unknown"

// DefaultThreshold is the minimum confidence accepted for a prediction.
const DefaultThreshold = 0.8

// Classifier predicts a language label (ISO 639-1) and a confidence in
// [0, 1]. Implementations must be safe for concurrent read-only use.
type Classifier interface {
	Predict(text string) (label string, confidence float64)
}

// Whatlang is a trigram classifier backed by whatlanggo.
type Whatlang struct {
	opts whatlanggo.Options
}

// NewWhatlang creates a classifier. If only is non-empty, predictions are
// restricted to those ISO 639-1 codes. Its confidence reflects the margin
// over the runner-up and is low for short text; pair it with a lower
// threshold than Lingua.
func NewWhatlang(only ...string) *Whatlang {
	w := &Whatlang{}
	if len(only) == 0 {
		return w
	}
	allow := make(map[whatlanggo.Lang]bool)
	for code, lang := range codes() {
		for _, want := range only {
			if code == want {
				allow[lang] = true
			}
		}
	}
	w.opts.Whitelist = allow
	return w
}

func codes() map[string]whatlanggo.Lang {
	out := make(map[string]whatlanggo.Lang, len(whatlanggo.Langs))
	for lang := range whatlanggo.Langs {
		out[lang.Iso6391()] = lang
	}
	return out
}

// Predict implements Classifier.
func (w *Whatlang) Predict(text string) (string, float64) {
	info := whatlanggo.DetectWithOptions(text, w.opts)
	code := info.Lang.Iso6391()
	if code == "" {
		return Unknown, 0
	}
	return code, info.Confidence
}

// Detector applies the acceptance rules on top of a Classifier.
type Detector struct {
	clf       Classifier
	threshold float64
	minWords  int
}

// NewDetector wraps clf. A threshold <= 0 uses DefaultThreshold; minWords
// <= 0 uses 2.
func NewDetector(clf Classifier, threshold float64, minWords int) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if minWords <= 0 {
		minWords = 2
	}
	return &Detector{clf: clf, threshold: threshold, minWords: minWords}
}

// Threshold returns the acceptance confidence.
func (d *Detector) Threshold() float64 { return d.threshold }

// Detect returns the predicted label, or Unknown when the text is empty,
// shorter than the minimum word count, or predicted below the threshold.
func (d *Detector) Detect(text string) (lang string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Unknown
	}
	if len(strings.Fields(text)) < d.minWords {
		return Unknown
	}

	defer func() {
		if recover() != nil {
			lang = Unknown
		}
	}()

	label, confidence := d.clf.Predict(text)
	if label == "" || confidence < d.threshold {
		return Unknown
	}
	return label
}

// IsEnglish reports whether text is confidently English.
func (d *Detector) IsEnglish(text string) bool {
	return d.Detect(text) == "en"
}

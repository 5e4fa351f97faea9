package langid

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// DefaultCandidates are the languages the built-in classifiers choose
// between when none are configured. Review dumps are mostly English with
// a tail of Western European languages.
var DefaultCandidates = []string{"en", "es", "fr", "de", "it", "pt", "nl"}

// Lingua is an n-gram classifier backed by lingua-go. Its confidence is
// the probability of the predicted language among the candidates.
type Lingua struct {
	d lingua.LanguageDetector
}

// NewLingua creates a classifier over the given ISO 639-1 codes. Unknown
// codes are ignored; fewer than two known codes selects DefaultCandidates.
func NewLingua(only ...string) *Lingua {
	langs := linguaLanguages(only)
	if len(langs) < 2 {
		langs = linguaLanguages(DefaultCandidates)
	}
	return &Lingua{d: lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build()}
}

func linguaLanguages(codes []string) []lingua.Language {
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[strings.ToLower(c)] = true
	}
	var out []lingua.Language
	for _, l := range lingua.AllLanguages() {
		if want[strings.ToLower(l.IsoCode639_1().String())] {
			out = append(out, l)
		}
	}
	return out
}

// Predict implements Classifier.
func (l *Lingua) Predict(text string) (string, float64) {
	lang, ok := l.d.DetectLanguageOf(text)
	if !ok {
		return Unknown, 0
	}
	return strings.ToLower(lang.IsoCode639_1().String()), l.d.ComputeLanguageConfidence(text, lang)
}

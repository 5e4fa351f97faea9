package lexicon

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon maps inflected word forms to their lemma:
// - Verb forms: "was", "were", "is" -> "be"
// - Plurals: "batteries" -> "battery"
// - Spelling variants: "colour" -> "color"
//
// It is read-only after loading and safe to share across workers.
type Lexicon struct {
	// lemma -> all forms (including the lemma itself)
	// Example: "be" -> ["be", "is", "am", "are", "was", "were"]
	forms map[string][]string

	// form -> lemma
	reverseIndex map[string]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		forms:        make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// Default returns a lexicon with common English irregular forms and the
// plurals that show up most in product reviews.
func Default() *Lexicon {
	lex := New()
	for lemma, forms := range defaultForms {
		lex.AddLemmaGroup(lemma, forms)
	}
	return lex
}

var defaultForms = map[string][]string{
	"be":      {"is", "am", "are", "was", "were", "been", "being"},
	"have":    {"has", "had", "having"},
	"do":      {"does", "did", "doing", "done"},
	"go":      {"goes", "went", "gone", "going"},
	"buy":     {"buys", "bought", "buying"},
	"work":    {"works", "worked", "working"},
	"break":   {"breaks", "broke", "broken", "breaking"},
	"use":     {"uses", "used", "using"},
	"love":    {"loves", "loved", "loving"},
	"get":     {"gets", "got", "gotten", "getting"},
	"make":    {"makes", "made", "making"},
	"fit":     {"fits", "fitted", "fitting"},
	"return":  {"returns", "returned", "returning"},
	"battery": {"batteries"},
	"product": {"products"},
	"star":    {"stars"},
	"month":   {"months"},
	"year":    {"years"},
	"day":     {"days"},
	"child":   {"children"},
	"size":    {"sizes"},
	"book":    {"books"},
	"good":    {"better", "best"},
	"bad":     {"worse", "worst"},
}

// LoadFromYAML loads lemma groups from a YAML file.
//
// Expected format:
//
//	lemmas:
//	  - lemma: be
//	    forms: [is, am, are, was, were]
//	  - lemma: battery
//	    forms: [batteries]
//
// All entries are lowercased; the lemma is included in its own form list.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config struct {
		Lemmas []struct {
			Lemma string   `yaml:"lemma"`
			Forms []string `yaml:"forms"`
		} `yaml:"lemmas"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := New()
	for _, entry := range config.Lemmas {
		if strings.TrimSpace(entry.Lemma) == "" {
			continue
		}
		lex.AddLemmaGroup(entry.Lemma, entry.Forms)
	}

	return lex, nil
}

// AddLemmaGroup registers forms for a lemma. The lemma is always the first
// entry of its form list. Re-adding a lemma replaces its previous forms.
func (l *Lexicon) AddLemmaGroup(lemma string, forms []string) {
	lemma = strings.ToLower(lemma)

	if old, exists := l.forms[lemma]; exists {
		for _, f := range old {
			delete(l.reverseIndex, f)
		}
	}

	normalized := make([]string, 0, len(forms)+1)
	seen := make(map[string]bool)

	normalized = append(normalized, lemma)
	seen[lemma] = true

	for _, f := range forms {
		f = strings.ToLower(f)
		if !seen[f] {
			normalized = append(normalized, f)
			seen[f] = true
		}
	}

	l.forms[lemma] = normalized

	for _, f := range normalized {
		l.reverseIndex[f] = lemma
	}
}

// Merge copies every group of other into l. Groups in other win.
func (l *Lexicon) Merge(other *Lexicon) {
	if other == nil {
		return
	}
	for lemma, forms := range other.forms {
		l.AddLemmaGroup(lemma, forms)
	}
}

// Lemma returns the lemma of a word form, or the lowercased word itself
// when the lexicon does not know it.
//
// Examples:
//   - Lemma("Was") -> "be"
//   - Lemma("batteries") -> "battery"
//   - Lemma("blender") -> "blender"
func (l *Lexicon) Lemma(word string) string {
	word = strings.ToLower(word)
	if lemma, ok := l.reverseIndex[word]; ok {
		return lemma
	}
	return word
}

// Forms returns every known form of the word's lemma, or the word alone.
func (l *Lexicon) Forms(word string) []string {
	lemma := l.Lemma(word)
	if forms, ok := l.forms[lemma]; ok {
		return forms
	}
	return []string{lemma}
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	total := 0
	for _, forms := range l.forms {
		total += len(forms)
	}
	return Stats{Lemmas: len(l.forms), Forms: total}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Lemmas int // Number of lemma groups
	Forms  int // Total number of forms across all groups
}

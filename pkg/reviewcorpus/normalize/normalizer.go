// Package normalize turns cleaned review text into the lemmatized,
// stopword-filtered form used for embeddings.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/lexicon"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/stoplist"
)

var nonWord = regexp.MustCompile(`[^\w\s]+`)

// Contraction stems whose base form differs from the written prefix.
var negationStems = map[string]string{
	"ca":  "can",
	"wo":  "will",
	"sha": "shall",
}

// Normalizer lemmatizes tokens and drops stopwords. Negations always
// survive: "n't" becomes "not" and the keep-set protects no/not/never.
// A Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	lex   *lexicon.Lexicon
	stops *stoplist.Manager
}

// New creates a normalizer. Nil arguments fall back to the built-in tables.
func New(lex *lexicon.Lexicon, stops *stoplist.Manager) *Normalizer {
	if lex == nil {
		lex = lexicon.Default()
	}
	if stops == nil {
		stops = stoplist.Default()
	}
	return &Normalizer{lex: lex, stops: stops}
}

// Normalize processes each text independently; the result has the same
// length and order as texts.
func (n *Normalizer) Normalize(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = n.NormalizeText(t)
	}
	return out
}

// NormalizeText processes a single text.
func (n *Normalizer) NormalizeText(text string) string {
	var kept []string
	for _, field := range strings.Fields(text) {
		field = strings.ToLower(strings.ReplaceAll(field, "’", "'"))

		// "isn't/wasn't" holds two negations; everything after the last
		// one is normalized like any other field.
		for {
			i := strings.Index(field, "n't")
			if i < 0 {
				break
			}
			toks := split(field[:i])
			if last := len(toks) - 1; last >= 0 {
				if full, ok := negationStems[toks[last]]; ok {
					toks[last] = full
				}
			}
			kept = n.appendTokens(kept, toks)
			kept = append(kept, "not")
			field = field[i+len("n't"):]
		}
		kept = n.appendTokens(kept, split(field))
	}

	joined := strings.Join(kept, " ")
	return strings.TrimSpace(nonWord.ReplaceAllString(joined, " "))
}

func (n *Normalizer) appendTokens(dst []string, toks []string) []string {
	for _, tok := range toks {
		lemma := n.lex.Lemma(tok)
		if n.stops.Drop(tok, lemma) {
			continue
		}
		dst = append(dst, lemma)
	}
	return dst
}

// split breaks a lowercased field into word tokens. A clitic after an
// apostrophe is kept with its apostrophe ("it's" -> "it", "'s").
func split(field string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range field {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_':
			current.WriteRune(r)
		case r == '\'':
			word := current.Len() > 0 && !strings.HasPrefix(current.String(), "'")
			flush()
			if word {
				current.WriteRune(r)
			}
		default:
			flush()
		}
	}
	flush()

	// Lone or dangling apostrophes are not tokens.
	out := tokens[:0]
	for _, t := range tokens {
		if t == "'" {
			continue
		}
		out = append(out, t)
	}
	return out
}

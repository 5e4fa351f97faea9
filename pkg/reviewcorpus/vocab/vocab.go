// Package vocab measures token statistics over a pipeline output file and
// suggests stoplist additions: tokens that occur in most reviews, spread
// evenly over every source, and associate with nothing in particular.
package vocab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columnar"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columns"
)

const defaultBatchSize = 10000

type pair struct{ A, B string }

func newPair(a, b string) pair {
	if a > b {
		a, b = b, a
	}
	return pair{A: a, B: b}
}

// Analyzer aggregates document frequency, per-source spread and
// document-level co-occurrence.
type Analyzer struct {
	docs      int64
	df        map[string]int64
	sources   map[string]map[string]int64
	pairs     map[pair]int64
	maxTokens int
}

// NewAnalyzer returns an empty Analyzer. Co-occurrence is counted over at
// most maxTokens distinct tokens per document; zero means no limit.
func NewAnalyzer(maxTokens int) *Analyzer {
	return &Analyzer{
		df:        make(map[string]int64),
		sources:   make(map[string]map[string]int64),
		pairs:     make(map[pair]int64),
		maxTokens: maxTokens,
	}
}

// Process consumes one document.
func (a *Analyzer) Process(tokens []string, source string) {
	a.docs++

	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		unique = append(unique, tok)

		a.df[tok]++
		if source != "" {
			if a.sources[tok] == nil {
				a.sources[tok] = make(map[string]int64)
			}
			a.sources[tok][source]++
		}
	}

	if a.maxTokens > 0 && len(unique) > a.maxTokens {
		unique = unique[:a.maxTokens]
	}
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			a.pairs[newPair(unique[i], unique[j])]++
		}
	}
}

// Docs is the number of documents processed.
func (a *Analyzer) Docs() int64 { return a.docs }

// TokenStats describes one token over the analysed documents.
type TokenStats struct {
	Token     string
	DF        int64
	DFPercent float64
	IDF       float64
	// PMIMax is the highest normalized PMI with any co-occurring token.
	PMIMax float64
	// SourceEntropy is 1 when the token is spread evenly over every source.
	SourceEntropy float64
}

// Stats returns per-token statistics ordered by descending document
// frequency, then token.
func (a *Analyzer) Stats() []TokenStats {
	if a.docs == 0 {
		return nil
	}
	total := float64(a.docs)

	pmiMax := make(map[string]float64, len(a.df))
	for p, n := range a.pairs {
		v := npmi(n, a.df[p.A], a.df[p.B], a.docs)
		if v > pmiMax[p.A] {
			pmiMax[p.A] = v
		}
		if v > pmiMax[p.B] {
			pmiMax[p.B] = v
		}
	}

	nSources := a.sourceCount()
	out := make([]TokenStats, 0, len(a.df))
	for tok, df := range a.df {
		out = append(out, TokenStats{
			Token:         tok,
			DF:            df,
			DFPercent:     100 * float64(df) / total,
			IDF:           math.Log(total / (1 + float64(df))),
			PMIMax:        pmiMax[tok],
			SourceEntropy: entropy(a.sources[tok], nSources),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DF != out[j].DF {
			return out[i].DF > out[j].DF
		}
		return out[i].Token < out[j].Token
	})
	return out
}

func (a *Analyzer) sourceCount() int {
	all := make(map[string]struct{})
	for _, per := range a.sources {
		for src := range per {
			all[src] = struct{}{}
		}
	}
	return len(all)
}

// npmi is pointwise mutual information scaled to [-1, 1].
func npmi(both, dfA, dfB, docs int64) float64 {
	if both == 0 || dfA == 0 || dfB == 0 || docs == 0 {
		return 0
	}
	n := float64(docs)
	pab := float64(both) / n
	if pab >= 1 {
		return 1
	}
	pmi := math.Log(pab / ((float64(dfA) / n) * (float64(dfB) / n)))
	return pmi / -math.Log(pab)
}

// entropy of counts normalized by the entropy of a uniform spread over n
// sources. A single source gives zero.
func entropy(counts map[string]int64, n int) float64 {
	if len(counts) == 0 || n < 2 {
		return 0
	}
	var total float64
	for _, c := range counts {
		total += float64(c)
	}
	var h float64
	for _, c := range counts {
		if p := float64(c) / total; p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h / math.Log2(float64(n))
}

// Thresholds select stoplist candidates.
type Thresholds struct {
	DFPercent float64
	PMIMax    float64
	// SourceEntropy is ignored when the input has a single source.
	SourceEntropy float64
}

// DefaultThresholds suit a few hundred thousand reviews.
func DefaultThresholds() Thresholds {
	return Thresholds{DFPercent: 30, PMIMax: 0.3, SourceEntropy: 0.8}
}

// Candidate is a suggested stoplist addition.
type Candidate struct {
	TokenStats
	Score float64
}

// Suggest returns tokens that meet every threshold, best first. Tokens for
// which skip reports true (already stopped, or kept) are never suggested.
func Suggest(stats []TokenStats, th Thresholds, skip func(string) bool) []Candidate {
	multiSource := false
	for _, s := range stats {
		if s.SourceEntropy > 0 {
			multiSource = true
			break
		}
	}

	var out []Candidate
	for _, s := range stats {
		if skip != nil && skip(s.Token) {
			continue
		}
		if s.DFPercent < th.DFPercent || s.PMIMax > th.PMIMax {
			continue
		}
		spread := 1.0
		if multiSource {
			if s.SourceEntropy < th.SourceEntropy {
				continue
			}
			spread = s.SourceEntropy
		}
		out = append(out, Candidate{
			TokenStats: s,
			Score:      (s.DFPercent/100 + (1 - s.PMIMax) + spread) / 3,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Options configure AnalyzeFile.
type Options struct {
	// Column holds whitespace separated tokens. Defaults to embedding_text,
	// falling back to clean_review.
	Column    string
	Limit     int64
	BatchSize int
	MaxTokens int
}

// AnalyzeFile reads a pipeline output file and feeds each row's tokens,
// grouped by its source column, into a new Analyzer.
func AnalyzeFile(ctx context.Context, path string, opts Options) (*Analyzer, error) {
	r, err := columnar.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	col := opts.Column
	if col == "" {
		col = columns.EmbeddingText
		if !r.Schema().Has(col) {
			col = columns.CleanReview
		}
	}
	if !r.Schema().Has(col) {
		return nil, fmt.Errorf("%s: no column %q", path, col)
	}
	size := opts.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}

	a := NewAnalyzer(opts.MaxTokens)
	for opts.Limit <= 0 || a.docs < opts.Limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := r.Next(size)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		texts := b.Strings(col)
		var srcs []string
		if b.Schema().Has(columns.Source) {
			srcs = b.Strings(columns.Source)
		}
		for i, text := range texts {
			if opts.Limit > 0 && a.docs >= opts.Limit {
				break
			}
			src := ""
			if srcs != nil {
				src = srcs[i]
			}
			a.Process(strings.Fields(text), src)
		}
	}
	return a, nil
}

// Package columns decides which fields of a review dump feed the embedding
// text and which are carried along as context.
package columns

import (
	"fmt"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columnar"
	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
)

// Raw field names in the review dumps.
const (
	ReviewText     = "reviewText"
	Summary        = "summary"
	ASIN           = "asin"
	Overall        = "overall"
	UnixReviewTime = "unixReviewTime"
)

// Output column names written by the pipeline.
const (
	CleanReview   = "clean_review"
	CleanSummary  = "clean_summary"
	Source        = "source"
	EmbeddingText = "clean_embedding_text"
)

var (
	// TextColumns hold natural language.
	TextColumns = []string{ReviewText, Summary}
	// ContextColumns are kept for later interpretation.
	ContextColumns = []string{ASIN, Overall, UnixReviewTime}
	// Required must be present in every dataset.
	Required = ReviewText
)

// Split separates the available column names into text and context columns.
type Split struct {
	Text    []string
	Context []string
}

// FieldOf returns the typed field written for a column. Ratings are
// doubles, review times are epoch seconds, everything else is text.
func FieldOf(name string) columnar.Field {
	switch name {
	case Overall:
		return columnar.Field{Name: name, Kind: columnar.Double}
	case UnixReviewTime:
		return columnar.Field{Name: name, Kind: columnar.Int64}
	default:
		return columnar.Field{Name: name, Kind: columnar.String}
	}
}

// CleanName maps a text column to the name of its cleaned counterpart.
func CleanName(col string) string {
	switch col {
	case ReviewText:
		return CleanReview
	case Summary:
		return CleanSummary
	default:
		return "clean_" + col
	}
}

// SplitColumns returns the text and context columns present in names, in
// their canonical order. A dataset without the review text column is a
// configuration error.
func SplitColumns(names []string) (Split, error) {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	if !present[Required] {
		return Split{}, fmt.Errorf("%w: %q not found in dataset", internalerr.ErrMissingColumn, Required)
	}

	var s Split
	for _, c := range TextColumns {
		if present[c] {
			s.Text = append(s.Text, c)
		}
	}
	for _, c := range ContextColumns {
		if present[c] {
			s.Context = append(s.Context, c)
		}
	}
	return s, nil
}

package text

// Join combines a summary and a review. When only one side has content it
// wins verbatim; when both do they are joined by a single space.
func Join(summary, review string) string {
	switch {
	case summary == "" && review == "":
		return ""
	case summary != "" && review != "":
		return summary + " " + review
	case summary != "":
		return summary
	default:
		return review
	}
}

// JoinColumns applies Join row by row. Missing rows on the shorter side are
// treated as empty.
func JoinColumns(summaries, reviews []string) []string {
	n := max(len(summaries), len(reviews))
	out := make([]string, n)
	for i := range n {
		var s, r string
		if i < len(summaries) {
			s = summaries[i]
		}
		if i < len(reviews) {
			r = reviews[i]
		}
		out[i] = Join(s, r)
	}
	return out
}

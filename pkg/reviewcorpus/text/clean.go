// Package text holds the review text rules: cleaning raw fields before
// language detection, and joining the summary and review into the single
// string the enrichment pass normalizes.
package text

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	urlPattern   = regexp.MustCompile(`https?\S+|www\.\S+`)
	punctPattern = regexp.MustCompile(`[!?.,;:]+`)
	emojiPattern = regexp.MustCompile(`[` +
		`\x{1F650}-\x{1F67F}` + // ornamental dingbats
		`\x{1F600}-\x{1F64F}` + // emoticons
		`\x{1F300}-\x{1F5FF}` + // symbols & pictographs
		`\x{1F900}-\x{1F9FF}` + // supplemental symbols
		`\x{1FA70}-\x{1FAFF}` + // symbols & pictographs ext-A
		`\x{1F680}-\x{1F6FF}` + // transport & map
		`\x{1F1E0}-\x{1F1FF}` + // flags
		`\x{2700}-\x{27BF}` + // dingbats
		`]+`)
)

// Cleaner normalizes raw review fields. It holds no mutable state and is
// safe for concurrent use.
type Cleaner struct {
	stripMarkup bool
}

// NewCleaner creates a cleaner. With stripMarkup set, HTML tags are removed
// and entities decoded before the other rules run.
func NewCleaner(stripMarkup bool) *Cleaner {
	return &Cleaner{stripMarkup: stripMarkup}
}

// Clean applies, in order: markup stripping, URL removal, punctuation to
// space, emoji removal, lowercasing and whitespace collapsing.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return ""
	}
	if c.stripMarkup && strings.ContainsAny(text, "<&") {
		text = stripHTML(text)
	}
	text = urlPattern.ReplaceAllString(text, "")
	text = punctPattern.ReplaceAllString(text, " ")
	text = emojiPattern.ReplaceAllString(text, "")
	text = strings.ToLower(text)
	return strings.Join(strings.Fields(text), " ")
}

// CleanMany cleans a whole column.
func (c *Cleaner) CleanMany(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = c.Clean(t)
	}
	return out
}

func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
		if n.Type == html.ElementNode && n.Data == "p" {
			buf.WriteByte(' ')
		}
	}
	extractText(doc)

	return buf.String()
}

package stoplist

import (
	"sort"
	"strings"
)

// DefaultKeep are stopwords that carry sentiment and survive filtering.
var DefaultKeep = []string{"no", "not", "never"}

// Manager answers stopword lookups for the normalizer.
type Manager struct {
	stops map[string]struct{}
	keep  map[string]struct{}
}

// NewManager creates a stoplist from the given stopwords and keep-words.
// Entries are lowercased.
func NewManager(initialStops, keep []string) *Manager {
	m := &Manager{
		stops: make(map[string]struct{}, len(initialStops)),
		keep:  make(map[string]struct{}, len(keep)),
	}
	for _, s := range initialStops {
		m.Add(s)
	}
	for _, k := range keep {
		m.keep[strings.ToLower(k)] = struct{}{}
	}
	return m
}

// Default returns the built-in English stoplist with DefaultKeep.
func Default() *Manager {
	return NewManager(English, DefaultKeep)
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Keep reports whether lemma is a protected stopword.
func (m *Manager) Keep(lemma string) bool {
	_, ok := m.keep[lemma]
	return ok
}

// Drop reports whether a token should be removed: it is a stopword and its
// lemma is not protected.
func (m *Manager) Drop(token, lemma string) bool {
	return m.IsStop(token) && !m.Keep(lemma)
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	token = strings.TrimSpace(strings.ToLower(token))
	if token != "" {
		m.stops[token] = struct{}{}
	}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, token)
}

// All returns all stopwords, sorted.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// English is a general-purpose English stoplist. Negations are included so
// that the keep-set decides whether they survive.
var English = []string{
	"a", "about", "above", "after", "again", "against", "all", "almost", "alone",
	"along", "already", "also", "although", "always", "am", "among", "an", "and",
	"another", "any", "anyhow", "anyone", "anything", "anyway", "anywhere", "are",
	"around", "as", "at", "be", "became", "because", "become", "becomes", "been",
	"before", "being", "below", "beside", "besides", "between", "beyond", "both",
	"but", "by", "ca", "can", "cannot", "could", "did", "do", "does", "doing",
	"done", "down", "due", "during", "each", "either", "else", "elsewhere",
	"enough", "even", "ever", "every", "everyone", "everything", "everywhere",
	"few", "for", "from", "further", "get", "give", "go", "had", "has", "have",
	"he", "hence", "her", "here", "hers", "herself", "him", "himself", "his",
	"how", "however", "i", "if", "in", "indeed", "into", "is", "it", "its",
	"itself", "just", "keep", "last", "least", "less", "made", "make", "many",
	"may", "me", "meanwhile", "might", "mine", "more", "moreover", "most",
	"mostly", "much", "must", "my", "myself", "neither", "never", "nevertheless",
	"next", "no", "nobody", "none", "nor", "not", "nothing", "now", "nowhere",
	"of", "off", "often", "on", "once", "one", "only", "onto", "or", "other",
	"others", "otherwise", "our", "ours", "ourselves", "out", "over", "own",
	"per", "perhaps", "please", "put", "quite", "rather", "re", "really",
	"regarding", "same", "say", "see", "seem", "seemed", "seems", "several",
	"she", "should", "show", "since", "so", "some", "somehow", "someone",
	"something", "sometime", "sometimes", "somewhere", "still", "such", "take",
	"than", "that", "the", "their", "them", "themselves", "then", "there",
	"thereby", "therefore", "these", "they", "this", "those", "though",
	"through", "throughout", "thus", "to", "together", "too", "toward",
	"towards", "under", "unless", "until", "up", "upon", "us", "used", "using",
	"various", "very", "via", "was", "we", "well", "were", "what", "whatever",
	"when", "whenever", "where", "whereas", "wherever", "whether", "which",
	"while", "who", "whoever", "whole", "whom", "whose", "why", "will", "with",
	"within", "without", "would", "yet", "you", "your", "yours", "yourself",
	"yourselves",
	"'s", "'re", "'ve", "'ll", "'d", "'m",
}

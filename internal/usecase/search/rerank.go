package search

import (
	"strings"
	"time"

	"github.com/doclens/doclens/internal/domain/search/result"
)

// Boost magnitudes for the three independent rerank signals.
const (
	authorityBoostWeight = 0.1
	recencyBoostWeight   = 0.2
	titleBoostWeight     = 0.3
	recencyWindowDays    = 365
)

// rerank multiplies each combined score by three independent boost
// factors and re-sorts. The composition is multiplicative, so boost order
// does not matter; all three apply before the sort.
func rerank(scored []result.Scored, query string, now time.Time) []result.Scored {
	terms := tokenize(query)

	reranked := make([]result.Scored, len(scored))
	for i := range scored {
		c := scored[i].Candidate()
		boost := authorityBoost(c.Source().Authority()) *
			recencyBoost(c.UpdatedAt(), now) *
			titleBoost(c.Title(), terms)
		reranked[i] = scored[i].WithScore(scored[i].Score() * boost)
	}

	sortScored(reranked)
	return reranked
}

// authorityBoost rewards configured per-source trust: 1 + authority*0.1.
func authorityBoost(authority float64) float64 {
	return 1 + authority*authorityBoostWeight
}

// recencyBoost decays linearly over a year. Documents older than the
// window, or without a known timestamp, get no boost.
func recencyBoost(updatedAt time.Time, now time.Time) float64 {
	if updatedAt.IsZero() {
		return 1
	}
	days := now.Sub(updatedAt).Hours() / 24
	fresh := 1 - days/recencyWindowDays
	if fresh < 0 {
		fresh = 0
	}
	return 1 + fresh*recencyBoostWeight
}

// titleBoost rewards the fraction of query terms appearing as substrings
// of the title, case-insensitive.
func titleBoost(title string, terms []string) float64 {
	if len(terms) == 0 {
		return 1
	}
	lower := strings.ToLower(title)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return 1 + float64(matched)/float64(len(terms))*titleBoostWeight
}

// tokenize splits the query into lowercase terms with edge punctuation trimmed.
func tokenize(query string) []string {
	words := strings.Fields(query)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		cleaned := strings.ToLower(strings.Trim(w, ".,!?;:'\"-()[]{}"))
		if cleaned != "" {
			terms = append(terms, cleaned)
		}
	}
	return terms
}

package search

import (
	"sort"

	"github.com/doclens/doclens/internal/domain/search/result"
)

// Method weights for score combination. Semantic similarity is weighted
// higher than lexical rank on purpose: keyword-only hits are suppressed
// relative to semantic-only ones, and the scales are not normalized.
const (
	semanticWeight = 0.7
	keywordWeight  = 0.3
)

// combine merges the two candidate sets into one scored list with at most
// one entry per document id:
//
//	both methods:  combined = 0.7*semantic + 0.3*keyword
//	semantic only: combined = 0.7*semantic
//	keyword only:  combined = 0.3*keyword
//
// Output is ordered by combined score descending, id ascending on ties.
// When a document appears in both sets the semantic candidate's fields win.
func combine(semantic, keyword []result.Candidate) []result.Scored {
	type merged struct {
		candidate result.Candidate
		breakdown result.Breakdown
	}

	byID := make(map[string]*merged, len(semantic)+len(keyword))

	for _, c := range semantic {
		if _, ok := byID[c.ID()]; ok {
			continue
		}
		byID[c.ID()] = &merged{
			candidate: c,
			breakdown: result.Breakdown{Semantic: c.Score()},
		}
	}

	for _, c := range keyword {
		if m, ok := byID[c.ID()]; ok {
			if m.breakdown.Keyword == 0 {
				m.breakdown.Keyword = c.Score()
			}
			continue
		}
		byID[c.ID()] = &merged{
			candidate: c,
			breakdown: result.Breakdown{Keyword: c.Score()},
		}
	}

	scored := make([]result.Scored, 0, len(byID))
	for _, m := range byID {
		b := m.breakdown
		b.Combined = semanticWeight*b.Semantic + keywordWeight*b.Keyword
		scored = append(scored, result.NewScored(m.candidate, b, b.Combined))
	}

	sortScored(scored)
	return scored
}

// sortScored orders by final score descending, document id ascending on ties.
func sortScored(scored []result.Scored) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score() != scored[j].Score() {
			return scored[i].Score() > scored[j].Score()
		}
		return scored[i].Candidate().ID() < scored[j].Candidate().ID()
	})
}

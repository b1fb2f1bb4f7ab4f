// Package docindex adapts the RediSearch corpus index into the retriever
// contracts used by the search usecase.
package docindex

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/doclens/doclens/internal/db"
	"github.com/doclens/doclens/internal/domain"
	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/result"
)

// IndexName is the FT index over the document corpus.
const IndexName = domain.KeyPrefix + "docs:idx"

// DocKeyPrefix prefixes every stored document hash key.
const DocKeyPrefix = domain.KeyPrefix + "doc:"

// Stored hash field names.
const (
	fieldTitle        = "title"
	fieldContent      = "content"
	fieldURL          = "url"
	fieldSourceName   = "source_name"
	fieldSourceType   = "source_type"
	fieldAuthority    = "authority"
	fieldTechnologies = "technologies"
	fieldUpdatedAt    = "updated_at"
)

var returnFields = []string{
	fieldTitle, fieldContent, fieldURL,
	fieldSourceName, fieldSourceType, fieldAuthority,
	fieldTechnologies, fieldUpdatedAt,
}

// store is the consumer interface for retrieval operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements the semantic and keyword retriever contracts.
type Repo struct {
	store store
}

// New creates a document index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchSemantic runs a KNN query and keeps only candidates scoring
// strictly above minSimilarity. Candidates are ordered by score
// descending, ties broken by document id ascending.
func (r *Repo) SearchSemantic(
	ctx context.Context, vector []float32, filters filter.Filter,
	minSimilarity float64, limit int,
) ([]result.Candidate, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Filters:      filters,
		Vector:       vector,
		K:            limit,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	candidates := parseCandidates(sr)
	kept := candidates[:0]
	for _, c := range candidates {
		if c.Score() > minSimilarity {
			kept = append(kept, c)
		}
	}
	sortCandidates(kept)
	return kept, nil
}

// SearchKeyword runs a BM25 query. Scores are non-negative, unbounded
// lexical ranks; ordering matches SearchSemantic.
func (r *Repo) SearchKeyword(
	ctx context.Context, query string, filters filter.Filter, limit int,
) ([]result.Candidate, error) {
	sr, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    IndexName,
		TextField:    fieldContent,
		Query:        query,
		Filters:      filters,
		TopK:         limit,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w", err)
	}

	candidates := parseCandidates(sr)
	sortCandidates(candidates)
	return candidates, nil
}

// sortCandidates orders by score descending, document id ascending on ties.
// The tie-break keeps result ordering deterministic across runs.
func sortCandidates(cs []result.Candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Score() != cs[j].Score() {
			return cs[i].Score() > cs[j].Score()
		}
		return cs[i].ID() < cs[j].ID()
	})
}

func parseCandidates(sr *db.SearchResult) []result.Candidate {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	candidates := make([]result.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		docID := strings.TrimPrefix(entry.Key, DocKeyPrefix)
		candidates = append(candidates, parseEntry(docID, entry))
	}
	return candidates
}

func parseEntry(docID string, entry db.SearchEntry) result.Candidate {
	f := entry.Fields

	authority := 1.0
	if v, err := strconv.ParseFloat(f[fieldAuthority], 64); err == nil && v > 0 {
		authority = v
	}

	var updatedAt time.Time
	if ts, err := strconv.ParseInt(f[fieldUpdatedAt], 10, 64); err == nil && ts > 0 {
		updatedAt = time.Unix(ts, 0).UTC()
	}

	var technologies []string
	if raw := f[fieldTechnologies]; raw != "" {
		technologies = strings.Split(raw, ",")
	}

	src := result.NewSource(f[fieldSourceName], f[fieldSourceType], authority)
	return result.NewCandidate(
		docID, f[fieldTitle], f[fieldContent], f[fieldURL],
		src, entry.Score, technologies, updatedAt,
	)
}

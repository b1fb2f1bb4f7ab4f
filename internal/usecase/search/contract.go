package search

import (
	"context"

	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/result"
)

// Retriever is the storage contract for both retrieval methods.
type Retriever interface {
	// SearchSemantic returns candidates scoring strictly above
	// minSimilarity, ordered by score descending, id ascending on ties.
	SearchSemantic(
		ctx context.Context, vector []float32, filters filter.Filter,
		minSimilarity float64, limit int,
	) ([]result.Candidate, error)

	// SearchKeyword returns lexically ranked candidates with the same
	// ordering guarantees.
	SearchKeyword(
		ctx context.Context, query string, filters filter.Filter, limit int,
	) ([]result.Candidate, error)
}

// ResponseCache is the best-effort response cache contract.
// Get and Set must never fail the search: a broken cache reads as a miss
// and writes as a no-op.
type ResponseCache interface {
	Get(ctx context.Context, fingerprint string) (*result.Response, bool)
	Set(ctx context.Context, fingerprint string, resp *result.Response)
	InvalidatePattern(ctx context.Context, pattern string) (int, error)
}

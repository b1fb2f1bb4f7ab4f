package request

import (
	"fmt"
	"strings"

	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	// DefaultMaxResults is the result count returned when unspecified.
	DefaultMaxResults = 20
	// MaxMaxResults caps the requested result count.
	MaxMaxResults = 100
	// DefaultMinSimilarity is the semantic similarity floor when unspecified.
	DefaultMinSimilarity = 0.7
)

// Request is a validated, immutable search query.
type Request struct {
	query         string
	searchMode    mode.Mode
	filters       filter.Filter
	maxResults    int
	rerank        bool
	minSimilarity float64
	skipCache     bool
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, maxResults=20, rerank=true, minSimilarity=0.7.
// rerank and minSimilarity are nil when the caller did not specify them.
func New(
	query string,
	m mode.Mode,
	filters filter.Filter,
	maxResults int,
	rerank *bool,
	minSimilarity *float64,
	skipCache bool,
) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxMaxResults {
		maxResults = MaxMaxResults
	}

	doRerank := true
	if rerank != nil {
		doRerank = *rerank
	}

	minSim := DefaultMinSimilarity
	if minSimilarity != nil {
		minSim = *minSimilarity
	}
	if minSim < 0 || minSim > 1 {
		return Request{}, fmt.Errorf("min_similarity must be between 0 and 1")
	}

	return Request{
		query:         query,
		searchMode:    m,
		filters:       filters,
		maxResults:    maxResults,
		rerank:        doRerank,
		minSimilarity: minSim,
		skipCache:     skipCache,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filters returns the filter applied to both retrievers.
func (r *Request) Filters() filter.Filter { return r.filters }

// MaxResults returns the maximum results to return.
func (r *Request) MaxResults() int { return r.maxResults }

// Rerank reports whether secondary-signal reranking is applied.
func (r *Request) Rerank() bool { return r.rerank }

// MinSimilarity returns the semantic similarity floor. Candidates must
// score strictly above it to be retained.
func (r *Request) MinSimilarity() float64 { return r.minSimilarity }

// SkipCache reports whether the response cache is bypassed.
func (r *Request) SkipCache() bool { return r.skipCache }

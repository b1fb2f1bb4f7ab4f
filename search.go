package doclens

import (
	"context"
	"fmt"
	"time"

	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/mode"
	"github.com/doclens/doclens/internal/domain/search/request"
	"github.com/doclens/doclens/internal/domain/search/result"
)

// SearchMode selects the retrieval strategy.
type SearchMode string

// Supported search modes.
const (
	ModeHybrid   SearchMode = SearchMode(mode.Hybrid)
	ModeSemantic SearchMode = SearchMode(mode.Semantic)
	ModeKeyword  SearchMode = SearchMode(mode.Keyword)
)

// Filters narrows a search to matching documents. Zero value matches everything.
type Filters struct {
	Technologies []string
	Difficulties []string
	ContentTypes []string
	Sources      []string
	UpdatedFrom  *time.Time
	UpdatedTo    *time.Time
}

// SearchOptions configures a search query. Zero value gives hybrid mode with
// reranking and defaults for everything else.
type SearchOptions struct {
	Mode          SearchMode
	Filters       Filters
	MaxResults    int
	Rerank        *bool
	MinSimilarity *float64
	SkipCache     bool
}

// SearchResult is one scored document.
type SearchResult struct {
	ID           string
	Title        string
	Content      string
	URL          string
	SourceName   string
	SourceType   string
	Authority    float64
	Technologies []string
	UpdatedAt    time.Time
	Score        float64
	Breakdown    ScoreBreakdown
}

// ScoreBreakdown exposes the per-signal scores behind a result.
type ScoreBreakdown struct {
	Semantic float64
	Keyword  float64
	Combined float64
}

// SearchResponse is the full outcome of a query.
type SearchResponse struct {
	Results   []SearchResult
	Total     int
	TookMS    int64
	Mode      SearchMode
	FromCache bool
}

// Search executes a query.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (*SearchResponse, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	m := mode.Mode(opts.Mode)
	if m == "" {
		m = mode.Hybrid
	}

	filters, err := toInternalFilters(opts.Filters)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	req, err := request.New(
		query, m, filters,
		opts.MaxResults, opts.Rerank, opts.MinSimilarity, opts.SkipCache,
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	resp, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromResponse(resp), nil
}

// InvalidateCache drops cached search responses matching pattern. An empty
// pattern drops everything. Returns the number of removed entries.
func (c *Client) InvalidateCache(ctx context.Context, pattern string) (int, error) {
	n, err := c.searchSvc.InvalidateCache(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("invalidate cache: %w", err)
	}
	return n, nil
}

func toInternalFilters(f Filters) (filter.Filter, error) {
	difficulties := make([]filter.Difficulty, 0, len(f.Difficulties))
	for _, d := range f.Difficulties {
		difficulties = append(difficulties, filter.Difficulty(d))
	}
	if len(difficulties) == 0 {
		difficulties = nil
	}
	return filter.New(
		f.Technologies, difficulties, f.ContentTypes, f.Sources,
		f.UpdatedFrom, f.UpdatedTo,
	)
}

func fromResponse(resp *result.Response) *SearchResponse {
	results := make([]SearchResult, 0, len(resp.Results))
	for i := range resp.Results {
		s := &resp.Results[i]
		c := s.Candidate()
		b := s.Breakdown()
		results = append(results, SearchResult{
			ID:           c.ID(),
			Title:        c.Title(),
			Content:      c.Content(),
			URL:          c.URL(),
			SourceName:   c.Source().Name(),
			SourceType:   c.Source().Type(),
			Authority:    c.Source().Authority(),
			Technologies: c.Technologies(),
			UpdatedAt:    c.UpdatedAt(),
			Score:        s.Score(),
			Breakdown: ScoreBreakdown{
				Semantic: b.Semantic,
				Keyword:  b.Keyword,
				Combined: b.Combined,
			},
		})
	}
	return &SearchResponse{
		Results:   results,
		Total:     resp.Total,
		TookMS:    resp.TookMS,
		Mode:      SearchMode(resp.Mode),
		FromCache: resp.FromCache,
	}
}

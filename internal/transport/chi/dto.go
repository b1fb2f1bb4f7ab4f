package chi

import (
	"fmt"
	"time"

	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/mode"
	"github.com/doclens/doclens/internal/domain/search/request"
	"github.com/doclens/doclens/internal/domain/search/result"
)

// Wire shapes for the search API.

type searchRequestDTO struct {
	Query   string            `json:"query"`
	Filters *searchFiltersDTO `json:"filters,omitempty"`
	Options *searchOptionsDTO `json:"options,omitempty"`
}

type searchFiltersDTO struct {
	Technologies []string   `json:"technologies,omitempty"`
	Difficulties []string   `json:"difficulties,omitempty"`
	ContentTypes []string   `json:"content_types,omitempty"`
	Sources      []string   `json:"sources,omitempty"`
	UpdatedFrom  *time.Time `json:"updated_from,omitempty"`
	UpdatedTo    *time.Time `json:"updated_to,omitempty"`
}

type searchOptionsDTO struct {
	MaxResults    int      `json:"max_results,omitempty"`
	SearchType    string   `json:"search_type,omitempty"`
	Rerank        *bool    `json:"rerank,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
	SkipCache     bool     `json:"skip_cache,omitempty"`
}

type searchResponseDTO struct {
	Results  []scoredResultDTO `json:"results"`
	Metadata searchMetadataDTO `json:"metadata"`
}

type scoredResultDTO struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	URL          string            `json:"url"`
	Source       sourceDTO         `json:"source"`
	Technologies []string          `json:"technologies,omitempty"`
	UpdatedAt    *time.Time        `json:"updated_at,omitempty"`
	Score        float64           `json:"score"`
	Breakdown    scoreBreakdownDTO `json:"score_breakdown"`
}

type sourceDTO struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Authority float64 `json:"authority"`
}

type scoreBreakdownDTO struct {
	Semantic float64 `json:"semantic"`
	Keyword  float64 `json:"keyword"`
	Combined float64 `json:"combined"`
}

type searchMetadataDTO struct {
	TotalResults   int               `json:"total_results"`
	SearchTimeMS   int64             `json:"search_time_ms"`
	SearchType     string            `json:"search_type"`
	Query          string            `json:"query"`
	AppliedFilters *searchFiltersDTO `json:"applied_filters,omitempty"`
	FromCache      bool              `json:"from_cache"`
}

type errorResponseDTO struct {
	Error errorBodyDTO `json:"error"`
}

type errorBodyDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type invalidateResponseDTO struct {
	Removed int `json:"removed"`
}

type healthResponseDTO struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// --- DTO -> domain ---

func (d *searchRequestDTO) toRequest() (request.Request, error) {
	filters, err := toFilter(d.Filters)
	if err != nil {
		return request.Request{}, fmt.Errorf("filters: %w", err)
	}

	opts := d.Options
	if opts == nil {
		opts = &searchOptionsDTO{}
	}

	return request.New(
		d.Query,
		mode.Mode(opts.SearchType),
		filters,
		opts.MaxResults,
		opts.Rerank,
		opts.MinSimilarity,
		opts.SkipCache,
	)
}

func toFilter(d *searchFiltersDTO) (filter.Filter, error) {
	if d == nil {
		return filter.Filter{}, nil
	}

	difficulties := make([]filter.Difficulty, 0, len(d.Difficulties))
	for _, v := range d.Difficulties {
		difficulties = append(difficulties, filter.Difficulty(v))
	}
	if len(difficulties) == 0 {
		difficulties = nil
	}

	return filter.New(
		d.Technologies, difficulties, d.ContentTypes, d.Sources,
		d.UpdatedFrom, d.UpdatedTo,
	)
}

// --- domain -> DTO ---

func toResponseDTO(resp *result.Response) searchResponseDTO {
	results := make([]scoredResultDTO, 0, len(resp.Results))
	for i := range resp.Results {
		results = append(results, toScoredDTO(&resp.Results[i]))
	}

	return searchResponseDTO{
		Results: results,
		Metadata: searchMetadataDTO{
			TotalResults:   resp.Total,
			SearchTimeMS:   resp.TookMS,
			SearchType:     string(resp.Mode),
			Query:          resp.Query,
			AppliedFilters: toFiltersDTO(resp.Filters),
			FromCache:      resp.FromCache,
		},
	}
}

func toScoredDTO(s *result.Scored) scoredResultDTO {
	c := s.Candidate()
	b := s.Breakdown()

	var updatedAt *time.Time
	if t := c.UpdatedAt(); !t.IsZero() {
		updatedAt = &t
	}

	return scoredResultDTO{
		ID:      c.ID(),
		Title:   c.Title(),
		Content: c.Content(),
		URL:     c.URL(),
		Source: sourceDTO{
			Name:      c.Source().Name(),
			Type:      c.Source().Type(),
			Authority: c.Source().Authority(),
		},
		Technologies: c.Technologies(),
		UpdatedAt:    updatedAt,
		Score:        s.Score(),
		Breakdown: scoreBreakdownDTO{
			Semantic: b.Semantic,
			Keyword:  b.Keyword,
			Combined: b.Combined,
		},
	}
}

func toFiltersDTO(f filter.Filter) *searchFiltersDTO {
	if f.IsEmpty() {
		return nil
	}

	difficulties := make([]string, 0, len(f.Difficulties()))
	for _, d := range f.Difficulties() {
		difficulties = append(difficulties, string(d))
	}
	if len(difficulties) == 0 {
		difficulties = nil
	}

	return &searchFiltersDTO{
		Technologies: f.Technologies(),
		Difficulties: difficulties,
		ContentTypes: f.ContentTypes(),
		Sources:      f.Sources(),
		UpdatedFrom:  f.UpdatedFrom(),
		UpdatedTo:    f.UpdatedTo(),
	}
}

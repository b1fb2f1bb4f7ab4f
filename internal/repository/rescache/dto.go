package rescache

import (
	"time"

	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/mode"
	"github.com/doclens/doclens/internal/domain/search/result"
)

// Serialized cache payload. The stored shape is versioned implicitly by the
// cache key prefix; incompatible payloads decode to a miss, never an error.

type payloadDTO struct {
	Results []scoredDTO `json:"results"`
	Total   int         `json:"total"`
	Mode    string      `json:"mode"`
	Query   string      `json:"query"`
	Filters filterDTO   `json:"filters"`
}

type scoredDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	URL          string    `json:"url"`
	SourceName   string    `json:"source_name"`
	SourceType   string    `json:"source_type"`
	Authority    float64   `json:"authority"`
	Technologies []string  `json:"technologies,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
	Semantic     float64   `json:"semantic_score"`
	Keyword      float64   `json:"keyword_score"`
	Combined     float64   `json:"combined_score"`
	Score        float64   `json:"score"`
}

type filterDTO struct {
	Technologies []string   `json:"technologies,omitempty"`
	Difficulties []string   `json:"difficulties,omitempty"`
	ContentTypes []string   `json:"content_types,omitempty"`
	Sources      []string   `json:"sources,omitempty"`
	UpdatedFrom  *time.Time `json:"updated_from,omitempty"`
	UpdatedTo    *time.Time `json:"updated_to,omitempty"`
}

func toPayload(resp *result.Response) payloadDTO {
	results := make([]scoredDTO, 0, len(resp.Results))
	for i := range resp.Results {
		s := &resp.Results[i]
		c := s.Candidate()
		b := s.Breakdown()
		results = append(results, scoredDTO{
			ID:           c.ID(),
			Title:        c.Title(),
			Content:      c.Content(),
			URL:          c.URL(),
			SourceName:   c.Source().Name(),
			SourceType:   c.Source().Type(),
			Authority:    c.Source().Authority(),
			Technologies: c.Technologies(),
			UpdatedAt:    c.UpdatedAt(),
			Semantic:     b.Semantic,
			Keyword:      b.Keyword,
			Combined:     b.Combined,
			Score:        s.Score(),
		})
	}

	return payloadDTO{
		Results: results,
		Total:   resp.Total,
		Mode:    string(resp.Mode),
		Query:   resp.Query,
		Filters: toFilterDTO(resp.Filters),
	}
}

func fromPayload(p *payloadDTO) (*result.Response, error) {
	filters, err := fromFilterDTO(p.Filters)
	if err != nil {
		return nil, err
	}

	results := make([]result.Scored, 0, len(p.Results))
	for _, d := range p.Results {
		src := result.NewSource(d.SourceName, d.SourceType, d.Authority)
		c := result.NewCandidate(
			d.ID, d.Title, d.Content, d.URL, src, 0, d.Technologies, d.UpdatedAt,
		)
		b := result.Breakdown{Semantic: d.Semantic, Keyword: d.Keyword, Combined: d.Combined}
		results = append(results, result.NewScored(c, b, d.Score))
	}

	return &result.Response{
		Results: results,
		Total:   p.Total,
		Mode:    mode.Mode(p.Mode),
		Query:   p.Query,
		Filters: filters,
	}, nil
}

func toFilterDTO(f filter.Filter) filterDTO {
	difficulties := make([]string, 0, len(f.Difficulties()))
	for _, d := range f.Difficulties() {
		difficulties = append(difficulties, string(d))
	}
	if len(difficulties) == 0 {
		difficulties = nil
	}
	return filterDTO{
		Technologies: f.Technologies(),
		Difficulties: difficulties,
		ContentTypes: f.ContentTypes(),
		Sources:      f.Sources(),
		UpdatedFrom:  f.UpdatedFrom(),
		UpdatedTo:    f.UpdatedTo(),
	}
}

func fromFilterDTO(d filterDTO) (filter.Filter, error) {
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

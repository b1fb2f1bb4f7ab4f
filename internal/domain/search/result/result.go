package result

import (
	"time"

	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/mode"
)

// Source describes where a document came from.
type Source struct {
	name       string
	sourceType string
	authority  float64
}

// NewSource creates a source descriptor. authority is the per-source
// configured trust weight, typically >= 1.
func NewSource(name, sourceType string, authority float64) Source {
	return Source{name: name, sourceType: sourceType, authority: authority}
}

// Name returns the source name.
func (s Source) Name() string { return s.name }

// Type returns the source type.
func (s Source) Type() string { return s.sourceType }

// Authority returns the configured authority weight.
func (s Source) Authority() float64 { return s.authority }

// Candidate is a single retrieval hit before merging and reranking.
// Score is method-specific: cosine similarity in [0,1] for semantic hits,
// a non-negative unbounded lexical rank for keyword hits.
type Candidate struct {
	id           string
	title        string
	content      string
	url          string
	source       Source
	score        float64
	technologies []string
	updatedAt    time.Time // zero means unknown
}

// NewCandidate creates a retrieval hit.
func NewCandidate(
	id, title, content, url string,
	source Source,
	score float64,
	technologies []string,
	updatedAt time.Time,
) Candidate {
	return Candidate{
		id: id, title: title, content: content, url: url,
		source: source, score: score,
		technologies: technologies, updatedAt: updatedAt,
	}
}

// ID returns the document identifier.
func (c *Candidate) ID() string { return c.id }

// Title returns the document title.
func (c *Candidate) Title() string { return c.title }

// Content returns the raw snippet source text.
func (c *Candidate) Content() string { return c.content }

// URL returns the document URL.
func (c *Candidate) URL() string { return c.url }

// Source returns the source descriptor.
func (c *Candidate) Source() Source { return c.source }

// Score returns the method-specific retrieval score.
func (c *Candidate) Score() float64 { return c.score }

// Technologies returns the document technology tags.
func (c *Candidate) Technologies() []string { return c.technologies }

// UpdatedAt returns the last-modified timestamp, zero when unknown.
func (c *Candidate) UpdatedAt() time.Time { return c.updatedAt }

// Breakdown records how a combined score was assembled.
type Breakdown struct {
	Semantic float64
	Keyword  float64
	Combined float64
}

// Scored is a candidate annotated with its score breakdown and final score.
// Before reranking the final score equals Breakdown.Combined.
type Scored struct {
	candidate Candidate
	breakdown Breakdown
	score     float64
}

// NewScored creates a scored result.
func NewScored(c Candidate, b Breakdown, score float64) Scored {
	return Scored{candidate: c, breakdown: b, score: score}
}

// Candidate returns the underlying retrieval hit.
func (s *Scored) Candidate() *Candidate { return &s.candidate }

// Breakdown returns the score breakdown.
func (s *Scored) Breakdown() Breakdown { return s.breakdown }

// Score returns the final relevance score.
func (s *Scored) Score() float64 { return s.score }

// WithScore returns a copy with the final score replaced.
func (s Scored) WithScore(score float64) Scored {
	s.score = score
	return s
}

// Response is an ordered search result set with request metadata.
type Response struct {
	Results   []Scored
	Total     int // candidate count before truncation
	TookMS    int64
	Mode      mode.Mode
	Query     string
	Filters   filter.Filter
	FromCache bool
}

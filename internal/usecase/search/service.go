// Package search implements the query orchestrator: cache-aside control
// flow around concurrent hybrid retrieval, score combination, and
// secondary-signal reranking.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/doclens/doclens/internal/domain"
	"github.com/doclens/doclens/internal/domain/search/request"
	"github.com/doclens/doclens/internal/domain/search/result"
	"github.com/doclens/doclens/internal/metrics"
)

// Options holds orchestration tunables.
type Options struct {
	// CandidateLimit is the per-retriever fetch size before merging.
	// Reranking sees this full set; truncation to maxResults happens last.
	CandidateLimit int
	// RetrieverTimeout caps a single retrieval phase so a stalled
	// back-end cannot hang a request.
	RetrieverTimeout time.Duration
}

const (
	defaultCandidateLimit   = 50
	defaultRetrieverTimeout = 10 * time.Second
)

// Service coordinates a search request end to end. All collaborators are
// injected at construction; the service itself is stateless per request.
type Service struct {
	retriever Retriever
	embed     domain.Embedder
	cache     ResponseCache
	opts      Options
	logger    *zap.Logger
}

// New creates a search service.
func New(
	retriever Retriever,
	embed domain.Embedder,
	cache ResponseCache,
	opts Options,
	logger *zap.Logger,
) *Service {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = defaultCandidateLimit
	}
	if opts.RetrieverTimeout <= 0 {
		opts.RetrieverTimeout = defaultRetrieverTimeout
	}
	return &Service{
		retriever: retriever,
		embed:     embed,
		cache:     cache,
		opts:      opts,
		logger:    logger,
	}
}

// Search executes a search request: cache check, retrieval per mode,
// combination, reranking, truncation, and an awaited cache write-back.
func (s *Service) Search(ctx context.Context, req *request.Request) (*result.Response, error) {
	// Input is validated before any I/O: no cache or retriever call on bad input.
	if req == nil || strings.TrimSpace(req.Query()) == "" {
		metrics.SearchRequestsTotal.WithLabelValues("unknown", "invalid").Inc()
		return nil, domain.NewSearchError(domain.ReasonInvalidQuery, domain.ErrInvalidQuery)
	}

	m := req.Mode()
	start := time.Now()

	fingerprint := Fingerprint(req)

	// Hit/miss accounting lives in the cache adapter, which also sees the
	// decode-failure misses this layer cannot distinguish.
	if !req.SkipCache() {
		if cached, ok := s.cache.Get(ctx, fingerprint); ok {
			metrics.SearchRequestsTotal.WithLabelValues(string(m), "success").Inc()
			cached.FromCache = true
			cached.TookMS = time.Since(start).Milliseconds()
			return cached, nil
		}
	}

	semantic, keyword, err := s.retrieve(ctx, req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(m), "error").Inc()
		return nil, err
	}

	scored := combine(semantic, keyword)
	total := len(scored)

	if req.Rerank() {
		scored = rerank(scored, req.Query(), time.Now())
	}

	// Truncate only after reranking so boosted documents beyond the raw
	// top-N can surface.
	if len(scored) > req.MaxResults() {
		scored = scored[:req.MaxResults()]
	}

	resp := &result.Response{
		Results: scored,
		Total:   total,
		Mode:    m,
		Query:   req.Query(),
		Filters: req.Filters(),
	}

	// Awaited write: two concurrent requests for one fingerprint must not
	// race to populate the cache after their responses are built.
	if !req.SkipCache() {
		s.cache.Set(ctx, fingerprint, resp)
	}

	resp.TookMS = time.Since(start).Milliseconds()
	metrics.SearchRequestsTotal.WithLabelValues(string(m), "success").Inc()
	metrics.SearchDuration.WithLabelValues(string(m)).Observe(time.Since(start).Seconds())

	return resp, nil
}

// retrieve dispatches to the retrievers according to the search mode.
// Hybrid runs both concurrently with wait-for-both semantics: a failure of
// either cancels the sibling and fails the request. There is no silent
// degradation to single-method results.
func (s *Service) retrieve(
	ctx context.Context, req *request.Request,
) (semantic, keyword []result.Candidate, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RetrieverTimeout)
	defer cancel()

	m := req.Mode()

	if !m.NeedsKeyword() {
		semantic, err = s.retrieveSemantic(ctx, req)
		return semantic, nil, err
	}
	if !m.NeedsSemantic() {
		keyword, err = s.retrieveKeyword(ctx, req)
		return nil, keyword, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var gerr error
		semantic, gerr = s.retrieveSemantic(gctx, req)
		return gerr
	})
	g.Go(func() error {
		var gerr error
		keyword, gerr = s.retrieveKeyword(gctx, req)
		return gerr
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return semantic, keyword, nil
}

// retrieveSemantic embeds the query and runs the vector search. An
// embedding failure is fatal and reported distinctly from a back-end
// retrieval failure.
func (s *Service) retrieveSemantic(
	ctx context.Context, req *request.Request,
) ([]result.Candidate, error) {
	embRes, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, domain.NewSearchError(
			domain.ReasonEmbeddingFailure, fmt.Errorf("vectorize query: %w", err),
		)
	}

	candidates, err := s.retriever.SearchSemantic(
		ctx, embRes.Embedding, req.Filters(), req.MinSimilarity(), s.opts.CandidateLimit,
	)
	if err != nil {
		return nil, domain.NewSearchError(
			domain.ReasonSemanticRetrieval,
			fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err),
		)
	}
	return candidates, nil
}

func (s *Service) retrieveKeyword(
	ctx context.Context, req *request.Request,
) ([]result.Candidate, error) {
	candidates, err := s.retriever.SearchKeyword(
		ctx, req.Query(), req.Filters(), s.opts.CandidateLimit,
	)
	if err != nil {
		return nil, domain.NewSearchError(
			domain.ReasonKeywordRetrieval,
			fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err),
		)
	}
	return candidates, nil
}

// InvalidateCache removes cached responses matching the glob pattern.
// Administrative operation; returns the number of entries removed.
func (s *Service) InvalidateCache(ctx context.Context, pattern string) (int, error) {
	n, err := s.cache.InvalidatePattern(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("invalidate cache: %w", err)
	}
	s.logger.Info("Invalidated cached responses",
		zap.String("pattern", pattern), zap.Int("removed", n))
	return n, nil
}

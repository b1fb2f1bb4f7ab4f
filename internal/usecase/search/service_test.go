package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/db"
	"github.com/doclens/doclens/internal/domain"
	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/mode"
	"github.com/doclens/doclens/internal/domain/search/request"
	"github.com/doclens/doclens/internal/domain/search/result"
	"github.com/doclens/doclens/internal/metrics"
	"github.com/doclens/doclens/internal/repository/rescache"
)

// --- Mocks ---

type mockRetriever struct {
	semanticResults []result.Candidate
	semanticErr     error
	keywordResults  []result.Candidate
	keywordErr      error
	semanticCalled  bool
	keywordCalled   bool
	lastMinSim      float64
	lastLimit       int
}

func (m *mockRetriever) SearchSemantic(
	_ context.Context, _ []float32, _ filter.Filter, minSimilarity float64, limit int,
) ([]result.Candidate, error) {
	m.semanticCalled = true
	m.lastMinSim = minSimilarity
	m.lastLimit = limit
	return m.semanticResults, m.semanticErr
}

func (m *mockRetriever) SearchKeyword(
	_ context.Context, _ string, _ filter.Filter, limit int,
) ([]result.Candidate, error) {
	m.keywordCalled = true
	m.lastLimit = limit
	return m.keywordResults, m.keywordErr
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockCache struct {
	stored    map[string]*result.Response
	getCalled bool
	setCalled bool
	lastSetFP string
}

func newMockCache() *mockCache {
	return &mockCache{stored: make(map[string]*result.Response)}
}

func (m *mockCache) Get(_ context.Context, fingerprint string) (*result.Response, bool) {
	m.getCalled = true
	resp, ok := m.stored[fingerprint]
	return resp, ok
}

func (m *mockCache) Set(_ context.Context, fingerprint string, resp *result.Response) {
	m.setCalled = true
	m.lastSetFP = fingerprint
	m.stored[fingerprint] = resp
}

func (m *mockCache) InvalidatePattern(_ context.Context, _ string) (int, error) {
	n := len(m.stored)
	m.stored = make(map[string]*result.Response)
	return n, nil
}

func newService(retriever *mockRetriever, embed *mockEmbedder, cache *mockCache) *Service {
	return New(retriever, embed, cache, Options{}, zap.NewNop())
}

func searchRequest(t *testing.T, m mode.Mode) *request.Request {
	t.Helper()
	r, err := request.New("go channels", m, filter.Filter{}, 10, nil, nil, false)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}

// --- Tests ---

func TestSearch_Hybrid(t *testing.T) {
	retriever := &mockRetriever{
		semanticResults: []result.Candidate{candidate("doc1", 0.9), candidate("doc2", 0.8)},
		keywordResults:  []result.Candidate{candidate("doc1", 5.0), candidate("doc3", 3.0)},
	}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	cache := newMockCache()
	svc := newService(retriever, embed, cache)

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Hybrid))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !retriever.semanticCalled || !retriever.keywordCalled {
		t.Error("hybrid mode must run both retrievers")
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Candidate().ID() != "doc1" {
		t.Errorf("expected doc1 first, got %s", resp.Results[0].Candidate().ID())
	}
	if resp.Total != 3 {
		t.Errorf("expected total 3, got %d", resp.Total)
	}
	if resp.FromCache {
		t.Error("fresh response must not be marked as cached")
	}
	if !cache.setCalled {
		t.Error("successful response should be written to the cache")
	}
}

func TestSearch_Semantic_SkipsKeyword(t *testing.T) {
	retriever := &mockRetriever{
		semanticResults: []result.Candidate{candidate("doc1", 0.9)},
	}
	embed := &mockEmbedder{vec: []float32{0.1}}
	svc := newService(retriever, embed, newMockCache())

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Semantic))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retriever.keywordCalled {
		t.Error("semantic mode must not call the keyword retriever")
	}
	if !embed.called {
		t.Error("semantic mode must embed the query")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
}

func TestSearch_Keyword_SkipsEmbedding(t *testing.T) {
	retriever := &mockRetriever{
		keywordResults: []result.Candidate{candidate("doc1", 4.0)},
	}
	embed := &mockEmbedder{err: errors.New("provider down")}
	svc := newService(retriever, embed, newMockCache())

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Keyword))
	if err != nil {
		t.Fatalf("keyword search must succeed with a broken embedder: %v", err)
	}
	if embed.called {
		t.Error("keyword mode must never call the embedder")
	}
	if retriever.semanticCalled {
		t.Error("keyword mode must not call the semantic retriever")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
}

func TestSearch_NilRequest(t *testing.T) {
	retriever := &mockRetriever{}
	cache := newMockCache()
	svc := newService(retriever, &mockEmbedder{}, cache)

	_, err := svc.Search(context.Background(), nil)
	if domain.ReasonOf(err) != domain.ReasonInvalidQuery {
		t.Errorf("expected invalid_query reason, got %v", err)
	}
	if cache.getCalled || retriever.semanticCalled || retriever.keywordCalled {
		t.Error("invalid input must be rejected before any I/O")
	}
}

func TestSearch_CacheHit(t *testing.T) {
	retriever := &mockRetriever{}
	embed := &mockEmbedder{}
	cache := newMockCache()
	svc := newService(retriever, embed, cache)

	req := searchRequest(t, mode.Hybrid)
	cache.stored[Fingerprint(req)] = &result.Response{
		Results: []result.Scored{},
		Mode:    mode.Hybrid,
		Query:   req.Query(),
	}

	resp, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.FromCache {
		t.Error("cache hit must be flagged")
	}
	if retriever.semanticCalled || retriever.keywordCalled || embed.called {
		t.Error("cache hit must not touch retrievers or embedder")
	}
}

func TestSearch_SkipCache(t *testing.T) {
	retriever := &mockRetriever{
		semanticResults: []result.Candidate{candidate("doc1", 0.9)},
	}
	cache := newMockCache()
	svc := newService(retriever, &mockEmbedder{vec: []float32{0.1}}, cache)

	r, err := request.New("go channels", mode.Semantic, filter.Filter{}, 10, nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	// Pre-populate: a skip_cache request must ignore this entry.
	cache.stored[Fingerprint(&r)] = &result.Response{Mode: mode.Semantic}

	resp, err := svc.Search(context.Background(), &r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.getCalled {
		t.Error("skip_cache must bypass the cache read")
	}
	if cache.setCalled {
		t.Error("skip_cache must bypass the cache write")
	}
	if !retriever.semanticCalled {
		t.Error("skip_cache must execute the full pipeline")
	}
	if resp.FromCache {
		t.Error("skip_cache response must not be marked as cached")
	}
}

func TestSearch_EmbeddingFailure(t *testing.T) {
	svc := newService(&mockRetriever{}, &mockEmbedder{err: errors.New("quota")}, newMockCache())

	_, err := svc.Search(context.Background(), searchRequest(t, mode.Semantic))
	if domain.ReasonOf(err) != domain.ReasonEmbeddingFailure {
		t.Errorf("expected embedding_failure reason, got %v", err)
	}
}

func TestSearch_HybridFailsWhole(t *testing.T) {
	cases := []struct {
		name      string
		retriever *mockRetriever
		want      domain.Reason
	}{
		{
			name: "semantic retriever down",
			retriever: &mockRetriever{
				semanticErr:    errors.New("index gone"),
				keywordResults: []result.Candidate{candidate("doc1", 3.0)},
			},
			want: domain.ReasonSemanticRetrieval,
		},
		{
			name: "keyword retriever down",
			retriever: &mockRetriever{
				semanticResults: []result.Candidate{candidate("doc1", 0.9)},
				keywordErr:      errors.New("index gone"),
			},
			want: domain.ReasonKeywordRetrieval,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache := newMockCache()
			svc := newService(tc.retriever, &mockEmbedder{vec: []float32{0.1}}, cache)

			resp, err := svc.Search(context.Background(), searchRequest(t, mode.Hybrid))
			if resp != nil {
				t.Error("no partial results on hybrid failure")
			}
			if domain.ReasonOf(err) != tc.want {
				t.Errorf("expected reason %s, got %v", tc.want, err)
			}
			if !errors.Is(err, domain.ErrRetrievalFailed) {
				t.Error("retrieval failures must wrap ErrRetrievalFailed")
			}
			if cache.setCalled {
				t.Error("failed searches must not be cached")
			}
		})
	}
}

func TestSearch_TruncatesAfterRerank(t *testing.T) {
	// doc-old ranks above doc-new on combined score, but doc-new is fresh
	// and authoritative. With maxResults=1, truncating before reranking
	// would drop doc-new; truncating after keeps it.
	now := time.Now()
	old := result.NewCandidate(
		"doc-old", "Unrelated", "content", "https://a",
		result.NewSource("blog", "blog", 0), 0.86, nil, time.Time{},
	)
	fresh := result.NewCandidate(
		"doc-new", "go channels deep dive", "content", "https://b",
		result.NewSource("official", "documentation", 2.0), 0.85, nil, now,
	)
	retriever := &mockRetriever{semanticResults: []result.Candidate{old, fresh}}
	svc := newService(retriever, &mockEmbedder{vec: []float32{0.1}}, newMockCache())

	r, err := request.New("go channels", mode.Semantic, filter.Filter{}, 1, nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := svc.Search(context.Background(), &r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result after truncation, got %d", len(resp.Results))
	}
	if resp.Results[0].Candidate().ID() != "doc-new" {
		t.Errorf("boosted document should survive truncation, got %s", resp.Results[0].Candidate().ID())
	}
	if resp.Total != 2 {
		t.Errorf("total must count candidates before truncation, got %d", resp.Total)
	}
}

func TestSearch_Deterministic(t *testing.T) {
	retriever := &mockRetriever{
		semanticResults: []result.Candidate{
			candidate("b", 0.8), candidate("a", 0.8), candidate("c", 0.8),
		},
		keywordResults: []result.Candidate{
			candidate("c", 2.0), candidate("a", 2.0),
		},
	}
	svc := newService(retriever, &mockEmbedder{vec: []float32{0.1}}, newMockCache())

	var first []string
	for run := 0; run < 5; run++ {
		r, err := request.New("q", mode.Hybrid, filter.Filter{}, 10, nil, nil, true)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := svc.Search(context.Background(), &r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids := make([]string, len(resp.Results))
		for i := range resp.Results {
			ids[i] = resp.Results[i].Candidate().ID()
		}
		if run == 0 {
			first = ids
			continue
		}
		for i := range ids {
			if ids[i] != first[i] {
				t.Fatalf("run %d ordering differs: %v vs %v", run, ids, first)
			}
		}
	}
}

func TestSearch_PassesRequestParameters(t *testing.T) {
	retriever := &mockRetriever{}
	svc := New(retriever, &mockEmbedder{vec: []float32{0.1}}, newMockCache(),
		Options{CandidateLimit: 77}, zap.NewNop())

	minSim := 0.42
	r, err := request.New("q", mode.Semantic, filter.Filter{}, 10, nil, &minSim, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Search(context.Background(), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retriever.lastMinSim != 0.42 {
		t.Errorf("min similarity not forwarded: got %v", retriever.lastMinSim)
	}
	if retriever.lastLimit != 77 {
		t.Errorf("candidate limit not forwarded: got %d", retriever.lastLimit)
	}
}

// memoryKV backs the real cache adapter for metrics accounting tests.
type memoryKV struct {
	data map[string][]byte
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memoryKV) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryKV) Scan(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func TestSearch_CacheLookupCountedOnce(t *testing.T) {
	kv := &memoryKV{data: make(map[string][]byte)}
	cache := rescache.New(kv, time.Hour, metrics.SearchCacheTotal, zap.NewNop())
	retriever := &mockRetriever{
		keywordResults: []result.Candidate{candidate("doc1", 3.0)},
	}
	svc := New(retriever, &mockEmbedder{}, cache, Options{}, zap.NewNop())

	missBefore := testutil.ToFloat64(metrics.SearchCacheTotal.WithLabelValues("miss"))
	hitBefore := testutil.ToFloat64(metrics.SearchCacheTotal.WithLabelValues("hit"))

	if _, err := svc.Search(context.Background(), searchRequest(t, mode.Keyword)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	missDelta := testutil.ToFloat64(metrics.SearchCacheTotal.WithLabelValues("miss")) - missBefore
	if missDelta != 1 {
		t.Errorf("one cold lookup must count one miss, got %v", missDelta)
	}

	resp, err := svc.Search(context.Background(), searchRequest(t, mode.Keyword))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.FromCache {
		t.Fatal("second identical search must hit the cache")
	}
	hitDelta := testutil.ToFloat64(metrics.SearchCacheTotal.WithLabelValues("hit")) - hitBefore
	if hitDelta != 1 {
		t.Errorf("one warm lookup must count one hit, got %v", hitDelta)
	}
}

func TestInvalidateCache(t *testing.T) {
	cache := newMockCache()
	cache.stored["x"] = &result.Response{}
	cache.stored["y"] = &result.Response{}
	svc := newService(&mockRetriever{}, &mockEmbedder{}, cache)

	n, err := svc.InvalidateCache(context.Background(), "*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
}

package docindex

import (
	"context"
	"errors"
	"testing"

	"github.com/doclens/doclens/internal/db"
	"github.com/doclens/doclens/internal/domain/search/filter"
)

// --- Mocks ---

type mockStore struct {
	knnResult  *db.SearchResult
	knnErr     error
	bm25Result *db.SearchResult
	bm25Err    error
	lastKNN    *db.KNNQuery
	lastText   *db.TextQuery
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastKNN = q
	return m.knnResult, m.knnErr
}

func (m *mockStore) SearchBM25(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.lastText = q
	return m.bm25Result, m.bm25Err
}

func entry(id string, score float64, fields map[string]string) db.SearchEntry {
	if fields == nil {
		fields = map[string]string{}
	}
	return db.SearchEntry{Key: DocKeyPrefix + id, Score: score, Fields: fields}
}

// --- Tests ---

func TestSearchSemantic_StrictThreshold(t *testing.T) {
	store := &mockStore{knnResult: &db.SearchResult{
		Total: 3,
		Entries: []db.SearchEntry{
			entry("above", 0.71, nil),
			entry("exact", 0.70, nil),
			entry("below", 0.69, nil),
		},
	}}
	repo := New(store)

	candidates, err := repo.SearchSemantic(context.Background(), []float32{0.1}, filter.Filter{}, 0.70, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate strictly above the threshold, got %d", len(candidates))
	}
	if candidates[0].ID() != "above" {
		t.Errorf("expected 'above', got %q", candidates[0].ID())
	}
}

func TestSearchSemantic_Ordering(t *testing.T) {
	store := &mockStore{knnResult: &db.SearchResult{
		Total: 4,
		Entries: []db.SearchEntry{
			entry("b", 0.8, nil),
			entry("a", 0.8, nil),
			entry("c", 0.9, nil),
			entry("d", 0.75, nil),
		},
	}}
	repo := New(store)

	candidates, err := repo.SearchSemantic(context.Background(), []float32{0.1}, filter.Filter{}, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"c", "a", "b", "d"}
	for i, c := range candidates {
		if c.ID() != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], c.ID())
		}
	}
}

func TestSearchSemantic_QueryShape(t *testing.T) {
	store := &mockStore{knnResult: &db.SearchResult{}}
	repo := New(store)

	_, err := repo.SearchSemantic(context.Background(), []float32{0.1, 0.2}, filter.Filter{}, 0.7, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastKNN.IndexName != IndexName {
		t.Errorf("wrong index: %s", store.lastKNN.IndexName)
	}
	if store.lastKNN.K != 42 {
		t.Errorf("expected K=42, got %d", store.lastKNN.K)
	}
}

func TestSearchSemantic_Error(t *testing.T) {
	store := &mockStore{knnErr: errors.New("connection refused")}
	repo := New(store)

	if _, err := repo.SearchSemantic(context.Background(), []float32{0.1}, filter.Filter{}, 0.7, 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearchKeyword_Ordering(t *testing.T) {
	store := &mockStore{bm25Result: &db.SearchResult{
		Total: 3,
		Entries: []db.SearchEntry{
			entry("low", 1.0, nil),
			entry("high", 7.5, nil),
			entry("mid", 3.2, nil),
		},
	}}
	repo := New(store)

	candidates, err := repo.SearchKeyword(context.Background(), "go channels", filter.Filter{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"high", "mid", "low"}
	for i, c := range candidates {
		if c.ID() != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], c.ID())
		}
	}
	if store.lastText.TextField != "content" {
		t.Errorf("keyword search should target the content field, got %q", store.lastText.TextField)
	}
}

func TestParseEntry_Fields(t *testing.T) {
	e := entry("doc1", 0.9, map[string]string{
		"title":        "Go Channels",
		"content":      "Channels are typed conduits.",
		"url":          "https://go.dev/tour/concurrency/2",
		"source_name":  "go.dev",
		"source_type":  "documentation",
		"authority":    "2.5",
		"technologies": "go,concurrency",
		"updated_at":   "1740000000",
	})

	c := parseEntry("doc1", e)
	if c.Title() != "Go Channels" {
		t.Errorf("title: %q", c.Title())
	}
	if c.Source().Authority() != 2.5 {
		t.Errorf("authority: %v", c.Source().Authority())
	}
	if len(c.Technologies()) != 2 || c.Technologies()[0] != "go" {
		t.Errorf("technologies: %v", c.Technologies())
	}
	if c.UpdatedAt().IsZero() {
		t.Error("updated_at should be parsed")
	}
	if c.Score() != 0.9 {
		t.Errorf("score: %v", c.Score())
	}
}

func TestParseEntry_Defaults(t *testing.T) {
	c := parseEntry("doc1", entry("doc1", 0.5, map[string]string{
		"authority":  "not-a-number",
		"updated_at": "",
	}))
	if c.Source().Authority() != 1.0 {
		t.Errorf("unparsable authority should default to 1.0, got %v", c.Source().Authority())
	}
	if !c.UpdatedAt().IsZero() {
		t.Error("missing updated_at should stay zero")
	}
	if c.Technologies() != nil {
		t.Errorf("missing technologies should be nil, got %v", c.Technologies())
	}
}

package rescache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/db"
	"github.com/doclens/doclens/internal/domain"
	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/mode"
	"github.com/doclens/doclens/internal/domain/search/result"
)

// --- Mocks ---

type mockStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	scanErr error
	delErr  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	if m.delErr != nil {
		return m.delErr
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func sampleResponse(t *testing.T) *result.Response {
	t.Helper()
	f, err := filter.New([]string{"go"}, nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	src := result.NewSource("go.dev", "documentation", 2.0)
	c := result.NewCandidate(
		"doc1", "Go Channels", "Channels are typed conduits.",
		"https://go.dev/tour/concurrency/2", src, 0.9,
		[]string{"go", "concurrency"},
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	)
	b := result.Breakdown{Semantic: 0.9, Keyword: 2.0, Combined: 1.23}
	return &result.Response{
		Results: []result.Scored{result.NewScored(c, b, 1.5)},
		Total:   1,
		Mode:    mode.Hybrid,
		Query:   "go channels",
		Filters: f,
	}
}

// --- Tests ---

func TestCache_RoundTrip(t *testing.T) {
	store := newMockStore()
	cache := New(store, time.Hour, nil, zap.NewNop())
	ctx := context.Background()

	original := sampleResponse(t)
	cache.Set(ctx, "fp1", original)

	restored, ok := cache.Get(ctx, "fp1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(restored.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(restored.Results))
	}

	got := &restored.Results[0]
	want := &original.Results[0]
	if got.Candidate().ID() != want.Candidate().ID() {
		t.Errorf("id mismatch: %s", got.Candidate().ID())
	}
	if got.Score() != want.Score() {
		t.Errorf("score mismatch: %v", got.Score())
	}
	if got.Breakdown() != want.Breakdown() {
		t.Errorf("breakdown mismatch: %+v", got.Breakdown())
	}
	if got.Candidate().Source().Authority() != 2.0 {
		t.Errorf("authority mismatch: %v", got.Candidate().Source().Authority())
	}
	if restored.Query != original.Query || restored.Mode != original.Mode {
		t.Error("metadata mismatch")
	}
	if len(restored.Filters.Technologies()) != 1 {
		t.Error("filters should survive the round trip")
	}
}

func TestCache_Miss(t *testing.T) {
	cache := New(newMockStore(), time.Hour, nil, zap.NewNop())

	if _, ok := cache.Get(context.Background(), "absent"); ok {
		t.Error("expected miss for absent fingerprint")
	}
}

func TestCache_StoreFailureIsMiss(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("connection refused")
	cache := New(store, time.Hour, nil, zap.NewNop())

	if _, ok := cache.Get(context.Background(), "fp1"); ok {
		t.Error("store failure must read as a miss")
	}
}

func TestCache_CorruptPayloadIsMiss(t *testing.T) {
	store := newMockStore()
	store.data[cacheKeyPrefix+"fp1"] = []byte("{not json")
	cache := New(store, time.Hour, nil, zap.NewNop())

	if _, ok := cache.Get(context.Background(), "fp1"); ok {
		t.Error("corrupt payload must read as a miss")
	}
}

func TestCache_SetFailureIsSilent(t *testing.T) {
	store := newMockStore()
	store.setErr = errors.New("read-only replica")
	cache := New(store, time.Hour, nil, zap.NewNop())

	// Must not panic or surface the error.
	cache.Set(context.Background(), "fp1", sampleResponse(t))
}

func TestInvalidatePattern(t *testing.T) {
	store := newMockStore()
	cache := New(store, time.Hour, nil, zap.NewNop())
	ctx := context.Background()

	cache.Set(ctx, "fp1", sampleResponse(t))
	cache.Set(ctx, "fp2", sampleResponse(t))

	n, err := cache.InvalidatePattern(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if _, ok := cache.Get(ctx, "fp1"); ok {
		t.Error("invalidated entry must be gone")
	}
}

func TestInvalidatePattern_ScanError(t *testing.T) {
	store := newMockStore()
	store.scanErr = errors.New("connection refused")
	cache := New(store, time.Hour, nil, zap.NewNop())

	if _, err := cache.InvalidatePattern(context.Background(), "*"); err == nil {
		t.Fatal("administrative invalidation must surface store errors")
	}
}

func TestCacheErr_TaggedUnavailable(t *testing.T) {
	err := cacheErr(errors.New("connection refused"))
	if !errors.Is(err, domain.ErrCacheUnavailable) {
		t.Fatalf("store failures must carry the cache-unavailable sentinel, got %v", err)
	}
}

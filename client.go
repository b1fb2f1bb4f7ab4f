// Package doclens is the embedded SDK: it wires the search stack against a
// Redis instance in-process, without the HTTP server.
package doclens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/db"
	dbRedis "github.com/doclens/doclens/internal/db/redis"
	"github.com/doclens/doclens/internal/domain"
	"github.com/doclens/doclens/internal/repository/docindex"
	"github.com/doclens/doclens/internal/repository/rescache"
	searchuc "github.com/doclens/doclens/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the doclens SDK entry point.
type Client struct {
	store     db.Store
	searchSvc *searchuc.Service
}

// New creates a doclens Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		cacheTTL: time.Hour,
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("doclens: database address required (use WithRedis)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("doclens: embedder required (use WithEmbedder)")
	}
	if cfg.dimensions <= 0 {
		return nil, errors.New("doclens: vector dimensions required (use WithDimensions)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("doclens: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("doclens: database not ready: %w", err)
	}

	if err := docindex.EnsureIndex(ctx, store, cfg.dimensions,
		cfg.hnswM, cfg.hnswEFConstruct); err != nil {
		store.Close()
		return nil, fmt.Errorf("doclens: ensure index: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	docs := docindex.New(store)
	cache := rescache.New(store, cfg.cacheTTL, nil, logger)

	searchSvc := searchuc.New(
		docs,
		&embedderAdapter{inner: cfg.embedder},
		cache,
		searchuc.Options{
			CandidateLimit:   cfg.candidateLimit,
			RetrieverTimeout: cfg.retrieverTimeout,
		},
		logger,
	)

	return &Client{store: store, searchSvc: searchSvc}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vec, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

package doclens

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Embedder converts query text into a vector. Implementations typically call
// an external embedding API.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs            []string
	username         string
	password         string
	embedder         Embedder
	dimensions       int
	hnswM            int
	hnswEFConstruct  int
	cacheTTL         time.Duration
	candidateLimit   int
	retrieverTimeout time.Duration
	logger           *zap.Logger
}

// WithRedis sets the Redis connection addresses.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithAuth sets the database credentials.
func WithAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithEmbedder sets the query embedder. Required.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithDimensions sets the embedding vector dimensionality. Required.
func WithDimensions(d int) Option {
	return func(c *clientConfig) { c.dimensions = d }
}

// WithHNSW tunes the vector index construction parameters.
func WithHNSW(m, efConstruct int) Option {
	return func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	}
}

// WithCacheTTL sets the response cache lifetime. Defaults to one hour.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) { c.cacheTTL = ttl }
}

// WithCandidateLimit sets the per-retriever fetch size before merging.
func WithCandidateLimit(n int) Option {
	return func(c *clientConfig) { c.candidateLimit = n }
}

// WithRetrieverTimeout caps a single retrieval phase.
func WithRetrieverTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.retrieverTimeout = d }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// Package rescache is the best-effort response cache over the key-value
// store. Store failures degrade to misses on read and no-ops on write;
// they never fail a search request.
package rescache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/db"
	"github.com/doclens/doclens/internal/domain"
	"github.com/doclens/doclens/internal/domain/search/result"
)

var cacheKeyPrefix = domain.KeyPrefix + "search_cache:"

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Cache stores serialized search responses keyed by request fingerprint.
// Entry freshness is enforced by the store TTL: an expired entry is gone,
// not stale.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a response cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached response for the fingerprint, or found=false on a
// miss. Any store or decode failure is logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, fingerprint string) (*result.Response, bool) {
	key := cacheKeyPrefix + fingerprint

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached response",
				zap.String("key", key), zap.Error(cacheErr(err)))
		}
		c.incCache("miss")
		return nil, false
	}

	var p payloadDTO
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.Warn("Failed to decode cached response", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	resp, err := fromPayload(&p)
	if err != nil {
		c.logger.Warn("Failed to restore cached response", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	return resp, true
}

// Set writes the response under the fingerprint with the configured TTL.
// Failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, fingerprint string, resp *result.Response) {
	key := cacheKeyPrefix + fingerprint

	data, err := json.Marshal(toPayload(resp))
	if err != nil {
		c.logger.Warn("Failed to encode response for cache", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache response",
			zap.String("key", key), zap.Error(cacheErr(err)))
	}
}

// cacheErr tags a store failure with the cache-unavailable sentinel. The
// tagged error is logged, never returned: the caller sees a miss or a no-op.
func cacheErr(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
}

// InvalidatePattern removes cached responses whose fingerprint matches the
// glob pattern. Administrative operation: errors are returned to the caller.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		pattern = "*"
	}

	keys, err := c.store.Scan(ctx, cacheKeyPrefix+pattern)
	if err != nil {
		return 0, fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := c.store.Del(ctx, keys...); err != nil {
		return 0, fmt.Errorf("delete cache keys: %w", err)
	}
	return len(keys), nil
}

func (c *Cache) incCache(res string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(res).Inc()
	}
}

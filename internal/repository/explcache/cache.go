// Package explcache caches explanations in a shared key-value store.
package explcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fmhr12/ORN-Prognosis/internal/db"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/explanation"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
	"github.com/fmhr12/ORN-Prognosis/internal/metrics"
)

// KeyPrefix namespaces every cached explanation.
const KeyPrefix = "orn:expl:"

// cacheName is the "cache" label value on metrics.CacheTotal.
const cacheName = "explanation"

// store is the consumer interface for the explanation cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, keys ...string) (int64, error)
}

// Explainer is the decorated service.
type Explainer interface {
	Explain(ctx context.Context, v feature.Vector, tag grid.Tag, cause int) (explanation.Explanation, error)
}

// Cache wraps an Explainer with a read-through cache. Store failures are
// logged and the explanation is recomputed.
type Cache struct {
	inner   Explainer
	store   store
	ttl     time.Duration
	version string
	logger  *zap.Logger
}

// New creates a caching decorator. version is mixed into every key so that
// changed model, grid or curve data never reads entries written for older data.
func New(inner Explainer, s store, ttl time.Duration, version string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{inner: inner, store: s, ttl: ttl, version: version, logger: logger}
}

// Explain returns a cached explanation or computes and stores one.
func (c *Cache) Explain(
	ctx context.Context, v feature.Vector, tag grid.Tag, cause int,
) (explanation.Explanation, error) {
	key := c.Key(v, tag, cause)

	if e, ok := c.get(ctx, key); ok {
		inc("hit")
		return e, nil
	}
	inc("miss")

	e, err := c.inner.Explain(ctx, v, tag, cause)
	if err != nil {
		return explanation.Explanation{}, err //nolint:wrapcheck // decorator is transparent
	}
	c.put(ctx, key, e)
	return e, nil
}

// Purge removes every entry under KeyPrefix, including other versions.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	keys, err := c.store.Scan(ctx, KeyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan cached explanations: %w", err)
	}
	n, err := c.store.Del(ctx, keys...)
	if err != nil {
		return 0, fmt.Errorf("delete cached explanations: %w", err)
	}
	return n, nil
}

// Key is the store key for one request.
func (c *Cache) Key(v feature.Vector, tag grid.Tag, cause int) string {
	h := sha256.New()
	h.Write([]byte(c.version))
	h.Write([]byte{0})
	h.Write([]byte(v.Key()))
	h.Write([]byte{0})
	h.Write([]byte(tag.String()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(cause)))
	return KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) get(ctx context.Context, key string) (explanation.Explanation, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			inc("error")
			c.logger.Warn("Failed to get cached explanation", zap.String("key", key), zap.Error(err))
		}
		return explanation.Explanation{}, false
	}
	var e explanation.Explanation
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Failed to decode cached explanation", zap.String("key", key), zap.Error(err))
		return explanation.Explanation{}, false
	}
	return e, true
}

func (c *Cache) put(ctx context.Context, key string, e explanation.Explanation) {
	data, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn("Failed to encode explanation", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		inc("error")
		c.logger.Warn("Failed to cache explanation", zap.String("key", key), zap.Error(err))
	}
}

func inc(result string) {
	metrics.CacheTotal.WithLabelValues(cacheName, result).Inc()
}

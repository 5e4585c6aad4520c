package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"castos/internal/logging"
	"castos/internal/metrics"
)

// Backend is the key/value store behind a Cache. Implementations must be safe
// for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Cache is a best-effort facade over a Backend. A nil *Cache behaves as an
// always-empty cache.
type Cache struct {
	backend    Backend
	defaultTTL time.Duration
	name       string
	logger     *slog.Logger
}

// New constructs a cache named name (used as the metrics label) over backend.
func New(backend Backend, name string, defaultTTL time.Duration, logger *slog.Logger) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &Cache{
		backend:    backend,
		defaultTTL: defaultTTL,
		name:       name,
		logger:     logging.NewComponentLogger(logger, "resultcache"),
	}
}

// Key returns the cache key for text under prefix, e.g. "chars:<digest>".
func Key(prefix, text string) string {
	sum := sha256.Sum256([]byte(text))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached value for key. Backend errors are reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.backend == nil {
		return "", false
	}
	value, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(c.name, "get").Inc()
		logging.WarnWithContext(c.logger, "cache read failed", "cache_read_error",
			logging.String("cache_key", key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "treated as a cache miss"),
			logging.String(logging.FieldErrorHint, "check the cache directory and disk health"),
		)
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return "", false
	}
	if !ok {
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return "", false
	}
	metrics.CacheHits.WithLabelValues(c.name).Inc()
	return value, true
}

// Set stores value under key for ttl (the default TTL when ttl <= 0).
// Backend errors are logged and otherwise ignored.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c == nil || c.backend == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.backend.Set(ctx, key, value, ttl); err != nil {
		metrics.CacheErrors.WithLabelValues(c.name, "set").Inc()
		logging.WarnWithContext(c.logger, "cache write failed", "cache_write_error",
			logging.String("cache_key", key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "result not cached; next identical request recomputes"),
			logging.String(logging.FieldErrorHint, "check the cache directory and disk health"),
		)
	}
}

// GetJSON decodes the cached value for key into target. A value that no
// longer decodes is treated as a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, target any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		c.logger.Debug("discarding undecodable cache entry", logging.String("cache_key", key), logging.Error(err))
		return false
	}
	return true
}

// SetJSON encodes value and stores it under key.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("skipping unencodable cache value", logging.String("cache_key", key), logging.Error(err))
		return
	}
	c.Set(ctx, key, string(encoded), ttl)
}

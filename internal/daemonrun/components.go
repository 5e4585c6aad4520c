package daemonrun

import (
	"errors"
	"log/slog"
	"time"

	"castos/internal/allocation"
	"castos/internal/config"
	"castos/internal/extraction"
	"castos/internal/logging"
	"castos/internal/optimizer"
	"castos/internal/pipeline"
	"castos/internal/resultcache"
	"castos/internal/scouting"
	"castos/internal/services/llm"
)

const (
	generativeTemperature = 0.0
	groundedTemperature   = 0.1
)

// Components holds the casting services shared by the daemon and the one-shot
// CLI run. Everything is built from config and injected; nothing is global.
type Components struct {
	Generative *llm.Client
	Grounded   *llm.Client
	Cache      *resultcache.Cache
	Pipeline   *pipeline.Engine
	Optimizer  *optimizer.Optimizer
	Pool       *optimizer.Pool

	badger *resultcache.BadgerStore
}

// NewComponents wires the generative clients, result cache, pipeline stages
// and optimizer described by cfg.
func NewComponents(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	generative := newClient(cfg, "generative", cfg.GetLLM(), generativeTemperature, logger)
	grounded := newClient(cfg, "grounded", cfg.SearchLLM(), groundedTemperature, logger)

	c := &Components{Generative: generative, Grounded: grounded}
	c.openCache(cfg, logger)

	c.Pipeline = pipeline.New(
		extraction.New(generative, c.Cache, cfg.ExtractionTTL(), logger),
		allocation.New(generative, logger),
		scouting.New(grounded, logger,
			scouting.WithConcurrency(cfg.Search.Concurrency),
			scouting.WithRequestsPerMinute(cfg.Search.RequestsPerMinute),
		),
		logger,
	)
	c.Pool = optimizer.NewPool(cfg.Optimizer.TrainingConcurrency)
	c.Optimizer = optimizer.New(cfg.Optimizer, c.Pool, logger)

	logger.Info("casting components ready",
		logging.String(logging.FieldEventType, "components_ready"),
		logging.String("generative_model", cfg.GetLLM().Model),
		logging.String("grounded_model", cfg.SearchLLM().Model),
		logging.Bool("web_search", cfg.Search.WebSearch),
		logging.Bool("cache_enabled", c.Cache != nil),
		logging.Bool("cache_persistent", c.badger != nil),
		logging.Int("search_concurrency", cfg.Search.Concurrency),
		logging.Int("training_slots", c.Pool.Size()),
	)
	return c, nil
}

func newClient(cfg *config.Config, name string, conn config.LLMConfig, temperature float64, logger *slog.Logger) *llm.Client {
	return llm.NewClient(llm.Config{
		Name:           name,
		APIKey:         conn.APIKey,
		BaseURL:        conn.BaseURL,
		Model:          conn.Model,
		Referer:        conn.Referer,
		Title:          conn.Title,
		TimeoutSeconds: conn.TimeoutSeconds,
		Temperature:    temperature,
		WebSearch:      conn.WebSearch,
		MaxResults:     conn.MaxResults,
	},
		llm.WithLogger(logger),
		llm.WithRetryMaxAttempts(conn.RetryAttempts),
		llm.WithCircuitBreaker(uint32(max(cfg.Breaker.FailureThreshold, 0)), time.Duration(cfg.Breaker.OpenSeconds)*time.Second),
	)
}

// openCache never fails: a persistent cache that cannot be opened (for
// example because another process holds its directory lock) degrades to an
// in-memory cache for this process.
func (c *Components) openCache(cfg *config.Config, logger *slog.Logger) {
	if !cfg.Cache.Enabled {
		return
	}
	if cfg.Cache.InMemory {
		c.Cache = resultcache.New(resultcache.NewMemoryStore(), "extraction", cfg.DefaultCacheTTL(), logger)
		return
	}
	store, err := resultcache.OpenBadger(cfg.Cache.Dir)
	if err != nil {
		logging.WarnWithContext(logger, "persistent result cache unavailable; using memory", "cache_open_failed",
			logging.Error(err),
			logging.String("cache_dir", cfg.Cache.Dir),
			logging.String(logging.FieldImpact, "results are not cached across runs"),
			logging.String(logging.FieldErrorHint, "another process may hold the cache directory lock"),
		)
		c.Cache = resultcache.New(resultcache.NewMemoryStore(), "extraction", cfg.DefaultCacheTTL(), logger)
		return
	}
	c.badger = store
	c.Cache = resultcache.New(store, "extraction", cfg.DefaultCacheTTL(), logger)
}

// Persistent reports whether the result cache is backed by disk.
func (c *Components) Persistent() bool {
	return c != nil && c.badger != nil
}

// ClearCache drops every cached entry. It reports how many entries were
// removed; in-memory and disabled caches report zero.
func (c *Components) ClearCache() (int, error) {
	if c == nil || c.badger == nil {
		return 0, nil
	}
	count, err := c.badger.Count()
	if err != nil {
		return 0, err
	}
	if err := c.badger.Clear(); err != nil {
		return 0, err
	}
	return count, nil
}

// Close releases the persistent cache.
func (c *Components) Close() error {
	if c == nil || c.badger == nil {
		return nil
	}
	err := c.badger.Close()
	c.badger = nil
	return err
}

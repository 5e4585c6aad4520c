package testsupport

import (
	"path/filepath"
	"testing"

	"castos/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The result cache runs in memory and training is shortened so pipeline tests
// stay fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.LLM.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Cache.Dir = filepath.Join(base, "data", "cache")
	cfgVal.Cache.InMemory = true
	cfgVal.Optimizer.TotalTimesteps = 256
	cfgVal.Optimizer.TrainingConcurrency = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMEndpoint points both generative clients at baseURL.
func WithLLMEndpoint(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = baseURL
		b.cfg.Search.BaseURL = baseURL
	}
}

// WithPersistentCache stores the result cache on disk under the temp dir.
func WithPersistentCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.InMemory = false
	}
}

// WithTrainingTimesteps overrides the optimizer's training length.
func WithTrainingTimesteps(steps int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Optimizer.TotalTimesteps = steps
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

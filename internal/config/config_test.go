package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"castos/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	t.Setenv("CASTOS_LLM_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "castos")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Cache.Dir != filepath.Join(wantData, "cache") {
		t.Fatalf("unexpected cache dir: %q", cfg.Cache.Dir)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "castos.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if cfg.ExtractionTTL() != 24*time.Hour {
		t.Fatalf("unexpected extraction ttl %s", cfg.ExtractionTTL())
	}
	if cfg.DefaultCacheTTL() != time.Hour {
		t.Fatalf("unexpected default ttl %s", cfg.DefaultCacheTTL())
	}
	if cfg.Optimizer.TotalTimesteps != 1500 || cfg.Optimizer.LearningRate != 0.002 {
		t.Fatalf("unexpected optimizer defaults: %+v", cfg.Optimizer)
	}
	if cfg.Search.Concurrency != 5 {
		t.Fatalf("unexpected search concurrency %d", cfg.Search.Concurrency)
	}
	if cfg.Optimizer.TrainingConcurrency < 1 {
		t.Fatalf("expected training concurrency to be resolved, got %d", cfg.Optimizer.TrainingConcurrency)
	}
	if cfg.LLM.RetryAttempts != 1 {
		t.Fatalf("expected no retries by default, got %d", cfg.LLM.RetryAttempts)
	}
}

func TestLoadMissingAPIKeyFails(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("CASTOS_LLM_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	cfgPath := filepath.Join(base, "castos.toml")

	doc := map[string]any{
		"paths": map[string]any{"data_dir": filepath.Join(base, "data")},
		"llm":   map[string]any{"api_key": "file-key", "model": "openai/gpt-4o-mini"},
		"search": map[string]any{
			"model":               "perplexity/sonar",
			"concurrency":         3,
			"requests_per_minute": 30,
		},
		"optimizer": map[string]any{"seed": 7, "training_concurrency": 2},
		"logging":   map[string]any{"format": "JSON"},
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != cfgPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.LogDir != filepath.Join(base, ".local", "share", "castos", "logs") {
		t.Fatalf("unexpected log dir %q", cfg.Paths.LogDir)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized format, got %q", cfg.Logging.Format)
	}

	search := cfg.SearchLLM()
	if search.APIKey != "file-key" {
		t.Fatalf("expected search key to fall back to llm key, got %q", search.APIKey)
	}
	if search.Model != "perplexity/sonar" || !search.WebSearch {
		t.Fatalf("unexpected search llm settings: %+v", search)
	}
	if cfg.GetLLM().Model != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected llm model %q", cfg.GetLLM().Model)
	}
	if cfg.Search.RequestsPerMinute != 30 || cfg.Search.Concurrency != 3 {
		t.Fatalf("unexpected search section: %+v", cfg.Search)
	}
	if cfg.Optimizer.Seed != 7 || cfg.Optimizer.TrainingConcurrency != 2 {
		t.Fatalf("unexpected optimizer section: %+v", cfg.Optimizer)
	}
}

func TestValidateRejectsBadOptimizer(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "k"
	cfg.Optimizer.ClipRange = 1.5
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "clip_range") {
		t.Fatalf("expected clip_range error, got %v", err)
	}

	cfg = config.Default()
	cfg.LLM.APIKey = "k"
	cfg.Search.Concurrency = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "search.concurrency") {
		t.Fatalf("expected concurrency error, got %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sample-key")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.LLM.APIKey != "sample-key" {
		t.Fatalf("expected env key, got %q", cfg.LLM.APIKey)
	}
}

func TestEnsureDirectoriesCreatesCacheDir(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Cache.Dir = filepath.Join(base, "cache")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Cache.Dir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

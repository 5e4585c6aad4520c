package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// LLM contains the generative text service settings used for extraction and
// budget allocation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Search contains the grounded (search-augmented) generative service settings
// used for candidate sourcing. Empty connection fields fall back to [llm].
type Search struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	WebSearch         bool   `toml:"web_search"`
	MaxResults        int    `toml:"max_results"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	Concurrency       int    `toml:"concurrency"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// Cache contains configuration for the extraction result cache.
type Cache struct {
	Enabled            bool   `toml:"enabled"`
	Dir                string `toml:"dir"`
	InMemory           bool   `toml:"in_memory"`
	ExtractionTTLHours int    `toml:"extraction_ttl_hours"`
	DefaultTTLSeconds  int    `toml:"default_ttl_seconds"`
}

// Optimizer contains policy training parameters for the casting optimizer.
type Optimizer struct {
	TotalTimesteps      int     `toml:"total_timesteps"`
	RolloutSteps        int     `toml:"rollout_steps"`
	Epochs              int     `toml:"epochs"`
	MinibatchSize       int     `toml:"minibatch_size"`
	LearningRate        float64 `toml:"learning_rate"`
	Gamma               float64 `toml:"gamma"`
	GAELambda           float64 `toml:"gae_lambda"`
	ClipRange           float64 `toml:"clip_range"`
	EntropyCoef         float64 `toml:"entropy_coef"`
	ValueCoef           float64 `toml:"value_coef"`
	MaxGradNorm         float64 `toml:"max_grad_norm"`
	HiddenUnits         int     `toml:"hidden_units"`
	Seed                int64   `toml:"seed"`
	TrainingConcurrency int     `toml:"training_concurrency"`
}

// Workflow contains configuration for the background job dispatcher.
type Workflow struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxConcurrentJobs   int `toml:"max_concurrent_jobs"`
}

// Breaker contains circuit breaker settings applied to each LLM client.
type Breaker struct {
	FailureThreshold int `toml:"failure_threshold"`
	OpenSeconds      int `toml:"open_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for castos.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - LLM: generative service used for extraction and allocation
//   - Search: grounded service used for candidate sourcing
//   - Cache: extraction result cache backend and TTLs
//   - Optimizer: per-job policy training parameters
//   - Workflow: dispatcher polling and job concurrency
//   - Breaker: circuit breaker thresholds for LLM calls
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	LLM       LLM       `toml:"llm"`
	Search    Search    `toml:"search"`
	Cache     Cache     `toml:"cache"`
	Optimizer Optimizer `toml:"optimizer"`
	Workflow  Workflow  `toml:"workflow"`
	Breaker   Breaker   `toml:"breaker"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("castos.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Cache.Enabled && !c.Cache.InMemory {
		dirs = append(dirs, c.Cache.Dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the SQLite job database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "castos.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "castosd.lock")
}

// ExtractionTTL returns how long extraction results stay cached.
func (c *Config) ExtractionTTL() time.Duration {
	return time.Duration(c.Cache.ExtractionTTLHours) * time.Hour
}

// DefaultCacheTTL returns the expiration applied when callers pass no TTL.
func (c *Config) DefaultCacheTTL() time.Duration {
	return time.Duration(c.Cache.DefaultTTLSeconds) * time.Second
}

// PollInterval returns the dispatcher polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollIntervalSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the connection settings for one generative client.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	RetryAttempts  int
	WebSearch      bool
	MaxResults     int
}

// GetLLM returns the settings for the plain generative client.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
		RetryAttempts:  c.LLM.RetryAttempts,
	}
}

// SearchLLM returns the settings for the grounded client.
// Falls back to [llm] settings for connection details.
func (c *Config) SearchLLM() LLMConfig {
	cfg := c.GetLLM()
	if key := strings.TrimSpace(c.Search.APIKey); key != "" {
		cfg.APIKey = key
	}
	if base := strings.TrimSpace(c.Search.BaseURL); base != "" {
		cfg.BaseURL = base
	}
	if model := strings.TrimSpace(c.Search.Model); model != "" {
		cfg.Model = model
	}
	if c.Search.TimeoutSeconds > 0 {
		cfg.TimeoutSeconds = c.Search.TimeoutSeconds
	}
	cfg.WebSearch = c.Search.WebSearch
	cfg.MaxResults = c.Search.MaxResults
	return cfg
}

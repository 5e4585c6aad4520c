package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateOptimizer(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'castos config init')", defaultPath)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.Concurrency <= 0 {
		return errors.New("search.concurrency must be positive")
	}
	if c.Search.RequestsPerMinute < 0 {
		return errors.New("search.requests_per_minute must be >= 0 (0 disables limiting)")
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.ExtractionTTLHours <= 0 {
		return errors.New("cache.extraction_ttl_hours must be positive")
	}
	if c.Cache.DefaultTTLSeconds <= 0 {
		return errors.New("cache.default_ttl_seconds must be positive")
	}
	if !c.Cache.InMemory && c.Cache.Dir == "" {
		return errors.New("cache.dir must be set unless cache.in_memory is true")
	}
	return nil
}

func (c *Config) validateOptimizer() error {
	o := c.Optimizer
	switch {
	case o.TotalTimesteps <= 0:
		return errors.New("optimizer.total_timesteps must be positive")
	case o.RolloutSteps <= 0:
		return errors.New("optimizer.rollout_steps must be positive")
	case o.Epochs <= 0:
		return errors.New("optimizer.epochs must be positive")
	case o.MinibatchSize <= 0:
		return errors.New("optimizer.minibatch_size must be positive")
	case o.LearningRate <= 0:
		return errors.New("optimizer.learning_rate must be positive")
	case o.Gamma <= 0 || o.Gamma > 1:
		return errors.New("optimizer.gamma must be in (0, 1]")
	case o.GAELambda < 0 || o.GAELambda > 1:
		return errors.New("optimizer.gae_lambda must be between 0 and 1")
	case o.ClipRange <= 0 || o.ClipRange >= 1:
		return errors.New("optimizer.clip_range must be in (0, 1)")
	case o.HiddenUnits <= 0:
		return errors.New("optimizer.hidden_units must be positive")
	case o.EntropyCoef < 0 || o.ValueCoef < 0 || o.MaxGradNorm < 0:
		return errors.New("optimizer coefficients must be >= 0")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollIntervalSeconds <= 0 {
		return errors.New("workflow.poll_interval_seconds must be positive")
	}
	if c.Workflow.MaxConcurrentJobs <= 0 {
		return errors.New("workflow.max_concurrent_jobs must be positive")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if c.Breaker.FailureThreshold <= 0 {
		return errors.New("breaker.failure_threshold must be positive")
	}
	if c.Breaker.OpenSeconds <= 0 {
		return errors.New("breaker.open_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

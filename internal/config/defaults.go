package config

const (
	defaultConfigPath          = "~/.config/castos/config.toml"
	defaultDataDir             = "~/.local/share/castos"
	defaultLogDir              = "~/.local/share/castos/logs"
	defaultAPIBind             = "127.0.0.1:7488"
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-2.5-flash"
	defaultLLMTitle            = "CastOS"
	defaultLLMTimeoutSeconds   = 120
	defaultSearchMaxResults    = 5
	defaultSearchConcurrency   = 5
	defaultExtractionTTLHours  = 24
	defaultCacheTTLSeconds     = 3600
	defaultTotalTimesteps      = 1500
	defaultRolloutSteps        = 256
	defaultEpochs              = 10
	defaultMinibatchSize       = 64
	defaultLearningRate        = 0.002
	defaultGamma               = 0.99
	defaultGAELambda           = 0.95
	defaultClipRange           = 0.2
	defaultValueCoef           = 0.5
	defaultMaxGradNorm         = 0.5
	defaultHiddenUnits         = 64
	defaultSeed                = 42
	defaultPollIntervalSeconds = 5
	defaultMaxConcurrentJobs   = 4
	defaultBreakerFailures     = 5
	defaultBreakerOpenSeconds  = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  1,
		},
		Search: Search{
			WebSearch:   true,
			MaxResults:  defaultSearchMaxResults,
			Concurrency: defaultSearchConcurrency,
		},
		Cache: Cache{
			Enabled:            true,
			ExtractionTTLHours: defaultExtractionTTLHours,
			DefaultTTLSeconds:  defaultCacheTTLSeconds,
		},
		Optimizer: Optimizer{
			TotalTimesteps: defaultTotalTimesteps,
			RolloutSteps:   defaultRolloutSteps,
			Epochs:         defaultEpochs,
			MinibatchSize:  defaultMinibatchSize,
			LearningRate:   defaultLearningRate,
			Gamma:          defaultGamma,
			GAELambda:      defaultGAELambda,
			ClipRange:      defaultClipRange,
			ValueCoef:      defaultValueCoef,
			MaxGradNorm:    defaultMaxGradNorm,
			HiddenUnits:    defaultHiddenUnits,
			Seed:           defaultSeed,
		},
		Workflow: Workflow{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxConcurrentJobs:   defaultMaxConcurrentJobs,
		},
		Breaker: Breaker{
			FailureThreshold: defaultBreakerFailures,
			OpenSeconds:      defaultBreakerOpenSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

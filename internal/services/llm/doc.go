// Package llm provides an OpenRouter-compatible chat client for the
// generative steps of the casting pipeline.
//
// Two client configurations are used by the daemon:
//   - Generative: character extraction and budget allocation.
//   - Grounded: candidate sourcing with the web search plugin enabled so the
//     model answers from live search results.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send a single instruction prompt, receive free text.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: parse JSON out of free text that may carry prose or code fences.
//
// # Failure Behaviour
//
// By default a failed call is returned to the caller without retrying; stages
// decide whether to degrade or fail. WithRetryMaxAttempts re-enables retries on
// HTTP 408/429/5xx and network timeouts. WithCircuitBreaker trips after
// consecutive failures so a down provider fails fast instead of stalling every
// job.
package llm

package preflight

import (
	"context"

	"castos/internal/config"
)

// MinFreeBytes is the free space below which the data directory check fails.
const MinFreeBytes = 256 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckFreeSpace("Data directory free space", cfg.Paths.DataDir, MinFreeBytes),
	}
	if cfg.Cache.Enabled && !cfg.Cache.InMemory {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Cache.Dir))
	}

	results = append(results, CheckLLM(ctx, "Generative LLM", cfg.GetLLM()))
	if searchUsesDistinctLLM(cfg) {
		results = append(results, CheckLLM(ctx, "Grounded search LLM", cfg.SearchLLM()))
	}
	return results
}

// searchUsesDistinctLLM reports whether the grounded client resolves to a
// different key, endpoint or model than the generative one.
func searchUsesDistinctLLM(cfg *config.Config) bool {
	gen := cfg.GetLLM()
	search := cfg.SearchLLM()
	return gen.APIKey != search.APIKey || gen.BaseURL != search.BaseURL || gen.Model != search.Model
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

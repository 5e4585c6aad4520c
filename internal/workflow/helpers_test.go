package workflow_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"castos/internal/allocation"
	"castos/internal/extraction"
	"castos/internal/optimizer"
	"castos/internal/pipeline"
	"castos/internal/queue"
	"castos/internal/resultcache"
	"castos/internal/scouting"
	"castos/internal/testsupport"
	"castos/internal/workflow"
)

// fakeLLM answers prompts by kind.
type fakeLLM struct {
	mu         sync.Mutex
	extraction string
	allocation string
	search     map[string]string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.Contains(prompt, "screenplay analyst"):
		return f.extraction, nil
	case strings.Contains(prompt, `"allocations"`):
		return f.allocation, nil
	}
	for role, resp := range f.search {
		if strings.Contains(prompt, "Role: "+role+" ") {
			return resp, nil
		}
	}
	return "", fmt.Errorf("no search response for prompt")
}

func candidates(prefix string, baseSalary int) string {
	parts := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		parts = append(parts, fmt.Sprintf(
			`{"name":"%s %d","salary":%d,"box_office":%d,"rating":%.1f,"versatility":%d,"risk":%.2f}`,
			prefix, i, baseSalary+i*10000, i*20_000_000, 5.0+float64(i)*0.8, 40+i*10, 0.5-float64(i)*0.08))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func twoCharacterLLM() *fakeLLM {
	return &fakeLLM{
		extraction: `{"characters":[{"name":"Captain Rhea","gender":"Female","age_range":"35-45","traits":["stern","brave"]},{"name":"Tobin","gender":"Male","age_range":"20s","traits":["nervous"]}]}`,
		allocation: `{"allocations":[{"name":"Rhea","min_budget":100000,"max_budget":200000},{"name":"Tobin","min_budget":50000,"max_budget":150000}]}`,
		search: map[string]string{
			"Captain Rhea": candidates("Rhea Pick", 100000),
			"Tobin":        candidates("Tobin Pick", 50000),
		},
	}
}

type harness struct {
	store  *queue.Store
	runner *workflow.Runner
}

func newHarness(t *testing.T, gen *fakeLLM) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cache := resultcache.New(resultcache.NewMemoryStore(), "extraction", time.Hour, nil)
	engine := pipeline.New(
		extraction.New(gen, cache, cfg.ExtractionTTL(), nil),
		allocation.New(gen, nil),
		scouting.New(gen, nil, scouting.WithConcurrency(cfg.Search.Concurrency)),
		nil,
	)
	opt := optimizer.New(cfg.Optimizer, optimizer.NewPool(cfg.Optimizer.TrainingConcurrency), nil)
	return &harness{store: store, runner: workflow.NewRunner(store, engine, opt, nil)}
}

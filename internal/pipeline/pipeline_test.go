package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"castos/internal/allocation"
	"castos/internal/extraction"
	"castos/internal/resultcache"
	"castos/internal/scouting"
	"castos/internal/services"
)

// scriptedGenerator answers by prompt kind.
type scriptedGenerator struct {
	mu         sync.Mutex
	extraction string
	allocation string
	search     func(prompt string) (string, error)
	calls      map[string]int
}

func (g *scriptedGenerator) Complete(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = map[string]int{}
	}
	defer g.mu.Unlock()
	switch {
	case strings.Contains(prompt, "screenplay analyst"):
		g.calls["extraction"]++
		return g.extraction, nil
	case strings.Contains(prompt, `"allocations"`):
		g.calls["allocation"]++
		return g.allocation, nil
	default:
		g.calls["search"]++
		return g.search(prompt)
	}
}

func fiveFor(prefix string) string {
	parts := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		parts = append(parts, fmt.Sprintf(`{"name":"%s %d","salary":%d,"box_office":%d,"rating":7,"versatility":60,"risk":0.2}`, prefix, i, i*30000, i*1000000))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func newEngine(gen *scriptedGenerator) *Engine {
	cache := resultcache.New(resultcache.NewMemoryStore(), "test", time.Hour, nil)
	return New(
		extraction.New(gen, cache, 24*time.Hour, nil),
		allocation.New(gen, nil),
		scouting.New(gen, nil),
		nil,
	)
}

func TestRunTwoCharacters(t *testing.T) {
	gen := &scriptedGenerator{
		extraction: `{"characters":[{"name":"Ava","gender":"Female","age_range":"30s","traits":["bold"]},{"name":"Ben","gender":"Male","age_range":"40s","traits":["wry"]}]}`,
		allocation: `{"allocations":[{"name":"Ava","min_budget":100000,"max_budget":200000},{"name":"Ben","min_budget":50000,"max_budget":150000}]}`,
		search: func(prompt string) (string, error) {
			if strings.Contains(prompt, "Role: Ava") {
				return fiveFor("A"), nil
			}
			return fiveFor("B"), nil
		},
	}
	res, err := newEngine(gen).Run(context.Background(), Request{Plot: "two people", BudgetCap: 300000, Industry: "hollywood"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Characters) != 2 {
		t.Fatalf("characters = %d", len(res.Characters))
	}
	ava, ben := res.Characters[0], res.Characters[1]
	if ava.BudgetMin != 100000 || ava.BudgetMax != 200000 || ben.BudgetMin != 50000 || ben.BudgetMax != 150000 {
		t.Fatalf("budgets not merged: %+v / %+v", ava, ben)
	}
	if len(ava.Candidates) != 5 || ava.Candidates[0].Name != "A 1" || len(ben.Candidates) != 5 || ben.Candidates[0].Name != "B 1" {
		t.Fatalf("candidates not attached: %+v / %+v", ava.Candidates, ben.Candidates)
	}
	if gen.calls["search"] != 2 {
		t.Fatalf("search calls = %d", gen.calls["search"])
	}
}

func TestRunStopsOnExtractionFailure(t *testing.T) {
	gen := &scriptedGenerator{
		extraction: "I cannot help with that.",
		search:     func(string) (string, error) { return "[]", nil },
	}
	_, err := newEngine(gen).Run(context.Background(), Request{Plot: "p", BudgetCap: 1})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gen.calls["allocation"] != 0 || gen.calls["search"] != 0 {
		t.Fatalf("later stages ran after extraction failure: %v", gen.calls)
	}
}

func TestRunDegradesAllocationAndSearch(t *testing.T) {
	gen := &scriptedGenerator{
		extraction: `{"characters":[{"name":"Solo"}]}`,
		allocation: "nope",
		search:     func(string) (string, error) { return "", errors.New("grounding offline") },
	}
	res, err := newEngine(gen).Run(context.Background(), Request{Plot: "p", BudgetCap: 1000})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	solo := res.Characters[0]
	if solo.BudgetMin != 500 || solo.BudgetMax != 1500 {
		t.Fatalf("fallback budget = %v-%v", solo.BudgetMin, solo.BudgetMax)
	}
	if solo.Candidates == nil || len(solo.Candidates) != 0 {
		t.Fatalf("expected empty candidate list, got %#v", solo.Candidates)
	}
}

package scouting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"castos/internal/casting"
)

type roleGenerator struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	delay     time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
}

func (g *roleGenerator) Complete(_ context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	cur := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		seen := g.maxInFlight.Load()
		if cur <= seen || g.maxInFlight.CompareAndSwap(seen, cur) {
			break
		}
	}
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for role, err := range g.failures {
		if strings.Contains(prompt, "Role: "+role+" ") {
			return "", err
		}
	}
	for role, resp := range g.responses {
		if strings.Contains(prompt, "Role: "+role+" ") {
			return resp, nil
		}
	}
	return fiveCandidates("Default"), nil
}

func fiveCandidates(prefix string) string {
	parts := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		parts = append(parts, fmt.Sprintf(`{"name":"%s %d","salary":%d,"box_office":%d,"rating":%d,"versatility":%d,"risk":0.%d}`,
			prefix, i, i*100000, i*5000000, 5+i, 50+i, i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestSearchIsolatesFailures(t *testing.T) {
	gen := &roleGenerator{
		responses: map[string]string{"Mara": fiveCandidates("M"), "Eli": fiveCandidates("E")},
		failures:  map[string]error{"Ghost": errors.New("search backend down")},
	}
	stage := New(gen, nil)
	chars := []casting.Character{{Name: "Mara"}, {Name: "Ghost"}, {Name: "Eli"}}

	got := stage.Search(context.Background(), chars, casting.MarketFor("Hollywood"))
	if len(got) != 3 {
		t.Fatalf("expected 3 characters, got %d", len(got))
	}
	if got[1].Candidates == nil || len(got[1].Candidates) != 0 {
		t.Fatalf("failed role should have an empty non-nil list, got %#v", got[1].Candidates)
	}
	if len(got[0].Candidates) != 5 || got[0].Candidates[0].Name != "M 1" {
		t.Fatalf("Mara candidates = %+v", got[0].Candidates)
	}
	if len(got[2].Candidates) != 5 || got[2].Candidates[4].Name != "E 5" {
		t.Fatalf("Eli candidates = %+v", got[2].Candidates)
	}
	if chars[0].Candidates != nil {
		t.Fatal("Search must not mutate its input")
	}
}

func TestSearchUnparsableResponseYieldsEmptyList(t *testing.T) {
	gen := &roleGenerator{responses: map[string]string{"Mara": "I'm sorry, I can't browse right now."}}
	got := New(gen, nil).Search(context.Background(), []casting.Character{{Name: "Mara"}}, casting.MarketFor(""))
	if got[0].Candidates == nil || len(got[0].Candidates) != 0 {
		t.Fatalf("expected empty list, got %#v", got[0].Candidates)
	}
}

func TestSearchRespectsConcurrencyCeiling(t *testing.T) {
	gen := &roleGenerator{delay: 20 * time.Millisecond}
	stage := New(gen, nil, WithConcurrency(2))
	chars := make([]casting.Character, 8)
	for i := range chars {
		chars[i].Name = fmt.Sprintf("Role%d", i)
	}

	got := stage.Search(context.Background(), chars, casting.MarketFor("Hollywood"))
	if int(gen.calls.Load()) != len(chars) {
		t.Fatalf("calls = %d, want %d", gen.calls.Load(), len(chars))
	}
	if peak := gen.maxInFlight.Load(); peak > 2 {
		t.Fatalf("peak in-flight calls = %d, want <= 2", peak)
	}
	for _, c := range got {
		if len(c.Candidates) != 5 {
			t.Fatalf("%s has %d candidates after the join", c.Name, len(c.Candidates))
		}
	}
}

func TestSearchWithRateLimiterCompletes(t *testing.T) {
	gen := &roleGenerator{}
	stage := New(gen, nil, WithRequestsPerMinute(6000))
	got := stage.Search(context.Background(), []casting.Character{{Name: "A"}, {Name: "B"}}, casting.MarketFor(""))
	if len(got[0].Candidates) != 5 || len(got[1].Candidates) != 5 {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("wrapped object", func(t *testing.T) {
		got, err := ParseResponse(`{"candidates":[{"name":"A","salary":"$1.5M","rating":12,"risk":-1}]}`)
		if err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
		if len(got) != 1 || got[0].Salary != 1.5e6 || got[0].Rating != 10 || got[0].Risk != 0 {
			t.Fatalf("got %+v", got)
		}
		if got[0].Versatility != 1 {
			t.Fatalf("missing versatility should clamp to 1, got %v", got[0].Versatility)
		}
	})
	t.Run("actors key", func(t *testing.T) {
		got, err := ParseResponse(`{"actors":[{"actor_name":"B"}]}`)
		if err != nil || len(got) != 1 || got[0].Name != "B" {
			t.Fatalf("got %+v, %v", got, err)
		}
	})
	t.Run("truncates and drops unnamed", func(t *testing.T) {
		list := `[{"name":""},` + strings.TrimPrefix(fiveCandidates("X"), "[")
		list = strings.TrimSuffix(list, "]") + `,{"name":"Extra"}]`
		got, err := ParseResponse("```json\n" + list + "\n```")
		if err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
		if len(got) != casting.MaxCandidates || got[0].Name != "X 1" {
			t.Fatalf("got %+v", got)
		}
	})
	t.Run("object without list", func(t *testing.T) {
		if _, err := ParseResponse(`{"note":"none"}`); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestBuildPromptCarriesMarketAndBudget(t *testing.T) {
	prompt := BuildPrompt(casting.Character{
		Name:      "Raj",
		Gender:    "Male",
		Traits:    casting.StringList{"charming", "brave"},
		BudgetMin: 100000,
		BudgetMax: 200000,
	}, casting.MarketFor("Bollywood"))
	for _, want := range []string{"Bollywood movie", "Role: Raj (Gender: Male", "100000 - 200000", "in raw INR", "exactly 5 Male actors", "charming, brave"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

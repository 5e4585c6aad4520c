package allocation

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"castos/internal/casting"
)

type fakeGenerator struct {
	response string
	err      error
	prompt   string
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func roles(names ...string) []casting.Character {
	out := make([]casting.Character, 0, len(names))
	for _, n := range names {
		out = append(out, casting.Character{Name: n})
	}
	return out
}

func TestFirstMatchIsOrderDependent(t *testing.T) {
	entries := []Entry{
		{Name: "Jon", Min: 1, Max: 2},
		{Name: "Jonathan Smith", Min: 10, Max: 20},
	}
	got, ok := FirstMatch("Jonathan Smith", entries)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.Name != "Jon" {
		t.Fatalf("first matching entry should win, got %q", got.Name)
	}

	reversed := []Entry{entries[1], entries[0]}
	got, _ = FirstMatch("Jonathan Smith", reversed)
	if got.Name != "Jonathan Smith" {
		t.Fatalf("list order decides, got %q", got.Name)
	}
}

func TestFirstMatchBothDirections(t *testing.T) {
	entries := []Entry{{Name: "Detective Mara Voss"}}
	if _, ok := FirstMatch("mara voss", entries); !ok {
		t.Fatal("character name contained in entry name should match")
	}
	if _, ok := FirstMatch("Eli", entries); ok {
		t.Fatal("unrelated names should not match")
	}
}

func TestFirstMatchEmptyNameMatchesEveryCharacter(t *testing.T) {
	entries := []Entry{{Name: "", Min: 7}, {Name: "Mara", Min: 1}}
	got, ok := FirstMatch("Mara", entries)
	if !ok || got.Min != 7 {
		t.Fatalf("FirstMatch = %+v, %v; want the leading empty-name entry", got, ok)
	}
	if _, ok := FirstMatch("Eli", []Entry{{Name: "  "}}); ok {
		t.Fatal("whitespace name is not a substring of \"eli\"")
	}
}

func TestEvenSplitSumsToTwiceAverage(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 12} {
		budget := 1_000_000.0
		lo, hi := EvenSplit(budget, n)
		if math.Abs((lo+hi)-2*budget/float64(n)) > 1e-6 {
			t.Fatalf("n=%d: lo+hi=%f, want %f", n, lo+hi, 2*budget/float64(n))
		}
		var sum float64
		for i := 0; i < n; i++ {
			sum += (lo + hi) / 2
		}
		if math.Abs(sum-budget) > 1e-6 {
			t.Fatalf("n=%d: midpoints sum to %f, want %f", n, sum, budget)
		}
	}
}

func TestAllocateMergesAndFallsBack(t *testing.T) {
	gen := &fakeGenerator{response: `Here you go:
{"allocations":[
  {"name":"Mara","min_budget":100000,"max_budget":"$200,000"},
  {"name":"Nobody","min_budget":1,"max_budget":2}
]}`}
	stage := New(gen, nil)
	chars := roles("Mara Voss", "Eli Park")

	got := stage.Allocate(context.Background(), chars, 400000, casting.MarketFor("Hollywood"))
	if len(got) != 2 {
		t.Fatalf("expected 2 characters, got %d", len(got))
	}
	if got[0].BudgetMin != 100000 || got[0].BudgetMax != 200000 {
		t.Fatalf("Mara budget = %v-%v", got[0].BudgetMin, got[0].BudgetMax)
	}
	if got[1].BudgetMin != 100000 || got[1].BudgetMax != 300000 {
		t.Fatalf("Eli fallback = %v-%v, want 100000-300000", got[1].BudgetMin, got[1].BudgetMax)
	}
	if chars[0].BudgetMin != 0 {
		t.Fatal("Allocate must not mutate its input")
	}
	if !strings.Contains(gen.prompt, "$400000") || !strings.Contains(gen.prompt, "in raw USD") {
		t.Fatalf("prompt missing budget context: %s", gen.prompt)
	}
}

func TestAllocateNeverFails(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{name: "service error", gen: &fakeGenerator{err: errors.New("timeout")}},
		{name: "garbage", gen: &fakeGenerator{response: "no idea"}},
		{name: "wrong shape", gen: &fakeGenerator{response: `{"budget": 5}`}},
		{name: "nil client", gen: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := New(tt.gen, nil)
			got := stage.Allocate(context.Background(), roles("A", "B", "C", "D"), 1000, casting.MarketFor("Bollywood"))
			for _, c := range got {
				if c.BudgetMin != 125 || c.BudgetMax != 375 {
					t.Fatalf("%s: budget %v-%v, want 125-375", c.Name, c.BudgetMin, c.BudgetMax)
				}
			}
		})
	}
}

func TestMergeClampsNegative(t *testing.T) {
	got, fallbacks := Merge(roles("Villain"), []Entry{{Name: "villain", Min: -5, Max: 10}}, 100)
	if fallbacks != 0 {
		t.Fatalf("fallbacks = %d", fallbacks)
	}
	if got[0].BudgetMin != 0 || got[0].BudgetMax != 10 {
		t.Fatalf("budget = %v-%v", got[0].BudgetMin, got[0].BudgetMax)
	}
}

func TestParseResponseAcceptsBareList(t *testing.T) {
	entries, err := ParseResponse(`[{"name":"A","min_budget":1,"max_budget":2}]`)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "A" || entries[0].Max != 2 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestBollywoodPromptUsesRupees(t *testing.T) {
	prompt := BuildPrompt(roles("Raj"), 5e7, casting.MarketFor("bollywood"))
	if !strings.Contains(prompt, "₹50000000") || !strings.Contains(prompt, "in raw INR") {
		t.Fatalf("prompt = %s", prompt)
	}
}

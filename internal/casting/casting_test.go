package casting_test

import (
	"testing"

	"github.com/goccy/go-json"

	"castos/internal/casting"
)

func TestMarketFor(t *testing.T) {
	cases := []struct {
		industry     string
		wantIndustry string
		wantSymbol   string
		wantContext  string
	}{
		{"Bollywood", "Bollywood", "₹", "Bollywood"},
		{"  bollywood ", "Bollywood", "₹", "Bollywood"},
		{"Hollywood", "Hollywood", "$", "Hollywood"},
		{"", "Hollywood", "$", "Hollywood"},
		{"tollywood", "Tollywood", "$", "Hollywood"},
	}
	for _, tc := range cases {
		m := casting.MarketFor(tc.industry)
		if m.Industry != tc.wantIndustry || m.CurrencySymbol != tc.wantSymbol || m.Context != tc.wantContext {
			t.Fatalf("MarketFor(%q) = %+v", tc.industry, m)
		}
	}
	if casting.MarketFor("Bollywood").CurrencyInstruction != "in raw INR" {
		t.Fatal("expected INR instruction for Bollywood")
	}
	if casting.MarketFor("Hollywood").CurrencyInstruction != "in raw USD" {
		t.Fatal("expected USD instruction for Hollywood")
	}
}

func TestCandidateDecodesLooseNumbers(t *testing.T) {
	payload := `{"name":" Priya ","salary":"₹5,00,00,000","box_office":"12.5 crore","rating":"8.1","versatility":77,"risk":null}`
	var c casting.Candidate
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Name != "Priya" {
		t.Fatalf("unexpected name %q", c.Name)
	}
	if c.Salary != 50000000 {
		t.Fatalf("unexpected salary %v", c.Salary)
	}
	if c.BoxOffice != 125000000 {
		t.Fatalf("unexpected box office %v", c.BoxOffice)
	}
	if c.Rating != 8.1 || c.Versatility != 77 || c.Risk != 0 {
		t.Fatalf("unexpected attributes %+v", c)
	}
}

func TestCandidateNormalizedClampsRanges(t *testing.T) {
	c := casting.Candidate{Name: "X", Salary: -5, BoxOffice: -1, Rating: 14, Versatility: 0, Risk: 1.7}.Normalized()
	if c.Salary != 0 || c.BoxOffice != 0 || c.Rating != 10 || c.Versatility != 1 || c.Risk != 1 {
		t.Fatalf("unexpected normalized candidate %+v", c)
	}
}

func TestCharacterDecodesTraitVariants(t *testing.T) {
	var chars []casting.Character
	payload := `[{"name":"Ava","gender":"female","age_range":"30-40","traits":["brave", " wry "]},
		{"name":"Ben","age_range":45,"traits":"stoic, loyal"}]`
	if err := json.Unmarshal([]byte(payload), &chars); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(chars[0].Traits) != 2 || chars[0].Traits[1] != "wry" {
		t.Fatalf("unexpected traits %v", chars[0].Traits)
	}
	if chars[1].AgeRange != "45" {
		t.Fatalf("unexpected age range %q", chars[1].AgeRange)
	}
	if len(chars[1].Traits) != 2 || chars[1].Traits[0] != "stoic" {
		t.Fatalf("unexpected traits %v", chars[1].Traits)
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"$2,500,000": 2500000,
		"3M":         3000000,
		"2 billion":  2000000000,
		"40 lakh":    4000000,
		"n/a":        0,
		"-10":        -10,
	}
	for input, want := range cases {
		if got := casting.ParseAmount(input); got != want {
			t.Fatalf("ParseAmount(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestPlaceholderSelection(t *testing.T) {
	sel := casting.PlaceholderSelection("Villain")
	if sel.ActorName != casting.NoCandidateName || sel.Salary != 0 || !sel.Placeholder {
		t.Fatalf("unexpected placeholder %+v", sel)
	}
}

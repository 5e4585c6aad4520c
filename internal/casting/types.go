package casting

import (
	"strings"

	"github.com/goccy/go-json"
)

// NoCandidateName is the actor name recorded for roles without candidates.
const NoCandidateName = "No Candidate Found"

// MaxCandidates is the number of candidates requested per character.
const MaxCandidates = 5

// Character is a role extracted from the plot. Budget fields are filled by
// allocation and candidates by search.
type Character struct {
	Name       string      `json:"name"`
	Gender     string      `json:"gender"`
	AgeRange   Text        `json:"age_range"`
	Traits     StringList  `json:"traits"`
	BudgetMin  float64     `json:"budget_min_display"`
	BudgetMax  float64     `json:"budget_max_display"`
	Candidates []Candidate `json:"actors"`
}

// Candidate is a performer proposed for one character.
type Candidate struct {
	Name        string  `json:"name"`
	Salary      float64 `json:"salary"`
	BoxOffice   float64 `json:"box_office"`
	Rating      float64 `json:"rating"`
	Versatility float64 `json:"versatility"`
	Risk        float64 `json:"risk"`
}

// UnmarshalJSON accepts numeric fields written as numbers or as strings.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string `json:"name"`
		Actor       string `json:"actor_name"`
		Salary      Amount `json:"salary"`
		BoxOffice   Amount `json:"box_office"`
		Rating      Amount `json:"rating"`
		Versatility Amount `json:"versatility"`
		Risk        Amount `json:"risk"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = strings.TrimSpace(raw.Actor)
	}
	*c = Candidate{
		Name:        name,
		Salary:      float64(raw.Salary),
		BoxOffice:   float64(raw.BoxOffice),
		Rating:      float64(raw.Rating),
		Versatility: float64(raw.Versatility),
		Risk:        float64(raw.Risk),
	}
	return nil
}

// Normalized clamps attributes into their documented ranges: salary and box
// office non-negative, rating 1-10, versatility 1-100, risk 0-1.
func (c Candidate) Normalized() Candidate {
	c.Name = strings.TrimSpace(c.Name)
	c.Salary = max(c.Salary, 0)
	c.BoxOffice = max(c.BoxOffice, 0)
	c.Rating = clamp(c.Rating, 1, 10)
	c.Versatility = clamp(c.Versatility, 1, 100)
	c.Risk = clamp(c.Risk, 0, 1)
	return c
}

// Selection is the optimizer's choice for one character.
type Selection struct {
	Role        string  `json:"role"`
	ActorName   string  `json:"actor_name"`
	Salary      float64 `json:"salary"`
	BoxOffice   float64 `json:"box_office"`
	Rating      float64 `json:"rating"`
	Risk        float64 `json:"risk"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// SelectionFor builds the selection record for a chosen candidate.
func SelectionFor(role string, c Candidate) Selection {
	return Selection{
		Role:      role,
		ActorName: c.Name,
		Salary:    c.Salary,
		BoxOffice: c.BoxOffice,
		Rating:    c.Rating,
		Risk:      c.Risk,
	}
}

// PlaceholderSelection is recorded for a character without candidates.
func PlaceholderSelection(role string) Selection {
	return Selection{Role: role, ActorName: NoCandidateName, Placeholder: true}
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

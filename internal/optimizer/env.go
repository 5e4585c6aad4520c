package optimizer

import (
	"castos/internal/casting"
)

// Slot is one padded candidate position in an observation. Present is false
// for positions beyond the character's candidate list, which distinguishes
// an absent candidate from one whose attributes are all zero.
type Slot struct {
	Present     bool
	Salary      float64
	BoxOffice   float64
	Rating      float64
	Versatility float64
	Risk        float64
}

// Observation is the state shown to the policy.
type Observation struct {
	// Index is the character being cast; it equals the character count once
	// the episode is over.
	Index int
	Slots []Slot
}

// Env is the sequential casting environment for one job. It is not safe for
// concurrent use.
type Env struct {
	characters []casting.Character
	budgetCap  float64
	width      int

	index int
	picks []casting.Candidate
}

// NewEnv builds an environment over characters. The action width is the
// longest candidate list across all characters, and at least one.
func NewEnv(characters []casting.Character, budgetCap float64) *Env {
	width := 1
	for _, c := range characters {
		width = max(width, len(c.Candidates))
	}
	return &Env{
		characters: characters,
		budgetCap:  budgetCap,
		width:      width,
		picks:      make([]casting.Candidate, 0, len(characters)),
	}
}

// Width is the number of candidate slots (and actions) per step.
func (e *Env) Width() int { return e.width }

// Len is the number of characters, i.e. steps per episode.
func (e *Env) Len() int { return len(e.characters) }

// BudgetCap returns the salary cap used by the terminal reward.
func (e *Env) BudgetCap() float64 { return e.budgetCap }

// Index is the character currently being cast.
func (e *Env) Index() int { return e.index }

// Done reports whether every character has been assigned.
func (e *Env) Done() bool { return e.index >= len(e.characters) }

// Reset starts a new episode.
func (e *Env) Reset() Observation {
	e.index = 0
	e.picks = e.picks[:0]
	return e.Observe()
}

// Observe returns the current observation. After the last step every slot
// is absent.
func (e *Env) Observe() Observation {
	obs := Observation{Index: e.index, Slots: make([]Slot, e.width)}
	if e.Done() {
		return obs
	}
	for i, c := range e.characters[e.index].Candidates {
		if i >= e.width {
			break
		}
		obs.Slots[i] = Slot{
			Present:     true,
			Salary:      c.Salary,
			BoxOffice:   c.BoxOffice,
			Rating:      c.Rating,
			Versatility: c.Versatility,
			Risk:        c.Risk,
		}
	}
	return obs
}

// Resolve maps an action to a candidate for character index. Out-of-range
// actions clamp to the first candidate. ok is false when the character has
// no candidates.
func (e *Env) Resolve(index, action int) (casting.Candidate, int, bool) {
	candidates := e.characters[index].Candidates
	if len(candidates) == 0 {
		return casting.Candidate{}, 0, false
	}
	if action < 0 || action >= len(candidates) {
		action = 0
	}
	return candidates[action], action, true
}

// Step assigns a candidate to the current character and advances. The reward
// is zero except on the final step, where Score of the full cast is returned.
// Stepping a finished episode is a no-op that reports done.
func (e *Env) Step(action int) (Observation, float64, bool) {
	if e.Done() {
		return e.Observe(), 0, true
	}
	pick, _, ok := e.Resolve(e.index, action)
	if !ok {
		pick = casting.Candidate{Name: casting.NoCandidateName}
	}
	e.picks = append(e.picks, pick)
	e.index++

	if !e.Done() {
		return e.Observe(), 0, false
	}
	return e.Observe(), Score(e.picks, e.budgetCap), true
}

// Picks returns the candidates chosen so far in this episode. Characters
// without candidates appear as zero-valued placeholders.
func (e *Env) Picks() []casting.Candidate {
	out := make([]casting.Candidate, len(e.picks))
	copy(out, e.picks)
	return out
}

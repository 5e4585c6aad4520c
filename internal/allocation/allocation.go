// Package allocation assigns per-character salary ranges from a single
// generative call and merges them onto the extracted characters.
//
// The merge rule is deliberately simple: the first allocation entry whose
// lowercased name is a substring of the character's lowercased name, or the
// reverse, wins. Characters without a match, or every character when the
// call fails, fall back to an even split of the total budget.
package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"castos/internal/casting"
	"castos/internal/logging"
	"castos/internal/metrics"
	"castos/internal/services"
	"castos/internal/services/llm"
)

const stageName = "allocation"

// Generator issues a single text-in/text-out generative request.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Entry is one salary range proposed by the model.
type Entry struct {
	Name string         `json:"name"`
	Min  casting.Amount `json:"min_budget"`
	Max  casting.Amount `json:"max_budget"`
}

// Stage allocates budgets.
type Stage struct {
	llm    Generator
	logger *slog.Logger
}

// New constructs an allocation stage.
func New(generator Generator, logger *slog.Logger) *Stage {
	return &Stage{llm: generator, logger: logging.NewComponentLogger(logger, stageName)}
}

// Allocate returns a copy of characters with BudgetMin and BudgetMax set on
// every entry. It never fails; missing or unusable model output degrades to
// the even-split fallback.
func (s *Stage) Allocate(ctx context.Context, characters []casting.Character, totalBudget float64, market casting.Market) []casting.Character {
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()
	if len(characters) == 0 {
		return characters
	}

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("characters", len(characters)),
	)

	entries, err := s.request(ctx, characters, totalBudget, market)
	if err != nil {
		logging.WarnWithContext(logger, "budget allocation unavailable; using even split", "allocation_fallback",
			logging.Error(err),
			logging.String(logging.FieldImpact, "every role receives an even share of the budget"),
			logging.String(logging.FieldErrorHint, "check generative service health"),
		)
	}

	merged, fallbacks := Merge(characters, entries, totalBudget)
	outcome := "success"
	if fallbacks > 0 {
		outcome = "fallback"
		if err == nil {
			logging.WarnWithContext(logger, "allocation missing for some roles; using even split", "allocation_fallback",
				logging.Int("unmatched", fallbacks),
				logging.String(logging.FieldImpact, "unmatched roles receive an even share of the budget"),
				logging.String(logging.FieldErrorHint, "model returned names that do not match extracted roles"),
			)
		}
	}
	metrics.ObserveStage(stageName, outcome, time.Since(start))
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("fallbacks", fallbacks),
		logging.Duration("duration", time.Since(start)),
	)
	return merged
}

func (s *Stage) request(ctx context.Context, characters []casting.Character, totalBudget float64, market casting.Market) ([]Entry, error) {
	if s.llm == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "generate", "generative client unavailable", nil)
	}
	response, err := s.llm.Complete(ctx, BuildPrompt(characters, totalBudget, market))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, stageName, "generate", "allocation request failed", err)
	}
	entries, err := ParseResponse(response)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "parse", "unusable allocation payload", err)
	}
	return entries, nil
}

// ParseResponse decodes {"allocations":[...]}; a bare list is accepted too.
func ParseResponse(response string) ([]Entry, error) {
	trimmed := strings.TrimSpace(response)
	if span := llm.ExtractJSONSpan(trimmed); strings.HasPrefix(span, "[") {
		var entries []Entry
		if err := llm.DecodeLLMJSON(trimmed, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
	var payload struct {
		Allocations []Entry `json:"allocations"`
	}
	if err := llm.DecodeLLMJSON(trimmed, &payload); err != nil {
		return nil, err
	}
	if payload.Allocations == nil {
		return nil, fmt.Errorf("response has no \"allocations\" key")
	}
	return payload.Allocations, nil
}

// Merge applies entries onto a copy of characters and reports how many
// characters fell back to the even split. Negative amounts clamp to zero.
func Merge(characters []casting.Character, entries []Entry, totalBudget float64) ([]casting.Character, int) {
	out := make([]casting.Character, len(characters))
	copy(out, characters)
	if len(out) == 0 {
		return out, 0
	}
	lo, hi := EvenSplit(totalBudget, len(out))
	fallbacks := 0
	for i := range out {
		if entry, ok := FirstMatch(out[i].Name, entries); ok {
			out[i].BudgetMin = max(float64(entry.Min), 0)
			out[i].BudgetMax = max(float64(entry.Max), 0)
			continue
		}
		out[i].BudgetMin, out[i].BudgetMax = lo, hi
		fallbacks++
	}
	return out, fallbacks
}

// FirstMatch returns the first entry, in list order, whose lowercased name
// contains or is contained by the lowercased character name. An entry with an
// empty name is contained by every character name and so matches it.
func FirstMatch(character string, entries []Entry) (Entry, bool) {
	name := strings.ToLower(character)
	for _, entry := range entries {
		candidate := strings.ToLower(entry.Name)
		if strings.Contains(name, candidate) || strings.Contains(candidate, name) {
			return entry, true
		}
	}
	return Entry{}, false
}

// EvenSplit returns the fallback range for one of n characters sharing
// totalBudget: half and one-and-a-half times the average share.
func EvenSplit(totalBudget float64, n int) (float64, float64) {
	if n <= 0 {
		return 0, 0
	}
	avg := max(totalBudget, 0) / float64(n)
	return avg * 0.5, avg * 1.5
}

// BuildPrompt renders the allocation request.
func BuildPrompt(characters []casting.Character, totalBudget float64, market casting.Market) string {
	names := make([]string, 0, len(characters))
	for _, c := range characters {
		names = append(names, fmt.Sprintf("%q", c.Name))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are a casting director and movie producer. The total casting budget is %s%.0f.\n", market.CurrencySymbol, totalBudget)
	fmt.Fprintf(&b, "Create a salary range (minimum and maximum) for each of these characters based on their importance: [%s].\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Express amounts %s as plain numbers, not abbreviated.\n", market.CurrencyInstruction)
	b.WriteString(`Return ONLY a JSON object: {"allocations": [{"name": "Exact Character Name", "min_budget": number, "max_budget": number}]}`)
	return b.String()
}

// Package scouting sources candidate performers for each character with one
// grounded generative call per role.
//
// Calls fan out over a bounded worker pool and, optionally, an outbound rate
// limiter. A failure for one role yields an empty candidate list for that role
// only; Search returns after every call has settled.
package scouting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"castos/internal/casting"
	"castos/internal/logging"
	"castos/internal/metrics"
	"castos/internal/services"
	"castos/internal/services/llm"
)

const stageName = "candidate_search"

// DefaultConcurrency bounds in-flight search calls when none is configured.
const DefaultConcurrency = 5

// Generator issues a single grounded generative request.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Option customizes a Stage.
type Option func(*Stage)

// WithConcurrency sets the worker pool size. Values below 1 use the default.
func WithConcurrency(n int) Option {
	return func(s *Stage) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRequestsPerMinute caps outbound call rate. Zero disables limiting.
func WithRequestsPerMinute(rpm int) Option {
	return func(s *Stage) {
		if rpm > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
		} else {
			s.limiter = nil
		}
	}
}

// Stage searches for candidates.
type Stage struct {
	llm         Generator
	concurrency int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// New constructs a search stage.
func New(generator Generator, logger *slog.Logger, opts ...Option) *Stage {
	s := &Stage{
		llm:         generator,
		concurrency: DefaultConcurrency,
		logger:      logging.NewComponentLogger(logger, stageName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Concurrency reports the worker pool size.
func (s *Stage) Concurrency() int { return s.concurrency }

// Search returns a copy of characters with Candidates populated on every
// entry. A role whose call fails gets an empty, non-nil list.
func (s *Stage) Search(ctx context.Context, characters []casting.Character, market casting.Market) []casting.Character {
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()

	out := make([]casting.Character, len(characters))
	copy(out, characters)

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("characters", len(out)),
		logging.Int("concurrency", s.concurrency),
	)

	results := make([][]casting.Candidate, len(out))
	failures := make([]error, len(out))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range out {
		character := out[i]
		g.Go(func() error {
			candidates, err := s.searchOne(ctx, character, market)
			results[i] = candidates
			failures[i] = err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range out {
		if failures[i] != nil {
			failed++
			metrics.CandidateSearchFailures.Inc()
			logging.WarnWithContext(logger, "candidate search failed for role", "candidate_search_failed",
				logging.String("role", out[i].Name),
				logging.Error(failures[i]),
				logging.String(logging.FieldImpact, "role resolves to the no-candidate placeholder"),
				logging.String(logging.FieldErrorHint, "check grounded search service health"),
			)
		}
		if results[i] == nil {
			results[i] = []casting.Candidate{}
		}
		out[i].Candidates = results[i]
	}

	outcome := "success"
	if failed > 0 {
		outcome = "fallback"
	}
	metrics.ObserveStage(stageName, outcome, time.Since(start))
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("failed_roles", failed),
		logging.Duration("duration", time.Since(start)),
	)
	return out
}

func (s *Stage) searchOne(ctx context.Context, character casting.Character, market casting.Market) (candidates []casting.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidates = nil
			err = fmt.Errorf("search panicked: %v", r)
		}
	}()
	if s.llm == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "search", "grounded client unavailable", nil)
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, services.Wrap(services.ErrTransient, stageName, "rate_limit", "wait for outbound slot", err)
		}
	}
	response, err := s.llm.Complete(ctx, BuildPrompt(character, market))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, stageName, "search", character.Name, err)
	}
	candidates, err = ParseResponse(response)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "parse", character.Name, err)
	}
	return candidates, nil
}

// ParseResponse decodes a candidate list. A bare JSON list is expected;
// objects wrapping the list under "candidates" or "actors" are tolerated.
// Candidates are normalized, unnamed entries dropped and the list truncated
// to casting.MaxCandidates.
func ParseResponse(response string) ([]casting.Candidate, error) {
	trimmed := strings.TrimSpace(response)
	var raw []casting.Candidate
	if strings.HasPrefix(llm.ExtractJSONSpan(trimmed), "{") {
		var wrapped struct {
			Candidates []casting.Candidate `json:"candidates"`
			Actors     []casting.Candidate `json:"actors"`
		}
		if err := llm.DecodeLLMJSON(trimmed, &wrapped); err != nil {
			return nil, err
		}
		raw = wrapped.Candidates
		if raw == nil {
			raw = wrapped.Actors
		}
		if raw == nil {
			return nil, fmt.Errorf("object response has no candidate list")
		}
	} else if err := llm.DecodeLLMJSON(trimmed, &raw); err != nil {
		return nil, err
	}

	out := make([]casting.Candidate, 0, min(len(raw), casting.MaxCandidates))
	for _, c := range raw {
		c = c.Normalized()
		if c.Name == "" {
			continue
		}
		out = append(out, c)
		if len(out) == casting.MaxCandidates {
			break
		}
	}
	return out, nil
}

// BuildPrompt renders the grounded search request for one role.
func BuildPrompt(character casting.Character, market casting.Market) string {
	gender := strings.TrimSpace(character.Gender)
	if gender == "" {
		gender = "Any"
	}
	traits := strings.Join(character.Traits, ", ")
	var b strings.Builder
	fmt.Fprintf(&b, "You are a casting director for a %s movie.\n", market.Context)
	fmt.Fprintf(&b, "Role: %s (Gender: %s, Age: %s). Traits: %s.\n", character.Name, gender, character.AgeRange, traits)
	fmt.Fprintf(&b, "Target salary range: %.0f - %.0f.\n", character.BudgetMin, character.BudgetMax)
	fmt.Fprintf(&b, "SEARCH and suggest exactly %d %s actors whose market rate falls roughly within this range.\n", casting.MaxCandidates, gender)
	fmt.Fprintf(&b, "For each actor, find their estimated salary per film (%s) and recent box office average.\n\n", market.CurrencyInstruction)
	b.WriteString(`RETURN ONLY A RAW JSON LIST of objects: [{"name": "Actor Name", "salary": number, "box_office": number, "rating": number (1-10), "versatility": number (1-100), "risk": number (0.0-1.0)}]`)
	return b.String()
}

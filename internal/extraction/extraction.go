// Package extraction derives the character list for a plot with one
// generative call, caching successful results by the plot's content hash.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"castos/internal/casting"
	"castos/internal/logging"
	"castos/internal/metrics"
	"castos/internal/resultcache"
	"castos/internal/services"
	"castos/internal/services/llm"
)

const stageName = "extraction"

// CacheKeyPrefix namespaces extraction results in the result cache.
const CacheKeyPrefix = "chars"

// ErrNoCharacters reports a model response without a usable character list.
var ErrNoCharacters = errors.New("no characters extracted")

// Generator issues a single text-in/text-out generative request.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Payload is the cached extraction result.
type Payload struct {
	Characters []casting.Character `json:"characters"`
}

// Stage extracts characters from plots.
type Stage struct {
	llm    Generator
	cache  *resultcache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// New constructs an extraction stage. cache may be nil.
func New(generator Generator, cache *resultcache.Cache, ttl time.Duration, logger *slog.Logger) *Stage {
	return &Stage{
		llm:    generator,
		cache:  cache,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, stageName),
	}
}

// Extract returns the ordered character list for plot. Any failure to obtain
// a non-empty list is returned as an error; nothing partial is returned.
func (s *Stage) Extract(ctx context.Context, plot string) ([]casting.Character, error) {
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()

	if strings.TrimSpace(plot) == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "extract", "plot is empty", nil)
	}

	key := resultcache.Key(CacheKeyPrefix, plot)
	var cached Payload
	if s.cache.GetJSON(ctx, key, &cached) && len(cached.Characters) > 0 {
		logger.Info("character extraction served from cache",
			logging.String(logging.FieldEventType, "cache_hit"),
			logging.Int("characters", len(cached.Characters)),
		)
		metrics.ObserveStage(stageName, "cache_hit", time.Since(start))
		return cached.Characters, nil
	}

	if s.llm == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "extract", "generative client unavailable", nil)
	}

	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	response, err := s.llm.Complete(ctx, BuildPrompt(plot))
	if err != nil {
		metrics.ObserveStage(stageName, "failure", time.Since(start))
		return nil, services.Wrap(services.ErrExternalService, stageName, "generate", "character extraction request failed", err)
	}

	characters, err := ParseResponse(response)
	if err != nil {
		metrics.ObserveStage(stageName, "failure", time.Since(start))
		return nil, services.Wrap(services.ErrValidation, stageName, "parse", "unusable character list", err)
	}

	if dups := DuplicateNames(characters); len(dups) > 0 {
		logging.WarnWithContext(logger, "extraction returned duplicate character names", "duplicate_characters",
			logging.String("names", strings.Join(dups, ", ")),
			logging.String(logging.FieldImpact, "duplicates share one budget allocation"),
			logging.String(logging.FieldErrorHint, "rerun with a plot that names each character once"),
		)
	}
	s.cache.SetJSON(ctx, key, Payload{Characters: characters}, s.ttl)
	metrics.ObserveStage(stageName, "success", time.Since(start))
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("characters", len(characters)),
		logging.Duration("duration", time.Since(start)),
	)
	return characters, nil
}

// ParseResponse decodes a model response into characters. The "characters"
// key must be present and hold at least one named character.
func ParseResponse(response string) ([]casting.Character, error) {
	var payload struct {
		Characters *[]casting.Character `json:"characters"`
	}
	if err := llm.DecodeLLMJSON(response, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Characters == nil {
		return nil, fmt.Errorf("%w: response has no \"characters\" key", ErrNoCharacters)
	}
	characters := make([]casting.Character, 0, len(*payload.Characters))
	for _, c := range *payload.Characters {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		c.BudgetMin, c.BudgetMax, c.Candidates = 0, 0, nil
		characters = append(characters, c)
	}
	if len(characters) == 0 {
		return nil, ErrNoCharacters
	}
	return characters, nil
}

// BuildPrompt renders the extraction request for plot.
func BuildPrompt(plot string) string {
	var b strings.Builder
	b.WriteString("You are a screenplay analyst. Extract the main characters from the plot below.\n")
	b.WriteString(`Return JSON with the key "characters": a list of objects with "name", "gender", "age_range" and "traits" (a list of short descriptors).`)
	b.WriteString("\nOutput ONLY raw JSON.\n\nPlot:\n")
	b.WriteString(plot)
	return b.String()
}

// DuplicateNames lists names that occur more than once, compared
// case-insensitively, in first-seen order.
func DuplicateNames(characters []casting.Character) []string {
	seen := make(map[string]int, len(characters))
	var dups []string
	for _, c := range characters {
		key := strings.ToLower(c.Name)
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, c.Name)
		}
	}
	return dups
}

// Package pipeline runs the sourcing half of a casting job: extraction,
// budget allocation, then candidate search. Only extraction failures stop
// the pipeline; the later stages degrade in place.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"castos/internal/allocation"
	"castos/internal/casting"
	"castos/internal/extraction"
	"castos/internal/logging"
	"castos/internal/scouting"
)

// Request describes one casting problem.
type Request struct {
	Plot      string
	BudgetCap float64
	Industry  string
}

// Result is the raw pipeline output persisted with the job.
type Result struct {
	Characters []casting.Character `json:"characters"`
}

// Engine sequences the pipeline stages.
type Engine struct {
	extractor *extraction.Stage
	allocator *allocation.Stage
	scout     *scouting.Stage
	logger    *slog.Logger
}

// New wires an engine from its stages.
func New(extractor *extraction.Stage, allocator *allocation.Stage, scout *scouting.Stage, logger *slog.Logger) *Engine {
	return &Engine{
		extractor: extractor,
		allocator: allocator,
		scout:     scout,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run executes the stages strictly in order. Search fans out internally and
// has fully settled before Run returns.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	logger := logging.WithContext(ctx, e.logger)
	start := time.Now()
	market := casting.MarketFor(req.Industry)

	characters, err := e.extractor.Extract(ctx, req.Plot)
	if err != nil {
		return Result{}, err
	}
	characters = e.allocator.Allocate(ctx, characters, req.BudgetCap, market)
	characters = e.scout.Search(ctx, characters, market)

	withCandidates := 0
	for _, c := range characters {
		if len(c.Candidates) > 0 {
			withCandidates++
		}
	}
	logger.Info("pipeline finished",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.String("industry", market.Industry),
		logging.Int("characters", len(characters)),
		logging.Int("characters_with_candidates", withCandidates),
		logging.Duration("duration", time.Since(start)),
	)
	return Result{Characters: characters}, nil
}

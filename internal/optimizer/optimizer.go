package optimizer

import (
	"context"
	"log/slog"
	"time"

	"castos/internal/casting"
	"castos/internal/config"
	"castos/internal/logging"
	"castos/internal/metrics"
	"castos/internal/services"
)

const stageName = "optimization"

// Result is the final cast for a job.
type Result struct {
	Selections  []casting.Selection
	Score       float64
	TotalSalary float64
	// Episodes is the number of training episodes played.
	Episodes int
}

// Optimizer trains a fresh policy for every call to Optimize. No weights are
// shared between calls.
type Optimizer struct {
	cfg    config.Optimizer
	pool   *Pool
	logger *slog.Logger
}

// New constructs an optimizer. pool may be nil to train without a bound.
func New(cfg config.Optimizer, pool *Pool, logger *slog.Logger) *Optimizer {
	return &Optimizer{cfg: cfg, pool: pool, logger: logging.NewComponentLogger(logger, stageName)}
}

// Optimize selects one candidate per character under budgetCap. Characters
// without candidates resolve to the placeholder selection.
func (o *Optimizer) Optimize(ctx context.Context, characters []casting.Character, budgetCap float64) (Result, error) {
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, o.logger)
	if len(characters) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "optimize", "no characters to cast", nil)
	}

	var result Result
	err := o.pool.Do(ctx, func() error {
		start := time.Now()
		logger.Info("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
			logging.Int("characters", len(characters)),
			logging.Int("timesteps", o.cfg.TotalTimesteps),
		)

		env := NewEnv(characters, budgetCap)
		t := newTrainer(o.cfg, env)
		stats := t.train()
		metrics.TrainingDuration.Observe(time.Since(start).Seconds())

		result = rollout(t, env, characters)
		result.Episodes = stats.Episodes
		metrics.OptimizerScore.Observe(result.Score)
		metrics.ObserveStage(stageName, "success", time.Since(start))

		logger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Float64("score", result.Score),
			logging.Float64("total_salary", result.TotalSalary),
			logging.Int("episodes", stats.Episodes),
			logging.Int("updates", stats.Updates),
			logging.Float64("mean_training_return", stats.MeanReturn),
			logging.Float64("clip_fraction", stats.ClipFraction),
			logging.Duration("duration", time.Since(start)),
		)
		return nil
	})
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, stageName, "acquire", "training slot unavailable", err)
	}
	return result, nil
}

// rollout plays one greedy episode with the trained policy.
func rollout(t *trainer, env *Env, characters []casting.Character) Result {
	obs := env.Reset()
	selections := make([]casting.Selection, 0, len(characters))
	for !env.Done() {
		idx := env.Index()
		action := t.greedy(obs)
		if pick, _, ok := env.Resolve(idx, action); ok {
			selections = append(selections, casting.SelectionFor(characters[idx].Name, pick))
		} else {
			selections = append(selections, casting.PlaceholderSelection(characters[idx].Name))
		}
		obs, _, _ = env.Step(action)
	}
	breakdown := Evaluate(env.Picks(), env.BudgetCap())
	return Result{
		Selections:  selections,
		Score:       breakdown.Score,
		TotalSalary: breakdown.TotalSalary,
	}
}

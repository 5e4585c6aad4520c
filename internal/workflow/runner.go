package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"castos/internal/casting"
	"castos/internal/logging"
	"castos/internal/metrics"
	"castos/internal/optimizer"
	"castos/internal/pipeline"
	"castos/internal/queue"
	"castos/internal/services"
)

// Outcome is the result of processing one job.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	// OutcomeSkipped covers jobs that were deleted or no longer pending.
	OutcomeSkipped Outcome = "skipped"
)

// JobStore is the persistence the runner needs.
type JobStore interface {
	GetByID(ctx context.Context, id int64) (*queue.Job, error)
	Save(ctx context.Context, job *queue.Job) error
}

// Pipeline produces the candidate-annotated character list for a job.
type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Optimizer selects the final cast.
type Optimizer interface {
	Optimize(ctx context.Context, characters []casting.Character, budgetCap float64) (optimizer.Result, error)
}

// Runner executes single jobs.
type Runner struct {
	store     JobStore
	pipeline  Pipeline
	optimizer Optimizer
	logger    *slog.Logger
}

// NewRunner constructs a runner.
func NewRunner(store JobStore, p Pipeline, o Optimizer, logger *slog.Logger) *Runner {
	return &Runner{
		store:     store,
		pipeline:  p,
		optimizer: o,
		logger:    logging.NewComponentLogger(logger, "workflow-runner"),
	}
}

// Process runs job id to a terminal status. The returned error reports
// persistence problems only; pipeline failures are recorded on the job and
// surface as OutcomeFailed.
func (r *Runner) Process(ctx context.Context, id int64) (Outcome, error) {
	ctx = services.WithJobID(ctx, id)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, r.logger)

	job, err := r.store.GetByID(ctx, id)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("load job %d: %w", id, err)
	}
	if job == nil {
		logger.Info("job no longer exists; skipping",
			logging.Args(logging.DecisionAttrs("job_dispatch", "skip", "job deleted before processing")...)...)
		return OutcomeSkipped, nil
	}
	if job.Status != queue.StatusPending {
		logger.Info("job is not pending; skipping",
			logging.String("status", string(job.Status)),
			logging.String(logging.FieldDecisionType, "job_dispatch"),
		)
		return OutcomeSkipped, nil
	}

	start := time.Now()
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("title", job.Title),
		logging.Float64("budget_cap", job.BudgetCap),
		logging.String("industry", job.Industry),
	)

	raw, result, err := r.run(ctx, job)
	if err != nil {
		return r.fail(ctx, logger, id, err)
	}

	job.Status = queue.StatusCompleted
	job.ErrorMessage = ""
	if err := job.SetRawCharacters(raw); err != nil {
		return r.fail(ctx, logger, id, fmt.Errorf("encode pipeline output: %w", err))
	}
	if err := job.SetOptimizationResult(result.Selections); err != nil {
		return r.fail(ctx, logger, id, fmt.Errorf("encode optimization result: %w", err))
	}
	if err := r.store.Save(ctx, job); err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			logger.Info("job deleted while running; result discarded",
				logging.Args(logging.DecisionAttrs("job_result", "discard", "job deleted during processing")...)...)
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, fmt.Errorf("save completed job %d: %w", id, err)
	}

	metrics.JobsFinished.WithLabelValues(string(queue.StatusCompleted)).Inc()
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int("selections", len(result.Selections)),
		logging.Float64("score", result.Score),
		logging.Float64("total_salary", result.TotalSalary),
		logging.Duration("duration", time.Since(start)),
	)
	return OutcomeCompleted, nil
}

func (r *Runner) run(ctx context.Context, job *queue.Job) (pipeline.Result, optimizer.Result, error) {
	raw, err := r.pipeline.Run(ctx, pipeline.Request{
		Plot:      job.Plot,
		BudgetCap: job.BudgetCap,
		Industry:  job.Industry,
	})
	if err != nil {
		return pipeline.Result{}, optimizer.Result{}, err
	}
	result, err := r.optimize(ctx, raw.Characters, job.BudgetCap)
	if err != nil {
		return pipeline.Result{}, optimizer.Result{}, err
	}
	return raw, result, nil
}

// optimize converts optimizer panics into errors so they fail the job.
func (r *Runner) optimize(ctx context.Context, characters []casting.Character, budgetCap float64) (result optimizer.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.WithContext(ctx, r.logger).Debug("optimizer panic", logging.String("stack", string(debug.Stack())))
			err = services.Wrap(services.ErrExternalService, "optimization", "optimize", fmt.Sprintf("optimizer panicked: %v", rec), nil)
		}
	}()
	return r.optimizer.Optimize(ctx, characters, budgetCap)
}

// fail records a failed job. The row is fetched again first so a job deleted
// (or finished elsewhere) in the meantime is left alone.
func (r *Runner) fail(ctx context.Context, logger *slog.Logger, id int64, cause error) (Outcome, error) {
	logging.ErrorWithContext(logger, "job failed", "job_failure",
		logging.Error(cause),
		logging.String("error_kind", services.Kind(cause)),
		logging.Alert("job_failure"),
		logging.String(logging.FieldErrorHint, "inspect the error and resubmit the job"),
	)

	current, err := r.store.GetByID(ctx, id)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("reload job %d: %w", id, err)
	}
	if current == nil {
		logger.Info("job deleted while running; failure not recorded",
			logging.Args(logging.DecisionAttrs("job_result", "discard", "job deleted during processing")...)...)
		return OutcomeSkipped, nil
	}
	if current.Status != queue.StatusPending {
		return OutcomeSkipped, nil
	}

	current.Status = queue.StatusFailed
	current.ErrorMessage = services.Summary(cause)
	current.RawCharactersJSON = ""
	current.OptimizationResultJSON = ""
	if err := r.store.Save(ctx, current); err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, fmt.Errorf("save failed job %d: %w", id, err)
	}
	metrics.JobsFinished.WithLabelValues(string(queue.StatusFailed)).Inc()
	return OutcomeFailed, nil
}

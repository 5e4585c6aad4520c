package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"castos/internal/logging"
	"castos/internal/metrics"
	"castos/internal/queue"
)

// PendingSource lists jobs waiting to run.
type PendingSource interface {
	Pending(ctx context.Context, limit int, exclude ...int64) ([]*queue.Job, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
}

// Processor runs a single job.
type Processor interface {
	Process(ctx context.Context, id int64) (Outcome, error)
}

// Manager dispatches pending jobs to a Processor.
type Manager struct {
	source       PendingSource
	processor    Processor
	logger       *slog.Logger
	pollInterval time.Duration
	maxJobs      int

	wake chan struct{}

	mu       sync.RWMutex
	running  bool
	inFlight map[int64]struct{}
	wg       sync.WaitGroup
	lastErr  error
	lastJob  int64
}

// NewManager constructs a dispatcher running at most maxJobs jobs at once.
func NewManager(source PendingSource, processor Processor, pollInterval time.Duration, maxJobs int, logger *slog.Logger) *Manager {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if maxJobs <= 0 {
		maxJobs = 1
	}
	return &Manager{
		source:       source,
		processor:    processor,
		logger:       logging.NewComponentLogger(logger, "workflow-manager"),
		pollInterval: pollInterval,
		maxJobs:      maxJobs,
		wake:         make(chan struct{}, 1),
		inFlight:     make(map[int64]struct{}),
	}
}

// Notify wakes the dispatcher so a newly submitted job starts without
// waiting for the next poll. It never blocks.
func (m *Manager) Notify() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Serve dispatches jobs until ctx is cancelled, then waits for in-flight jobs
// to finish. It implements suture.Service.
func (m *Manager) Serve(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.wg.Wait()
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	m.logger.Info("workflow dispatcher started",
		logging.String(logging.FieldEventType, "dispatcher_start"),
		logging.Int("max_concurrent_jobs", m.maxJobs),
		logging.Duration("poll_interval", m.pollInterval),
	)

	for {
		m.dispatch(ctx)
		select {
		case <-ctx.Done():
			m.logger.Info("workflow dispatcher stopping; waiting for running jobs",
				logging.String(logging.FieldEventType, "dispatcher_stop"),
				logging.Int("in_flight", len(m.InFlight())),
			)
			return ctx.Err()
		case <-m.wake:
		case <-time.After(m.pollInterval):
		}
	}
}

// dispatch starts as many pending jobs as free slots allow.
func (m *Manager) dispatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	running := m.InFlight()
	free := m.maxJobs - len(running)
	if free <= 0 {
		return
	}
	jobs, err := m.source.Pending(ctx, free, running...)
	if err != nil {
		m.setLastError(err)
		if !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(m.logger, "failed to fetch pending jobs", "queue_fetch_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check job database access"),
			)
		}
		return
	}
	for _, job := range jobs {
		m.start(ctx, job.ID)
	}
}

func (m *Manager) start(ctx context.Context, id int64) {
	m.mu.Lock()
	if _, ok := m.inFlight[id]; ok {
		m.mu.Unlock()
		return
	}
	m.inFlight[id] = struct{}{}
	m.wg.Add(1)
	m.mu.Unlock()
	metrics.JobsInFlight.Inc()

	// Started jobs run to completion even when the dispatcher is stopping.
	jobCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			metrics.JobsInFlight.Dec()
			m.mu.Lock()
			delete(m.inFlight, id)
			m.lastJob = id
			m.mu.Unlock()
			m.wg.Done()
			m.Notify()
		}()
		outcome, err := m.processor.Process(jobCtx, id)
		if err != nil {
			m.setLastError(err)
			logging.ErrorWithContext(m.logger, "job processing error", "job_processing_error",
				logging.Int64(logging.FieldJobID, id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check job database access"),
			)
			return
		}
		m.logger.Debug("job finished", logging.Int64(logging.FieldJobID, id), logging.String("outcome", string(outcome)))
	}()
}

// InFlight returns the ids of jobs currently running.
func (m *Manager) InFlight() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.inFlight))
	for id := range m.inFlight {
		ids = append(ids, id)
	}
	return ids
}

// Wait blocks until every started job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	InFlight   []int64
	LastError  string
	LastJobID  int64
	QueueStats map[queue.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, LastJobID: m.lastJob}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()
	summary.InFlight = m.InFlight()

	stats, err := m.source.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read job stats", logging.Error(err))
	}
	summary.QueueStats = stats
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

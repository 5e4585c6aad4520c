package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"castos/internal/config"
	"castos/internal/logging"
	"castos/internal/preflight"
	"castos/internal/workflow"
)

// ErrAlreadyRunning is returned when another daemon holds the instance lock.
var ErrAlreadyRunning = errors.New("another castosd instance is already running")

// jobDrainTimeout bounds how long suture waits for the dispatcher to stop.
// Running jobs are waited for separately after the tree exits.
const jobDrainTimeout = 2 * time.Minute

// Dispatcher is the supervised job dispatcher.
type Dispatcher interface {
	suture.Service
	Wait()
	Status(ctx context.Context) workflow.StatusSummary
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithPreflight replaces the startup readiness checks.
func WithPreflight(fn func(context.Context, *config.Config) []preflight.Result) Option {
	return func(d *Daemon) {
		d.preflight = fn
	}
}

// Daemon owns the instance lock and the supervision tree.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	dispatcher Dispatcher
	http       *httpService
	preflight  func(context.Context, *config.Config) []preflight.Result

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	DatabasePath string
	LockFilePath string
	APIAddress   string
}

// New constructs a daemon. handler serves the HTTP API; it is skipped when no
// bind address is configured.
func New(cfg *config.Config, dispatcher Dispatcher, handler http.Handler, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || dispatcher == nil {
		return nil, errors.New("daemon requires config and dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		dispatcher: dispatcher,
		preflight:  preflight.RunAll,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}
	if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" && handler != nil {
		d.http = newHTTPService(bind, handler, logger)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run acquires the instance lock and supervises the dispatcher and API until
// ctx is cancelled. Jobs already running are allowed to finish before Run
// returns.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	d.runPreflight(ctx)

	root := suture.New("castosd", suture.Spec{
		EventHook: (&sutureslog.Handler{Logger: d.logger}).MustHook(),
		Timeout:   jobDrainTimeout,
	})
	root.Add(d.dispatcher)
	if d.http != nil {
		root.Add(d.http)
	}

	d.logger.Info("castos daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("database", d.cfg.DatabasePath()),
		logging.String("api_bind", d.cfg.Paths.APIBind),
	)

	err = root.Serve(ctx)
	d.dispatcher.Wait()
	d.logger.Info("castos daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("supervisor: %w", err)
	}
	return nil
}

func (d *Daemon) runPreflight(ctx context.Context) {
	if d.preflight == nil {
		return
	}
	for _, result := range d.preflight(ctx, d.cfg) {
		if result.Passed {
			d.logger.Info("preflight check passed",
				logging.String(logging.FieldEventType, "preflight_pass"),
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failure",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "jobs depending on this check will fail"),
			logging.String(logging.FieldErrorHint, "fix the configuration and restart castosd"),
		)
	}
}

// APIAddr returns the bound API address, or nil before the server listens.
func (d *Daemon) APIAddr() net.Addr {
	if d.http == nil {
		return nil
	}
	return d.http.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Workflow:     d.dispatcher.Status(ctx),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
	if addr := d.APIAddr(); addr != nil {
		status.APIAddress = addr.String()
	}
	return status
}

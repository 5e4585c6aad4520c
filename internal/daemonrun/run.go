package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"castos/internal/api"
	"castos/internal/config"
	"castos/internal/daemon"
	"castos/internal/logging"
	"castos/internal/queue"
	"castos/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the castos daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "castos.log")},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logConfigSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, "castosd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	components, err := NewComponents(cfg, logger)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn("close result cache", logging.Error(err))
		}
	}()

	runner := workflow.NewRunner(store, components.Pipeline, components.Optimizer, logger)
	manager := workflow.NewManager(store, runner, cfg.PollInterval(), cfg.Workflow.MaxConcurrentJobs, logger)
	handler := api.NewServer(api.NewJobService(store), manager, logger).Router()

	d, err := daemon.New(cfg, manager, handler, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon exited with error", "daemon_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the lock file and job database access"),
		)
		return err
	}
	logger.Info("castos daemon shut down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.String("llm_model", cfg.LLM.Model),
		logging.String("search_model", cfg.SearchLLM().Model),
		logging.Bool("web_search", cfg.Search.WebSearch),
		logging.Bool("cache_enabled", cfg.Cache.Enabled),
		logging.Int("extraction_ttl_hours", cfg.Cache.ExtractionTTLHours),
		logging.Int("total_timesteps", cfg.Optimizer.TotalTimesteps),
		logging.Int("max_concurrent_jobs", cfg.Workflow.MaxConcurrentJobs),
		logging.String("api_bind", cfg.Paths.APIBind),
	)
}

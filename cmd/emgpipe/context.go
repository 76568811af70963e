package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"emgpipe/internal/batch"
	"emgpipe/internal/config"
	apperrors "emgpipe/internal/errors"
	"emgpipe/internal/infrastructure"
)

// commandContext carries what every subcommand needs once setup has run.
type commandContext struct {
	configFlag   string
	logLevelFlag string

	cfg      *config.Config
	paths    *config.Paths
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
	runID    string
	shutdown infrastructure.ShutdownFunc
}

// setup loads configuration and installs logging, tracing and the run id.
func (c *commandContext) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(strings.TrimSpace(c.configFlag))
	if err != nil {
		return err
	}
	if c.logLevelFlag != "" {
		cfg.Logging.Level = c.logLevelFlag
		if err := cfg.Validate(); err != nil {
			return apperrors.NewConfigError(fmt.Sprintf("invalid --log-level %q", c.logLevelFlag), err)
		}
	}

	paths, err := cfg.Paths.Resolve()
	if err != nil {
		return err
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	shutdown, err := infrastructure.InitializeTracing(cfg.Telemetry, cmd.ErrOrStderr())
	if err != nil {
		return errors.Join(fmt.Errorf("failed to initialize tracing: %w", err), infrastructure.CloseLogFile())
	}
	slog.SetDefault(logger)

	c.cfg = cfg
	c.paths = paths
	c.logger = logger
	c.metrics = infrastructure.NewMetrics()
	c.runID = uuid.NewString()
	c.shutdown = shutdown

	ctx := infrastructure.WithRunID(cmd.Context(), c.runID)
	cmd.SetContext(ctx)

	logger.DebugContext(ctx, "Configuration loaded",
		slog.String("base_dir", paths.BaseDir),
		slog.Int("workers", cfg.Batch.Workers),
		slog.String("trace_exporter", cfg.Telemetry.TraceExporter))
	return nil
}

// close flushes metrics and traces and releases the log file. It is safe to
// call when setup never ran.
func (c *commandContext) close(ctx context.Context) error {
	if c.cfg == nil {
		return nil
	}

	var errs []error
	if err := c.metrics.WriteTextfile(c.cfg.Telemetry.MetricsTextfile); err != nil {
		errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
	}
	if c.shutdown != nil {
		if err := c.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down tracing: %w", err))
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *commandContext) runner() *batch.Runner {
	return batch.NewRunner(c.cfg.Batch.Workers, c.logger, c.metrics)
}

// lockedWriter serialises writes from concurrent workers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

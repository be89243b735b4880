package cmd

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Njuelle/brief-to-plan/internal/config"
	perrors "github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/log"
	"github.com/Njuelle/brief-to-plan/internal/metrics"
	"github.com/Njuelle/brief-to-plan/internal/telemetry"
	"github.com/Njuelle/brief-to-plan/internal/version"
)

// session carries the observability handles of one command invocation.
type session struct {
	command  string
	start    time.Time
	cfg      *config.Config
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	shutdown func(context.Context) error
}

// setupObservability configures logging, metrics, and optional telemetry.
// Logs go to the command's stderr so stdout stays clean for results.
// Call finish when the command returns.
func setupObservability(ctx context.Context, cmd *cobra.Command, cfg *config.Config) *session {
	logger := cfg.Logger(cmd.ErrOrStderr()).With("command", cmd.Name())
	log.SetDefaultLogger(logger)

	registry, m := metrics.NewRegistry()

	return &session{
		command:  cmd.Name(),
		start:    time.Now(),
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  m,
		shutdown: setupTelemetry(ctx, cfg.Telemetry, logger),
	}
}

func setupTelemetry(ctx context.Context, cfg telemetry.Config, logger *log.Logger) func(context.Context) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.ServiceVersion == "" || cfg.ServiceVersion == "dev" {
		cfg.ServiceVersion = version.Version
	}

	shutdown, err := telemetry.InitProvider(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize telemetry", "error", err)
		return nil
	}

	logger.Info("Telemetry enabled",
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
	)
	return shutdown
}

// finish records the command outcome, writes the metrics textfile when
// configured and flushes telemetry.
func (s *session) finish(err error) {
	s.metrics.RecordCommand(s.command, time.Since(s.start), err == nil)
	if pe, ok := perrors.As(err); ok {
		s.metrics.RecordError(string(pe.Code), s.command)
	}

	if path := s.cfg.Metrics.File; path != "" {
		if werr := metrics.WriteTextfile(path, s.registry); werr != nil {
			s.logger.Warn("Failed to write metrics file", "path", path, "error", werr)
		} else {
			s.logger.Debug("Metrics written", "path", path)
		}
	}

	if s.shutdown == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if serr := s.shutdown(shutdownCtx); serr != nil {
		s.logger.Warn("Failed to flush telemetry", "error", serr)
	}
}

package pipeline

import (
	"context"
	"time"

	"github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/log"
	"github.com/Njuelle/brief-to-plan/internal/metrics"
)

// RunInfo describes a run about to start.
type RunInfo struct {
	CorrelationID string
	Brief         string
	Levels        [][]string
}

// RunResult describes a finished run. State is nil when Err is set.
type RunResult struct {
	CorrelationID string
	Duration      time.Duration
	State         *State
	Err           error
}

// StageInfo describes a stage about to run.
type StageInfo struct {
	Name   string
	Level  int
	Reads  []Field
	Writes []Field
}

// StageResult describes a finished stage.
type StageResult struct {
	StageInfo
	Duration time.Duration
	Fields   []Field
	Err      error
}

// Observer receives run and stage events. Stage events of one level arrive
// from concurrent goroutines, so implementations must be safe for concurrent use.
type Observer interface {
	RunStarted(ctx context.Context, info RunInfo)
	StageStarted(ctx context.Context, info StageInfo)
	StageFinished(ctx context.Context, result StageResult)
	RunFinished(ctx context.Context, result RunResult)
}

// Observers fans events out in order.
type Observers []Observer

func (obs Observers) RunStarted(ctx context.Context, info RunInfo) {
	for _, o := range obs {
		o.RunStarted(ctx, info)
	}
}

func (obs Observers) StageStarted(ctx context.Context, info StageInfo) {
	for _, o := range obs {
		o.StageStarted(ctx, info)
	}
}

func (obs Observers) StageFinished(ctx context.Context, result StageResult) {
	for _, o := range obs {
		o.StageFinished(ctx, result)
	}
}

func (obs Observers) RunFinished(ctx context.Context, result RunResult) {
	for _, o := range obs {
		o.RunFinished(ctx, result)
	}
}

// LogObserver writes run and stage events to a structured logger.
type LogObserver struct {
	logger *log.Logger
}

// NewLogObserver logs through logger.
func NewLogObserver(logger *log.Logger) *LogObserver {
	return &LogObserver{logger: logger.With("component", "pipeline")}
}

func (l *LogObserver) RunStarted(ctx context.Context, info RunInfo) {
	l.logger.WithContext(ctx).Info("run started", "levels", len(info.Levels), "brief_chars", len(info.Brief))
}

func (l *LogObserver) StageStarted(ctx context.Context, info StageInfo) {
	l.logger.WithContext(ctx).Debug("stage started", "level", info.Level)
}

func (l *LogObserver) StageFinished(ctx context.Context, result StageResult) {
	logger := l.logger.WithContext(ctx)
	if result.Err != nil {
		logger.LogError("stage failed", result.Err)
		return
	}
	fields := make([]string, len(result.Fields))
	for i, f := range result.Fields {
		fields[i] = string(f)
	}
	logger.Info("stage completed", "duration", result.Duration, "fields", fields)
}

func (l *LogObserver) RunFinished(ctx context.Context, result RunResult) {
	logger := l.logger.WithContext(ctx)
	if result.Err != nil {
		logger.LogError("run failed", result.Err)
		return
	}
	logger.Info("run completed", "duration", result.Duration, "notes", len(result.State.Notes))
}

// MetricsObserver records stage and run metrics.
type MetricsObserver struct {
	metrics *metrics.Metrics
}

// NewMetricsObserver records into m.
func NewMetricsObserver(m *metrics.Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (m *MetricsObserver) RunStarted(context.Context, RunInfo)     {}
func (m *MetricsObserver) StageStarted(context.Context, StageInfo) {}

func (m *MetricsObserver) StageFinished(_ context.Context, result StageResult) {
	m.metrics.RecordStage(result.Name, result.Duration, result.Err == nil)
	if pe, ok := errors.As(result.Err); ok {
		m.metrics.RecordError(string(pe.Code), "stage")
	}
}

func (m *MetricsObserver) RunFinished(_ context.Context, result RunResult) {
	m.metrics.RecordRun(result.Duration, result.Err == nil)
}

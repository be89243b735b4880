package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for brief-to-plan
type Metrics struct {
	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Pipeline run metrics
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Stage metrics
	StageExecutions *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec

	// Generation metrics
	GenerationCalls   *prometheus.CounterVec
	GenerationLatency *prometheus.HistogramVec
	GenerationTokens  *prometheus.CounterVec

	// Repair metrics
	RepairOutcomes *prometheus.CounterVec

	// Plan metrics
	PlanTaskCount *prometheus.HistogramVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		// Command metrics
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief2plan_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brief2plan_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		// Run metrics
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief2plan_runs_total",
				Help: "Total number of pipeline runs",
			},
			[]string{"success"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "brief2plan_run_duration_seconds",
				Help:    "Pipeline run duration in seconds",
				Buckets: []float64{5.0, 15.0, 30.0, 60.0, 120.0, 300.0, 600.0},
			},
		),

		// Stage metrics
		StageExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief2plan_stage_executions_total",
				Help: "Total number of stage executions",
			},
			[]string{"stage", "success"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brief2plan_stage_duration_seconds",
				Help:    "Stage duration in seconds",
				Buckets: []float64{0.1, 1.0, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
			[]string{"stage"},
		),

		// Generation metrics
		GenerationCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief2plan_generation_calls_total",
				Help: "Total number of model backend calls",
			},
			[]string{"provider", "mode", "success"},
		),
		GenerationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brief2plan_generation_latency_seconds",
				Help:    "Model backend call latency in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"provider"},
		),
		GenerationTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief2plan_generation_tokens_total",
				Help: "Total tokens consumed by model backend calls",
			},
			[]string{"provider", "token_type"},
		),

		// Repair metrics
		RepairOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief2plan_repair_outcomes_total",
				Help: "Planning outputs by repair outcome (structured or flat_list)",
			},
			[]string{"stage", "outcome"},
		),

		// Plan metrics
		PlanTaskCount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brief2plan_plan_task_count",
				Help:    "Number of tasks in generated plans",
				Buckets: []float64{1, 5, 10, 20, 40, 60},
			},
			[]string{"stage"},
		),

		// Error metrics (by structured error code)
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief2plan_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// The Record helpers accept a nil receiver so callers can run without metrics.

// RecordCommand records one CLI command execution.
func (m *Metrics) RecordCommand(command string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(success)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordRun records one pipeline run.
func (m *Metrics) RecordRun(d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(strconv.FormatBool(success)).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// RecordStage records one stage execution.
func (m *Metrics) RecordStage(stage string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.StageExecutions.WithLabelValues(stage, strconv.FormatBool(success)).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordGeneration records one backend call and its token usage.
func (m *Metrics) RecordGeneration(provider, mode string, d time.Duration, inputTokens, outputTokens int, success bool) {
	if m == nil {
		return
	}
	m.GenerationCalls.WithLabelValues(provider, mode, strconv.FormatBool(success)).Inc()
	m.GenerationLatency.WithLabelValues(provider).Observe(d.Seconds())
	if inputTokens > 0 {
		m.GenerationTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.GenerationTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

// RecordRepair records how a planning stage's output was recovered.
func (m *Metrics) RecordRepair(stage string, structured bool, tasks int) {
	if m == nil {
		return
	}
	outcome := "flat_list"
	if structured {
		outcome = "structured"
	}
	m.RepairOutcomes.WithLabelValues(stage, outcome).Inc()
	m.PlanTaskCount.WithLabelValues(stage).Observe(float64(tasks))
}

// RecordError counts a coded error.
func (m *Metrics) RecordError(code, component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(code, component).Inc()
}

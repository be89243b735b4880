package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if m == nil {
		t.Fatal("expected metrics, got nil")
	}

	tests := []struct {
		name   string
		metric interface{}
	}{
		{"CommandExecutions", m.CommandExecutions},
		{"CommandDuration", m.CommandDuration},
		{"Runs", m.Runs},
		{"RunDuration", m.RunDuration},
		{"StageExecutions", m.StageExecutions},
		{"StageDuration", m.StageDuration},
		{"GenerationCalls", m.GenerationCalls},
		{"GenerationLatency", m.GenerationLatency},
		{"GenerationTokens", m.GenerationTokens},
		{"RepairOutcomes", m.RepairOutcomes},
		{"PlanTaskCount", m.PlanTaskCount},
		{"Errors", m.Errors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s is nil", tt.name)
			}
		})
	}
}

func TestStageAndRunMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordStage("extendBrief", 2*time.Second, true)
	m.RecordStage("planBackendTasks", time.Second, false)
	m.RecordRun(10*time.Second, true)

	if got := testutil.ToFloat64(m.StageExecutions.WithLabelValues("extendBrief", "true")); got != 1 {
		t.Errorf("StageExecutions extendBrief/true = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StageExecutions.WithLabelValues("planBackendTasks", "false")); got != 1 {
		t.Errorf("StageExecutions planBackendTasks/false = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues("true")); got != 1 {
		t.Errorf("Runs = %v, want 1", got)
	}
}

func TestGenerationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordGeneration("openai", "text", 2500*time.Millisecond, 1000, 500, true)
	m.RecordGeneration("openai", "object", time.Second, 0, 0, false)

	if got := testutil.ToFloat64(m.GenerationCalls.WithLabelValues("openai", "text", "true")); got != 1 {
		t.Errorf("GenerationCalls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.GenerationTokens.WithLabelValues("openai", "input")); got != 1000 {
		t.Errorf("GenerationTokens input = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(m.GenerationTokens.WithLabelValues("openai", "output")); got != 500 {
		t.Errorf("GenerationTokens output = %v, want 500", got)
	}
	if got := testutil.CollectAndCount(m.GenerationLatency); got != 1 {
		t.Errorf("GenerationLatency series = %v, want 1", got)
	}
}

func TestRepairMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRepair("planBackendTasks", true, 7)
	m.RecordRepair("planFrontendTasks", false, 12)

	if got := testutil.ToFloat64(m.RepairOutcomes.WithLabelValues("planBackendTasks", "structured")); got != 1 {
		t.Errorf("structured outcomes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RepairOutcomes.WithLabelValues("planFrontendTasks", "flat_list")); got != 1 {
		t.Errorf("flat_list outcomes = %v, want 1", got)
	}
}

func TestErrorMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordError("GEN-001", "generation")
	m.RecordError("GEN-001", "generation")
	m.RecordError("VALID-001", "schema")

	if got := testutil.ToFloat64(m.Errors.WithLabelValues("GEN-001", "generation")); got != 2 {
		t.Errorf("Errors GEN-001 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues("VALID-001", "schema")); got != 1 {
		t.Errorf("Errors VALID-001 = %v, want 1", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.RecordCommand("run", time.Second, true)
	m.RecordRun(time.Second, true)
	m.RecordStage("s", time.Second, true)
	m.RecordGeneration("p", "text", time.Second, 1, 1, true)
	m.RecordRepair("s", true, 1)
	m.RecordError("X", "y")
}

func TestMetricsExport(t *testing.T) {
	reg, m := NewRegistry()

	m.RecordCommand("run", time.Second, true)
	m.RecordGeneration("scripted", "text", time.Millisecond, 0, 10, true)

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %v, want %v", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	for _, want := range []string{
		"brief2plan_command_executions_total",
		"brief2plan_generation_calls_total",
		`command="run"`,
		`provider="scripted"`,
		"go_goroutines",
		"_bucket{",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output does not contain %q", want)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	reg, m := NewRegistry()
	m.RecordRun(3*time.Second, true)

	path := filepath.Join(t.TempDir(), "brief2plan.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `brief2plan_runs_total{success="true"} 1`) {
		t.Errorf("textfile missing run counter:\n%s", data)
	}

	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), reg); err == nil {
		t.Error("expected error for missing directory")
	}
}

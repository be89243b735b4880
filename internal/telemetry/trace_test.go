package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a tracer recording into memory.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	res, err := createResource(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("createResource failed: %v", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	restore := SetTracerProvider(tp)
	t.Cleanup(func() {
		restore()
		_ = tp.Shutdown(context.Background())
	})

	return exporter
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestStartCommandSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx := context.Background()
	spanCtx, span := StartCommandSpan(ctx, "run")
	if spanCtx == ctx {
		t.Error("expected new context with span, got same context")
	}
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "command.run" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "command.run")
	}

	attrs := attrMap(spans[0].Attributes)
	if attrs["command"].AsString() != "run" {
		t.Error("missing 'command' attribute")
	}
	if attrs["component"].AsString() != "cli" {
		t.Error("missing 'component' attribute")
	}
}

func TestStageSpanIsChildOfRunSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, run := StartRunSpan(context.Background(), "thread-1")
	_, stage := StartStageSpan(ctx, "architecture", 2)
	stage.End()
	run.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	stageSpan, runSpan := spans[0], spans[1]
	if stageSpan.Name != "stage.architecture" {
		t.Errorf("stage span name = %q", stageSpan.Name)
	}
	if stageSpan.Parent.SpanID() != runSpan.SpanContext.SpanID() {
		t.Error("stage span should be a child of the run span")
	}

	attrs := attrMap(stageSpan.Attributes)
	if attrs["level"].AsInt64() != 2 {
		t.Errorf("level = %v, want 2", attrs["level"].AsInt64())
	}
	if attrMap(runSpan.Attributes)["correlation_id"].AsString() != "thread-1" {
		t.Error("missing correlation_id on run span")
	}
}

func TestStartProviderSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartProviderSpan(context.Background(), "openai", "generate_text")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "provider.generate_text" {
		t.Errorf("span name = %q", spans[0].Name)
	}

	attrs := attrMap(spans[0].Attributes)
	if attrs["provider"].AsString() != "openai" {
		t.Error("missing 'provider' attribute")
	}
	if attrs["operation"].AsString() != "generate_text" {
		t.Error("missing 'operation' attribute")
	}
}

func TestRecordSuccess(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartProviderSpan(context.Background(), "scripted", "generate_text")
	RecordSuccess(span, attribute.Int("tokens_used", 42))
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status.Code)
	}
	if attrMap(got.Attributes)["tokens_used"].AsInt64() != 42 {
		t.Error("missing tokens_used attribute")
	}
}

func TestRecordError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartStageSpan(context.Background(), "userStories", 1)
	RecordError(span, errors.New("boom"))
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status.Code)
	}
	if got.Status.Description != "boom" {
		t.Errorf("description = %q", got.Status.Description)
	}
	if len(got.Events) == 0 {
		t.Error("expected an exception event")
	}
	if !attrMap(got.Attributes)["error"].AsBool() {
		t.Error("missing error attribute")
	}
}

func TestRecordErrorWithNil(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartStageSpan(context.Background(), "extendBrief", 0)
	RecordError(span, nil)
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code != codes.Unset {
		t.Errorf("status = %v, want Unset", got.Status.Code)
	}
}

func TestRecordDuration(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartCommandSpan(context.Background(), "run")
	RecordDuration(span, "render", 1500*time.Millisecond)
	span.End()

	if got := attrMap(exporter.GetSpans()[0].Attributes)["render_ms"].AsInt64(); got != 1500 {
		t.Errorf("render_ms = %d, want 1500", got)
	}
}

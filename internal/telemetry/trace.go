package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func start(ctx context.Context, tracer, name, component string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := TracerProvider().Tracer(tracer).Start(ctx, name)
	span.SetAttributes(append(attrs, attribute.String("component", component))...)
	return ctx, span
}

// StartCommandSpan opens the span covering one CLI command.
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "run")
//	defer span.End()
func StartCommandSpan(ctx context.Context, command string) (context.Context, trace.Span) {
	return start(ctx, "commands", "command."+command, "cli",
		attribute.String("command", command))
}

// StartRunSpan opens the root span of a pipeline run.
func StartRunSpan(ctx context.Context, correlationID string) (context.Context, trace.Span) {
	return start(ctx, "pipeline", "pipeline.run", "pipeline",
		attribute.String("correlation_id", correlationID))
}

// StartStageSpan opens the span of one stage. level is the stage's position
// in the dependency graph, 0 for stages without prerequisites.
func StartStageSpan(ctx context.Context, stage string, level int) (context.Context, trace.Span) {
	return start(ctx, "pipeline", "stage."+stage, "pipeline",
		attribute.String("stage", stage),
		attribute.Int("level", level))
}

// StartProviderSpan opens the span of one model call.
func StartProviderSpan(ctx context.Context, providerName, operation string) (context.Context, trace.Span) {
	return start(ctx, "providers", "provider."+operation, "provider",
		attribute.String("provider", providerName),
		attribute.String("operation", operation))
}

func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError marks span as failed. A nil err leaves it untouched.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("error", true))
}

func RecordDuration(span trace.Span, name string, d time.Duration) {
	span.SetAttributes(attribute.Int64(name+"_ms", d.Milliseconds()))
}

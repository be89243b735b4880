package log

import "context"

// CorrelationKey is the attribute name under which run correlation ids are logged.
const CorrelationKey = "correlation_id"

type correlationKey struct{}

// WithCorrelationID returns a copy of ctx carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFrom returns the correlation id stored in ctx or "".
func CorrelationIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// StageKey is the attribute name under which the running stage is logged.
const StageKey = "stage"

type stageKey struct{}

// WithStage returns a copy of ctx naming the running stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey{}, stage)
}

// StageFrom returns the stage name stored in ctx or "".
func StageFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(stageKey{}).(string)
	return s
}

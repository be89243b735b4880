package log

import (
	"context"
	"io"
	"log/slog"

	"github.com/Njuelle/brief-to-plan/internal/errors"
)

// Logger wraps slog with the error and correlation conventions of the
// planner: coded errors are expanded into attributes, and a context can
// carry the run's correlation id and the running stage.
type Logger struct {
	slog   *slog.Logger
	config Config
}

func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	w := config.Output.Writer()
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if config.Format == FormatText {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if config.ServiceName != "" {
		logger = logger.With("service", config.ServiceName, "version", config.ServiceVersion)
	}
	return &Logger{slog: logger, config: config}
}

func Default() *Logger {
	return New(DefaultConfig())
}

// Nop discards everything.
func Nop() *Logger {
	cfg := DefaultConfig()
	cfg.Output = NewOutput(io.Discard)
	cfg.Level = LevelError
	cfg.ServiceName = ""
	return New(cfg)
}

// With returns a child logger adding args to every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		slog:   l.slog.WithGroup(name),
		config: l.config,
	}
}

// WithError adds error details to the logger.
// Coded errors contribute their code, kind and suggestions.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With(errorAttrs(err)...)
}

// WithContext returns a Logger carrying the correlation id and stage stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var args []any
	if id := CorrelationIDFrom(ctx); id != "" {
		args = append(args, CorrelationKey, id)
	}
	if stage := StageFrom(ctx); stage != "" {
		args = append(args, StageKey, stage)
	}
	if len(args) == 0 {
		return l
	}
	return l.With(args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// LogError logs err with its code, suggestions and cause.
func (l *Logger) LogError(msg string, err error) {
	l.LogErrorContext(context.Background(), msg, err)
}

// LogErrorContext is LogError with a context.
func (l *Logger) LogErrorContext(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}
	l.slog.ErrorContext(ctx, msg, errorAttrs(err)...)
}

func errorAttrs(err error) []any {
	pe, ok := errors.As(err)
	if !ok {
		return []any{"error", err.Error()}
	}

	args := []any{
		"error", pe.Message,
		"error_code", string(pe.Code),
		"error_kind", string(pe.Kind()),
	}
	if len(pe.Suggestions) > 0 {
		args = append(args, "suggestions", pe.Suggestions)
	}
	if pe.DocsURL != "" {
		args = append(args, "docs_url", pe.DocsURL)
	}
	if pe.Cause != nil {
		args = append(args, "cause", pe.Cause.Error())
	}
	return args
}

func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level.ToSlogLevel())
}

func (l *Logger) Handler() slog.Handler {
	return l.slog.Handler()
}

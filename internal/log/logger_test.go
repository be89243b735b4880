package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Njuelle/brief-to-plan/internal/errors"
)

func newBufferLogger(buf *bytes.Buffer, level Level) *Logger {
	return New(Config{
		Level:  level,
		Format: FormatJSON,
		Output: NewOutput(buf),
	})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelWarn)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["msg"])
	assert.Equal(t, "error", entries[1]["msg"])
}

func TestLoggerServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = NewOutput(&buf)
	New(cfg).Info("hello")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "brief-to-plan", entries[0]["service"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: LevelInfo, Format: FormatText, Output: NewOutput(&buf)}).Info("stage finished", "stage", "architecture")

	assert.Contains(t, buf.String(), "stage=architecture")
	assert.Contains(t, buf.String(), `msg="stage finished"`)
}

func TestWithErrorCodedError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	err := fmt.Errorf("stage planBackendTasks: %w", errors.NewGenerationError("openai", fmt.Errorf("timeout")))
	logger.WithError(err).Info("run aborted")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "GEN-001", entries[0]["error_code"])
	assert.Equal(t, "generation", entries[0]["error_kind"])
	assert.Equal(t, "timeout", entries[0]["cause"])
}

func TestWithErrorPlainAndNil(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	assert.Same(t, logger, logger.WithError(nil))

	logger.WithError(fmt.Errorf("boom")).Info("failed")
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["error"])
}

func TestLogErrorContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	logger.LogErrorContext(context.Background(), "validation failed", errors.NewSchemaViolationError("plan", fmt.Errorf("epics: must have at least 1 item")))
	logger.LogError("ignored", nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "VALID-001", entries[0]["error_code"])
	assert.Equal(t, "ERROR", entries[0]["level"])
}

func TestWithContextCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	ctx := WithCorrelationID(context.Background(), "thread-42")
	logger.WithContext(ctx).Info("with id")
	logger.WithContext(context.Background()).Info("without id")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "thread-42", entries[0][CorrelationKey])
	assert.NotContains(t, entries[1], CorrelationKey)
}

func TestWithContextStage(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	ctx := WithStage(WithCorrelationID(context.Background(), "t-1"), "architecture")
	logger.WithContext(ctx).Info("stage scoped")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "architecture", entries[0][StageKey])
	assert.Equal(t, "t-1", entries[0][CorrelationKey])
	assert.Equal(t, "architecture", StageFrom(ctx))
	assert.Empty(t, StageFrom(context.Background()))
}

func TestWithGroup(t *testing.T) {
	var buf bytes.Buffer
	newBufferLogger(&buf, LevelInfo).WithGroup("provider").Info("call", "name", "gemini")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	group, ok := entries[0]["provider"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gemini", group["name"])
}

func TestNopDiscards(t *testing.T) {
	logger := Nop()
	logger.Error("nothing happens")
	assert.False(t, logger.Enabled(context.Background(), LevelWarn))
}

func TestDefaultLogger(t *testing.T) {
	custom := Nop()
	SetDefaultLogger(custom)
	t.Cleanup(func() { SetDefaultLogger(nil) })

	assert.Same(t, custom, DefaultLogger())

	SetDefaultLogger(nil)
	assert.NotNil(t, DefaultLogger())
}

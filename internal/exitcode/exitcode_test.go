package exitcode

import (
	"context"
	"errors"
	"fmt"
	"testing"

	perrors "github.com/Njuelle/brief-to-plan/internal/errors"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "missing brief",
			err:      perrors.NewBriefMissingError(),
			expected: UsageError,
		},
		{
			name:     "provider misconfigured",
			err:      perrors.NewProviderConfigError("openai", "api key is required"),
			expected: UsageError,
		},
		{
			name:     "schema violation inside a stage",
			err:      fmt.Errorf("stage userStories: %w", perrors.NewSchemaViolationError("user stories", errors.New("epics: too many"))),
			expected: ValidationError,
		},
		{
			name:     "provider failure",
			err:      fmt.Errorf("stage extendBrief: %w", perrors.NewGenerationError("openai", errors.New("connection refused"))),
			expected: GenerationError,
		},
		{
			name:     "empty response",
			err:      perrors.NewEmptyResponseError("gemini"),
			expected: GenerationError,
		},
		{
			name:     "write failure",
			err:      perrors.NewFileWriteError("out/plan.md", errors.New("permission denied")),
			expected: OutputError,
		},
		{
			name:     "undeclared write",
			err:      perrors.NewUndeclaredWriteError("architecture", "backendPlan"),
			expected: GeneralError,
		},
		{
			name:     "canceled",
			err:      fmt.Errorf("run: %w", context.Canceled),
			expected: Interrupted,
		},
		{
			name:     "cobra unknown flag",
			err:      errors.New("unknown flag: --bogus"),
			expected: UsageError,
		},
		{
			name:     "cobra arg count",
			err:      errors.New("accepts 2 arg(s), received 1"),
			expected: UsageError,
		},
		{
			name:     "plain error",
			err:      errors.New("something broke"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	for _, code := range []int{Success, GeneralError, UsageError, ValidationError, GenerationError, OutputError, Interrupted} {
		if desc := GetExitCodeDescription(code); desc == "Unknown error" {
			t.Errorf("code %d has no description", code)
		}
	}
	if GetExitCodeDescription(99) != "Unknown error" {
		t.Error("unexpected description for unknown code")
	}
}

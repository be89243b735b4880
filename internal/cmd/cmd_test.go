package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Njuelle/brief-to-plan/internal/artifact"
	"github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/exitcode"
	"github.com/Njuelle/brief-to-plan/internal/trace"
)

const brief = "Build a personal expense tracker"

// execute runs a fresh command tree in an isolated working directory with
// no configuration file, no .env and no provider credentials.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	for _, name := range []string{
		"THREAD_ID", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"BRIEF2PLAN_PROVIDER_NAME", "BRIEF2PLAN_OUTPUT_DIR", "BRIEF2PLAN_LOG_LEVEL", "BRIEF2PLAN_JOURNAL_ENABLED",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	var out, errOut bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--env-file="))

	err = root.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

func glob(t *testing.T, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(pattern)
	require.NoError(t, err)
	return matches
}

func TestRunScripted(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "metrics.prom")

	stdout, stderr, err := execute(t, "run",
		"--provider", "scripted",
		"--out", dir,
		"--thread-id", "thread-42",
		"--state-format", "yaml",
		"--journal",
		"--metrics-file", metricsFile,
		brief,
	)
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "TECHNICAL IMPLEMENTATION PLAN")
	assert.Contains(t, stdout, brief)
	assert.Contains(t, stdout, "Full plan saved to: "+dir)
	assert.Contains(t, stdout, "Run journal: ")
	assert.Contains(t, stderr, "Planning in 5 stages (4 levels)")
	assert.Contains(t, stderr, "✓ Run completed")

	markdown := glob(t, filepath.Join(dir, "plan-*.md"))
	require.Len(t, markdown, 1)
	body, err := os.ReadFile(markdown[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "# 📋 Technical Implementation Plan")
	assert.Contains(t, string(body), "thread-42")

	states := glob(t, filepath.Join(dir, "plan-*.yaml"))
	require.Len(t, states, 1)
	doc, err := artifact.Load(states[0])
	require.NoError(t, err)
	assert.Equal(t, "thread-42", doc.CorrelationID)
	assert.Equal(t, brief, doc.Brief)
	require.NotNil(t, doc.BackendPlan)
	assert.Equal(t, doc.BackendPlan.TaskNames(), doc.BackendTasks)
	assert.Len(t, doc.Notes, 5)

	events, err := trace.ReadJournal(filepath.Join(dir, "runs", "run_thread-42.jsonl"))
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, trace.EventTypeRunStart, events[0].Type)
	assert.Equal(t, trace.EventTypeRunComplete, events[len(events)-1].Type)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "brief2plan_runs_total")
	assert.Contains(t, string(prom), `brief2plan_command_executions_total{command="run"`)

	// The saved state passes its own validation.
	stdout, _, err = execute(t, "validate", "state", states[0])
	require.NoError(t, err)
	assert.Contains(t, stdout, "is a valid state document")
}

func TestRunQuiet(t *testing.T) {
	dir := t.TempDir()

	stdout, stderr, err := execute(t, "run",
		"--provider", "scripted",
		"--out", dir,
		"--state-format", "none",
		"--no-summary",
		"--no-progress",
		"-b", brief,
	)
	require.NoError(t, err, stderr)

	assert.NotContains(t, stdout, "TECHNICAL IMPLEMENTATION PLAN")
	assert.Contains(t, stdout, "Full plan saved to:")
	assert.NotContains(t, stdout, "State saved to:")
	assert.NotContains(t, stderr, "Planning in")
	assert.Len(t, glob(t, filepath.Join(dir, "plan-*.md")), 1)
	assert.Empty(t, glob(t, filepath.Join(dir, "plan-*.json")))
}

func TestRunFailures(t *testing.T) {
	badStories := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(badStories, "userStories.txt"), []byte(`{"epics":[]}`), 0o644))

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing brief",
			args:     []string{"run", "--provider", "scripted"},
			wantCode: exitcode.UsageError,
			wantMsg:  "CONFIG-001",
		},
		{
			name:     "missing api key",
			args:     []string{"run", "--provider", "openai", "-b", brief},
			wantCode: exitcode.UsageError,
			wantMsg:  "OPENAI_API_KEY",
		},
		{
			name:     "unknown provider",
			args:     []string{"run", "--provider", "llama", "-b", brief},
			wantCode: exitcode.UsageError,
			wantMsg:  "unknown provider",
		},
		{
			name:     "bad state format",
			args:     []string{"run", "--provider", "scripted", "--state-format", "xml", "-b", brief},
			wantCode: exitcode.UsageError,
			wantMsg:  "state_format",
		},
		{
			name:     "invalid user stories",
			args:     []string{"run", "--provider", "scripted", "--responses-dir", badStories, "--no-progress", "-b", brief},
			wantCode: exitcode.ValidationError,
			wantMsg:  "VALID-001",
		},
		{
			name:     "unknown command",
			args:     []string{"plan"},
			wantCode: exitcode.UsageError,
			wantMsg:  "unknown command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append(tt.args, "--out", t.TempDir())...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, exitcode.DetermineExitCode(err), err.Error())
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

const validStories = `{
  "epics": [
    {
      "name": "Capture",
      "description": "Recording expenses",
      "userStories": [
        {
          "name": "Add expense",
          "description": "As a user, I want to add an expense, so that it is tracked.",
          "acceptanceCriteria": ["Amount is positive"],
          "priority": "high"
        }
      ]
    }
  ]
}`

const validPlanYAML = `epics:
  - name: API
    stories:
      - name: Setup
        tasks:
          - name: Create schema
            goal: Tables for expenses
            deliverable: Migrations
            estimate: S
          - name: Add endpoint
            goal: POST /expenses
            deliverable: Handler with tests
            deps: [Create schema]
            estimate: M
criticalPath: [Create schema]
risks: []
`

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	stories := filepath.Join(dir, "stories.json")
	plan := filepath.Join(dir, "plan.yaml")
	badPlan := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(stories, []byte(validStories), 0o644))
	require.NoError(t, os.WriteFile(plan, []byte(validPlanYAML), 0o644))
	require.NoError(t, os.WriteFile(badPlan, []byte(`{"epics": []}`), 0o644))

	t.Run("stories as json output", func(t *testing.T) {
		stdout, _, err := execute(t, "validate", "stories", stories, "--output", "json")
		require.NoError(t, err)

		var result ValidationResult
		require.NoError(t, json.Unmarshal([]byte(stdout), &result))
		assert.Equal(t, ValidationResult{File: stories, Kind: "stories", Valid: true, Epics: 1, Stories: 1}, result)
	})

	t.Run("yaml plan", func(t *testing.T) {
		stdout, _, err := execute(t, "validate", "plan", plan)
		require.NoError(t, err)
		assert.Equal(t, "✓ "+plan+" is a valid plan document (1 epics, 1 stories, 2 tasks)\n", stdout)
	})

	t.Run("schema violation", func(t *testing.T) {
		_, _, err := execute(t, "validate", "plan", badPlan)
		require.Error(t, err)
		assert.True(t, errors.IsValidationFailure(err))
		assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))
		assert.Contains(t, err.Error(), "epics")
	})

	t.Run("stories file is not a plan", func(t *testing.T) {
		_, _, err := execute(t, "validate", "plan", stories)
		require.Error(t, err)
		assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "validate", "stories", filepath.Join(dir, "nope.json"))
		require.Error(t, err)
		assert.Equal(t, exitcode.OutputError, exitcode.DetermineExitCode(err))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, _, err := execute(t, "validate", "epics", stories)
		require.Error(t, err)
		assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
	})
}

func TestValidateStateDetectsEdits(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := execute(t, "run", "--provider", "scripted", "--out", dir, "--no-progress", "--no-summary", "-b", brief)
	require.NoError(t, err, stderr)

	states := glob(t, filepath.Join(dir, "plan-*.json"))
	require.Len(t, states, 1)

	data, err := os.ReadFile(states[0])
	require.NoError(t, err)
	edited := strings.Replace(string(data), brief, "Build a budgeting app", 1)
	require.NoError(t, os.WriteFile(states[0], []byte(edited), 0o644))

	_, _, err = execute(t, "validate", "state", states[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fingerprint mismatch")
	assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))
}

func TestSchema(t *testing.T) {
	stdout, _, err := execute(t, "schema", "plan")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "implementation_plan", doc["title"])
	assert.Contains(t, doc, "properties")

	stdout, _, err = execute(t, "schema", "stories", "--output", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "title: user_story_collection")

	_, _, err = execute(t, "schema")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestProvidersList(t *testing.T) {
	stdout, _, err := execute(t, "providers", "list", "--output", "json")
	require.NoError(t, err)

	var statuses []ProviderStatus
	require.NoError(t, json.Unmarshal([]byte(stdout), &statuses))
	require.Len(t, statuses, 5)

	byName := map[string]ProviderStatus{}
	for _, s := range statuses {
		byName[s.Name] = s
	}

	assert.True(t, byName["openai"].Active, "openai is the default provider")
	assert.False(t, byName["openai"].Configured)
	assert.Contains(t, byName["openai"].Detail, "OPENAI_API_KEY")
	assert.False(t, byName["cli"].Configured)
	assert.True(t, byName["scripted"].Configured)
	assert.Equal(t, "scripted", byName["scripted"].Type)

	stdout, _, err = execute(t, "providers", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "openai *")
}

func TestProvidersCheck(t *testing.T) {
	stdout, _, err := execute(t, "providers", "check", "scripted")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ healthy")

	// Unconfigured providers are skipped without arguments.
	stdout, _, err = execute(t, "providers", "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "scripted")

	_, _, err = execute(t, "providers", "check", "anthropic")
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationFailure(err))

	_, _, err = execute(t, "providers", "check", "llama")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "brief-to-plan dev\n", stdout)

	stdout, _, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "dev", info["version"])

	stdout, _, err = execute(t, "version", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[ brief-to-plan ]")
	assert.Contains(t, stdout, "brief-to-plan dev (unknown)")
}

func TestOverrides(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--no-summary", "--timeout", "90s", "--temperature", "0.7", "-p", "gemini"}))

	got := overrides(cmd, runBindings)
	assert.Equal(t, false, got["output.summary"])
	assert.Equal(t, 90*time.Second, got["timeout"])
	assert.InDelta(t, 0.7, got["generation.temperature"], 1e-9)
	assert.Equal(t, "gemini", got["provider.name"])
	assert.NotContains(t, got, "output.progress", "unchanged flags are not overrides")
}

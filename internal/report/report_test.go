package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Njuelle/brief-to-plan/internal/domain"
	"github.com/Njuelle/brief-to-plan/internal/pipeline"
	"github.com/Njuelle/brief-to-plan/internal/schema"
)

var generatedAt = time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)

func sampleState() pipeline.State {
	backend := &schema.Plan{
		Epics: []schema.Epic{{
			Name: "Expense API",
			Stories: []schema.Story{{
				Name: "Record expenses",
				Tasks: []schema.Task{
					{Name: "Create schema", Goal: "Store expenses", Deliverable: "migration", Estimate: domain.EstimateS, Deps: []string{}},
					{Name: "POST /expenses", Goal: "Accept input | validate", Deliverable: "handler", Estimate: domain.EstimateM, Deps: []string{"Create schema"}},
				},
			}},
		}},
		CriticalPath: []string{"Create schema", "POST /expenses"},
		Risks:        []string{"Currency rounding"},
	}

	return pipeline.State{
		CorrelationID: "thread-42",
		Brief:         "Build a personal expense tracker",
		ExpandedBrief: "- Track expenses\n- Monthly budget",
		UserStories: &schema.UserStoryCollection{
			ProjectGoals: []string{"Know where money goes"},
			Epics: []schema.StoryEpic{{
				Name:        "Capture",
				Description: "Record spending",
				UserStories: []schema.UserStory{{
					Name:               "Add expense",
					Description:        "As a user, I want to add an expense, so that I can track it",
					AcceptanceCriteria: []string{"Amount is required", "Date defaults to today"},
					Priority:           domain.PriorityCritical,
				}},
			}},
		},
		ArchitectureDesign: "PostgreSQL and a REST API.",
		BackendPlan:        backend,
		BackendTasks:       backend.TaskNames(),
		FrontendTasks:      []string{"Scaffold app", "Login screen"},
	}
}

func TestMarkdownSections(t *testing.T) {
	md := Markdown(sampleState(), generatedAt)

	for _, want := range []string{
		"# 📋 Technical Implementation Plan",
		"> **Generated:** 2025-03-04 10:30:00 UTC",
		"> **User Stories:** 1 | **Epics:** 1 | **Tasks:** 4",
		"## 💡 Brief\n\n> Build a personal expense tracker",
		"<summary><strong>📝 Extended Brief (click to expand)</strong></summary>",
		"### 🎯 Project Goals\n- Know where money goes",
		"### 1. Capture\n> Record spending",
		"| As a user, I want to add an expense, so that I can track it | " + domain.PriorityCritical.Marker() + " critical | • Amount is required<br>• Date defaults to today |",
		"## 🏗️ System Architecture\n\nPostgreSQL and a REST API.",
		"## ⚙️ Backend Implementation",
		"#### 1.1 Record expenses",
		"| Create schema | Store expenses | migration | **S** (2-4h) | — |",
		`| POST /expenses | Accept input \| validate | handler | **M** (1d) | Create schema |`,
		"| Create schema | Currency rounding |",
		"| POST /expenses |  |",
		"## 🎨 Frontend Implementation",
		"- [ ] Scaffold app",
		"Thread: `thread-42`",
	} {
		assert.Contains(t, md, want)
	}
}

func TestMarkdownOmitsMissingSections(t *testing.T) {
	md := Markdown(pipeline.State{Brief: "Only a brief"}, generatedAt)

	assert.Contains(t, md, "> **User Stories:** 0 | **Epics:** 0 | **Tasks:** 0")
	for _, absent := range []string{"<details>", "User Stories\n", "System Architecture", "Backend Implementation", "Frontend Implementation", "Estimated effort", "Thread:"} {
		assert.NotContains(t, md, absent)
	}
	assert.Contains(t, md, "Fingerprint: `"+Fingerprint(pipeline.State{Brief: "Only a brief"})+"`")
}

func TestMarkdownMultilineBriefIsQuoted(t *testing.T) {
	md := Markdown(pipeline.State{Brief: "line one\n\nline two"}, generatedAt)
	assert.Contains(t, md, "> line one\n>\n> line two")
}

func TestEffortRange(t *testing.T) {
	assert.Equal(t, "1.25-1.5 days", effortRange(10*time.Hour, 12*time.Hour))
	assert.Equal(t, "1 days", effortRange(8*time.Hour, 8*time.Hour))

	md := Markdown(sampleState(), generatedAt)
	assert.Contains(t, md, "> **Estimated effort:** 1.25-1.5 days")
	assert.Contains(t, md, "_2 tasks, estimated 1.25-1.5 days._")
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleState())
	assert.Equal(t, Summary{
		UserStoryEpics: 1,
		UserStories:    1,
		BackendEpics:   1,
		BackendTasks:   2,
		FrontendTasks:  2,
		EffortLow:      10 * time.Hour,
		EffortHigh:     12 * time.Hour,
	}, s)
	assert.Equal(t, 4, s.TotalTasks())

	assert.Equal(t, Summary{}, Summarize(pipeline.State{}))
}

func TestCompact(t *testing.T) {
	out := Compact(sampleState(), DefaultStyles())

	assert.Contains(t, out, "TECHNICAL IMPLEMENTATION PLAN")
	assert.Contains(t, out, "Build a personal expense tracker")
	assert.Contains(t, out, "Implementation Epics:")
	assert.Contains(t, out, "1 (Backend: 1, Frontend: 0)")
	assert.Contains(t, out, "Total Tasks:")

	lines := strings.Split(out, "\n")
	var found bool
	for _, l := range lines {
		if strings.Contains(l, "Backend Tasks:") {
			found = strings.HasSuffix(strings.TrimSpace(l), "2")
		}
	}
	assert.True(t, found, "backend task count row")
}

func TestFingerprint(t *testing.T) {
	a := sampleState()
	b := sampleState()
	b.CorrelationID = "other"
	b.Notes = []pipeline.Note{{Stage: "x", Message: "y", At: generatedAt}}

	fa := Fingerprint(a)
	require.Len(t, fa, 64)
	assert.Equal(t, fa, Fingerprint(b), "run metadata is excluded")

	b.BackendTasks = append([]string{}, b.BackendTasks[:1]...)
	assert.NotEqual(t, fa, Fingerprint(b))
}

func TestFingerprintTreatsEmptyTaskListsAsAbsent(t *testing.T) {
	a := sampleState()
	a.FrontendTasks = []string{}
	b := sampleState()
	b.FrontendTasks = nil

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

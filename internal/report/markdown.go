// Package report renders a finished pipeline state for people: a Markdown
// document saved next to the state file and a compact terminal summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Njuelle/brief-to-plan/internal/domain"
	"github.com/Njuelle/brief-to-plan/internal/pipeline"
	"github.com/Njuelle/brief-to-plan/internal/schema"
)

const (
	backendTitle  = "Backend Implementation"
	frontendTitle = "Frontend Implementation"
)

// Markdown renders the full implementation plan document.
func Markdown(state pipeline.State, generatedAt time.Time) string {
	s := Summarize(state)
	var b strings.Builder

	b.WriteString("# 📋 Technical Implementation Plan\n\n")
	fmt.Fprintf(&b, "> **Generated:** %s\n", generatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "> **User Stories:** %d | **Epics:** %d | **Tasks:** %d\n",
		s.UserStories, s.BackendEpics+s.FrontendEpics, s.TotalTasks())
	if s.EffortHigh > 0 {
		fmt.Fprintf(&b, "> **Estimated effort:** %s\n", effortRange(s.EffortLow, s.EffortHigh))
	}
	b.WriteString("\n---\n\n")

	if state.Brief != "" {
		b.WriteString("## 💡 Brief\n\n")
		b.WriteString(quote(state.Brief))
		b.WriteString("\n\n")
	}

	if state.ExpandedBrief != "" {
		b.WriteString("<details>\n")
		b.WriteString("<summary><strong>📝 Extended Brief (click to expand)</strong></summary>\n\n")
		b.WriteString(strings.TrimSpace(state.ExpandedBrief))
		b.WriteString("\n\n</details>\n\n")
	}

	if state.UserStories != nil {
		writeUserStories(&b, state.UserStories)
	}

	if state.ArchitectureDesign != "" {
		b.WriteString("## 🏗️ System Architecture\n\n")
		b.WriteString(strings.TrimSpace(state.ArchitectureDesign))
		b.WriteString("\n\n")
	}

	writeSide(&b, backendTitle, "⚙️", state.BackendPlan, state.BackendTasks)
	writeSide(&b, frontendTitle, "🎨", state.FrontendPlan, state.FrontendTasks)

	b.WriteString("---\n\n")
	if state.CorrelationID != "" {
		fmt.Fprintf(&b, "<sub>Thread: `%s` · Fingerprint: `%s`</sub>\n", state.CorrelationID, Fingerprint(state))
	} else {
		fmt.Fprintf(&b, "<sub>Fingerprint: `%s`</sub>\n", Fingerprint(state))
	}

	return b.String()
}

func writeUserStories(b *strings.Builder, c *schema.UserStoryCollection) {
	b.WriteString("## 📖 User Stories\n\n")

	if len(c.ProjectGoals) > 0 {
		b.WriteString("### 🎯 Project Goals\n")
		for _, goal := range c.ProjectGoals {
			fmt.Fprintf(b, "- %s\n", goal)
		}
		b.WriteString("\n")
	}

	for i, epic := range c.Epics {
		fmt.Fprintf(b, "### %d. %s\n", i+1, epic.Name)
		if epic.Description != "" {
			b.WriteString(quote(epic.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")

		b.WriteString("| Story | Priority | Acceptance Criteria |\n")
		b.WriteString("|-------|----------|---------------------|\n")
		for _, story := range epic.UserStories {
			criteria := make([]string, len(story.AcceptanceCriteria))
			for j, c := range story.AcceptanceCriteria {
				criteria[j] = "• " + cell(c)
			}
			fmt.Fprintf(b, "| %s | %s %s | %s |\n",
				cell(story.Description), story.Priority.Marker(), story.Priority, strings.Join(criteria, "<br>"))
		}
		b.WriteString("\n")
	}
}

// writeSide renders a plan, or the flat task list when only that survived repair.
func writeSide(b *strings.Builder, title, icon string, plan *schema.Plan, tasks []string) {
	if plan == nil {
		if len(tasks) == 0 {
			return
		}
		fmt.Fprintf(b, "## %s %s\n\n", icon, title)
		b.WriteString("_The plan could not be structured; raw task list follows._\n\n")
		for _, t := range tasks {
			fmt.Fprintf(b, "- [ ] %s\n", t)
		}
		b.WriteString("\n")
		return
	}

	fmt.Fprintf(b, "## %s %s\n\n", icon, title)
	if low, high := plan.Effort(); high > 0 {
		fmt.Fprintf(b, "_%d tasks, estimated %s._\n\n", plan.TaskCount(), effortRange(low, high))
	}

	for i, epic := range plan.Epics {
		fmt.Fprintf(b, "### %d. %s\n\n", i+1, epic.Name)

		for j, story := range epic.Stories {
			fmt.Fprintf(b, "#### %d.%d %s\n\n", i+1, j+1, story.Name)
			b.WriteString("| Task | Goal | Deliverable | Est | Dependencies |\n")
			b.WriteString("|------|------|-------------|-----|--------------|\n")
			for _, task := range story.Tasks {
				deps := "—"
				if len(task.Deps) > 0 {
					deps = cell(strings.Join(task.Deps, ", "))
				}
				fmt.Fprintf(b, "| %s | %s | %s | **%s** (%s) | %s |\n",
					cell(task.Name), cell(task.Goal), cell(task.Deliverable), task.Estimate, task.Estimate.Label(), deps)
			}
			b.WriteString("\n")
		}
	}

	if len(plan.CriticalPath) == 0 && len(plan.Risks) == 0 {
		return
	}

	b.WriteString("### 🎯 Critical Path & ⚠️ Risks\n\n")
	b.WriteString("| Critical Path | Technical Risks |\n")
	b.WriteString("|---------------|-----------------|\n")
	rows := max(len(plan.CriticalPath), len(plan.Risks))
	for i := 0; i < rows; i++ {
		fmt.Fprintf(b, "| %s | %s |\n", cell(at(plan.CriticalPath, i)), cell(at(plan.Risks, i)))
	}
	b.WriteString("\n")
}

func at(items []string, i int) string {
	if i < len(items) {
		return items[i]
	}
	return ""
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func quote(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("> "+l, " ")
	}
	return strings.Join(lines, "\n")
}

func effortRange(low, high time.Duration) string {
	l, h := domain.Days(low), domain.Days(high)
	if l == h {
		return fmt.Sprintf("%s days", days(l))
	}
	return fmt.Sprintf("%s-%s days", days(l), days(h))
}

func days(d float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", d), "0"), ".")
}

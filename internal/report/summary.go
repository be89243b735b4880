package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Njuelle/brief-to-plan/internal/pipeline"
)

// Summary holds the counts shown after a run.
type Summary struct {
	UserStoryEpics int
	UserStories    int
	BackendEpics   int
	FrontendEpics  int
	BackendTasks   int
	FrontendTasks  int

	// EffortLow and EffortHigh sum the estimates of both structured plans.
	EffortLow  time.Duration
	EffortHigh time.Duration
}

// TotalTasks returns backend plus frontend tasks.
func (s Summary) TotalTasks() int { return s.BackendTasks + s.FrontendTasks }

// Summarize counts the content of a state.
func Summarize(state pipeline.State) Summary {
	s := Summary{
		UserStories:   state.UserStories.StoryCount(),
		BackendTasks:  len(state.BackendTasks),
		FrontendTasks: len(state.FrontendTasks),
	}
	if state.UserStories != nil {
		s.UserStoryEpics = len(state.UserStories.Epics)
	}
	if state.BackendPlan != nil {
		s.BackendEpics = len(state.BackendPlan.Epics)
	}
	if state.FrontendPlan != nil {
		s.FrontendEpics = len(state.FrontendPlan.Epics)
	}

	bl, bh := state.BackendPlan.Effort()
	fl, fh := state.FrontendPlan.Effort()
	s.EffortLow, s.EffortHigh = bl+fl, bh+fh
	return s
}

// Styles contains lipgloss styles for the compact summary
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Check   lipgloss.Style
	Muted   lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Check: lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")), // Green
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2),
	}
}

// Compact renders the console summary of a run.
func Compact(state pipeline.State, styles Styles) string {
	s := Summarize(state)
	var b strings.Builder

	b.WriteString(styles.Border.Render(styles.Title.Render("TECHNICAL IMPLEMENTATION PLAN")))
	b.WriteString("\n\n")

	if state.Brief != "" {
		b.WriteString(styles.Heading.Render("📋 ORIGINAL BRIEF"))
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render(strings.Repeat("─", 65)))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(state.Brief))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.Heading.Render("📊 SUMMARY"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(strings.Repeat("─", 65)))
	b.WriteString("\n")

	check := styles.Check.Render("✓")
	rows := [][2]string{
		{"User Story Epics:", fmt.Sprint(s.UserStoryEpics)},
		{"User Stories:", fmt.Sprint(s.UserStories)},
		{"Implementation Epics:", fmt.Sprintf("%d (Backend: %d, Frontend: %d)",
			s.BackendEpics+s.FrontendEpics, s.BackendEpics, s.FrontendEpics)},
		{"Backend Tasks:", fmt.Sprint(s.BackendTasks)},
		{"Frontend Tasks:", fmt.Sprint(s.FrontendTasks)},
		{"Total Tasks:", fmt.Sprint(s.TotalTasks())},
	}
	if s.EffortHigh > 0 {
		rows = append(rows, [2]string{"Estimated Effort:", effortRange(s.EffortLow, s.EffortHigh)})
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%s %-22s %s\n", check, r[0], r[1])
	}

	return b.String()
}

// Package prompts holds the embedded prompt templates of every stage.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Njuelle/brief-to-plan/internal/domain"
	"github.com/Njuelle/brief-to-plan/internal/schema"
)

//go:embed templates/*.md.tmpl
var files embed.FS

var templates = template.Must(template.New("prompts").ParseFS(files, "templates/*.md.tmpl"))

// Data is the input of every template. Each template uses a subset.
type Data struct {
	Brief         string
	ExpandedBrief string

	// UserStories is the story collection rendered as indented JSON.
	UserStories  string
	Architecture string

	// Stack lists mandatory technology choices, if any.
	Stack string
}

type planData struct {
	Data
	Side           string
	TaskExamples   string
	FocusAreas     []string
	MaxPlanEpics   int
	EstimateLegend string
}

type storyData struct {
	Data
	MinStoryEpics int
	MaxStoryEpics int
}

// ExtendBrief renders the brief expansion prompt.
func ExtendBrief(d Data) (string, error) {
	return render("extend_brief.md.tmpl", d)
}

// UserStories renders the user-story prompt.
func UserStories(d Data) (string, error) {
	return render("user_stories.md.tmpl", storyData{
		Data:          d,
		MinStoryEpics: schema.MinStoryEpics,
		MaxStoryEpics: schema.MaxStoryEpics,
	})
}

// Architecture renders the architecture prompt.
func Architecture(d Data) (string, error) {
	return render("architecture.md.tmpl", d)
}

// BackendPlan renders the backend planning prompt.
func BackendPlan(d Data) (string, error) {
	return render("plan", planData{
		Data:         d,
		Side:         "backend",
		TaskExamples: "API endpoints, database schemas, service implementations",
		FocusAreas: []string{
			"Database schema design and migrations",
			"API endpoints (routes, handlers, middleware)",
			"Business logic and service layer",
			"Data validation and error handling",
			"Security (authentication, authorization, input sanitization)",
			"Integration with external services",
			"Testing (unit and integration tests)",
			"Performance (caching, query optimization, indexing)",
			"Background jobs if needed",
			"API documentation",
		},
		MaxPlanEpics:   schema.MaxPlanEpics,
		EstimateLegend: EstimateLegend(),
	})
}

// FrontendPlan renders the frontend planning prompt.
func FrontendPlan(d Data) (string, error) {
	return render("plan", planData{
		Data:         d,
		Side:         "frontend",
		TaskExamples: "components, state management, routing, API integration",
		FocusAreas: []string{
			"Component architecture",
			"State management",
			"Routing and navigation",
			"API client and data fetching",
			"Form handling and validation",
			"Authentication UI flow",
			"Error handling and loading states",
			"Responsive design",
			"Performance (code splitting, lazy loading)",
			"Accessibility (WCAG, ARIA, keyboard navigation)",
			"Testing (unit, integration, end-to-end)",
			"Build configuration",
		},
		MaxPlanEpics:   schema.MaxPlanEpics,
		EstimateLegend: EstimateLegend(),
	})
}

// EstimateLegend describes every estimate size, e.g. "XS=1-2h, S=2-4h, ...".
func EstimateLegend() string {
	parts := make([]string, 0, len(domain.Estimates))
	for _, e := range domain.Estimates {
		parts = append(parts, fmt.Sprintf("%s=%s", e, e.Label()))
	}
	return strings.Join(parts, ", ")
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

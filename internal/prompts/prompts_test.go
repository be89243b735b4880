package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtendBrief(t *testing.T) {
	out, err := ExtendBrief(Data{Brief: "Build a personal expense tracker"})
	require.NoError(t, err)
	assert.Contains(t, out, `"Build a personal expense tracker"`)
	assert.Contains(t, out, "6-12 clear bullet points")
	assert.False(t, strings.HasPrefix(out, "\n"))
}

func TestUserStories(t *testing.T) {
	out, err := UserStories(Data{ExpandedBrief: "- expense capture"})
	require.NoError(t, err)
	assert.Contains(t, out, "- expense capture")
	assert.Contains(t, out, "Create 1-8 epics")
	assert.Contains(t, out, "critical, high, medium or low")
}

func TestArchitecture(t *testing.T) {
	out, err := Architecture(Data{ExpandedBrief: "brief", UserStories: `{"epics":[]}`})
	require.NoError(t, err)
	assert.Contains(t, out, `{"epics":[]}`)
	assert.NotContains(t, out, "Mandatory technology constraints")

	out, err = Architecture(Data{ExpandedBrief: "brief", Stack: "Go and PostgreSQL"})
	require.NoError(t, err)
	assert.Contains(t, out, "No user stories provided")
	assert.Contains(t, out, "Mandatory technology constraints: Go and PostgreSQL")
}

func TestPlanPrompts(t *testing.T) {
	d := Data{Architecture: "We will use PostgreSQL.", UserStories: `{"epics":[]}`}

	backend, err := BackendPlan(d)
	require.NoError(t, err)
	frontend, err := FrontendPlan(d)
	require.NoError(t, err)

	for _, out := range []string{backend, frontend} {
		assert.Contains(t, out, "We will use PostgreSQL.")
		assert.Contains(t, out, "STRICT JSON")
		assert.Contains(t, out, `"criticalPath": ["string"]`)
		assert.Contains(t, out, "at most 5 epics")
		assert.Contains(t, out, "XS=1-2h, S=2-4h, M=1d, L=2-3d, XL=1 week")
	}

	assert.Contains(t, backend, "senior backend engineer")
	assert.Contains(t, backend, "- Database schema design and migrations")
	assert.Contains(t, frontend, "senior frontend engineer")
	assert.Contains(t, frontend, "- Accessibility")
}

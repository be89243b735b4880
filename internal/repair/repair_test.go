package repair

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/schema"
)

const planJSON = `{"epics":[{"name":"API","stories":[{"name":"Auth","tasks":[
{"name":"login endpoint","goal":"JWT login","deliverable":"auth handler","estimate":"M"},
{"name":"refresh tokens","goal":"Rotate tokens","deliverable":"refresh handler","deps":["login endpoint"],"estimate":"S"}]}]}],
"criticalPath":["login endpoint"],"risks":["token leakage"]}`

func TestExtractCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"prose around object", `prose {"a":1} trailing`, `{"a":1}`},
		{"nested braces", "x {\"a\":{\"b\":2}} y", `{"a":{"b":2}}`},
		{"spans first to last", `{"a":1} and {"b":2}`, `{"a":1} and {"b":2}`},
		{"no braces", "- just a list", "- just a list"},
		{"only opening", "{ broken", "{ broken"},
		{"reversed", "} before {", "} before {"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCandidate(tt.raw))
		})
	}
}

func TestFlatList(t *testing.T) {
	raw := "Here is the plan:\n\n- Set up database\n  * Create API  \n--  Write tests\n**Bold** stays\n-\n   \n- \n"
	assert.Equal(t, []string{
		"Here is the plan:",
		"Set up database",
		"Create API",
		"Write tests",
		"**Bold** stays",
		"-",
	}, FlatList(raw))
}

func TestFlatListCap(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 70; i++ {
		fmt.Fprintf(&b, "- task %d\n", i)
	}

	items := FlatList(b.String())
	require.Len(t, items, MaxItems)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("task %d", i+1), item)
	}
}

func TestFlatListBlank(t *testing.T) {
	items := FlatList("  \n\n\t")
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestRepairStructured(t *testing.T) {
	raw := "Sure! Here is the backend plan:\n```json\n" + planJSON + "\n```\nLet me know."

	res := Repair(raw, schema.Plans)
	require.True(t, res.Structured())
	assert.Nil(t, res.Cause)
	assert.Equal(t, []string{"login endpoint", "refresh tokens"}, res.Value.TaskNames())
	assert.Empty(t, res.Items)
}

func TestRepairFallsBackOnInvalidJSON(t *testing.T) {
	raw := "1. {broken json\n- Set up database\n- Build API }"

	res := Repair(raw, schema.Plans)
	assert.False(t, res.Structured())
	assert.True(t, errors.IsValidationFailure(res.Cause))
	assert.Equal(t, []string{"1. {broken json", "Set up database", "Build API }"}, res.Items)
}

func TestRepairFallsBackOnSchemaViolation(t *testing.T) {
	raw := `{"epics": []}`

	res := Repair(raw, schema.Plans)
	assert.False(t, res.Structured())
	pe, ok := errors.As(res.Cause)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSchemaViolation, pe.Code)
	assert.Equal(t, []string{`{"epics": []}`}, res.Items)
}

func TestRepairNeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.String().Draw(t, "raw")

		res := Repair(raw, schema.Plans)
		if res.Structured() {
			return
		}
		if len(res.Items) > MaxItems {
			t.Fatalf("fallback produced %d items", len(res.Items))
		}
		for _, item := range res.Items {
			if item == "" || item != strings.TrimSpace(item) {
				t.Fatalf("fallback item %q is empty or untrimmed", item)
			}
		}
	})
}

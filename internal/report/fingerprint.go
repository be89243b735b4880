package report

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/Njuelle/brief-to-plan/internal/pipeline"
	"github.com/Njuelle/brief-to-plan/internal/schema"
)

// fingerprintInput is the content of a state, without run metadata.
type fingerprintInput struct {
	Brief              string                      `json:"brief"`
	ExpandedBrief      string                      `json:"expandedBrief"`
	UserStories        *schema.UserStoryCollection `json:"userStories"`
	ArchitectureDesign string                      `json:"architectureDesign"`
	BackendPlan        *schema.Plan                `json:"backendPlan"`
	FrontendPlan       *schema.Plan                `json:"frontendPlan"`
	BackendTasks       []string                    `json:"backendTasks"`
	FrontendTasks      []string                    `json:"frontendTasks"`
}

// Fingerprint computes the blake3 hash of the state's generated content.
// Correlation id and notes are excluded, so two runs that produced the same
// plan share a fingerprint.
func Fingerprint(state pipeline.State) string {
	canonical, err := json.Marshal(fingerprintInput{
		Brief:              state.Brief,
		ExpandedBrief:      state.ExpandedBrief,
		UserStories:        state.UserStories,
		ArchitectureDesign: state.ArchitectureDesign,
		BackendPlan:        state.BackendPlan,
		FrontendPlan:       state.FrontendPlan,
		BackendTasks:       nonEmpty(state.BackendTasks),
		FrontendTasks:      nonEmpty(state.FrontendTasks),
	})
	if err != nil {
		// Only plain strings and slices are marshaled.
		panic(fmt.Sprintf("report: encode fingerprint input: %v", err))
	}

	hasher := blake3.New()
	_, _ = hasher.Write(canonical)
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// nonEmpty maps an empty list to nil; saved states omit empty task lists.
func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

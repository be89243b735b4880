// Package pipeline runs an ordered list of stages over a shared State,
// deriving which stages may run concurrently from their declared reads and writes.
package pipeline

import (
	"slices"
	"time"

	"github.com/Njuelle/brief-to-plan/internal/schema"
)

// Field names one slot of State.
type Field string

const (
	FieldBrief              Field = "brief"
	FieldExpandedBrief      Field = "expandedBrief"
	FieldUserStories        Field = "userStories"
	FieldArchitectureDesign Field = "architectureDesign"
	FieldBackendPlan        Field = "backendPlan"
	FieldFrontendPlan       Field = "frontendPlan"
	FieldBackendTasks       Field = "backendTasks"
	FieldFrontendTasks      Field = "frontendTasks"
)

var knownFields = []Field{
	FieldBrief,
	FieldExpandedBrief,
	FieldUserStories,
	FieldArchitectureDesign,
	FieldBackendPlan,
	FieldFrontendPlan,
	FieldBackendTasks,
	FieldFrontendTasks,
}

// Known reports whether f names a State field.
func (f Field) Known() bool { return slices.Contains(knownFields, f) }

// Note is one entry of the run log.
type Note struct {
	Stage   string    `json:"stage" yaml:"stage"`
	Message string    `json:"message" yaml:"message"`
	At      time.Time `json:"at" yaml:"at"`
}

// State is the aggregate threaded through a run. Plans and the story
// collection are treated as immutable once set.
type State struct {
	CorrelationID      string                      `json:"correlationId" yaml:"correlationId"`
	Brief              string                      `json:"brief" yaml:"brief"`
	ExpandedBrief      string                      `json:"expandedBrief,omitempty" yaml:"expandedBrief,omitempty"`
	UserStories        *schema.UserStoryCollection `json:"userStories,omitempty" yaml:"userStories,omitempty"`
	ArchitectureDesign string                      `json:"architectureDesign,omitempty" yaml:"architectureDesign,omitempty"`
	BackendPlan        *schema.Plan                `json:"backendPlan,omitempty" yaml:"backendPlan,omitempty"`
	FrontendPlan       *schema.Plan                `json:"frontendPlan,omitempty" yaml:"frontendPlan,omitempty"`
	BackendTasks       []string                    `json:"backendTasks,omitempty" yaml:"backendTasks,omitempty"`
	FrontendTasks      []string                    `json:"frontendTasks,omitempty" yaml:"frontendTasks,omitempty"`
	Notes              []Note                      `json:"notes" yaml:"notes"`
}

// Snapshot returns a copy safe to hand to a stage. Slices are cloned;
// the plan and story pointers are shared.
func (s *State) Snapshot() State {
	out := *s
	out.BackendTasks = slices.Clone(s.BackendTasks)
	out.FrontendTasks = slices.Clone(s.FrontendTasks)
	out.Notes = slices.Clone(s.Notes)
	return out
}

// Diff is a stage's partial update. A nil pointer or nil slice means the
// field is absent; a non-nil empty slice overwrites with an empty list.
type Diff struct {
	ExpandedBrief      *string
	UserStories        *schema.UserStoryCollection
	ArchitectureDesign *string
	BackendPlan        *schema.Plan
	FrontendPlan       *schema.Plan
	BackendTasks       []string
	FrontendTasks      []string

	// Note replaces the default "<stage> completed" log entry.
	Note string
}

// Fields lists the fields present in d.
func (d Diff) Fields() []Field {
	var fields []Field
	if d.ExpandedBrief != nil {
		fields = append(fields, FieldExpandedBrief)
	}
	if d.UserStories != nil {
		fields = append(fields, FieldUserStories)
	}
	if d.ArchitectureDesign != nil {
		fields = append(fields, FieldArchitectureDesign)
	}
	if d.BackendPlan != nil {
		fields = append(fields, FieldBackendPlan)
	}
	if d.FrontendPlan != nil {
		fields = append(fields, FieldFrontendPlan)
	}
	if d.BackendTasks != nil {
		fields = append(fields, FieldBackendTasks)
	}
	if d.FrontendTasks != nil {
		fields = append(fields, FieldFrontendTasks)
	}
	return fields
}

// apply merges d into s: present fields overwrite, the note is appended.
func (s *State) apply(stage string, d Diff, at time.Time) {
	if d.ExpandedBrief != nil {
		s.ExpandedBrief = *d.ExpandedBrief
	}
	if d.UserStories != nil {
		s.UserStories = d.UserStories
	}
	if d.ArchitectureDesign != nil {
		s.ArchitectureDesign = *d.ArchitectureDesign
	}
	if d.BackendPlan != nil {
		s.BackendPlan = d.BackendPlan
	}
	if d.FrontendPlan != nil {
		s.FrontendPlan = d.FrontendPlan
	}
	if d.BackendTasks != nil {
		s.BackendTasks = slices.Clone(d.BackendTasks)
	}
	if d.FrontendTasks != nil {
		s.FrontendTasks = slices.Clone(d.FrontendTasks)
	}

	msg := d.Note
	if msg == "" {
		msg = stage + " completed"
	}
	s.Notes = append(s.Notes, Note{Stage: stage, Message: msg, At: at})
}

// String returns a pointer to v, for building diffs.
func String(v string) *string { return &v }

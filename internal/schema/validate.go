package schema

import "fmt"

// Bounds on list lengths.
const (
	MinStoryEpics = 1
	MaxStoryEpics = 8
	MinPlanEpics  = 1
	MaxPlanEpics  = 5
)

// Violation names the first field that failed a constraint.
type Violation struct {
	Field      string
	Constraint string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Constraint)
}

// required only rejects the empty string; whitespace counts as content.
func required(field, value string) *Violation {
	if value == "" {
		return &Violation{Field: field, Constraint: "is required"}
	}
	return nil
}

func between(field string, n, lo, hi int) *Violation {
	if n < lo {
		return &Violation{Field: field, Constraint: fmt.Sprintf("must have at least %d item(s), got %d", lo, n)}
	}
	if hi > 0 && n > hi {
		return &Violation{Field: field, Constraint: fmt.Sprintf("must have at most %d items, got %d", hi, n)}
	}
	return nil
}

func enum(field, value string, validate func() error) *Violation {
	if value == "" {
		return &Violation{Field: field, Constraint: "is required"}
	}
	if err := validate(); err != nil {
		return &Violation{Field: field, Constraint: err.Error()}
	}
	return nil
}

// firstViolation returns the first non-nil violation as an error.
func firstViolation(vs ...*Violation) error {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

// Validate checks the collection and returns the first *Violation found.
func (c *UserStoryCollection) Validate() error {
	if err := firstViolation(between("epics", len(c.Epics), MinStoryEpics, MaxStoryEpics)); err != nil {
		return err
	}

	for i, epic := range c.Epics {
		path := fmt.Sprintf("epics[%d]", i)
		if err := firstViolation(
			required(path+".name", epic.Name),
			required(path+".description", epic.Description),
			between(path+".userStories", len(epic.UserStories), 1, 0),
		); err != nil {
			return err
		}

		for j, story := range epic.UserStories {
			sp := fmt.Sprintf("%s.userStories[%d]", path, j)
			if err := firstViolation(
				required(sp+".name", story.Name),
				required(sp+".description", story.Description),
				between(sp+".acceptanceCriteria", len(story.AcceptanceCriteria), 1, 0),
				enum(sp+".priority", string(story.Priority), story.Priority.Validate),
			); err != nil {
				return err
			}
		}
	}

	return nil
}

// Validate checks the plan and returns the first *Violation found.
// Task deps and the critical path are not cross-checked against task names.
func (p *Plan) Validate() error {
	if err := firstViolation(between("epics", len(p.Epics), MinPlanEpics, MaxPlanEpics)); err != nil {
		return err
	}

	for i, epic := range p.Epics {
		path := fmt.Sprintf("epics[%d]", i)
		if err := firstViolation(
			required(path+".name", epic.Name),
			between(path+".stories", len(epic.Stories), 1, 0),
		); err != nil {
			return err
		}

		for j, story := range epic.Stories {
			sp := fmt.Sprintf("%s.stories[%d]", path, j)
			if err := firstViolation(
				required(sp+".name", story.Name),
				between(sp+".tasks", len(story.Tasks), 1, 0),
			); err != nil {
				return err
			}

			for k, task := range story.Tasks {
				tp := fmt.Sprintf("%s.tasks[%d]", sp, k)
				if err := firstViolation(
					required(tp+".name", task.Name),
					required(tp+".goal", task.Goal),
					required(tp+".deliverable", task.Deliverable),
					enum(tp+".estimate", string(task.Estimate), task.Estimate.Validate),
				); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

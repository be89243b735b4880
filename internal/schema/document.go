package schema

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Njuelle/brief-to-plan/internal/domain"
)

func text(description string) *openapi3.Schema {
	s := openapi3.NewStringSchema().WithMinLength(1)
	s.Description = description
	return s
}

func list(description string, items *openapi3.Schema) *openapi3.Schema {
	s := openapi3.NewArraySchema().WithItems(items)
	s.Description = description
	return s
}

func stringList(description string) *openapi3.Schema {
	return list(description, openapi3.NewStringSchema())
}

func enumOf[E ~string](description string, values []E) *openapi3.Schema {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = string(v)
	}
	s := openapi3.NewStringSchema().WithEnum(vs...)
	s.Description = description
	return s
}

func requiring(s *openapi3.Schema, names ...string) *openapi3.Schema {
	s.Required = names
	return s
}

func userStoriesDocument() *openapi3.Schema {
	story := requiring(openapi3.NewObjectSchema().
		WithProperty("name", text("User story name")).
		WithProperty("description", text("User story in the form: As a [user type], I want [goal] so that [benefit]")).
		WithProperty("acceptanceCriteria", stringList("Acceptance criteria for this user story").WithMinItems(1)).
		WithProperty("priority", enumOf("Priority level of this user story", domain.Priorities)),
		"name", "description", "acceptanceCriteria", "priority")

	epic := requiring(openapi3.NewObjectSchema().
		WithProperty("name", text("Epic name")).
		WithProperty("description", text("What this epic encompasses")).
		WithProperty("userStories", list("User stories in this epic", story).WithMinItems(1)),
		"name", "description", "userStories")

	return requiring(openapi3.NewObjectSchema().
		WithProperty("epics", list("Epics containing all user stories", epic).
			WithMinItems(MinStoryEpics).
			WithMaxItems(MaxStoryEpics)).
		WithProperty("projectGoals", stringList("High-level project goals")),
		"epics")
}

func planDocument() *openapi3.Schema {
	task := requiring(openapi3.NewObjectSchema().
		WithProperty("name", text("Task name")).
		WithProperty("goal", text("Technical objective of the task")).
		WithProperty("deliverable", text("Concrete output or artifact")).
		WithProperty("deps", stringList("Names of tasks this task depends on")).
		WithProperty("estimate", enumOf("Size: XS=1-2h, S=2-4h, M=1d, L=2-3d, XL=1 week", domain.Estimates)),
		"name", "goal", "deliverable", "estimate")

	story := requiring(openapi3.NewObjectSchema().
		WithProperty("name", text("Technical story name")).
		WithProperty("tasks", list("Tasks of this story", task).WithMinItems(1)),
		"name", "tasks")

	epic := requiring(openapi3.NewObjectSchema().
		WithProperty("name", text("Epic name")).
		WithProperty("stories", list("Stories of this epic", story).WithMinItems(1)),
		"name", "stories")

	return requiring(openapi3.NewObjectSchema().
		WithProperty("epics", list("Epics of the plan", epic).
			WithMinItems(MinPlanEpics).
			WithMaxItems(MaxPlanEpics)).
		WithProperty("criticalPath", stringList("Task names on the critical path")).
		WithProperty("risks", stringList("Identified technical risks")),
		"epics")
}

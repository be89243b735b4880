package stages

import (
	"context"
	"fmt"

	"github.com/Njuelle/brief-to-plan/internal/generation"
	"github.com/Njuelle/brief-to-plan/internal/log"
	"github.com/Njuelle/brief-to-plan/internal/metrics"
	"github.com/Njuelle/brief-to-plan/internal/pipeline"
	"github.com/Njuelle/brief-to-plan/internal/prompts"
	"github.com/Njuelle/brief-to-plan/internal/repair"
	"github.com/Njuelle/brief-to-plan/internal/schema"
)

type side struct {
	name   string
	label  string
	prompt func(prompts.Data) (string, error)
	plan   pipeline.Field
	tasks  pipeline.Field
}

var (
	backend = side{
		name:   PlanBackendTasksName,
		label:  "backend",
		prompt: prompts.BackendPlan,
		plan:   pipeline.FieldBackendPlan,
		tasks:  pipeline.FieldBackendTasks,
	}
	frontend = side{
		name:   PlanFrontendTasksName,
		label:  "frontend",
		prompt: prompts.FrontendPlan,
		plan:   pipeline.FieldFrontendPlan,
		tasks:  pipeline.FieldFrontendTasks,
	}
)

// Planning breaks the architecture down into an epic, story and task plan
// for one side of the system. Free-text output goes through repair: a valid
// plan sets both the plan and its task names, anything else only the flat list.
type Planning struct {
	gen        generation.Generator
	side       side
	structured bool
	logger     *log.Logger
	metrics    *metrics.Metrics
}

func newPlanning(gen generation.Generator, opts Options, s side) *Planning {
	return &Planning{
		gen:        gen,
		side:       s,
		structured: opts.StructuredPlans,
		logger:     opts.Logger.With("component", "stages"),
		metrics:    opts.Metrics,
	}
}

func (p *Planning) Name() string { return p.side.name }

func (p *Planning) Reads() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldUserStories, pipeline.FieldArchitectureDesign}
}

func (p *Planning) Writes() []pipeline.Field {
	return []pipeline.Field{p.side.plan, p.side.tasks}
}

func (p *Planning) Run(ctx context.Context, state pipeline.State, _ string) (pipeline.Diff, error) {
	stories, err := storiesJSON(state.UserStories)
	if err != nil {
		return pipeline.Diff{}, err
	}

	prompt, err := p.side.prompt(prompts.Data{
		UserStories:  stories,
		Architecture: state.ArchitectureDesign,
	})
	if err != nil {
		return pipeline.Diff{}, err
	}
	req := generation.Request{Prompt: prompt}

	if p.structured {
		plan, err := generation.GenerateStructured(ctx, p.gen, req, schema.Plans)
		if err != nil {
			return pipeline.Diff{}, err
		}
		p.metrics.RecordRepair(p.side.name, true, plan.TaskCount())
		return p.planDiff(&plan), nil
	}

	raw, err := p.gen.GenerateText(ctx, req)
	if err != nil {
		return pipeline.Diff{}, err
	}

	result := repair.Repair(raw, schema.Plans)
	if result.Structured() {
		p.metrics.RecordRepair(p.side.name, true, result.Value.TaskCount())
		return p.planDiff(result.Value), nil
	}

	p.logger.WithContext(ctx).Warn("plan output did not validate, keeping a flat task list",
		"cause", result.Cause.Error(),
		"items", len(result.Items),
	)
	p.metrics.RecordRepair(p.side.name, false, len(result.Items))

	diff := pipeline.Diff{Note: fmt.Sprintf("%s task list ready (%d items, unstructured).", p.side.label, len(result.Items))}
	p.setTasks(&diff, result.Items)
	return diff, nil
}

func (p *Planning) planDiff(plan *schema.Plan) pipeline.Diff {
	names := plan.TaskNames()
	diff := pipeline.Diff{Note: fmt.Sprintf("%s task plan ready (%d tasks).", p.side.label, len(names))}
	if p.side.plan == pipeline.FieldBackendPlan {
		diff.BackendPlan = plan
	} else {
		diff.FrontendPlan = plan
	}
	p.setTasks(&diff, names)
	return diff
}

func (p *Planning) setTasks(diff *pipeline.Diff, tasks []string) {
	if tasks == nil {
		tasks = []string{}
	}
	if p.side.tasks == pipeline.FieldBackendTasks {
		diff.BackendTasks = tasks
	} else {
		diff.FrontendTasks = tasks
	}
}

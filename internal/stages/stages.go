// Package stages implements the brief-to-plan pipeline steps.
package stages

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Njuelle/brief-to-plan/internal/generation"
	"github.com/Njuelle/brief-to-plan/internal/log"
	"github.com/Njuelle/brief-to-plan/internal/metrics"
	"github.com/Njuelle/brief-to-plan/internal/pipeline"
	"github.com/Njuelle/brief-to-plan/internal/prompts"
	"github.com/Njuelle/brief-to-plan/internal/schema"
)

// Stage names.
const (
	ExtendBriefName       = "extendBrief"
	UserStoriesName       = "userStories"
	ArchitectureName      = "architecture"
	PlanBackendTasksName  = "planBackendTasks"
	PlanFrontendTasksName = "planFrontendTasks"
)

// User-story generation settings.
const (
	userStoriesTemperature = 0.4
	userStoriesMaxTokens   = 4000
)

// Options tunes the default stages.
type Options struct {
	// Stack is passed to the architecture prompt as mandatory technology choices.
	Stack string

	// StructuredPlans makes the planning stages use schema-validated generation
	// instead of free text with repair. Validation failures are then fatal.
	StructuredPlans bool

	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// Default returns the five stages in pipeline order.
func Default(gen generation.Generator, opts Options) []pipeline.Stage {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return []pipeline.Stage{
		&ExtendBrief{gen: gen},
		&UserStories{gen: gen},
		&Architecture{gen: gen, stack: opts.Stack},
		newPlanning(gen, opts, backend),
		newPlanning(gen, opts, frontend),
	}
}

// ExtendBrief expands the brief into product-focused bullet points.
type ExtendBrief struct {
	gen generation.Generator
}

func (s *ExtendBrief) Name() string             { return ExtendBriefName }
func (s *ExtendBrief) Reads() []pipeline.Field  { return []pipeline.Field{pipeline.FieldBrief} }
func (s *ExtendBrief) Writes() []pipeline.Field { return []pipeline.Field{pipeline.FieldExpandedBrief} }

func (s *ExtendBrief) Run(ctx context.Context, state pipeline.State, _ string) (pipeline.Diff, error) {
	prompt, err := prompts.ExtendBrief(prompts.Data{Brief: state.Brief})
	if err != nil {
		return pipeline.Diff{}, err
	}

	expanded, err := s.gen.GenerateText(ctx, generation.Request{Prompt: prompt})
	if err != nil {
		return pipeline.Diff{}, err
	}

	return pipeline.Diff{
		ExpandedBrief: pipeline.String(expanded),
		Note:          "Extended brief ready.",
	}, nil
}

// UserStories derives the epic and user-story collection.
type UserStories struct {
	gen generation.Generator
}

func (s *UserStories) Name() string             { return UserStoriesName }
func (s *UserStories) Reads() []pipeline.Field  { return []pipeline.Field{pipeline.FieldExpandedBrief} }
func (s *UserStories) Writes() []pipeline.Field { return []pipeline.Field{pipeline.FieldUserStories} }

func (s *UserStories) Run(ctx context.Context, state pipeline.State, _ string) (pipeline.Diff, error) {
	prompt, err := prompts.UserStories(prompts.Data{ExpandedBrief: state.ExpandedBrief})
	if err != nil {
		return pipeline.Diff{}, err
	}

	stories, err := generation.GenerateStructured(ctx, s.gen, generation.Request{
		Prompt:      prompt,
		Temperature: generation.Temperature(userStoriesTemperature),
		MaxTokens:   userStoriesMaxTokens,
	}, schema.UserStories)
	if err != nil {
		return pipeline.Diff{}, err
	}

	return pipeline.Diff{
		UserStories: &stories,
		Note:        fmt.Sprintf("User stories defined: %d epics, %d stories.", len(stories.Epics), stories.StoryCount()),
	}, nil
}

// Architecture records concrete technical decisions.
type Architecture struct {
	gen   generation.Generator
	stack string
}

func (s *Architecture) Name() string { return ArchitectureName }

func (s *Architecture) Reads() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldExpandedBrief, pipeline.FieldUserStories}
}

func (s *Architecture) Writes() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldArchitectureDesign}
}

func (s *Architecture) Run(ctx context.Context, state pipeline.State, _ string) (pipeline.Diff, error) {
	stories, err := storiesJSON(state.UserStories)
	if err != nil {
		return pipeline.Diff{}, err
	}

	prompt, err := prompts.Architecture(prompts.Data{
		ExpandedBrief: state.ExpandedBrief,
		UserStories:   stories,
		Stack:         s.stack,
	})
	if err != nil {
		return pipeline.Diff{}, err
	}

	design, err := s.gen.GenerateText(ctx, generation.Request{Prompt: prompt})
	if err != nil {
		return pipeline.Diff{}, err
	}

	return pipeline.Diff{
		ArchitectureDesign: pipeline.String(design),
		Note:               "Technical architecture ready.",
	}, nil
}

func storiesJSON(c *schema.UserStoryCollection) (string, error) {
	if c == nil {
		return "", nil
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode user stories: %w", err)
	}
	return string(data), nil
}

package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/log"
	"github.com/Njuelle/brief-to-plan/internal/telemetry"
)

// Orchestrator runs a validated stage list level by level.
type Orchestrator struct {
	stages   []Stage
	levels   [][]int
	observer Observer
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver adds observers notified of run and stage events.
func WithObserver(obs ...Observer) Option {
	return func(o *Orchestrator) {
		if existing, ok := o.observer.(Observers); ok {
			o.observer = append(existing, obs...)
			return
		}
		o.observer = Observers(obs)
	}
}

// WithClock replaces time.Now for note timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New validates the stage graph and computes its levels.
func New(stages []Stage, opts ...Option) (*Orchestrator, error) {
	if err := validateGraph(stages); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		stages:   stages,
		levels:   computeLevels(stages),
		observer: Observers{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Levels returns the stage names grouped by level, in run order.
func (o *Orchestrator) Levels() [][]string {
	out := make([][]string, len(o.levels))
	for i, level := range o.levels {
		for _, idx := range level {
			out[i] = append(out[i], o.stages[idx].Name())
		}
	}
	return out
}

// Run executes every stage against a state seeded with brief. An empty
// correlationID is replaced by a random UUID. The first stage failure
// cancels its siblings and aborts the run.
func (o *Orchestrator) Run(ctx context.Context, brief, correlationID string) (*State, error) {
	if strings.TrimSpace(brief) == "" {
		return nil, errors.NewBriefMissingError()
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	ctx = log.WithCorrelationID(ctx, correlationID)
	ctx, span := telemetry.StartRunSpan(ctx, correlationID)
	defer span.End()

	start := o.now()
	o.observer.RunStarted(ctx, RunInfo{
		CorrelationID: correlationID,
		Brief:         brief,
		Levels:        o.Levels(),
	})

	state := &State{CorrelationID: correlationID, Brief: brief, Notes: []Note{}}
	err := o.run(ctx, state, correlationID)

	result := RunResult{CorrelationID: correlationID, Duration: o.now().Sub(start), Err: err}
	if err != nil {
		telemetry.RecordError(span, err)
		o.observer.RunFinished(ctx, result)
		return nil, err
	}

	telemetry.RecordSuccess(span, attribute.Int("notes", len(state.Notes)))
	result.State = state
	o.observer.RunFinished(ctx, result)
	return state, nil
}

func (o *Orchestrator) run(ctx context.Context, state *State, correlationID string) error {
	for levelIdx, level := range o.levels {
		if err := ctx.Err(); err != nil {
			return err
		}

		diffs := make([]Diff, len(level))
		g, gctx := errgroup.WithContext(ctx)

		for k, idx := range level {
			stage := o.stages[idx]
			snapshot := state.Snapshot()
			g.Go(func() error {
				diff, err := o.runStage(gctx, stage, levelIdx, snapshot, correlationID)
				if err != nil {
					return fmt.Errorf("stage %s: %w", stage.Name(), err)
				}
				diffs[k] = diff
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		at := o.now()
		for k, idx := range level {
			state.apply(o.stages[idx].Name(), diffs[k], at)
		}
	}
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, level int, snapshot State, correlationID string) (Diff, error) {
	info := StageInfo{Name: stage.Name(), Level: level, Reads: stage.Reads(), Writes: stage.Writes()}

	ctx = log.WithStage(ctx, info.Name)
	ctx, span := telemetry.StartStageSpan(ctx, info.Name, level)
	defer span.End()

	o.observer.StageStarted(ctx, info)
	start := o.now()

	diff, err := stage.Run(ctx, snapshot, correlationID)
	if err == nil {
		err = checkWrites(info, diff)
	}

	result := StageResult{StageInfo: info, Duration: o.now().Sub(start), Err: err}
	telemetry.RecordDuration(span, "stage", result.Duration)
	if err != nil {
		telemetry.RecordError(span, err)
		o.observer.StageFinished(ctx, result)
		return Diff{}, err
	}

	result.Fields = diff.Fields()
	telemetry.RecordSuccess(span)
	o.observer.StageFinished(ctx, result)
	return diff, nil
}

func checkWrites(info StageInfo, d Diff) error {
	for _, f := range d.Fields() {
		if !slices.Contains(info.Writes, f) {
			return errors.NewUndeclaredWriteError(info.Name, string(f))
		}
	}
	return nil
}

func validateGraph(stages []Stage) error {
	if len(stages) == 0 {
		return errors.NewInvalidGraphError("no stages")
	}

	seen := make(map[string]bool, len(stages))
	written := map[Field]bool{}

	for i, s := range stages {
		name := s.Name()
		if strings.TrimSpace(name) == "" {
			return errors.NewInvalidGraphError(fmt.Sprintf("stage %d has no name", i))
		}
		if seen[name] {
			return errors.NewInvalidGraphError(fmt.Sprintf("duplicate stage name %s", name))
		}
		seen[name] = true

		for _, f := range s.Reads() {
			if !f.Known() {
				return errors.NewInvalidGraphError(fmt.Sprintf("stage %s reads unknown field %s", name, f))
			}
			if f != FieldBrief && !written[f] {
				return errors.NewInvalidGraphError(fmt.Sprintf("stage %s reads %s before any stage writes it", name, f))
			}
		}
		for _, f := range s.Writes() {
			if !f.Known() {
				return errors.NewInvalidGraphError(fmt.Sprintf("stage %s writes unknown field %s", name, f))
			}
			if f == FieldBrief {
				return errors.NewInvalidGraphError(fmt.Sprintf("stage %s writes the brief", name))
			}
		}
		for _, f := range s.Writes() {
			written[f] = true
		}
	}
	return nil
}

// conflicts reports whether later must run after earlier: it reads what
// earlier writes, both write a common field, or it writes what earlier reads.
func conflicts(earlier, later Stage) bool {
	overlap := func(a, b []Field) bool {
		for _, f := range a {
			if slices.Contains(b, f) {
				return true
			}
		}
		return false
	}
	return overlap(later.Reads(), earlier.Writes()) ||
		overlap(later.Writes(), earlier.Writes()) ||
		overlap(later.Writes(), earlier.Reads())
}

// computeLevels places each stage one level after the deepest earlier stage
// it conflicts with. Declaration order is preserved inside a level.
func computeLevels(stages []Stage) [][]int {
	depth := make([]int, len(stages))
	maxDepth := 0
	for i := range stages {
		for j := 0; j < i; j++ {
			if conflicts(stages[j], stages[i]) && depth[j]+1 > depth[i] {
				depth[i] = depth[j] + 1
			}
		}
		maxDepth = max(maxDepth, depth[i])
	}

	levels := make([][]int, maxDepth+1)
	for i, d := range depth {
		levels[d] = append(levels[d], i)
	}
	return levels
}

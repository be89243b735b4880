package pipeline

import "context"

// Stage is one pipeline step: a function from a state snapshot to a diff.
// Run must only return fields listed in Writes.
type Stage interface {
	Name() string
	Reads() []Field
	Writes() []Field
	Run(ctx context.Context, state State, correlationID string) (Diff, error)
}

// StageFunc adapts a function into a Stage.
type StageFunc struct {
	StageName   string
	ReadFields  []Field
	WriteFields []Field
	Fn          func(ctx context.Context, state State, correlationID string) (Diff, error)
}

func (s StageFunc) Name() string    { return s.StageName }
func (s StageFunc) Reads() []Field  { return s.ReadFields }
func (s StageFunc) Writes() []Field { return s.WriteFields }

func (s StageFunc) Run(ctx context.Context, state State, correlationID string) (Diff, error) {
	return s.Fn(ctx, state, correlationID)
}

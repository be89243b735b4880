// Package trace writes an append-only JSONL journal of a pipeline run.
package trace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/pipeline"
	"github.com/Njuelle/brief-to-plan/internal/version"
)

// Journal records run and stage events for one correlation id
type Journal struct {
	runID string
	path  string

	// mu protects file, seq, events and err
	mu     sync.Mutex
	file   *os.File
	seq    int
	events []*Event

	// err is the first write failure; observers cannot return errors
	err error
}

// Config contains journal configuration
type Config struct {
	// RunID is the correlation id of the run
	RunID string

	// Dir is where run_<id>.jsonl is written
	Dir string

	// Enabled controls whether events reach disk; events are always kept in memory
	Enabled bool
}

// NewJournal creates a run journal
func NewJournal(config Config) (*Journal, error) {
	j := &Journal{runID: config.RunID}
	if !config.Enabled {
		return j, nil
	}
	if config.RunID == "" {
		return nil, fmt.Errorf("journal needs a run id")
	}

	if err := os.MkdirAll(config.Dir, 0o750); err != nil {
		return nil, errors.NewFileWriteError(config.Dir, err)
	}

	j.path = filepath.Join(config.Dir, fmt.Sprintf("run_%s.jsonl", config.RunID))
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errors.NewFileWriteError(j.path, err)
	}
	j.file = file
	return j, nil
}

// Log appends an event
func (j *Journal) Log(event *Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.seq++
	event.Seq = j.seq
	j.events = append(j.events, event)

	if j.file == nil {
		return nil
	}

	line, err := event.ToJSON()
	if err != nil {
		return j.fail(fmt.Errorf("failed to serialize event: %w", err))
	}
	line = append(line, '\n')
	if _, err := j.file.Write(line); err != nil {
		return j.fail(errors.NewFileWriteError(j.path, err))
	}
	return nil
}

func (j *Journal) fail(err error) error {
	if j.err == nil {
		j.err = err
	}
	return err
}

// Path returns the journal file, or "" when disabled
func (j *Journal) Path() string { return j.path }

// RunID returns the correlation id
func (j *Journal) RunID() string { return j.runID }

// Events returns all logged events
func (j *Journal) Events() []*Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	events := make([]*Event, len(j.events))
	copy(events, j.events)
	return events
}

// Err returns the first write failure
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Close syncs and closes the file, returning the first write failure if any
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return j.err
	}
	file := j.file
	j.file = nil

	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return j.err
}

// RunStarted implements pipeline.Observer
func (j *Journal) RunStarted(_ context.Context, info pipeline.RunInfo) {
	_ = j.Log(NewEvent(EventTypeRunStart, j.runID, "Run started").
		WithData("brief", info.Brief).
		WithData("levels", info.Levels).
		WithData("version", version.Version))
}

// StageStarted implements pipeline.Observer
func (j *Journal) StageStarted(_ context.Context, info pipeline.StageInfo) {
	_ = j.Log(NewEvent(EventTypeStageStart, j.runID, "Stage started: "+info.Name).
		WithStage(info.Name).
		WithData("level", info.Level))
}

// StageFinished implements pipeline.Observer
func (j *Journal) StageFinished(_ context.Context, result pipeline.StageResult) {
	if result.Err != nil {
		event := NewEvent(EventTypeStageFail, j.runID, "Stage failed: "+result.Name).
			WithStage(result.Name).
			WithDuration(result.Duration).
			WithError(result.Err)
		if pe, ok := errors.As(result.Err); ok {
			event.ErrorCode = string(pe.Code)
		}
		_ = j.Log(event)
		return
	}

	fields := make([]string, len(result.Fields))
	for i, f := range result.Fields {
		fields[i] = string(f)
	}
	_ = j.Log(NewEvent(EventTypeStageComplete, j.runID, "Stage completed: "+result.Name).
		WithStage(result.Name).
		WithDuration(result.Duration).
		WithData("fields", fields))
}

// RunFinished implements pipeline.Observer
func (j *Journal) RunFinished(_ context.Context, result pipeline.RunResult) {
	if result.Err != nil {
		event := NewEvent(EventTypeRunFail, j.runID, "Run failed").
			WithDuration(result.Duration).
			WithError(result.Err)
		if pe, ok := errors.As(result.Err); ok {
			event.ErrorCode = string(pe.Code)
		}
		_ = j.Log(event)
		return
	}

	_ = j.Log(NewEvent(EventTypeRunComplete, j.runID, "Run completed").
		WithDuration(result.Duration).
		WithData("backend_tasks", len(result.State.BackendTasks)).
		WithData("frontend_tasks", len(result.State.FrontendTasks)).
		WithData("notes", len(result.State.Notes)))
}

var _ pipeline.Observer = (*Journal)(nil)

// ReadJournal loads every event of a journal file.
func ReadJournal(path string) ([]*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileReadError(path, err)
	}

	var events []*Event
	for i, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		event, err := FromJSON(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		events = append(events, event)
	}
	return events, nil
}

package trace

import (
	"encoding/json"
	"time"
)

// EventType names a journal line.
type EventType string

const (
	EventTypeRunStart    EventType = "run_start"
	EventTypeRunComplete EventType = "run_complete"
	EventTypeRunFail     EventType = "run_fail"

	EventTypeStageStart    EventType = "stage_start"
	EventTypeStageComplete EventType = "stage_complete"
	EventTypeStageFail     EventType = "stage_fail"
)

// Event is one line of a run journal. Seq orders the lines of a journal and
// RunID is the run's correlation id.
type Event struct {
	Seq       int       `json:"seq"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage,omitempty"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`

	Data     map[string]any `json:"data,omitempty"`
	Duration *time.Duration `json:"duration_ns,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes one journal line.
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// NewEvent creates a journal event with common fields populated
func NewEvent(eventType EventType, runID, message string) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		Message:   message,
		Level:     inferLevel(eventType),
	}
}

// WithStage sets the stage name
func (e *Event) WithStage(stage string) *Event {
	e.Stage = stage
	return e
}

// WithData adds data to the event
func (e *Event) WithData(key string, value any) *Event {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}

// WithError sets the error field
func (e *Event) WithError(err error) *Event {
	if err != nil {
		e.Error = err.Error()
		e.Level = "error"
	}
	return e
}

// WithDuration sets the duration
func (e *Event) WithDuration(duration time.Duration) *Event {
	e.Duration = &duration
	return e
}

func inferLevel(eventType EventType) string {
	switch eventType {
	case EventTypeRunFail, EventTypeStageFail:
		return "error"
	default:
		return "info"
	}
}

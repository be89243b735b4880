package domain

import "fmt"

// Priority is the business priority of a user story.
// This is a value object that enforces valid priority values.
type Priority string

// Valid priority levels
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Priorities lists the valid levels from most to least important.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// NewPriority creates a new Priority value object with validation
func NewPriority(value string) (Priority, error) {
	p := Priority(value)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Validate checks if the priority is valid
func (p Priority) Validate() error {
	if p.rank() == 0 {
		return fmt.Errorf("invalid priority %q: must be one of critical, high, medium, low", string(p))
	}
	return nil
}

// String returns the string representation
func (p Priority) String() string {
	return string(p)
}

// Marker returns the colored dot shown next to the priority in reports.
func (p Priority) Marker() string {
	switch p {
	case PriorityCritical:
		return "🔴"
	case PriorityHigh:
		return "🟠"
	case PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// IsHigherThan checks if this priority is higher than another
func (p Priority) IsHigherThan(other Priority) bool {
	return p.rank() > other.rank()
}

func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

package schema

import (
	"time"

	"github.com/Njuelle/brief-to-plan/internal/domain"
)

// UserStory is a single "As a …, I want …, so that …" requirement.
type UserStory struct {
	Name               string          `json:"name" yaml:"name"`
	Description        string          `json:"description" yaml:"description"`
	AcceptanceCriteria []string        `json:"acceptanceCriteria" yaml:"acceptanceCriteria"`
	Priority           domain.Priority `json:"priority" yaml:"priority"`
}

// StoryEpic groups related user stories.
type StoryEpic struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	UserStories []UserStory `json:"userStories" yaml:"userStories"`
}

// UserStoryCollection is the product view of the project: 1-8 epics of user stories.
type UserStoryCollection struct {
	Epics        []StoryEpic `json:"epics" yaml:"epics"`
	ProjectGoals []string    `json:"projectGoals" yaml:"projectGoals"`
}

// StoryCount returns the number of user stories across all epics.
func (c *UserStoryCollection) StoryCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, e := range c.Epics {
		n += len(e.UserStories)
	}
	return n
}

func (c *UserStoryCollection) applyDefaults() {
	if c.ProjectGoals == nil {
		c.ProjectGoals = []string{}
	}
}

// Task is the leaf unit of work of a plan.
// Deps are free-text task names and are not checked against the plan.
type Task struct {
	Name        string          `json:"name" yaml:"name"`
	Goal        string          `json:"goal" yaml:"goal"`
	Deliverable string          `json:"deliverable" yaml:"deliverable"`
	Deps        []string        `json:"deps" yaml:"deps"`
	Estimate    domain.Estimate `json:"estimate" yaml:"estimate"`
}

// Story is a technical story made of tasks.
type Story struct {
	Name  string `json:"name" yaml:"name"`
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// Epic is a top-level slice of a plan.
type Epic struct {
	Name    string  `json:"name" yaml:"name"`
	Stories []Story `json:"stories" yaml:"stories"`
}

// Plan is an implementation plan: 1-5 epics plus critical path and risks.
type Plan struct {
	Epics        []Epic   `json:"epics" yaml:"epics"`
	CriticalPath []string `json:"criticalPath" yaml:"criticalPath"`
	Risks        []string `json:"risks" yaml:"risks"`
}

// TaskNames flattens the plan to task names in epic, story, task order.
func (p *Plan) TaskNames() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, p.TaskCount())
	for _, e := range p.Epics {
		for _, s := range e.Stories {
			for _, t := range s.Tasks {
				names = append(names, t.Name)
			}
		}
	}
	return names
}

// TaskCount returns the number of tasks in the plan.
func (p *Plan) TaskCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, e := range p.Epics {
		for _, s := range e.Stories {
			n += len(s.Tasks)
		}
	}
	return n
}

// Effort sums the estimate ranges of every task.
func (p *Plan) Effort() (low, high time.Duration) {
	if p == nil {
		return 0, 0
	}
	for _, e := range p.Epics {
		for _, s := range e.Stories {
			for _, t := range s.Tasks {
				l, h := t.Estimate.Range()
				low += l
				high += h
			}
		}
	}
	return low, high
}

func (p *Plan) applyDefaults() {
	if p.CriticalPath == nil {
		p.CriticalPath = []string{}
	}
	if p.Risks == nil {
		p.Risks = []string{}
	}
	for i := range p.Epics {
		for j := range p.Epics[i].Stories {
			for k := range p.Epics[i].Stories[j].Tasks {
				if p.Epics[i].Stories[j].Tasks[k].Deps == nil {
					p.Epics[i].Stories[j].Tasks[k].Deps = []string{}
				}
			}
		}
	}
}

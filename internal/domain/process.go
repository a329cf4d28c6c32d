package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// ProcessStatus describes the lifecycle state of a tracked process.
type ProcessStatus string

const (
	ProcessPlanned    ProcessStatus = "planned"
	ProcessInProgress ProcessStatus = "in_progress"
	ProcessBlocked    ProcessStatus = "blocked"
	ProcessCompleted  ProcessStatus = "completed"
	ProcessCancelled  ProcessStatus = "cancelled"
)

var validProcessStatuses = []ProcessStatus{
	ProcessPlanned,
	ProcessInProgress,
	ProcessBlocked,
	ProcessCompleted,
	ProcessCancelled,
}

// ValidProcessStatus reports whether s is a recognized process status.
func ValidProcessStatus(s ProcessStatus) bool {
	return slices.Contains(validProcessStatuses, s)
}

// Process is one tracked unit of agent work: a goal, an ordered plan of
// steps, and the decision/risk/evidence trail accumulated while working.
type Process struct {
	ID        string        `yaml:"id" json:"id"`
	Name      string        `yaml:"name" json:"name"`
	Goal      string        `yaml:"goal" json:"goal"`
	Status    ProcessStatus `yaml:"status" json:"status"`
	Template  string        `yaml:"template,omitempty" json:"template,omitempty"`
	Steps     []Step        `yaml:"steps" json:"steps"`
	Decisions []Decision    `yaml:"decisions" json:"decisions"`
	Risks     []Risk        `yaml:"risks" json:"risks"`
	Evidence  []Evidence    `yaml:"evidence" json:"evidence"`
	CreatedAt time.Time     `yaml:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `yaml:"updatedAt" json:"updatedAt"`
}

// NewProcess constructs a planned process with empty collections.
func NewProcess(id, name, goal, template string, now time.Time) (Process, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Process{}, ErrInvalidID
	}
	if name == "" {
		return Process{}, ErrInvalidName
	}
	return Process{
		ID:        id,
		Name:      name,
		Goal:      strings.TrimSpace(goal),
		Status:    ProcessPlanned,
		Template:  strings.TrimSpace(template),
		Steps:     []Step{},
		Decisions: []Decision{},
		Risks:     []Risk{},
		Evidence:  []Evidence{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FindStep returns the index of the step with the given id, or -1.
func (p Process) FindStep(id string) int {
	return slices.IndexFunc(p.Steps, func(s Step) bool { return s.ID == id })
}

// CompletedSteps counts steps in completed status.
func (p Process) CompletedSteps() int {
	n := 0
	for _, s := range p.Steps {
		if s.Status == StepCompleted {
			n++
		}
	}
	return n
}

// Progress returns the completion percentage, rounded, or 0 with no steps.
func (p Process) Progress() int {
	if len(p.Steps) == 0 {
		return 0
	}
	return int(math.Round(float64(p.CompletedSteps()) / float64(len(p.Steps)) * 100))
}

// Clone returns a deep copy so snapshots never alias live slices.
func (p Process) Clone() Process {
	out := p
	out.Steps = make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		out.Steps[i] = s.clone()
	}
	out.Decisions = make([]Decision, len(p.Decisions))
	for i, d := range p.Decisions {
		out.Decisions[i] = d.clone()
	}
	out.Risks = slices.Clone(p.Risks)
	out.Evidence = slices.Clone(p.Evidence)
	return out
}

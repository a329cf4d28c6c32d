package domain

import (
	"slices"
	"strings"
	"time"
)

// StepStatus describes the lifecycle state of a single step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepSkipped    StepStatus = "skipped"
	StepFailed     StepStatus = "failed"
)

var validStepStatuses = []StepStatus{
	StepPending,
	StepInProgress,
	StepCompleted,
	StepSkipped,
	StepFailed,
}

// ValidStepStatus reports whether s is a recognized step status.
func ValidStepStatus(s StepStatus) bool {
	return slices.Contains(validStepStatuses, s)
}

// Step is one unit of planned work inside a process. StartedAt and
// CompletedAt are stamped only by the matching status transition.
type Step struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Inputs      []string   `yaml:"inputs" json:"inputs"`
	Outputs     []string   `yaml:"outputs" json:"outputs"`
	Checks      []string   `yaml:"checks" json:"checks"`
	Status      StepStatus `yaml:"status" json:"status"`
	StartedAt   *time.Time `yaml:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `yaml:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// NewStep constructs a pending step with empty collections.
func NewStep(id, name string) Step {
	return Step{
		ID:      strings.TrimSpace(id),
		Name:    strings.TrimSpace(name),
		Inputs:  []string{},
		Outputs: []string{},
		Checks:  []string{},
		Status:  StepPending,
	}
}

func (s Step) clone() Step {
	out := s
	out.Inputs = slices.Clone(s.Inputs)
	out.Outputs = slices.Clone(s.Outputs)
	out.Checks = slices.Clone(s.Checks)
	return out
}

// EvidenceType classifies a recorded piece of evidence.
type EvidenceType string

const (
	EvidenceCommand EvidenceType = "command"
	EvidenceFile    EvidenceType = "file"
	EvidenceURL     EvidenceType = "url"
	EvidenceNote    EvidenceType = "note"
)

// ValidEvidenceType reports whether t is a recognized evidence type.
func ValidEvidenceType(t EvidenceType) bool {
	switch t {
	case EvidenceCommand, EvidenceFile, EvidenceURL, EvidenceNote:
		return true
	}
	return false
}

// Evidence is one recorded trace of work, optionally tied to a step by
// id. The StepID is a lookup reference, not ownership.
type Evidence struct {
	Type      EvidenceType `yaml:"type" json:"type"`
	Value     string       `yaml:"value" json:"value"`
	Timestamp time.Time    `yaml:"timestamp" json:"timestamp"`
	StepID    string       `yaml:"stepId,omitempty" json:"stepId,omitempty"`
}

// NewEvidence constructs a timestamped evidence entry.
func NewEvidence(t EvidenceType, value, stepID string, now time.Time) Evidence {
	return Evidence{
		Type:      t,
		Value:     value,
		Timestamp: now,
		StepID:    stepID,
	}
}

package domain

import (
	"slices"
	"time"
)

// Decision records a choice made while working. Decisions are
// append-only: a later decision never replaces an earlier one.
type Decision struct {
	ID        string    `yaml:"id" json:"id"`
	Question  string    `yaml:"question" json:"question"`
	Options   []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Choice    string    `yaml:"choice" json:"choice"`
	Rationale string    `yaml:"rationale" json:"rationale"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
}

func (d Decision) clone() Decision {
	out := d
	out.Options = slices.Clone(d.Options)
	return out
}

// RiskImpact grades how badly a risk would hurt if it materialized.
type RiskImpact string

const (
	ImpactLow    RiskImpact = "low"
	ImpactMedium RiskImpact = "medium"
	ImpactHigh   RiskImpact = "high"
)

// ValidRiskImpact reports whether i is a recognized impact level.
func ValidRiskImpact(i RiskImpact) bool {
	switch i {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// RiskStatus describes where a risk sits in its handling lifecycle.
type RiskStatus string

const (
	RiskIdentified RiskStatus = "identified"
	RiskMitigating RiskStatus = "mitigating"
	RiskMitigated  RiskStatus = "mitigated"
	RiskAccepted   RiskStatus = "accepted"
)

// Risk records a recognized hazard and its mitigation.
type Risk struct {
	ID           string     `yaml:"id" json:"id"`
	Risk         string     `yaml:"risk" json:"risk"`
	Impact       RiskImpact `yaml:"impact" json:"impact"`
	Mitigation   string     `yaml:"mitigation" json:"mitigation"`
	Status       RiskStatus `yaml:"status" json:"status"`
	IdentifiedAt time.Time  `yaml:"identifiedAt" json:"identifiedAt"`
}

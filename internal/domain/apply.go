package domain

import (
	"fmt"
	"slices"
	"time"
)

// Apply reduces one update onto a process and returns the new state.
// Unknown actions and updates whose precondition fails (missing
// payload, unknown step id) degrade to a no-op: the narrating agent
// cannot be asked to retry, so nothing here ever signals an error.
// Every application refreshes UpdatedAt, including no-ops.
func Apply(p Process, u Update, now time.Time) Process {
	switch u.Action {
	case ActionProcessStart, ActionProcessUpdate:
		if status := ProcessStatus(u.Status); ValidProcessStatus(status) {
			p.Status = status
		}

	case ActionStepAdd:
		if u.Step != nil {
			p.Steps = append(slices.Clone(p.Steps), stepFromDraft(*u.Step, len(p.Steps)))
		}

	case ActionStepStart:
		if i := p.FindStep(u.StepID); i >= 0 {
			p.Steps = slices.Clone(p.Steps)
			p.Steps[i].Status = StepInProgress
			started := now
			p.Steps[i].StartedAt = &started
		}

	case ActionStepComplete:
		if i := p.FindStep(u.StepID); i >= 0 {
			p.Steps = slices.Clone(p.Steps)
			p.Steps[i].Status = StepCompleted
			completed := now
			p.Steps[i].CompletedAt = &completed
			if len(u.Outputs) > 0 {
				p.Steps[i].Outputs = append(slices.Clone(p.Steps[i].Outputs), u.Outputs...)
			}
		}

	case ActionStepFail:
		if i := p.FindStep(u.StepID); i >= 0 {
			p.Steps = slices.Clone(p.Steps)
			p.Steps[i].Status = StepFailed
			failed := now
			p.Steps[i].CompletedAt = &failed
		}

	case ActionDecision:
		if u.Decision != nil {
			d := *u.Decision
			id := d.ID
			if id == "" {
				id = fmt.Sprintf("d%d", len(p.Decisions)+1)
			}
			p.Decisions = append(slices.Clone(p.Decisions), Decision{
				ID:        id,
				Question:  d.Question,
				Options:   slices.Clone(d.Options),
				Choice:    d.Choice,
				Rationale: d.Rationale,
				Timestamp: now,
			})
		}

	case ActionRisk:
		if u.Risk != nil {
			r := *u.Risk
			id := r.ID
			if id == "" {
				id = fmt.Sprintf("r%d", len(p.Risks)+1)
			}
			impact := RiskImpact(r.Impact)
			if !ValidRiskImpact(impact) {
				impact = ImpactMedium
			}
			p.Risks = append(slices.Clone(p.Risks), Risk{
				ID:           id,
				Risk:         r.Risk,
				Impact:       impact,
				Mitigation:   r.Mitigation,
				Status:       RiskIdentified,
				IdentifiedAt: now,
			})
		}

	case ActionEvidence:
		if len(u.Evidence) > 0 {
			p.Evidence = slices.Clone(p.Evidence)
			for _, e := range u.Evidence {
				if e.Timestamp.IsZero() {
					e.Timestamp = now
				}
				p.Evidence = append(p.Evidence, e)
			}
		}
	}

	p.UpdatedAt = now
	return p
}

func stepFromDraft(d StepDraft, existing int) Step {
	id := d.ID
	if id == "" {
		id = fmt.Sprintf("s%d", existing+1)
	}
	name := d.Name
	if name == "" {
		name = "Unnamed step"
	}
	step := NewStep(id, name)
	step.Description = d.Description
	if len(d.Inputs) > 0 {
		step.Inputs = slices.Clone(d.Inputs)
	}
	if len(d.Outputs) > 0 {
		step.Outputs = slices.Clone(d.Outputs)
	}
	if len(d.Checks) > 0 {
		step.Checks = slices.Clone(d.Checks)
	}
	if status := StepStatus(d.Status); ValidStepStatus(status) {
		step.Status = status
	}
	return step
}

package domain

// Action tags the single semantic concern carried by one update block.
type Action string

const (
	ActionProcessStart  Action = "process_start"
	ActionProcessUpdate Action = "process_update"
	ActionStepAdd       Action = "step_add"
	ActionStepStart     Action = "step_start"
	ActionStepComplete  Action = "step_complete"
	ActionStepFail      Action = "step_fail"
	ActionDecision      Action = "decision"
	ActionRisk          Action = "risk"
	ActionMissing       Action = "missing"
	ActionEvidence      Action = "evidence"
)

// KnownAction reports whether a is one of the recognized action tags.
func KnownAction(a Action) bool {
	switch a {
	case ActionProcessStart, ActionProcessUpdate,
		ActionStepAdd, ActionStepStart, ActionStepComplete, ActionStepFail,
		ActionDecision, ActionRisk, ActionMissing, ActionEvidence:
		return true
	}
	return false
}

// StepDraft is the partial step payload carried by a step_add update.
type StepDraft struct {
	ID          string
	Name        string
	Description string
	Inputs      []string
	Outputs     []string
	Checks      []string
	Status      string
}

// DecisionDraft is the partial decision payload of a decision update.
type DecisionDraft struct {
	ID        string
	Question  string
	Choice    string
	Rationale string
	Options   []string
}

// RiskDraft is the partial risk payload of a risk update.
type RiskDraft struct {
	ID         string
	Risk       string
	Impact     string
	Mitigation string
}

// Update is the decoded, typed intent produced by the parser. Fields
// irrelevant to the tagged action are ignored by the reducer.
type Update struct {
	ProcessID string
	Action    Action
	StepID    string
	Status    string
	Outputs   []string
	Evidence  []Evidence
	Decision  *DecisionDraft
	Risk      *RiskDraft
	Step      *StepDraft
	Missing   []string
}

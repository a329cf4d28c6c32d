package app

import (
	"fmt"
	"strings"

	"github.com/Hysas/procside/internal/domain"
)

// GateSeverity ranks how a failed gate affects the overall verdict.
type GateSeverity string

// SeverityError and SeverityWarning are the recognized severities.
const (
	SeverityError   GateSeverity = "error"
	SeverityWarning GateSeverity = "warning"
)

// Gate is one completeness check run against a process.
type Gate struct {
	ID          string
	Name        string
	Description string
	Severity    GateSeverity
	check       func(domain.Process) (bool, string)
}

// GateResult is the outcome of one gate against one process.
type GateResult struct {
	Gate     Gate
	Passed   bool
	Message  string
	Severity GateSeverity
}

// CheckResult aggregates a full gate run. ExitCode is what the CLI
// check command should exit with.
type CheckResult struct {
	Passed   bool
	Errors   []GateResult
	Warnings []GateResult
	ExitCode int
}

// GateToggle configures one gate in a run: whether it participates
// and an optional severity override.
type GateToggle struct {
	ID       string
	Enabled  bool
	Severity GateSeverity
}

// GatesConfig controls a gate run.
type GatesConfig struct {
	Enabled       bool
	FailOnWarning bool
	Gates         []GateToggle
}

// DefaultGatesConfig enables every known gate at its built-in
// severity.
func DefaultGatesConfig() GatesConfig {
	cfg := GatesConfig{Enabled: true}
	for _, g := range AllGates() {
		cfg.Gates = append(cfg.Gates, GateToggle{ID: g.ID, Enabled: true})
	}
	return cfg
}

// AllGates returns every known gate in evaluation order.
func AllGates() []Gate {
	return []Gate{
		{
			ID:          "has_steps",
			Name:        "Has Steps",
			Description: "Process must have at least one step defined",
			Severity:    SeverityError,
			check: func(p domain.Process) (bool, string) {
				if len(p.Steps) == 0 {
					return false, "Process has no steps defined"
				}
				return true, fmt.Sprintf("Process has %d step(s)", len(p.Steps))
			},
		},
		{
			ID:          "all_steps_completed",
			Name:        "All Steps Completed",
			Description: "All steps must be completed",
			Severity:    SeverityError,
			check: func(p domain.Process) (bool, string) {
				var incomplete []string
				for _, s := range p.Steps {
					if s.Status != domain.StepCompleted {
						incomplete = append(incomplete, s.Name)
					}
				}
				if len(incomplete) == 0 {
					return true, "All steps are completed"
				}
				return false, fmt.Sprintf("%d step(s) not completed: %s", len(incomplete), strings.Join(incomplete, ", "))
			},
		},
		{
			ID:          "has_evidence",
			Name:        "Has Evidence",
			Description: "Process must have at least one evidence item",
			Severity:    SeverityWarning,
			check: func(p domain.Process) (bool, string) {
				if len(p.Evidence) == 0 {
					return false, "No evidence recorded"
				}
				return true, fmt.Sprintf("Process has %d evidence item(s)", len(p.Evidence))
			},
		},
		{
			ID:          "has_decisions",
			Name:        "Has Decisions",
			Description: "Process must have at least one decision logged",
			Severity:    SeverityWarning,
			check: func(p domain.Process) (bool, string) {
				if len(p.Decisions) == 0 {
					return false, "No decisions logged"
				}
				return true, fmt.Sprintf("Process has %d decision(s)", len(p.Decisions))
			},
		},
		{
			ID:          "no_pending_missing",
			Name:        "No Pending Missing Items",
			Description: "All missing items should be resolved",
			Severity:    SeverityWarning,
			check: func(p domain.Process) (bool, string) {
				missing := MissingItems(p)
				if len(missing) == 0 {
					return true, "No missing items detected"
				}
				preview := missing
				suffix := ""
				if len(preview) > 3 {
					preview = preview[:3]
					suffix = "..."
				}
				return false, fmt.Sprintf("%d missing item(s): %s%s", len(missing), strings.Join(preview, ", "), suffix)
			},
		},
		{
			ID:          "has_rollback",
			Name:        "Has Rollback Plan",
			Description: "Process should include a rollback step",
			Severity:    SeverityWarning,
			check: func(p domain.Process) (bool, string) {
				if hasStepNamed(p, "rollback", "revert") {
					return true, "Rollback step found"
				}
				return false, "No rollback step defined"
			},
		},
		{
			ID:          "has_validation",
			Name:        "Has Validation Step",
			Description: "Process should include testing/validation",
			Severity:    SeverityWarning,
			check: func(p domain.Process) (bool, string) {
				if hasStepNamed(p, "test", "validat", "verify") {
					return true, "Validation step found"
				}
				return false, "No validation step defined"
			},
		},
	}
}

// FindGate returns the gate with the given id.
func FindGate(id string) (Gate, bool) {
	for _, g := range AllGates() {
		if g.ID == id {
			return g, true
		}
	}
	return Gate{}, false
}

// RunGate evaluates one gate against a process.
func RunGate(p domain.Process, id string) (GateResult, bool) {
	gate, ok := FindGate(id)
	if !ok {
		return GateResult{}, false
	}
	passed, message := gate.check(p)
	return GateResult{Gate: gate, Passed: passed, Message: message, Severity: gate.Severity}, true
}

// RunGates evaluates the configured gates and aggregates the verdict.
// A disabled run passes unconditionally.
func RunGates(p domain.Process, cfg GatesConfig) CheckResult {
	if !cfg.Enabled {
		return CheckResult{Passed: true, ExitCode: 0}
	}

	result := CheckResult{}
	for _, toggle := range cfg.Gates {
		if !toggle.Enabled {
			continue
		}
		gr, ok := RunGate(p, toggle.ID)
		if !ok || gr.Passed {
			continue
		}
		severity := gr.Severity
		if toggle.Severity != "" {
			severity = toggle.Severity
		}
		gr.Severity = severity
		if severity == SeverityError {
			result.Errors = append(result.Errors, gr)
		} else {
			result.Warnings = append(result.Warnings, gr)
		}
	}

	result.Passed = len(result.Errors) == 0 && (!cfg.FailOnWarning || len(result.Warnings) == 0)
	if !result.Passed {
		result.ExitCode = 1
	}
	return result
}

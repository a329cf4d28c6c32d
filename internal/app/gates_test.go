package app

import (
	"strings"
	"testing"

	"github.com/Hysas/procside/internal/domain"
)

func gateProcess(t *testing.T) domain.Process {
	t.Helper()

	p, err := domain.NewProcess("proc-001", "Gated", "pass the gates", "", serviceNow)
	if err != nil {
		t.Fatalf("NewProcess() error = %v", err)
	}
	return p
}

func TestRunGatesEmptyProcess(t *testing.T) {
	t.Parallel()

	result := RunGates(gateProcess(t), DefaultGatesConfig())

	if result.Passed {
		t.Fatal("empty process should fail the gates")
	}
	if result.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", result.ExitCode)
	}
	// has_steps and all_steps_completed are errors; the rest warn.
	// all_steps_completed passes vacuously with zero steps.
	if len(result.Errors) != 1 || result.Errors[0].Gate.ID != "has_steps" {
		t.Fatalf("Errors = %+v", result.Errors)
	}
}

func TestRunGatesCompleteProcess(t *testing.T) {
	t.Parallel()

	p := gateProcess(t)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "Implement importer"}}, serviceNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "Verify row counts"}}, serviceNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "Rollback plan"}}, serviceNow)
	for _, id := range []string{"s1", "s2", "s3"} {
		p = domain.Apply(p, domain.Update{Action: domain.ActionStepComplete, StepID: id, Outputs: []string{"out"}}, serviceNow)
	}
	p = domain.Apply(p, domain.Update{Action: domain.ActionDecision, Decision: &domain.DecisionDraft{Question: "q", Choice: "c"}}, serviceNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionRisk, Risk: &domain.RiskDraft{Risk: "r"}}, serviceNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionEvidence, Evidence: []domain.Evidence{{Type: domain.EvidenceNote, Value: "done"}}}, serviceNow)

	result := RunGates(p, DefaultGatesConfig())
	if !result.Passed {
		t.Fatalf("gates failed: errors=%+v warnings=%+v", result.Errors, result.Warnings)
	}
	if result.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", result.ExitCode)
	}
}

func TestRunGatesDisabled(t *testing.T) {
	t.Parallel()

	result := RunGates(gateProcess(t), GatesConfig{Enabled: false})
	if !result.Passed || result.ExitCode != 0 {
		t.Fatalf("disabled run = %+v, want unconditional pass", result)
	}
}

func TestRunGatesSeverityOverride(t *testing.T) {
	t.Parallel()

	p := gateProcess(t)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "Only step"}}, serviceNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepComplete, StepID: "s1"}, serviceNow)

	cfg := GatesConfig{
		Enabled: true,
		Gates: []GateToggle{
			{ID: "has_evidence", Enabled: true, Severity: SeverityError},
		},
	}
	result := RunGates(p, cfg)
	if result.Passed {
		t.Fatal("escalated warning should fail the run")
	}
	if len(result.Errors) != 1 || result.Errors[0].Gate.ID != "has_evidence" {
		t.Fatalf("Errors = %+v", result.Errors)
	}
}

func TestRunGatesFailOnWarning(t *testing.T) {
	t.Parallel()

	p := gateProcess(t)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "Only step"}}, serviceNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepComplete, StepID: "s1"}, serviceNow)

	cfg := GatesConfig{
		Enabled: true,
		Gates:   []GateToggle{{ID: "has_evidence", Enabled: true}},
	}
	if result := RunGates(p, cfg); !result.Passed {
		t.Fatalf("warnings alone should pass: %+v", result)
	}

	cfg.FailOnWarning = true
	if result := RunGates(p, cfg); result.Passed {
		t.Fatal("failOnWarning should fail the run on a warning")
	}
}

func TestRunGateUnknownID(t *testing.T) {
	t.Parallel()

	if _, ok := RunGate(gateProcess(t), "no_such_gate"); ok {
		t.Fatal("unknown gate id reported as found")
	}
}

func TestMissingItemsScalesWithLifecycle(t *testing.T) {
	t.Parallel()

	p := gateProcess(t)

	// A freshly planned process only lacks evidence.
	missing := MissingItems(p)
	if len(missing) != 1 || missing[0] != "No evidence recorded" {
		t.Fatalf("planned missing = %+v", missing)
	}

	p = domain.Apply(p, domain.Update{Action: domain.ActionProcessStart, Status: "in_progress"}, serviceNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "one"}}, serviceNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "two"}}, serviceNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "three"}}, serviceNow)

	missing = MissingItems(p)
	for _, want := range []string{
		"No step outputs documented",
		"No evidence recorded",
		"No decisions logged",
		"Risk assessment not done",
		"No rollback procedure defined",
		"No validation/testing step",
	} {
		found := false
		for _, m := range missing {
			if m == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing item %q not reported in %+v", want, missing)
		}
	}

	// Naming a validation step clears that item.
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "Test the importer"}}, serviceNow)
	for _, m := range MissingItems(p) {
		if strings.Contains(m, "validation") {
			t.Errorf("validation still reported missing: %q", m)
		}
	}
}

package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Hysas/procside/internal/domain"
)

func TestExtractBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single block",
			text: "before\n[PROCESS_UPDATE]\naction: step_start\n[/PROCESS_UPDATE]\nafter",
			want: []string{"action: step_start"},
		},
		{
			name: "multiple blocks in order",
			text: "[PROCESS_UPDATE]\naction: step_start\n[/PROCESS_UPDATE]\nmid\n[PROCESS_UPDATE]\naction: step_complete\n[/PROCESS_UPDATE]",
			want: []string{"action: step_start", "action: step_complete"},
		},
		{
			name: "no blocks",
			text: "plain narration with no markers",
			want: nil,
		},
		{
			name: "unterminated block yields nothing",
			text: "[PROCESS_UPDATE]\naction: step_start",
			want: nil,
		},
		{
			name: "complete block before unterminated one",
			text: "[PROCESS_UPDATE]\naction: decision\n[/PROCESS_UPDATE]\n[PROCESS_UPDATE]\naction: risk",
			want: []string{"action: decision"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractBlocks(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractBlocks() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseBlockTopLevelFields(t *testing.T) {
	t.Parallel()

	block := strings.Join([]string{
		"process_id: proc-002",
		"action: step_complete",
		"step_id: s3",
		"status: completed",
		"outputs:",
		"  - internal/parser/parser.go",
		"  - internal/parser/parser_test.go",
	}, "\n")

	u := ParseBlock(block)

	if u.ProcessID != "proc-002" {
		t.Errorf("ProcessID = %q, want %q", u.ProcessID, "proc-002")
	}
	if u.Action != domain.ActionStepComplete {
		t.Errorf("Action = %q, want %q", u.Action, domain.ActionStepComplete)
	}
	if u.StepID != "s3" {
		t.Errorf("StepID = %q, want %q", u.StepID, "s3")
	}
	if u.Status != "completed" {
		t.Errorf("Status = %q, want %q", u.Status, "completed")
	}
	wantOutputs := []string{"internal/parser/parser.go", "internal/parser/parser_test.go"}
	if !reflect.DeepEqual(u.Outputs, wantOutputs) {
		t.Errorf("Outputs = %#v, want %#v", u.Outputs, wantOutputs)
	}
}

func TestParseBlockUnknownActionDegrades(t *testing.T) {
	t.Parallel()

	u := ParseBlock("action: launch_rocket\nstatus: in_progress")
	if u.Action != domain.ActionProcessUpdate {
		t.Fatalf("Action = %q, want %q", u.Action, domain.ActionProcessUpdate)
	}
	if u.Status != "in_progress" {
		t.Fatalf("Status = %q, want %q", u.Status, "in_progress")
	}
}

func TestParseBlockMissingActionDegrades(t *testing.T) {
	t.Parallel()

	u := ParseBlock("status: blocked")
	if u.Action != domain.ActionProcessUpdate {
		t.Fatalf("Action = %q, want %q", u.Action, domain.ActionProcessUpdate)
	}
}

func TestParseBlockUnknownKeysSkipped(t *testing.T) {
	t.Parallel()

	block := strings.Join([]string{
		"action: step_start",
		"step_id: s1",
		"mood: optimistic",
		"telemetry: 42",
	}, "\n")

	u := ParseBlock(block)
	if u.Action != domain.ActionStepStart || u.StepID != "s1" {
		t.Fatalf("unexpected update: %+v", u)
	}
}

func TestParseBlockStepRecord(t *testing.T) {
	t.Parallel()

	block := strings.Join([]string{
		"action: step_add",
		"step:",
		"  id: s4",
		"  name: Write integration tests",
		"  description: Cover the migration path",
		"  inputs:",
		"    - registry.yaml",
		"    - process.yaml",
		"  checks:",
		"    - go test ./...",
		"status: in_progress",
	}, "\n")

	u := ParseBlock(block)

	if u.Step == nil {
		t.Fatal("Step = nil, want draft")
	}
	if u.Step.ID != "s4" {
		t.Errorf("Step.ID = %q, want %q", u.Step.ID, "s4")
	}
	if u.Step.Name != "Write integration tests" {
		t.Errorf("Step.Name = %q", u.Step.Name)
	}
	if u.Step.Description != "Cover the migration path" {
		t.Errorf("Step.Description = %q", u.Step.Description)
	}
	wantInputs := []string{"registry.yaml", "process.yaml"}
	if !reflect.DeepEqual(u.Step.Inputs, wantInputs) {
		t.Errorf("Step.Inputs = %#v, want %#v", u.Step.Inputs, wantInputs)
	}
	if !reflect.DeepEqual(u.Step.Checks, []string{"go test ./..."}) {
		t.Errorf("Step.Checks = %#v", u.Step.Checks)
	}
	// The dedented status line belongs to the update, not the step.
	if u.Status != "in_progress" {
		t.Errorf("Status = %q, want %q", u.Status, "in_progress")
	}
	if u.Step.Status != "" {
		t.Errorf("Step.Status = %q, want empty", u.Step.Status)
	}
}

func TestParseBlockDecisionRecord(t *testing.T) {
	t.Parallel()

	block := strings.Join([]string{
		"action: decision",
		"decision:",
		"  question: Which store format?",
		"  options: yaml, json, sqlite",
		"  choice: yaml",
		"  rationale: Human-diffable under version control",
	}, "\n")

	u := ParseBlock(block)

	if u.Decision == nil {
		t.Fatal("Decision = nil, want draft")
	}
	if u.Decision.Question != "Which store format?" {
		t.Errorf("Question = %q", u.Decision.Question)
	}
	if !reflect.DeepEqual(u.Decision.Options, []string{"yaml", "json", "sqlite"}) {
		t.Errorf("Options = %#v", u.Decision.Options)
	}
	if u.Decision.Choice != "yaml" {
		t.Errorf("Choice = %q", u.Decision.Choice)
	}
	if u.Decision.Rationale != "Human-diffable under version control" {
		t.Errorf("Rationale = %q", u.Decision.Rationale)
	}
}

func TestParseBlockRiskRecord(t *testing.T) {
	t.Parallel()

	block := strings.Join([]string{
		"action: risk",
		"risk:",
		"  risk: Registry write may race with dashboard reload",
		"  impact: medium",
		"  mitigation: Atomic rename on every write",
	}, "\n")

	u := ParseBlock(block)

	if u.Risk == nil {
		t.Fatal("Risk = nil, want draft")
	}
	if u.Risk.Risk != "Registry write may race with dashboard reload" {
		t.Errorf("Risk = %q", u.Risk.Risk)
	}
	if u.Risk.Impact != "medium" {
		t.Errorf("Impact = %q", u.Risk.Impact)
	}
	if u.Risk.Mitigation != "Atomic rename on every write" {
		t.Errorf("Mitigation = %q", u.Risk.Mitigation)
	}
}

func TestParseBlockEvidenceEntries(t *testing.T) {
	t.Parallel()

	block := strings.Join([]string{
		"action: evidence",
		"step_id: s2",
		"evidence:",
		"  - type: command",
		"    value: go vet ./...",
		"  - type: file",
		"    value: internal/domain/apply.go",
	}, "\n")

	u := ParseBlock(block)

	want := []domain.Evidence{
		{Type: domain.EvidenceCommand, Value: "go vet ./..."},
		{Type: domain.EvidenceFile, Value: "internal/domain/apply.go"},
	}
	if !reflect.DeepEqual(u.Evidence, want) {
		t.Fatalf("Evidence = %#v, want %#v", u.Evidence, want)
	}
	if u.StepID != "s2" {
		t.Fatalf("StepID = %q, want %q", u.StepID, "s2")
	}
}

func TestParseBlockMissingList(t *testing.T) {
	t.Parallel()

	block := strings.Join([]string{
		"action: missing",
		"missing:",
		"  - No rollback plan recorded",
		"  - Load test results absent",
	}, "\n")

	u := ParseBlock(block)
	want := []string{"No rollback plan recorded", "Load test results absent"}
	if !reflect.DeepEqual(u.Missing, want) {
		t.Fatalf("Missing = %#v, want %#v", u.Missing, want)
	}
}

func TestParseBlockValueWithColon(t *testing.T) {
	t.Parallel()

	u := ParseBlock("action: evidence\nevidence:\n  - type: url\n    value: https://example.com/ci/run/7")
	if len(u.Evidence) != 1 {
		t.Fatalf("Evidence length = %d, want 1", len(u.Evidence))
	}
	if got := u.Evidence[0].Value; got != "https://example.com/ci/run/7" {
		t.Fatalf("Value = %q", got)
	}
}

func TestParseAll(t *testing.T) {
	t.Parallel()

	text := "working on it\n" +
		"[PROCESS_UPDATE]\naction: step_start\nstep_id: s1\n[/PROCESS_UPDATE]\n" +
		"done, moving on\n" +
		"[PROCESS_UPDATE]\naction: step_complete\nstep_id: s1\n[/PROCESS_UPDATE]\n"

	updates := ParseAll(text)
	if len(updates) != 2 {
		t.Fatalf("ParseAll() returned %d updates, want 2", len(updates))
	}
	if updates[0].Action != domain.ActionStepStart || updates[1].Action != domain.ActionStepComplete {
		t.Fatalf("unexpected actions: %q, %q", updates[0].Action, updates[1].Action)
	}
}

func TestFormatBlockRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		update domain.Update
	}{
		{
			name: "step completion with outputs",
			update: domain.Update{
				ProcessID: "proc-001",
				Action:    domain.ActionStepComplete,
				StepID:    "s2",
				Status:    "completed",
				Outputs:   []string{"cmd/procside/main.go", "go.mod"},
			},
		},
		{
			name: "evidence entries",
			update: domain.Update{
				Action: domain.ActionEvidence,
				StepID: "s1",
				Evidence: []domain.Evidence{
					{Type: domain.EvidenceCommand, Value: "go test ./..."},
					{Type: domain.EvidenceNote, Value: "all green on second run"},
				},
			},
		},
		{
			name: "decision with options",
			update: domain.Update{
				Action: domain.ActionDecision,
				Decision: &domain.DecisionDraft{
					Question:  "Keep legacy file after migration?",
					Options:   []string{"keep", "delete"},
					Choice:    "delete",
					Rationale: "Registry is the single source of truth",
				},
			},
		},
		{
			name: "risk",
			update: domain.Update{
				Action: domain.ActionRisk,
				Risk: &domain.RiskDraft{
					Risk:       "Snapshot directory may grow unbounded",
					Impact:     "low",
					Mitigation: "Prune during archive",
				},
			},
		},
		{
			name: "missing items",
			update: domain.Update{
				Action:  domain.ActionMissing,
				Missing: []string{"error budget", "on-call runbook"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			formatted := FormatBlock(tt.update)
			if !strings.HasPrefix(formatted, StartMarker) || !strings.HasSuffix(formatted, EndMarker) {
				t.Fatalf("formatted block missing markers:\n%s", formatted)
			}

			parsed := ParseAll(formatted)
			if len(parsed) != 1 {
				t.Fatalf("round trip produced %d updates, want 1", len(parsed))
			}
			if !reflect.DeepEqual(parsed[0], tt.update) {
				t.Fatalf("round trip mismatch:\ngot  %#v\nwant %#v", parsed[0], tt.update)
			}
		})
	}
}

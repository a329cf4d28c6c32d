package domain

import (
	"testing"
)

func TestGenerateProcessID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{name: "empty registry", existing: nil, want: "proc-001"},
		{name: "sequential", existing: []string{"proc-001"}, want: "proc-002"},
		{name: "gaps do not backfill", existing: []string{"proc-001", "proc-003"}, want: "proc-004"},
		{name: "padding past gaps", existing: []string{"proc-010"}, want: "proc-011"},
		{name: "four digit ids keep growing", existing: []string{"proc-1000"}, want: "proc-1001"},
		{name: "foreign ids ignored", existing: []string{"legacy-import", "proc-002"}, want: "proc-003"},
		{name: "only foreign ids", existing: []string{"legacy-import"}, want: "proc-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := GenerateProcessID(tt.existing); got != tt.want {
				t.Fatalf("GenerateProcessID(%v) = %q, want %q", tt.existing, got, tt.want)
			}
		})
	}
}

func TestNewProcessMeta(t *testing.T) {
	t.Parallel()

	p := testProcess(t)
	p = Apply(p, Update{Action: ActionStepAdd, Step: &StepDraft{Name: "one"}}, t0)
	p = Apply(p, Update{Action: ActionStepAdd, Step: &StepDraft{Name: "two"}}, t0)
	p = Apply(p, Update{Action: ActionStepAdd, Step: &StepDraft{Name: "three"}}, t0)
	p = Apply(p, Update{Action: ActionStepComplete, StepID: "s1", Outputs: nil}, t1)

	m := NewProcessMeta(p)
	if m.ID != p.ID || m.Name != p.Name || m.Goal != p.Goal {
		t.Errorf("identity fields not carried: %+v", m)
	}
	// 1 of 3 completed rounds to 33.
	if m.Progress != 33 {
		t.Errorf("Progress = %d, want 33", m.Progress)
	}
	if m.Archived || m.ArchivedAt != nil {
		t.Errorf("fresh meta should not be archived: %+v", m)
	}
	if m.Tags == nil {
		t.Error("Tags should serialize as empty list, not null")
	}
}

func TestFindMeta(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Processes = append(r.Processes,
		ProcessMeta{ID: "proc-001", Name: "first"},
		ProcessMeta{ID: "proc-002", Name: "second"},
	)

	if i := r.FindMeta("proc-002"); i != 1 {
		t.Errorf("FindMeta(proc-002) = %d, want 1", i)
	}
	if i := r.FindMeta("proc-009"); i != -1 {
		t.Errorf("FindMeta(proc-009) = %d, want -1", i)
	}
}

func TestProcessProgressRounding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		total     int
		completed int
		want      int
	}{
		{name: "no steps", total: 0, completed: 0, want: 0},
		{name: "none done", total: 4, completed: 0, want: 0},
		{name: "half", total: 2, completed: 1, want: 50},
		{name: "two thirds rounds up", total: 3, completed: 2, want: 67},
		{name: "one third rounds down", total: 3, completed: 1, want: 33},
		{name: "all done", total: 5, completed: 5, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := testProcess(t)
			for i := 0; i < tt.total; i++ {
				p = Apply(p, Update{Action: ActionStepAdd, Step: &StepDraft{}}, t0)
			}
			for i := 0; i < tt.completed; i++ {
				p = Apply(p, Update{Action: ActionStepComplete, StepID: p.Steps[i].ID}, t1)
			}
			if got := p.Progress(); got != tt.want {
				t.Fatalf("Progress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewProcessValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewProcess("", "name", "goal", "", t0); err == nil {
		t.Error("empty id accepted")
	}
	if _, err := NewProcess("proc-001", "", "goal", "", t0); err == nil {
		t.Error("empty name accepted")
	}

	p, err := NewProcess("proc-001", "Ship importer", "Import legacy data", "code-feature", t0)
	if err != nil {
		t.Fatalf("NewProcess() error = %v", err)
	}
	if p.Status != ProcessPlanned {
		t.Errorf("Status = %q, want %q", p.Status, ProcessPlanned)
	}
	if p.Template != "code-feature" {
		t.Errorf("Template = %q", p.Template)
	}
	if !p.CreatedAt.Equal(t0) || !p.UpdatedAt.Equal(t0) {
		t.Errorf("timestamps = %v %v, want %v", p.CreatedAt, p.UpdatedAt, t0)
	}
	if p.Steps == nil || p.Decisions == nil || p.Risks == nil || p.Evidence == nil {
		t.Error("collections should initialize empty, not nil")
	}
}

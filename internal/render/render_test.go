package render

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Hysas/procside/internal/domain"
)

var renderNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func renderProcess(t *testing.T) domain.Process {
	t.Helper()

	p, err := domain.NewProcess("proc-001", "Ship importer", "Import legacy data", "code-feature", renderNow)
	if err != nil {
		t.Fatalf("NewProcess() error = %v", err)
	}
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{
		Name:   "Design schema",
		Inputs: []string{"dump.sql"},
		Checks: []string{"row counts match"},
	}}, renderNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &domain.StepDraft{Name: "Load data"}}, renderNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepComplete, StepID: "s1", Outputs: []string{"schema.sql"}}, renderNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionStepStart, StepID: "s2"}, renderNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionDecision, Decision: &domain.DecisionDraft{
		Question: "Batch or stream?", Choice: "batch", Rationale: "Volume is bounded",
	}}, renderNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionRisk, Risk: &domain.RiskDraft{
		Risk: "Timeout on large dumps", Impact: "high", Mitigation: "Chunked loads",
	}}, renderNow)
	p = domain.Apply(p, domain.Update{Action: domain.ActionEvidence, Evidence: []domain.Evidence{
		{Type: domain.EvidenceCommand, Value: "make import"},
	}}, renderNow)
	return p
}

func TestMarkdownSections(t *testing.T) {
	t.Parallel()

	p := renderProcess(t)
	out := Markdown(p, []string{"No rollback procedure defined"}, renderNow)

	for _, want := range []string{
		"# Process: Ship importer",
		"> **Goal:** Import legacy data",
		"> **ID:** `proc-001`",
		"> **Template:** code-feature",
		"**Progress:** 1/2 steps completed",
		"## Steps",
		"| 1 | Design schema |",
		"## Decisions",
		"| Batch or stream? | batch | Volume is bounded |",
		"## Risks",
		"| Timeout on large dumps | high | Chunked loads |",
		"## Evidence",
		"- **[command]** make import",
		"## What's Missing",
		"- [ ] No rollback procedure defined",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestMarkdownOmitsEmptySections(t *testing.T) {
	t.Parallel()

	p, err := domain.NewProcess("proc-001", "Bare", "nothing yet", "", renderNow)
	if err != nil {
		t.Fatalf("NewProcess() error = %v", err)
	}
	out := Markdown(p, nil, renderNow)

	for _, section := range []string{"## Steps", "## Decisions", "## Risks", "## Evidence", "## What's Missing", "**Progress:**"} {
		if strings.Contains(out, section) {
			t.Errorf("markdown for empty process contains %q", section)
		}
	}
}

func TestMarkdownTruncatesLongRationale(t *testing.T) {
	t.Parallel()

	p, err := domain.NewProcess("proc-001", "P", "g", "", renderNow)
	if err != nil {
		t.Fatalf("NewProcess() error = %v", err)
	}
	long := strings.Repeat("because ", 20)
	p = domain.Apply(p, domain.Update{Action: domain.ActionDecision, Decision: &domain.DecisionDraft{
		Question: "q", Choice: "c", Rationale: long,
	}}, renderNow)

	out := Markdown(p, nil, renderNow)
	if strings.Contains(out, long) {
		t.Error("long rationale not truncated")
	}
	if !strings.Contains(out, "...") {
		t.Error("truncation marker missing")
	}
}

func TestMarkdownTruncatesOnRuneBoundaries(t *testing.T) {
	t.Parallel()

	p, err := domain.NewProcess("proc-001", "P", "g", "", renderNow)
	if err != nil {
		t.Fatalf("NewProcess() error = %v", err)
	}
	long := strings.Repeat("åäö", 30)
	p = domain.Apply(p, domain.Update{Action: domain.ActionDecision, Decision: &domain.DecisionDraft{
		Question: "q", Choice: "c", Rationale: long,
	}}, renderNow)

	out := Markdown(p, nil, renderNow)
	if !utf8.ValidString(out) {
		t.Fatal("truncated report contains invalid UTF-8")
	}
	if !strings.Contains(out, strings.Repeat("åäö", 15)+"åä...") {
		t.Error("rationale not cut at the 47 rune mark")
	}
}

func TestMermaidFlowchart(t *testing.T) {
	t.Parallel()

	p := renderProcess(t)
	out := Mermaid(p)

	if !strings.HasPrefix(out, "flowchart TD") {
		t.Fatalf("unexpected prefix:\n%s", out)
	}
	// Completed steps connect with solid edges, the rest dashed.
	if !strings.Contains(out, "s1 --> s2") {
		t.Errorf("solid edge missing:\n%s", out)
	}
	if !strings.Contains(out, "class s1 completed") {
		t.Errorf("style class missing:\n%s", out)
	}
	if !strings.Contains(out, "class s2 inProgress") {
		t.Errorf("in-progress class missing:\n%s", out)
	}
}

func TestMermaidEmptyProcess(t *testing.T) {
	t.Parallel()

	p, err := domain.NewProcess("proc-001", "Bare", "g", "", renderNow)
	if err != nil {
		t.Fatalf("NewProcess() error = %v", err)
	}
	if out := Mermaid(p); !strings.Contains(out, `empty["No steps defined"]`) {
		t.Fatalf("placeholder node missing:\n%s", out)
	}
}

func TestMermaidEscapesQuotes(t *testing.T) {
	t.Parallel()

	p, err := domain.NewProcess("proc-001", `Say "hello"`, "g", "", renderNow)
	if err != nil {
		t.Fatalf("NewProcess() error = %v", err)
	}
	if out := Mermaid(p); strings.Contains(out, `"Say "hello""`) {
		t.Fatalf("quotes not escaped:\n%s", out)
	}
}

func TestMermaidSimple(t *testing.T) {
	t.Parallel()

	p := renderProcess(t)
	out := MermaidSimple(p)

	if !strings.HasPrefix(out, "```mermaid") || !strings.HasSuffix(out, "```") {
		t.Fatalf("not fenced:\n%s", out)
	}
	if !strings.Contains(out, "s0 --> s1") {
		t.Errorf("edge missing:\n%s", out)
	}
}

func TestChecklist(t *testing.T) {
	t.Parallel()

	p := renderProcess(t)
	out := Checklist(p)

	for _, want := range []string{
		"# Process Checklist",
		"Process: **Ship importer**",
		"- [x] Design schema",
		"  - [ ] row counts match",
		"- [ ] Load data",
		"## Decisions Made",
		"- [x] Batch or stream? → **batch**",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("checklist missing %q\n%s", want, out)
		}
	}
}

func TestTermRendererFallsBackToPlainText(t *testing.T) {
	t.Parallel()

	r := &TermRenderer{}
	if out := r.Term("", 80); out != "" {
		t.Fatalf("empty input rendered %q", out)
	}
	out := r.Term("# Heading", 80)
	if out == "" {
		t.Fatal("rendered output empty")
	}
	if !strings.Contains(out, "Heading") {
		t.Fatalf("heading text lost: %q", out)
	}
}

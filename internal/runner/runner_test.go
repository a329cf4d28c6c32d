package runner

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Hysas/procside/internal/adapters/storage/yamlstore"
	"github.com/Hysas/procside/internal/app"
	"github.com/Hysas/procside/internal/domain"
)

func newTestRunner(t *testing.T) (*Runner, *app.Service) {
	t.Helper()

	store, err := yamlstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("yamlstore.New() error = %v", err)
	}
	svc := app.NewService(store, time.Now)
	return New(svc, nil), svc
}

func TestRunCapturesUpdates(t *testing.T) {
	t.Parallel()

	r, svc := newTestRunner(t)
	ctx := context.Background()
	if _, err := svc.Init(ctx, "Agent work", "capture updates", ""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	script := "echo working...\n" +
		"echo '[PROCESS_UPDATE]'\n" +
		"echo 'action: step_add'\n" +
		"echo 'step:'\n" +
		"echo '  name: Generated step'\n" +
		"echo '[/PROCESS_UPDATE]'\n" +
		"echo '[PROCESS_UPDATE]'\n" +
		"echo 'action: step_start'\n" +
		"echo 'step_id: s1'\n" +
		"echo '[/PROCESS_UPDATE]'\n" +
		"echo done\n"

	var seen []domain.Update
	result, err := r.Run(ctx, Options{
		Command:  script,
		OnUpdate: func(u domain.Update) { seen = append(seen, u) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("ExitCode = %d", result.ExitCode)
	}
	if len(result.Updates) != 2 {
		t.Fatalf("Updates = %+v, want 2", result.Updates)
	}
	if len(seen) != 2 {
		t.Fatalf("OnUpdate saw %d updates, want 2", len(seen))
	}
	if result.Updates[0].Action != domain.ActionStepAdd || result.Updates[1].Action != domain.ActionStepStart {
		t.Errorf("actions = %q, %q", result.Updates[0].Action, result.Updates[1].Action)
	}
	if !strings.Contains(result.Output, "working...") || !strings.Contains(result.Output, "done") {
		t.Errorf("narration lost from output:\n%s", result.Output)
	}

	p, err := svc.Active(ctx)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if len(p.Steps) != 1 || p.Steps[0].Status != domain.StepInProgress {
		t.Fatalf("persisted steps = %+v", p.Steps)
	}
}

func TestRunReportsExitCode(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	result, err := r.Run(context.Background(), Options{Command: "exit 3"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", result.ExitCode)
	}
}

func TestRunWithoutBlocks(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	result, err := r.Run(context.Background(), Options{Command: "echo nothing structured"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Updates) != 0 {
		t.Fatalf("Updates = %+v, want none", result.Updates)
	}
}

func TestRunStreamsStderr(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	var streamed strings.Builder
	result, err := r.Run(context.Background(), Options{
		Command:  "echo to stderr 1>&2",
		OnOutput: func(s string) { streamed.WriteString(s) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result.Output, "to stderr") {
		t.Errorf("stderr missing from output: %q", result.Output)
	}
	if !strings.Contains(streamed.String(), "to stderr") {
		t.Errorf("stderr missing from stream: %q", streamed.String())
	}
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	if _, err := r.Run(context.Background(), Options{Command: "  "}); err == nil {
		t.Fatal("empty command accepted")
	}
}

func TestRunCreatesDefaultProcess(t *testing.T) {
	t.Parallel()

	r, svc := newTestRunner(t)
	ctx := context.Background()

	command := fmt.Sprintf("printf '%s\\naction: step_add\\nstep:\\n  name: Bootstrap\\n%s\\n'",
		"[PROCESS_UPDATE]", "[/PROCESS_UPDATE]")
	if _, err := r.Run(ctx, Options{Command: command}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	p, err := svc.Active(ctx)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if p.Name != app.DefaultProcessName {
		t.Fatalf("Name = %q, want %q", p.Name, app.DefaultProcessName)
	}
}

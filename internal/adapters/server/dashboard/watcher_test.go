package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// waitSignal blocks until the hub delivers or the timeout passes.
func waitSignal(t *testing.T, ch <-chan struct{}, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcherSignalsOnFileWrite(t *testing.T) {
	root := t.TempDir()
	artifactDir := filepath.Join(root, ".ai")
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	events := NewHub()
	w, err := NewWatcher(artifactDir, events, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()

	signals, unsubscribe := events.subscribe()
	defer unsubscribe()

	// Give the watcher time to register the directory before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(artifactDir, "registry.yaml"), []byte("version: 2\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !waitSignal(t, signals, 3*time.Second) {
		t.Fatal("no signal after file write")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatcherFollowsNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	artifactDir := filepath.Join(root, ".ai")
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	events := NewHub()
	w, err := NewWatcher(artifactDir, events, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	signals, unsubscribe := events.subscribe()
	defer unsubscribe()

	time.Sleep(100 * time.Millisecond)

	processesDir := filepath.Join(artifactDir, "processes")
	if err := os.MkdirAll(processesDir, 0o755); err != nil {
		t.Fatalf("mkdir processes: %v", err)
	}
	// Let the watcher pick up the new directory before writing into it.
	time.Sleep(200 * time.Millisecond)
	drainSignals(signals)

	if err := os.WriteFile(filepath.Join(processesDir, "proc-001.yaml"), []byte("id: proc-001\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !waitSignal(t, signals, 3*time.Second) {
		t.Fatal("no signal for file in new subdirectory")
	}
}

func TestWatcherRequiresRoot(t *testing.T) {
	if _, err := NewWatcher("", NewHub(), nil); err == nil {
		t.Fatal("NewWatcher with empty root should fail")
	}
}

func drainSignals(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

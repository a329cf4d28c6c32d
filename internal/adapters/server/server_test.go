package server

import (
	"context"
	"testing"
	"time"

	"github.com/Hysas/procside/internal/adapters/storage/yamlstore"
	"github.com/Hysas/procside/internal/app"
)

func TestRunRequiresService(t *testing.T) {
	err := Run(context.Background(), Config{}, Dependencies{})
	if err == nil {
		t.Fatal("Run without a service should fail")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	root := t.TempDir()
	store, err := yamlstore.New(root)
	if err != nil {
		t.Fatalf("yamlstore.New() error = %v", err)
	}
	svc := app.NewService(store, time.Now)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, Config{Bind: "127.0.0.1:0"}, Dependencies{Service: svc})
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil after graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNormalizeConfigDefaults(t *testing.T) {
	cfg := normalizeConfig(Config{})
	if cfg.Bind != defaultBindAddress {
		t.Errorf("Bind = %q, want %q", cfg.Bind, defaultBindAddress)
	}
	if len(cfg.Gates.Gates) == 0 {
		t.Error("Gates should default to the full gate set")
	}
}

// Package server runs the dashboard HTTP transport with live reload.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Hysas/procside/internal/adapters/server/dashboard"
	"github.com/Hysas/procside/internal/app"
)

// defaultBindAddress defines the localhost-first serve default.
const defaultBindAddress = "127.0.0.1:7458"

// defaultShutdownTimeout bounds graceful shutdown time once context cancellation starts.
const defaultShutdownTimeout = 5 * time.Second

// Config defines serve-mode configuration.
type Config struct {
	Bind     string
	WatchDir string
	Gates    app.GatesConfig
}

// Dependencies defines what the server transports need from the app.
type Dependencies struct {
	Service *app.Service
	Logger  *log.Logger
}

// Run serves the dashboard until ctx is cancelled, watching the
// artifact directory so connected pages reload on every change.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = normalizeConfig(cfg)
	if deps.Service == nil {
		return fmt.Errorf("process service is required")
	}

	events := dashboard.NewHub()
	handler, err := dashboard.NewHandler(deps.Service, cfg.Gates, events, deps.Logger)
	if err != nil {
		return fmt.Errorf("build dashboard handler: %w", err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if cfg.WatchDir != "" {
		watcher, err := dashboard.NewWatcher(cfg.WatchDir, events, deps.Logger)
		if err != nil {
			return fmt.Errorf("build artifact watcher: %w", err)
		}
		go func() {
			if err := watcher.Start(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				if deps.Logger != nil {
					deps.Logger.Warn("artifact watcher stopped", "err", err)
				}
			}
		}()
	}

	httpServer := &http.Server{
		Addr:    cfg.Bind,
		Handler: handler,
	}
	if deps.Logger != nil {
		deps.Logger.Info("dashboard listening", "addr", cfg.Bind)
	}

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)
		serveErr := <-serveErrCh
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) {
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve after shutdown: %w", serveErr)
		}
		return nil
	}
}

// normalizeConfig applies serve defaults.
func normalizeConfig(cfg Config) Config {
	cfg.Bind = strings.TrimSpace(cfg.Bind)
	if cfg.Bind == "" {
		cfg.Bind = defaultBindAddress
	}
	if len(cfg.Gates.Gates) == 0 {
		cfg.Gates = app.DefaultGatesConfig()
	}
	return cfg
}

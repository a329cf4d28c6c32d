// Command procside tracks AI agent work as a living process document.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Hysas/procside/internal/adapters/storage/yamlstore"
	"github.com/Hysas/procside/internal/app"
	"github.com/Hysas/procside/internal/config"
)

// version is stamped by the release build.
var version = "dev"

const logFileName = "procside.log"

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
	); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the full command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "procside",
		Short:         "Process tracking for AI agent work",
		Long:          "procside captures tagged update blocks from agent output and keeps\na versioned process document: steps, decisions, risks, and evidence.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("path", "p", ".", "project path")

	root.AddCommand(
		newInitCmd(),
		newRunCmd(),
		newStatusCmd(),
		newRenderCmd(),
		newStepCmd(),
		newAddStepCmd(),
		newDecideCmd(),
		newRiskCmd(),
		newEvidenceCmd(),
		newMissingCmd(),
		newCheckCmd(),
		newGatesCmd(),
		newConfigCmd(),
		newTemplatesCmd(),
		newListCmd(),
		newSwitchCmd(),
		newArchiveCmd(),
		newRestoreCmd(),
		newVersionCmd(),
		newHistoryCmd(),
		newLogCmd(),
		newDashboardCmd(),
		newMCPCmd(),
	)
	return root
}

// cliEnv bundles what every command needs: resolved config, the
// service over the project store, and a logger honoring config level.
type cliEnv struct {
	projectPath string
	cfg         config.Config
	svc         *app.Service
	logger      *charmLog.Logger
}

// newEnv resolves the project path flag and wires the service.
func newEnv(cmd *cobra.Command) (cliEnv, error) {
	projectPath, err := cmd.Flags().GetString("path")
	if err != nil {
		return cliEnv{}, err
	}
	cfg, err := config.Load(projectPath)
	if err != nil {
		return cliEnv{}, fmt.Errorf("load config: %w", err)
	}
	store, err := yamlstore.NewWithArtifactDir(projectPath, cfg.ArtifactDir)
	if err != nil {
		return cliEnv{}, fmt.Errorf("open project store: %w", err)
	}
	return cliEnv{
		projectPath: projectPath,
		cfg:         cfg,
		svc:         app.NewService(store, time.Now),
		logger:      newLogger(cfg, cmd.ErrOrStderr(), projectPath),
	}, nil
}

// newLogger builds the runtime logger from config. Silent mode drops
// everything; log output goes to stderr so command output stays clean.
func newLogger(cfg config.Config, stderr io.Writer, projectPath string) *charmLog.Logger {
	if cfg.Silent {
		stderr = io.Discard
	}
	out := stderr
	logPath := filepath.Join(projectPath, cfg.ArtifactDir, logFileName)
	if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
		out = io.MultiWriter(stderr, f)
	}
	logger := charmLog.NewWithOptions(out, charmLog.Options{
		ReportTimestamp: false,
	})
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logger.SetLevel(charmLog.DebugLevel)
	case "warn":
		logger.SetLevel(charmLog.WarnLevel)
	case "error":
		logger.SetLevel(charmLog.ErrorLevel)
	default:
		logger.SetLevel(charmLog.InfoLevel)
	}
	return logger
}

// splitCSV parses a comma-separated flag value, dropping empties.
func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

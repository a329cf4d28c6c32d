package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Hysas/procside/internal/adapters/server"
	"github.com/Hysas/procside/internal/adapters/server/mcpapi"
	"github.com/Hysas/procside/internal/app"
	"github.com/Hysas/procside/internal/config"
	"github.com/Hysas/procside/internal/domain"
	"github.com/Hysas/procside/internal/render"
)

func newListCmd() *cobra.Command {
	var all, asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			metas, err := env.svc.List(ctx, all)
			if err != nil {
				return err
			}
			activeID, err := env.svc.ActiveID(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"processes":       metas,
					"activeProcessId": activeID,
				})
			}
			if len(metas) == 0 {
				fmt.Fprintln(out, `No processes found. Run "procside init" to create one.`)
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"", "ID", "NAME", "STATUS", "PROGRESS", "UPDATED"})
			for _, m := range metas {
				marker := ""
				if m.ID == activeID {
					marker = "*"
				}
				status := string(m.Status)
				if m.Archived {
					status += " (archived)"
				}
				t.AppendRow(table.Row{
					marker,
					m.ID,
					m.Name,
					status,
					fmt.Sprintf("%d%%", m.Progress),
					m.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include archived processes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <id>",
		Short: "Switch the active process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.svc.Switch(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to process %s\n", args[0])
			return nil
		},
	}
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.svc.Archive(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived process %s\n", args[0])
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore an archived process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.svc.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored process %s\n", args[0])
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	var processID string
	cmd := &cobra.Command{
		Use:   "version [note]",
		Short: "Snapshot the current process state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			note := ""
			if len(args) > 0 {
				note = args[0]
			}

			var n int
			id := processID
			if id == "" {
				if n, err = env.svc.SnapshotActive(ctx, note); err != nil {
					return err
				}
				if id, err = env.svc.ActiveID(ctx); err != nil {
					return err
				}
			} else if n, err = env.svc.SnapshotProcess(ctx, id, note); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created version %d of process %s\n", n, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&processID, "process", "", "process ID (defaults to active)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [id]",
		Short: "Show version snapshots of a process",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var id string
			if len(args) > 0 {
				id = args[0]
			} else if id, err = env.svc.ActiveID(ctx); err != nil {
				return err
			}
			if id == "" {
				fmt.Fprintln(out, `No active process. Run "procside init" first.`)
				return nil
			}

			versions, err := env.svc.Versions(ctx, id)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Fprintf(out, "No versions recorded for %s. Use \"procside version\" to create one.\n", id)
				return nil
			}

			fmt.Fprintf(out, "Version snapshots for %s:\n\n", id)
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"VERSION", "CREATED", "REASON"})
			for i := len(versions) - 1; i >= 0; i-- {
				v := versions[i]
				label := fmt.Sprintf("v%d", v.Version)
				if i == len(versions)-1 {
					label += " (current)"
				}
				t.AppendRow(table.Row{
					label,
					v.SnapshotAt.Format("2006-01-02 15:04:05"),
					v.Reason,
				})
			}
			t.Render()
			return nil
		},
	}
}

func newLogCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent process updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			entries, err := env.svc.History(cmd.Context(), count)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No updates recorded yet.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"TIME", "ACTION", "DETAIL"})
			for _, e := range entries {
				t.AppendRow(table.Row{
					e.Timestamp.Format("2006-01-02 15:04:05"),
					string(e.Data.Action),
					historyDetail(e.Data),
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 20, "number of entries to show")
	return cmd
}

func historyDetail(u domain.Update) string {
	switch {
	case u.Step != nil:
		if u.Step.Name != "" {
			return fmt.Sprintf("%s: %s", u.Step.ID, u.Step.Name)
		}
		return u.Step.ID
	case u.StepID != "":
		return u.StepID
	case u.Decision != nil:
		return fmt.Sprintf("%s -> %s", u.Decision.Question, u.Decision.Choice)
	case u.Risk != nil:
		return u.Risk.Risk
	case len(u.Evidence) > 0:
		return fmt.Sprintf("[%s] %s", u.Evidence[0].Type, u.Evidence[0].Value)
	case u.Status != "":
		return "status: " + u.Status
	}
	return ""
}

func newConfigCmd() *cobra.Command {
	var initConfig bool
	var set []string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit project configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if initConfig {
				if config.Exists(env.projectPath) {
					fmt.Fprintf(out, "Config already exists at %s\n", config.Path(env.projectPath))
					return nil
				}
				path, err := config.Write(config.Default(), env.projectPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Created config at %s\n", path)
				return nil
			}

			if len(set) > 0 {
				cfg := env.cfg
				for _, pair := range set {
					key, value, ok := strings.Cut(pair, "=")
					if !ok {
						return fmt.Errorf("invalid --set %q (want key=value)", pair)
					}
					if err := applySetting(&cfg, key, value); err != nil {
						return err
					}
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				path, err := config.Write(cfg, env.projectPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Updated config at %s\n", path)
				return nil
			}

			fmt.Fprintf(out, "Config file: %s", config.Path(env.projectPath))
			if !config.Exists(env.projectPath) {
				fmt.Fprint(out, " (not present, using defaults)")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  environment:    %s\n", env.cfg.Environment)
			fmt.Fprintf(out, "  artifact_dir:   %s\n", env.cfg.ArtifactDir)
			fmt.Fprintf(out, "  log_level:      %s\n", env.cfg.LogLevel)
			fmt.Fprintf(out, "  silent:         %t\n", env.cfg.Silent)
			fmt.Fprintf(out, "  default_format: %s\n", env.cfg.DefaultFormat)
			fmt.Fprintf(out, "  auto_evidence:  %t\n", env.cfg.AutoEvidence)
			fmt.Fprintf(out, "  server.addr:    %s\n", env.cfg.Server.Addr)
			fmt.Fprintf(out, "  quality_gates:  enabled=%t fail_on_warning=%t\n",
				env.cfg.QualityGates.Enabled, env.cfg.QualityGates.FailOnWarning)
			return nil
		},
	}
	cmd.Flags().BoolVar(&initConfig, "init", false, "create a default config file")
	cmd.Flags().StringArrayVar(&set, "set", nil, "set a config value (key=value)")
	return cmd
}

func applySetting(cfg *config.Config, key, value string) error {
	switch key {
	case "artifact_dir":
		cfg.ArtifactDir = value
	case "log_level":
		cfg.LogLevel = value
	case "silent":
		cfg.Silent = value == "true"
	case "default_format":
		cfg.DefaultFormat = value
	case "auto_evidence":
		cfg.AutoEvidence = value == "true"
	case "server.addr":
		cfg.Server.Addr = value
	case "quality_gates.fail_on_warning":
		cfg.QualityGates.FailOnWarning = value == "true"
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func newDashboardCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the live process dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = env.cfg.Server.Addr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard running at http://%s\n", addr)
			return server.Run(cmd.Context(), server.Config{
				Bind:     addr,
				WatchDir: filepath.Join(env.projectPath, env.cfg.ArtifactDir),
				Gates:    env.cfg.Gates(),
			}, server.Dependencies{
				Service: env.svc,
				Logger:  env.logger,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config server.addr)")
	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve process tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			srv, err := mcpapi.New(mcpapi.Config{
				ServerName:    "procside",
				ServerVersion: version,
				Gates:         env.cfg.Gates(),
			}, env.svc)
			if err != nil {
				return err
			}
			return srv.ServeStdio()
		},
	}
}

func statusBadge(s domain.ProcessStatus) string {
	switch s {
	case domain.ProcessCompleted:
		return render.OkStyle.Render("[" + string(s) + "]")
	case domain.ProcessBlocked, domain.ProcessCancelled:
		return render.ErrorStyle.Render("[" + string(s) + "]")
	case domain.ProcessInProgress:
		return render.WarningStyle.Render("[" + string(s) + "]")
	}
	return render.SubtleStyle.Render("[" + string(s) + "]")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

type gateResultJSON struct {
	Gate     string `json:"gate"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type checkJSON struct {
	Passed   bool             `json:"passed"`
	Errors   []gateResultJSON `json:"errors"`
	Warnings []gateResultJSON `json:"warnings"`
	ExitCode int              `json:"exitCode"`
}

func checkResultJSON(r app.CheckResult) checkJSON {
	conv := func(in []app.GateResult) []gateResultJSON {
		out := make([]gateResultJSON, 0, len(in))
		for _, g := range in {
			out = append(out, gateResultJSON{
				Gate:     g.Gate.ID,
				Passed:   g.Passed,
				Message:  g.Message,
				Severity: string(g.Severity),
			})
		}
		return out
	}
	return checkJSON{
		Passed:   r.Passed,
		Errors:   conv(r.Errors),
		Warnings: conv(r.Warnings),
		ExitCode: r.ExitCode,
	}
}

func printCheckResult(out io.Writer, r app.CheckResult) {
	fmt.Fprintln(out, "Quality Check Results:")
	fmt.Fprintln(out)
	for _, e := range r.Errors {
		fmt.Fprintln(out, render.ErrorStyle.Render(fmt.Sprintf("  FAIL %s: %s", e.Gate.Name, e.Message)))
	}
	for _, w := range r.Warnings {
		fmt.Fprintln(out, render.WarningStyle.Render(fmt.Sprintf("  WARN %s: %s", w.Gate.Name, w.Message)))
	}
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		fmt.Fprintln(out, render.OkStyle.Render("  All gates passed"))
	}
	fmt.Fprintln(out)
	if r.Passed {
		fmt.Fprintln(out, render.OkStyle.Render("Result: PASSED"))
	} else {
		fmt.Fprintln(out, render.ErrorStyle.Render("Result: FAILED"))
	}
}

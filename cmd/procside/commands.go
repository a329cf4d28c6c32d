package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hysas/procside/internal/app"
	"github.com/Hysas/procside/internal/domain"
	"github.com/Hysas/procside/internal/render"
	"github.com/Hysas/procside/internal/runner"
)

func newInitCmd() *cobra.Command {
	var name, goal, template string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize procside in the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if needed, err := env.svc.NeedsMigration(ctx); err == nil && needed {
				fmt.Fprintln(out, "Migrating to multi-process format...")
				if _, err := env.svc.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate legacy process: %w", err)
				}
				fmt.Fprintln(out, "Migration complete.")
				fmt.Fprintln(out)
			}

			var tpl *app.Template
			if template != "" {
				loaded, err := loadTemplate(env.projectPath, template)
				switch {
				case errors.Is(err, os.ErrNotExist):
					fmt.Fprintf(out, "Template %q not found at %s\n", template, templatePath(env.projectPath, template))
				case err != nil:
					return err
				default:
					tpl = &loaded
					fmt.Fprintf(out, "Loaded template: %s (%d steps, %d risks)\n", template, len(loaded.Steps), len(loaded.Risks))
				}
			}

			var proc domain.Process
			if tpl != nil {
				proc, err = env.svc.InitFromTemplate(ctx, name, goal, *tpl)
			} else {
				proc, err = env.svc.Init(ctx, name, goal, template)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Initialized procside in %s\n", filepath.Join(env.projectPath, env.cfg.ArtifactDir))
			fmt.Fprintf(out, "Process ID: %s\n", proc.ID)
			fmt.Fprintf(out, "Process Name: %s\n", proc.Name)
			if template != "" {
				fmt.Fprintf(out, "Template: %s\n", template)
			}
			if len(proc.Steps) > 0 {
				fmt.Fprintln(out, "\nSteps loaded:")
				for i, s := range proc.Steps {
					fmt.Fprintf(out, "  %d. %s\n", i+1, s.Name)
				}
			}
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, `  1. Run an agent: procside run "claude code"`)
			fmt.Fprintln(out, "  2. View status: procside status")
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", app.DefaultProcessName, "process name")
	cmd.Flags().StringVarP(&goal, "goal", "g", app.DefaultProcessGoal, "process goal")
	cmd.Flags().StringVarP(&template, "template", "t", "", "process template to use")
	return cmd
}

func newRunCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Run an agent command and capture process updates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			r := runner.New(env.svc, env.logger)
			result, err := r.Run(cmd.Context(), runner.Options{
				Command: args[0],
				OnOutput: func(chunk string) {
					fmt.Fprint(out, chunk)
				},
				OnUpdate: func(u domain.Update) {
					if asJSON {
						if raw, err := json.Marshal(u); err == nil {
							fmt.Fprintln(out, string(raw))
						}
					}
				},
			})
			if err != nil {
				return fmt.Errorf("run agent: %w", err)
			}
			if len(result.Updates) > 0 {
				fmt.Fprintf(out, "\nCaptured %d process update(s)\n", len(result.Updates))
			}
			if result.ExitCode != 0 {
				os.Exit(result.ExitCode)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output updates as JSON")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current process status",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			proc, err := env.svc.Active(ctx)
			if errors.Is(err, app.ErrNoActiveProcess) {
				fmt.Fprintln(out, `No active process. Run "procside init" first.`)
				fmt.Fprintln(out, `Use "procside list" to see all processes.`)
				return nil
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(proc)
			}

			activeID, err := env.svc.ActiveID(ctx)
			if err != nil {
				return err
			}
			title := render.TitleStyle.Render(proc.Name)
			badge := statusBadge(proc.Status)
			fmt.Fprintf(out, "\n%s %s\n", title, badge)
			fmt.Fprintln(out, render.SubtleStyle.Render(strings.Repeat("=", 60)))
			fmt.Fprintf(out, "Goal: %s\n", proc.Goal)
			fmt.Fprintf(out, "ID: %s\n", proc.ID)
			if proc.Template != "" {
				fmt.Fprintf(out, "Template: %s\n", proc.Template)
			}
			fmt.Fprintf(out, "Active: %s\n\n", yesNo(activeID == proc.ID))

			var tr render.TermRenderer
			md := render.Markdown(proc, app.MissingItems(proc), time.Now())
			fmt.Fprintln(out, tr.Term(md, 100))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render process documentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if format == "" {
				format = env.cfg.DefaultFormat
			}
			proc, err := env.svc.Active(ctx)
			if errors.Is(err, app.ErrNoActiveProcess) {
				fmt.Fprintln(out, `No process initialized. Run "procside init" first.`)
				return nil
			}
			if err != nil {
				return err
			}

			docsDir := filepath.Join(env.projectPath, "docs")
			if err := os.MkdirAll(docsDir, 0o755); err != nil {
				return fmt.Errorf("create docs dir: %w", err)
			}
			missing := app.MissingItems(proc)

			writeDoc := func(defaultName, content string) error {
				target := output
				if target == "" {
					target = filepath.Join(docsDir, defaultName)
				}
				if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", target, err)
				}
				fmt.Fprintf(out, "Rendered to %s\n", target)
				return nil
			}

			switch format {
			case "md":
				return writeDoc("PROCESS.md", render.Markdown(proc, missing, time.Now()))
			case "mermaid":
				return writeDoc("PROCESS.mmd", render.Mermaid(proc))
			case "checklist":
				return writeDoc("CHECKLIST.md", render.Checklist(proc))
			case "all":
				if err := writeDoc("PROCESS.md", render.Markdown(proc, missing, time.Now())); err != nil {
					return err
				}
				if output != "" {
					return nil
				}
				if err := writeDoc("PROCESS.mmd", render.Mermaid(proc)); err != nil {
					return err
				}
				return writeDoc("CHECKLIST.md", render.Checklist(proc))
			default:
				return fmt.Errorf("unknown format %q (want md, mermaid, checklist, or all)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: md, mermaid, checklist, all")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	return cmd
}

func newStepCmd() *cobra.Command {
	var status, addOutput string
	cmd := &cobra.Command{
		Use:   "step <stepId>",
		Short: "Update a step status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			var outputs []string
			if addOutput != "" {
				outputs = []string{addOutput}
			}
			if _, err := env.svc.UpdateStep(cmd.Context(), args[0], domain.StepStatus(status), outputs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated step %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "new status: pending, in_progress, completed, skipped, failed")
	cmd.Flags().StringVar(&addOutput, "add-output", "", "add an output to the step")
	return cmd
}

func newAddStepCmd() *cobra.Command {
	var id, inputs, checks string
	cmd := &cobra.Command{
		Use:   "add-step <name>",
		Short: "Add a new step to the process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			proc, err := env.svc.ApplyUpdate(cmd.Context(), domain.Update{
				Action: domain.ActionStepAdd,
				Step: &domain.StepDraft{
					ID:     id,
					Name:   args[0],
					Inputs: splitCSV(inputs),
					Checks: splitCSV(checks),
				},
			})
			if err != nil {
				return err
			}
			added := proc.Steps[len(proc.Steps)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Added step %s: %s\n", added.ID, added.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&id, "id", "i", "", "step ID (auto-generated if not provided)")
	cmd.Flags().StringVar(&inputs, "inputs", "", "comma-separated inputs")
	cmd.Flags().StringVar(&checks, "checks", "", "comma-separated checks")
	return cmd
}

func newDecideCmd() *cobra.Command {
	var rationale string
	cmd := &cobra.Command{
		Use:   "decide <question> <choice>",
		Short: "Record a decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if _, err := env.svc.ApplyUpdate(cmd.Context(), domain.Update{
				Action: domain.ActionDecision,
				Decision: &domain.DecisionDraft{
					Question:  args[0],
					Choice:    args[1],
					Rationale: rationale,
				},
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded decision: %s -> %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVarP(&rationale, "rationale", "r", "", "rationale for the decision")
	return cmd
}

func newRiskCmd() *cobra.Command {
	var impact, mitigation string
	cmd := &cobra.Command{
		Use:   "risk <description>",
		Short: "Identify a risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if _, err := env.svc.ApplyUpdate(cmd.Context(), domain.Update{
				Action: domain.ActionRisk,
				Risk: &domain.RiskDraft{
					Risk:       args[0],
					Impact:     impact,
					Mitigation: mitigation,
				},
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identified risk: %s (%s)\n", args[0], impact)
			return nil
		},
	}
	cmd.Flags().StringVarP(&impact, "impact", "i", "medium", "impact level: low, medium, high")
	cmd.Flags().StringVarP(&mitigation, "mitigation", "m", "", "mitigation strategy")
	return cmd
}

func newEvidenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evidence <type> <value>",
		Short: "Record evidence of work",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			kind := domain.EvidenceType(args[0])
			if !domain.ValidEvidenceType(kind) {
				return fmt.Errorf("unknown evidence type %q (want command, file, url, or note)", args[0])
			}
			if _, err := env.svc.ApplyUpdate(cmd.Context(), domain.Update{
				Action:   domain.ActionEvidence,
				Evidence: []domain.Evidence{{Type: kind, Value: args[1]}},
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded evidence: [%s] %s\n", args[0], args[1])
			return nil
		},
	}
}

func newMissingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: "Show what's missing in the current process",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			proc, err := env.svc.Active(cmd.Context())
			if errors.Is(err, app.ErrNoActiveProcess) {
				fmt.Fprintln(out, `No process initialized. Run "procside init" first.`)
				return nil
			}
			if err != nil {
				return err
			}
			missing := app.MissingItems(proc)
			if len(missing) == 0 {
				fmt.Fprintln(out, render.OkStyle.Render("Nothing missing. Process documentation looks complete."))
				return nil
			}
			fmt.Fprintf(out, "What's missing in %q:\n\n", proc.Name)
			for _, m := range missing {
				fmt.Fprintf(out, "  - %s\n", m)
			}
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	var asJSON, failOnWarning bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run quality gates on the current process",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			proc, err := env.svc.Active(cmd.Context())
			if errors.Is(err, app.ErrNoActiveProcess) {
				fmt.Fprintln(out, `No process initialized. Run "procside init" first.`)
				os.Exit(1)
			}
			if err != nil {
				return err
			}

			gates := env.cfg.Gates()
			if failOnWarning {
				gates.FailOnWarning = true
			}
			result := app.RunGates(proc, gates)

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(checkResultJSON(result)); err != nil {
					return err
				}
			} else {
				printCheckResult(out, result)
			}
			if result.ExitCode != 0 {
				os.Exit(result.ExitCode)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&failOnWarning, "fail-on-warning", false, "exit with error code on warnings")
	return cmd
}

func newGatesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "gates",
		Short: "List available quality gates",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			gates := app.AllGates()
			if asJSON {
				rows := make([]map[string]string, 0, len(gates))
				for _, g := range gates {
					rows = append(rows, map[string]string{
						"id":          g.ID,
						"name":        g.Name,
						"description": g.Description,
						"severity":    string(g.Severity),
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			fmt.Fprintln(out, "Available quality gates:")
			fmt.Fprintln(out)
			for _, g := range gates {
				fmt.Fprintf(out, "  %-22s [%s] %s\n", g.ID, g.Severity, g.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

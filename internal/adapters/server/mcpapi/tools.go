package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Hysas/procside/internal/app"
	"github.com/Hysas/procside/internal/domain"
	"github.com/Hysas/procside/internal/render"
)

// registerProcessTools registers process_init and process_status.
func registerProcessTools(srv *mcpserver.MCPServer, svc *app.Service) {
	srv.AddTool(
		mcp.NewTool(
			"process_init",
			mcp.WithDescription("Initialize a new process to track agent work"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Name of the process")),
			mcp.WithString("goal", mcp.Required(), mcp.Description("Goal or objective of the process")),
			mcp.WithString("template", mcp.Description("Template to use (feature-add, bugfix, refactor, etc.)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			goal, err := req.RequireString("goal")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if existing, err := svc.Active(ctx); err == nil {
				return mcp.NewToolResultText(fmt.Sprintf(
					"Process already exists: %s\nUse process_status to view current state.",
					existing.Name,
				)), nil
			} else if !errors.Is(err, app.ErrNoActiveProcess) {
				return toolResultFromError(err), nil
			}
			proc, err := svc.Init(ctx, name, goal, req.GetString("template", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf(
				"Process initialized:\n- ID: %s\n- Name: %s\n- Goal: %s\n\nUse process_add_step to add steps.",
				proc.ID, proc.Name, proc.Goal,
			)), nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"process_status",
			mcp.WithDescription("Get current process status and progress"),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			proc, err := svc.Active(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(statusText(proc)), nil
		},
	)
}

// registerStepTools registers process_add_step, process_step_start, and
// process_step_complete.
func registerStepTools(srv *mcpserver.MCPServer, svc *app.Service) {
	srv.AddTool(
		mcp.NewTool(
			"process_add_step",
			mcp.WithDescription("Add a new step to the process"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Name of the step")),
			mcp.WithString("stepId", mcp.Description("Custom step ID (auto-generated if not provided)")),
			mcp.WithArray("inputs", mcp.Description("Inputs required for this step"), mcp.WithStringItems()),
			mcp.WithArray("checks", mcp.Description("Checks to verify step completion"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			proc, err := svc.ApplyUpdate(ctx, domain.Update{
				Action: domain.ActionStepAdd,
				Step: &domain.StepDraft{
					ID:     req.GetString("stepId", ""),
					Name:   name,
					Inputs: req.GetStringSlice("inputs", nil),
					Checks: req.GetStringSlice("checks", nil),
				},
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			added := proc.Steps[len(proc.Steps)-1]
			return mcp.NewToolResultText(fmt.Sprintf(
				"Added step %s: %s\n\nUse process_step_start to begin working on it.",
				added.ID, added.Name,
			)), nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"process_step_start",
			mcp.WithDescription("Mark a step as in progress"),
			mcp.WithString("stepId", mcp.Required(), mcp.Description("ID of the step to start")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			stepID, err := req.RequireString("stepId")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			step, result := findStep(ctx, svc, stepID)
			if result != nil {
				return result, nil
			}
			if _, err := svc.ApplyUpdate(ctx, domain.Update{
				Action: domain.ActionStepStart,
				StepID: stepID,
			}); err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Started step %s: %s", stepID, step.Name)), nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"process_step_complete",
			mcp.WithDescription("Mark a step as completed with outputs"),
			mcp.WithString("stepId", mcp.Required(), mcp.Description("ID of the step to complete")),
			mcp.WithArray("outputs", mcp.Description("Outputs produced by this step"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			stepID, err := req.RequireString("stepId")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			step, result := findStep(ctx, svc, stepID)
			if result != nil {
				return result, nil
			}
			outputs := req.GetStringSlice("outputs", nil)
			if _, err := svc.ApplyUpdate(ctx, domain.Update{
				Action:  domain.ActionStepComplete,
				StepID:  stepID,
				Outputs: outputs,
			}); err != nil {
				return toolResultFromError(err), nil
			}
			text := fmt.Sprintf("Completed step %s: %s", stepID, step.Name)
			if len(outputs) > 0 {
				text += "\nOutputs: " + strings.Join(outputs, ", ")
			}
			return mcp.NewToolResultText(text), nil
		},
	)
}

// registerRecordTools registers process_decide, process_risk, and
// process_evidence.
func registerRecordTools(srv *mcpserver.MCPServer, svc *app.Service) {
	srv.AddTool(
		mcp.NewTool(
			"process_decide",
			mcp.WithDescription("Record a decision made during the process"),
			mcp.WithString("question", mcp.Required(), mcp.Description("The question or decision point")),
			mcp.WithString("choice", mcp.Required(), mcp.Description("The choice made")),
			mcp.WithString("rationale", mcp.Description("Why this choice was made")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			question, err := req.RequireString("question")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			choice, err := req.RequireString("choice")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if _, err := svc.ApplyUpdate(ctx, domain.Update{
				Action: domain.ActionDecision,
				Decision: &domain.DecisionDraft{
					Question:  question,
					Choice:    choice,
					Rationale: req.GetString("rationale", ""),
				},
			}); err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Recorded decision: %s -> %s", question, choice)), nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"process_risk",
			mcp.WithDescription("Identify a risk in the process"),
			mcp.WithString("description", mcp.Required(), mcp.Description("Description of the risk")),
			mcp.WithString("impact", mcp.Description("Impact level"), mcp.Enum("low", "medium", "high")),
			mcp.WithString("mitigation", mcp.Description("How to mitigate the risk")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			description, err := req.RequireString("description")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			impact := req.GetString("impact", "medium")
			if _, err := svc.ApplyUpdate(ctx, domain.Update{
				Action: domain.ActionRisk,
				Risk: &domain.RiskDraft{
					Risk:       description,
					Impact:     impact,
					Mitigation: req.GetString("mitigation", ""),
				},
			}); err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Identified risk: %s (%s)", description, impact)), nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"process_evidence",
			mcp.WithDescription("Record evidence of work done"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Type of evidence"),
				mcp.Enum("command", "file", "url", "note")),
			mcp.WithString("value", mcp.Required(), mcp.Description("The evidence value (command, file path, URL, or note)")),
			mcp.WithString("stepId", mcp.Description("Step this evidence belongs to")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			evidenceType, err := req.RequireString("type")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			value, err := req.RequireString("value")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if _, err := svc.ApplyUpdate(ctx, domain.Update{
				Action: domain.ActionEvidence,
				Evidence: []domain.Evidence{{
					Type:   domain.EvidenceType(evidenceType),
					Value:  value,
					StepID: req.GetString("stepId", ""),
				}},
			}); err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Recorded evidence: [%s] %s", evidenceType, value)), nil
		},
	)
}

// registerReportTools registers process_render and process_check.
func registerReportTools(srv *mcpserver.MCPServer, svc *app.Service, gates app.GatesConfig) {
	srv.AddTool(
		mcp.NewTool(
			"process_render",
			mcp.WithDescription("Generate documentation (Markdown and Mermaid)"),
			mcp.WithString("format", mcp.Description("Output format"),
				mcp.Enum("md", "mermaid", "checklist", "both")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			proc, err := svc.Active(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			format := req.GetString("format", "both")
			missing := app.MissingItems(proc)

			var b strings.Builder
			if format == "md" || format == "both" {
				b.WriteString("## PROCESS.md\n\n")
				b.WriteString(render.Markdown(proc, missing, time.Now()))
				b.WriteString("\n\n")
			}
			if format == "mermaid" || format == "both" {
				b.WriteString("## Mermaid Diagram\n\n```mermaid\n")
				b.WriteString(render.Mermaid(proc))
				b.WriteString("\n```\n")
			}
			if format == "checklist" {
				b.WriteString(render.Checklist(proc))
			}
			return mcp.NewToolResultText(b.String()), nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"process_check",
			mcp.WithDescription("Run quality gates and check process completeness"),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			proc, err := svc.Active(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(checkText(proc, gates)), nil
		},
	)
}

// findStep resolves a step on the active process. A non-nil result is the
// error response the tool should return as-is.
func findStep(ctx context.Context, svc *app.Service, stepID string) (domain.Step, *mcp.CallToolResult) {
	proc, err := svc.Active(ctx)
	if err != nil {
		return domain.Step{}, toolResultFromError(err)
	}
	for _, s := range proc.Steps {
		if s.ID == stepID {
			return s, nil
		}
	}
	ids := make([]string, 0, len(proc.Steps))
	for _, s := range proc.Steps {
		ids = append(ids, s.ID)
	}
	return domain.Step{}, mcp.NewToolResultError(fmt.Sprintf(
		"Step %s not found. Available steps: %s", stepID, strings.Join(ids, ", "),
	))
}

// statusText builds the plain-text summary returned by process_status.
func statusText(proc domain.Process) string {
	completed := 0
	for _, s := range proc.Steps {
		if s.Status == domain.StepCompleted {
			completed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Process: %s\n", proc.Name)
	fmt.Fprintf(&b, "Goal: %s\n", proc.Goal)
	fmt.Fprintf(&b, "Status: %s\n", proc.Status)
	fmt.Fprintf(&b, "Progress: %d/%d steps completed\n", completed, len(proc.Steps))

	if len(proc.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for i, s := range proc.Steps {
			icon := "pending"
			switch s.Status {
			case domain.StepCompleted:
				icon = "done"
			case domain.StepInProgress:
				icon = "active"
			case domain.StepFailed:
				icon = "failed"
			}
			fmt.Fprintf(&b, "  %d. [%s] %s\n", i+1, icon, s.Name)
		}
	}
	if len(proc.Decisions) > 0 {
		b.WriteString("\nDecisions:\n")
		for _, d := range proc.Decisions {
			fmt.Fprintf(&b, "  * %s -> %s\n", d.Question, d.Choice)
		}
	}
	if missing := app.MissingItems(proc); len(missing) > 0 {
		b.WriteString("\nMissing:\n")
		for _, m := range missing {
			fmt.Fprintf(&b, "  - %s\n", m)
		}
	}
	return b.String()
}

// checkText builds the plain-text gate report returned by process_check.
func checkText(proc domain.Process, gates app.GatesConfig) string {
	result := app.RunGates(proc, gates)

	var b strings.Builder
	b.WriteString("Quality Check Results:\n\n")
	for _, e := range result.Errors {
		fmt.Fprintf(&b, "FAIL %s: %s\n", e.Gate.Name, e.Message)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "WARN %s: %s\n", w.Gate.Name, w.Message)
	}
	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		b.WriteString("All gates passed\n")
	}
	if missing := app.MissingItems(proc); len(missing) > 0 {
		b.WriteString("\nMissing items:\n")
		for _, m := range missing {
			fmt.Fprintf(&b, "  - %s\n", m)
		}
	}
	fmt.Fprintf(&b, "\nResult: %s\n", passLabel(result.Passed))
	return b.String()
}

func passLabel(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

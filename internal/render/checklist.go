package render

import (
	"fmt"
	"strings"

	"github.com/Hysas/procside/internal/domain"
)

// Checklist renders the process as a markdown task list: one checkbox
// per step, nested checkboxes for its checks, and a ticked line per
// decision made.
func Checklist(p domain.Process) string {
	var b strings.Builder

	b.WriteString("# Process Checklist\n\n")
	fmt.Fprintf(&b, "Process: **%s**\n\n", p.Name)

	if len(p.Steps) > 0 {
		b.WriteString("## Steps\n\n")
		for _, step := range p.Steps {
			checkbox := "[ ]"
			if step.Status == domain.StepCompleted {
				checkbox = "[x]"
			}
			fmt.Fprintf(&b, "- %s %s\n", checkbox, step.Name)
			for _, check := range step.Checks {
				fmt.Fprintf(&b, "  - [ ] %s\n", check)
			}
		}
		b.WriteString("\n")
	}

	if len(p.Decisions) > 0 {
		b.WriteString("## Decisions Made\n\n")
		for _, d := range p.Decisions {
			fmt.Fprintf(&b, "- [x] %s → **%s**\n", d.Question, d.Choice)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Package render turns a process document into human-facing artifacts:
// markdown reports, mermaid flowcharts, checklists, and ANSI-styled
// terminal output.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/Hysas/procside/internal/domain"
)

var statusIcons = map[string]string{
	"planned":     "📋",
	"in_progress": "🔄",
	"blocked":     "🚫",
	"completed":   "✅",
	"cancelled":   "❌",
	"pending":     "⏳",
	"skipped":     "⏭️",
	"failed":      "❗",
	"identified":  "⚠️",
	"mitigating":  "🔄",
	"mitigated":   "✅",
	"accepted":    "👌",
}

var statusBadges = map[string]string{
	"planned":     "📋 Planned",
	"in_progress": "🔄 In Progress",
	"blocked":     "🚫 Blocked",
	"completed":   "✅ Completed",
	"cancelled":   "❌ Cancelled",
}

func statusIcon(status string) string {
	if icon, ok := statusIcons[status]; ok {
		return icon
	}
	return "❓"
}

func statusBadge(status string) string {
	if badge, ok := statusBadges[status]; ok {
		return badge
	}
	return status
}

// Markdown renders the full process report: header, progress, and a
// table per populated section. The missing list, when provided,
// becomes an unchecked task list at the end.
func Markdown(p domain.Process, missing []string, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Process: %s\n\n", p.Name)
	fmt.Fprintf(&b, "> **Goal:** %s\n", p.Goal)
	fmt.Fprintf(&b, "> **Status:** %s\n", statusBadge(string(p.Status)))
	fmt.Fprintf(&b, "> **ID:** `%s`\n", p.ID)
	if p.Template != "" {
		fmt.Fprintf(&b, "> **Template:** %s\n", p.Template)
	}
	b.WriteString("\n")

	if len(p.Steps) > 0 {
		fmt.Fprintf(&b, "**Progress:** %d/%d steps completed\n\n", p.CompletedSteps(), len(p.Steps))

		b.WriteString("## Steps\n\n")
		b.WriteString("| # | Step | Status | Inputs | Outputs |\n")
		b.WriteString("|---|------|--------|--------|---------|\n")
		for i, step := range p.Steps {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				i+1, step.Name, statusIcon(string(step.Status)),
				joinOrDash(step.Inputs), joinOrDash(step.Outputs))
		}
		b.WriteString("\n")
	}

	if len(p.Decisions) > 0 {
		b.WriteString("## Decisions\n\n")
		b.WriteString("| Decision | Choice | Rationale |\n")
		b.WriteString("|----------|--------|-----------|\n")
		for _, d := range p.Decisions {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", d.Question, d.Choice, truncate(d.Rationale, 50))
		}
		b.WriteString("\n")
	}

	if len(p.Risks) > 0 {
		b.WriteString("## Risks\n\n")
		b.WriteString("| Risk | Impact | Mitigation | Status |\n")
		b.WriteString("|------|--------|------------|--------|\n")
		for _, r := range p.Risks {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				r.Risk, r.Impact, truncate(r.Mitigation, 40), statusIcon(string(r.Status)))
		}
		b.WriteString("\n")
	}

	if len(p.Evidence) > 0 {
		b.WriteString("## Evidence\n\n")
		for _, e := range p.Evidence {
			fmt.Fprintf(&b, "- **[%s]** %s _(%s)_\n", e.Type, e.Value, e.Timestamp.Format("2006-01-02 15:04"))
		}
		b.WriteString("\n")
	}

	if len(missing) > 0 {
		b.WriteString("## What's Missing\n\n")
		for _, m := range missing {
			fmt.Fprintf(&b, "- [ ] %s\n", m)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "_Last updated: %s_\n", now.Format("2006-01-02 15:04"))
	return b.String()
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

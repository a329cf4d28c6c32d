package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Hysas/procside/internal/domain"
)

var mermaidIDPattern = regexp.MustCompile(`[^a-zA-Z0-9]`)

var stepEmojis = map[domain.StepStatus]string{
	domain.StepCompleted:  "✅",
	domain.StepInProgress: "🔄",
	domain.StepPending:    "⏳",
	domain.StepFailed:     "❌",
	domain.StepSkipped:    "⏭️",
}

var stepStyleClasses = map[domain.StepStatus]string{
	domain.StepCompleted:  "completed",
	domain.StepInProgress: "inProgress",
	domain.StepPending:    "pending",
	domain.StepFailed:     "failed",
	domain.StepSkipped:    "pending",
}

// Mermaid renders the step sequence as a top-down flowchart. Edges
// out of completed steps are solid, the rest dashed, so the current
// frontier is visible at a glance.
func Mermaid(p domain.Process) string {
	var b strings.Builder

	b.WriteString("flowchart TD\n\n")
	fmt.Fprintf(&b, "  subgraph Process[%q]\n", escapeMermaidLabel(p.Name))
	b.WriteString("    direction TB\n\n")

	if len(p.Steps) == 0 {
		b.WriteString("    empty[\"No steps defined\"]\n")
	} else {
		for _, step := range p.Steps {
			label := escapeMermaidLabel(stepEmoji(step.Status) + " " + step.Name)
			fmt.Fprintf(&b, "    %s[%q]\n", mermaidID(step.ID), label)
		}
		b.WriteString("\n")
		for i := 0; i+1 < len(p.Steps); i++ {
			edge := "-.->"
			if p.Steps[i].Status == domain.StepCompleted {
				edge = "-->"
			}
			fmt.Fprintf(&b, "    %s %s %s\n", mermaidID(p.Steps[i].ID), edge, mermaidID(p.Steps[i+1].ID))
		}
	}
	b.WriteString("  end\n\n")

	b.WriteString("  %% Styles\n")
	b.WriteString("  classDef completed fill:#d4edda,stroke:#28a745,color:#155724\n")
	b.WriteString("  classDef inProgress fill:#fff3cd,stroke:#ffc107,color:#856404\n")
	b.WriteString("  classDef pending fill:#f8f9fa,stroke:#6c757d,color:#495057\n")
	b.WriteString("  classDef failed fill:#f8d7da,stroke:#dc3545,color:#721c24\n\n")

	for _, step := range p.Steps {
		class, ok := stepStyleClasses[step.Status]
		if !ok {
			class = "pending"
		}
		fmt.Fprintf(&b, "  class %s %s\n", mermaidID(step.ID), class)
	}
	return strings.TrimRight(b.String(), "\n")
}

// MermaidSimple is the compact left-to-right variant embedded in
// markdown reports.
func MermaidSimple(p domain.Process) string {
	var b strings.Builder

	b.WriteString("```mermaid\n")
	b.WriteString("flowchart LR\n")
	for i, step := range p.Steps {
		label := escapeMermaidLabel(stepEmoji(step.Status) + " " + step.Name)
		fmt.Fprintf(&b, "  s%d[%q]\n", i, label)
	}
	for i := 0; i+1 < len(p.Steps); i++ {
		fmt.Fprintf(&b, "  s%d --> s%d\n", i, i+1)
	}
	b.WriteString("```")
	return b.String()
}

func stepEmoji(status domain.StepStatus) string {
	if emoji, ok := stepEmojis[status]; ok {
		return emoji
	}
	return "📋"
}

// escapeMermaidLabel keeps double quotes out of node labels, which
// would otherwise terminate the label early.
func escapeMermaidLabel(label string) string {
	return strings.ReplaceAll(label, `"`, "'")
}

// mermaidID sanitizes a step id into a node identifier.
func mermaidID(id string) string {
	return mermaidIDPattern.ReplaceAllString(id, "_")
}

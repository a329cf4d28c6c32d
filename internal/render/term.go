package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// TermRenderer renders markdown as ANSI-styled terminal text and
// recreates the underlying renderer when the wrap width changes.
type TermRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// Term renders markdown for the terminal at the given wrap width.
// On any renderer failure the plain markdown comes back unchanged,
// so output never disappears because of a styling problem.
func (r *TermRenderer) Term(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := width
	if wrapWidth < 24 {
		wrapWidth = 24
	}

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// Styles used by the CLI for one-line status output.
var (
	TitleStyle   = lipgloss.NewStyle().Bold(true)
	SubtleStyle  = lipgloss.NewStyle().Faint(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	OkStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

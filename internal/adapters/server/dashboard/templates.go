package dashboard

import (
	"embed"
	"html/template"
	"time"

	"github.com/Hysas/procside/internal/app"
	"github.com/Hysas/procside/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"statusClass": statusClass,
	"stepIcon":    stepIcon,
	"impactClass": impactClass,
	"shortTime":   shortTime,
}).ParseFS(templateFS, "templates/*.tmpl"))

// animationStyles maps the numbered dashboard variants to their CSS class.
var animationStyles = map[string]string{
	"/":  "fade",
	"/1": "fade",
	"/2": "slide",
	"/3": "scale",
	"/4": "minimal",
}

// indexData feeds the multi-process overview page.
type indexData struct {
	Title          string
	AnimationStyle string
	ActiveID       string
	Processes      []domain.ProcessMeta
}

// detailData feeds the single-process page.
type detailData struct {
	Proc            domain.Process
	Completed       int
	Total           int
	ProgressPercent int
	Mermaid         string
	Gates           app.CheckResult
	Missing         []string
	LastUpdated     string
}

func newDetailData(p domain.Process, gates app.GatesConfig, now time.Time) detailData {
	completed := 0
	for _, s := range p.Steps {
		if s.Status == domain.StepCompleted {
			completed++
		}
	}
	percent := 0
	if len(p.Steps) > 0 {
		percent = int(float64(completed)/float64(len(p.Steps))*100 + 0.5)
	}
	return detailData{
		Proc:            p,
		Completed:       completed,
		Total:           len(p.Steps),
		ProgressPercent: percent,
		Gates:           app.RunGates(p, gates),
		Missing:         app.MissingItems(p),
		LastUpdated:     now.Format("2006-01-02 15:04:05"),
	}
}

func statusClass(status domain.ProcessStatus) string {
	switch status {
	case domain.ProcessInProgress:
		return "status-active"
	case domain.ProcessCompleted:
		return "status-done"
	case domain.ProcessBlocked:
		return "status-blocked"
	case domain.ProcessCancelled:
		return "status-cancelled"
	default:
		return "status-planned"
	}
}

func stepIcon(status domain.StepStatus) string {
	switch status {
	case domain.StepCompleted:
		return "✅"
	case domain.StepInProgress:
		return "🔄"
	case domain.StepFailed:
		return "❌"
	case domain.StepSkipped:
		return "⏭️"
	default:
		return "⏳"
	}
}

func impactClass(impact domain.RiskImpact) string {
	switch impact {
	case domain.ImpactHigh:
		return "impact-high"
	case domain.ImpactLow:
		return "impact-low"
	default:
		return "impact-medium"
	}
}

func shortTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04:05")
}

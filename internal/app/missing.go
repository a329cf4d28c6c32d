package app

import (
	"strings"

	"github.com/Hysas/procside/internal/domain"
)

// MissingItems inspects a process for documentation gaps an agent (or
// reviewer) should fill in. The checks scale with lifecycle: a planned
// process is not expected to carry decisions or risk notes yet.
func MissingItems(p domain.Process) []string {
	missing := []string{}

	hasOutputs := false
	for _, step := range p.Steps {
		if len(step.Outputs) > 0 {
			hasOutputs = true
			break
		}
	}
	if !hasOutputs && len(p.Steps) > 0 {
		missing = append(missing, "No step outputs documented")
	}

	if len(p.Evidence) == 0 {
		missing = append(missing, "No evidence recorded")
	}
	if len(p.Decisions) == 0 && p.Status != domain.ProcessPlanned {
		missing = append(missing, "No decisions logged")
	}
	if len(p.Risks) == 0 && p.Status == domain.ProcessInProgress {
		missing = append(missing, "Risk assessment not done")
	}

	if !hasStepNamed(p, "rollback", "revert") && p.Status == domain.ProcessInProgress {
		missing = append(missing, "No rollback procedure defined")
	}
	if !hasStepNamed(p, "test", "validat", "verify") && len(p.Steps) > 2 {
		missing = append(missing, "No validation/testing step")
	}

	return missing
}

func hasStepNamed(p domain.Process, fragments ...string) bool {
	for _, step := range p.Steps {
		name := strings.ToLower(step.Name)
		for _, fragment := range fragments {
			if strings.Contains(name, fragment) {
				return true
			}
		}
	}
	return false
}

package app

import (
	"context"

	"github.com/Hysas/procside/internal/domain"
)

// Template is a reusable process skeleton applied at init time. Steps
// start pending and risks start identified, whatever the source file
// says.
type Template struct {
	Name  string
	Path  string
	Steps []domain.StepDraft
	Risks []domain.RiskDraft
}

// InitFromTemplate creates a new active process prefilled with the
// template's steps and risks, and records the template's use in the
// registry.
func (s *Service) InitFromTemplate(ctx context.Context, name, goal string, tpl Template) (domain.Process, error) {
	p, err := s.Init(ctx, name, goal, tpl.Name)
	if err != nil {
		return domain.Process{}, err
	}

	now := s.clock()
	for _, d := range tpl.Steps {
		draft := d
		draft.Status = ""
		p = domain.Apply(p, domain.Update{Action: domain.ActionStepAdd, Step: &draft}, now)
	}
	for _, r := range tpl.Risks {
		draft := r
		p = domain.Apply(p, domain.Update{Action: domain.ActionRisk, Risk: &draft}, now)
	}

	if err := s.store.SaveProcess(ctx, p); err != nil {
		return domain.Process{}, err
	}
	if err := s.syncMeta(ctx, p); err != nil {
		return domain.Process{}, err
	}
	if err := s.recordTemplateUse(ctx, tpl); err != nil {
		return domain.Process{}, err
	}
	return p, nil
}

func (s *Service) recordTemplateUse(ctx context.Context, tpl Template) error {
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return err
	}
	now := s.clock()
	for i := range reg.Templates {
		if reg.Templates[i].Name == tpl.Name {
			reg.Templates[i].LastUsed = now
			reg.Templates[i].UsageCount++
			reg.Templates[i].Path = tpl.Path
			return s.store.SaveRegistry(ctx, reg)
		}
	}
	reg.Templates = append(reg.Templates, domain.TemplateMeta{
		ID:         tpl.Name,
		Name:       tpl.Name,
		Source:     "project",
		Path:       tpl.Path,
		LastUsed:   now,
		UsageCount: 1,
	})
	return s.store.SaveRegistry(ctx, reg)
}

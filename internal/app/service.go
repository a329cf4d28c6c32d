// Package app orchestrates the update pipeline over the persistence
// port: migration, process lifecycle, update application, snapshots,
// and the audit trail.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Hysas/procside/internal/domain"
	"github.com/Hysas/procside/internal/parser"
)

// Snapshot reasons written by the service itself.
const (
	SnapshotReasonInitial  = "Initial process creation"
	SnapshotReasonMigrated = "Migrated from single-process format"
)

// Defaults for the process auto-created when an agent run starts in a
// project that was never initialized.
const (
	DefaultProcessName = "Main Process"
	DefaultProcessGoal = "Document the AI agent workflow"
)

// Service carries out every operation the surfaces expose. It owns no
// state beyond its collaborators, so one instance serves all surfaces
// concurrently as long as the underlying store tolerates it.
type Service struct {
	store Store
	clock Clock
}

// NewService constructs a service over the given store.
func NewService(store Store, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock}
}

// NeedsMigration reports whether the project still uses the legacy
// single-file layout. The registry's presence always wins: once it
// exists, a leftover legacy file is ignored.
func (s *Service) NeedsMigration(ctx context.Context) (bool, error) {
	legacy, err := s.store.LegacyExists(ctx)
	if err != nil {
		return false, err
	}
	if !legacy {
		return false, nil
	}
	registry, err := s.store.RegistryExists(ctx)
	if err != nil {
		return false, err
	}
	return !registry, nil
}

// Migrate converts a legacy single-file project into the registry
// layout. The legacy process is adopted as proc-001, becomes active,
// gets a v1 snapshot, and the old file is deleted.
func (s *Service) Migrate(ctx context.Context) (domain.Process, error) {
	legacy, err := s.store.LegacyExists(ctx)
	if err != nil {
		return domain.Process{}, err
	}
	if !legacy {
		return domain.Process{}, ErrNothingToMigrate
	}
	registryPresent, err := s.store.RegistryExists(ctx)
	if err != nil {
		return domain.Process{}, err
	}
	if registryPresent {
		return domain.Process{}, ErrAlreadyMigrated
	}

	p, err := s.store.LoadLegacyProcess(ctx)
	if err != nil {
		return domain.Process{}, fmt.Errorf("load legacy process: %w", err)
	}
	p.ID = "proc-001"

	if err := s.store.SaveProcess(ctx, p); err != nil {
		return domain.Process{}, err
	}

	reg := domain.NewRegistry()
	reg.ActiveProcessID = p.ID
	reg.Processes = append(reg.Processes, domain.NewProcessMeta(p))
	if err := s.store.SaveRegistry(ctx, reg); err != nil {
		return domain.Process{}, err
	}

	if _, err := s.store.Snapshot(ctx, p, SnapshotReasonMigrated, s.clock()); err != nil {
		return domain.Process{}, err
	}
	if err := s.store.RemoveLegacyProcess(ctx); err != nil {
		return domain.Process{}, err
	}
	return p, nil
}

// ensureMigrated upgrades the layout in place when needed. Every
// entry point that touches the registry calls this first.
func (s *Service) ensureMigrated(ctx context.Context) error {
	needed, err := s.NeedsMigration(ctx)
	if err != nil || !needed {
		return err
	}
	_, err = s.Migrate(ctx)
	return err
}

// Init creates a new process, makes it active, and writes its first
// snapshot. Ids are sequential across the registry's lifetime.
func (s *Service) Init(ctx context.Context, name, goal, template string) (domain.Process, error) {
	if err := s.ensureMigrated(ctx); err != nil {
		return domain.Process{}, err
	}
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return domain.Process{}, err
	}

	ids := make([]string, 0, len(reg.Processes))
	for _, m := range reg.Processes {
		ids = append(ids, m.ID)
	}
	id := domain.GenerateProcessID(ids)

	p, err := domain.NewProcess(id, name, goal, template, s.clock())
	if err != nil {
		return domain.Process{}, err
	}
	if err := s.store.SaveProcess(ctx, p); err != nil {
		return domain.Process{}, err
	}

	reg.Processes = append(reg.Processes, domain.NewProcessMeta(p))
	reg.ActiveProcessID = p.ID
	if err := s.store.SaveRegistry(ctx, reg); err != nil {
		return domain.Process{}, err
	}

	if _, err := s.store.Snapshot(ctx, p, SnapshotReasonInitial, s.clock()); err != nil {
		return domain.Process{}, err
	}
	return p, nil
}

// Active returns the currently active process. ErrNoActiveProcess
// means the project has no registry or an empty active pointer.
func (s *Service) Active(ctx context.Context) (domain.Process, error) {
	if err := s.ensureMigrated(ctx); err != nil {
		return domain.Process{}, err
	}
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return domain.Process{}, err
	}
	if reg.ActiveProcessID == "" {
		return domain.Process{}, ErrNoActiveProcess
	}
	p, err := s.Get(ctx, reg.ActiveProcessID)
	if errors.Is(err, ErrProcessNotFound) {
		// A pointer at a deleted document means no active process,
		// not a lookup failure.
		return domain.Process{}, ErrNoActiveProcess
	}
	return p, err
}

// ActiveID returns the active process pointer, which may be empty.
func (s *Service) ActiveID(ctx context.Context) (string, error) {
	if err := s.ensureMigrated(ctx); err != nil {
		return "", err
	}
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return "", err
	}
	return reg.ActiveProcessID, nil
}

// Get loads one process document by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Process, error) {
	p, err := s.store.LoadProcess(ctx, id)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Process{}, fmt.Errorf("%w: %s", ErrProcessNotFound, id)
	}
	if err != nil {
		return domain.Process{}, err
	}
	return p, nil
}

// ApplyReport summarizes one pass of ApplyText.
type ApplyReport struct {
	Process domain.Process
	Applied []domain.Update
}

// ApplyText extracts every update block from raw text and folds each
// one into the active process, persisting and recording history per
// update so a crash mid-stream loses at most one block. When the
// project has no process at all, a default one is created first so an
// agent run never stalls on missing setup.
func (s *Service) ApplyText(ctx context.Context, text string) (ApplyReport, error) {
	blocks := parser.ExtractBlocks(text)
	if len(blocks) == 0 {
		p, err := s.Active(ctx)
		if errors.Is(err, ErrNoActiveProcess) {
			return ApplyReport{}, nil
		}
		if err != nil {
			return ApplyReport{}, err
		}
		return ApplyReport{Process: p}, nil
	}

	p, err := s.Active(ctx)
	if errors.Is(err, ErrNoActiveProcess) {
		p, err = s.Init(ctx, DefaultProcessName, DefaultProcessGoal, "")
	}
	if err != nil {
		return ApplyReport{}, err
	}

	report := ApplyReport{Applied: make([]domain.Update, 0, len(blocks))}
	for _, block := range blocks {
		u := parser.ParseBlock(block)
		now := s.clock()
		p = domain.Apply(p, u, now)

		if err := s.store.SaveProcess(ctx, p); err != nil {
			return ApplyReport{}, err
		}
		entry := domain.HistoryEntry{
			Timestamp: now,
			Type:      string(u.Action),
			Data:      u,
			Raw:       block,
		}
		if err := s.store.AppendHistory(ctx, entry, now); err != nil {
			return ApplyReport{}, err
		}
		report.Applied = append(report.Applied, u)
	}

	if err := s.syncMeta(ctx, p); err != nil {
		return ApplyReport{}, err
	}
	report.Process = p
	return report, nil
}

// ApplyUpdate folds a single already-decoded update into the active
// process. The direct CLI commands (step, decide, risk, evidence) go
// through here.
func (s *Service) ApplyUpdate(ctx context.Context, u domain.Update) (domain.Process, error) {
	p, err := s.Active(ctx)
	if err != nil {
		return domain.Process{}, err
	}
	now := s.clock()
	p = domain.Apply(p, u, now)
	if err := s.store.SaveProcess(ctx, p); err != nil {
		return domain.Process{}, err
	}
	entry := domain.HistoryEntry{
		Timestamp: now,
		Type:      string(u.Action),
		Data:      u,
		Raw:       parser.FormatBlock(u),
	}
	if err := s.store.AppendHistory(ctx, entry, now); err != nil {
		return domain.Process{}, err
	}
	if err := s.syncMeta(ctx, p); err != nil {
		return domain.Process{}, err
	}
	return p, nil
}

// UpdateStep sets a step to an arbitrary status and optionally appends
// outputs, bypassing the action-shaped transitions. Timestamps follow
// the transitions: starting stamps StartedAt, finishing stamps
// CompletedAt.
func (s *Service) UpdateStep(ctx context.Context, stepID string, status domain.StepStatus, outputs []string) (domain.Process, error) {
	p, err := s.Active(ctx)
	if err != nil {
		return domain.Process{}, err
	}
	i := p.FindStep(stepID)
	if i < 0 {
		return domain.Process{}, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	now := s.clock()
	if status != "" {
		if !domain.ValidStepStatus(status) {
			return domain.Process{}, fmt.Errorf("invalid step status %q", status)
		}
		p.Steps[i].Status = status
		switch status {
		case domain.StepInProgress:
			started := now
			p.Steps[i].StartedAt = &started
		case domain.StepCompleted, domain.StepFailed:
			completed := now
			p.Steps[i].CompletedAt = &completed
		}
	}
	if len(outputs) > 0 {
		p.Steps[i].Outputs = append(p.Steps[i].Outputs, outputs...)
	}
	p.UpdatedAt = now
	if err := s.store.SaveProcess(ctx, p); err != nil {
		return domain.Process{}, err
	}
	if err := s.syncMeta(ctx, p); err != nil {
		return domain.Process{}, err
	}
	return p, nil
}

// syncMeta refreshes the registry summary for a process while keeping
// the registry-owned fields (tags, archive state) intact.
func (s *Service) syncMeta(ctx context.Context, p domain.Process) error {
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return err
	}
	meta := domain.NewProcessMeta(p)
	if i := reg.FindMeta(p.ID); i >= 0 {
		meta.Tags = reg.Processes[i].Tags
		meta.Archived = reg.Processes[i].Archived
		meta.ArchivedAt = reg.Processes[i].ArchivedAt
		reg.Processes[i] = meta
	} else {
		reg.Processes = append(reg.Processes, meta)
	}
	return s.store.SaveRegistry(ctx, reg)
}

// List returns process summaries, optionally including archived ones.
func (s *Service) List(ctx context.Context, includeArchived bool) ([]domain.ProcessMeta, error) {
	if err := s.ensureMigrated(ctx); err != nil {
		return nil, err
	}
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	if includeArchived {
		return reg.Processes, nil
	}
	active := make([]domain.ProcessMeta, 0, len(reg.Processes))
	for _, m := range reg.Processes {
		if !m.Archived {
			active = append(active, m)
		}
	}
	return active, nil
}

// Switch makes another registered process the active one.
func (s *Service) Switch(ctx context.Context, id string) error {
	if err := s.ensureMigrated(ctx); err != nil {
		return err
	}
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return err
	}
	if reg.FindMeta(id) < 0 {
		return fmt.Errorf("%w: %s", ErrProcessNotFound, id)
	}
	reg.ActiveProcessID = id
	return s.store.SaveRegistry(ctx, reg)
}

// Archive retires a process from the working set. When the archived
// process was active, the pointer moves to the next unarchived one,
// or clears if none remain. The document and its snapshots stay on
// disk.
func (s *Service) Archive(ctx context.Context, id string) error {
	if err := s.ensureMigrated(ctx); err != nil {
		return err
	}
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return err
	}
	i := reg.FindMeta(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProcessNotFound, id)
	}

	now := s.clock()
	reg.Processes[i].Archived = true
	reg.Processes[i].ArchivedAt = &now

	if reg.ActiveProcessID == id {
		reg.ActiveProcessID = ""
		for _, m := range reg.Processes {
			if !m.Archived && m.ID != id {
				reg.ActiveProcessID = m.ID
				break
			}
		}
	}
	return s.store.SaveRegistry(ctx, reg)
}

// Restore returns an archived process to the working set. It does not
// become active again on its own.
func (s *Service) Restore(ctx context.Context, id string) error {
	if err := s.ensureMigrated(ctx); err != nil {
		return err
	}
	reg, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return err
	}
	i := reg.FindMeta(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProcessNotFound, id)
	}
	reg.Processes[i].Archived = false
	reg.Processes[i].ArchivedAt = nil
	return s.store.SaveRegistry(ctx, reg)
}

// SnapshotActive writes a numbered snapshot of the active process.
func (s *Service) SnapshotActive(ctx context.Context, reason string) (int, error) {
	p, err := s.Active(ctx)
	if err != nil {
		return 0, err
	}
	return s.store.Snapshot(ctx, p, reason, s.clock())
}

// SnapshotProcess writes a numbered snapshot of the named process.
func (s *Service) SnapshotProcess(ctx context.Context, id, reason string) (int, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.store.Snapshot(ctx, p, reason, s.clock())
}

// Versions lists every snapshot of a process, oldest first.
func (s *Service) Versions(ctx context.Context, id string) ([]domain.ProcessVersion, error) {
	return s.store.ListVersions(ctx, id)
}

// Version loads one numbered snapshot.
func (s *Service) Version(ctx context.Context, id string, version int) (domain.ProcessVersion, error) {
	v, err := s.store.LoadVersion(ctx, id, version)
	if errors.Is(err, os.ErrNotExist) {
		return domain.ProcessVersion{}, fmt.Errorf("%w: %s v%d", ErrVersionNotFound, id, version)
	}
	return v, err
}

// History returns the most recent count audit entries, oldest first.
// A count of zero or less returns the whole trail.
func (s *Service) History(ctx context.Context, count int) ([]domain.HistoryEntry, error) {
	return s.store.RecentHistory(ctx, count)
}

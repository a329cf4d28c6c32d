package yamlstore

import (
	"context"
	"errors"
	"os"

	"github.com/Hysas/procside/internal/domain"
)

// RegistryExists reports whether the registry file has been written.
// Its presence is what marks a project as using the multi-process
// layout, so migration checks key off this.
func (s *Store) RegistryExists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return exists(s.registryPath()), nil
}

// LoadRegistry reads the registry, returning an empty one when the
// file does not exist yet.
func (s *Store) LoadRegistry(ctx context.Context) (domain.Registry, error) {
	if err := ctx.Err(); err != nil {
		return domain.Registry{}, err
	}
	var reg domain.Registry
	err := readYAML(s.registryPath(), &reg)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewRegistry(), nil
	}
	if err != nil {
		return domain.Registry{}, err
	}
	if reg.Processes == nil {
		reg.Processes = []domain.ProcessMeta{}
	}
	if reg.Templates == nil {
		reg.Templates = []domain.TemplateMeta{}
	}
	return reg, nil
}

// SaveRegistry writes the registry file.
func (s *Store) SaveRegistry(ctx context.Context, reg domain.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeYAML(s.registryPath(), reg)
}

// LoadProcess reads one process document by id. A missing document
// surfaces as os.ErrNotExist.
func (s *Store) LoadProcess(ctx context.Context, id string) (domain.Process, error) {
	if err := ctx.Err(); err != nil {
		return domain.Process{}, err
	}
	var p domain.Process
	if err := readYAML(s.processPath(id), &p); err != nil {
		return domain.Process{}, err
	}
	return p, nil
}

// SaveProcess writes one process document under processes/<id>.yaml.
func (s *Store) SaveProcess(ctx context.Context, p domain.Process) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeYAML(s.processPath(p.ID), p)
}

// ProcessExists reports whether a process document is on disk.
func (s *Store) ProcessExists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return exists(s.processPath(id)), nil
}

package yamlstore

import (
	"context"
	"fmt"
	"os"

	"github.com/Hysas/procside/internal/domain"
)

// LegacyExists reports whether the single-file process.yaml layout is
// present.
func (s *Store) LegacyExists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return exists(s.legacyPath()), nil
}

// LoadLegacyProcess reads the single-file layout's process document.
func (s *Store) LoadLegacyProcess(ctx context.Context) (domain.Process, error) {
	if err := ctx.Err(); err != nil {
		return domain.Process{}, err
	}
	var p domain.Process
	if err := readYAML(s.legacyPath(), &p); err != nil {
		return domain.Process{}, err
	}
	return p, nil
}

// SaveLegacyProcess writes the single-file layout's process document.
// Only the migration tests and pre-registry projects exercise this.
func (s *Store) SaveLegacyProcess(ctx context.Context, p domain.Process) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeYAML(s.legacyPath(), p)
}

// RemoveLegacyProcess deletes the single-file document after a
// successful migration.
func (s *Store) RemoveLegacyProcess(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.legacyPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove legacy process file: %w", err)
	}
	return nil
}

package yamlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/Hysas/procside/internal/domain"
)

var versionFilePattern = regexp.MustCompile(`^v(\d+)\.yaml$`)

// Snapshot writes a new immutable version of the process and returns
// its number. Numbering is 1-based and derived by counting the files
// already present, so snapshots survive registry rebuilds and manual
// deletion of the live process document.
func (s *Store) Snapshot(ctx context.Context, p domain.Process, reason string, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	dir := s.versionDir(p.ID)
	if err := s.ensureDir(dir); err != nil {
		return 0, err
	}
	next := len(versionFiles(dir)) + 1
	snapshot := domain.ProcessVersion{
		Version:    next,
		SnapshotAt: now,
		Reason:     reason,
		Process:    p,
	}
	if err := s.writeYAML(filepath.Join(dir, fmt.Sprintf("v%d.yaml", next)), snapshot); err != nil {
		return 0, err
	}
	return next, nil
}

// ListVersions returns every snapshot of a process in ascending
// version order. An unknown process id yields an empty list.
func (s *Store) ListVersions(ctx context.Context, id string) ([]domain.ProcessVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := s.versionDir(id)
	files := versionFiles(dir)
	versions := make([]domain.ProcessVersion, 0, len(files))
	for _, name := range files {
		var v domain.ProcessVersion
		if err := readYAML(filepath.Join(dir, name), &v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// LoadVersion reads one numbered snapshot. A missing snapshot
// surfaces as os.ErrNotExist.
func (s *Store) LoadVersion(ctx context.Context, id string, version int) (domain.ProcessVersion, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProcessVersion{}, err
	}
	var v domain.ProcessVersion
	path := filepath.Join(s.versionDir(id), fmt.Sprintf("v%d.yaml", version))
	if err := readYAML(path, &v); err != nil {
		return domain.ProcessVersion{}, err
	}
	return v, nil
}

// versionFiles lists vN.yaml entries in numeric order. Files not
// matching the pattern are ignored rather than treated as corruption.
func versionFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if versionFilePattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return versionNumber(names[i]) < versionNumber(names[j])
	})
	return names
}

func versionNumber(name string) int {
	m := versionFilePattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

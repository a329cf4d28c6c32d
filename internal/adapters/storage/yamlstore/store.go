// Package yamlstore persists registry, process, snapshot, and history
// records as YAML files under the project's .ai directory. One file
// per record keeps the store inspectable and diff-friendly under
// version control.
package yamlstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	aiDirName     = ".ai"
	registryFile  = "registry.yaml"
	processesDir  = "processes"
	versionsDir   = "versions"
	legacyFile    = "process.yaml"
	historyFile   = "history.yaml"
	storeFileMode = 0o644
	storeDirMode  = 0o755
)

// Store reads and writes all durable state for one project directory.
type Store struct {
	root string
	dir  string
}

// New returns a store rooted at the given project directory, keeping
// its files under .ai. The directory is created lazily on first
// write, not here.
func New(root string) (*Store, error) {
	return NewWithArtifactDir(root, aiDirName)
}

// NewWithArtifactDir is New with a custom artifact directory name.
func NewWithArtifactDir(root, dir string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("store root is required")
	}
	if strings.TrimSpace(dir) == "" {
		dir = aiDirName
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	return &Store{root: abs, dir: dir}, nil
}

// Root returns the project directory this store is bound to.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) aiDir() string {
	return filepath.Join(s.root, s.dir)
}

func (s *Store) registryPath() string {
	return filepath.Join(s.aiDir(), registryFile)
}

func (s *Store) processPath(id string) string {
	return filepath.Join(s.aiDir(), processesDir, id+".yaml")
}

func (s *Store) versionDir(id string) string {
	return filepath.Join(s.aiDir(), versionsDir, id)
}

func (s *Store) legacyPath() string {
	return filepath.Join(s.aiDir(), legacyFile)
}

func (s *Store) historyPath() string {
	return filepath.Join(s.aiDir(), historyFile)
}

func (s *Store) ensureDir(dir string) error {
	if err := os.MkdirAll(dir, storeDirMode); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// readYAML decodes one file into out. Missing files surface as
// os.ErrNotExist so callers can distinguish absence from corruption.
func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeYAML encodes in and replaces path in one rename, so a reader
// (or the dashboard watcher) never observes a half-written file.
func (s *Store) writeYAML(path string, in any) error {
	if err := s.ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmp.Name(), storeFileMode); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"
)

// RegistryFormatVersion tags the on-disk registry layout.
const RegistryFormatVersion = 1

// Registry indexes every known process and the currently active one.
// It owns the ProcessMeta summaries and the active pointer; the full
// process documents live as separate records addressed by id.
type Registry struct {
	Version         int            `yaml:"version" json:"version"`
	ActiveProcessID string         `yaml:"activeProcessId" json:"activeProcessId"`
	Processes       []ProcessMeta  `yaml:"processes" json:"processes"`
	Templates       []TemplateMeta `yaml:"templates" json:"templates"`
}

// NewRegistry returns an empty registry at the current format version.
func NewRegistry() Registry {
	return Registry{
		Version:   RegistryFormatVersion,
		Processes: []ProcessMeta{},
		Templates: []TemplateMeta{},
	}
}

// FindMeta returns the index of the summary with the given id, or -1.
func (r Registry) FindMeta(id string) int {
	return slices.IndexFunc(r.Processes, func(m ProcessMeta) bool { return m.ID == id })
}

// ProcessMeta is the denormalized per-process summary cached in the
// registry. It is refreshed explicitly, never implicitly, so it may
// trail the live process between meta-update calls. Tags, Archived,
// and ArchivedAt are registry-owned and survive a refresh.
type ProcessMeta struct {
	ID         string        `yaml:"id" json:"id"`
	Name       string        `yaml:"name" json:"name"`
	Goal       string        `yaml:"goal" json:"goal"`
	Status     ProcessStatus `yaml:"status" json:"status"`
	Template   string        `yaml:"template,omitempty" json:"template,omitempty"`
	CreatedAt  time.Time     `yaml:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `yaml:"updatedAt" json:"updatedAt"`
	Progress   int           `yaml:"progress" json:"progress"`
	Tags       []string      `yaml:"tags" json:"tags"`
	Archived   bool          `yaml:"archived" json:"archived"`
	ArchivedAt *time.Time    `yaml:"archivedAt,omitempty" json:"archivedAt,omitempty"`
}

// NewProcessMeta derives a fresh summary from a live process. The
// registry-owned fields start zeroed; callers merging into an existing
// registry entry must carry them over.
func NewProcessMeta(p Process) ProcessMeta {
	return ProcessMeta{
		ID:        p.ID,
		Name:      p.Name,
		Goal:      p.Goal,
		Status:    p.Status,
		Template:  p.Template,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Progress:  p.Progress(),
		Tags:      []string{},
	}
}

// TemplateMeta tracks a known process template and its usage.
type TemplateMeta struct {
	ID         string    `yaml:"id" json:"id"`
	Name       string    `yaml:"name" json:"name"`
	Source     string    `yaml:"source" json:"source"`
	Path       string    `yaml:"path,omitempty" json:"path,omitempty"`
	LastUsed   time.Time `yaml:"lastUsed" json:"lastUsed"`
	UsageCount int       `yaml:"usageCount" json:"usageCount"`
}

// ProcessVersion is an immutable numbered snapshot of a process. It
// stays valid even if the live process is later removed.
type ProcessVersion struct {
	Version    int       `yaml:"version" json:"version"`
	SnapshotAt time.Time `yaml:"snapshotAt" json:"snapshotAt"`
	Reason     string    `yaml:"reason" json:"reason"`
	Process    Process   `yaml:"process" json:"process"`
}

var processIDPattern = regexp.MustCompile(`^proc-(\d+)$`)

// GenerateProcessID returns the next sequential proc-NNN id, zero
// padded to at least three digits. Ids not matching the pattern are
// ignored for max-finding but remain valid registry entries.
func GenerateProcessID(existing []string) string {
	maxNum := 0
	for _, id := range existing {
		m := processIDPattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		maxNum = max(maxNum, n)
	}
	return fmt.Sprintf("proc-%03d", maxNum+1)
}

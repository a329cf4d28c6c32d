package app

import (
	"context"
	"time"

	"github.com/Hysas/procside/internal/domain"
)

// Store is the persistence port for registry, process, snapshot, and
// history records.
type Store interface {
	RegistryExists(context.Context) (bool, error)
	LoadRegistry(context.Context) (domain.Registry, error)
	SaveRegistry(context.Context, domain.Registry) error

	LoadProcess(context.Context, string) (domain.Process, error)
	SaveProcess(context.Context, domain.Process) error
	ProcessExists(context.Context, string) (bool, error)

	Snapshot(context.Context, domain.Process, string, time.Time) (int, error)
	ListVersions(context.Context, string) ([]domain.ProcessVersion, error)
	LoadVersion(context.Context, string, int) (domain.ProcessVersion, error)

	LegacyExists(context.Context) (bool, error)
	LoadLegacyProcess(context.Context) (domain.Process, error)
	RemoveLegacyProcess(context.Context) error

	LoadHistory(context.Context) ([]domain.HistoryEntry, error)
	AppendHistory(context.Context, domain.HistoryEntry, time.Time) error
	RecentHistory(context.Context, int) ([]domain.HistoryEntry, error)
	ClearHistory(context.Context) error
}

// Clock returns the current time.
type Clock func() time.Time

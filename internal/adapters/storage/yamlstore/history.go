package yamlstore

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Hysas/procside/internal/domain"
)

type historyDocument struct {
	Entries []domain.HistoryEntry `yaml:"entries"`
}

// LoadHistory returns every recorded entry in append order. A missing
// or unreadable history file yields an empty trail: history is an
// audit aid and never blocks the pipeline.
func (s *Store) LoadHistory(ctx context.Context) ([]domain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc historyDocument
	err := readYAML(s.historyPath(), &doc)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.HistoryEntry{}, nil
	}
	if err != nil {
		return []domain.HistoryEntry{}, nil
	}
	if doc.Entries == nil {
		doc.Entries = []domain.HistoryEntry{}
	}
	return doc.Entries, nil
}

// AppendHistory adds one entry to the trail, assigning an id and
// stamping the timestamp when the caller left them zero.
func (s *Store) AppendHistory(ctx context.Context, entry domain.HistoryEntry, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := s.LoadHistory(ctx)
	if err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	entries = append(entries, entry)
	return s.writeYAML(s.historyPath(), historyDocument{Entries: entries})
}

// RecentHistory returns the last count entries, oldest first.
func (s *Store) RecentHistory(ctx context.Context, count int) ([]domain.HistoryEntry, error) {
	entries, err := s.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}
	if count <= 0 || count >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-count:], nil
}

// ClearHistory removes the history file.
func (s *Store) ClearHistory(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.historyPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

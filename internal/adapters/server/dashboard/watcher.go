package dashboard

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher observes the artifact directory and signals the hub whenever
// a tracked file is created or written. fsnotify does not recurse, so
// subdirectories are added as they appear.
type Watcher struct {
	root    string
	fsw     *fsnotify.Watcher
	hub     *Hub
	logger  *log.Logger
	started bool
}

// NewWatcher prepares a watcher rooted at the artifact directory. The
// directory does not have to exist yet; Start will retry adding it as
// soon as events from the parent arrive.
func NewWatcher(root string, h *Hub, logger *log.Logger) (*Watcher, error) {
	if root == "" {
		return nil, fmt.Errorf("watch root is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	return &Watcher{root: root, fsw: fsw, hub: h, logger: logger}, nil
}

// Start begins watching and blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.started = true
	defer w.fsw.Close()

	if err := w.addTree(w.root); err != nil && !os.IsNotExist(err) {
		return err
	}
	// The artifact dir may not exist before the first process is
	// created. Watch the parent so its creation is observed.
	if _, err := os.Stat(w.root); os.IsNotExist(err) {
		if err := w.fsw.Add(filepath.Dir(w.root)); err != nil {
			return fmt.Errorf("watch parent of %s: %w", w.root, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if w.logger != nil {
				w.logger.Warn("watch error", "err", err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil && w.logger != nil {
				w.logger.Warn("watch new dir", "path", event.Name, "err", err)
			}
			return
		}
	}
	if !w.inRoot(event.Name) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("artifact change", "path", event.Name, "op", event.Op.String())
	}
	w.hub.notify()
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) inRoot(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}

package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/blockpad/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// DefaultDebounce is how long a path must be quiet before it is
// re-indexed.
const DefaultDebounce = 150 * time.Millisecond

// Watcher keeps the index in step with documents changed on disk by
// anything other than the server itself.
//
// Events are coalesced per path. When a path settles, its file is compared
// with the indexed checksum: unchanged content (for example a snapshot the
// server already saved and indexed) produces no callback.
type Watcher struct {
	db       *DB
	store    storage.Provider
	root     string
	logger   *slog.Logger
	cb       EventCallback
	debounce time.Duration
}

// NewWatcher creates a watcher over the document root.
func NewWatcher(db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{db: db, store: store, root: root, logger: logger, cb: cb, debounce: DefaultDebounce}
}

// Watch runs a Watcher until ctx is cancelled.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	return NewWatcher(db, store, root, logger, cb).Run(ctx)
}

// Run processes file system events until ctx is cancelled. Directories
// created while running are watched too.
func (wt *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, wt.root); err != nil {
		return err
	}
	wt.logger.Info("watcher: started", slog.String("root", wt.root))

	pending := make(map[string]struct{})
	timer := time.NewTimer(wt.debounce)
	timer.Stop()
	defer timer.Stop()

	mark := func(rel string) {
		pending[rel] = struct{}{}
		timer.Reset(wt.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			wt.logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			for rel := range pending {
				wt.settle(rel)
			}
			clear(pending)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						wt.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					for _, rel := range wt.documentsUnder(ev.Name) {
						mark(rel)
					}
					continue
				}
			}
			// Temp files from atomic writes are skipped.
			if !isDocument(ev.Name) {
				continue
			}
			if rel, ok := wt.relative(ev.Name); ok {
				mark(rel)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			wt.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// settle brings the index entry for rel in line with the file on disk.
func (wt *Watcher) settle(rel string) {
	indexed, err := wt.db.GetChecksum(rel)
	if err != nil {
		wt.logger.Warn("watcher: checksum lookup failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}

	data, err := wt.store.Read(rel)
	if errors.Is(err, os.ErrNotExist) {
		if indexed == "" {
			return
		}
		if err := wt.db.DeleteDocument(rel); err != nil {
			wt.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		wt.logger.Debug("watcher: deleted", slog.String("path", rel))
		wt.notify("deleted", rel)
		return
	}
	if err != nil {
		wt.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if storage.Checksum(data) == indexed {
		return
	}
	if err := IndexDocument(wt.db, rel, data); err != nil {
		wt.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	kind := "updated"
	if indexed == "" {
		kind = "created"
	}
	wt.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	wt.notify(kind, rel)
}

func (wt *Watcher) notify(kind, rel string) {
	if wt.cb != nil {
		wt.cb(kind, rel)
	}
}

func (wt *Watcher) relative(abs string) (string, bool) {
	rel, err := filepath.Rel(wt.root, abs)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// documentsUnder lists documents already present in a new directory.
func (wt *Watcher) documentsUnder(dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isDocument(path) {
			return nil
		}
		if rel, ok := wt.relative(path); ok {
			out = append(out, rel)
		}
		return nil
	})
	return out
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

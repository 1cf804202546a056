package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yodaliu/jera/internal/checksum"
	"github.com/yodaliu/jera/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Rebuilder is the habit directory hook: changes inside the habit
// folder trigger a full snapshot rebuild.
type Rebuilder interface {
	Contains(path string) bool
	Rebuild() error
}

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled. It re-indexes changed notes,
// rebuilds the habit directory when a habit note changes, and calls cb
// (if non-nil) after each successful mutation.
//
// New directories created at runtime are automatically added to the
// watch list. Rename events trigger a debounced reconciliation pass
// that removes stale index rows whose files no longer exist on disk.
func Watch(ctx context.Context, db HabitIndex, store storage.Provider, cfg Config, vaultRoot string, dir Rebuilder, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	maybeRebuild := func(rel string) {
		if dir == nil || !dir.Contains(rel) {
			return
		}
		if rbErr := dir.Rebuild(); rbErr != nil {
			logger.Warn("watcher: habit rebuild failed", slog.String("error", rbErr.Error()))
			return
		}
		if cb != nil {
			cb("habits.rebuilt", rel)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcileAfterRename(db, store, cfg, dir, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories join the watch list immediately.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					indexNewDir(db, store, cfg, vaultRoot, absPath, dir, logger, cb)
					continue
				}
			}

			// Only process .md files from here on.
			if !strings.HasSuffix(absPath, ".md") {
				continue
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if idxErr := reindex(db, store, cfg, rel); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
				if cb != nil {
					cb(kind, rel)
				}
				maybeRebuild(rel)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteByPath(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", rel))
				if cb != nil {
					cb("deleted", rel)
				}
				maybeRebuild(rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path arrives as a separate Create event (if it stays
				// within a watched dir). Delete the old rows now and
				// schedule a short reconciliation pass for stragglers.
				if delErr := db.DeleteByPath(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", rel))
					if cb != nil {
						cb("deleted", rel)
					}
				}
				maybeRebuild(rel)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reindex re-derives a file's rows and records its fresh checksum.
func reindex(db HabitIndex, store storage.Provider, cfg Config, rel string) error {
	if err := IndexFile(db, store, cfg, rel); err != nil {
		return err
	}
	data, err := store.Read(rel)
	if err != nil {
		return err
	}
	return db.SetFileChecksum(rel, checksum.Sum(data))
}

// reconcileAfterRename compares the index's file list against disk:
// stale rows are dropped, changed or unseen files are re-indexed.
func reconcileAfterRename(db HabitIndex, store storage.Provider, cfg Config, dir Rebuilder, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	habitTouched := false
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteByPath(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
				if dir != nil && dir.Contains(p) {
					habitTouched = true
				}
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		if idxErr := reindex(db, store, cfg, p); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("path", p))
			if cb != nil {
				cb("created", p)
			}
			if dir != nil && dir.Contains(p) {
				habitTouched = true
			}
		}
	}

	if habitTouched && dir != nil {
		if rbErr := dir.Rebuild(); rbErr != nil {
			logger.Warn("reconcile: habit rebuild failed", slog.String("error", rbErr.Error()))
		} else if cb != nil {
			cb("habits.rebuilt", "")
		}
	}
}

// indexNewDir indexes any .md files found in a newly created directory.
func indexNewDir(db HabitIndex, store storage.Provider, cfg Config, vaultRoot, dirPath string, dir Rebuilder, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if idxErr := reindex(db, store, cfg, rel); idxErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			if cb != nil {
				cb("created", rel)
			}
			if dir != nil && dir.Contains(rel) {
				if rbErr := dir.Rebuild(); rbErr == nil && cb != nil {
					cb("habits.rebuilt", rel)
				}
			}
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}

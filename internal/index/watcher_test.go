package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yodaliu/jera/internal/storage"
)

// watcherTestEnv sets up a vault dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	return vaultDir, store, db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func checksumOf(db *DB, path string) string {
	cs, _ := db.AllChecksums()
	return cs[path]
}

func TestWatcherNewFileIndexed(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, testCfg(), vaultDir, nil, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.MkdirAll(filepath.Join(vaultDir, "Daily"), 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(vaultDir, "Daily", "2025-07-03.md"), []byte(trackedNote), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return checksumOf(db, "Daily/2025-07-03.md") != ""
	}, "new file not indexed by watcher")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		hist, _ := db.History("Reading", "", "")
		return len(hist) == 1
	}, "entries not derived from new daily note")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:Daily/2025-07-03.md" {
				return true
			}
		}
		return false
	}, "expected created callback")
}

func TestWatcherDeleteRemovesRows(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	_ = store.Write("Daily/2025-07-03.md", []byte(trackedNote))
	if err := Sync(db, store, testCfg(), quietLogger()); err != nil {
		t.Fatal(err)
	}
	if checksumOf(db, "Daily/2025-07-03.md") == "" {
		t.Fatal("precondition: file not indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, testCfg(), vaultDir, nil, quietLogger(), nil)

	time.Sleep(100 * time.Millisecond)
	_ = os.Remove(filepath.Join(vaultDir, "Daily", "2025-07-03.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		hist, _ := db.History("Reading", "", "")
		return len(hist) == 0 && checksumOf(db, "Daily/2025-07-03.md") == ""
	}, "rows not removed after delete")
}

type fakeRebuilder struct {
	mu     sync.Mutex
	folder string
	count  int
}

func (f *fakeRebuilder) Contains(p string) bool {
	return filepath.Dir(p) == f.folder
}

func (f *fakeRebuilder) Rebuild() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return nil
}

func (f *fakeRebuilder) rebuilds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func TestWatcherHabitChangeTriggersRebuild(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	reb := &fakeRebuilder{folder: "Habits"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, testCfg(), vaultDir, reb, quietLogger(), nil)

	time.Sleep(100 * time.Millisecond)
	_ = os.MkdirAll(filepath.Join(vaultDir, "Habits"), 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(vaultDir, "Habits", "Reading.md"), []byte(habitNote), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return reb.rebuilds() > 0
	}, "habit note change did not trigger a rebuild")
}

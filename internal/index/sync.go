package index

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/parser"
	"github.com/yodaliu/jera/internal/period"
	"github.com/yodaliu/jera/internal/storage"
)

// Config tells the indexer which files feed which tables.
type Config struct {
	HabitFolder string
	Exclude     []string
	Heading     string
	Daily       period.NotesConfig
	Keys        habits.Keys
}

// inHabitFolder reports whether p is a habit note path.
func (c Config) inHabitFolder(p string) bool {
	switch c.HabitFolder {
	case "":
		return false
	case "/":
		return strings.HasSuffix(p, ".md")
	}
	return strings.HasPrefix(p, strings.TrimSuffix(c.HabitFolder, "/")+"/")
}

func (c Config) excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range c.Exclude {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

// dailyDate resolves p to the ISO date of the daily note it holds.
// Non-daily paths return ok=false.
func (c Config) dailyDate(p string) (string, bool) {
	if !c.Daily.Enabled || c.Daily.Format == "" {
		return "", false
	}
	folder := strings.TrimSuffix(c.Daily.Folder, "/")
	if folder != "/" {
		dir := path.Dir(p)
		if dir == "." {
			dir = ""
		}
		if dir != folder {
			return "", false
		}
	}
	base := strings.TrimSuffix(path.Base(p), ".md")
	t, err := time.Parse(c.Daily.Format, base)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// Sync reconciles the index with the vault. Files whose checksum
// changed since the last run are re-indexed; rows for files that no
// longer exist are dropped. One unreadable file never aborts the run.
func Sync(db HabitIndex, store storage.Provider, cfg Config, logger *slog.Logger) error {
	known, err := db.AllChecksums()
	if err != nil {
		return err
	}

	metas, err := store.List("")
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(metas))
	indexed := 0
	for _, m := range metas {
		seen[m.Path] = struct{}{}
		if known[m.Path] == m.Checksum {
			continue
		}
		if err := IndexFile(db, store, cfg, m.Path); err != nil {
			logger.Warn("index: file skipped", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := db.SetFileChecksum(m.Path, m.Checksum); err != nil {
			return err
		}
		indexed++
	}

	removed := 0
	for p := range known {
		if _, ok := seen[p]; ok {
			continue
		}
		if err := db.DeleteByPath(p); err != nil {
			logger.Warn("index: stale removal failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	logger.Info("index: sync complete",
		slog.Int("files", len(metas)),
		slog.Int("indexed", indexed),
		slog.Int("removed", removed))
	return nil
}

// IndexFile (re)derives every index row sourced from one vault file: a
// habit_notes row when the file is a habit note, entry rows when it is
// a daily note carrying tracked values.
func IndexFile(db HabitIndex, store storage.Provider, cfg Config, p string) error {
	data, err := store.Read(p)
	if err != nil {
		return err
	}

	if cfg.inHabitFolder(p) {
		name := strings.TrimSuffix(path.Base(p), ".md")
		if !cfg.excluded(name) {
			res, _ := parser.Parse(data)
			h := habits.Habit{Name: name, Path: p, Meta: res.Frontmatter}
			color, _ := h.Prop(cfg.Keys.Color)
			short, _ := h.Prop(cfg.Keys.ShortName)
			if err := db.UpsertHabit(HabitRow{
				Name:      name,
				Path:      p,
				Color:     color,
				ShortName: short,
				Archived:  h.PropBool(cfg.Keys.Archived),
			}); err != nil {
				return err
			}
		}
	}

	date, ok := cfg.dailyDate(p)
	if !ok {
		return nil
	}
	scanned := period.ScanContent(string(data), cfg.Heading, p)
	rows := make([]EntryRow, 0, len(scanned))
	for habit, e := range scanned {
		rows = append(rows, EntryRow{
			Date:     date,
			Habit:    habit,
			Type:     e.Type,
			Value:    e.Value,
			Total:    e.Total,
			Progress: e.Progress,
			Path:     e.Path,
			Line:     e.Line,
		})
	}
	return db.ReplaceEntries(p, date, rows)
}

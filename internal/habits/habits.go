// Package habits maintains the habit directory: a rebuildable mapping
// from habit name (note base filename) to the note's frontmatter
// metadata. Consumers read immutable snapshots; a rebuild replaces the
// whole snapshot with a single atomic pointer swap, so readers observe
// either the old or the new state, never a mix.
package habits

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/yodaliu/jera/internal/parser"
	"github.com/yodaliu/jera/internal/storage"
)

// Habit is one tracked activity, backed by a metadata note. Identity is
// the base filename; renaming the note creates a new habit.
type Habit struct {
	Name string
	Path string
	Meta map[string]interface{} // frontmatter, may be nil
}

// Prop looks up a frontmatter value by its (configured) key and coerces
// it to a string. The two lookup stages are deliberate: settings map a
// logical property to a key, and the key maps to the note's value.
func (h Habit) Prop(key string) (string, bool) {
	if h.Meta == nil || key == "" {
		return "", false
	}
	v, ok := h.Meta[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case bool:
		return fmt.Sprintf("%t", s), true
	case int:
		return fmt.Sprintf("%d", s), true
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", s), ".0"), true
	}
	return fmt.Sprintf("%v", v), true
}

// PropBool reports whether the frontmatter value under key is truthy.
func (h Habit) PropBool(key string) bool {
	s, ok := h.Prop(key)
	if !ok {
		return false
	}
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// Keys maps logical habit properties to the frontmatter keys storing
// them. The indirection is configuration: users pick their own keys.
type Keys struct {
	Color            string `yaml:"color"`
	ShortName        string `yaml:"short_name"`
	CheckedGlyph     string `yaml:"checked_glyph"`
	UncheckedGlyph   string `yaml:"unchecked_glyph"`
	RatedGlyph       string `yaml:"rated_glyph"`
	UnratedGlyph     string `yaml:"unrated_glyph"`
	CompletedGlyph   string `yaml:"completed_glyph"`
	UncompletedGlyph string `yaml:"uncompleted_glyph"`
	Archived         string `yaml:"archived"`
	UseColor         string `yaml:"use_color"`
}

// DefaultKeys are the out-of-the-box frontmatter key names.
func DefaultKeys() Keys {
	return Keys{
		Color:            "Habit_Color",
		ShortName:        "Habit_Short_Name",
		CheckedGlyph:     "Checked_Icon",
		UncheckedGlyph:   "Unchecked_Icon",
		RatedGlyph:       "Rated_Icon",
		UnratedGlyph:     "Unrated_Icon",
		CompletedGlyph:   "Completed_Icon_In_Calendar",
		UncompletedGlyph: "Uncompleted_Icon_In_Calendar",
		Archived:         "if_Archived",
		UseColor:         "if_use_customized_color",
	}
}

// Snapshot is an immutable view of the habit directory.
type Snapshot struct {
	byName map[string]Habit
	names  []string // sorted
}

func emptySnapshot() *Snapshot {
	return &Snapshot{byName: map[string]Habit{}}
}

// SnapshotOf builds a snapshot directly from habits, bypassing the
// folder scan. Useful for consumers that already hold the metadata.
func SnapshotOf(hs ...Habit) *Snapshot {
	s := emptySnapshot()
	for _, h := range hs {
		if _, dup := s.byName[h.Name]; !dup {
			s.names = append(s.names, h.Name)
		}
		s.byName[h.Name] = h
	}
	sort.Strings(s.names)
	return s
}

// Get returns the habit with the given name.
func (s *Snapshot) Get(name string) (Habit, bool) {
	h, ok := s.byName[name]
	return h, ok
}

// Has reports whether name is a known habit.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Names returns all habit names in sorted order.
func (s *Snapshot) Names() []string { return s.names }

// Len returns the number of habits in the snapshot.
func (s *Snapshot) Len() int { return len(s.byName) }

// Directory scans a configured vault folder for habit notes and caches
// the result. Rebuilds are full, last-write-wins replacements.
type Directory struct {
	store   storage.Provider
	folder  string
	exclude []string
	logger  *slog.Logger
	snap    atomic.Pointer[Snapshot]
}

// NewDirectory creates a directory over the given folder. folder "/"
// scans the whole vault; an empty folder yields an empty directory.
// Habit notes whose filename contains any exclude substring
// (case-insensitive) are skipped.
func NewDirectory(store storage.Provider, folder string, exclude []string, logger *slog.Logger) *Directory {
	d := &Directory{store: store, folder: folder, exclude: exclude, logger: logger}
	d.snap.Store(emptySnapshot())
	return d
}

// Snapshot returns the current directory snapshot. Never nil.
func (d *Directory) Snapshot() *Snapshot { return d.snap.Load() }

// Contains reports whether p (a vault-relative path) lies inside the
// habit folder, i.e. whether changes to it should trigger a rebuild.
func (d *Directory) Contains(p string) bool {
	if d.folder == "" {
		return false
	}
	if d.folder == "/" {
		return strings.HasSuffix(p, ".md")
	}
	return strings.HasPrefix(p, strings.TrimSuffix(d.folder, "/")+"/")
}

// Rebuild scans the habit folder and swaps in a fresh snapshot. Notes
// that fail to read or parse are skipped; one bad note never aborts the
// rebuild.
func (d *Directory) Rebuild() error {
	next := emptySnapshot()
	defer func() {
		sort.Strings(next.names)
		d.snap.Store(next)
	}()

	if d.folder == "" {
		return nil
	}
	dir := d.folder
	if dir == "/" {
		dir = ""
	}
	metas, err := d.store.List(dir)
	if err != nil {
		// Missing folder leaves the directory empty, matching the
		// "habit not in directory" recoverable taxonomy.
		d.logger.Warn("habits: scan failed", slog.String("folder", d.folder), slog.String("error", err.Error()))
		return nil
	}

	for _, m := range metas {
		name := strings.TrimSuffix(path.Base(m.Path), ".md")
		if d.excluded(name) {
			continue
		}
		data, err := d.store.Read(m.Path)
		if err != nil {
			d.logger.Warn("habits: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		res, err := parser.Parse(data)
		if err != nil {
			d.logger.Warn("habits: parse failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		next.byName[name] = Habit{Name: name, Path: m.Path, Meta: res.Frontmatter}
		next.names = append(next.names, name)
	}

	d.logger.Debug("habits: rebuilt", slog.Int("count", len(next.byName)))
	return nil
}

func (d *Directory) excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range d.exclude {
		if word == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

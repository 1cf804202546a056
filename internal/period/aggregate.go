package period

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/yodaliu/jera/internal/apperr"
	"github.com/yodaliu/jera/internal/marker"
	"github.com/yodaliu/jera/internal/storage"
)

// Entry is one recorded habit value for one day.
type Entry struct {
	Type     string  `json:"type"`
	Value    int     `json:"value"`
	Total    int     `json:"total"`
	Progress float64 `json:"progress"` // min(value/total, 1), total floored to 1
	Path     string  `json:"path"`     // source note
	Line     int     `json:"line"`     // zero-based line within the note
}

// Table maps ISO date -> habit name -> recorded entry. It is built
// once per aggregation request and immutable afterwards. Every day in
// the requested range has a (possibly empty) inner map.
type Table map[string]map[string]Entry

// Get returns the entry for (date, habit), if recorded.
func (t Table) Get(date, habit string) (Entry, bool) {
	day, ok := t[date]
	if !ok {
		return Entry{}, false
	}
	e, ok := day[habit]
	return e, ok
}

// Aggregator scans a date range of periodic notes for habit values
// recorded under a designated section heading.
type Aggregator struct {
	store   storage.Provider
	heading string
	logger  *slog.Logger
}

// NewAggregator creates an aggregator reading through store. heading is
// the section heading habit lines live under, matched case-insensitively.
func NewAggregator(store storage.Provider, heading string, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: store, heading: heading, logger: logger}
}

// Collect builds the value table for spec, reading one note per day via
// cfg and keeping only habits present in the requested set. Missing
// notes and missing headings leave the day empty; a failed day never
// aborts the rest of the range. Two runs over the same notes produce
// identical tables.
func (a *Aggregator) Collect(ctx context.Context, cfg NotesConfig, spec Spec, habitSet map[string]struct{}) (Table, error) {
	if !cfg.Enabled {
		return Table{}, apperr.ErrPeriodDisabled
	}

	table := make(Table)
	spec.walk(func(date string, notePath string) bool {
		if ctx.Err() != nil {
			return false
		}
		table[date] = map[string]Entry{}

		data, err := a.store.Read(notePath)
		if err != nil {
			// Missing note is not an error; the day stays empty.
			return true
		}

		for habit, entry := range a.scanSection(string(data), notePath) {
			if _, want := habitSet[habit]; !want {
				continue
			}
			table[date][habit] = entry
		}
		return true
	}, cfg)

	return table, ctx.Err()
}

// walk iterates days, resolving each day's note path.
func (s Spec) walk(fn func(date, notePath string) bool, cfg NotesConfig) {
	for d := s.Start; !d.After(s.End); d = d.AddDate(0, 0, 1) {
		if !fn(d.Format("2006-01-02"), cfg.NotePath(d)) {
			return
		}
	}
}

func (a *Aggregator) scanSection(content, notePath string) map[string]Entry {
	return ScanContent(content, a.heading, notePath)
}

// ScanContent extracts habit entries from the heading section of one
// note. Later occurrences of the same habit overwrite earlier ones.
// Shared with the entries index, which records the same values
// incrementally as notes change.
func ScanContent(content, heading, notePath string) map[string]Entry {
	lines := strings.Split(content, "\n")
	start, end := headingSection(lines, heading)
	if start < 0 {
		return nil
	}

	out := make(map[string]Entry)
	for i := start + 1; i < end; i++ {
		for _, occ := range marker.ScanLine(lines[i]) {
			if occ.Habit == "" || !occ.Type().Known() {
				continue
			}
			value, total := valueTotal(occ.Payload)
			out[occ.Habit] = Entry{
				Type:     occ.RawType,
				Value:    value,
				Total:    total,
				Progress: progress(value, total),
				Path:     notePath,
				Line:     i,
			}
		}
	}
	return out
}

// headingSection returns the line span of the first section whose
// heading text matches heading (case-insensitive). The section runs
// until a heading of equal or shallower nesting level, or end of file.
// start is -1 when no heading matches.
func headingSection(lines []string, heading string) (start, end int) {
	re := regexp.MustCompile(`(?i)^(#+)\s+` + regexp.QuoteMeta(heading) + `\s*$`)
	start, end = -1, len(lines)
	level := 0
	for i, line := range lines {
		if m := re.FindStringSubmatch(line); m != nil {
			start = i
			level = len(m[1])
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	for j := start + 1; j < len(lines); j++ {
		trimmed := lines[j]
		n := 0
		for n < len(trimmed) && trimmed[n] == '#' {
			n++
		}
		if n > 0 && n <= level {
			return start, j
		}
	}
	return start, end
}

// valueTotal decodes the first two payload fields. Defaults are 0 and
// 1; a zero total is floored to 1 so progress never divides by zero.
func valueTotal(payload string) (int, int) {
	parts := strings.Split(payload, ",")
	value := atoiDefault(parts, 0, 0)
	total := atoiDefault(parts, 1, 1)
	if total == 0 {
		total = 1
	}
	return value, total
}

func atoiDefault(parts []string, i, def int) int {
	if i >= len(parts) {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
	if err != nil {
		return def
	}
	return n
}

func progress(value, total int) float64 {
	p := float64(value) / float64(total)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

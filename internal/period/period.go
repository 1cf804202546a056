// Package period resolves calendar periods to date ranges and
// aggregates per-day habit values out of periodic notes.
package period

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is a periodic-note cadence.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// Unit is a period specifier unit as written in a tracker block.
type Unit string

const (
	Week  Unit = "week"
	Month Unit = "month"
	Year  Unit = "year"
)

// NotesConfig describes where periodic notes of one granularity live.
// Format is a Go reference layout applied to the note date to obtain
// the filename (without extension).
type NotesConfig struct {
	Folder  string `yaml:"folder"`
	Format  string `yaml:"format"`
	Enabled bool   `yaml:"enabled"`
}

// NotePath returns the vault-relative path of the note for day.
func (c NotesConfig) NotePath(day time.Time) string {
	name := day.Format(c.Format) + ".md"
	if c.Folder == "" || c.Folder == "/" {
		return name
	}
	return strings.TrimSuffix(c.Folder, "/") + "/" + name
}

// Spec is a resolved period: a unit plus the inclusive day range it
// covers.
type Spec struct {
	Unit  Unit
	Start time.Time
	End   time.Time
}

// ParseSpec parses a period specifier of the form "<unit> <value>":
// "week 2025-W05", "month 2025-07", "year 2025". Weeks follow ISO 8601
// (Monday start, week 1 contains January 4th).
func ParseSpec(s string) (Spec, error) {
	unit, value, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Spec{}, fmt.Errorf("period: malformed specifier %q", s)
	}
	value = strings.TrimSpace(value)

	switch Unit(unit) {
	case Week:
		start, err := parseISOWeek(value)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Unit: Week, Start: start, End: start.AddDate(0, 0, 6)}, nil

	case Month:
		start, err := time.Parse("2006-01", value)
		if err != nil {
			return Spec{}, fmt.Errorf("period: bad month %q: %w", value, err)
		}
		return Spec{Unit: Month, Start: start, End: start.AddDate(0, 1, -1)}, nil

	case Year:
		start, err := time.Parse("2006", value)
		if err != nil {
			return Spec{}, fmt.Errorf("period: bad year %q: %w", value, err)
		}
		return Spec{Unit: Year, Start: start, End: start.AddDate(1, 0, -1)}, nil
	}
	return Spec{}, fmt.Errorf("period: unknown unit %q", unit)
}

// parseISOWeek parses "2006-W02" into the Monday starting that ISO week.
func parseISOWeek(value string) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(value, "%d-W%d", &year, &week); err != nil {
		return time.Time{}, fmt.Errorf("period: bad week %q: %w", value, err)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("period: week out of range: %d", week)
	}
	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7), nil
}

// Days iterates the spec's day range inclusively, calling fn with each
// day and its ISO date string.
func (s Spec) Days(fn func(day time.Time, date string)) {
	for d := s.Start; !d.After(s.End); d = d.AddDate(0, 0, 1) {
		fn(d, d.Format("2006-01-02"))
	}
}

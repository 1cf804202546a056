package views

import (
	"fmt"

	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/icon"
	"github.com/yodaliu/jera/internal/period"
)

// Style is a view layout family.
type Style string

const (
	CalendarTight Style = "Calendar-Tight"
	ListRow       Style = "List-Row"
)

// Key selects a composer: note granularity crossed with the requested
// period unit and layout style.
type Key struct {
	Granularity period.Granularity
	Unit        period.Unit
	Style       Style
}

func (k Key) String() string {
	return fmt.Sprintf("%s-%s-%s", k.Granularity, k.Unit, k.Style)
}

// Context carries everything a composer needs to lay out one block.
type Context struct {
	Spec           period.Spec
	Table          period.Table
	Habits         []string
	Snap           *habits.Snapshot
	Keys           habits.Keys
	Defaults       icon.Defaults
	Shape          icon.Shape
	HabitsPerRow   int
	UseCustomColor bool
}

// Composer lays out an aggregated value table as an HTML fragment.
type Composer func(ctx Context) string

var registry = map[Key]Composer{
	{period.Daily, period.Month, CalendarTight}: monthCalendarTight,
	{period.Daily, period.Year, CalendarTight}:  yearCalendarTight,
	{period.Daily, period.Week, ListRow}:        weekListRow,
	{period.Daily, period.Month, ListRow}:       monthListRow,
}

// Lookup resolves the composer for a key.
func Lookup(k Key) (Composer, bool) {
	c, ok := registry[k]
	return c, ok
}

// cellEntry fetches the table entry for (date, habit) as a pointer,
// nil when the day has no recorded value.
func cellEntry(t period.Table, date, habit string) *period.Entry {
	if e, ok := t.Get(date, habit); ok {
		return &e
	}
	return nil
}

// selectIcon resolves the glyph for one cell through the icon engine.
func (c Context) selectIcon(habitName, date string) icon.Info {
	h, _ := c.Snap.Get(habitName)
	return icon.Select(h, c.Keys, c.Defaults, c.UseCustomColor, date, cellEntry(c.Table, date, habitName), c.Shape)
}

package icon

import (
	"fmt"

	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/period"
)

// Defaults are the global fallbacks used when a habit defines no
// calendar glyph overrides.
type Defaults struct {
	CompletedGlyph   string
	UncompletedGlyph string
	AccentColor      string
}

// Info is the fully resolved rendering decision for one calendar cell.
type Info struct {
	Markup  string // glyph text or SVG markup
	Color   string
	Link    string // "path#L<n>" navigation target; empty when no data
	Tooltip string
}

// Select decides the glyph for one (habit, day) cell. It is a pure
// function of its inputs.
//
// Hierarchy: no entry or zero progress renders the uncompleted glyph
// (habit override, then global default, then the shape's failed SVG);
// full progress renders the completed glyph the same way; partial
// progress renders a proportionally filled shape in the resolved
// color. The color is the habit's own only when useCustomColor is set
// and the habit defines one.
func Select(habit habits.Habit, keys habits.Keys, defaults Defaults, useCustomColor bool, date string, entry *period.Entry, shape Shape) Info {
	color := defaults.AccentColor
	if useCustomColor {
		if c, ok := habit.Prop(keys.Color); ok {
			color = "#" + c
		}
	}

	completed, _ := habit.Prop(keys.CompletedGlyph)
	if completed == "" {
		completed = defaults.CompletedGlyph
	}
	uncompleted, _ := habit.Prop(keys.UncompletedGlyph)
	if uncompleted == "" {
		uncompleted = defaults.UncompletedGlyph
	}

	info := Info{Color: color, Tooltip: date}
	if entry == nil {
		info.Markup = fallback(uncompleted, failed(shape))
		return info
	}

	info.Link = fmt.Sprintf("%s#L%d", entry.Path, entry.Line+1)
	info.Tooltip = fmt.Sprintf("%s\nProgress: %d/%d", date, entry.Value, entry.Total)

	switch {
	case entry.Progress >= 1:
		info.Markup = fallback(completed, done(shape, color))
	case entry.Progress > 0:
		info.Markup = partial(shape, entry.Progress, color)
	default:
		// Zero progress renders the same as no recorded value.
		info.Markup = fallback(uncompleted, failed(shape))
	}
	return info
}

func fallback(glyph, svg string) string {
	if glyph != "" {
		return glyph
	}
	return svg
}

func partial(shape Shape, progress float64, color string) string {
	if shape == Square {
		return SquareFill(progress, color)
	}
	return CircleSector(progress, color)
}

func done(shape Shape, color string) string {
	if shape == Square {
		return CompletedSquare(color)
	}
	return CompletedCircle(color)
}

func failed(shape Shape) string {
	if shape == Square {
		return FailedSquare()
	}
	return FailedCircle()
}

package views

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yodaliu/jera/internal/icon"
)

// iconCell renders one calendar cell. Cells backed by a source
// location are clickable and navigate to that line; cells without data
// are inert.
func iconCell(info icon.Info) string {
	if info.Link == "" {
		return fmt.Sprintf(`<div class="habit-calendar-icon" title="%s">%s</div>`,
			html.EscapeString(info.Tooltip), info.Markup)
	}
	return fmt.Sprintf(`<div class="habit-calendar-icon is-clickable" title="%s" data-link="%s">%s</div>`,
		html.EscapeString(info.Tooltip), html.EscapeString(info.Link), info.Markup)
}

// shapeToggle renders the circle/square switch carried by every view.
// The toggle persists into the block source, not into any habit.
func shapeToggle(current icon.Shape) string {
	next := icon.Square
	if current == icon.Square {
		next = icon.Circle
	}
	label := strings.ToUpper(string(next)[:1]) + string(next)[1:]
	return fmt.Sprintf(`<button class="habit-shape-toggle" data-shape="%s">Use %s</button>`, next, label)
}

// isoWeekday returns 0 for Monday through 6 for Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}

var dowLabels = [7]string{"M", "T", "W", "T", "F", "S", "S"}

// monthCalendarTight lays out one mini month calendar per habit,
// habitsPerRow calendars to a row.
func monthCalendarTight(c Context) string {
	month := c.Spec.Start

	perRow := c.HabitsPerRow
	if perRow < 1 {
		perRow = min(4, len(c.Habits))
		if perRow < 1 {
			perRow = 1
		}
	}

	var b strings.Builder
	b.WriteString(`<div class="habit-block habit-month-calendar">`)
	fmt.Fprintf(&b, `<div class="habit-header"><h4>%s</h4><div class="habit-controls">%s<button class="habit-row-dec">-</button><button class="habit-row-inc">+</button></div></div>`,
		month.Format("January 2006"), shapeToggle(c.Shape))

	daysInMonth := c.Spec.End.Day()
	lead := isoWeekday(month)

	for i := 0; i < len(c.Habits); i += perRow {
		chunk := c.Habits[i:min(i+perRow, len(c.Habits))]
		fmt.Fprintf(&b, `<div class="habit-calendar-row" style="grid-template-columns: repeat(%d, 1fr);">`, perRow)
		for _, habit := range chunk {
			fmt.Fprintf(&b, `<div class="habit-calendar-instance"><div class="habit-calendar-title">%s</div><div class="habit-calendar-grid">`,
				html.EscapeString(habit))
			for _, d := range dowLabels {
				fmt.Fprintf(&b, `<div class="habit-calendar-dow">%s</div>`, d)
			}
			for j := 0; j < lead; j++ {
				b.WriteString(`<div></div>`)
			}
			for day := 1; day <= daysInMonth; day++ {
				date := time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
				b.WriteString(iconCell(c.selectIcon(habit, date)))
			}
			b.WriteString(`</div></div>`)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// yearCalendarTight lays out a full-year week-column grid per habit.
func yearCalendarTight(c Context) string {
	year := c.Spec.Start

	// The grid spans from the Monday of the week containing Jan 1 to
	// the Sunday of the week containing Dec 31.
	gridStart := year.AddDate(0, 0, -isoWeekday(year))
	gridEnd := c.Spec.End.AddDate(0, 0, 6-isoWeekday(c.Spec.End))
	columns := int(gridEnd.Sub(gridStart).Hours()/24+1) / 7

	var b strings.Builder
	b.WriteString(`<div class="habit-block habit-year-calendar">`)
	fmt.Fprintf(&b, `<div class="habit-header"><h4>%s</h4><div class="habit-controls">%s</div></div>`,
		year.Format("2006"), shapeToggle(c.Shape))

	for _, habit := range c.Habits {
		fmt.Fprintf(&b, `<div class="habit-calendar-instance"><div class="habit-calendar-title">%s</div>`,
			html.EscapeString(habit))

		// Month labels over the week column containing each month's 1st.
		fmt.Fprintf(&b, `<div class="habit-month-labels" style="--grid-column-count: %d;">`, columns)
		for m := time.January; m <= time.December; m++ {
			first := time.Date(year.Year(), m, 1, 0, 0, 0, 0, time.UTC)
			col := int(first.Sub(gridStart).Hours()/24)/7 + 1
			fmt.Fprintf(&b, `<div class="habit-month-label" style="--grid-column: %d;">%s</div>`,
				col, first.Format("Jan"))
		}
		b.WriteString(`</div>`)

		fmt.Fprintf(&b, `<div class="habit-year-grid" style="--grid-column-count: %d;">`, columns)
		for col := 0; col < columns; col++ {
			for row := 0; row < 7; row++ {
				day := gridStart.AddDate(0, 0, col*7+row)
				if day.Year() != year.Year() {
					b.WriteString(`<div></div>`)
					continue
				}
				b.WriteString(iconCell(c.selectIcon(habit, day.Format("2006-01-02"))))
			}
		}
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// weekListRow lays out one row per habit across the seven days of an
// ISO week.
func weekListRow(c Context) string {
	_, week := c.Spec.Start.ISOWeek()

	var b strings.Builder
	b.WriteString(`<div class="habit-block habit-week-list">`)
	fmt.Fprintf(&b, `<div class="habit-header"><h4>Week %02d, %s</h4><div class="habit-controls">%s</div></div>`,
		week, c.Spec.Start.Format("2006"), shapeToggle(c.Shape))

	b.WriteString(`<div class="habit-list-grid" style="grid-template-columns: auto repeat(7, 1fr);">`)
	b.WriteString(`<div></div>`)
	for _, d := range dowLabels {
		fmt.Fprintf(&b, `<div class="habit-list-dow">%s</div>`, d)
	}
	for _, habit := range c.Habits {
		fmt.Fprintf(&b, `<div class="habit-list-name">%s</div>`, html.EscapeString(habit))
		for i := 0; i < 7; i++ {
			date := c.Spec.Start.AddDate(0, 0, i).Format("2006-01-02")
			b.WriteString(iconCell(c.selectIcon(habit, date)))
		}
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

// monthListRow lays out one row per habit across every day of a month.
func monthListRow(c Context) string {
	month := c.Spec.Start
	daysInMonth := c.Spec.End.Day()

	var b strings.Builder
	b.WriteString(`<div class="habit-block habit-month-list">`)
	fmt.Fprintf(&b, `<div class="habit-header"><h4>%s</h4><div class="habit-controls">%s</div></div>`,
		month.Format("January, 2006"), shapeToggle(c.Shape))

	fmt.Fprintf(&b, `<div class="habit-list-grid" style="grid-template-columns: auto repeat(%d, 30px);">`, daysInMonth)
	b.WriteString(`<div></div>`)
	for day := 1; day <= daysInMonth; day++ {
		fmt.Fprintf(&b, `<div class="habit-list-dow">%02d</div>`, day)
	}
	for _, habit := range c.Habits {
		fmt.Fprintf(&b, `<div class="habit-list-name">%s</div>`, html.EscapeString(habit))
		for day := 1; day <= daysInMonth; day++ {
			date := time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
			b.WriteString(iconCell(c.selectIcon(habit, date)))
		}
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

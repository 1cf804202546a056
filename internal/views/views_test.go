package views

import (
	"strings"
	"testing"

	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/icon"
	"github.com/yodaliu/jera/internal/period"
)

func TestParseBlockDefaults(t *testing.T) {
	cfg, err := ParseBlock("habits: ALL\nperiod: month 2025-07")
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if cfg.Type != "daily" || cfg.View != "Calendar-Tight" || cfg.Shape != "circle" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestParseBlockValidation(t *testing.T) {
	bad := []string{
		"type: hourly\nperiod: month 2025-07",
		"habits: ALL",                       // period missing
		"period: month 2025-07\nshape: hex", // unknown shape
		"period: month 2025-07\nhabitsPerRow: -1",
		"::: not yaml",
	}
	for _, src := range bad {
		if _, err := ParseBlock(src); err == nil {
			t.Errorf("ParseBlock(%q) should fail", src)
		}
	}
}

func TestHabitNames(t *testing.T) {
	cfg := BlockConfig{Habits: "[[Reading]], [[Meditation]]"}
	got := cfg.HabitNames()
	if len(got) != 2 || got[0] != "Reading" || got[1] != "Meditation" {
		t.Errorf("names = %v", got)
	}

	for _, all := range []string{"ALL", "all", ""} {
		if names := (BlockConfig{Habits: all}).HabitNames(); names != nil {
			t.Errorf("Habits %q should expand to nil, got %v", all, names)
		}
	}
}

func TestSourceRoundTrips(t *testing.T) {
	cfg := BlockConfig{
		Habits: "[[Reading]]",
		Type:   "daily",
		Period: "month 2025-07",
		View:   "List-Row",
		Shape:  "square",
	}
	parsed, err := ParseBlock(cfg.Source())
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if parsed.View != "List-Row" || parsed.Shape != "square" || parsed.Period != "month 2025-07" {
		t.Errorf("round trip lost fields: %+v", parsed)
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup(Key{period.Daily, period.Month, CalendarTight}); !ok {
		t.Error("daily month calendar should be registered")
	}
	if _, ok := Lookup(Key{period.Weekly, period.Month, CalendarTight}); ok {
		t.Error("weekly granularity has no composer yet")
	}
	if _, ok := Lookup(Key{period.Daily, period.Year, ListRow}); ok {
		t.Error("year list rows are not registered")
	}
}

func testContext(t *testing.T, periodSpec string) Context {
	t.Helper()
	spec, err := period.ParseSpec(periodSpec)
	if err != nil {
		t.Fatal(err)
	}
	table := period.Table{
		"2025-07-03": {"Reading": period.Entry{
			Type: "number", Value: 30, Total: 60, Progress: 0.5,
			Path: "Daily/2025-07-03.md", Line: 4,
		}},
	}
	return Context{
		Spec:     spec,
		Table:    table,
		Habits:   []string{"Reading", "Meditation"},
		Snap:     habits.SnapshotOf(habits.Habit{Name: "Reading"}, habits.Habit{Name: "Meditation"}),
		Keys:     habits.DefaultKeys(),
		Defaults: icon.Defaults{AccentColor: "#483699"},
		Shape:    icon.Circle,
	}
}

func TestMonthCalendarTight(t *testing.T) {
	out := monthCalendarTight(testContext(t, "month 2025-07"))

	if !strings.Contains(out, "July 2025") {
		t.Error("month title missing")
	}
	if !strings.Contains(out, "Reading") || !strings.Contains(out, "Meditation") {
		t.Error("habit titles missing")
	}
	// 31 day cells per habit.
	if n := strings.Count(out, "habit-calendar-icon"); n != 62 {
		t.Errorf("got %d day cells, want 62", n)
	}
	// The recorded day is clickable and links to its source line.
	if !strings.Contains(out, `data-link="Daily/2025-07-03.md#L5"`) {
		t.Error("recorded day not linked")
	}
	if !strings.Contains(out, "habit-shape-toggle") {
		t.Error("shape toggle missing")
	}
}

func TestYearCalendarTight(t *testing.T) {
	out := yearCalendarTight(testContext(t, "year 2025"))
	if !strings.Contains(out, "<h4>2025</h4>") {
		t.Error("year title missing")
	}
	// 365 in-year cells per habit.
	if n := strings.Count(out, "habit-calendar-icon"); n != 730 {
		t.Errorf("got %d cells, want 730", n)
	}
	if !strings.Contains(out, ">Jan<") || !strings.Contains(out, ">Dec<") {
		t.Error("month labels missing")
	}
}

func TestWeekListRow(t *testing.T) {
	// 2025-07-03 falls in ISO week 27.
	out := weekListRow(testContext(t, "week 2025-W27"))
	if !strings.Contains(out, "Week 27, 2025") {
		t.Errorf("week title missing: %q", out[:100])
	}
	if n := strings.Count(out, "habit-calendar-icon"); n != 14 {
		t.Errorf("got %d cells, want 14", n)
	}
}

func TestMonthListRow(t *testing.T) {
	out := monthListRow(testContext(t, "month 2025-07"))
	if !strings.Contains(out, "July, 2025") {
		t.Error("month title missing")
	}
	if n := strings.Count(out, "habit-calendar-icon"); n != 62 {
		t.Errorf("got %d cells, want 62", n)
	}
}

func TestErrorFragmentEscapes(t *testing.T) {
	out := ErrorFragment("<bad>")
	if strings.Contains(out, "<bad>") {
		t.Errorf("message not escaped: %q", out)
	}
	if !strings.Contains(out, "habit-error") {
		t.Errorf("class missing: %q", out)
	}
}

package icon

import (
	"strings"
	"testing"

	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/period"
)

var testDefaults = Defaults{AccentColor: "#483699"}

func TestSelectNoEntry(t *testing.T) {
	info := Select(habits.Habit{}, habits.DefaultKeys(), testDefaults, false, "2025-07-03", nil, Circle)
	if info.Markup != FailedCircle() {
		t.Errorf("no entry should render the failed shape, got %q", info.Markup)
	}
	if info.Link != "" {
		t.Errorf("no entry should not be clickable, got %q", info.Link)
	}
	if info.Tooltip != "2025-07-03" {
		t.Errorf("tooltip = %q", info.Tooltip)
	}
}

func TestSelectZeroProgressMatchesNoEntry(t *testing.T) {
	entry := &period.Entry{Value: 0, Total: 3, Progress: 0, Path: "Daily/2025-07-03.md", Line: 4}
	info := Select(habits.Habit{}, habits.DefaultKeys(), testDefaults, false, "2025-07-03", entry, Circle)
	none := Select(habits.Habit{}, habits.DefaultKeys(), testDefaults, false, "2025-07-03", nil, Circle)
	if info.Markup != none.Markup {
		t.Error("zero progress should render like no recorded value")
	}
	// But it still links to the source line.
	if info.Link != "Daily/2025-07-03.md#L5" {
		t.Errorf("link = %q", info.Link)
	}
}

func TestSelectCompleted(t *testing.T) {
	entry := &period.Entry{Value: 3, Total: 3, Progress: 1}
	info := Select(habits.Habit{}, habits.DefaultKeys(), testDefaults, false, "2025-07-03", entry, Circle)
	if info.Markup != CompletedCircle("#483699") {
		t.Errorf("completed markup = %q", info.Markup)
	}
	if !strings.Contains(info.Tooltip, "Progress: 3/3") {
		t.Errorf("tooltip = %q", info.Tooltip)
	}
}

func TestSelectPartial(t *testing.T) {
	entry := &period.Entry{Value: 1, Total: 2, Progress: 0.5}

	circle := Select(habits.Habit{}, habits.DefaultKeys(), testDefaults, false, "d", entry, Circle)
	if circle.Markup != CircleSector(0.5, "#483699") {
		t.Errorf("circle markup = %q", circle.Markup)
	}

	square := Select(habits.Habit{}, habits.DefaultKeys(), testDefaults, false, "d", entry, Square)
	if square.Markup != SquareFill(0.5, "#483699") {
		t.Errorf("square markup = %q", square.Markup)
	}
}

func TestSelectGlyphOverrides(t *testing.T) {
	keys := habits.DefaultKeys()
	habit := habits.Habit{Meta: map[string]interface{}{
		keys.CompletedGlyph:   "🌟",
		keys.UncompletedGlyph: "💤",
	}}

	done := Select(habit, keys, testDefaults, false, "d", &period.Entry{Progress: 1}, Circle)
	if done.Markup != "🌟" {
		t.Errorf("habit glyph override ignored: %q", done.Markup)
	}

	missed := Select(habit, keys, testDefaults, false, "d", nil, Circle)
	if missed.Markup != "💤" {
		t.Errorf("uncompleted override ignored: %q", missed.Markup)
	}

	// Global defaults apply when the habit has no override.
	withGlobal := Defaults{CompletedGlyph: "🟢", AccentColor: "#483699"}
	g := Select(habits.Habit{}, keys, withGlobal, false, "d", &period.Entry{Progress: 1}, Circle)
	if g.Markup != "🟢" {
		t.Errorf("global default ignored: %q", g.Markup)
	}
}

func TestSelectCustomColor(t *testing.T) {
	keys := habits.DefaultKeys()
	habit := habits.Habit{Meta: map[string]interface{}{keys.Color: "40A578"}}
	entry := &period.Entry{Value: 1, Total: 2, Progress: 0.5}

	custom := Select(habit, keys, testDefaults, true, "d", entry, Circle)
	if custom.Color != "#40A578" {
		t.Errorf("color = %q, want #40A578", custom.Color)
	}

	// Custom color off falls back to the accent even when defined.
	plain := Select(habit, keys, testDefaults, false, "d", entry, Circle)
	if plain.Color != "#483699" {
		t.Errorf("color = %q, want accent", plain.Color)
	}
}

func TestSelectIsPure(t *testing.T) {
	entry := &period.Entry{Value: 1, Total: 2, Progress: 0.5, Path: "p.md", Line: 1}
	a := Select(habits.Habit{}, habits.DefaultKeys(), testDefaults, true, "2025-07-03", entry, Square)
	b := Select(habits.Habit{}, habits.DefaultKeys(), testDefaults, true, "2025-07-03", entry, Square)
	if a != b {
		t.Error("same inputs produced different decisions")
	}
}

func TestCircleSectorLargeArc(t *testing.T) {
	small := CircleSector(0.25, "#000")
	large := CircleSector(0.75, "#000")
	if !strings.Contains(small, " 0,1 ") {
		t.Errorf("quarter sector should use small arc: %q", small)
	}
	if !strings.Contains(large, " 1,1 ") {
		t.Errorf("three-quarter sector should use large arc: %q", large)
	}
}

func TestSquareFillClamps(t *testing.T) {
	over := SquareFill(1.7, "#000")
	full := SquareFill(1, "#000")
	if over != full {
		t.Error("progress above 1 should clamp to full")
	}
}

func TestShapeValid(t *testing.T) {
	if !Circle.Valid() || !Square.Valid() {
		t.Error("known shapes should be valid")
	}
	if Shape("hex").Valid() {
		t.Error("unknown shape should be invalid")
	}
}

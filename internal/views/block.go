// Package views lays out aggregated habit data as calendar or list
// grids. Composers are selected through a typed registry keyed by
// (granularity, period unit, view style); unregistered combinations
// produce a visible error fragment, never a crash.
package views

import (
	"fmt"
	"html"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/yodaliu/jera/internal/icon"
	"github.com/yodaliu/jera/internal/period"
)

// BlockConfig is the structured settings document inside a
// habit-tracker code block.
type BlockConfig struct {
	Habits             string `yaml:"habits"` // comma list of names, or "ALL"
	Type               string `yaml:"type"`   // daily|weekly|monthly|yearly
	Period             string `yaml:"period"` // "<unit> <value>", e.g. "month 2025-07"
	View               string `yaml:"view"`
	Shape              string `yaml:"shape"`
	HabitsPerRow       int    `yaml:"habitsPerRow"`
	UseCustomizedColor bool   `yaml:"useCustomizedColor"`
}

// ParseBlock decodes and validates block source, filling defaults for
// omitted fields.
func ParseBlock(src string) (BlockConfig, error) {
	var cfg BlockConfig
	if err := yaml.Unmarshal([]byte(src), &cfg); err != nil {
		return BlockConfig{}, fmt.Errorf("views: parse block: %w", err)
	}
	if cfg.Type == "" {
		cfg.Type = string(period.Daily)
	}
	if cfg.View == "" {
		cfg.View = string(CalendarTight)
	}
	if cfg.Shape == "" {
		cfg.Shape = string(icon.Circle)
	}
	if err := cfg.Validate(); err != nil {
		return BlockConfig{}, fmt.Errorf("views: invalid block: %w", err)
	}
	return cfg, nil
}

// Validate checks the block configuration.
func (c BlockConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In(
			string(period.Daily), string(period.Weekly), string(period.Monthly), string(period.Yearly))),
		validation.Field(&c.Period, validation.Required),
		validation.Field(&c.Shape, validation.In(string(icon.Circle), string(icon.Square))),
		validation.Field(&c.HabitsPerRow, validation.Min(0)),
	)
}

// HabitNames returns the requested habit names, stripped of wikilink
// brackets. An empty list means "ALL".
func (c BlockConfig) HabitNames() []string {
	raw := strings.TrimSpace(c.Habits)
	if raw == "" || strings.EqualFold(raw, "ALL") {
		return nil
	}
	raw = strings.ReplaceAll(raw, "[[", "")
	raw = strings.ReplaceAll(raw, "]]", "")
	var out []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Source serialises the block config back into block source lines,
// used when inserting a fresh tracker block into a note.
func (c BlockConfig) Source() string {
	var b strings.Builder
	habitsField := c.Habits
	if strings.TrimSpace(habitsField) == "" {
		habitsField = "ALL"
	}
	fmt.Fprintf(&b, "habits: %s\n", habitsField)
	fmt.Fprintf(&b, "type: %s\n", c.Type)
	fmt.Fprintf(&b, "period: %s\n", c.Period)
	fmt.Fprintf(&b, "view: %s\n", c.View)
	fmt.Fprintf(&b, "shape: %s\n", c.Shape)
	if c.HabitsPerRow > 0 {
		fmt.Fprintf(&b, "habitsPerRow: %d\n", c.HabitsPerRow)
	}
	fmt.Fprintf(&b, "useCustomizedColor: %t", c.UseCustomizedColor)
	return b.String()
}

// ErrorFragment renders an inline placeholder shown in place of a
// widget when its configuration is unusable. Errors here never affect
// other widgets on the page.
func ErrorFragment(msg string) string {
	return fmt.Sprintf(`<p class="habit-error">%s</p>`, html.EscapeString(msg))
}

// Package render turns decoded markers into interactive HTML widget
// fragments and rewrites whole note bodies for display. Fragments carry
// data attributes so the front end can re-encode the full field set and
// request a document patch on interaction.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/marker"
)

// Glyphs are the global default widget glyphs per marker type.
type Glyphs struct {
	Checked   string
	Unchecked string
	Rated     string
	Unrated   string
}

// Renderer produces widget HTML for inline markers.
type Renderer struct {
	keys   habits.Keys
	glyphs Glyphs
}

// New creates a renderer. keys drive the habit-level glyph overrides
// that sit between a marker's own glyphs and the global defaults.
func New(keys habits.Keys, glyphs Glyphs) *Renderer {
	return &Renderer{keys: keys, glyphs: glyphs}
}

// Page renders a note body: text is HTML-escaped, every recognised
// marker is replaced by its widget fragment, and a warning annotation
// is appended after markers that reference an unknown habit (gated by
// the marker's warn flag). Markers with unrecognised types are left as
// literal text. A marker that fails to render never affects the rest
// of the page.
func (r *Renderer) Page(content string, snap *habits.Snapshot) string {
	lines := strings.Split(content, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = r.line(line, snap)
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) line(line string, snap *habits.Snapshot) string {
	occs := marker.ScanLine(line)
	if len(occs) == 0 {
		return html.EscapeString(line)
	}

	var b strings.Builder
	pos := 0
	for _, occ := range occs {
		b.WriteString(html.EscapeString(line[pos:occ.Start]))
		pos = occ.End

		if !occ.Type().Known() {
			// Unknown types stay untouched.
			b.WriteString(html.EscapeString(line[occ.Start:occ.End]))
			continue
		}

		var habit habits.Habit
		if occ.Habit != "" {
			habit, _ = snap.Get(occ.Habit)
		}
		widget, warn := r.Widget(occ, habit)
		b.WriteString(widget)

		if occ.Habit != "" && warn && !snap.Has(occ.Habit) {
			fmt.Fprintf(&b,
				` <em class="habit-warning">&#10071;Warning, <strong>%s</strong> is not in Habit Folder.</em>`,
				html.EscapeString(occ.Habit))
		}
	}
	b.WriteString(html.EscapeString(line[pos:]))
	return b.String()
}

// Widget renders the fragment for one recognised occurrence and
// reports the marker's warn flag. habit may be the zero value when the
// marker has no reference or the habit is unknown.
func (r *Renderer) Widget(occ marker.Occurrence, habit habits.Habit) (string, bool) {
	p, err := marker.Decode(occ.Type(), occ.Payload)
	if err != nil {
		return html.EscapeString(occ.Payload), true
	}
	switch v := p.(type) {
	case marker.ChecksPayload:
		return r.checks(v, occ.ID, habit), v.Warn
	case marker.RatingPayload:
		return r.rating(v, occ.ID, habit), v.Warn
	case marker.NumberPayload:
		return r.number(v, occ.ID), v.Warn
	case marker.ProgressPayload:
		return r.progress(v, occ.ID), v.Warn
	}
	return html.EscapeString(occ.Payload), true
}

// glyph resolves the display glyph: the marker's own value wins, then
// the habit's frontmatter override, then the global default.
func (r *Renderer) glyph(custom string, habit habits.Habit, key, def string) string {
	if custom != "" {
		return custom
	}
	if v, ok := habit.Prop(key); ok {
		return v
	}
	return def
}

func (r *Renderer) checks(p marker.ChecksPayload, id string, habit habits.Habit) string {
	checked := r.glyph(p.CheckedGlyph, habit, r.keys.CheckedGlyph, r.glyphs.Checked)
	unchecked := r.glyph(p.UncheckedGlyph, habit, r.keys.UncheckedGlyph, r.glyphs.Unchecked)

	var cells strings.Builder
	for i := 0; i < p.Total; i++ {
		on := i < len(p.Bits) && p.Bits[i] == '1'
		glyph := unchecked
		if on {
			glyph = checked
		}
		fmt.Fprintf(&cells,
			`<span class="habit-check" data-pos="%d" data-checked="%t">%s</span>`,
			i, on, html.EscapeString(glyph))
	}
	return fmt.Sprintf(
		`<span class="habit-wrapper" data-id="%s" data-type="checks" data-warn="%s" data-custom-checked="%s" data-custom-unchecked="%s">%s</span>`,
		id, warnAttr(p.Warn), html.EscapeString(p.CheckedGlyph), html.EscapeString(p.UncheckedGlyph), cells.String())
}

func (r *Renderer) rating(p marker.RatingPayload, id string, habit habits.Habit) string {
	rated := r.glyph(p.RatedGlyph, habit, r.keys.RatedGlyph, r.glyphs.Rated)
	unrated := r.glyph(p.UnratedGlyph, habit, r.keys.UnratedGlyph, r.glyphs.Unrated)

	var stars strings.Builder
	for i := 1; i <= p.Max; i++ {
		glyph := unrated
		if i <= p.Value {
			glyph = rated
		}
		fmt.Fprintf(&stars,
			`<span class="habit-star" data-val="%d">%s</span>`, i, html.EscapeString(glyph))
	}
	return fmt.Sprintf(
		`<span class="habit-wrapper" data-id="%s" data-type="rating" data-warn="%s" data-max="%d" data-rated="%s" data-unrated="%s">%s</span>`,
		id, warnAttr(p.Warn), p.Max, html.EscapeString(p.RatedGlyph), html.EscapeString(p.UnratedGlyph), stars.String())
}

func (r *Renderer) number(p marker.NumberPayload, id string) string {
	return fmt.Sprintf(
		`<span class="habit-wrapper" data-id="%s" data-type="number" data-warn="%s" data-unit="%s" data-upper="%s"><input type="number" class="habit-number-input" value="%s" min="0"> / %s %s</span>`,
		id, warnAttr(p.Warn), html.EscapeString(p.Unit), html.EscapeString(p.Upper),
		html.EscapeString(p.Value), html.EscapeString(p.Upper), html.EscapeString(p.Unit))
}

func (r *Renderer) progress(p marker.ProgressPayload, id string) string {
	return fmt.Sprintf(
		`<span class="habit-wrapper" data-id="%s" data-type="progress" data-warn="%s" data-max="%d"><input type="range" class="habit-progress-slider" value="%d" max="%d"> <span class="habit-progress-value">%d</span>/%d</span>`,
		id, warnAttr(p.Warn), p.Total, p.Value, p.Total, p.Value, p.Total)
}

func warnAttr(warn bool) string {
	if warn {
		return "T"
	}
	return "F"
}

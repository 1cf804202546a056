// Package marker implements the inline habit marker format embedded in
// note text:
//
//	{{<type>:<field1>,<field2>,...,<warnFlag>:<id>}}
//
// The codec is lossless for the semantic fields: decoding a payload and
// re-encoding it yields a payload that decodes identically. Malformed
// numeric fields fall back to documented defaults and never produce an
// error.
package marker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yodaliu/jera/internal/apperr"
)

// Type identifies a marker payload shape.
type Type string

const (
	Checks   Type = "checks"
	Rating   Type = "rating"
	Number   Type = "number"
	Progress Type = "progress"
)

// Known reports whether t is one of the four recognised marker types.
// Markers with unknown types are left untouched by every consumer.
func (t Type) Known() bool {
	switch t {
	case Checks, Rating, Number, Progress:
		return true
	}
	return false
}

// Payload is one decoded marker payload.
type Payload interface {
	Type() Type
	// Encode re-serialises the payload as the comma-joined field list,
	// field order preserved, warn flag last.
	Encode() string
}

// ChecksPayload is a set of toggle cells.
// Wire layout: checked,total,bits,checkedGlyph,uncheckedGlyph,warn.
type ChecksPayload struct {
	Checked        int
	Total          int
	Bits           string // '0'/'1' per cell, length == Total
	CheckedGlyph   string // empty means "use habit override or global default"
	UncheckedGlyph string
	Warn           bool
}

func (p ChecksPayload) Type() Type { return Checks }

func (p ChecksPayload) Encode() string {
	return strings.Join([]string{
		strconv.Itoa(p.Checked),
		strconv.Itoa(p.Total),
		p.Bits,
		p.CheckedGlyph,
		p.UncheckedGlyph,
		flag(p.Warn),
	}, ",")
}

// Popcount returns the number of '1' cells in the bitstring.
func (p ChecksPayload) Popcount() int {
	return strings.Count(p.Bits, "1")
}

// Toggle flips the cell at pos and returns a payload with the checked
// count recomputed from the resulting bitstring. Out-of-range positions
// return the payload unchanged.
func (p ChecksPayload) Toggle(pos int) ChecksPayload {
	if pos < 0 || pos >= len(p.Bits) {
		return p
	}
	b := []byte(p.Bits)
	if b[pos] == '1' {
		b[pos] = '0'
	} else {
		b[pos] = '1'
	}
	p.Bits = string(b)
	p.Checked = p.Popcount()
	return p
}

// RatingPayload is a star-rating cell row.
// Wire layout: value,max,ratedGlyph,unratedGlyph,warn.
type RatingPayload struct {
	Value        int
	Max          int
	RatedGlyph   string
	UnratedGlyph string
	Warn         bool
}

func (p RatingPayload) Type() Type { return Rating }

func (p RatingPayload) Encode() string {
	return strings.Join([]string{
		strconv.Itoa(p.Value),
		strconv.Itoa(p.Max),
		p.RatedGlyph,
		p.UnratedGlyph,
		flag(p.Warn),
	}, ",")
}

// NumberPayload is a numeric input with an upper bound and a unit.
// Wire layout: value,upper,unit,warn. Value and upper stay textual so
// user-entered forms round-trip byte-for-byte.
type NumberPayload struct {
	Value string
	Upper string
	Unit  string
	Warn  bool
}

func (p NumberPayload) Type() Type { return Number }

func (p NumberPayload) Encode() string {
	return strings.Join([]string{p.Value, p.Upper, p.Unit, flag(p.Warn)}, ",")
}

// ProgressPayload is a slider value against a total.
// Wire layout: value,total,warn.
type ProgressPayload struct {
	Value int
	Total int
	Warn  bool
}

func (p ProgressPayload) Type() Type { return Progress }

func (p ProgressPayload) Encode() string {
	return strings.Join([]string{
		strconv.Itoa(p.Value),
		strconv.Itoa(p.Total),
		flag(p.Warn),
	}, ",")
}

// Decode parses a payload string for the given marker type. Unknown
// types are the only error condition; every field-level problem falls
// back to a default.
func Decode(t Type, payload string) (Payload, error) {
	values, warn := splitFields(payload)
	switch t {
	case Checks:
		return decodeChecks(values, warn), nil
	case Rating:
		return decodeRating(values, warn), nil
	case Number:
		return decodeNumber(values, warn), nil
	case Progress:
		return decodeProgress(values, warn), nil
	}
	return nil, fmt.Errorf("marker: unknown type %q", t)
}

// splitFields splits the payload on commas and pops the trailing warn
// flag, which defaults to true when absent or empty.
func splitFields(payload string) ([]string, bool) {
	parts := strings.Split(payload, ",")
	last := parts[len(parts)-1]
	parts = parts[:len(parts)-1]
	warn := last == "" || strings.EqualFold(last, "T")
	return parts, warn
}

func decodeChecks(values []string, warn bool) ChecksPayload {
	p := ChecksPayload{Warn: warn}
	p.Checked = intField(values, 0, 0)
	bits := field(values, 2)
	// Total falls back to the bitstring length when unparsable or zero.
	p.Total = intField(values, 1, 0)
	if p.Total == 0 {
		p.Total = len(bits)
	}
	// Bitstring falls back to all-unchecked when absent.
	if bits == "" {
		bits = strings.Repeat("0", p.Total)
	}
	p.Bits = bits
	p.CheckedGlyph = field(values, 3)
	p.UncheckedGlyph = field(values, 4)
	return p
}

func decodeRating(values []string, warn bool) RatingPayload {
	p := RatingPayload{Warn: warn}
	p.Value = intField(values, 0, 0)
	p.Max = intField(values, 1, 5)
	if p.Max == 0 {
		p.Max = 5
	}
	p.RatedGlyph = field(values, 2)
	p.UnratedGlyph = field(values, 3)
	return p
}

func decodeNumber(values []string, warn bool) NumberPayload {
	p := NumberPayload{Warn: warn}
	p.Value = field(values, 0)
	if p.Value == "" {
		p.Value = "0"
	}
	p.Upper = field(values, 1)
	if p.Upper == "" {
		p.Upper = "0"
	}
	p.Unit = field(values, 2)
	return p
}

func decodeProgress(values []string, warn bool) ProgressPayload {
	p := ProgressPayload{Warn: warn}
	p.Value = intField(values, 0, 0)
	p.Total = intField(values, 1, 100)
	if p.Total == 0 {
		p.Total = 100
	}
	return p
}

// CheckGlyphs rejects payloads whose glyph fields contain a comma. The
// wire format has no escaping, so such glyphs would corrupt the field
// layout on the next decode. Only enforced on newly minted or patched
// markers; existing text always decodes.
func CheckGlyphs(p Payload) error {
	var glyphs []string
	switch v := p.(type) {
	case ChecksPayload:
		glyphs = []string{v.CheckedGlyph, v.UncheckedGlyph}
	case RatingPayload:
		glyphs = []string{v.RatedGlyph, v.UnratedGlyph}
	case NumberPayload:
		glyphs = []string{v.Unit}
	}
	for _, g := range glyphs {
		if strings.Contains(g, ",") {
			return apperr.ErrGlyphComma
		}
	}
	return nil
}

func field(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func intField(values []string, i, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(field(values, i)))
	if err != nil {
		return def
	}
	return n
}

func flag(warn bool) string {
	if warn {
		return "T"
	}
	return "F"
}

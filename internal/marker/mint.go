package marker

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// MintID generates a fresh marker id: "id" + unix milliseconds + a
// two-digit random suffix. Ids are never reused; they only exist to
// retarget a specific occurrence for rewriting.
func MintID(now time.Time) string {
	return fmt.Sprintf("id%d%02d", now.UnixMilli(), rand.Intn(100))
}

// Mint builds the full marker text for a payload with an id that does
// not collide with any marker already present in doc. Duplicated ids
// make later patches ambiguous, so uniqueness is enforced here rather
// than defended against at patch time.
func Mint(doc string, p Payload) (string, error) {
	if err := CheckGlyphs(p); err != nil {
		return "", err
	}
	id := MintID(time.Now())
	for strings.Contains(doc, ":"+id+"}}") {
		id = MintID(time.Now())
	}
	return fmt.Sprintf("{{%s:%s:%s}}", p.Type(), p.Encode(), id), nil
}

// NewChecks builds the initial payload for a freshly inserted checks
// marker: zero checked cells out of count.
func NewChecks(count int, checkedGlyph, uncheckedGlyph string, warn bool) ChecksPayload {
	if count < 1 {
		count = 1
	}
	return ChecksPayload{
		Checked:        0,
		Total:          count,
		Bits:           strings.Repeat("0", count),
		CheckedGlyph:   checkedGlyph,
		UncheckedGlyph: uncheckedGlyph,
		Warn:           warn,
	}
}

// NewRating builds the initial payload for a rating marker.
func NewRating(max int, ratedGlyph, unratedGlyph string, warn bool) RatingPayload {
	if max < 1 {
		max = 5
	}
	return RatingPayload{Max: max, RatedGlyph: ratedGlyph, UnratedGlyph: unratedGlyph, Warn: warn}
}

// NewNumber builds the initial payload for a number marker.
func NewNumber(value, upper, unit string, warn bool) NumberPayload {
	if value == "" {
		value = "0"
	}
	if upper == "" {
		upper = "0"
	}
	return NumberPayload{Value: value, Upper: upper, Unit: unit, Warn: warn}
}

// NewProgress builds the initial payload for a progress marker.
func NewProgress(value, total int, warn bool) ProgressPayload {
	if total < 1 {
		total = 100
	}
	return ProgressPayload{Value: value, Total: total, Warn: warn}
}

// WithValue returns a copy of p with its primary value set to v, used
// by programmatic logging (MCP). Checks markers fill the first v cells;
// the others set the value field directly, clamped to the payload's
// natural range.
func WithValue(p Payload, v int) Payload {
	if v < 0 {
		v = 0
	}
	switch t := p.(type) {
	case ChecksPayload:
		if v > t.Total {
			v = t.Total
		}
		t.Bits = strings.Repeat("1", v) + strings.Repeat("0", t.Total-v)
		t.Checked = v
		return t
	case RatingPayload:
		if v > t.Max {
			v = t.Max
		}
		t.Value = v
		return t
	case NumberPayload:
		t.Value = fmt.Sprintf("%d", v)
		return t
	case ProgressPayload:
		if v > t.Total {
			v = t.Total
		}
		t.Value = v
		return t
	}
	return p
}

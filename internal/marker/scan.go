package marker

import "regexp"

// inlineRe matches a marker optionally preceded by a habit reference:
// either a [[wikilink]] or a rendered anchor whose visible text is the
// habit name, optionally followed by a colon.
var inlineRe = regexp.MustCompile(
	`(?:\[\[([^\]]+)\]\]|<a [^>]*>([^<]+)</a>)?\s*:?\s*\{\{([a-z]+):(.+?):(id[0-9]+)\}\}`)

// Occurrence is one marker found in a line of text.
type Occurrence struct {
	Habit   string // referenced habit name, empty when the marker stands alone
	RawType string // type token as written, possibly unrecognised
	Payload string
	ID      string

	// Byte offsets of the {{...}} token itself within the scanned line,
	// excluding any habit reference prefix.
	Start, End int
}

// Type returns the occurrence's marker type; Known() is false for
// types this codec does not understand.
func (o Occurrence) Type() Type { return Type(o.RawType) }

// ScanLine finds every marker occurrence in a single line.
func ScanLine(line string) []Occurrence {
	idx := inlineRe.FindAllStringSubmatchIndex(line, -1)
	if idx == nil {
		return nil
	}
	out := make([]Occurrence, 0, len(idx))
	for _, m := range idx {
		occ := Occurrence{
			RawType: group(line, m, 3),
			Payload: group(line, m, 4),
			ID:      group(line, m, 5),
		}
		if g := group(line, m, 1); g != "" {
			occ.Habit = g
		} else if g := group(line, m, 2); g != "" {
			occ.Habit = g
		}
		// The marker token starts two bytes before the type group ("{{")
		// and ends two bytes after the id group ("}}").
		occ.Start = m[6] - 2
		occ.End = m[11] + 2
		out = append(out, occ)
	}
	return out
}

func group(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}

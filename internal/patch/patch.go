// Package patch rewrites single spans of note text in place: the
// payload segment of one inline marker, or one key line inside a
// habit-tracker code block. Everything outside the target span is
// preserved byte-for-byte.
package patch

import (
	"regexp"
	"strings"

	"github.com/yodaliu/jera/internal/apperr"
	"github.com/yodaliu/jera/internal/marker"
)

// ReplacePayload locates the marker {{typ:<payload>:id}} in doc and
// splices newPayload between the anchors, leaving the wrapper and all
// surrounding text untouched. The search is an explicit span scan, not
// a regex, so unbalanced braces elsewhere in the document cannot cause
// a mismatch. At most the first occurrence is rewritten; ids are
// document-unique by the minting scheme.
//
// Returns apperr.ErrMarkerNotFound when no occurrence exists.
func ReplacePayload(doc string, typ marker.Type, id, newPayload string) (string, error) {
	start, end, ok := findPayloadSpan(doc, string(typ), id)
	if !ok {
		return "", apperr.ErrMarkerNotFound
	}
	return doc[:start] + newPayload + doc[end:], nil
}

// findPayloadSpan returns the byte span of the payload segment of the
// marker with the given type and id.
func findPayloadSpan(doc, typ, id string) (start, end int, ok bool) {
	prefix := "{{" + typ + ":"
	suffix := ":" + id + "}}"

	from := 0
	for {
		p := strings.Index(doc[from:], prefix)
		if p < 0 {
			return 0, 0, false
		}
		p += from
		payloadStart := p + len(prefix)

		s := strings.Index(doc[payloadStart:], suffix)
		if s < 0 {
			return 0, 0, false
		}
		payloadEnd := payloadStart + s

		// The candidate payload must be a plain field list. A colon or
		// brace inside it means the suffix we found belongs to a later
		// marker; resume scanning after this prefix.
		if validPayload(doc[payloadStart:payloadEnd]) {
			return payloadStart, payloadEnd, true
		}
		from = p + len(prefix)
	}
}

func validPayload(s string) bool {
	return !strings.ContainsAny(s, ":{}\n")
}

const blockFence = "```habit-tracker"

// UpdateBlockKey rewrites the "key: value" line inside the n-th
// (zero-based) habit-tracker code block of doc, appending the line
// before the closing fence when the key is absent. Used to persist
// per-view toggles (shape, habitsPerRow) back into the block source.
//
// Returns apperr.ErrBlockNotFound when doc has no n-th tracker block.
func UpdateBlockKey(doc string, n int, key, value string) (string, error) {
	lines := strings.Split(doc, "\n")
	keyRe := regexp.MustCompile(`^(\s*` + regexp.QuoteMeta(key) + `\s*:\s*)(.*)$`)

	block := -1
	inBlock := false
	found := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inBlock {
			if trimmed == blockFence {
				block++
				inBlock = true
			}
			continue
		}
		if trimmed == "```" {
			// Closing fence of the target block: append the key if no
			// existing line matched.
			if block == n {
				if !found {
					lines = append(lines[:i], append([]string{key + ": " + value}, lines[i:]...)...)
				}
				return strings.Join(lines, "\n"), nil
			}
			inBlock = false
			continue
		}
		if block != n || found {
			continue
		}
		if m := keyRe.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + value
			found = true
		}
	}
	return "", apperr.ErrBlockNotFound
}

// TrackerBlocks returns the source text of every habit-tracker code
// block in doc, in document order.
func TrackerBlocks(doc string) []string {
	lines := strings.Split(doc, "\n")
	var blocks []string
	var cur []string
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inBlock && trimmed == blockFence:
			inBlock = true
			cur = cur[:0]
		case inBlock && trimmed == "```":
			inBlock = false
			blocks = append(blocks, strings.Join(cur, "\n"))
		case inBlock:
			cur = append(cur, line)
		}
	}
	return blocks
}

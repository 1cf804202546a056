package patch

import (
	"errors"
	"strings"
	"testing"

	"github.com/yodaliu/jera/internal/apperr"
	"github.com/yodaliu/jera/internal/marker"
)

func TestReplacePayload(t *testing.T) {
	doc := "a {{number:5,10,kg,T:id42}} b"
	got, err := ReplacePayload(doc, marker.Number, "id42", "7,10,kg,T")
	if err != nil {
		t.Fatalf("ReplacePayload: %v", err)
	}
	want := "a {{number:7,10,kg,T:id42}} b"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReplacePayloadPreservesSurroundings(t *testing.T) {
	doc := "# Title\n\nbefore {{checks:1,3,100,,,T:id1}} middle {{checks:0,2,00,,,F:id2}} after\n"
	got, err := ReplacePayload(doc, marker.Checks, "id2", "1,2,10,,,F")
	if err != nil {
		t.Fatalf("ReplacePayload: %v", err)
	}
	if !strings.Contains(got, "{{checks:1,3,100,,,T:id1}}") {
		t.Error("untargeted marker was modified")
	}
	if !strings.Contains(got, "before ") || !strings.HasPrefix(got, "# Title\n") {
		t.Error("surrounding text was modified")
	}
	if !strings.Contains(got, "{{checks:1,2,10,,,F:id2}}") {
		t.Errorf("target not rewritten: %q", got)
	}
}

func TestReplacePayloadMissingMarker(t *testing.T) {
	_, err := ReplacePayload("no markers here", marker.Number, "id1", "1,2,,T")
	if !errors.Is(err, apperr.ErrMarkerNotFound) {
		t.Errorf("expected ErrMarkerNotFound, got %v", err)
	}

	// Matching id but wrong type must not match.
	_, err = ReplacePayload("{{rating:3,5,,,T:id9}}", marker.Number, "id9", "1,2,,T")
	if !errors.Is(err, apperr.ErrMarkerNotFound) {
		t.Errorf("expected ErrMarkerNotFound for type mismatch, got %v", err)
	}
}

func TestReplacePayloadSkipsFalsePrefix(t *testing.T) {
	// The first prefix has no valid payload before the suffix; the scan
	// must advance to the real marker instead of giving up.
	doc := "{{number:broken\n{{number:5,10,kg,T:id42}}"
	got, err := ReplacePayload(doc, marker.Number, "id42", "6,10,kg,T")
	if err != nil {
		t.Fatalf("ReplacePayload: %v", err)
	}
	if !strings.Contains(got, "{{number:6,10,kg,T:id42}}") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "{{number:broken") {
		t.Error("unrelated text was modified")
	}
}

const blockDoc = "intro\n```habit-tracker\nhabits: ALL\nperiod: month 2025-07\n```\ntext\n```habit-tracker\nhabits: [[Reading]]\nperiod: week 2025-W30\nshape: circle\n```\n"

func TestUpdateBlockKeyExisting(t *testing.T) {
	got, err := UpdateBlockKey(blockDoc, 1, "shape", "square")
	if err != nil {
		t.Fatalf("UpdateBlockKey: %v", err)
	}
	if !strings.Contains(got, "shape: square") {
		t.Errorf("key not rewritten:\n%s", got)
	}
	if !strings.Contains(got, "habits: ALL") {
		t.Error("first block was modified")
	}
}

func TestUpdateBlockKeyAppends(t *testing.T) {
	got, err := UpdateBlockKey(blockDoc, 0, "habitsPerRow", "3")
	if err != nil {
		t.Fatalf("UpdateBlockKey: %v", err)
	}
	want := "period: month 2025-07\nhabitsPerRow: 3\n```"
	if !strings.Contains(got, want) {
		t.Errorf("key not appended before closing fence:\n%s", got)
	}
}

func TestUpdateBlockKeyMissingBlock(t *testing.T) {
	_, err := UpdateBlockKey(blockDoc, 5, "shape", "square")
	if !errors.Is(err, apperr.ErrBlockNotFound) {
		t.Errorf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestTrackerBlocks(t *testing.T) {
	blocks := TrackerBlocks(blockDoc)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if !strings.Contains(blocks[0], "habits: ALL") {
		t.Errorf("first block = %q", blocks[0])
	}
	if !strings.Contains(blocks[1], "week 2025-W30") {
		t.Errorf("second block = %q", blocks[1])
	}
}

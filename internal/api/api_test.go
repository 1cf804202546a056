package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/icon"
	"github.com/yodaliu/jera/internal/index"
	"github.com/yodaliu/jera/internal/period"
	"github.com/yodaliu/jera/internal/render"
	"github.com/yodaliu/jera/internal/testutil"
	"github.com/yodaliu/jera/internal/trackerservice"
)

const habitNote = "---\nHabit_Color: \"40A578\"\n---\n# Reading\n"
const dailyNote = "# 2025-07-03\n\n## Habit Tracker\n\n[[Reading]] : {{number:30,60,pages,T:id9}}\n"

// testEnv sets up a temp vault, SQLite DB, service, and router.
// authEnabled=false means disabled mode; a non-empty token enables token mode.
func testEnv(t *testing.T, authToken string, files map[string]string) (*trackerservice.Service, http.Handler) {
	t.Helper()

	_, store := testutil.TestVault(t)
	for path, content := range files {
		testutil.WriteNote(t, store, path, content)
	}
	db := testutil.TestDB(t)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	keys := habits.DefaultKeys()
	daily := period.NotesConfig{Folder: "Daily", Format: "2006-01-02", Enabled: true}
	idxCfg := index.Config{HabitFolder: "Habits", Heading: "Habit Tracker", Daily: daily, Keys: keys}
	if err := index.Sync(db, store, idxCfg, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	dir := habits.NewDirectory(store, "Habits", nil, logger)
	if err := dir.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	svc := trackerservice.New(store, db, dir,
		period.NewAggregator(store, "Habit Tracker", logger),
		render.New(keys, render.Glyphs{Checked: "✅", Unchecked: "❌", Rated: "⭐", Unrated: "☆"}),
		keys,
		icon.Defaults{AccentColor: "#483699"},
		trackerservice.Periodic{Daily: daily},
		idxCfg,
		logger)

	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, router
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPutAndGetNote(t *testing.T) {
	_, router := testEnv(t, "", nil)

	w := do(t, router, http.MethodPut, "/notes/Daily/2025-07-03.md", map[string]string{"content": dailyNote})
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/notes/Daily/2025-07-03.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note trackerservice.NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Path != "Daily/2025-07-03.md" || note.Content != dailyNote {
		t.Errorf("note = %+v", note)
	}
	if note.Checksum == "" {
		t.Error("checksum missing")
	}
}

func TestGetNote_NotFound(t *testing.T) {
	_, router := testEnv(t, "", nil)

	w := do(t, router, http.MethodGet, "/notes/nope.md", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
}

func TestPutWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "", map[string]string{"lock.md": "v1"})

	w := do(t, router, http.MethodGet, "/notes/lock.md", nil)
	var note trackerservice.NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)

	// Update with correct checksum.
	body, _ := json.Marshal(map[string]string{"content": "v2"})
	req := httptest.NewRequest(http.MethodPut, "/notes/lock.md", bytes.NewReader(body))
	req.Header.Set("If-Match", note.Checksum)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	// Same checksum is stale now.
	req = httptest.NewRequest(http.MethodPut, "/notes/lock.md", bytes.NewReader(body))
	req.Header.Set("If-Match", note.Checksum)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	_, router := testEnv(t, "", map[string]string{"bye.md": "gone"})

	w := do(t, router, http.MethodDelete, "/notes/bye.md", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	w = do(t, router, http.MethodGet, "/notes/bye.md", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestRenderNoteEndpoint(t *testing.T) {
	_, router := testEnv(t, "", map[string]string{
		"Habits/Reading.md": habitNote,
		"note.md":           dailyNote,
	})

	w := do(t, router, http.MethodGet, "/render/note.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("render = %d, body = %s", w.Code, w.Body.String())
	}
	var page trackerservice.RenderedNote
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if strings.Contains(page.HTML, "{{number") {
		t.Error("marker survived rendering")
	}
	if !strings.Contains(page.HTML, `data-id="id9"`) {
		t.Error("widget fragment missing")
	}
}

func TestMintMarkerEndpoint(t *testing.T) {
	_, router := testEnv(t, "", map[string]string{"note.md": "# Note\n"})

	w := do(t, router, http.MethodPost, "/markers/mint", MintMarkerRequest{
		Path: "note.md", Type: "checks", Count: 3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("mint = %d, body = %s", w.Code, w.Body.String())
	}
	var resp MintMarkerResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.HasPrefix(resp.Marker, "{{checks:0,3,000,,,T:id") {
		t.Errorf("marker = %q", resp.Marker)
	}

	w = do(t, router, http.MethodPost, "/markers/mint", MintMarkerRequest{
		Path: "note.md", Type: "checks", Count: 1, GlyphOn: "a,b",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("comma glyph = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPost, "/markers/mint", MintMarkerRequest{
		Path: "note.md", Type: "timer",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown type = %d, want 400", w.Code)
	}
}

func TestPatchMarkerEndpoint(t *testing.T) {
	_, router := testEnv(t, "", map[string]string{
		"Habits/Reading.md":   habitNote,
		"Daily/2025-07-03.md": dailyNote,
	})

	w := do(t, router, http.MethodPost, "/markers/patch", PatchMarkerRequest{
		Path: "Daily/2025-07-03.md", Type: "number", ID: "id9", Payload: "45,60,pages,T",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d, body = %s", w.Code, w.Body.String())
	}
	var note trackerservice.NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if !strings.Contains(note.Content, "{{number:45,60,pages,T:id9}}") {
		t.Errorf("content = %q", note.Content)
	}

	// Unknown marker id.
	w = do(t, router, http.MethodPost, "/markers/patch", PatchMarkerRequest{
		Path: "Daily/2025-07-03.md", Type: "number", ID: "id404", Payload: "1,2,,T",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing marker = %d, want 404", w.Code)
	}

	// Stale If-Match.
	body, _ := json.Marshal(PatchMarkerRequest{
		Path: "Daily/2025-07-03.md", Type: "number", ID: "id9", Payload: "50,60,pages,T",
	})
	req := httptest.NewRequest(http.MethodPost, "/markers/patch", bytes.NewReader(body))
	req.Header.Set("If-Match", "stale")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("stale patch = %d, want 409", rec.Code)
	}
}

func TestRenderBlockEndpoint(t *testing.T) {
	_, router := testEnv(t, "", map[string]string{
		"Habits/Reading.md":   habitNote,
		"Daily/2025-07-03.md": dailyNote,
	})

	w := do(t, router, http.MethodPost, "/blocks/render", RenderBlockRequest{
		Source: "habits: ALL\nperiod: month 2025-07",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("render block = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RenderBlockResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp.HTML, "July 2025") {
		t.Errorf("html = %q", resp.HTML)
	}

	// A broken block still renders, as an error fragment.
	w = do(t, router, http.MethodPost, "/blocks/render", RenderBlockRequest{
		Source: "period: decade 2020",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("broken block = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp.HTML, "habit-error") {
		t.Errorf("expected error fragment, got %q", resp.HTML)
	}
}

func TestUpdateBlockEndpoint(t *testing.T) {
	note := "```habit-tracker\nhabits: ALL\nperiod: month 2025-07\n```\n"
	_, router := testEnv(t, "", map[string]string{"note.md": note})

	w := do(t, router, http.MethodPost, "/blocks/update", UpdateBlockRequest{
		Path: "note.md", Block: 0, Key: "shape", Value: "square",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update block = %d, body = %s", w.Code, w.Body.String())
	}
	var detail trackerservice.NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if !strings.Contains(detail.Content, "shape: square") {
		t.Errorf("content = %q", detail.Content)
	}

	w = do(t, router, http.MethodPost, "/blocks/update", UpdateBlockRequest{
		Path: "note.md", Block: 7, Key: "shape", Value: "square",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing block = %d, want 404", w.Code)
	}
}

func TestInsertBlockEndpoint(t *testing.T) {
	_, router := testEnv(t, "", map[string]string{"note.md": "# Note\n"})

	w := do(t, router, http.MethodPost, "/blocks/insert", InsertBlockRequest{
		Path: "note.md", Source: "habits: ALL\nperiod: month 2025-07",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("insert = %d, body = %s", w.Code, w.Body.String())
	}

	// Invalid block source is rejected before touching the note.
	w = do(t, router, http.MethodPost, "/blocks/insert", InsertBlockRequest{
		Path: "note.md", Source: "type: hourly\nperiod: month 2025-07",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad source = %d, want 400", w.Code)
	}
}

func TestListHabitsEndpoint(t *testing.T) {
	_, router := testEnv(t, "", map[string]string{"Habits/Reading.md": habitNote})

	w := do(t, router, http.MethodGet, "/habits", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("habits = %d", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	hs := resp["habits"].([]any)
	if len(hs) != 1 {
		t.Errorf("len(habits) = %d, want 1", len(hs))
	}
}

func TestRebuildHabitsEndpoint(t *testing.T) {
	svc, router := testEnv(t, "", nil)

	// The habit folder gains a note after startup; rebuild picks it up.
	if _, err := svc.PutNote("Habits/Reading.md", []byte(habitNote), ""); err != nil {
		t.Fatal(err)
	}
	w := do(t, router, http.MethodPost, "/habits/rebuild", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rebuild = %d", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if hs := resp["habits"].([]any); len(hs) != 1 {
		t.Errorf("len(habits) = %d, want 1", len(hs))
	}
}

func TestHabitHistoryEndpoint(t *testing.T) {
	_, router := testEnv(t, "", map[string]string{
		"Habits/Reading.md":   habitNote,
		"Daily/2025-07-03.md": dailyNote,
	})

	w := do(t, router, http.MethodGet, "/habits/Reading/history?from=2025-07-01&to=2025-07-31", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history = %d, body = %s", w.Code, w.Body.String())
	}
	var res trackerservice.HistoryResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Entries) != 1 || res.Entries[0].Date != "2025-07-03" {
		t.Errorf("entries = %v", res.Entries)
	}

	w = do(t, router, http.MethodGet, "/habits/Ghost/history", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown habit = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123", map[string]string{"a.md": "x"})

	req := httptest.NewRequest(http.MethodGet, "/notes/a.md", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed get = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123", nil)

	w := do(t, router, http.MethodGet, "/habits", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123", nil)

	req := httptest.NewRequest(http.MethodGet, "/habits", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "", nil)

	w := do(t, router, http.MethodGet, "/habits", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc, _ := testEnv(t, "", nil)

	// Minimal SSE handler stub that writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	return NewRouter(svc, authEnabled, token, sseHandler)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

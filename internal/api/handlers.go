package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yodaliu/jera/internal/apperr"
	"github.com/yodaliu/jera/internal/marker"
	"github.com/yodaliu/jera/internal/trackerservice"
	"github.com/yodaliu/jera/internal/views"
)

// Handler holds API route handlers.
type Handler struct {
	svc *trackerservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *trackerservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after the
// route prefix). Supports encoded slashes from OpenAPI clients.
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ifMatch returns the If-Match header with standard ETag quotes removed.
func ifMatch(r *http.Request) string {
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}

// GetNote handles GET /api/notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// PutNote handles PUT /api/notes/*: upsert with optimistic concurrency
// via If-Match.
func (h *Handler) PutNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	note, err := h.svc.PutNote(path, []byte(req.Content), ifMatch(r))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("put note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/*.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteNote(path); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderNote handles GET /api/render/*: the note body with markers
// replaced by widget fragments, plus the embedded tracker block
// sources.
func (h *Handler) RenderNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	page, err := h.svc.RenderNote(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("render note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// MintMarker handles POST /api/markers/mint.
func (h *Handler) MintMarker(w http.ResponseWriter, r *http.Request) {
	var req MintMarkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	warn := true
	if req.Warn != nil {
		warn = *req.Warn
	}
	var p marker.Payload
	switch marker.Type(req.Type) {
	case marker.Checks:
		p = marker.NewChecks(req.Count, req.GlyphOn, req.GlyphOff, warn)
	case marker.Rating:
		p = marker.NewRating(req.Count, req.GlyphOn, req.GlyphOff, warn)
	case marker.Number:
		p = marker.NewNumber(req.Value, req.Upper, req.Unit, warn)
	case marker.Progress:
		p = marker.NewProgress(0, req.Count, warn)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown marker type"))
		return
	}

	text, err := h.svc.MintMarker(req.Path, p)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrGlyphComma):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			slog.Error("mint marker failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, MintMarkerResponse{Marker: text})
}

// PatchMarker handles POST /api/markers/patch.
func (h *Handler) PatchMarker(w http.ResponseWriter, r *http.Request) {
	var req PatchMarkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and id are required"))
		return
	}

	note, err := h.svc.PatchMarker(req.Path, marker.Type(req.Type), req.ID, req.Payload, ifMatch(r))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrMarkerNotFound):
			writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		case errors.Is(err, apperr.ErrGlyphComma):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// RenderBlock handles POST /api/blocks/render.
func (h *Handler) RenderBlock(w http.ResponseWriter, r *http.Request) {
	var req RenderBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	html, err := h.svc.RenderBlock(r.Context(), req.Source)
	if err != nil {
		slog.Error("render block failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RenderBlockResponse{HTML: html})
}

// UpdateBlock handles POST /api/blocks/update.
func (h *Handler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	var req UpdateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and key are required"))
		return
	}

	note, err := h.svc.UpdateBlock(req.Path, req.Block, req.Key, req.Value, ifMatch(r))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrBlockNotFound):
			writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("update block failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// InsertBlock handles POST /api/blocks/insert.
func (h *Handler) InsertBlock(w http.ResponseWriter, r *http.Request) {
	var req InsertBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	cfg, err := views.ParseBlock(req.Source)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	note, err := h.svc.InsertBlock(req.Path, cfg)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("insert block failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// ListHabits handles GET /api/habits.
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"habits": h.svc.ListHabits(),
	})
}

// RebuildHabits handles POST /api/habits/rebuild.
func (h *Handler) RebuildHabits(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RebuildHabits(); err != nil {
		slog.Error("habit rebuild failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"habits": h.svc.ListHabits(),
	})
}

// HabitHistory handles GET /api/habits/{name}/history.
func (h *Handler) HabitHistory(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("habit name is required"))
		return
	}
	q := r.URL.Query()

	res, err := h.svc.History(name, q.Get("from"), q.Get("to"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("habit not found"))
		} else {
			slog.Error("history failed", slog.String("habit", name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

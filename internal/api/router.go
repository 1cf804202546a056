package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yodaliu/jera/internal/trackerservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth
// group.
func NewRouter(svc *trackerservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Raw notes.
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.PutNote)
	r.Delete("/notes/*", h.DeleteNote)

	// Rendered notes (markers replaced by widget fragments).
	r.Get("/render/*", h.RenderNote)

	// Inline markers.
	r.Post("/markers/mint", h.MintMarker)
	r.Post("/markers/patch", h.PatchMarker)

	// Tracker blocks.
	r.Post("/blocks/render", h.RenderBlock)
	r.Post("/blocks/update", h.UpdateBlock)
	r.Post("/blocks/insert", h.InsertBlock)

	// Habit directory.
	r.Get("/habits", h.ListHabits)
	r.Post("/habits/rebuild", h.RebuildHabits)
	r.Get("/habits/{name}/history", h.HabitHistory)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

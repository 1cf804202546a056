// Package trackerservice coordinates storage, the habit directory, the
// entries index, and the renderers behind the API and MCP surfaces.
package trackerservice

import (
	"log/slog"

	"github.com/yodaliu/jera/internal/apperr"
	"github.com/yodaliu/jera/internal/checksum"
	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/icon"
	"github.com/yodaliu/jera/internal/index"
	"github.com/yodaliu/jera/internal/marker"
	"github.com/yodaliu/jera/internal/parser"
	"github.com/yodaliu/jera/internal/patch"
	"github.com/yodaliu/jera/internal/period"
	"github.com/yodaliu/jera/internal/render"
	"github.com/yodaliu/jera/internal/storage"
)

// Periodic holds the note location config per granularity.
type Periodic struct {
	Daily   period.NotesConfig
	Weekly  period.NotesConfig
	Monthly period.NotesConfig
	Yearly  period.NotesConfig
}

// Resolve returns the notes config for a granularity. Unknown
// granularities resolve to a disabled config.
func (p Periodic) Resolve(g period.Granularity) period.NotesConfig {
	switch g {
	case period.Daily:
		return p.Daily
	case period.Weekly:
		return p.Weekly
	case period.Monthly:
		return p.Monthly
	case period.Yearly:
		return p.Yearly
	}
	return period.NotesConfig{}
}

// Service is the application core shared by the HTTP and MCP layers.
type Service struct {
	store    storage.Provider
	db       index.HabitIndex
	dir      *habits.Directory
	agg      *period.Aggregator
	renderer *render.Renderer
	keys     habits.Keys
	defaults icon.Defaults
	periodic Periodic
	idxCfg   index.Config
	logger   *slog.Logger
}

// New wires a service.
func New(store storage.Provider, db index.HabitIndex, dir *habits.Directory, agg *period.Aggregator,
	renderer *render.Renderer, keys habits.Keys, defaults icon.Defaults, periodic Periodic,
	idxCfg index.Config, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		db:       db,
		dir:      dir,
		agg:      agg,
		renderer: renderer,
		keys:     keys,
		defaults: defaults,
		periodic: periodic,
		idxCfg:   idxCfg,
		logger:   logger,
	}
}

// NoteDetail is the response payload for a raw note.
type NoteDetail struct {
	Path        string                 `json:"path"`
	Title       string                 `json:"title"`
	Content     string                 `json:"content"`
	Checksum    string                 `json:"checksum"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
}

// GetNote reads a note from storage.
func (s *Service) GetNote(path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	res, _ := parser.Parse(data)
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Frontmatter: res.Frontmatter,
	}, nil
}

// PutNote writes note content with optimistic concurrency. An empty
// ifMatch skips the check; a missing note is created. The index and
// habit directory are updated synchronously so a block render issued
// right after the write sees the new values.
func (s *Service) PutNote(path string, content []byte, ifMatch string) (*NoteDetail, error) {
	if existing, err := s.store.Read(path); err == nil {
		if ifMatch != "" && ifMatch != checksum.Sum(existing) {
			return nil, apperr.ErrConflict
		}
	} else if ifMatch != "" {
		return nil, apperr.ErrNotFound
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.reindex(path, content); err != nil {
		return nil, err
	}
	return s.GetNote(path)
}

// DeleteNote removes a note from storage and every index row derived
// from it.
func (s *Service) DeleteNote(path string) error {
	if !s.store.Exists(path) {
		return apperr.ErrNotFound
	}
	if err := s.store.Delete(path); err != nil {
		return err
	}
	if err := s.db.DeleteByPath(path); err != nil {
		return err
	}
	if s.dir.Contains(path) {
		return s.dir.Rebuild()
	}
	return nil
}

// RenderedNote is a note body with markers replaced by widget
// fragments, plus the source of each embedded tracker block so the
// client can request block renders separately.
type RenderedNote struct {
	Path     string   `json:"path"`
	Checksum string   `json:"checksum"`
	HTML     string   `json:"html"`
	Blocks   []string `json:"blocks"`
}

// RenderNote renders a note for display.
func (s *Service) RenderNote(path string) (*RenderedNote, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	content := string(data)
	blocks := patch.TrackerBlocks(content)
	if blocks == nil {
		blocks = []string{}
	}
	return &RenderedNote{
		Path:     path,
		Checksum: checksum.Sum(data),
		HTML:     s.renderer.Page(content, s.dir.Snapshot()),
		Blocks:   blocks,
	}, nil
}

// MintMarker builds fresh marker text for insertion into the note at
// path, with an id guaranteed unique within that note.
func (s *Service) MintMarker(path string, p marker.Payload) (string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return "", apperr.ErrNotFound
	}
	return marker.Mint(string(data), p)
}

// PatchMarker splices a new payload into the marker identified by
// (typ, id) inside the note at path. The payload is round-tripped
// through the codec before splicing so only canonical field lists
// reach the document. ifMatch carries the optimistic concurrency
// checksum; empty skips the check.
func (s *Service) PatchMarker(path string, typ marker.Type, id, payload, ifMatch string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	if ifMatch != "" && ifMatch != checksum.Sum(data) {
		return nil, apperr.ErrConflict
	}

	p, err := marker.Decode(typ, payload)
	if err != nil {
		return nil, err
	}
	if err := marker.CheckGlyphs(p); err != nil {
		return nil, err
	}

	updated, err := patch.ReplacePayload(string(data), typ, id, p.Encode())
	if err != nil {
		return nil, err
	}
	content := []byte(updated)
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.reindex(path, content); err != nil {
		return nil, err
	}
	return s.GetNote(path)
}

// ListHabits returns the current habit directory as API rows.
func (s *Service) ListHabits() []HabitInfo {
	snap := s.dir.Snapshot()
	out := make([]HabitInfo, 0, snap.Len())
	for _, name := range snap.Names() {
		h, _ := snap.Get(name)
		color, _ := h.Prop(s.keys.Color)
		short, _ := h.Prop(s.keys.ShortName)
		out = append(out, HabitInfo{
			Name:      name,
			Path:      h.Path,
			Color:     color,
			ShortName: short,
			Archived:  h.PropBool(s.keys.Archived),
			UseColor:  h.PropBool(s.keys.UseColor),
		})
	}
	return out
}

// HabitInfo is one directory entry in list responses.
type HabitInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Color     string `json:"color,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Archived  bool   `json:"archived"`
	UseColor  bool   `json:"use_color"`
}

// RebuildHabits forces a full habit directory rebuild.
func (s *Service) RebuildHabits() error {
	return s.dir.Rebuild()
}

// reindex re-derives index rows for a freshly written note and, when
// the note lives in the habit folder, rebuilds the directory snapshot.
func (s *Service) reindex(path string, data []byte) error {
	if err := index.IndexFile(s.db, s.store, s.idxCfg, path); err != nil {
		return err
	}
	if err := s.db.SetFileChecksum(path, checksum.Sum(data)); err != nil {
		return err
	}
	if s.dir.Contains(path) {
		return s.dir.Rebuild()
	}
	return nil
}

package trackerservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/yodaliu/jera/internal/apperr"
	"github.com/yodaliu/jera/internal/checksum"
	"github.com/yodaliu/jera/internal/icon"
	"github.com/yodaliu/jera/internal/patch"
	"github.com/yodaliu/jera/internal/period"
	"github.com/yodaliu/jera/internal/views"
)

// RenderBlock turns tracker block source into an HTML fragment.
// Configuration problems render as a visible error fragment instead of
// failing the request; one broken block never takes down a page of
// widgets. Only context cancellation is surfaced as an error.
func (s *Service) RenderBlock(ctx context.Context, src string) (string, error) {
	cfg, err := views.ParseBlock(src)
	if err != nil {
		return views.ErrorFragment(err.Error()), nil
	}

	spec, err := period.ParseSpec(cfg.Period)
	if err != nil {
		return views.ErrorFragment(err.Error()), nil
	}

	snap := s.dir.Snapshot()
	names := cfg.HabitNames()
	if names == nil {
		// ALL expands to every non-archived habit in the directory.
		for _, name := range snap.Names() {
			h, _ := snap.Get(name)
			if h.PropBool(s.keys.Archived) {
				continue
			}
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return views.ErrorFragment("no habits to display"), nil
	}

	habitSet := make(map[string]struct{}, len(names))
	for _, n := range names {
		habitSet[n] = struct{}{}
	}

	gran := period.Granularity(cfg.Type)
	table, err := s.agg.Collect(ctx, s.periodic.Resolve(gran), spec, habitSet)
	if err != nil {
		if errors.Is(err, apperr.ErrPeriodDisabled) {
			return views.ErrorFragment(fmt.Sprintf("%s notes are not enabled", gran)), nil
		}
		return "", err
	}

	key := views.Key{Granularity: gran, Unit: spec.Unit, Style: views.Style(cfg.View)}
	composer, ok := views.Lookup(key)
	if !ok {
		return views.ErrorFragment(fmt.Sprintf("no view registered for %s", key)), nil
	}

	return composer(views.Context{
		Spec:           spec,
		Table:          table,
		Habits:         names,
		Snap:           snap,
		Keys:           s.keys,
		Defaults:       s.defaults,
		Shape:          icon.Shape(cfg.Shape),
		HabitsPerRow:   cfg.HabitsPerRow,
		UseCustomColor: cfg.UseCustomizedColor,
	}), nil
}

// UpdateBlock rewrites one key line inside the n-th tracker block of
// the note at path, persisting a per-view toggle (shape, habitsPerRow)
// back into the block source.
func (s *Service) UpdateBlock(path string, n int, key, value, ifMatch string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	if ifMatch != "" && ifMatch != checksum.Sum(data) {
		return nil, apperr.ErrConflict
	}

	updated, err := patch.UpdateBlockKey(string(data), n, key, value)
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

// InsertBlock appends a fresh tracker block to the note at path.
func (s *Service) InsertBlock(path string, cfg views.BlockConfig) (*NoteDetail, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	content := string(data)
	if content != "" && content[len(content)-1] != '\n' {
		content += "\n"
	}
	content += "\n```habit-tracker\n" + cfg.Source() + "\n```\n"

	out := []byte(content)
	if err := s.store.Write(path, out); err != nil {
		return nil, err
	}
	if err := s.reindex(path, out); err != nil {
		return nil, err
	}
	return s.GetNote(path)
}

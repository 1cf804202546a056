package trackerservice

import (
	"time"

	"github.com/yodaliu/jera/internal/apperr"
	"github.com/yodaliu/jera/internal/index"
)

// Streaks summarise a habit's completion history.
type Streaks struct {
	Current   int `json:"current"`   // consecutive completed days ending at the latest entry
	Longest   int `json:"longest"`   // longest completed run anywhere in the range
	Completed int `json:"completed"` // days with full progress
}

// HistoryResult is the response payload for a habit history query.
type HistoryResult struct {
	Habit   string           `json:"habit"`
	Entries []index.EntryRow `json:"entries"`
	Streaks Streaks          `json:"streaks"`
}

// History returns a habit's recorded entries in [from, to] with streak
// statistics. Either bound may be empty. Unknown habits are an error;
// known habits with no entries return an empty result.
func (s *Service) History(habit, from, to string) (*HistoryResult, error) {
	if !s.dir.Snapshot().Has(habit) {
		return nil, apperr.ErrNotFound
	}
	rows, err := s.db.History(habit, from, to)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []index.EntryRow{}
	}
	return &HistoryResult{
		Habit:   habit,
		Entries: rows,
		Streaks: computeStreaks(rows),
	}, nil
}

// computeStreaks walks date-ordered rows counting runs of consecutive
// completed days. A gap of more than one calendar day, or a day below
// full progress, breaks the run.
func computeStreaks(rows []index.EntryRow) Streaks {
	var st Streaks
	run := 0
	var prev time.Time

	for _, r := range rows {
		if r.Progress < 1 {
			run = 0
			prev = time.Time{}
			continue
		}
		st.Completed++

		day, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		if !prev.IsZero() && day.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		prev = day
		if run > st.Longest {
			st.Longest = run
		}
	}

	// The run only counts as current when it reaches the final row.
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		if last.Progress >= 1 {
			st.Current = run
		}
	}
	return st
}

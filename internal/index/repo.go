package index

import (
	"fmt"
	"time"
)

// HabitRow is one habit note in the index.
type HabitRow struct {
	Name      string
	Path      string
	Color     string
	ShortName string
	Archived  bool
	UpdatedAt time.Time
}

// EntryRow is one recorded (date, habit) value.
type EntryRow struct {
	Date     string  `json:"date"`
	Habit    string  `json:"habit"`
	Type     string  `json:"type"`
	Value    int     `json:"value"`
	Total    int     `json:"total"`
	Progress float64 `json:"progress"`
	Path     string  `json:"path"`
	Line     int     `json:"line"`
}

// UpsertHabit inserts or replaces one habit note row.
func (db *DB) UpsertHabit(h HabitRow) error {
	if h.UpdatedAt.IsZero() {
		h.UpdatedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO habit_notes (name, path, color, short_name, archived, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			path       = excluded.path,
			color      = excluded.color,
			short_name = excluded.short_name,
			archived   = excluded.archived,
			updated_at = excluded.updated_at
	`, h.Name, h.Path, h.Color, h.ShortName, h.Archived, h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert habit: %w", err)
	}
	return nil
}

// ReplaceEntries swaps all entries sourced from path for the given
// date within a transaction. A note rewrite therefore never leaves
// stale rows behind.
func (db *DB) ReplaceEntries(path, date string, rows []EntryRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM entries WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: clear entries: %w", err)
	}
	if len(rows) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO entries (date, habit, type, value, total, progress, path, line)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare entry insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.Exec(date, r.Habit, r.Type, r.Value, r.Total, r.Progress, path, r.Line); err != nil {
				return fmt.Errorf("index: insert entry: %w", err)
			}
		}
	}
	return tx.Commit()
}

// DeleteByPath removes everything the index derived from one file.
func (db *DB) DeleteByPath(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM entries WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM habit_notes WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, path)

	return tx.Commit()
}

// History returns the recorded entries for a habit ordered by date.
// from/to are inclusive ISO dates; either may be empty for an open end.
func (db *DB) History(habit, from, to string) ([]EntryRow, error) {
	query := `SELECT date, habit, type, value, total, progress, path, line FROM entries WHERE habit = ?`
	args := []any{habit}
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: history: %w", err)
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		var r EntryRow
		if err := rows.Scan(&r.Date, &r.Habit, &r.Type, &r.Value, &r.Total, &r.Progress, &r.Path, &r.Line); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetFileChecksum records the checksum of an indexed file.
func (db *DB) SetFileChecksum(path, checksum string) error {
	_, err := db.conn.Exec(`
		INSERT INTO files (path, checksum, indexed_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET checksum = excluded.checksum, indexed_at = excluded.indexed_at
	`, path, checksum, time.Now())
	if err != nil {
		return fmt.Errorf("index: set checksum: %w", err)
	}
	return nil
}

// AllChecksums returns the checksum of every indexed file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

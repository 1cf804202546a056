// Package index provides the SQLite-backed habit index: habit note
// rows plus one row per recorded (date, habit) value, kept in sync
// with the vault by the startup sync and the file watcher. It exists
// so history and streak queries never rescan the vault.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS habit_notes (
	name       TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	short_name TEXT NOT NULL DEFAULT '',
	archived   INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entries (
	date     TEXT NOT NULL,
	habit    TEXT NOT NULL,
	type     TEXT NOT NULL,
	value    INTEGER NOT NULL,
	total    INTEGER NOT NULL,
	progress REAL NOT NULL,
	path     TEXT NOT NULL,
	line     INTEGER NOT NULL,
	PRIMARY KEY (date, habit)
);

CREATE INDEX IF NOT EXISTS idx_habit_notes_path ON habit_notes(path);
CREATE INDEX IF NOT EXISTS idx_entries_habit ON entries(habit, date);
CREATE INDEX IF NOT EXISTS idx_entries_path ON entries(path);
`

// HabitIndex is the interface consumers depend on instead of the
// concrete *DB, to ease testing with fakes.
type HabitIndex interface {
	UpsertHabit(h HabitRow) error
	ReplaceEntries(path, date string, rows []EntryRow) error
	DeleteByPath(path string) error
	History(habit, from, to string) ([]EntryRow, error)
	SetFileChecksum(path, checksum string) error
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ HabitIndex = (*DB)(nil)

// DB wraps a sql.DB with habit-index operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

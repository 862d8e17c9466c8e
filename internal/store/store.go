// Package store provides the SQLite-backed adapters behind the engine's
// catalog and progress-store interfaces. Serialization details live here;
// the engine only sees the domain types.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store holds the database handle and hands out repositories.
type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at dsn, applies recommended
// pragmas, and creates the schema.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying handle for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Catalog returns the item-catalog repository.
func (s *Store) Catalog() *CatalogRepo {
	return &CatalogRepo{db: s.db}
}

// Progress returns the memory-state repository.
func (s *Store) Progress() *ProgressRepo {
	return &ProgressRepo{db: s.db}
}

// Summaries returns the session-summary repository.
func (s *Store) Summaries() *SummaryRepo {
	return &SummaryRepo{db: s.db}
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Timestamps are stored as fixed-width UTC strings with a full nanosecond
// fraction; with a fixed zone, format, and width they compare correctly
// as text, which the last-write-wins upsert in ProgressRepo relies on.
const schema = `
CREATE TABLE IF NOT EXISTS words (
	id           TEXT PRIMARY KEY,
	word         TEXT NOT NULL,
	definition   TEXT NOT NULL DEFAULT '',
	translations TEXT NOT NULL DEFAULT '[]',
	audio_ref    TEXT NOT NULL DEFAULT '',
	image_ref    TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	unit_id      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_words_unit ON words(unit_id);
CREATE INDEX IF NOT EXISTS idx_words_category ON words(category);

CREATE TABLE IF NOT EXISTS memory_states (
	student_id    TEXT NOT NULL,
	item_id       TEXT NOT NULL,
	stability     REAL NOT NULL,
	difficulty    REAL NOT NULL,
	due           TEXT NOT NULL,
	reps          INTEGER NOT NULL DEFAULT 0,
	lapses        INTEGER NOT NULL DEFAULT 0,
	last_reviewed TEXT,
	updated_at    TEXT NOT NULL,
	PRIMARY KEY (student_id, item_id)
);

CREATE TABLE IF NOT EXISTS session_summaries (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL,
	unit_id     TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	total       INTEGER NOT NULL DEFAULT 0,
	correct     INTEGER NOT NULL DEFAULT 0,
	incorrect   INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	hints_used  INTEGER NOT NULL DEFAULT 0,
	accuracy    REAL NOT NULL DEFAULT 0,
	difficulty  REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_summaries_student ON session_summaries(student_id, started_at);
`

func createSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}

// DefaultDBPath resolves the database file path in priority order:
// 1. LEXDRILL_DB environment variable
// 2. $XDG_DATA_HOME/lexdrill/lexdrill.db
// 3. ~/.local/share/lexdrill/lexdrill.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("LEXDRILL_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "lexdrill", "lexdrill.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

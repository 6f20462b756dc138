// ABOUTME: SQLite-backed store for sessions, messages, and the access log
// ABOUTME: Opens the database, applies pragmas, and creates the schema

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore provides persistence for the audit log engine using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tickets (
			id         TEXT PRIMARY KEY,
			project_id TEXT REFERENCES projects(id),
			title      TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_project ON tickets(project_id);

		CREATE TABLE IF NOT EXISTS sessions (
			id                  TEXT PRIMARY KEY,
			project_id          TEXT REFERENCES projects(id),
			ticket_id           TEXT REFERENCES tickets(id),
			user_id             TEXT,
			environment         TEXT NOT NULL,
			metadata            TEXT,
			data_classification TEXT NOT NULL DEFAULT 'internal',
			legal_hold          INTEGER NOT NULL DEFAULT 0,
			started_at          TEXT NOT NULL,
			ended_at            TEXT,
			created_at          TEXT NOT NULL,

			CHECK (data_classification IN ('public', 'internal', 'confidential', 'restricted'))
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
		CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id);

		CREATE TABLE IF NOT EXISTS messages (
			id                         TEXT PRIMARY KEY,
			session_id                 TEXT NOT NULL REFERENCES sessions(id),
			role                       TEXT NOT NULL,
			content                    TEXT NOT NULL,
			content_hash               TEXT NOT NULL,
			tool_calls                 TEXT,
			token_count                INTEGER,
			model_id                   TEXT,
			seq                        INTEGER NOT NULL,
			contains_potential_secrets INTEGER NOT NULL DEFAULT 0,
			created_at                 TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant', 'system', 'tool')),
			UNIQUE(session_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq);

		CREATE TABLE IF NOT EXISTS audit_access_log (
			id          TEXT PRIMARY KEY,
			accessor_id TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id   TEXT NOT NULL,
			action      TEXT NOT NULL,
			result      TEXT,
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_access_log_created ON audit_access_log(created_at DESC);

		CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// nullString returns nil for empty strings, otherwise the string itself
func nullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

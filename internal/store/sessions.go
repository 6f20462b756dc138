// ABOUTME: Session persistence for the conversation audit log
// ABOUTME: Covers insert, lookup, close, legal hold, and filtered summary listing

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateSession inserts a new session row.
// Returns ErrDuplicateID if a session with the same id already exists.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *Session) error {
	query := `
		INSERT INTO sessions (id, project_id, ticket_id, user_id, environment, metadata,
			data_classification, legal_hold, started_at, ended_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		sess.ID,
		nullString(sess.ProjectID),
		nullString(sess.TicketID),
		nullString(sess.UserID),
		sess.Environment,
		nullString(sess.Metadata),
		sess.DataClassification,
		boolToInt(sess.LegalHold),
		sess.StartedAt.UTC().Format(time.RFC3339),
		sess.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("created session", "id", sess.ID, "environment", sess.Environment)
	return nil
}

// GetSession retrieves a session by ID.
// Returns ErrSessionNotFound if the session doesn't exist.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, project_id, ticket_id, user_id, environment, metadata,
			data_classification, legal_hold, started_at, ended_at, created_at
		FROM sessions
		WHERE id = ?
	`

	var sess Session
	var projectID, ticketID, userID, metadata, endedAt sql.NullString
	var legalHold int
	var startedAtStr, createdAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID,
		&projectID,
		&ticketID,
		&userID,
		&sess.Environment,
		&metadata,
		&sess.DataClassification,
		&legalHold,
		&startedAtStr,
		&endedAt,
		&createdAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	sess.ProjectID = stringPtr(projectID)
	sess.TicketID = stringPtr(ticketID)
	sess.UserID = stringPtr(userID)
	sess.Metadata = stringPtr(metadata)
	sess.LegalHold = legalHold != 0

	sess.StartedAt, err = time.Parse(time.RFC3339, startedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	sess.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if endedAt.Valid {
		t, err := time.Parse(time.RFC3339, endedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing ended_at: %w", err)
		}
		sess.EndedAt = &t
	}

	return &sess, nil
}

// EndSession stamps ended_at on an open session. It only touches rows whose
// ended_at is still null, so a concurrent ender loses cleanly: updated reports
// whether this call was the one that closed the session.
func (s *SQLiteStore) EndSession(ctx context.Context, id string, endedAt time.Time) (updated bool, err error) {
	query := `UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, endedAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		return false, fmt.Errorf("ending session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected > 0 {
		s.logger.Debug("ended session", "id", id)
	}
	return rowsAffected > 0, nil
}

// SetSessionLegalHold flips the legal_hold flag on a session.
// Returns ErrSessionNotFound if the session doesn't exist.
func (s *SQLiteStore) SetSessionLegalHold(ctx context.Context, id string, held bool) error {
	query := `UPDATE sessions SET legal_hold = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, boolToInt(held), id)
	if err != nil {
		return fmt.Errorf("setting legal hold: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	s.logger.Debug("set legal hold", "id", id, "held", held)
	return nil
}

// normalizeSessionLimit applies default (50) and cap (500) to listing limits.
func normalizeSessionLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 500:
		return 500
	default:
		return limit
	}
}

// summarySelect is the shared projection for session summaries: the session
// row, its linked display names, and a correlated message count.
const summarySelect = `
	SELECT s.id, s.project_id, p.name, s.ticket_id, t.title, s.user_id,
	       s.environment, s.data_classification, s.legal_hold, s.started_at, s.ended_at,
	       (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id) AS message_count
	FROM sessions s
	LEFT JOIN projects p ON p.id = s.project_id
	LEFT JOIN tickets t ON t.id = s.ticket_id
`

// ListSessionSummaries returns session summaries matching the filter,
// ordered by started_at descending.
func (s *SQLiteStore) ListSessionSummaries(ctx context.Context, f SessionFilter) ([]SessionSummary, error) {
	limit := normalizeSessionLimit(f.Limit)

	var afterStr, beforeStr *string
	if f.StartedAfter != nil {
		v := f.StartedAfter.UTC().Format(time.RFC3339)
		afterStr = &v
	}
	if f.StartedBefore != nil {
		v := f.StartedBefore.UTC().Format(time.RFC3339)
		beforeStr = &v
	}

	query := summarySelect + `
		WHERE (? IS NULL OR s.project_id = ?)
		  AND (? IS NULL OR s.ticket_id = ?)
		  AND (? IS NULL OR s.environment = ?)
		  AND (? IS NULL OR s.started_at >= ?)
		  AND (? IS NULL OR s.started_at <= ?)
		  AND (? OR s.ended_at IS NOT NULL)
		ORDER BY s.started_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query,
		f.ProjectID, f.ProjectID,
		f.TicketID, f.TicketID,
		f.Environment, f.Environment,
		afterStr, afterStr,
		beforeStr, beforeStr,
		boolToInt(f.IncludeActive),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying session summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectSummaries(rows)
}

// SessionsForExport returns summaries for sessions started within the
// inclusive [start, end] window, ascending by started_at, optionally
// narrowed to a single session or project.
func (s *SQLiteStore) SessionsForExport(ctx context.Context, start, end time.Time, sessionID, projectID *string) ([]SessionSummary, error) {
	query := summarySelect + `
		WHERE s.started_at >= ? AND s.started_at <= ?
		  AND (? IS NULL OR s.id = ?)
		  AND (? IS NULL OR s.project_id = ?)
		ORDER BY s.started_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		sessionID, sessionID,
		projectID, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions for export: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectSummaries(rows)
}

// collectSummaries scans summarySelect rows into SessionSummary values.
func collectSummaries(rows *sql.Rows) ([]SessionSummary, error) {
	summaries := []SessionSummary{}
	for rows.Next() {
		var sum SessionSummary
		var projectID, projectName, ticketID, ticketTitle, userID, endedAt sql.NullString
		var legalHold int
		var startedAtStr string

		if err := rows.Scan(
			&sum.ID,
			&projectID,
			&projectName,
			&ticketID,
			&ticketTitle,
			&userID,
			&sum.Environment,
			&sum.DataClassification,
			&legalHold,
			&startedAtStr,
			&endedAt,
			&sum.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("scanning session summary: %w", err)
		}

		sum.ProjectID = stringPtr(projectID)
		sum.ProjectName = stringPtr(projectName)
		sum.TicketID = stringPtr(ticketID)
		sum.TicketTitle = stringPtr(ticketTitle)
		sum.UserID = stringPtr(userID)
		sum.LegalHold = legalHold != 0

		var err error
		sum.StartedAt, err = time.Parse(time.RFC3339, startedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if endedAt.Valid {
			t, err := time.Parse(time.RFC3339, endedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parsing ended_at: %w", err)
			}
			sum.EndedAt = &t
		}

		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session summaries: %w", err)
	}
	return summaries, nil
}

// stringPtr converts a NullString into a *string (nil when NULL)
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// boolToInt converts a bool to the 0/1 SQLite stores for it
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

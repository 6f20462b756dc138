// ABOUTME: Retention queries and the transactional cascade delete for archival
// ABOUTME: Legal-hold sessions are excluded in the WHERE clause of every statement here

package store

import (
	"context"
	"fmt"
	"time"
)

// ArchiveCandidates returns summaries for sessions started before the
// cutoff that are not under legal hold, ascending by start date.
func (s *SQLiteStore) ArchiveCandidates(ctx context.Context, cutoff time.Time) ([]SessionSummary, error) {
	query := summarySelect + `
		WHERE s.started_at < ? AND s.legal_hold = 0
		ORDER BY s.started_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying archive candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectSummaries(rows)
}

// CountHeldSessionsBefore counts sessions past the cutoff that are excluded
// from archival only because they are under legal hold.
func (s *SQLiteStore) CountHeldSessionsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE started_at < ? AND legal_hold = 1`,
		cutoff.UTC().Format(time.RFC3339),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting held sessions: %w", err)
	}
	return count, nil
}

// DeleteSessionsBefore deletes all messages and sessions for sessions started
// before the cutoff that are not under legal hold. Both deletes run in one
// transaction and both repeat the full eligibility predicate, so a hold added
// after a preview is honored here: a held session is structurally unreachable
// by either statement. Returns the actual deleted row counts.
func (s *SQLiteStore) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (sessionsDeleted, messagesDeleted int64, err error) {
	cutoffStr := cutoff.UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	msgResult, err := tx.ExecContext(ctx, `
		DELETE FROM messages
		WHERE session_id IN (
			SELECT id FROM sessions WHERE started_at < ? AND legal_hold = 0
		)
	`, cutoffStr)
	if err != nil {
		return 0, 0, fmt.Errorf("deleting messages: %w", err)
	}
	messagesDeleted, err = msgResult.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("getting deleted message count: %w", err)
	}

	sessResult, err := tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE started_at < ? AND legal_hold = 0`,
		cutoffStr,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("deleting sessions: %w", err)
	}
	sessionsDeleted, err = sessResult.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("getting deleted session count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing archive delete: %w", err)
	}

	s.logger.Info("deleted archived sessions",
		"sessions", sessionsDeleted,
		"messages", messagesDeleted,
		"cutoff", cutoffStr,
	)
	return sessionsDeleted, messagesDeleted, nil
}

// ABOUTME: Message persistence with transactional per-session sequence assignment
// ABOUTME: Messages are append-only; seq = max(existing)+1 inside the insert transaction

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AppendMessage inserts a message, assigning the next per-session sequence
// number inside the same transaction as the insert. The read-increment-write
// is transactional so two writers to one session cannot claim the same slot.
// The assigned sequence number is written back to msg.Seq and returned.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *Message) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxSeq int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM messages WHERE session_id = ?`,
		msg.SessionID,
	).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("reading max sequence: %w", err)
	}

	seq := maxSeq + 1

	query := `
		INSERT INTO messages (id, session_id, role, content, content_hash, tool_calls,
			token_count, model_id, seq, contains_potential_secrets, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.Content,
		msg.ContentHash,
		nullString(msg.ToolCalls),
		nullInt(msg.TokenCount),
		nullString(msg.ModelID),
		seq,
		boolToInt(msg.ContainsPotentialSecrets),
		msg.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, ErrDuplicateID
		}
		return 0, fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing message insert: %w", err)
	}

	msg.Seq = seq
	s.logger.Debug("appended message", "id", msg.ID, "session_id", msg.SessionID, "seq", seq)
	return seq, nil
}

// GetSessionMessages retrieves all messages for a session ordered by
// sequence number ascending.
func (s *SQLiteStore) GetSessionMessages(ctx context.Context, sessionID string) ([]*Message, error) {
	query := `
		SELECT id, session_id, role, content, content_hash, tool_calls,
			token_count, model_id, seq, contains_potential_secrets, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var toolCalls, modelID sql.NullString
		var tokenCount sql.NullInt64
		var secrets int
		var createdAtStr string

		if err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&msg.ContentHash,
			&toolCalls,
			&tokenCount,
			&modelID,
			&msg.Seq,
			&secrets,
			&createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		msg.ToolCalls = stringPtr(toolCalls)
		msg.ModelID = stringPtr(modelID)
		if tokenCount.Valid {
			n := int(tokenCount.Int64)
			msg.TokenCount = &n
		}
		msg.ContainsPotentialSecrets = secrets != 0

		msg.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing message created_at: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}
	return messages, nil
}

// CountSessionMessages returns the number of messages logged to a session.
func (s *SQLiteStore) CountSessionMessages(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE session_id = ?`,
		sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// nullInt returns nil for nil int pointers, otherwise the value
func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

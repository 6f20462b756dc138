// ABOUTME: Shared test helpers for the store package
// ABOUTME: Provides setupTestStore and small builders for sessions and messages

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a SQLite store on a temp file, cleaned up with the test.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// createTestSession inserts a session started at the given time and returns it.
func createTestSession(t *testing.T, s *SQLiteStore, startedAt time.Time) *Session {
	t.Helper()
	sess := &Session{
		ID:                 uuid.New().String(),
		Environment:        "terminal",
		DataClassification: ClassificationInternal,
		StartedAt:          startedAt.UTC(),
		CreatedAt:          startedAt.UTC(),
	}
	require.NoError(t, s.CreateSession(context.Background(), sess))
	return sess
}

// appendTestMessage appends a message with generated content to a session.
func appendTestMessage(t *testing.T, s *SQLiteStore, sessionID, role string, i int) *Message {
	t.Helper()
	msg := &Message{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Role:        role,
		Content:     fmt.Sprintf("message body %d", i),
		ContentHash: fmt.Sprintf("hash-%d", i),
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.AppendMessage(context.Background(), msg)
	require.NoError(t, err)
	return msg
}

// ABOUTME: Tests for session persistence
// ABOUTME: Covers create/get, end semantics, legal hold, and filtered summary listing

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist in nested directory")
}

func TestCreateAndGetSession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	userID := "dev-1"
	metadata := `{"branch":"main"}`
	started := time.Now().UTC().Truncate(time.Second)

	sess := &Session{
		ID:                 uuid.New().String(),
		UserID:             &userID,
		Environment:        "claude-code",
		Metadata:           &metadata,
		DataClassification: ClassificationConfidential,
		StartedAt:          started,
		CreatedAt:          started,
	}
	require.NoError(t, s.CreateSession(ctx, sess))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "claude-code", got.Environment)
	assert.Equal(t, ClassificationConfidential, got.DataClassification)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "dev-1", *got.UserID)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, metadata, *got.Metadata)
	assert.Nil(t, got.EndedAt)
	assert.False(t, got.LegalHold)
	assert.Equal(t, started, got.StartedAt)
}

func TestGetSession_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCreateSession_DuplicateID(t *testing.T) {
	s := setupTestStore(t)
	sess := createTestSession(t, s, time.Now())

	err := s.CreateSession(context.Background(), sess)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestEndSession_OnlyOnce(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sess := createTestSession(t, s, time.Now())

	first := time.Now().UTC().Truncate(time.Second)
	updated, err := s.EndSession(ctx, sess.ID, first)
	require.NoError(t, err)
	assert.True(t, updated)

	// Second end is a no-op: the row's ended_at is no longer null
	updated, err = s.EndSession(ctx, sess.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, updated)

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, first, *got.EndedAt)
}

func TestSetSessionLegalHold(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sess := createTestSession(t, s, time.Now())

	require.NoError(t, s.SetSessionLegalHold(ctx, sess.ID, true))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, got.LegalHold)

	require.NoError(t, s.SetSessionLegalHold(ctx, sess.ID, false))
	got, err = s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, got.LegalHold)
}

func TestSetSessionLegalHold_NotFound(t *testing.T) {
	s := setupTestStore(t)

	err := s.SetSessionLegalHold(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListSessionSummaries_OrderAndCounts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	older := createTestSession(t, s, time.Now().Add(-2*time.Hour))
	newer := createTestSession(t, s, time.Now().Add(-1*time.Hour))
	appendTestMessage(t, s, older.ID, RoleUser, 1)
	appendTestMessage(t, s, older.ID, RoleAssistant, 2)
	appendTestMessage(t, s, newer.ID, RoleUser, 1)

	summaries, err := s.ListSessionSummaries(ctx, SessionFilter{IncludeActive: true})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest first
	assert.Equal(t, newer.ID, summaries[0].ID)
	assert.Equal(t, 1, summaries[0].MessageCount)
	assert.Equal(t, older.ID, summaries[1].ID)
	assert.Equal(t, 2, summaries[1].MessageCount)
}

func TestListSessionSummaries_ExcludesActive(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	open := createTestSession(t, s, time.Now().Add(-2*time.Hour))
	closed := createTestSession(t, s, time.Now().Add(-1*time.Hour))
	_, err := s.EndSession(ctx, closed.ID, time.Now())
	require.NoError(t, err)

	summaries, err := s.ListSessionSummaries(ctx, SessionFilter{IncludeActive: false})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, closed.ID, summaries[0].ID)

	summaries, err = s.ListSessionSummaries(ctx, SessionFilter{IncludeActive: true})
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
	_ = open
}

func TestListSessionSummaries_Filters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	proj := &Project{ID: uuid.New().String(), Name: "atlas", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateProject(ctx, proj))

	inProject := &Session{
		ID:                 uuid.New().String(),
		ProjectID:          &proj.ID,
		Environment:        "cursor",
		DataClassification: ClassificationInternal,
		StartedAt:          time.Now().UTC().Add(-time.Hour),
		CreatedAt:          time.Now().UTC(),
	}
	require.NoError(t, s.CreateSession(ctx, inProject))
	createTestSession(t, s, time.Now().Add(-time.Hour))

	summaries, err := s.ListSessionSummaries(ctx, SessionFilter{
		ProjectID:     &proj.ID,
		IncludeActive: true,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, inProject.ID, summaries[0].ID)
	require.NotNil(t, summaries[0].ProjectName)
	assert.Equal(t, "atlas", *summaries[0].ProjectName)

	env := "cursor"
	summaries, err = s.ListSessionSummaries(ctx, SessionFilter{
		Environment:   &env,
		IncludeActive: true,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, inProject.ID, summaries[0].ID)
}

func TestListSessionSummaries_DateWindow(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	old := createTestSession(t, s, time.Now().Add(-72*time.Hour))
	recent := createTestSession(t, s, time.Now().Add(-1*time.Hour))

	after := time.Now().Add(-24 * time.Hour)
	summaries, err := s.ListSessionSummaries(ctx, SessionFilter{
		StartedAfter:  &after,
		IncludeActive: true,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, recent.ID, summaries[0].ID)

	before := time.Now().Add(-24 * time.Hour)
	summaries, err = s.ListSessionSummaries(ctx, SessionFilter{
		StartedBefore: &before,
		IncludeActive: true,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, old.ID, summaries[0].ID)
}

func TestListSessionSummaries_Limit(t *testing.T) {
	s := setupTestStore(t)

	for i := 0; i < 5; i++ {
		createTestSession(t, s, time.Now().Add(time.Duration(-i)*time.Hour))
	}

	summaries, err := s.ListSessionSummaries(context.Background(), SessionFilter{
		IncludeActive: true,
		Limit:         3,
	})
	require.NoError(t, err)
	assert.Len(t, summaries, 3)
}

func TestSessionsForExport_AscendingAndNarrowed(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := createTestSession(t, s, time.Now().Add(-3*time.Hour))
	second := createTestSession(t, s, time.Now().Add(-2*time.Hour))
	createTestSession(t, s, time.Now().Add(-30*24*time.Hour)) // outside range

	start := time.Now().Add(-24 * time.Hour)
	end := time.Now()

	summaries, err := s.SessionsForExport(ctx, start, end, nil, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, first.ID, summaries[0].ID, "export order is ascending by start time")
	assert.Equal(t, second.ID, summaries[1].ID)

	summaries, err = s.SessionsForExport(ctx, start, end, &second.ID, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, second.ID, summaries[0].ID)
}

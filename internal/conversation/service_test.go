// ABOUTME: Shared fixtures and lifecycle tests for the conversation service
// ABOUTME: Covers start validation, idempotent end, legal hold, and best-effort audit writes

package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmanrrana/brain-dump-sub000/internal/fingerprint"
	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

// testSecret keys every test signer so fingerprints are reproducible across helpers.
var testSecret = []byte("test-host-secret")

type testEnv struct {
	svc    *Service
	store  *store.SQLiteStore
	dbPath string
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := NewService(
		st,
		fingerprint.New(testSecret),
		DetectorFunc(func() string { return "test-terminal" }),
		ScannerFunc(func(content string) bool { return strings.Contains(content, "SECRET") }),
		nil,
	)
	return &testEnv{svc: svc, store: st, dbPath: dbPath}
}

// startSession starts a plain session and returns its id.
func (e *testEnv) startSession(t *testing.T) string {
	t.Helper()
	res, err := e.svc.Start(context.Background(), StartParams{})
	require.NoError(t, err)
	return res.SessionID
}

// backdateSession rewrites a session's start date, simulating age for retention tests.
func (e *testEnv) backdateSession(t *testing.T, sessionID string, startedAt time.Time) {
	t.Helper()
	tamperDB(t, e.dbPath,
		`UPDATE sessions SET started_at = ? WHERE id = ?`,
		startedAt.UTC().Format(time.RFC3339), sessionID)
}

func TestStart_Defaults(t *testing.T) {
	env := setupTestService(t)

	res, err := env.svc.Start(context.Background(), StartParams{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, "test-terminal", res.Environment, "environment comes from the injected detector")
	assert.Equal(t, store.ClassificationInternal, res.DataClassification)
	assert.False(t, res.StartedAt.IsZero())
}

func TestStart_WithLinkageAndMetadata(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	proj := &store.Project{ID: uuid.New().String(), Name: "atlas", CreatedAt: time.Now().UTC()}
	require.NoError(t, env.store.CreateProject(ctx, proj))
	ticket := &store.Ticket{ID: uuid.New().String(), ProjectID: &proj.ID, Title: "fix auth", CreatedAt: time.Now().UTC()}
	require.NoError(t, env.store.CreateTicket(ctx, ticket))

	res, err := env.svc.Start(ctx, StartParams{
		ProjectID:          proj.ID,
		TicketID:           ticket.ID,
		UserID:             "dev-1",
		Metadata:           map[string]any{"branch": "main"},
		DataClassification: store.ClassificationRestricted,
	})
	require.NoError(t, err)
	assert.Equal(t, proj.ID, res.ProjectID)
	assert.Equal(t, store.ClassificationRestricted, res.DataClassification)

	sess, err := env.store.GetSession(ctx, res.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess.Metadata)
	assert.Contains(t, *sess.Metadata, `"branch":"main"`)
}

func TestStart_UnknownProject(t *testing.T) {
	env := setupTestService(t)

	_, err := env.svc.Start(context.Background(), StartParams{ProjectID: "missing"})
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestStart_UnknownTicket(t *testing.T) {
	env := setupTestService(t)

	_, err := env.svc.Start(context.Background(), StartParams{TicketID: "missing"})
	assert.ErrorIs(t, err, store.ErrTicketNotFound)
}

func TestStart_InvalidClassification(t *testing.T) {
	env := setupTestService(t)

	_, err := env.svc.Start(context.Background(), StartParams{DataClassification: "top-secret"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeInvalidClassification, verr.Code)
}

func TestEnd_ReturnsMessageCount(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	sessionID := env.startSession(t)

	for i := 0; i < 3; i++ {
		_, err := env.svc.LogMessage(ctx, LogParams{SessionID: sessionID, Role: store.RoleUser, Content: "hi"})
		require.NoError(t, err)
	}

	res, err := env.svc.End(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyEnded)
	assert.Equal(t, 3, res.MessageCount)
	assert.False(t, res.EndedAt.IsZero())
}

func TestEnd_Idempotent(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	sessionID := env.startSession(t)

	first, err := env.svc.End(ctx, sessionID)
	require.NoError(t, err)

	second, err := env.svc.End(ctx, sessionID)
	require.NoError(t, err, "ending twice must not error")
	assert.True(t, second.AlreadyEnded)
	assert.Equal(t, first.EndedAt.Truncate(time.Second), second.EndedAt.Truncate(time.Second))
}

func TestEnd_SessionNotFound(t *testing.T) {
	env := setupTestService(t)

	_, err := env.svc.End(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSetLegalHold_RecordsAccess(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	sessionID := env.startSession(t)

	require.NoError(t, env.svc.SetLegalHold(ctx, sessionID, true))

	sess, err := env.store.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, sess.LegalHold)

	action := store.AccessActionSetHold
	records, err := env.store.ListAccessLog(ctx, store.AccessFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, sessionID, records[0].TargetID)
}

func TestSetLegalHold_NotFound(t *testing.T) {
	env := setupTestService(t)

	err := env.svc.SetLegalHold(context.Background(), "missing", true)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

// failingAccessStore wraps the real store and fails every audit write.
type failingAccessStore struct {
	*store.SQLiteStore
}

func (f *failingAccessStore) RecordAccess(ctx context.Context, rec *store.AccessRecord) error {
	return errors.New("audit table unavailable")
}

func TestAccessRecordingFailureNeverSurfaces(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	sessionID := env.startSession(t)
	env.backdateSession(t, sessionID, time.Now().Add(-10*24*time.Hour))

	svc := NewService(
		&failingAccessStore{env.store},
		fingerprint.New(testSecret),
		DetectorFunc(func() string { return "test-terminal" }),
		ScannerFunc(func(string) bool { return false }),
		nil,
	)

	// Legal hold, export, and archival all succeed despite the broken audit path
	require.NoError(t, svc.SetLegalHold(ctx, sessionID, false))

	_, err := svc.Export(ctx, ExportParams{
		StartDate: time.Now().Add(-30 * 24 * time.Hour),
		EndDate:   time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.Archive(ctx, ArchiveParams{RetentionDays: 1})
	require.NoError(t, err)
}

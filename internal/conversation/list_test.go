// ABOUTME: Tests for session listing
// ABOUTME: Derived counts, IsActive, filter plumbing, and default limits

package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

func TestList_CountsAndActivity(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	sessionID := env.startSession(t)

	for _, role := range []string{store.RoleUser, store.RoleAssistant, store.RoleUser} {
		_, err := env.svc.LogMessage(ctx, LogParams{SessionID: sessionID, Role: role, Content: "m"})
		require.NoError(t, err)
	}
	_, err := env.svc.End(ctx, sessionID)
	require.NoError(t, err)

	summaries, err := env.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	sum := summaries[0]
	assert.Equal(t, sessionID, sum.SessionID)
	assert.Equal(t, 3, sum.MessageCount)
	assert.False(t, sum.IsActive)
	require.NotNil(t, sum.EndedAt)
}

func TestList_IncludeActiveDefaultsTrue(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	open := env.startSession(t)
	closed := env.startSession(t)
	_, err := env.svc.End(ctx, closed)
	require.NoError(t, err)

	summaries, err := env.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, summaries, 2)

	includeActive := false
	summaries, err = env.svc.List(ctx, ListFilter{IncludeActive: &includeActive})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, closed, summaries[0].SessionID)
	_ = open
}

func TestList_EnvironmentFilter(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	env.startSession(t)

	summaries, err := env.svc.List(ctx, ListFilter{Environment: "test-terminal"})
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	summaries, err = env.svc.List(ctx, ListFilter{Environment: "cursor"})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestList_DateWindow(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	oldID := env.startSession(t)
	env.backdateSession(t, oldID, time.Now().Add(-72*time.Hour))
	recentID := env.startSession(t)

	summaries, err := env.svc.List(ctx, ListFilter{
		StartedAfter: time.Now().Add(-24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, recentID, summaries[0].SessionID)

	summaries, err = env.svc.List(ctx, ListFilter{
		StartedBefore: time.Now().Add(-24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, oldID, summaries[0].SessionID)
}

func TestList_ProjectNameResolved(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	proj := &store.Project{ID: "proj-1", Name: "atlas", CreatedAt: time.Now().UTC()}
	require.NoError(t, env.store.CreateProject(ctx, proj))

	_, err := env.svc.Start(ctx, StartParams{ProjectID: proj.ID})
	require.NoError(t, err)

	summaries, err := env.svc.List(ctx, ListFilter{ProjectID: proj.ID})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "atlas", summaries[0].ProjectName)
}

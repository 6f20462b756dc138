// ABOUTME: Tests for project and ticket records
// ABOUTME: Covers create/get/list and not-found sentinels

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetProject(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := &Project{ID: uuid.New().String(), Name: "atlas", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateProject(ctx, p))

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "atlas", got.Name)
}

func TestGetProject_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetProject(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestListProjects_OrderedByName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zephyr", "atlas", "meridian"} {
		p := &Project{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
		require.NoError(t, s.CreateProject(ctx, p))
	}

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, "atlas", projects[0].Name)
	assert.Equal(t, "zephyr", projects[2].Name)
}

func TestCreateAndGetTicket(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := &Project{ID: uuid.New().String(), Name: "atlas", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateProject(ctx, p))

	tk := &Ticket{
		ID:        uuid.New().String(),
		ProjectID: &p.ID,
		Title:     "fix login redirect",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateTicket(ctx, tk))

	got, err := s.GetTicket(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "fix login redirect", got.Title)
	require.NotNil(t, got.ProjectID)
	assert.Equal(t, p.ID, *got.ProjectID)
}

func TestGetTicket_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetTicket(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

package folders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chatgear/features/folders"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/pagetest"
)

// TestFolders_AssignAndPersist validates that an assignment for the
// on-screen conversation survives a restart.
func TestFolders_AssignAndPersist(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	pg := pagetest.New()
	f := folders.New(pg, dir)
	ctx := context.Background()
	require.NoError(t, f.Init(ctx, feature.Config{}))
	f.OnNavigate(ctx, "conv-1")

	// --- Act ---
	require.NoError(t, f.Assign("research"))

	// --- Assert ---
	assert.Equal(t, []string{"research"}, f.Folders())

	// A fresh instance must see the persisted assignment.
	reborn := folders.New(pagetest.New(), dir)
	require.NoError(t, reborn.Init(ctx, feature.Config{}))
	assert.Equal(t, []string{"research"}, reborn.Folders())
}

// TestFolders_Assign_NoConversation validates the guard against filing
// when no conversation is on screen.
func TestFolders_Assign_NoConversation(t *testing.T) {
	t.Parallel()

	f := folders.New(pagetest.New(), t.TempDir())
	require.NoError(t, f.Init(context.Background(), feature.Config{}))

	require.Error(t, f.Assign("anywhere"))
}

// TestFolders_Unfile validates that an empty folder name removes the
// assignment.
func TestFolders_Unfile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := folders.New(pagetest.New(), t.TempDir())
	ctx := context.Background()
	require.NoError(t, f.Init(ctx, feature.Config{}))
	f.OnNavigate(ctx, "conv-1")
	require.NoError(t, f.Assign("research"))

	// --- Act ---
	require.NoError(t, f.Assign(""))

	// --- Assert ---
	assert.Empty(t, f.Folders())
}

// TestFolders_OnNavigate_UpdatesPanel validates that navigation tracks
// the current conversation and refreshes the panel label.
func TestFolders_OnNavigate_UpdatesPanel(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	pg := pagetest.New()
	f := folders.New(pg, t.TempDir())
	ctx := context.Background()
	require.NoError(t, f.Init(ctx, feature.Config{}))
	f.OnNavigate(ctx, "conv-1")
	require.NoError(t, f.Assign("research"))

	// --- Act ---
	f.OnNavigate(ctx, "conv-1")

	// --- Assert ---
	evals := pg.Evals()
	require.NotEmpty(t, evals)
	assert.Contains(t, evals[len(evals)-1], "research")
}

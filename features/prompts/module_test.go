package prompts_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chatgear/features/prompts"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/pagetest"
)

// TestPrompts_Init_LoadsLibrary validates YAML library loading and
// palette injection.
func TestPrompts_Init_LoadsLibrary(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	lib := `
- name: Summarize
  text: Summarize the conversation so far.
  tags: [review]
- name: Translate
  text: Translate the last answer to German.
`
	require.NoError(t, os.WriteFile(path, []byte(lib), 0o644))
	pg := pagetest.New()
	f := prompts.New(pg, path)

	// --- Act ---
	require.NoError(t, f.Init(context.Background(), feature.Config{}))

	// --- Assert ---
	loaded := f.Library()
	require.Len(t, loaded, 2)
	assert.Equal(t, "Summarize", loaded[0].Name)
	assert.Equal(t, []string{"review"}, loaded[0].Tags)
	assert.Equal(t, "Translate the last answer to German.", loaded[1].Text)
	require.Len(t, pg.Evals(), 1, "Init must inject the palette")
}

// TestPrompts_MissingLibrary_EmptyPalette validates that a missing file
// is not an error.
func TestPrompts_MissingLibrary_EmptyPalette(t *testing.T) {
	t.Parallel()

	pg := pagetest.New()
	f := prompts.New(pg, filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, f.Init(context.Background(), feature.Config{}))
	require.Empty(t, f.Library())
}

// TestPrompts_CorruptLibrary_FailsInit validates that malformed YAML
// fails activation instead of injecting garbage.
func TestPrompts_CorruptLibrary_FailsInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- nope"), 0o644))
	f := prompts.New(pagetest.New(), path)

	require.Error(t, f.Init(context.Background(), feature.Config{}))
}

// TestPrompts_Destroy_RemovesPalette validates teardown.
func TestPrompts_Destroy_RemovesPalette(t *testing.T) {
	t.Parallel()

	pg := pagetest.New()
	f := prompts.New(pg, filepath.Join(t.TempDir(), "absent.yaml"))
	ctx := context.Background()
	require.NoError(t, f.Init(ctx, feature.Config{}))

	require.NoError(t, f.Destroy(ctx))
	evals := pg.Evals()
	require.Len(t, evals, 2)
	assert.Contains(t, evals[1], "remove")
}

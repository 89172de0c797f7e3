package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/featuretest"
	"github.com/vk/chatgear/internal/registry"
)

// TestRegistry_Lookup_AbsentKey validates that looking up a key that was
// never registered reports ok=false rather than failing.
func TestRegistry_Lookup_AbsentKey(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := registry.New()

	// --- Act ---
	f, ok := r.Lookup("nope")

	// --- Assert ---
	require.False(t, ok, "absent key must report ok=false")
	require.Nil(t, f, "absent key must return a nil feature")
}

// TestRegistry_Register_LastWins validates that re-registering a key
// silently replaces the earlier entry.
func TestRegistry_Register_LastWins(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := registry.New()
	first := featuretest.New("timeline", feature.CapNavigate)
	second := featuretest.New("timeline", feature.CapMessagesChanged)

	// --- Act ---
	r.Register(first)
	r.Register(second)

	// --- Assert ---
	f, ok := r.Lookup("timeline")
	require.True(t, ok)
	require.Same(t, second, f, "the most recent registration must win")
}

// TestRegistry_Keys_Sorted validates deterministic key enumeration.
func TestRegistry_Keys_Sorted(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := registry.New()
	r.Register(featuretest.New("width", 0))
	r.Register(featuretest.New("export", 0))
	r.Register(featuretest.New("folders", 0))

	// --- Act & Assert ---
	require.Equal(t, []string{"export", "folders", "width"}, r.Keys())
}

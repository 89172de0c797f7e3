package navigation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/featuretest"
	"github.com/vk/chatgear/internal/navigation"
	"github.com/vk/chatgear/internal/pagetest"
)

// TestDefaultSources_HistoryAndEvents validates the standard wiring: an
// intercepted pushState and a popstate both converge on one detection.
func TestDefaultSources_HistoryAndEvents(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := context.Background()
	pg := pagetest.New()
	pg.SetLocation("/")
	stub := featuretest.New("timeline", feature.CapNavigate)
	act := activatorWith(ctx, stub)
	d := navigation.New(pg, act, navigation.Options{})
	require.NoError(t, d.Start(ctx))
	require.True(t, pg.HookInstalled())

	// --- Act ---
	pg.Navigate("/c/one")
	// Back/forward to the same path must not double-fire.
	pg.FireNavEvent()

	pg.SetLocation("/c/two")
	pg.FireNavEvent()

	// --- Assert ---
	require.Equal(t, []string{"one", "two"}, stub.NavCalls())
}

// TestDefaultSources_PollingCatchesMissedNavigation validates the safety
// net: a location change no source announced is still picked up by the
// poller.
func TestDefaultSources_PollingCatchesMissedNavigation(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := context.Background()
	pg := pagetest.New()
	pg.SetLocation("/")
	stub := featuretest.New("timeline", feature.CapNavigate)
	act := activatorWith(ctx, stub)
	d := navigation.New(pg, act, navigation.Options{PollInterval: 5 * time.Millisecond})
	require.NoError(t, d.Start(ctx))
	defer d.Stop()

	// --- Act ---
	// Silent change: neither the hook nor an event fires.
	pg.SetLocation("/c/silent")

	// --- Assert ---
	require.Eventually(t, func() bool {
		calls := stub.NavCalls()
		return len(calls) == 1 && calls[0] == "silent"
	}, time.Second, 2*time.Millisecond)
}

// TestDefaultSources_HookFailureDegrades validates that a page refusing
// the history hook still gets detection from the event listener.
func TestDefaultSources_HookFailureDegrades(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := context.Background()
	pg := pagetest.New()
	pg.HookErr = errors.New("history is sealed")
	stub := featuretest.New("timeline", feature.CapNavigate)
	act := activatorWith(ctx, stub)
	d := navigation.New(pg, act, navigation.Options{})
	require.NoError(t, d.Start(ctx))
	require.False(t, pg.HookInstalled())

	// --- Act ---
	pg.SetLocation("/c/fallback")
	pg.FireNavEvent()

	// --- Assert ---
	require.Equal(t, []string{"fallback"}, stub.NavCalls())
}

package app_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/chatgear/internal/app"
	"github.com/vk/chatgear/internal/bus"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/featuretest"
	"github.com/vk/chatgear/internal/pagetest"
	"github.com/vk/chatgear/internal/settings"
)

const testSelector = "main .messages"

// testProfile keeps every timing knob tiny so the orchestration loop
// settles within milliseconds.
const testProfile = `
site {
  container_selector = "main .messages"
}

navigation {
  poll_interval = "5ms"
  settle_delay  = "5ms"
}

watch {
  base_delay   = "1ms"
  max_delay    = "4ms"
  max_attempts = 5
  debounce     = "5ms"
}

feature "timeline" {
  enabled = true
}

feature "folders" {
  enabled = false
}
`

type harness struct {
	app     *app.App
	pg      *pagetest.FakePage
	ui      *bus.Local // the counterpart endpoint, playing the settings UI
	dataDir string
	cancel  context.CancelFunc
	done    chan struct{}
}

func startApp(t *testing.T, features ...feature.Feature) *harness {
	t.Helper()

	dir := t.TempDir()
	profilePath := filepath.Join(dir, "site.hcl")
	require.NoError(t, os.WriteFile(profilePath, []byte(testProfile), 0o644))

	cfg, err := app.NewConfig(app.Config{
		ProfilePath: profilePath,
		DataDir:     dir,
		LogFormat:   "text",
		LogLevel:    "error",
	})
	require.NoError(t, err)

	pg := pagetest.New()
	pg.SetContainer(testSelector, true)
	core, ui := bus.NewLocalPair()

	a := app.NewApp(os.Stderr, cfg, pg, core, features...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Run(ctx)
	}()

	h := &harness{app: a, pg: pg, ui: ui, dataDir: dir, cancel: cancel, done: done}
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("app did not shut down")
		}
	})
	return h
}

// TestApp_Startup_ActivatesEnabledFeaturesOnly validates the boot path:
// once the container is acquired, exactly the enabled features come up.
func TestApp_Startup_ActivatesEnabledFeaturesOnly(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	timeline := featuretest.New("timeline", feature.CapNavigate|feature.CapMessagesChanged)
	folders := featuretest.New("folders", feature.CapNavigate)

	// --- Act ---
	h := startApp(t, timeline, folders)

	// --- Assert ---
	require.Eventually(t, func() bool { return timeline.InitCalls() == 1 },
		time.Second, time.Millisecond, "the enabled feature must be initialized once")
	require.Equal(t, 0, folders.InitCalls(), "the disabled feature must stay down")
	require.Equal(t, []string{"timeline"}, h.app.Activator().ActiveKeys())
}

// TestApp_NavigationReachesActiveFeatures validates the full path from a
// page-side history event to a feature notification.
func TestApp_NavigationReachesActiveFeatures(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	timeline := featuretest.New("timeline", feature.CapNavigate)
	h := startApp(t, timeline)
	require.Eventually(t, func() bool { return timeline.InitCalls() == 1 },
		time.Second, time.Millisecond)

	// --- Act ---
	h.pg.Navigate("/c/conv-1")

	// --- Assert ---
	require.Eventually(t, func() bool {
		calls := timeline.NavCalls()
		return len(calls) == 1 && calls[0] == "conv-1"
	}, time.Second, time.Millisecond)
}

// TestApp_MutationsReachActiveFeatures validates the watcher-to-feature
// fan-out with debouncing in place.
func TestApp_MutationsReachActiveFeatures(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	timeline := featuretest.New("timeline", feature.CapMessagesChanged)
	h := startApp(t, timeline)
	require.Eventually(t, func() bool { return timeline.InitCalls() == 1 },
		time.Second, time.Millisecond)

	// --- Act ---
	for i := 0; i < 5; i++ {
		h.pg.Mutate(testSelector)
	}

	// --- Assert ---
	require.Eventually(t, func() bool { return timeline.MsgCalls() == 1 },
		time.Second, time.Millisecond, "a burst must arrive as one notification")
}

// TestApp_UpdateSettings_TogglesFeatureOff validates the central
// end-to-end flow: a settings update from the counterpart context
// destroys the feature exactly once and stops further notifications.
func TestApp_UpdateSettings_TogglesFeatureOff(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	timeline := featuretest.New("timeline", feature.CapMessagesChanged)
	h := startApp(t, timeline)
	require.Eventually(t, func() bool { return timeline.InitCalls() == 1 },
		time.Second, time.Millisecond)

	// --- Act ---
	snap := h.app.Snapshot()
	snap.Features["timeline"] = false
	payload, err := json.Marshal(snap)
	require.NoError(t, err)
	resp, err := h.ui.Send(context.Background(), bus.Request{
		Type:    bus.TypeUpdateSettings,
		Payload: payload,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	// --- Assert ---
	require.Equal(t, 1, timeline.DestroyCalls(), "toggling off must destroy exactly once")
	require.False(t, h.app.Activator().Active("timeline"))

	h.pg.Mutate(testSelector)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 0, timeline.MsgCalls(), "a deactivated feature must receive no notifications")
}

// TestApp_FeatureToggle_ActivatesFeature validates the single-feature
// toggle message and its persistence.
func TestApp_FeatureToggle_ActivatesFeature(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	timeline := featuretest.New("timeline", 0)
	folders := featuretest.New("folders", 0)
	h := startApp(t, timeline, folders)
	require.Eventually(t, func() bool { return timeline.InitCalls() == 1 },
		time.Second, time.Millisecond)

	// --- Act ---
	payload, err := json.Marshal(map[string]any{"key": "folders", "enabled": true})
	require.NoError(t, err)
	resp, err := h.ui.Send(context.Background(), bus.Request{
		Type:    bus.TypeFeatureToggle,
		Payload: payload,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	// --- Assert ---
	require.Equal(t, 1, folders.InitCalls())
	require.True(t, h.app.Snapshot().Features["folders"])

	// The toggle must be persisted for the next session.
	loaded, err := settings.NewStore(h.dataDir, settings.Default(nil)).Load(context.Background())
	require.NoError(t, err)
	require.True(t, loaded.Features["folders"])
}

// TestApp_GetSettings_ReturnsAppliedSnapshot validates that the
// counterpart can read back the applied configuration.
func TestApp_GetSettings_ReturnsAppliedSnapshot(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	timeline := featuretest.New("timeline", 0)
	h := startApp(t, timeline)
	require.Eventually(t, func() bool { return timeline.InitCalls() == 1 },
		time.Second, time.Millisecond)

	// --- Act ---
	resp, err := h.ui.Send(context.Background(), bus.Request{Type: bus.TypeGetSettings})

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, resp.Success)
	var snap settings.Snapshot
	require.NoError(t, json.Unmarshal(resp.Data, &snap))
	require.True(t, snap.Features["timeline"])
	require.False(t, snap.Features["folders"])
}

// TestApp_MalformedPayload_FailsCleanly validates that junk from the
// counterpart is rejected without disturbing the active set.
func TestApp_MalformedPayload_FailsCleanly(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	timeline := featuretest.New("timeline", 0)
	h := startApp(t, timeline)
	require.Eventually(t, func() bool { return timeline.InitCalls() == 1 },
		time.Second, time.Millisecond)

	// --- Act ---
	resp, err := h.ui.Send(context.Background(), bus.Request{
		Type:    bus.TypeUpdateSettings,
		Payload: json.RawMessage(`{not json`),
	})

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.True(t, h.app.Activator().Active("timeline"), "a bad payload must not change the active set")
}

// TestApp_Shutdown_DeactivatesEverything validates the teardown path.
func TestApp_Shutdown_DeactivatesEverything(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	timeline := featuretest.New("timeline", 0)
	h := startApp(t, timeline)
	require.Eventually(t, func() bool { return timeline.InitCalls() == 1 },
		time.Second, time.Millisecond)

	// --- Act ---
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not shut down")
	}

	// --- Assert ---
	require.Equal(t, 1, timeline.DestroyCalls())
	require.Empty(t, h.app.Activator().ActiveKeys())
}

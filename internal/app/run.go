package app

import (
	"context"
	"encoding/json"

	"github.com/vk/chatgear/internal/bus"
	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/settings"
)

// Run starts the orchestration loop: the content watcher begins container
// acquisition, the first successful acquisition triggers the initial
// settings reconcile and starts the navigation detector, and relay
// messages re-run the sync. Run blocks until ctx is cancelled, then
// deactivates every feature.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.registerBusHandlers(ctx)
	a.watcher.Start(ctx)

	<-ctx.Done()

	a.logger.Debug("Shutting down.")
	shutdownCtx := ctxlog.WithLogger(context.Background(), a.logger)
	a.detector.Stop()
	a.watcher.Stop()
	a.act.DeactivateAll(shutdownCtx)
	a.logger.Debug("App.Run method finished.")
	return nil
}

// onContainerFound runs on every transition of the watcher to Found. The
// first one bootstraps: load persisted settings, reconcile, start the
// navigation detector. Later ones (after navigation re-arms) need no
// extra work; active features simply resume receiving notifications.
func (a *App) onContainerFound(ctx context.Context) {
	a.started.Do(func() {
		logger := ctxlog.FromContext(ctx)
		logger.Info("Host page interactive, activating features.")

		snap, err := a.store.Load(ctx)
		if err != nil {
			logger.Error("Failed to load persisted settings, using defaults.", "error", err)
			snap = settings.Default(a.prof.FeatureDefaults)
		}

		// The settings UI may hold a fresher snapshot than our file.
		if fresher, ok := a.fetchRemoteSettings(ctx); ok {
			snap = fresher
		}

		a.mu.Lock()
		a.snapshot = snap
		a.mu.Unlock()

		a.sync.Reconcile(ctx, snap)

		if err := a.detector.Start(ctx); err != nil {
			logger.Error("Navigation detector failed to start.", "error", err)
		}
	})
}

// fetchRemoteSettings asks the counterpart context for its snapshot. An
// unreachable counterpart is normal when running standalone.
func (a *App) fetchRemoteSettings(ctx context.Context) (settings.Snapshot, bool) {
	logger := ctxlog.FromContext(ctx)
	resp, err := a.bus.Send(ctx, bus.Request{Type: bus.TypeGetSettings})
	if err != nil {
		logger.Debug("No remote settings available.", "error", err)
		return settings.Snapshot{}, false
	}
	if !resp.Success || len(resp.Data) == 0 {
		return settings.Snapshot{}, false
	}
	var snap settings.Snapshot
	if err := json.Unmarshal(resp.Data, &snap); err != nil {
		logger.Warn("Discarding malformed remote settings.", "error", err)
		return settings.Snapshot{}, false
	}
	return snap, true
}

// Snapshot returns the configuration currently applied.
func (a *App) Snapshot() settings.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot.Clone()
}

// applySnapshot persists the snapshot and reconciles the active set
// against it. Persistence failures are logged, not fatal; the in-memory
// state still advances.
func (a *App) applySnapshot(ctx context.Context, snap settings.Snapshot) {
	if snap.Features == nil {
		snap.Features = make(map[string]bool)
	}
	snap.SchemaVersion = settings.SchemaVersion

	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()

	if err := a.store.Save(ctx, snap); err != nil {
		ctxlog.FromContext(ctx).Error("Failed to persist settings.", "error", err)
	}
	a.sync.Reconcile(ctx, snap)
}

// featureToggle is the FEATURE_TOGGLE payload.
type featureToggle struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

// registerBusHandlers wires the relay messages into settings sync.
func (a *App) registerBusHandlers(ctx context.Context) {
	a.bus.On(bus.TypeGetSettings, func(ctx context.Context, req bus.Request) bus.Response {
		return bus.OK(req, a.Snapshot())
	})

	applyFromPayload := func(ctx context.Context, req bus.Request) bus.Response {
		var snap settings.Snapshot
		if err := json.Unmarshal(req.Payload, &snap); err != nil {
			return bus.Fail(req, "malformed settings payload: "+err.Error())
		}
		a.applySnapshot(ctx, snap)
		return bus.OK(req, nil)
	}
	a.bus.On(bus.TypeUpdateSettings, applyFromPayload)
	a.bus.On(bus.TypeSettingsChanged, applyFromPayload)

	a.bus.On(bus.TypeFeatureToggle, func(ctx context.Context, req bus.Request) bus.Response {
		var t featureToggle
		if err := json.Unmarshal(req.Payload, &t); err != nil {
			return bus.Fail(req, "malformed toggle payload: "+err.Error())
		}
		if t.Key == "" {
			return bus.Fail(req, "toggle payload missing feature key")
		}
		snap := a.Snapshot()
		snap.Features[t.Key] = t.Enabled
		a.applySnapshot(ctx, snap)
		return bus.OK(req, nil)
	})
}

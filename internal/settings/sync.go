package settings

import (
	"context"
	"sort"

	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/lifecycle"
)

// Sync reconciles persisted configuration against the activation state
// machine: runs once at startup after the page is interactive and again on
// every configuration-changed message.
type Sync struct {
	act *lifecycle.Activator

	// options resolves the per-feature option payload handed to Init,
	// typically sourced from the site profile. May be nil.
	options func(key string) map[string]any
}

// NewSync creates a Sync driving the given activator. optionsFor may be
// nil when no per-feature options exist.
func NewSync(act *lifecycle.Activator, optionsFor func(key string) map[string]any) *Sync {
	return &Sync{act: act, options: optionsFor}
}

// Reconcile brings the active set into agreement with the snapshot: every
// key flagged true and inactive is activated, every key flagged false and
// active is deactivated. Keys are independent; iteration is sorted for
// determinism only.
func (s *Sync) Reconcile(ctx context.Context, snap Snapshot) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Reconciling settings.", "feature_count", len(snap.Features))

	keys := make([]string, 0, len(snap.Features))
	for k := range snap.Features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if snap.Features[key] {
			s.act.Activate(ctx, key, s.configFor(key, snap))
		} else {
			s.act.Deactivate(ctx, key)
		}
	}
}

func (s *Sync) configFor(key string, snap Snapshot) feature.Config {
	cfg := feature.Config{
		Locale:       snap.Locale,
		DisplayWidth: snap.DisplayWidth,
	}
	if s.options != nil {
		cfg.Options = s.options(key)
	}
	return cfg
}

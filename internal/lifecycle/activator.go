package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
	"github.com/vk/chatgear/internal/registry"
)

// Activator is the activation state machine. It owns the active set and is
// its only writer. Every feature key is either Inactive or Active; both
// transitions are idempotent no-ops when the key is already in the target
// state.
//
// Bookkeeping happens synchronously at call time: a key is marked Active
// before any asynchronous work a feature's Init may have started resolves.
// Callers may assume Init has been initiated exactly once, not that it has
// completed.
type Activator struct {
	reg *registry.Registry

	mu     sync.Mutex
	active map[string]bool
}

// New creates an Activator backed by the given registry.
func New(reg *registry.Registry) *Activator {
	return &Activator{
		reg:    reg,
		active: make(map[string]bool),
	}
}

// Activate transitions key from Inactive to Active. An unregistered key is
// a silent no-op. If Init fails or panics the error is logged and the key
// remains Inactive; other features are unaffected.
func (a *Activator) Activate(ctx context.Context, key string, cfg feature.Config) {
	logger := ctxlog.FromContext(ctx)

	f, ok := a.reg.Lookup(key)
	if !ok {
		logger.Debug("Activation skipped, feature not registered.", "key", key)
		return
	}

	// Reserve the key before calling Init: guarantees Init is initiated at
	// most once per activation, and lets Init call back into the activator
	// without deadlocking.
	a.mu.Lock()
	if a.active[key] {
		a.mu.Unlock()
		logger.Debug("Activation skipped, feature already active.", "key", key)
		return
	}
	a.active[key] = true
	a.mu.Unlock()

	if err := callInit(ctx, f, cfg); err != nil {
		a.mu.Lock()
		delete(a.active, key)
		a.mu.Unlock()
		logger.Error("Feature activation failed.", "key", key, "error", err)
		return
	}

	logger.Debug("Feature activated.", "key", key)
}

// Deactivate transitions key from Active to Inactive. Destroy errors are
// logged but the key is marked Inactive regardless; cleanup is best-effort
// and must not leave a feature stuck half-active.
func (a *Activator) Deactivate(ctx context.Context, key string) {
	logger := ctxlog.FromContext(ctx)

	a.mu.Lock()
	if !a.active[key] {
		a.mu.Unlock()
		logger.Debug("Deactivation skipped, feature already inactive.", "key", key)
		return
	}
	delete(a.active, key)
	f, ok := a.reg.Lookup(key)
	a.mu.Unlock()

	if !ok {
		return
	}
	if err := callDestroy(ctx, f); err != nil {
		logger.Error("Feature deactivation failed, marked inactive anyway.", "key", key, "error", err)
		return
	}
	logger.Debug("Feature deactivated.", "key", key)
}

// DeactivateAll deactivates every currently active feature, in sorted key
// order.
func (a *Activator) DeactivateAll(ctx context.Context) {
	for _, key := range a.ActiveKeys() {
		a.Deactivate(ctx, key)
	}
}

// Active reports whether key is currently active.
func (a *Activator) Active(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active[key]
}

// ActiveKeys returns the currently active keys in sorted order.
func (a *Activator) ActiveKeys() []string {
	a.mu.Lock()
	keys := make([]string, 0, len(a.active))
	for k := range a.active {
		keys = append(keys, k)
	}
	a.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// EachNavigate invokes OnNavigate on every active feature declaring
// CapNavigate, in sorted key order. Each call is isolated; a panicking
// feature does not prevent the others from being notified.
func (a *Activator) EachNavigate(ctx context.Context, logicalID string) {
	for _, f := range a.snapshot(feature.CapNavigate) {
		func() {
			defer recoverHook(ctx, f.Key(), "onNavigate")
			f.OnNavigate(ctx, logicalID)
		}()
	}
}

// EachMessagesChanged invokes OnMessagesChanged on every active feature
// declaring CapMessagesChanged, in sorted key order, each call isolated.
func (a *Activator) EachMessagesChanged(ctx context.Context, c page.Container) {
	for _, f := range a.snapshot(feature.CapMessagesChanged) {
		func() {
			defer recoverHook(ctx, f.Key(), "onMessagesChanged")
			f.OnMessagesChanged(ctx, c)
		}()
	}
}

// snapshot returns the active features declaring cap, resolved under the
// lock but invoked outside it so hook bodies can call back into the
// activator.
func (a *Activator) snapshot(cap feature.Capability) []feature.Feature {
	var out []feature.Feature
	for _, key := range a.ActiveKeys() {
		f, ok := a.reg.Lookup(key)
		if !ok || !f.Capabilities().Has(cap) {
			continue
		}
		if a.Active(key) {
			out = append(out, f)
		}
	}
	return out
}

func recoverHook(ctx context.Context, key, hook string) {
	if r := recover(); r != nil {
		ctxlog.FromContext(ctx).Error("Feature hook panicked.", "key", key, "hook", hook, "panic", r)
	}
}

// callInit runs Init with panic isolation, so one crashing feature cannot
// take down the orchestrator or its siblings.
func callInit(ctx context.Context, f feature.Feature, cfg feature.Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("init panicked: %v", r)
		}
	}()
	return f.Init(ctx, cfg)
}

func callDestroy(ctx context.Context, f feature.Feature) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("destroy panicked: %v", r)
		}
	}()
	return f.Destroy(ctx)
}

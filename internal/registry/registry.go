package registry

import (
	"log/slog"
	"sort"

	"github.com/vk/chatgear/internal/feature"
)

// Registry holds the mapping from feature key to feature implementation
// for a single orchestrator instance. It has no activation side effects;
// the activator decides which registered features actually run.
type Registry struct {
	features map[string]feature.Feature
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		features: make(map[string]feature.Feature),
	}
}

// Register stores a feature under its key. Re-registration overwrites the
// prior entry silently; registration happens once at startup in practice.
func (r *Registry) Register(f feature.Feature) {
	if _, exists := r.features[f.Key()]; exists {
		slog.Debug("Overwriting registered feature.", "key", f.Key())
	} else {
		slog.Debug("Registering feature.", "key", f.Key())
	}
	r.features[f.Key()] = f
}

// Lookup returns the feature registered under key. An absent key is a
// normal, expected outcome and must be handled by callers as a no-op.
func (r *Registry) Lookup(key string) (feature.Feature, bool) {
	f, ok := r.features[key]
	return f, ok
}

// Keys returns all registered keys in sorted order, for deterministic
// iteration.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.features))
	for k := range r.features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

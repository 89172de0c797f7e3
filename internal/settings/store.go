package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vk/chatgear/internal/ctxlog"
)

// Store persists configuration snapshots as a JSON file in the data
// directory. Writes go through a temp file and rename so a crash mid-write
// never leaves a torn snapshot behind.
type Store struct {
	path     string
	defaults Snapshot
}

// NewStore creates a store rooted at dataDir. The defaults snapshot seeds
// the file on first run and fills fields missing from older schemas.
func NewStore(dataDir string, defaults Snapshot) *Store {
	return &Store{
		path:     filepath.Join(dataDir, "settings.json"),
		defaults: defaults,
	}
}

// Load reads the persisted snapshot. A missing file yields the defaults; a
// snapshot from an older schema version gets missing feature flags filled
// from the defaults and its version bumped.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		ctxlog.FromContext(ctx).Debug("No persisted settings, using defaults.", "path", s.path)
		return s.defaults.Clone(), nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode settings %s: %w", s.path, err)
	}
	if snap.Features == nil {
		snap.Features = make(map[string]bool)
	}
	if snap.SchemaVersion < SchemaVersion {
		ctxlog.FromContext(ctx).Debug("Upgrading settings schema.", "from", snap.SchemaVersion, "to", SchemaVersion)
		for k, v := range s.defaults.Features {
			if _, ok := snap.Features[k]; !ok {
				snap.Features[k] = v
			}
		}
		if snap.Locale == "" {
			snap.Locale = s.defaults.Locale
		}
		snap.SchemaVersion = SchemaVersion
	}
	return snap, nil
}

// Save writes the snapshot atomically.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Settings persisted.", "path", s.path)
	return nil
}

package folders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
)

const panelID = "chatgear-folders"

// Feature organizes conversations into named folders. Assignments are
// kept in a JSON file in the data directory; the current conversation is
// tracked through navigation events so new assignments land on the right
// conversation.
type Feature struct {
	feature.Base
	pg   page.Page
	path string

	mu      sync.Mutex
	current string            // logical id of the conversation on screen
	folders map[string]string // conversation id -> folder name
}

// New creates the folders feature storing assignments under dataDir.
func New(pg page.Page, dataDir string) *Feature {
	return &Feature{
		pg:      pg,
		path:    filepath.Join(dataDir, "folders.json"),
		folders: make(map[string]string),
	}
}

func (f *Feature) Key() string { return "folders" }

func (f *Feature) Capabilities() feature.Capability { return feature.CapNavigate }

func (f *Feature) Init(ctx context.Context, cfg feature.Config) error {
	if err := f.load(); err != nil {
		return fmt.Errorf("failed to load folder assignments: %w", err)
	}
	js := fmt.Sprintf(`(() => {
		if (document.getElementById(%q)) { return; }
		const panel = document.createElement("section");
		panel.id = %q;
		panel.style.cssText = "position:fixed;left:8px;bottom:8px;z-index:9999;font-size:12px;";
		document.body.appendChild(panel);
	})()`, panelID, panelID)
	if err := f.pg.Eval(ctx, js); err != nil {
		return fmt.Errorf("failed to inject folder panel: %w", err)
	}
	return nil
}

func (f *Feature) Destroy(ctx context.Context) error {
	if err := f.save(); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to persist folder assignments.", "error", err)
	}
	js := fmt.Sprintf(`document.getElementById(%q)?.remove()`, panelID)
	if err := f.pg.Eval(ctx, js); err != nil {
		return fmt.Errorf("failed to remove folder panel: %w", err)
	}
	return nil
}

// OnNavigate records the conversation on screen and refreshes the panel
// label with its folder, if any.
func (f *Feature) OnNavigate(ctx context.Context, logicalID string) {
	f.mu.Lock()
	f.current = logicalID
	folder := f.folders[logicalID]
	f.mu.Unlock()

	label := folder
	if label == "" {
		label = "unfiled"
	}
	js := fmt.Sprintf(`(() => {
		const panel = document.getElementById(%q);
		if (panel) { panel.textContent = %q; }
	})()`, panelID, "📁 "+label)
	if err := f.pg.Eval(ctx, js); err != nil {
		ctxlog.FromContext(ctx).Warn("Folder panel update failed.", "error", err)
	}
}

// Assign files the current conversation under folder and persists the
// assignment. An empty folder name unfiles it.
func (f *Feature) Assign(folder string) error {
	f.mu.Lock()
	if f.current == "" {
		f.mu.Unlock()
		return errors.New("no conversation on screen")
	}
	if folder == "" {
		delete(f.folders, f.current)
	} else {
		f.folders[f.current] = folder
	}
	f.mu.Unlock()
	return f.save()
}

// Folders returns the distinct folder names in sorted order.
func (f *Feature) Folders() []string {
	f.mu.Lock()
	seen := make(map[string]struct{})
	for _, name := range f.folders {
		seen[name] = struct{}{}
	}
	f.mu.Unlock()

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (f *Feature) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return json.Unmarshal(raw, &f.folders)
}

func (f *Feature) save() error {
	f.mu.Lock()
	raw, err := json.MarshalIndent(f.folders, "", "  ")
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

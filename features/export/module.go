package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
)

// Feature exports the conversation on screen to a Markdown file in the
// data directory. The conversation id is tracked through navigation
// events; the text itself is pulled from the page on demand.
type Feature struct {
	feature.Base
	pg     page.Page
	outDir string

	mu      sync.Mutex
	current string
}

// New creates the export feature writing files under dataDir/exports.
func New(pg page.Page, dataDir string) *Feature {
	return &Feature{pg: pg, outDir: filepath.Join(dataDir, "exports")}
}

func (f *Feature) Key() string { return "export" }

func (f *Feature) Capabilities() feature.Capability { return feature.CapNavigate }

func (f *Feature) Init(ctx context.Context, cfg feature.Config) error {
	return os.MkdirAll(f.outDir, 0o755)
}

func (f *Feature) Destroy(ctx context.Context) error {
	return nil
}

func (f *Feature) OnNavigate(ctx context.Context, logicalID string) {
	f.mu.Lock()
	f.current = logicalID
	f.mu.Unlock()
}

// Export writes the current conversation as Markdown and returns the file
// path. Message roles become section headings.
func (f *Feature) Export(ctx context.Context) (string, error) {
	f.mu.Lock()
	id := f.current
	f.mu.Unlock()
	if id == "" {
		id = "conversation"
	}

	body, err := f.pg.EvalString(ctx, `(() => {
		const parts = [];
		document.querySelectorAll("[data-message-author-role]").forEach((msg) => {
			const role = msg.getAttribute("data-message-author-role");
			parts.push("## " + role + "\n\n" + msg.textContent.trim());
		});
		return parts.join("\n\n");
	})()`)
	if err != nil {
		return "", fmt.Errorf("failed to collect conversation text: %w", err)
	}
	if body == "" {
		return "", errors.New("nothing to export")
	}

	name := fmt.Sprintf("%s-%s.md", id, time.Now().Format("20060102-150405"))
	path := filepath.Join(f.outDir, name)
	if err := os.WriteFile(path, []byte(body+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

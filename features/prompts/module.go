package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
	"gopkg.in/yaml.v3"
)

const paletteID = "chatgear-prompts"

// Prompt is one reusable prompt from the user's library file.
type Prompt struct {
	Name string   `yaml:"name"`
	Text string   `yaml:"text"`
	Tags []string `yaml:"tags,omitempty"`
}

// Feature injects a prompt palette fed from a YAML library file: clicking
// an entry pastes its text into the chat input.
type Feature struct {
	feature.Base
	pg      page.Page
	path    string
	library []Prompt
}

// New creates the prompts feature reading its library from path.
func New(pg page.Page, path string) *Feature {
	return &Feature{pg: pg, path: path}
}

func (f *Feature) Key() string { return "prompts" }

func (f *Feature) Capabilities() feature.Capability { return 0 }

func (f *Feature) Init(ctx context.Context, cfg feature.Config) error {
	if err := f.loadLibrary(); err != nil {
		return fmt.Errorf("failed to load prompt library: %w", err)
	}

	entries, err := json.Marshal(f.library)
	if err != nil {
		return fmt.Errorf("failed to encode prompt library: %w", err)
	}
	js := fmt.Sprintf(`(() => {
		if (document.getElementById(%q)) { return; }
		const palette = document.createElement("div");
		palette.id = %q;
		palette.style.cssText = "position:fixed;left:8px;top:20%%;z-index:9999;display:flex;flex-direction:column;gap:4px;font-size:12px;";
		for (const p of %s) {
			const btn = document.createElement("button");
			btn.textContent = p.Name;
			btn.onclick = () => {
				const input = document.querySelector("#prompt-textarea");
				if (input) { input.value = p.Text; input.dispatchEvent(new Event("input", {bubbles: true})); }
			};
			palette.appendChild(btn);
		}
		document.body.appendChild(palette);
	})()`, paletteID, paletteID, entries)
	if err := f.pg.Eval(ctx, js); err != nil {
		return fmt.Errorf("failed to inject prompt palette: %w", err)
	}
	return nil
}

func (f *Feature) Destroy(ctx context.Context) error {
	js := fmt.Sprintf(`document.getElementById(%q)?.remove()`, paletteID)
	if err := f.pg.Eval(ctx, js); err != nil {
		return fmt.Errorf("failed to remove prompt palette: %w", err)
	}
	return nil
}

// Library returns the loaded prompts.
func (f *Feature) Library() []Prompt {
	return append([]Prompt{}, f.library...)
}

// loadLibrary reads the YAML library; a missing file is an empty library,
// not an error.
func (f *Feature) loadLibrary() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.library = nil
		return nil
	}
	if err != nil {
		return err
	}
	var lib []Prompt
	if err := yaml.Unmarshal(raw, &lib); err != nil {
		return err
	}
	f.library = lib
	return nil
}

package width

import (
	"context"
	"fmt"

	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
)

const styleID = "chatgear-width"

// Feature widens the chat column to the user's preferred width by
// injecting a style element, removed again on destroy.
type Feature struct {
	feature.Base
	pg page.Page
}

// New creates the width feature.
func New(pg page.Page) *Feature {
	return &Feature{pg: pg}
}

func (f *Feature) Key() string { return "width" }

func (f *Feature) Capabilities() feature.Capability { return 0 }

func (f *Feature) Init(ctx context.Context, cfg feature.Config) error {
	width := "100%"
	if cfg.DisplayWidth > 0 {
		width = fmt.Sprintf("%dpx", cfg.DisplayWidth)
	}
	js := fmt.Sprintf(`(() => {
		let style = document.getElementById(%q);
		if (!style) {
			style = document.createElement("style");
			style.id = %q;
			document.head.appendChild(style);
		}
		style.textContent = "main .mx-auto { max-width: %s !important; }";
	})()`, styleID, styleID, width)
	if err := f.pg.Eval(ctx, js); err != nil {
		return fmt.Errorf("failed to apply width override: %w", err)
	}
	return nil
}

func (f *Feature) Destroy(ctx context.Context) error {
	js := fmt.Sprintf(`document.getElementById(%q)?.remove()`, styleID)
	if err := f.pg.Eval(ctx, js); err != nil {
		return fmt.Errorf("failed to remove width override: %w", err)
	}
	return nil
}

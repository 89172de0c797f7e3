package formula

import (
	"context"
	"fmt"

	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
)

const markerAttr = "data-chatgear-formula"

// Feature makes rendered formulas copyable: clicking one puts its source
// text on the clipboard. Handlers are re-bound after every mutation burst
// since the host re-renders formulas freely; binding is idempotent via a
// marker attribute.
type Feature struct {
	feature.Base
	pg page.Page
}

// New creates the formula-copy feature.
func New(pg page.Page) *Feature {
	return &Feature{pg: pg}
}

func (f *Feature) Key() string { return "formula" }

func (f *Feature) Capabilities() feature.Capability { return feature.CapMessagesChanged }

func (f *Feature) Init(ctx context.Context, cfg feature.Config) error {
	return nil
}

func (f *Feature) Destroy(ctx context.Context) error {
	js := fmt.Sprintf(`document.querySelectorAll("[%s]").forEach((el) => {
		el.removeAttribute(%q);
		el.style.cursor = "";
		el.onclick = null;
	})`, markerAttr, markerAttr)
	if err := f.pg.Eval(ctx, js); err != nil {
		return fmt.Errorf("failed to unbind formula handlers: %w", err)
	}
	return nil
}

func (f *Feature) OnMessagesChanged(ctx context.Context, c page.Container) {
	js := fmt.Sprintf(`(() => {
		const list = document.querySelector(%q);
		if (!list) { return; }
		list.querySelectorAll(".katex").forEach((el) => {
			if (el.hasAttribute(%q)) { return; }
			el.setAttribute(%q, "1");
			el.style.cursor = "copy";
			el.onclick = () => {
				const src = el.querySelector("annotation")?.textContent || el.textContent;
				navigator.clipboard.writeText(src);
			};
		});
	})()`, c.Selector, markerAttr, markerAttr)
	if err := f.pg.Eval(ctx, js); err != nil {
		ctxlog.FromContext(ctx).Warn("Formula handler rebind failed.", "error", err)
	}
}

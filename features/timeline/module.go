package timeline

import (
	"context"
	"fmt"

	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
)

// railID is the DOM id of the injected navigation rail.
const railID = "chatgear-timeline"

// Feature renders a message-anchor rail along the chat column: one marker
// per message, click scrolls the message into view. Markers are rebuilt on
// every messages-changed burst and cleared on navigation.
type Feature struct {
	feature.Base
	pg page.Page
}

// New creates the timeline feature.
func New(pg page.Page) *Feature {
	return &Feature{pg: pg}
}

func (f *Feature) Key() string { return "timeline" }

func (f *Feature) Capabilities() feature.Capability {
	return feature.CapNavigate | feature.CapMessagesChanged
}

func (f *Feature) Init(ctx context.Context, cfg feature.Config) error {
	js := fmt.Sprintf(`(() => {
		if (document.getElementById(%q)) { return; }
		const rail = document.createElement("nav");
		rail.id = %q;
		rail.style.cssText = "position:fixed;right:8px;top:20%%;z-index:9999;display:flex;flex-direction:column;gap:6px;";
		document.body.appendChild(rail);
	})()`, railID, railID)
	if err := f.pg.Eval(ctx, js); err != nil {
		return fmt.Errorf("failed to inject timeline rail: %w", err)
	}
	return nil
}

func (f *Feature) Destroy(ctx context.Context) error {
	js := fmt.Sprintf(`document.getElementById(%q)?.remove()`, railID)
	if err := f.pg.Eval(ctx, js); err != nil {
		return fmt.Errorf("failed to remove timeline rail: %w", err)
	}
	return nil
}

// OnMessagesChanged rebuilds one marker per message in the container.
func (f *Feature) OnMessagesChanged(ctx context.Context, c page.Container) {
	js := fmt.Sprintf(`(() => {
		const rail = document.getElementById(%q);
		const list = document.querySelector(%q);
		if (!rail || !list) { return; }
		rail.replaceChildren();
		list.querySelectorAll("[data-message-id]").forEach((msg) => {
			const dot = document.createElement("button");
			dot.style.cssText = "width:8px;height:8px;border-radius:50%%;border:none;background:#999;cursor:pointer;";
			dot.onclick = () => msg.scrollIntoView({behavior: "smooth", block: "center"});
			rail.appendChild(dot);
		});
	})()`, railID, c.Selector)
	if err := f.pg.Eval(ctx, js); err != nil {
		ctxlog.FromContext(ctx).Warn("Timeline rebuild failed.", "error", err)
	}
}

// OnNavigate clears the rail; the next messages-changed burst refills it.
func (f *Feature) OnNavigate(ctx context.Context, logicalID string) {
	js := fmt.Sprintf(`document.getElementById(%q)?.replaceChildren()`, railID)
	if err := f.pg.Eval(ctx, js); err != nil {
		ctxlog.FromContext(ctx).Warn("Timeline reset failed.", "error", err)
	}
}

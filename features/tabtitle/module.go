package tabtitle

import (
	"context"
	"fmt"

	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
)

// defaultTitle is restored on navigation and destroy.
const defaultTitle = "Chat"

// Feature keeps the browser tab title in sync with the conversation: the
// first user message becomes the title, trimmed to a sane length.
type Feature struct {
	feature.Base
	pg page.Page
}

// New creates the tab-title feature.
func New(pg page.Page) *Feature {
	return &Feature{pg: pg}
}

func (f *Feature) Key() string { return "tabtitle" }

func (f *Feature) Capabilities() feature.Capability {
	return feature.CapNavigate | feature.CapMessagesChanged
}

func (f *Feature) Init(ctx context.Context, cfg feature.Config) error {
	return nil
}

func (f *Feature) Destroy(ctx context.Context) error {
	return f.setTitle(ctx, defaultTitle)
}

func (f *Feature) OnMessagesChanged(ctx context.Context, c page.Container) {
	js := fmt.Sprintf(`(() => {
		const first = document.querySelector(%q)?.querySelector('[data-message-author-role="user"]');
		return first ? first.textContent.trim().slice(0, 60) : "";
	})()`, c.Selector)
	title, err := f.pg.EvalString(ctx, js)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Tab title probe failed.", "error", err)
		return
	}
	if title == "" {
		return
	}
	if err := f.setTitle(ctx, title); err != nil {
		ctxlog.FromContext(ctx).Warn("Tab title update failed.", "error", err)
	}
}

// OnNavigate resets the title until the new conversation renders.
func (f *Feature) OnNavigate(ctx context.Context, logicalID string) {
	if err := f.setTitle(ctx, defaultTitle); err != nil {
		ctxlog.FromContext(ctx).Warn("Tab title reset failed.", "error", err)
	}
}

func (f *Feature) setTitle(ctx context.Context, title string) error {
	return f.pg.Eval(ctx, fmt.Sprintf("document.title = %q", title))
}

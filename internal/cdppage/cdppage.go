package cdppage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/vk/chatgear/internal/ctxlog"
)

// bindingName is the CDP binding injected scripts call to reach us.
const bindingName = "__chatgearNotify"

// notice is the payload injected scripts send through the binding.
type notice struct {
	Kind  string `json:"kind"`
	Token string `json:"token,omitempty"`
}

// Page is the DevTools-backed implementation of page.Page. It attaches to
// a running Chrome over CDP, injects small scripts for the history hook
// and mutation observers, and receives their notifications through a
// runtime binding.
type Page struct {
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	mu          sync.Mutex
	historyFns  []func()
	navFns      []func()
	mutationFns map[string]func()
}

// Attach connects to the Chrome instance at cdpURL and takes over its
// current tab.
func Attach(ctx context.Context, cdpURL string) (*Page, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Attaching to browser.", "cdp_url", cdpURL)

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, cdpURL)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	p := &Page{
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		mutationFns: make(map[string]func()),
	}

	if err := chromedp.Run(tabCtx, runtime.AddBinding(bindingName)); err != nil {
		p.Detach()
		return nil, fmt.Errorf("failed to install page binding: %w", err)
	}

	chromedp.ListenTarget(tabCtx, func(ev any) {
		if bc, ok := ev.(*runtime.EventBindingCalled); ok && bc.Name == bindingName {
			p.dispatch(ctx, bc.Payload)
		}
	})

	logger.Debug("Browser attached.")
	return p, nil
}

// Detach releases the tab and the CDP connection.
func (p *Page) Detach() {
	p.cancelTab()
	p.cancelAlloc()
}

func (p *Page) Location(ctx context.Context) (string, error) {
	var path string
	if err := chromedp.Run(p.tabCtx, chromedp.Evaluate("location.pathname + location.search + location.hash", &path)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return path, nil
}

func (p *Page) Eval(ctx context.Context, js string) error {
	return chromedp.Run(p.tabCtx, chromedp.Evaluate(js, nil))
}

func (p *Page) EvalString(ctx context.Context, js string) (string, error) {
	var out string
	if err := chromedp.Run(p.tabCtx, chromedp.Evaluate(js, &out)); err != nil {
		return "", err
	}
	return out, nil
}

func (p *Page) ContainerPresent(ctx context.Context, selector string) (bool, error) {
	var present bool
	js := fmt.Sprintf("!!document.querySelector(%q)", selector)
	if err := chromedp.Run(p.tabCtx, chromedp.Evaluate(js, &present)); err != nil {
		return false, err
	}
	return present, nil
}

func (p *Page) InstallHistoryHook(ctx context.Context, fn func()) error {
	js := fmt.Sprintf(`(() => {
		if (window.__chatgearHooked) { return true; }
		const notify = () => window.%s(JSON.stringify({kind: "history"}));
		for (const m of ["pushState", "replaceState"]) {
			const orig = history[m].bind(history);
			history[m] = function(...args) {
				const r = orig(...args);
				Promise.resolve().then(notify);
				return r;
			};
		}
		window.__chatgearHooked = true;
		return true;
	})()`, bindingName)

	var ok bool
	if err := chromedp.Run(p.tabCtx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("history hook rejected by page: %w", err)
	}
	p.mu.Lock()
	p.historyFns = append(p.historyFns, fn)
	p.mu.Unlock()
	return nil
}

func (p *Page) ListenNavigationEvents(ctx context.Context, fn func()) error {
	js := fmt.Sprintf(`(() => {
		if (window.__chatgearNavEvents) { return true; }
		const notify = () => window.%s(JSON.stringify({kind: "navevent"}));
		window.addEventListener("popstate", notify);
		window.addEventListener("hashchange", notify);
		window.__chatgearNavEvents = true;
		return true;
	})()`, bindingName)

	var ok bool
	if err := chromedp.Run(p.tabCtx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("navigation listeners rejected by page: %w", err)
	}
	p.mu.Lock()
	p.navFns = append(p.navFns, fn)
	p.mu.Unlock()
	return nil
}

func (p *Page) ObserveMutations(ctx context.Context, selector string, fn func()) (func(), error) {
	token := uuid.NewString()
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) { return false; }
		window.__chatgearObs = window.__chatgearObs || {};
		const obs = new MutationObserver(() =>
			window.%s(JSON.stringify({kind: "mutation", token: %q})));
		obs.observe(el, {childList: true, subtree: true, characterData: true});
		window.__chatgearObs[%q] = obs;
		return true;
	})()`, selector, bindingName, token, token)

	var attached bool
	if err := chromedp.Run(p.tabCtx, chromedp.Evaluate(js, &attached)); err != nil {
		return nil, fmt.Errorf("failed to attach mutation observer: %w", err)
	}
	if !attached {
		return nil, fmt.Errorf("no element matches selector %q", selector)
	}

	p.mu.Lock()
	p.mutationFns[token] = fn
	p.mu.Unlock()

	stop := func() {
		p.mu.Lock()
		delete(p.mutationFns, token)
		p.mu.Unlock()
		detach := fmt.Sprintf(`(() => {
			const obs = (window.__chatgearObs || {})[%q];
			if (obs) { obs.disconnect(); delete window.__chatgearObs[%q]; }
		})()`, token, token)
		// Best effort; the observer dies with the page anyway.
		_ = chromedp.Run(p.tabCtx, chromedp.Evaluate(detach, nil))
	}
	return stop, nil
}

// dispatch routes one binding notification to the registered callbacks.
func (p *Page) dispatch(ctx context.Context, payload string) {
	var n notice
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		ctxlog.FromContext(ctx).Warn("Discarding malformed page notification.", "payload", payload)
		return
	}

	p.mu.Lock()
	var fns []func()
	switch n.Kind {
	case "history":
		fns = append(fns, p.historyFns...)
	case "navevent":
		fns = append(fns, p.navFns...)
	case "mutation":
		if fn, ok := p.mutationFns[n.Token]; ok {
			fns = append(fns, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

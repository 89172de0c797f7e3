package pagetest

import (
	"context"
	"sync"
)

// FakePage is a scriptable, in-memory implementation of page.Page. Tests
// drive it directly: set the location, toggle container presence, fire
// synthetic history events and mutation bursts. All methods are safe for
// concurrent use.
type FakePage struct {
	mu sync.Mutex

	location string
	present  map[string]bool

	// HookErr, when set, makes InstallHistoryHook fail, simulating a page
	// that locks history down.
	HookErr error

	// StringResult is returned by EvalString.
	StringResult string

	historyFns []func()
	navFns     []func()
	watches    []*fakeWatch

	evals         []string
	probes        map[string]int
	hookInstalled bool
}

type fakeWatch struct {
	selector string
	fn       func()
	stopped  bool
}

// New creates an empty fake page at path "/".
func New() *FakePage {
	return &FakePage{
		location: "/",
		present:  make(map[string]bool),
		probes:   make(map[string]int),
	}
}

// --- page.Page implementation ---

func (p *FakePage) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location, nil
}

func (p *FakePage) Eval(ctx context.Context, js string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evals = append(p.evals, js)
	return nil
}

func (p *FakePage) EvalString(ctx context.Context, js string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evals = append(p.evals, js)
	return p.StringResult, nil
}

func (p *FakePage) ContainerPresent(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes[selector]++
	return p.present[selector], nil
}

func (p *FakePage) InstallHistoryHook(ctx context.Context, fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.HookErr != nil {
		return p.HookErr
	}
	p.hookInstalled = true
	p.historyFns = append(p.historyFns, fn)
	return nil
}

func (p *FakePage) ListenNavigationEvents(ctx context.Context, fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navFns = append(p.navFns, fn)
	return nil
}

func (p *FakePage) ObserveMutations(ctx context.Context, selector string, fn func()) (func(), error) {
	w := &fakeWatch{selector: selector, fn: fn}
	p.mu.Lock()
	p.watches = append(p.watches, w)
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		w.stopped = true
		p.mu.Unlock()
	}, nil
}

// --- test controls ---

// SetLocation changes the current path without notifying any source, like
// a history.pushState the hook missed.
func (p *FakePage) SetLocation(path string) {
	p.mu.Lock()
	p.location = path
	p.mu.Unlock()
}

// Navigate changes the path and fires the history hook, like an
// intercepted pushState.
func (p *FakePage) Navigate(path string) {
	p.SetLocation(path)
	p.FireHistory()
}

// SetContainer toggles presence of a selector.
func (p *FakePage) SetContainer(selector string, present bool) {
	p.mu.Lock()
	p.present[selector] = present
	p.mu.Unlock()
}

// ReplaceContainer simulates the host swapping the container subtree out:
// presence stays but every attached observer is detached, exactly like a
// MutationObserver whose target left the document.
func (p *FakePage) ReplaceContainer(selector string) {
	p.mu.Lock()
	for _, w := range p.watches {
		if w.selector == selector {
			w.stopped = true
		}
	}
	p.present[selector] = true
	p.mu.Unlock()
}

// Mutate fires every live observer attached to the selector once.
func (p *FakePage) Mutate(selector string) {
	p.mu.Lock()
	var fns []func()
	for _, w := range p.watches {
		if w.selector == selector && !w.stopped {
			fns = append(fns, w.fn)
		}
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// FireHistory invokes every installed history hook callback.
func (p *FakePage) FireHistory() {
	p.mu.Lock()
	fns := append([]func(){}, p.historyFns...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// FireNavEvent invokes every popstate/hashchange listener.
func (p *FakePage) FireNavEvent() {
	p.mu.Lock()
	fns := append([]func(){}, p.navFns...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Probes reports how many times ContainerPresent ran for a selector.
func (p *FakePage) Probes(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes[selector]
}

// Evals returns every script evaluated so far.
func (p *FakePage) Evals() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.evals...)
}

// LiveWatches counts observers not yet stopped for a selector.
func (p *FakePage) LiveWatches(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, w := range p.watches {
		if w.selector == selector && !w.stopped {
			n++
		}
	}
	return n
}

// HookInstalled reports whether the history hook was installed.
func (p *FakePage) HookInstalled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hookInstalled
}

package domwatch

import (
	"context"
	"sync"
	"time"

	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/lifecycle"
	"github.com/vk/chatgear/internal/page"
)

// Options tunes a Watcher.
type Options struct {
	// Selector locates the host page's primary message-list container.
	Selector string

	// BaseDelay is the first retry delay; it doubles per attempt up to
	// MaxDelay. MaxAttempts bounds the total number of location attempts.
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	// Debounce is the quiet period that coalesces a burst of mutations
	// into a single notification.
	Debounce time.Duration

	// OnFound, if set, runs on every transition to StateFound. The app
	// uses the first one to trigger the initial settings reconcile.
	OnFound func()
}

// messagesWatch is the logical name of the watcher's own container watch.
const messagesWatch = "messages"

// Watcher locates the message-list container with bounded exponential
// backoff and, once found, keeps a debounced mutation watch on it that
// feeds OnMessagesChanged to active features.
//
// Watches are registered under logical names; at most one live watch per
// name exists at any time.
type Watcher struct {
	pg  page.Page
	act *lifecycle.Activator
	opt Options

	mu       sync.Mutex
	state    State
	attempt  int
	gen      int // bumped on rearm/stop to invalidate pending timers
	retry    *time.Timer
	debounce *time.Timer
	watches  map[string]func()
}

// New creates a Watcher. Missing options get working defaults.
func New(pg page.Page, act *lifecycle.Activator, opt Options) *Watcher {
	if opt.BaseDelay <= 0 {
		opt.BaseDelay = 200 * time.Millisecond
	}
	if opt.MaxDelay <= 0 {
		opt.MaxDelay = 5 * time.Second
	}
	if opt.MaxAttempts <= 0 {
		opt.MaxAttempts = 30
	}
	if opt.Debounce <= 0 {
		opt.Debounce = 150 * time.Millisecond
	}
	return &Watcher{
		pg:      pg,
		act:     act,
		opt:     opt,
		watches: make(map[string]func()),
	}
}

// Start begins container acquisition. A no-op unless the watcher is idle.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.state != StateIdle {
		w.mu.Unlock()
		return
	}
	w.state = StateWaiting
	w.attempt = 0
	gen := w.gen
	w.mu.Unlock()

	w.locate(ctx, gen)
}

// Rearm tears down the container watch and restarts acquisition from
// scratch. Called after navigation, when the host page has swapped the
// container out; also the only way out of StateGaveUp.
func (w *Watcher) Rearm(ctx context.Context) {
	w.mu.Lock()
	w.gen++
	w.state = StateIdle
	w.attempt = 0
	w.cancelTimersLocked()
	stop := w.watches[messagesWatch]
	delete(w.watches, messagesWatch)
	w.mu.Unlock()

	if stop != nil {
		stop()
	}
	ctxlog.FromContext(ctx).Debug("Content watch re-armed.")
	w.Start(ctx)
}

// Stop tears down every watch and timer.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.gen++
	w.state = StateIdle
	w.cancelTimersLocked()
	stops := make([]func(), 0, len(w.watches))
	for _, stop := range w.watches {
		stops = append(stops, stop)
	}
	w.watches = make(map[string]func())
	w.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// State returns the current acquisition state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Attempts returns how many location attempts have been made since the
// last (re)start.
func (w *Watcher) Attempts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempt
}

// Watch installs a debounce-free mutation watch under a logical name,
// first tearing down any previous watch registered under that name.
func (w *Watcher) Watch(ctx context.Context, name, selector string, fn func()) error {
	stop, err := w.pg.ObserveMutations(ctx, selector, fn)
	if err != nil {
		return err
	}

	w.mu.Lock()
	old := w.watches[name]
	w.watches[name] = stop
	w.mu.Unlock()

	if old != nil {
		ctxlog.FromContext(ctx).Debug("Replacing existing watch.", "name", name)
		old()
	}
	return nil
}

// Unwatch tears down the watch registered under name, if any.
func (w *Watcher) Unwatch(name string) {
	w.mu.Lock()
	stop := w.watches[name]
	delete(w.watches, name)
	w.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// locate performs one location attempt and schedules the next one on
// failure. gen guards against timers that outlive a rearm or stop.
func (w *Watcher) locate(ctx context.Context, gen int) {
	logger := ctxlog.FromContext(ctx)

	w.mu.Lock()
	if gen != w.gen || w.state != StateWaiting {
		w.mu.Unlock()
		return
	}
	w.attempt++
	attempt := w.attempt
	w.mu.Unlock()

	present, err := w.pg.ContainerPresent(ctx, w.opt.Selector)
	if err != nil {
		logger.Debug("Container probe failed.", "attempt", attempt, "error", err)
		present = false
	}

	if present {
		w.mu.Lock()
		if gen != w.gen {
			w.mu.Unlock()
			return
		}
		w.state = StateFound
		w.mu.Unlock()

		logger.Debug("Content container found.", "selector", w.opt.Selector, "attempt", attempt)
		if err := w.Watch(ctx, messagesWatch, w.opt.Selector, func() { w.onMutation(ctx, gen) }); err != nil {
			logger.Error("Failed to install mutation watch.", "error", err)
		}
		if w.opt.OnFound != nil {
			w.opt.OnFound()
		}
		return
	}

	if attempt >= w.opt.MaxAttempts {
		w.mu.Lock()
		if gen == w.gen {
			w.state = StateGaveUp
		}
		w.mu.Unlock()
		logger.Error("Content container never appeared, giving up for this page load.",
			"selector", w.opt.Selector, "attempts", attempt)
		return
	}

	delay := backoffDelay(w.opt.BaseDelay, w.opt.MaxDelay, attempt)
	logger.Debug("Container absent, retrying.", "attempt", attempt, "delay", delay)

	w.mu.Lock()
	if gen == w.gen {
		w.retry = time.AfterFunc(delay, func() { w.locate(ctx, gen) })
	}
	w.mu.Unlock()
}

// onMutation coalesces a burst of mutations into one notification after
// the quiet period, then fans out to active features.
func (w *Watcher) onMutation(ctx context.Context, gen int) {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return
	}
	if w.debounce != nil {
		w.debounce.Reset(w.opt.Debounce)
		w.mu.Unlock()
		return
	}
	w.debounce = time.AfterFunc(w.opt.Debounce, func() {
		w.mu.Lock()
		if gen != w.gen {
			w.mu.Unlock()
			return
		}
		w.debounce = nil
		w.mu.Unlock()
		w.act.EachMessagesChanged(ctx, page.Container{Page: w.pg, Selector: w.opt.Selector})
	})
	w.mu.Unlock()
}

func (w *Watcher) cancelTimersLocked() {
	if w.retry != nil {
		w.retry.Stop()
		w.retry = nil
	}
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
}

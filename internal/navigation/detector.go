package navigation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/lifecycle"
	"github.com/vk/chatgear/internal/page"
)

// Options tunes a Detector.
type Options struct {
	// ConversationPrefix is the path prefix a logical id follows, e.g.
	// "/c/". Paths without it yield an empty logical id.
	ConversationPrefix string

	// SettleDelay is how long to wait after a detected navigation before
	// re-arming the content watch; the host page swaps its container out
	// shortly after routing.
	SettleDelay time.Duration

	// PollInterval drives the polling safety net; <= 0 disables it.
	PollInterval time.Duration

	// Sources overrides the standard strategies. Tests use this to inject
	// synthetic navigation without touching real history.
	Sources []Source

	// Rearm is called after the settle delay following any detected
	// navigation, to re-establish the content container watch.
	Rearm func()
}

// Detector watches the host page's client-side routing and raises
// navigation events to all active features. All sources converge on the
// idempotent Check; the cursor is written only here and lives for the
// whole page context.
type Detector struct {
	pg  page.Page
	act *lifecycle.Activator
	opt Options

	mu     sync.Mutex
	cursor string
	stops  []func()
}

// New creates a Detector. Missing options get working defaults.
func New(pg page.Page, act *lifecycle.Activator, opt Options) *Detector {
	if opt.ConversationPrefix == "" {
		opt.ConversationPrefix = "/c/"
	}
	if opt.SettleDelay <= 0 {
		opt.SettleDelay = 500 * time.Millisecond
	}
	if opt.Sources == nil {
		opt.Sources = DefaultSources(pg, opt.PollInterval)
	}
	return &Detector{pg: pg, act: act, opt: opt}
}

// Start primes the cursor with the current path and starts every source.
// A source that fails to start is logged as a warning and skipped; the
// remaining sources carry the detection. Only a total failure of all
// sources is an error.
func (d *Detector) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if path, err := d.pg.Location(ctx); err == nil {
		d.mu.Lock()
		d.cursor = path
		d.mu.Unlock()
	} else {
		logger.Warn("Could not read initial location.", "error", err)
	}

	started := 0
	for _, src := range d.opt.Sources {
		stop, err := src.Start(ctx, func() { d.Check(ctx) })
		if err != nil {
			logger.Warn("Navigation source failed to start, continuing without it.", "source", src.Name(), "error", err)
			continue
		}
		d.mu.Lock()
		d.stops = append(d.stops, stop)
		d.mu.Unlock()
		started++
		logger.Debug("Navigation source started.", "source", src.Name())
	}
	if started == 0 {
		logger.Error("No navigation source could be started; route changes will go undetected.")
	}
	return nil
}

// Stop tears down every running source.
func (d *Detector) Stop() {
	d.mu.Lock()
	stops := d.stops
	d.stops = nil
	d.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
}

// Check compares the current path against the cursor. Unchanged paths are
// a no-op, so the three overlapping sources can all call it freely. On a
// change it updates the cursor, notifies active features with the new
// logical id, and schedules the content watch re-arm after the settle
// delay.
func (d *Detector) Check(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	path, err := d.pg.Location(ctx)
	if err != nil {
		logger.Warn("Failed to read location during navigation check.", "error", err)
		return
	}

	d.mu.Lock()
	if path == d.cursor {
		d.mu.Unlock()
		return
	}
	prev := d.cursor
	d.cursor = path
	d.mu.Unlock()

	logicalID := LogicalID(path, d.opt.ConversationPrefix)
	logger.Debug("Navigation detected.", "from", prev, "to", path, "logical_id", logicalID)

	d.act.EachNavigate(ctx, logicalID)

	if d.opt.Rearm != nil {
		time.AfterFunc(d.opt.SettleDelay, d.opt.Rearm)
	}
}

// Cursor returns the last observed path.
func (d *Detector) Cursor() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// LogicalID extracts the conversation identifier from a path: the segment
// following prefix, or "" when the path carries none.
func LogicalID(path, prefix string) string {
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok || rest == "" {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

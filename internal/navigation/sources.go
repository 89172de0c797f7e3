package navigation

import (
	"context"
	"time"

	"github.com/vk/chatgear/internal/page"
)

// Source is one strategy for learning that the page may have navigated.
// Start begins delivering notify callbacks until the returned stop
// function is called. Sources only signal "something may have changed";
// the detector's Check decides whether a navigation actually happened.
type Source interface {
	Name() string
	Start(ctx context.Context, notify func()) (stop func(), err error)
}

// historyHookSource intercepts the page's history push/replace calls.
// Installation can fail when the page locks the history object down; the
// detector degrades to the remaining sources with a warning.
type historyHookSource struct {
	pg page.Page
}

func (s *historyHookSource) Name() string { return "history-hook" }

func (s *historyHookSource) Start(ctx context.Context, notify func()) (func(), error) {
	if err := s.pg.InstallHistoryHook(ctx, notify); err != nil {
		return nil, err
	}
	// The hook lives in the page; nothing to tear down on our side.
	return func() {}, nil
}

// eventSource listens for the browser's back/forward and hash-change
// events.
type eventSource struct {
	pg page.Page
}

func (s *eventSource) Name() string { return "browser-events" }

func (s *eventSource) Start(ctx context.Context, notify func()) (func(), error) {
	if err := s.pg.ListenNavigationEvents(ctx, notify); err != nil {
		return nil, err
	}
	return func() {}, nil
}

// pollSource is the low-frequency safety net for when the hook is bypassed
// or overwritten by other page scripts.
type pollSource struct {
	interval time.Duration
}

func (s *pollSource) Name() string { return "polling" }

func (s *pollSource) Start(ctx context.Context, notify func()) (func(), error) {
	ticker := time.NewTicker(s.interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				notify()
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}, nil
}

// DefaultSources builds the three standard strategies for a page. The
// polling safety net is kept even when the hook installs cleanly;
// pollInterval <= 0 disables it.
func DefaultSources(pg page.Page, pollInterval time.Duration) []Source {
	sources := []Source{
		&historyHookSource{pg: pg},
		&eventSource{pg: pg},
	}
	if pollInterval > 0 {
		sources = append(sources, &pollSource{interval: pollInterval})
	}
	return sources
}

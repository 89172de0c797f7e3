package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/chatgear/internal/ctxlog"
)

// Local is an in-memory bus endpoint. Two endpoints created as a pair
// relay to each other; a single endpoint with no peer behaves like an
// unreachable counterpart. Used in tests and single-process runs where
// page, coordinator and settings UI share one binary.
type Local struct {
	mu       sync.Mutex
	handlers map[Type]Handler
	peer     *Local
}

// NewLocalPair creates two connected endpoints: sends on one dispatch to
// handlers registered on the other.
func NewLocalPair() (*Local, *Local) {
	a := &Local{handlers: make(map[Type]Handler)}
	b := &Local{handlers: make(map[Type]Handler)}
	a.peer = b
	b.peer = a
	return a, b
}

// NewLoopback creates a single endpoint whose sends dispatch to its own
// handlers. Useful when all contexts live in one process.
func NewLoopback() *Local {
	l := &Local{handlers: make(map[Type]Handler)}
	l.peer = l
	return l
}

// On registers the handler for a message type; the last registration wins.
func (l *Local) On(t Type, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[t] = h
}

// Send delivers the request to the peer endpoint's handler. A missing peer
// or unhandled type is an unreachable-counterpart error; a panicking
// handler produces a failure response instead of propagating.
func (l *Local) Send(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	l.mu.Lock()
	peer := l.peer
	l.mu.Unlock()
	if peer == nil {
		return Response{}, fmt.Errorf("no counterpart connected for message %s", req.Type)
	}

	peer.mu.Lock()
	h := peer.handlers[req.Type]
	peer.mu.Unlock()
	if h == nil {
		return Response{}, fmt.Errorf("counterpart has no handler for message %s", req.Type)
	}

	return invoke(ctx, h, req), nil
}

// invoke runs a handler with panic isolation.
func invoke(ctx context.Context, h Handler, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Message handler panicked.", "type", req.Type, "panic", r)
			resp = Fail(req, fmt.Sprintf("handler panicked: %v", r))
		}
	}()
	return h(ctx, req)
}

package bus

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// requestEvent and responseEvent are the socket.io event names the relay
// coordinator speaks.
const (
	requestEvent  = "chatgear:request"
	responseEvent = "chatgear:response"
)

// SocketIOOptions configures the relay client.
type SocketIOOptions struct {
	// URL of the relay coordinator, e.g. "http://127.0.0.1:7478/relay".
	URL string
	// Namespace defaults to "/".
	Namespace string
	// Timeout bounds connection and each request round trip. Defaults to 10s.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// SocketIO relays typed request/response messages over a socket.io
// connection to the background coordinator, which fans out to the
// settings UI.
type SocketIO struct {
	opts SocketIOOptions
	io   *socket.Socket

	mu       sync.Mutex
	handlers map[Type]Handler
	pending  map[string]chan Response
}

// DialSocketIO connects to the relay coordinator and returns a ready bus.
func DialSocketIO(ctx context.Context, opts SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("component", "bus", "url", opts.URL)

	if opts.Namespace == "" {
		opts.Namespace = "/"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse relay URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	sockOpts := socket.DefaultOptions()
	sockOpts.SetPath(parsedURL.Path)
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification for relay connection")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(opts.Namespace, sockOpts)

	b := &SocketIO{
		opts:     opts,
		io:       io,
		handlers: make(map[Type]Handler),
		pending:  make(map[string]chan Response),
	}

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected to relay coordinator", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				select {
				case connected <- err:
				default:
				}
			}
		}
	})
	io.On(types.EventName(requestEvent), func(data ...any) {
		b.handleIncoming(ctx, data...)
	})
	io.On(types.EventName(responseEvent), func(data ...any) {
		b.handleResponse(ctx, data...)
	})

	io.Connect()

	dialCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("relay connection failed: %w", err)
		}
	case <-dialCtx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out connecting to relay at %s", opts.URL)
	}

	return b, nil
}

// On registers the handler for a message type; the last registration wins.
func (b *SocketIO) On(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = h
}

// Send emits the request to the counterpart and waits for the correlated
// response or the round-trip timeout.
func (b *SocketIO) Send(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	ch := make(chan Response, 1)
	b.mu.Lock()
	b.pending[req.ID] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
	}()

	raw, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}
	if err := b.io.Emit(requestEvent, string(raw)); err != nil {
		return Response{}, fmt.Errorf("failed to emit request: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()
	select {
	case resp := <-ch:
		return resp, nil
	case <-sendCtx.Done():
		return Response{}, fmt.Errorf("no response for %s within %s", req.Type, b.opts.Timeout)
	}
}

// Close disconnects from the relay.
func (b *SocketIO) Close() {
	b.io.Disconnect()
}

// handleIncoming decodes a request from the counterpart, dispatches it to
// the registered handler and emits the response back.
func (b *SocketIO) handleIncoming(ctx context.Context, data ...any) {
	logger := ctxlog.FromContext(ctx)

	req, ok := decodePayload[Request](data...)
	if !ok {
		logger.Warn("Discarding malformed relay request")
		return
	}

	b.mu.Lock()
	h := b.handlers[req.Type]
	b.mu.Unlock()

	var resp Response
	if h == nil {
		resp = Fail(req, fmt.Sprintf("no handler for message %s", req.Type))
	} else {
		resp = invoke(ctx, h, req)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		logger.Error("Failed to encode relay response", "type", req.Type, "error", err)
		return
	}
	if err := b.io.Emit(responseEvent, string(raw)); err != nil {
		logger.Error("Failed to emit relay response", "type", req.Type, "error", err)
	}
}

// handleResponse resolves the pending send waiting on the response id.
func (b *SocketIO) handleResponse(ctx context.Context, data ...any) {
	resp, ok := decodePayload[Response](data...)
	if !ok {
		ctxlog.FromContext(ctx).Warn("Discarding malformed relay response")
		return
	}

	b.mu.Lock()
	ch := b.pending[resp.ID]
	b.mu.Unlock()
	if ch != nil {
		select {
		case ch <- resp:
		default:
		}
	}
}

// decodePayload extracts a JSON-encoded value from a socket.io event
// payload, accepting either a string or raw bytes.
func decodePayload[T any](data ...any) (T, bool) {
	var out T
	if len(data) == 0 {
		return out, false
	}
	var raw []byte
	switch v := data[0].(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return out, false
		}
		raw = encoded
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}

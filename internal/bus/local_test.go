package bus_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/chatgear/internal/bus"
)

// TestLocalPair_RequestResponse validates round-trip delivery between two
// connected endpoints.
func TestLocalPair_RequestResponse(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, b := bus.NewLocalPair()
	b.On(bus.TypeGetSettings, func(ctx context.Context, req bus.Request) bus.Response {
		return bus.OK(req, map[string]bool{"timeline": true})
	})

	// --- Act ---
	resp, err := a.Send(context.Background(), bus.Request{Type: bus.TypeGetSettings})

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.ID, "an id must be assigned on send")

	var flags map[string]bool
	require.NoError(t, json.Unmarshal(resp.Data, &flags))
	require.True(t, flags["timeline"])
}

// TestLocal_ResponseCorrelation validates that the response carries the
// request's id.
func TestLocal_ResponseCorrelation(t *testing.T) {
	t.Parallel()

	a, b := bus.NewLocalPair()
	b.On(bus.TypeFeatureToggle, func(ctx context.Context, req bus.Request) bus.Response {
		return bus.OK(req, nil)
	})

	resp, err := a.Send(context.Background(), bus.Request{ID: "req-42", Type: bus.TypeFeatureToggle})
	require.NoError(t, err)
	require.Equal(t, "req-42", resp.ID)
}

// TestLocal_LastHandlerWins validates single-handler-per-type semantics.
func TestLocal_LastHandlerWins(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, b := bus.NewLocalPair()
	b.On(bus.TypeGetSettings, func(ctx context.Context, req bus.Request) bus.Response {
		return bus.Fail(req, "old handler")
	})
	b.On(bus.TypeGetSettings, func(ctx context.Context, req bus.Request) bus.Response {
		return bus.OK(req, "new handler")
	})

	// --- Act ---
	resp, err := a.Send(context.Background(), bus.Request{Type: bus.TypeGetSettings})

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, resp.Success, "only the most recent handler may run")
}

// TestLocal_UnhandledType_Unreachable validates that a type nobody
// handles surfaces as an unreachable-counterpart error.
func TestLocal_UnhandledType_Unreachable(t *testing.T) {
	t.Parallel()

	a, _ := bus.NewLocalPair()
	_, err := a.Send(context.Background(), bus.Request{Type: bus.TypeUpdateSettings})
	require.Error(t, err)
	require.Contains(t, err.Error(), "UPDATE_SETTINGS")
}

// TestLocal_HandlerPanic_BecomesFailure validates panic isolation in
// message dispatch.
func TestLocal_HandlerPanic_BecomesFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, b := bus.NewLocalPair()
	b.On(bus.TypeSettingsChanged, func(ctx context.Context, req bus.Request) bus.Response {
		panic("handler exploded")
	})

	// --- Act ---
	var resp bus.Response
	var err error
	require.NotPanics(t, func() {
		resp, err = a.Send(context.Background(), bus.Request{Type: bus.TypeSettingsChanged})
	})

	// --- Assert ---
	require.NoError(t, err, "a panicking handler is a failed response, not a transport error")
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "handler exploded")
}

// TestLoopback_DispatchesToSelf validates the single-process shortcut.
func TestLoopback_DispatchesToSelf(t *testing.T) {
	t.Parallel()

	l := bus.NewLoopback()
	l.On(bus.TypeGetSettings, func(ctx context.Context, req bus.Request) bus.Response {
		return bus.OK(req, nil)
	})

	resp, err := l.Send(context.Background(), bus.Request{Type: bus.TypeGetSettings})
	require.NoError(t, err)
	require.True(t, resp.Success)
}

// TestOK_MarshalFailure_Downgrades validates that an unencodable payload
// yields a failure response rather than a dropped reply.
func TestOK_MarshalFailure_Downgrades(t *testing.T) {
	t.Parallel()

	resp := bus.OK(bus.Request{ID: "x"}, func() {})
	require.False(t, resp.Success)
	require.Equal(t, "x", resp.ID)
	require.NotEmpty(t, resp.Error)
}

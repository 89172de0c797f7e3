package feature

import (
	"context"

	"github.com/vk/chatgear/internal/page"
)

// Capability flags declare which optional lifecycle hooks a feature
// actually implements. Dispatch is gated on these flags rather than on
// runtime presence checks.
type Capability uint8

const (
	// CapNavigate marks features that want OnNavigate calls.
	CapNavigate Capability = 1 << iota
	// CapMessagesChanged marks features that want OnMessagesChanged calls.
	CapMessagesChanged
)

// Has reports whether c includes the given flag.
func (c Capability) Has(flag Capability) bool { return c&flag != 0 }

// Config is the opaque settings payload handed to a feature on activation.
type Config struct {
	// Locale is the user's locale preference. Features treat it as opaque.
	Locale string

	// DisplayWidth is the preferred chat column width in pixels; zero
	// means the host page's default.
	DisplayWidth int

	// Options carries the per-feature option attributes from the site
	// profile, if any.
	Options map[string]any
}

// Feature is the lifecycle contract every toggleable module implements.
//
// Init and Destroy look synchronous but may kick off asynchronous work
// internally; the core never awaits their bodies. A feature owns every DOM
// node, timer and observer it creates and must release all of them in
// Destroy. A feature that starts long-running work in Init is responsible
// for checking, on completion, whether it has since been deactivated.
type Feature interface {
	// Key returns the unique identifier the feature is registered under.
	Key() string

	// Capabilities returns the optional hooks this feature implements.
	Capabilities() Capability

	Init(ctx context.Context, cfg Config) error
	Destroy(ctx context.Context) error

	// OnNavigate is called after a client-side route change with the
	// logical id extracted from the new path, or "" if the path has none.
	// Only invoked when Capabilities includes CapNavigate.
	OnNavigate(ctx context.Context, logicalID string)

	// OnMessagesChanged is called after a debounced burst of mutations in
	// the message-list container. Only invoked when Capabilities includes
	// CapMessagesChanged.
	OnMessagesChanged(ctx context.Context, c page.Container)
}

// Base provides no-op implementations of the optional hooks so features
// only spell out the ones their capability flags declare.
type Base struct{}

// OnNavigate is a no-op.
func (Base) OnNavigate(context.Context, string) {}

// OnMessagesChanged is a no-op.
func (Base) OnMessagesChanged(context.Context, page.Container) {}

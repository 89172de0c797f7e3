package page

import "context"

// Page is the bridge to the host page. The orchestration core and the
// feature modules only ever talk to the page through this interface; the
// concrete implementation is either a DevTools-backed adapter (cdppage) or
// a scriptable fake (pagetest).
type Page interface {
	// Location returns the current URL path of the page.
	Location(ctx context.Context) (string, error)

	// Eval runs a script in the page, discarding its result.
	Eval(ctx context.Context, js string) error

	// EvalString runs a script in the page and returns its string result.
	EvalString(ctx context.Context, js string) (string, error)

	// ContainerPresent reports whether an element matching the selector
	// currently exists in the page.
	ContainerPresent(ctx context.Context, selector string) (bool, error)

	// InstallHistoryHook patches the page's history push/replace calls so
	// that fn fires after every history mutation. Returns an error when the
	// page refuses the patch (e.g. the property is locked down); callers
	// fall back to other navigation sources.
	InstallHistoryHook(ctx context.Context, fn func()) error

	// ListenNavigationEvents subscribes fn to the page's back/forward and
	// hash-change events.
	ListenNavigationEvents(ctx context.Context, fn func()) error

	// ObserveMutations watches the subtree matching selector and calls fn
	// on every mutation burst. The returned stop function detaches the
	// observer; it is safe to call more than once.
	ObserveMutations(ctx context.Context, selector string, fn func()) (func(), error)
}

// Container is a handle to the page's primary message-list container,
// handed to features on messages-changed notifications.
type Container struct {
	Page     Page
	Selector string
}

// Package navigation detects the host page's client-side route changes.
//
// The page mutates browser history without dispatching a page-visible
// event, so three interchangeable strategies feed one idempotent check: a
// history-mutation hook installed into the page, the browser's
// back/forward and hash-change events, and a ~1s polling safety net kept
// on by default in case page scripts overwrite the hook.
package navigation

// Package page defines the abstraction over the host page's DOM, location
// and history. Everything the core needs from the browser goes through the
// Page interface so tests can drive the orchestrator with a fake page.
package page

// Package app composes the orchestration core: registry, activation state
// machine, settings sync, navigation detector, content watcher and relay
// handlers, wired together around one attached page.
package app

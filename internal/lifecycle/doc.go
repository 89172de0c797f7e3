// Package lifecycle implements the activation state machine for feature
// modules: idempotent activate/deactivate transitions, crash isolation
// around every feature entry point, and capability-gated dispatch of the
// optional lifecycle hooks.
//
// Isolation is the primary design invariant. A failure in one feature
// never propagates to crash the page or disable unrelated features.
package lifecycle

// Package settings holds the persisted configuration snapshot, its JSON
// file store, and the sync logic that reconciles a snapshot against the
// activation state machine.
package settings

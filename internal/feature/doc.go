// Package feature defines the contract between the orchestration core and
// the individual feature modules: the lifecycle interface, the tagged
// capability flags for the optional hooks, and the opaque activation
// payload.
package feature

// Package registry provides the capability registry: the mapping from
// feature key to feature module implementation.
//
// The registry is pure storage. It never calls into a feature's lifecycle;
// that is the job of the activator. Exactly one feature may be registered
// per key, and re-registration overwrites silently.
package registry

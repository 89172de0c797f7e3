// Package domwatch waits for the host page's primary content container
// and keeps a debounced mutation watch on it.
//
// The client-rendered host may not have the container at attach time and
// replaces it wholesale after navigation, so acquisition runs as an
// explicit retry state machine (idle, waiting, found, gave-up) with
// exponential backoff bounded by an attempt ceiling. Giving up is a
// reported, non-fatal condition; a navigation re-arm starts over.
package domwatch

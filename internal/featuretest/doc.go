// Package featuretest provides a scriptable stub feature for tests of the
// orchestration core.
package featuretest

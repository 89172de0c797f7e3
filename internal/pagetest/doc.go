// Package pagetest provides a scriptable fake of the page bridge so the
// orchestration core can be tested without a browser.
package pagetest

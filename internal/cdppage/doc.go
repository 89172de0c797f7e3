// Package cdppage implements the page bridge over the Chrome DevTools
// Protocol: location reads, script evaluation, the history hook and
// MutationObserver installation all go through an attached tab, with
// notifications flowing back over a runtime binding.
package cdppage

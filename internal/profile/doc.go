// Package profile loads the static per-site tuning from HCL: selectors,
// route shape, detection timing, feature defaults and opaque per-feature
// options.
package profile

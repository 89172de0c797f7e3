// Package cli turns command-line arguments and environment variables into
// a validated app configuration.
package cli

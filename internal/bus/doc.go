// Package bus relays typed request/response messages between the
// page-attached agent, the background coordinator and the settings UI.
//
// The core only consumes the Bus contract: one handler per message type
// (last registration wins) and a Send that resolves with the counterpart's
// response or an unreachable error. Two implementations ship: an in-memory
// pair for tests and single-process runs, and a socket.io client for the
// real relay coordinator.
package bus

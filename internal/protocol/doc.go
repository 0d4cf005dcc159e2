// Package protocol owns the wire contract of the grid text protocol.
//
// Ownership boundary:
// - command line construction and operator registries
// - reply classification and parsing (created handles, scalars)
// - fixed-width big-endian bulk payload codec
//
// Commands are single ASCII lines of space-delimited tokens, tag first.
// Replies are either a text line or a raw binary payload; the command
// determines which. The package performs no I/O.
package protocol

// Package faults defines the typed error kinds surfaced to MCP clients.
//
// Every tool invocation that fails terminates with exactly one of the four
// kinds defined here. The kind is machine-readable; the message is safe to
// show to a caller and never contains host paths, stack frames, or
// credentials.
package faults

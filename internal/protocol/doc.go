// Package protocol owns the DHCPv4 wire contract.
//
// Ownership boundary:
// - fixed header parse/serialise
// - option type registry
// - typed option values
// - option container
//
// The package is pure: no I/O, no logging, no shared state. Framing
// errors are hard failures; a malformed individual option only makes its
// typed accessor report ok=false.
package protocol

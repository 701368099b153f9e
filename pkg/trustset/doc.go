// Package trustset maintains the set of peers trusted to connect, derived from the
// active validator set of a registry.
//
// The Store is read concurrently by TLS handshakes through the Allower interface,
// and written by a single Refresher which periodically replaces the whole set.
package trustset

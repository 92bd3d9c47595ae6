// Package dht implements the local view of a Chord-style overlay ring: a
// 160-bit cyclic identifier space, a bounded successor list, an optional
// predecessor, and the deterministic lookup and reconciliation rules that the
// stabilization protocol applies to them.
//
// The package performs no network I/O. PeerRing operations are synchronous and
// bounded; forwarding lookups to remote peers is the caller's responsibility.
package dht

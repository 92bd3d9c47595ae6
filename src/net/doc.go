// Package net provides the transport abstraction used by a ringmesh node to
// exchange stabilization protocol messages with other nodes, addressed by
// their ring identifiers. It includes an in-memory implementation for tests
// and a stream-based implementation for real networks, with TCP as the
// concrete stream layer.
package net

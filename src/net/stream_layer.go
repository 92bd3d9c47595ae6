package net

import (
	"net"
	"time"
)

// StreamLayer is the interface that must be implemented to provide a stream
// abstraction (TCP, TLS, etc.) to a NetworkTransport.
type StreamLayer interface {
	net.Listener

	// Dial is used to create a new outgoing connection.
	Dial(address string, timeout time.Duration) (net.Conn, error)

	// AdvertiseAddr returns the address advertised to other peers.
	AdvertiseAddr() string
}

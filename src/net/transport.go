package net

import (
	"errors"

	"github.com/ringmesh/ringmesh/src/dht"
)

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")

	// ErrTimeout is returned when a peer did not answer within the
	// per-request timeout. The stabilization loop treats it as evidence of
	// unreachability.
	ErrTimeout = errors.New("command timed out")

	// ErrUnknownPeer is returned when the target identifier cannot be
	// resolved to a reachable address.
	ErrUnknownPeer = errors.New("unknown peer")
)

// Transport provides an interface for network transports to allow a node to
// communicate with other ring members, addressed by identifier. Request
// methods block for at most the transport's configured timeout.
type Transport interface {

	// Listen starts the transport listening.
	Listen()

	// Consumer returns a channel that can be used to consume and respond to
	// RPC requests.
	Consumer() <-chan RPC

	// LocalAddr returns our local address.
	LocalAddr() string

	// GetSuccessorAndPredecessor, FindSuccessor, and Join send the
	// appropriate request to the target node and wait for its response.

	GetSuccessorAndPredecessor(target dht.Did, args *GetSuccessorAndPredecessorRequest, resp *GetSuccessorAndPredecessorResponse) error

	FindSuccessor(target dht.Did, args *FindSuccessorRequest, resp *FindSuccessorResponse) error

	Join(target dht.Did, args *JoinRequest, resp *JoinResponse) error

	// Notify sends a fire-and-forget notification; it returns as soon as the
	// message is handed to the wire, without waiting for the target to
	// process it.
	Notify(target dht.Did, args *NotifyRequest) error

	// Close permanently closes a transport, stopping any associated
	// goroutines and freeing other resources.
	Close() error
}

// AddrResolver maps ring identifiers to network addresses. It is implemented
// by the peer book.
type AddrResolver interface {
	NetAddr(target dht.Did) (string, error)
}

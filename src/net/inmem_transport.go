package net

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ringmesh/ringmesh/src/dht"
)

// NewInmemAddr returns a new in-memory addr with a randomly generated UUID as
// the ID.
func NewInmemAddr() string {
	return uuid.NewString()
}

// InmemTransport implements the Transport interface, to allow ringmesh to be
// tested in-memory without going over a network. Peers are wired together
// explicitly with Connect, and unplugged with Disconnect to simulate
// unreachability.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan RPC
	localAddr  string
	peers      map[dht.Did]*InmemTransport
	timeout    time.Duration
}

// NewInmemTransport initializes a new transport and generates a random local
// address if none is specified.
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		consumerCh: make(chan RPC, 16),
		localAddr:  addr,
		peers:      make(map[dht.Did]*InmemTransport),
		timeout:    50 * time.Millisecond,
	}
	return addr, trans
}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan RPC {
	return i.consumerCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// GetSuccessorAndPredecessor implements the Transport interface.
func (i *InmemTransport) GetSuccessorAndPredecessor(target dht.Did, args *GetSuccessorAndPredecessorRequest, resp *GetSuccessorAndPredecessorResponse) error {
	rpcResp, err := i.makeRPC(target, args, i.timeout)
	if err != nil {
		return err
	}

	// Copy the result back
	out := rpcResp.Response.(*GetSuccessorAndPredecessorResponse)
	*resp = *out
	return nil
}

// FindSuccessor implements the Transport interface.
func (i *InmemTransport) FindSuccessor(target dht.Did, args *FindSuccessorRequest, resp *FindSuccessorResponse) error {
	rpcResp, err := i.makeRPC(target, args, i.timeout)
	if err != nil {
		return err
	}

	out := rpcResp.Response.(*FindSuccessorResponse)
	*resp = *out
	return nil
}

// Join implements the Transport interface.
func (i *InmemTransport) Join(target dht.Did, args *JoinRequest, resp *JoinResponse) error {
	rpcResp, err := i.makeRPC(target, args, i.timeout)
	if err != nil {
		return err
	}

	out := rpcResp.Response.(*JoinResponse)
	*resp = *out
	return nil
}

// Notify implements the Transport interface. It delivers the message without
// waiting for the target to process it.
func (i *InmemTransport) Notify(target dht.Did, args *NotifyRequest) error {
	i.RLock()
	peer, ok := i.peers[target]
	i.RUnlock()

	if !ok {
		return ErrUnknownPeer
	}

	respCh := make(chan RPCResponse, 1)
	select {
	case peer.consumerCh <- RPC{Command: args, RespChan: respCh}:
		return nil
	case <-time.After(i.timeout):
		return ErrTimeout
	}
}

func (i *InmemTransport) makeRPC(target dht.Did, args interface{}, timeout time.Duration) (rpcResp RPCResponse, err error) {
	i.RLock()
	peer, ok := i.peers[target]
	i.RUnlock()

	if !ok {
		err = ErrUnknownPeer
		return
	}

	// Send the RPC over. The response channel is buffered so that a responder
	// arriving after our timeout does not block forever.
	respCh := make(chan RPCResponse, 1)
	select {
	case peer.consumerCh <- RPC{Command: args, RespChan: respCh}:
	case <-time.After(timeout):
		err = ErrTimeout
		return
	}

	// Wait for a response
	select {
	case rpcResp = <-respCh:
		if rpcResp.Error != nil {
			err = rpcResp.Error
		}
	case <-time.After(timeout):
		err = ErrTimeout
	}
	return
}

// Connect is used to connect this transport to another transport for a given
// peer identifier. This allows for local routing.
func (i *InmemTransport) Connect(peer dht.Did, t Transport) {
	trans := t.(*InmemTransport)
	i.Lock()
	defer i.Unlock()
	i.peers[peer] = trans
}

// Disconnect is used to remove the ability to route to a given peer.
func (i *InmemTransport) Disconnect(peer dht.Did) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, peer)
}

// DisconnectAll is used to remove all routes to peers.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[dht.Did]*InmemTransport)
}

// Close is used to permanently disable the transport.
func (i *InmemTransport) Close() error {
	i.DisconnectAll()
	return nil
}

// Listen is an empty function as there is no need to defer initialization of
// the in-memory service.
func (i *InmemTransport) Listen() {
}

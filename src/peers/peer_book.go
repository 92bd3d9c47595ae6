package peers

import (
	"sync"

	"github.com/ringmesh/ringmesh/src/dht"
	"github.com/ringmesh/ringmesh/src/net"
)

// PeerBook indexes known peers by ring identifier. It implements
// net.AddrResolver, which is how the network transport turns a target Did
// into a dialable address.
type PeerBook struct {
	sync.RWMutex
	byDid map[dht.Did]*Peer
}

// NewPeerBook creates an empty PeerBook.
func NewPeerBook() *PeerBook {
	return &PeerBook{
		byDid: make(map[dht.Did]*Peer),
	}
}

// NewPeerBookFromSlice creates a PeerBook from a list of Peers, skipping any
// whose public key cannot be parsed.
func NewPeerBookFromSlice(peerSlice []*Peer) *PeerBook {
	book := NewPeerBook()
	for _, p := range peerSlice {
		book.AddPeer(p)
	}
	return book
}

// AddPeer inserts a peer into the book, keyed by its derived identifier.
func (b *PeerBook) AddPeer(p *Peer) error {
	did, err := p.Did()
	if err != nil {
		return err
	}

	b.Lock()
	defer b.Unlock()
	b.byDid[did] = p

	return nil
}

// RemovePeer deletes the peer with the given identifier.
func (b *PeerBook) RemovePeer(did dht.Did) {
	b.Lock()
	defer b.Unlock()
	delete(b.byDid, did)
}

// ByDid returns the peer with the given identifier.
func (b *PeerBook) ByDid(did dht.Did) (*Peer, bool) {
	b.RLock()
	defer b.RUnlock()
	p, ok := b.byDid[did]
	return p, ok
}

// NetAddr implements net.AddrResolver.
func (b *PeerBook) NetAddr(target dht.Did) (string, error) {
	b.RLock()
	defer b.RUnlock()

	p, ok := b.byDid[target]
	if !ok {
		return "", net.ErrUnknownPeer
	}
	return p.NetAddr, nil
}

// Dids returns the identifiers of all known peers, in unspecified order.
func (b *PeerBook) Dids() []dht.Did {
	b.RLock()
	defer b.RUnlock()

	res := make([]dht.Did, 0, len(b.byDid))
	for did := range b.byDid {
		res = append(res, did)
	}
	return res
}

// ToPeerSlice returns the peers as a slice, in unspecified order.
func (b *PeerBook) ToPeerSlice() []*Peer {
	b.RLock()
	defer b.RUnlock()

	res := make([]*Peer, 0, len(b.byDid))
	for _, p := range b.byDid {
		res = append(res, p)
	}
	return res
}

// Len returns the number of known peers.
func (b *PeerBook) Len() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.byDid)
}

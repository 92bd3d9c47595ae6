package peers

import (
	"fmt"

	"github.com/ringmesh/ringmesh/src/common"
	"github.com/ringmesh/ringmesh/src/crypto/keys"
	"github.com/ringmesh/ringmesh/src/dht"
)

// Peer associates a ring identifier with the network address and public key
// of a known node. The identifier is derived from the public key, never set
// directly.
type Peer struct {
	NetAddr   string
	PubKeyHex string

	did *dht.Did
}

// NewPeer creates a Peer from a hex-encoded public key and a network address.
func NewPeer(pubKeyHex, netAddr string) *Peer {
	return &Peer{
		PubKeyHex: pubKeyHex,
		NetAddr:   netAddr,
	}
}

// PubKeyBytes returns the uncompressed public key bytes.
func (p *Peer) PubKeyBytes() ([]byte, error) {
	return common.DecodeFromString(p.PubKeyHex)
}

// Did returns the peer's ring identifier, computing and caching it on first
// use.
func (p *Peer) Did() (dht.Did, error) {
	if p.did != nil {
		return *p.did, nil
	}

	pubBytes, err := p.PubKeyBytes()
	if err != nil {
		return dht.Did{}, err
	}

	pub := keys.ToPublicKey(pubBytes)
	if pub == nil {
		return dht.Did{}, fmt.Errorf("peer %s: invalid public key", p.NetAddr)
	}

	did := dht.DidFromPubKey(pub)
	p.did = &did

	return did, nil
}

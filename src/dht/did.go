package dht

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ringmesh/ringmesh/src/crypto/keys"
)

const (
	// DidBitSize is the width of the ring identifier space.
	DidBitSize = 160

	// DidByteSize is the length of a Did in bytes.
	DidByteSize = DidBitSize / 8
)

// ringModulo is 2^160, the size of the identifier space.
var ringModulo = new(big.Int).Lsh(big.NewInt(1), DidBitSize)

// Did is a ring identifier: a fixed-width 160-bit unsigned integer derived
// from a peer's public key. Dids are immutable and totally ordered under
// natural byte comparison; ring order is defined via modular distance.
type Did [DidByteSize]byte

// DidFromPubKey derives a Did from a secp256k1 public key by hashing its
// uncompressed form with SHA256 and keeping the trailing 160 bits.
func DidFromPubKey(pub *ecdsa.PublicKey) Did {
	h := sha256.Sum256(keys.FromPublicKey(pub))

	var d Did
	copy(d[:], h[len(h)-DidByteSize:])
	return d
}

// DidFromBytes converts a 20-byte slice into a Did.
func DidFromBytes(b []byte) (Did, error) {
	var d Did
	if len(b) != DidByteSize {
		return d, fmt.Errorf("invalid did length, need %d bytes, got %d", DidByteSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// DidFromHex converts a 40-character hex string into a Did.
func DidFromHex(s string) (Did, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Did{}, err
	}
	return DidFromBytes(b)
}

// Bytes returns a copy of the identifier's raw bytes.
func (d Did) Bytes() []byte {
	b := make([]byte, DidByteSize)
	copy(b, d[:])
	return b
}

// String returns the hexadecimal representation of the identifier.
func (d Did) String() string {
	return hex.EncodeToString(d[:])
}

// Big returns the identifier as an unsigned big integer.
func (d Did) Big() *big.Int {
	return new(big.Int).SetBytes(d[:])
}

// Cmp compares two identifiers in natural order. It returns -1, 0, or 1.
func (d Did) Cmp(other Did) int {
	return bytes.Compare(d[:], other[:])
}

// Distance returns the clockwise ring distance from a to b, ie. (b - a) mod
// 2^160. It is always non-negative and zero only when a == b.
func Distance(a, b Did) *big.Int {
	dist := new(big.Int).Sub(b.Big(), a.Big())
	return dist.Mod(dist, ringModulo)
}

// Between reports whether target lies strictly within the open clockwise arc
// (start, end). When start == end the arc covers the whole ring minus start
// itself.
func Between(start, target, end Did) bool {
	dt := Distance(start, target)
	de := Distance(start, end)
	if de.Sign() == 0 {
		de = ringModulo
	}
	return dt.Sign() > 0 && dt.Cmp(de) < 0
}

// BetweenRightIncl reports whether target lies within the half-open clockwise
// arc (start, end]. When start == end the arc covers the whole ring minus
// start itself.
func BetweenRightIncl(start, target, end Did) bool {
	dt := Distance(start, target)
	de := Distance(start, end)
	if de.Sign() == 0 {
		de = ringModulo
	}
	return dt.Sign() > 0 && dt.Cmp(de) <= 0
}

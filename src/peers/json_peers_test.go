package peers

import (
	"fmt"
	"io/ioutil"
	"os"
	"testing"
)

func TestJSONPeers(t *testing.T) {
	// Create a test dir
	dir, err := ioutil.TempDir("", "ringmesh")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	// Create the store
	store := NewJSONPeers(dir)

	// Try a read, should get nothing
	book, err := store.Peers()
	if err == nil {
		t.Fatalf("store.Peers() should generate an error")
	}
	if book != nil {
		t.Fatalf("book: %v", book)
	}

	newPeers := []*Peer{}
	for i := 0; i < 3; i++ {
		newPeers = append(newPeers, newTestPeer(t, fmt.Sprintf("addr%d", i)))
	}

	if err := store.SetPeers(newPeers); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Try a read, should find 3 peers
	book, err = store.Peers()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if book.Len() != 3 {
		t.Fatalf("book should contain 3 peers, not %d", book.Len())
	}

	for _, p := range newPeers {
		did, err := p.Did()
		if err != nil {
			t.Fatal(err)
		}

		stored, ok := book.ByDid(did)
		if !ok {
			t.Fatalf("peer %s should be in the book", p.NetAddr)
		}
		if stored.NetAddr != p.NetAddr {
			t.Fatalf("NetAddr should be %s, not %s", p.NetAddr, stored.NetAddr)
		}
		if stored.PubKeyHex != p.PubKeyHex {
			t.Fatalf("PubKeyHex should be %s, not %s", p.PubKeyHex, stored.PubKeyHex)
		}
	}
}

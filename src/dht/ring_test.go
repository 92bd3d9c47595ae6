package dht

import (
	"testing"

	"github.com/ringmesh/ringmesh/src/common"
	"github.com/ringmesh/ringmesh/src/storage"
)

func newTestRing(t *testing.T, local uint64, capacity int) *PeerRing {
	return NewPeerRing(
		testDid(local),
		capacity,
		storage.NewInmemStore(),
		common.NewTestEntry(t, common.TestLogLevel),
	)
}

func TestFindSuccessorEmptyRing(t *testing.T) {
	ring := newTestRing(t, 10, 3)

	lookup := ring.FindSuccessor(testDid(9999))
	if lookup.Kind != LookupLocal {
		t.Fatalf("a single-node ring should answer locally")
	}
	if lookup.Peer != ring.Did() {
		t.Fatalf("the local node should be the successor of every key")
	}
}

func TestFindSuccessor(t *testing.T) {
	ring := newTestRing(t, 10, 3)

	for _, n := range []uint64{20, 30, 40} {
		if err := ring.Join(testDid(n)); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	testCases := []struct {
		name string
		key  uint64
		kind LookupKind
		peer uint64
	}{
		{"first arc", 15, LookupLocal, 20},
		{"first arc boundary", 20, LookupLocal, 20},
		{"own key", 10, LookupLocal, 20},
		{"second arc", 25, LookupRemote, 20},
		{"third arc", 35, LookupRemote, 30},
		{"beyond all", 45, LookupRemote, 40},
		{"wrapping", 5, LookupRemote, 40},
	}

	for _, tc := range testCases {
		lookup := ring.FindSuccessor(testDid(tc.key))
		if lookup.Kind != tc.kind {
			t.Fatalf("%s: kind should be %s, not %s", tc.name, tc.kind, lookup.Kind)
		}
		if lookup.Peer != testDid(tc.peer) {
			t.Fatalf("%s: peer should be %s, not %s", tc.name, testDid(tc.peer), lookup.Peer)
		}
	}
}

func TestNotify(t *testing.T) {
	ring := newTestRing(t, 100, 3)

	// No predecessor yet; any candidate is adopted.
	if err := ring.Notify(testDid(50)); err != nil {
		t.Fatalf("err: %v", err)
	}
	pred, ok := ring.Predecessor()
	if !ok || pred != testDid(50) {
		t.Fatalf("candidate should have been adopted")
	}

	// A closer candidate displaces the current predecessor.
	if err := ring.Notify(testDid(80)); err != nil {
		t.Fatalf("err: %v", err)
	}
	pred, _ = ring.Predecessor()
	if pred != testDid(80) {
		t.Fatalf("closer candidate should have been adopted")
	}

	// A farther candidate is ignored.
	if err := ring.Notify(testDid(30)); err != nil {
		t.Fatalf("err: %v", err)
	}
	pred, _ = ring.Predecessor()
	if pred != testDid(80) {
		t.Fatalf("farther candidate should not displace the predecessor")
	}

	// Repeating the current predecessor changes nothing.
	if err := ring.Notify(testDid(80)); err != nil {
		t.Fatalf("err: %v", err)
	}
	pred, _ = ring.Predecessor()
	if pred != testDid(80) {
		t.Fatalf("notify should be idempotent")
	}

	if err := ring.Notify(ring.Did()); err != ErrSelfReference {
		t.Fatalf("notifying the local identifier should return ErrSelfReference, not %v", err)
	}
}

func TestRemove(t *testing.T) {
	ring := newTestRing(t, 10, 3)

	ring.Join(testDid(20))
	ring.Join(testDid(30))
	ring.Notify(testDid(30))

	ring.Remove(testDid(20))

	succ, ok := ring.Successor()
	if !ok || succ != testDid(30) {
		t.Fatalf("next list entry should take over as immediate successor")
	}

	// Removing a peer that is also the predecessor clears the slot.
	ring.Remove(testDid(30))
	if _, ok := ring.Predecessor(); ok {
		t.Fatalf("predecessor slot should have been cleared")
	}
	if _, ok := ring.Successor(); ok {
		t.Fatalf("successor list should be empty")
	}
}

func TestPersistRestore(t *testing.T) {
	store := storage.NewInmemStore()
	logger := common.NewTestEntry(t, common.TestLogLevel)

	ring := NewPeerRing(testDid(10), 3, store, logger)
	ring.Join(testDid(20))
	ring.Join(testDid(30))
	ring.Notify(testDid(5))

	restored, err := LoadPeerRing(testDid(10), 3, store, logger)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	items := restored.SuccessorList()
	if len(items) != 2 || items[0] != testDid(20) || items[1] != testDid(30) {
		t.Fatalf("successor list not restored: %v", items)
	}

	pred, ok := restored.Predecessor()
	if !ok || pred != testDid(5) {
		t.Fatalf("predecessor not restored")
	}
}

func TestRestoreMissingState(t *testing.T) {
	// A fresh store holds no state; loading from it is not an error.
	ring, err := LoadPeerRing(testDid(10), 3, storage.NewInmemStore(), common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, ok := ring.Successor(); ok {
		t.Fatalf("ring should start empty")
	}
}

func TestRestoreCorruptedState(t *testing.T) {
	store := storage.NewInmemStore()
	store.Put(SuccessorsKey, []byte("not a record"))

	_, err := LoadPeerRing(testDid(10), 3, store, common.NewTestEntry(t, common.TestLogLevel))
	if err == nil {
		t.Fatalf("corrupted state should abort the load")
	}
	if !common.IsStore(err, common.Corrupted) {
		t.Fatalf("error should be a Corrupted StoreErr, not %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	ring := newTestRing(t, 10, 3)
	ring.Join(testDid(20))
	ring.Notify(testDid(5))

	pred, succ := ring.Snapshot()
	if pred == nil || *pred != testDid(5) {
		t.Fatalf("snapshot predecessor mismatch")
	}
	if len(succ) != 1 || succ[0] != testDid(20) {
		t.Fatalf("snapshot successor list mismatch")
	}

	// The snapshot is a copy; mutating the ring does not affect it.
	ring.Remove(testDid(20))
	if len(succ) != 1 {
		t.Fatalf("snapshot should be detached from ring state")
	}
}

package dht

import (
	"testing"
)

func TestSuccessorListInsert(t *testing.T) {
	local := testDid(100)
	list := NewSuccessorList(local, 3)

	// Inserting out of order; entries should come back sorted by ring
	// distance from the local identifier, wrapping past zero.
	for _, n := range []uint64{300, 150, 50} {
		if err := list.Insert(testDid(n)); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	expected := []Did{testDid(150), testDid(300), testDid(50)}
	items := list.List()
	if len(items) != len(expected) {
		t.Fatalf("list should contain %d items, not %d", len(expected), len(items))
	}
	for i := range expected {
		if items[i] != expected[i] {
			t.Fatalf("items[%d] should be %s, not %s", i, expected[i], items[i])
		}
	}
}

func TestSuccessorListInsertSelf(t *testing.T) {
	local := testDid(100)
	list := NewSuccessorList(local, 3)

	if err := list.Insert(local); err != ErrSelfReference {
		t.Fatalf("inserting the local identifier should return ErrSelfReference, not %v", err)
	}
	if list.Len() != 0 {
		t.Fatalf("list should be unchanged")
	}
}

func TestSuccessorListInsertDuplicate(t *testing.T) {
	list := NewSuccessorList(testDid(100), 3)

	list.Insert(testDid(150))
	if err := list.Insert(testDid(150)); err != nil {
		t.Fatalf("err: %v", err)
	}
	if list.Len() != 1 {
		t.Fatalf("duplicate insert should be a no-op")
	}
}

func TestSuccessorListTruncate(t *testing.T) {
	local := testDid(100)
	list := NewSuccessorList(local, 2)

	list.Insert(testDid(400))
	list.Insert(testDid(300))
	list.Insert(testDid(200))

	// Capacity 2: only the two closest entries survive.
	if list.Len() != 2 {
		t.Fatalf("list should be truncated to 2 items, not %d", list.Len())
	}
	if list.Contains(testDid(400)) {
		t.Fatalf("the farthest entry should have been dropped")
	}

	// A candidate farther than every retained entry of a full list is
	// discarded on insert.
	list.Insert(testDid(500))
	if list.Contains(testDid(500)) {
		t.Fatalf("an overflowing candidate should not displace closer entries")
	}
}

func TestSuccessorListRemove(t *testing.T) {
	list := NewSuccessorList(testDid(100), 3)

	list.Insert(testDid(150))
	list.Insert(testDid(200))

	if !list.Remove(testDid(150)) {
		t.Fatalf("removing a present entry should report a change")
	}
	if list.Remove(testDid(150)) {
		t.Fatalf("removing an absent entry should not report a change")
	}

	first, ok := list.First()
	if !ok || first != testDid(200) {
		t.Fatalf("next entry should have been promoted")
	}
}

func TestSuccessorListFirstEmpty(t *testing.T) {
	list := NewSuccessorList(testDid(100), 3)

	if _, ok := list.First(); ok {
		t.Fatalf("First on an empty list should report no successor")
	}
}

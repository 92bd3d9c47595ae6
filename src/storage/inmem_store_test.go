package storage

import (
	"testing"

	cm "github.com/ringmesh/ringmesh/src/common"
)

func TestInmemStore(t *testing.T) {
	store := NewInmemStore()

	if _, err := store.Get("missing"); !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("Get on a missing key should return KeyNotFound, not %v", err)
	}

	if err := store.Put("k1", []byte("v1")); err != nil {
		t.Fatalf("err: %v", err)
	}

	val, err := store.Get("k1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(val) != "v1" {
		t.Fatalf("value should be v1, not %s", val)
	}

	// Returned slices are copies.
	val[0] = 'x'
	val, _ = store.Get("k1")
	if string(val) != "v1" {
		t.Fatalf("mutating a returned value should not affect the store")
	}

	if err := store.Put("k1", []byte("v2")); err != nil {
		t.Fatalf("err: %v", err)
	}
	val, _ = store.Get("k1")
	if string(val) != "v2" {
		t.Fatalf("Put should overwrite, got %s", val)
	}

	if err := store.Remove("k1"); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := store.Get("k1"); !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("removed key should be missing")
	}

	// Removing an absent key is a no-op.
	if err := store.Remove("k1"); err != nil {
		t.Fatalf("err: %v", err)
	}
}

func TestInmemStoreListKeys(t *testing.T) {
	store := NewInmemStore()

	store.Put("a", []byte("1"))
	store.Put("b", []byte("2"))

	keys, err := store.ListKeys()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("should list 2 keys, not %d", len(keys))
	}
}

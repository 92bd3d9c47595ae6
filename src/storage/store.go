// Package storage defines the narrow key-value contract that the ring relies
// on for durability, with an ephemeral in-memory implementation and a
// persistent Badger-backed implementation.
package storage

// Store is an interface for backend stores. Values are opaque byte slices.
//
// Get returns a common.StoreErr of kind KeyNotFound when the key is absent.
// I/O failures surface as common.StoreErr of kind IO so that callers can
// distinguish them from missing keys; steady-state callers treat them as
// non-fatal, but state restoration at startup does not.
type Store interface {
	// Get retrieves the value stored under key.
	Get(key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error
	// Remove deletes the entry under key. Removing an absent key is a no-op.
	Remove(key string) error
	// ListKeys returns all keys present in the store, in unspecified order.
	ListKeys() ([]string, error)
	// Close closes the underlying database.
	Close() error
	// Path returns the filepath of the underlying database, or "" for
	// ephemeral stores.
	Path() string
}

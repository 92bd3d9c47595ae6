package storage

import (
	"os"

	"github.com/dgraph-io/badger"
	lru "github.com/hashicorp/golang-lru/v2"
	cm "github.com/ringmesh/ringmesh/src/common"
)

// BadgerStore implements the Store interface on top of a Badger database,
// with an LRU cache absorbing repeated reads of hot keys such as the ring
// state records.
type BadgerStore struct {
	db    *badger.DB
	path  string
	cache *lru.Cache[string, []byte]
}

// NewBadgerStore opens (or creates) a Badger database at path. The cacheSize
// parameter bounds the number of entries held in the read cache.
func NewBadgerStore(path string, cacheSize int) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = nil

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, cm.NewStoreErr("BadgerStore", cm.IO, path)
	}

	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:    handle,
		path:  path,
		cache: cache,
	}, nil
}

// LoadBadgerStore opens an existing Badger database and fails if the path
// does not exist. It is used when bootstrapping a node from saved state,
// where silently starting empty would be wrong.
func LoadBadgerStore(path string, cacheSize int) (*BadgerStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, cm.NewStoreErr("BadgerStore", cm.KeyNotFound, path)
	}
	return NewBadgerStore(path, cacheSize)
}

// Get implements the Store interface.
func (s *BadgerStore) Get(key string) ([]byte, error) {
	if val, ok := s.cache.Get(key); ok {
		out := make([]byte, len(val))
		copy(out, val)
		return out, nil
	}

	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})

	if err == badger.ErrKeyNotFound {
		return nil, cm.NewStoreErr("BadgerStore", cm.KeyNotFound, key)
	}
	if err != nil {
		return nil, cm.NewStoreErr("BadgerStore", cm.IO, key)
	}

	s.cache.Add(key, val)

	return val, nil
}

// Put implements the Store interface.
func (s *BadgerStore) Put(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return cm.NewStoreErr("BadgerStore", cm.IO, key)
	}

	s.cache.Add(key, value)

	return nil
}

// Remove implements the Store interface.
func (s *BadgerStore) Remove(key string) error {
	s.cache.Remove(key)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && err != badger.ErrKeyNotFound {
		return cm.NewStoreErr("BadgerStore", cm.IO, key)
	}
	return nil
}

// ListKeys implements the Store interface.
func (s *BadgerStore) ListKeys() ([]string, error) {
	keys := []string{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, cm.NewStoreErr("BadgerStore", cm.IO, "")
	}

	return keys, nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Path implements the Store interface.
func (s *BadgerStore) Path() string {
	return s.path
}

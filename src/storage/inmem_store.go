package storage

import (
	"sync"

	cm "github.com/ringmesh/ringmesh/src/common"
)

// InmemStore implements the Store interface with a plain map. Contents are
// lost on shutdown, so it is only suitable for tests and for nodes that are
// happy to rebuild their ring state from scratch.
type InmemStore struct {
	sync.RWMutex
	kv map[string][]byte
}

// NewInmemStore creates an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		kv: make(map[string][]byte),
	}
}

// Get implements the Store interface.
func (s *InmemStore) Get(key string) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()

	val, ok := s.kv[key]
	if !ok {
		return nil, cm.NewStoreErr("InmemStore", cm.KeyNotFound, key)
	}

	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// Put implements the Store interface.
func (s *InmemStore) Put(key string, value []byte) error {
	s.Lock()
	defer s.Unlock()

	val := make([]byte, len(value))
	copy(val, value)
	s.kv[key] = val
	return nil
}

// Remove implements the Store interface.
func (s *InmemStore) Remove(key string) error {
	s.Lock()
	defer s.Unlock()

	delete(s.kv, key)
	return nil
}

// ListKeys implements the Store interface.
func (s *InmemStore) ListKeys() ([]string, error) {
	s.RLock()
	defer s.RUnlock()

	keys := make([]string, 0, len(s.kv))
	for k := range s.kv {
		keys = append(keys, k)
	}
	return keys, nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

// Path implements the Store interface.
func (s *InmemStore) Path() string {
	return ""
}

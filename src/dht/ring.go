package dht

import (
	"bytes"
	"sync"

	cm "github.com/ringmesh/ringmesh/src/common"
	"github.com/ringmesh/ringmesh/src/storage"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

// Reserved storage keys under which the ring persists its local state.
const (
	SuccessorsKey  = "ring.successors"
	PredecessorKey = "ring.predecessor"
)

// LookupKind discriminates the two outcomes of FindSuccessor.
type LookupKind int

const (
	// LookupLocal means this node holds the authoritative answer: the
	// returned peer is the key's successor.
	LookupLocal LookupKind = iota

	// LookupRemote means the query should be forwarded to the returned peer,
	// which is closer to the key than this node.
	LookupRemote
)

// String returns the string representation of a LookupKind.
func (k LookupKind) String() string {
	switch k {
	case LookupLocal:
		return "Local"
	case LookupRemote:
		return "Remote"
	default:
		return "Unknown"
	}
}

// Lookup is the result of a FindSuccessor query.
type Lookup struct {
	Kind LookupKind
	Peer Did
}

// PeerRing is the local node's view of the overlay ring: its own identifier,
// a bounded successor list, and an optional predecessor. All mutators take an
// exclusive lock for the duration of one logical update, so concurrent
// Join/Notify/Remove calls are applied atomically in acquisition order.
// Network I/O never happens under the lock because PeerRing performs none.
type PeerRing struct {
	mu sync.RWMutex

	did         Did
	successors  *SuccessorList
	predecessor *Did

	store  storage.Store
	logger *logrus.Entry
}

// NewPeerRing creates a fresh PeerRing around the local identifier did, with
// a successor list of the given capacity, persisting its state to store.
func NewPeerRing(did Did, capacity int, store storage.Store, logger *logrus.Entry) *PeerRing {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &PeerRing{
		did:        did,
		successors: NewSuccessorList(did, capacity),
		store:      store,
		logger:     logger.WithField("this_id", did.String()),
	}
}

// LoadPeerRing creates a PeerRing and restores its successor list and
// predecessor from store. A storage failure during restoration aborts node
// initialization; a simply absent record does not.
func LoadPeerRing(did Did, capacity int, store storage.Store, logger *logrus.Entry) (*PeerRing, error) {
	ring := NewPeerRing(did, capacity, store, logger)

	if err := ring.restore(); err != nil {
		return nil, err
	}

	return ring, nil
}

// Did returns the local identifier.
func (r *PeerRing) Did() Did {
	return r.did
}

// Store returns the backing store.
func (r *PeerRing) Store() storage.Store {
	return r.store
}

// Join inserts candidate into the successor-list candidate pool. The list is
// re-sorted by ring distance and truncated to capacity, so joining a peer
// farther than all current entries of a full list is a no-op. Joining the
// local identifier returns ErrSelfReference.
func (r *PeerRing) Join(candidate Did) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.successors.Insert(candidate); err != nil {
		return err
	}

	r.persist()

	return nil
}

// Notify informs the ring that candidate believes itself to be our
// predecessor. The candidate is adopted only when no predecessor is set, or
// when it is strictly closer counter-clockwise than the current one.
// Repeated calls with the same candidate are idempotent.
func (r *PeerRing) Notify(candidate Did) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if candidate == r.did {
		return ErrSelfReference
	}

	if r.predecessor == nil || Between(*r.predecessor, candidate, r.did) {
		adopted := candidate
		r.predecessor = &adopted
		r.persist()
	}

	return nil
}

// Remove evicts peer from the successor list and clears the predecessor if it
// equals peer. It is called on confirmed unreachability.
func (r *PeerRing) Remove(peer Did) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := r.successors.Remove(peer)

	if r.predecessor != nil && *r.predecessor == peer {
		r.predecessor = nil
		changed = true
	}

	if changed {
		r.persist()
	}
}

// FindSuccessor computes who is responsible for key. It returns a Local
// lookup when the key falls in the half-open arc between the local
// identifier and the immediate successor, and a Remote lookup pointing at the
// farthest successor that does not overshoot the key otherwise. It never
// blocks and performs no network I/O; forwarding Remote lookups is the
// caller's responsibility.
func (r *PeerRing) FindSuccessor(key Did) Lookup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	first, ok := r.successors.First()
	if !ok {
		// Single-node ring: the local node owns the whole space.
		return Lookup{Kind: LookupLocal, Peer: r.did}
	}

	if key == r.did || BetweenRightIncl(r.did, key, first) {
		return Lookup{Kind: LookupLocal, Peer: first}
	}

	// Walk the list from the farthest entry towards the nearest, and forward
	// to the first one that does not overshoot the key.
	items := r.successors.List()
	keyDist := Distance(r.did, key)
	for i := len(items) - 1; i >= 0; i-- {
		if Distance(r.did, items[i]).Cmp(keyDist) <= 0 {
			return Lookup{Kind: LookupRemote, Peer: items[i]}
		}
	}

	return Lookup{Kind: LookupRemote, Peer: first}
}

// Successor returns the immediate successor. The second return value is false
// when the successor list is empty.
func (r *PeerRing) Successor() (Did, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.successors.First()
}

// SuccessorList returns a copy of the successor list in ascending
// ring-distance order.
func (r *PeerRing) SuccessorList() []Did {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.successors.List()
}

// Predecessor returns the current predecessor. The second return value is
// false when none is set.
func (r *PeerRing) Predecessor() (Did, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.predecessor == nil {
		return Did{}, false
	}
	return *r.predecessor, true
}

// Snapshot returns a consistent (predecessor, successor list) pair, as
// required by the stabilization reconciliation rules.
func (r *PeerRing) Snapshot() (*Did, []Did) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pred *Did
	if r.predecessor != nil {
		p := *r.predecessor
		pred = &p
	}

	return pred, r.successors.List()
}

// ringRecord is the persisted form of the successor list.
type ringRecord struct {
	Successors []string
}

func marshalRecord(rec interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(rec); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func unmarshalRecord(data []byte, rec interface{}) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(rec)
}

// persist writes the ring state to the backing store. It is called with the
// write lock held. Steady-state storage failures are logged and otherwise
// ignored; the authoritative state lives in memory.
func (r *PeerRing) persist() {
	rec := ringRecord{Successors: []string{}}
	for _, d := range r.successors.List() {
		rec.Successors = append(rec.Successors, d.String())
	}

	data, err := marshalRecord(rec)
	if err != nil {
		r.logger.WithError(err).Warning("Failed to marshal ring state")
		return
	}

	if err := r.store.Put(SuccessorsKey, data); err != nil {
		r.logger.WithError(err).Warning("Failed to persist successor list")
	}

	if r.predecessor == nil {
		if err := r.store.Remove(PredecessorKey); err != nil {
			r.logger.WithError(err).Warning("Failed to clear persisted predecessor")
		}
		return
	}

	if err := r.store.Put(PredecessorKey, []byte(r.predecessor.String())); err != nil {
		r.logger.WithError(err).Warning("Failed to persist predecessor")
	}
}

// restore loads the persisted ring state. Missing records are fine; anything
// else aborts.
func (r *PeerRing) restore() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.store.Get(SuccessorsKey)
	if err != nil && !cm.IsStore(err, cm.KeyNotFound) {
		return err
	}

	if err == nil {
		var rec ringRecord
		if err := unmarshalRecord(data, &rec); err != nil {
			return cm.NewStoreErr("PeerRing", cm.Corrupted, SuccessorsKey)
		}
		for _, s := range rec.Successors {
			d, err := DidFromHex(s)
			if err != nil {
				return cm.NewStoreErr("PeerRing", cm.Corrupted, SuccessorsKey)
			}
			if err := r.successors.Insert(d); err != nil {
				return err
			}
		}
	}

	data, err = r.store.Get(PredecessorKey)
	if err != nil {
		if cm.IsStore(err, cm.KeyNotFound) {
			return nil
		}
		return err
	}

	pred, err := DidFromHex(string(data))
	if err != nil {
		return cm.NewStoreErr("PeerRing", cm.Corrupted, PredecessorKey)
	}
	r.predecessor = &pred

	return nil
}

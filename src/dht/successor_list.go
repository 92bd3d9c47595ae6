package dht

import (
	"errors"
	"sort"
)

// ErrSelfReference is returned when a caller attempts to insert the local
// identifier into the successor list, or to notify the ring of itself. It
// signals a collaborator bug and never causes a partial mutation.
var ErrSelfReference = errors.New("dht: local identifier cannot reference itself")

// SuccessorList is an ordered sequence of up to max distinct identifiers,
// sorted by ascending ring distance from the local identifier. It always
// retains the max closest known successors in clockwise ring order.
//
// SuccessorList is not safe for concurrent use; PeerRing serializes access.
type SuccessorList struct {
	local Did
	max   int
	items []Did
}

// NewSuccessorList creates an empty SuccessorList of capacity max around the
// local identifier.
func NewSuccessorList(local Did, max int) *SuccessorList {
	return &SuccessorList{
		local: local,
		max:   max,
		items: []Did{},
	}
}

// Insert adds candidate to the pool, re-sorts by ring distance from the local
// identifier, and truncates to capacity. Inserting an identifier that is
// already present is a no-op. Inserting the local identifier returns
// ErrSelfReference.
func (s *SuccessorList) Insert(candidate Did) error {
	if candidate == s.local {
		return ErrSelfReference
	}

	if s.Contains(candidate) {
		return nil
	}

	s.items = append(s.items, candidate)

	sort.Slice(s.items, func(i, j int) bool {
		di := Distance(s.local, s.items[i])
		dj := Distance(s.local, s.items[j])
		if c := di.Cmp(dj); c != 0 {
			return c < 0
		}
		// Equidistant entries cannot occur with unique identifiers, but
		// prefer the lexicographically smaller one for determinism.
		return s.items[i].Cmp(s.items[j]) < 0
	})

	if len(s.items) > s.max {
		s.items = s.items[:s.max]
	}

	return nil
}

// Remove evicts peer from the list if present. It reports whether the list
// changed.
func (s *SuccessorList) Remove(peer Did) bool {
	for i, item := range s.items {
		if item == peer {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// First returns the immediate successor, ie. the closest entry in clockwise
// ring order. The second return value is false when the list is empty.
func (s *SuccessorList) First() (Did, bool) {
	if len(s.items) == 0 {
		return Did{}, false
	}
	return s.items[0], true
}

// Contains reports whether d is in the list.
func (s *SuccessorList) Contains(d Did) bool {
	for _, item := range s.items {
		if item == d {
			return true
		}
	}
	return false
}

// List returns a copy of the entries in ascending ring-distance order.
func (s *SuccessorList) List() []Did {
	out := make([]Did, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of entries.
func (s *SuccessorList) Len() int {
	return len(s.items)
}

// Cap returns the list's capacity.
func (s *SuccessorList) Cap() int {
	return s.max
}

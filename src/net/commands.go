package net

import (
	"github.com/ringmesh/ringmesh/src/dht"
)

// GetSuccessorAndPredecessorRequest is sent by the stabilization loop to its
// immediate successor to learn about peers that may have joined between them.
type GetSuccessorAndPredecessorRequest struct {
	From dht.Did
}

// GetSuccessorAndPredecessorResponse carries the responder's predecessor slot
// and successor list, read atomically relative to writers.
type GetSuccessorAndPredecessorResponse struct {
	From          dht.Did
	Predecessor   *dht.Did
	SuccessorList []dht.Did
}

// NotifyRequest tells the target that Candidate believes itself to be the
// target's predecessor. It is fire-and-forget: there is no response.
type NotifyRequest struct {
	Candidate dht.Did
}

// FindSuccessorRequest asks any ring member who is responsible for Key.
type FindSuccessorRequest struct {
	From dht.Did
	Key  dht.Did
}

// FindSuccessorResponse returns the responder's deterministic lookup result.
// A Remote result is a redirect; following it is the caller's choice.
type FindSuccessorResponse struct {
	From   dht.Did
	Result dht.Lookup
}

// JoinRequest asks a seed peer to admit Candidate into its successor
// candidate pool.
type JoinRequest struct {
	Candidate dht.Did
}

// JoinResponse acknowledges ring membership. The seed's predecessor and
// successor list give the joiner an initial set of candidates to merge.
type JoinResponse struct {
	From          dht.Did
	Accepted      bool
	Predecessor   *dht.Did
	SuccessorList []dht.Did
}

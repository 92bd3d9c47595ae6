package node

import (
	"errors"

	"github.com/ringmesh/ringmesh/src/dht"
	"github.com/ringmesh/ringmesh/src/net"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoSuccessor is returned by a stabilization round when the successor
	// list is empty. The round is skipped; it is not a failure.
	ErrNoSuccessor = errors.New("node: successor list is empty")

	// ErrCanceled is returned when a round was abandoned because the node is
	// shutting down. The response, if one arrived, is discarded without
	// touching ring state.
	ErrCanceled = errors.New("node: stabilization round canceled")
)

// Stabilizer runs the periodic repair protocol that converges successor and
// predecessor pointers after churn. Each round queries the immediate
// successor, reconciles the answer into the ring, and notifies the successor
// of our existence. Network I/O happens outside the ring lock; only the
// reconciliation mutations take it.
type Stabilizer struct {
	ring   *dht.PeerRing
	trans  net.Transport
	logger *logrus.Entry
}

// NewStabilizer ...
func NewStabilizer(ring *dht.PeerRing, trans net.Transport, logger *logrus.Entry) *Stabilizer {
	return &Stabilizer{
		ring:   ring,
		trans:  trans,
		logger: logger,
	}
}

// Once performs a single stabilization round. On timeout or unreachability
// the head successor is evicted and the next entry takes its place; repeated
// rounds provide the retry loop, so a single failed round is never fatal.
// cancelCh aborts the round after the network call without applying its
// result.
func (s *Stabilizer) Once(cancelCh <-chan struct{}) error {
	head, ok := s.ring.Successor()
	if !ok {
		return ErrNoSuccessor
	}

	req := &net.GetSuccessorAndPredecessorRequest{From: s.ring.Did()}
	var resp net.GetSuccessorAndPredecessorResponse
	err := s.trans.GetSuccessorAndPredecessor(head, req, &resp)

	select {
	case <-cancelCh:
		return ErrCanceled
	default:
	}

	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"successor": head.String(),
			"error":     err,
		}).Warning("Successor unreachable, evicting")
		s.ring.Remove(head)
		return err
	}

	// An intervening joiner shows up as the successor's predecessor sitting
	// strictly between us and the successor. Adopt it as a candidate.
	if resp.Predecessor != nil && dht.Between(s.ring.Did(), *resp.Predecessor, head) {
		if err := s.ring.Join(*resp.Predecessor); err != nil {
			s.logger.WithError(err).Warning("Adopting successor's predecessor")
		}
	}

	// Merge the successor's list to propagate successor knowledge
	// transitively.
	for _, d := range resp.SuccessorList {
		if d == s.ring.Did() {
			continue
		}
		if err := s.ring.Join(d); err != nil {
			s.logger.WithError(err).Warning("Merging successor list entry")
		}
	}

	// Notify the (possibly updated) head that we believe we are its
	// predecessor.
	if newHead, ok := s.ring.Successor(); ok {
		notify := &net.NotifyRequest{Candidate: s.ring.Did()}
		if err := s.trans.Notify(newHead, notify); err != nil {
			s.logger.WithFields(logrus.Fields{
				"successor": newHead.String(),
				"error":     err,
			}).Debug("Notify failed")
		}
	}

	return nil
}

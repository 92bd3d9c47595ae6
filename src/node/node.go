package node

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ringmesh/ringmesh/src/dht"
	"github.com/ringmesh/ringmesh/src/net"
	"github.com/ringmesh/ringmesh/src/node/state"
	"github.com/sirupsen/logrus"
)

// Node ties a PeerRing to a Transport and drives the stabilization protocol.
// A single background routine consumes inbound RPCs while the main loop runs
// the state machine; both paths mutate the ring through its own lock.
type Node struct {
	state.Manager

	conf   *Config
	logger *logrus.Entry

	ring       *dht.PeerRing
	stabilizer *Stabilizer

	trans net.Transport
	netCh <-chan net.RPC

	// seeds are the bootstrap candidates contacted in the Joining state.
	seeds []dht.Did

	sigintCh   chan os.Signal
	shutdownCh chan struct{}

	rounds      uint64
	roundErrors uint64
}

// NewNode is a factory method that returns a Node instance.
func NewNode(conf *Config,
	ring *dht.PeerRing,
	trans net.Transport,
	seeds []dht.Did,
) *Node {
	// Prepare sigintCh to relay SIGINT system calls
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGINT)

	logger := conf.Logger.WithField("this_id", ring.Did().String())

	node := Node{
		conf:       conf,
		logger:     logger,
		ring:       ring,
		stabilizer: NewStabilizer(ring, trans, logger),
		trans:      trans,
		netCh:      trans.Consumer(),
		seeds:      seeds,
		sigintCh:   sigintCh,
		shutdownCh: make(chan struct{}),
	}

	return &node
}

// Init sets the initial state of the node: Joining when bootstrap seeds are
// configured, Stabilizing when the ring already knows a successor (eg. after
// a restore), Disconnected otherwise.
func (n *Node) Init() error {
	if len(n.seeds) > 0 {
		n.logger.Debug("Seeds configured => Joining")
		n.SetState(state.Joining)
		return nil
	}

	if _, ok := n.ring.Successor(); ok {
		n.logger.Debug("Ring has a successor => Stabilizing")
		n.SetState(state.Stabilizing)
		return nil
	}

	n.logger.Debug("No seeds and empty ring => Disconnected")
	n.SetState(state.Disconnected)
	return nil
}

// RunAsync calls Run in a separate goroutine.
func (n *Node) RunAsync() {
	go n.Run()
}

// Run invokes the main loop of the node.
func (n *Node) Run() {
	// Process inbound requests regardless of the state of the node.
	go n.doBackgroundWork()

	for {
		s := n.GetState()

		n.logger.WithField("state", s.String()).Debug("Run loop")

		switch s {
		case state.Joining:
			n.join()
		case state.Stabilizing:
			n.stabilize()
		case state.Disconnected:
			n.disconnected()
		case state.Shutdown:
			return
		}
	}
}

func (n *Node) doBackgroundWork() {
	for {
		select {
		case rpc := <-n.netCh:
			n.GoFunc(func() {
				n.logger.Debug("Processing RPC")
				n.processRPC(rpc)
			})
		case <-n.shutdownCh:
			return
		case <-n.sigintCh:
			n.logger.Debug("Reacting to SIGINT")
			n.Shutdown()
			os.Exit(0)
		}
	}
}

// join contacts each bootstrap seed in turn and merges the membership
// acknowledgments into the ring. One reachable seed is enough to move to
// Stabilizing; none leaves the node Disconnected.
func (n *Node) join() {
	n.logger.Debug("JOINING")

	for _, seed := range n.seeds {
		req := &net.JoinRequest{Candidate: n.ring.Did()}
		var resp net.JoinResponse

		start := time.Now()
		err := n.trans.Join(seed, req, &resp)
		elapsed := time.Since(start)
		n.logger.WithField("duration", elapsed.Nanoseconds()).Debug("requestJoin()")

		if err != nil {
			n.logger.WithFields(logrus.Fields{
				"seed":  seed.String(),
				"error": err,
			}).Warning("Cannot join seed")
			continue
		}

		if !resp.Accepted {
			n.logger.WithField("seed", seed.String()).Debug("JoinRequest refused")
			continue
		}

		if err := n.ring.Join(seed); err != nil {
			n.logger.WithError(err).Warning("Joining seed")
			continue
		}

		if resp.Predecessor != nil && *resp.Predecessor != n.ring.Did() {
			n.ring.Join(*resp.Predecessor)
		}
		for _, d := range resp.SuccessorList {
			if d != n.ring.Did() {
				n.ring.Join(d)
			}
		}
	}

	if _, ok := n.ring.Successor(); ok {
		n.SetState(state.Stabilizing)
		return
	}

	n.logger.Warning("No seed reachable => Disconnected")
	n.SetState(state.Disconnected)
}

// stabilize runs stabilization rounds at the configured interval until the
// successor list is exhausted or the node shuts down.
func (n *Node) stabilize() {
	n.logger.Debug("STABILIZING")

	ticker := n.conf.Clock.Ticker(n.conf.StabilizeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := n.stabilizer.Once(n.shutdownCh)

			if err == ErrCanceled {
				return
			}

			atomic.AddUint64(&n.rounds, 1)
			if err != nil && err != ErrNoSuccessor {
				atomic.AddUint64(&n.roundErrors, 1)
			}

			n.logStats()

			if _, ok := n.ring.Successor(); !ok {
				n.logger.Warning("Successor list exhausted => Disconnected")
				n.SetState(state.Disconnected)
				return
			}
		case <-n.shutdownCh:
			return
		}
	}
}

// disconnected waits for the ring to observe a peer again, through an
// inbound Join or Notify, or through a manual Join by the application.
func (n *Node) disconnected() {
	n.logger.Debug("DISCONNECTED")

	ticker := n.conf.Clock.Ticker(n.conf.StabilizeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, ok := n.ring.Successor(); ok {
				n.logger.Debug("Ring repopulated => Stabilizing")
				n.SetState(state.Stabilizing)
				return
			}
			if len(n.seeds) > 0 {
				n.logger.Debug("Retrying seeds => Joining")
				n.SetState(state.Joining)
				return
			}
		case <-n.shutdownCh:
			return
		}
	}
}

func (n *Node) processRPC(rpc net.RPC) {
	switch cmd := rpc.Command.(type) {
	case *net.GetSuccessorAndPredecessorRequest:
		n.processGetSuccessorAndPredecessor(rpc, cmd)
	case *net.NotifyRequest:
		n.processNotify(cmd)
	case *net.FindSuccessorRequest:
		n.processFindSuccessor(rpc, cmd)
	case *net.JoinRequest:
		n.processJoin(rpc, cmd)
	default:
		n.logger.WithField("cmd", rpc.Command).Error("Unexpected RPC command")
		rpc.Respond(nil, fmt.Errorf("unexpected command"))
	}
}

func (n *Node) processGetSuccessorAndPredecessor(rpc net.RPC, cmd *net.GetSuccessorAndPredecessorRequest) {
	n.logger.WithField("from", cmd.From.String()).Debug("Process GetSuccessorAndPredecessorRequest")

	pred, succ := n.ring.Snapshot()

	resp := &net.GetSuccessorAndPredecessorResponse{
		From:          n.ring.Did(),
		Predecessor:   pred,
		SuccessorList: succ,
	}

	rpc.Respond(resp, nil)
}

func (n *Node) processNotify(cmd *net.NotifyRequest) {
	n.logger.WithField("candidate", cmd.Candidate.String()).Debug("Process NotifyRequest")

	if err := n.ring.Notify(cmd.Candidate); err != nil {
		n.logger.WithError(err).Warning("Notify")
		return
	}

	// A disconnected node takes any notifier as a successor candidate; this
	// is what makes the ring self-heal without a manual join.
	if _, ok := n.ring.Successor(); !ok {
		if err := n.ring.Join(cmd.Candidate); err != nil {
			n.logger.WithError(err).Warning("Adopting notifier as successor")
		}
	}
}

func (n *Node) processFindSuccessor(rpc net.RPC, cmd *net.FindSuccessorRequest) {
	n.logger.WithFields(logrus.Fields{
		"from": cmd.From.String(),
		"key":  cmd.Key.String(),
	}).Debug("Process FindSuccessorRequest")

	lookup := n.ring.FindSuccessor(cmd.Key)

	resp := &net.FindSuccessorResponse{
		From:   n.ring.Did(),
		Result: lookup,
	}

	rpc.Respond(resp, nil)
}

func (n *Node) processJoin(rpc net.RPC, cmd *net.JoinRequest) {
	n.logger.WithField("candidate", cmd.Candidate.String()).Debug("Process JoinRequest")

	err := n.ring.Join(cmd.Candidate)

	pred, succ := n.ring.Snapshot()

	resp := &net.JoinResponse{
		From:          n.ring.Did(),
		Accepted:      err == nil,
		Predecessor:   pred,
		SuccessorList: succ,
	}

	rpc.Respond(resp, err)
}

// Join inserts candidate into the ring's successor candidate pool. It is the
// manual-join entry point for the application layer; the Disconnected state
// clears on the next tick.
func (n *Node) Join(candidate dht.Did) error {
	return n.ring.Join(candidate)
}

// FindSuccessor computes who is responsible for key from the local view.
func (n *Node) FindSuccessor(key dht.Did) dht.Lookup {
	return n.ring.FindSuccessor(key)
}

// Shutdown shuts the node down cleanly. An in-flight stabilization request
// loses the race against the shutdown signal and its late response is
// discarded.
func (n *Node) Shutdown() {
	if n.GetState() != state.Shutdown {
		n.logger.Debug("Shutdown")

		// Exit any non-shutdown state immediately
		n.SetState(state.Shutdown)

		// Stop and wait for concurrent operations
		close(n.shutdownCh)

		n.WaitRoutines()

		// transport and store should only be closed once all concurrent
		// operations are finished, otherwise they will panic trying to use
		// closed objects
		n.trans.Close()

		n.ring.Store().Close()
	}
}

// Did returns the local ring identifier.
func (n *Node) Did() dht.Did {
	return n.ring.Did()
}

// Ring returns the underlying PeerRing.
func (n *Node) Ring() *dht.PeerRing {
	return n.ring
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	pred := ""
	if p, ok := n.ring.Predecessor(); ok {
		pred = p.String()
	}

	s := map[string]string{
		"id":             n.ring.Did().String(),
		"state":          n.GetState().String(),
		"predecessor":    pred,
		"num_successors": strconv.Itoa(len(n.ring.SuccessorList())),
		"rounds":         strconv.FormatUint(atomic.LoadUint64(&n.rounds), 10),
		"round_errors":   strconv.FormatUint(atomic.LoadUint64(&n.roundErrors), 10),
	}
	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"state":          stats["state"],
		"predecessor":    stats["predecessor"],
		"num_successors": stats["num_successors"],
		"rounds":         stats["rounds"],
		"round_errors":   stats["round_errors"],
	}).Debug("Stats")
}

package state

import (
	"sync"
	"sync/atomic"
)

// State captures the state of a ringmesh node: Joining, Stabilizing,
// Disconnected, or Shutdown.
type State uint32

const (
	// Joining is the state in which a node attempts to enter the ring by
	// contacting its bootstrap seeds.
	Joining State = iota

	// Stabilizing is the steady state in which a node periodically runs the
	// stabilization protocol against its successor, and responds to other
	// requests.
	Stabilizing

	// Disconnected is the state of a node whose successor list is exhausted.
	// It is a degraded-liveness condition, not an error: the node keeps
	// responding to requests and recovers as soon as any peer joins or
	// notifies it.
	Disconnected

	// Shutdown is the state in which a node stops responding to external
	// events and closes its transport.
	Shutdown
)

// WGLIMIT is the maximum number of goroutines that can be launched through
// state.GoFunc
const WGLIMIT = 20

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Joining:
		return "Joining"
	case Stabilizing:
		return "Stabilizing"
	case Disconnected:
		return "Disconnected"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Manager wraps a State with get and set methods. It is also used to limit
// the number of goroutines launched by the node, and to wait for all of them
// to complete.
type Manager struct {
	state   State
	wg      sync.WaitGroup
	wgCount int32
}

// GetState returns the current state.
func (b *Manager) GetState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

// SetState sets the state.
func (b *Manager) SetState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// GoFunc launches a goroutine for a given function, if there are currently
// less than WGLIMIT running. It increments the waitgroup.
func (b *Manager) GoFunc(f func()) {
	tempWgCount := atomic.LoadInt32(&b.wgCount)
	if tempWgCount < WGLIMIT {
		b.wg.Add(1)
		atomic.AddInt32(&b.wgCount, 1)
		go func() {
			defer b.wg.Done()
			defer atomic.AddInt32(&b.wgCount, -1)
			f()
		}()
	}
}

// WaitRoutines waits for all the goroutines in the waitgroup.
func (b *Manager) WaitRoutines() {
	b.wg.Wait()
}

package net

import (
	"reflect"
	"testing"
	"time"

	"github.com/ringmesh/ringmesh/src/common"
	"github.com/ringmesh/ringmesh/src/dht"
)

const (
	INMEM = iota
	TCP
	numTestTransports // NOTE: must be last
)

// testDid returns an identifier whose integer value is n.
func testDid(n byte) dht.Did {
	var d dht.Did
	d[dht.DidByteSize-1] = n
	return d
}

// staticResolver is a fixed identifier-to-address table.
type staticResolver map[dht.Did]string

func (r staticResolver) NetAddr(target dht.Did) (string, error) {
	addr, ok := r[target]
	if !ok {
		return "", ErrUnknownPeer
	}
	return addr, nil
}

func newTestTransport(ttype int, resolver AddrResolver, t *testing.T) Transport {
	switch ttype {
	case INMEM:
		_, it := NewInmemTransport("")
		return it
	case TCP:
		tt, err := NewTCPTransport("127.0.0.1:0", "", resolver, 2, time.Second, common.NewTestEntry(t, common.TestLogLevel))
		if err != nil {
			t.Fatal(err)
		}
		go tt.Listen()
		return tt
	default:
		panic("Unknown transport type")
	}
}

// connect wires trans2 so that it can reach trans1 under did1.
func connect(ttype int, did1 dht.Did, trans1, trans2 Transport, resolver staticResolver) {
	if ttype == INMEM {
		trans2.(*InmemTransport).Connect(did1, trans1)
	} else {
		resolver[did1] = trans1.LocalAddr()
	}
}

func TestTransport_StartStop(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans := newTestTransport(ttype, staticResolver{}, t)
		if err := trans.Close(); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
}

func TestTransport_GetSuccessorAndPredecessor(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		resolver := staticResolver{}

		trans1 := newTestTransport(ttype, resolver, t)
		defer trans1.Close()
		rpcCh := trans1.Consumer()

		args := GetSuccessorAndPredecessorRequest{From: testDid(2)}

		pred := testDid(9)
		resp := GetSuccessorAndPredecessorResponse{
			From:          testDid(1),
			Predecessor:   &pred,
			SuccessorList: []dht.Did{testDid(2), testDid(3)},
		}

		go func() {
			select {
			case rpc := <-rpcCh:
				req := rpc.Command.(*GetSuccessorAndPredecessorRequest)
				if !reflect.DeepEqual(req, &args) {
					t.Errorf("command mismatch: %#v %#v", *req, args)
				}
				rpc.Respond(&resp, nil)

			case <-time.After(200 * time.Millisecond):
				t.Errorf("timeout")
			}
		}()

		trans2 := newTestTransport(ttype, resolver, t)
		defer trans2.Close()

		connect(ttype, testDid(1), trans1, trans2, resolver)

		var out GetSuccessorAndPredecessorResponse
		if err := trans2.GetSuccessorAndPredecessor(testDid(1), &args, &out); err != nil {
			t.Fatalf("err: %v", err)
		}

		if !reflect.DeepEqual(out, resp) {
			t.Fatalf("response mismatch: %#v %#v", out, resp)
		}
	}
}

func TestTransport_FindSuccessor(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		resolver := staticResolver{}

		trans1 := newTestTransport(ttype, resolver, t)
		defer trans1.Close()
		rpcCh := trans1.Consumer()

		args := FindSuccessorRequest{From: testDid(2), Key: testDid(7)}
		resp := FindSuccessorResponse{
			From:   testDid(1),
			Result: dht.Lookup{Kind: dht.LookupRemote, Peer: testDid(5)},
		}

		go func() {
			select {
			case rpc := <-rpcCh:
				req := rpc.Command.(*FindSuccessorRequest)
				if !reflect.DeepEqual(req, &args) {
					t.Errorf("command mismatch: %#v %#v", *req, args)
				}
				rpc.Respond(&resp, nil)

			case <-time.After(200 * time.Millisecond):
				t.Errorf("timeout")
			}
		}()

		trans2 := newTestTransport(ttype, resolver, t)
		defer trans2.Close()

		connect(ttype, testDid(1), trans1, trans2, resolver)

		var out FindSuccessorResponse
		if err := trans2.FindSuccessor(testDid(1), &args, &out); err != nil {
			t.Fatalf("err: %v", err)
		}

		if !reflect.DeepEqual(out, resp) {
			t.Fatalf("response mismatch: %#v %#v", out, resp)
		}
	}
}

func TestTransport_Join(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		resolver := staticResolver{}

		trans1 := newTestTransport(ttype, resolver, t)
		defer trans1.Close()
		rpcCh := trans1.Consumer()

		args := JoinRequest{Candidate: testDid(2)}
		resp := JoinResponse{
			From:          testDid(1),
			Accepted:      true,
			SuccessorList: []dht.Did{testDid(3)},
		}

		go func() {
			select {
			case rpc := <-rpcCh:
				req := rpc.Command.(*JoinRequest)
				if !reflect.DeepEqual(req, &args) {
					t.Errorf("command mismatch: %#v %#v", *req, args)
				}
				rpc.Respond(&resp, nil)

			case <-time.After(200 * time.Millisecond):
				t.Errorf("timeout")
			}
		}()

		trans2 := newTestTransport(ttype, resolver, t)
		defer trans2.Close()

		connect(ttype, testDid(1), trans1, trans2, resolver)

		var out JoinResponse
		if err := trans2.Join(testDid(1), &args, &out); err != nil {
			t.Fatalf("err: %v", err)
		}

		if !reflect.DeepEqual(out, resp) {
			t.Fatalf("response mismatch: %#v %#v", out, resp)
		}
	}
}

func TestTransport_Notify(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		resolver := staticResolver{}

		trans1 := newTestTransport(ttype, resolver, t)
		defer trans1.Close()
		rpcCh := trans1.Consumer()

		trans2 := newTestTransport(ttype, resolver, t)
		defer trans2.Close()

		connect(ttype, testDid(1), trans1, trans2, resolver)

		args := NotifyRequest{Candidate: testDid(2)}

		// Notify returns without waiting for the target to process anything.
		if err := trans2.Notify(testDid(1), &args); err != nil {
			t.Fatalf("err: %v", err)
		}

		select {
		case rpc := <-rpcCh:
			req := rpc.Command.(*NotifyRequest)
			if !reflect.DeepEqual(req, &args) {
				t.Fatalf("command mismatch: %#v %#v", *req, args)
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("timeout waiting for notification")
		}
	}
}

func TestTransport_UnknownPeer(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans := newTestTransport(ttype, staticResolver{}, t)
		defer trans.Close()

		var out GetSuccessorAndPredecessorResponse
		err := trans.GetSuccessorAndPredecessor(testDid(1), &GetSuccessorAndPredecessorRequest{}, &out)
		if err != ErrUnknownPeer {
			t.Fatalf("err should be ErrUnknownPeer, not %v", err)
		}
	}
}

func TestInmemTransport_Timeout(t *testing.T) {
	_, trans1 := NewInmemTransport("")
	defer trans1.Close()

	_, trans2 := NewInmemTransport("")
	defer trans2.Close()

	trans2.Connect(testDid(1), trans1)

	// Nobody consumes trans1's channel once its buffer is full, and nobody
	// ever responds.
	var out GetSuccessorAndPredecessorResponse
	err := trans2.GetSuccessorAndPredecessor(testDid(1), &GetSuccessorAndPredecessorRequest{}, &out)
	if err != ErrTimeout {
		t.Fatalf("err should be ErrTimeout, not %v", err)
	}
}

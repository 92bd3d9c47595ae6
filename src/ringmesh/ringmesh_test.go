package ringmesh

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/ringmesh/ringmesh/src/config"
	"github.com/ringmesh/ringmesh/src/crypto/keys"
	"github.com/ringmesh/ringmesh/src/dht"
	"github.com/ringmesh/ringmesh/src/node/state"
	"github.com/ringmesh/ringmesh/src/peers"
	"github.com/sirupsen/logrus"
)

func testConfig(t *testing.T) (*config.Config, string) {
	dir, err := ioutil.TempDir("", "ringmesh")
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	conf := config.NewTestConfig(t, logrus.ErrorLevel)
	conf.SetDataDir(dir)
	conf.BindAddr = "127.0.0.1:0"
	conf.NoService = true

	return conf, dir
}

func TestInitFreshNode(t *testing.T) {
	conf, dir := testConfig(t)
	defer os.RemoveAll(dir)

	engine := NewRingmesh(conf)

	if err := engine.Init(); err != nil {
		t.Fatalf("err: %v", err)
	}
	defer engine.Node.Shutdown()

	// A key was generated and written to the datadir.
	if conf.Key == nil {
		t.Fatalf("a key should have been generated")
	}
	if _, err := os.Stat(conf.Keyfile()); err != nil {
		t.Fatalf("keyfile should exist: %v", err)
	}

	// The node identifier is derived from the key.
	if engine.Node.Did() != dht.DidFromPubKey(&conf.Key.PublicKey) {
		t.Fatalf("node identifier should be derived from the public key")
	}

	// No peers.json, no seeds, empty ring.
	if s := engine.Node.GetState(); s != state.Disconnected {
		t.Fatalf("state should be Disconnected, not %s", s)
	}
}

func TestInitReusesKey(t *testing.T) {
	conf, dir := testConfig(t)
	defer os.RemoveAll(dir)

	engine := NewRingmesh(conf)
	if err := engine.Init(); err != nil {
		t.Fatalf("err: %v", err)
	}
	did := engine.Node.Did()
	engine.Node.Shutdown()

	conf2 := config.NewTestConfig(t, logrus.ErrorLevel)
	conf2.SetDataDir(dir)
	conf2.BindAddr = "127.0.0.1:0"
	conf2.NoService = true

	engine2 := NewRingmesh(conf2)
	if err := engine2.Init(); err != nil {
		t.Fatalf("err: %v", err)
	}
	defer engine2.Node.Shutdown()

	if engine2.Node.Did() != did {
		t.Fatalf("restarting from the same datadir should keep the identifier")
	}
}

func TestInitWithSeeds(t *testing.T) {
	conf, dir := testConfig(t)
	defer os.RemoveAll(dir)

	// Write a peers.json with one (unreachable) seed.
	key, _ := keys.GenerateECDSAKey()
	seed := peers.NewPeer(keys.PublicKeyHex(&key.PublicKey), "127.0.0.1:65000")

	peerStore := peers.NewJSONPeers(dir)
	if err := peerStore.SetPeers([]*peers.Peer{seed}); err != nil {
		t.Fatalf("err: %v", err)
	}

	engine := NewRingmesh(conf)
	if err := engine.Init(); err != nil {
		t.Fatalf("err: %v", err)
	}
	defer engine.Node.Shutdown()

	if engine.Peers.Len() != 1 {
		t.Fatalf("peer book should contain the seed")
	}
	if s := engine.Node.GetState(); s != state.Joining {
		t.Fatalf("state should be Joining, not %s", s)
	}
}

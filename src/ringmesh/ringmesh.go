package ringmesh

import (
	"fmt"
	"os"

	"github.com/ringmesh/ringmesh/src/config"
	"github.com/ringmesh/ringmesh/src/crypto/keys"
	"github.com/ringmesh/ringmesh/src/dht"
	"github.com/ringmesh/ringmesh/src/net"
	"github.com/ringmesh/ringmesh/src/node"
	"github.com/ringmesh/ringmesh/src/peers"
	"github.com/ringmesh/ringmesh/src/service"
	"github.com/ringmesh/ringmesh/src/storage"
	"github.com/sirupsen/logrus"
)

// Ringmesh is a struct containing the key parts of a ringmesh node.
type Ringmesh struct {
	Config    *config.Config
	Node      *node.Node
	Transport net.Transport
	Store     storage.Store
	Peers     *peers.PeerBook
	Service   *service.Service
}

// NewRingmesh is a factory method that returns a Ringmesh instance.
func NewRingmesh(config *config.Config) *Ringmesh {
	engine := &Ringmesh{
		Config: config,
	}

	return engine
}

// initKey loads the private key from the keyfile, or generates one when no
// keyfile exists yet.
func (r *Ringmesh) initKey() error {
	if r.Config.Key == nil {
		keyfile := keys.NewSimpleKeyfile(r.Config.Keyfile())

		privKey, err := keyfile.ReadKey()

		if err != nil {
			r.Config.Logger().Warnf("Cannot read private key from file: %v", err)

			privKey, err = keys.GenerateECDSAKey()

			if err != nil {
				r.Config.Logger().Errorf("Cannot generate a new private key: %v", err)

				return err
			}

			if err := keyfile.WriteKey(privKey); err != nil {
				r.Config.Logger().Errorf("Cannot write private key: %v", err)

				return err
			}

			r.Config.Logger().Infof("Created a new key: %s", keys.PublicKeyHex(&privKey.PublicKey))
		}

		r.Config.Key = privKey
	}

	return nil
}

// initPeers reads peers.json from the datadir. A missing or empty file is not
// an error; the node simply starts without bootstrap seeds.
func (r *Ringmesh) initPeers() error {
	peerStore := peers.NewJSONPeers(r.Config.DataDir)

	book, err := peerStore.Peers()

	if err != nil {
		if os.IsNotExist(err) {
			r.Config.Logger().Debug("No peers.json file, starting without seeds")
			r.Peers = peers.NewPeerBook()
			return nil
		}
		return err
	}

	if book == nil {
		book = peers.NewPeerBook()
	}

	r.Peers = book

	return nil
}

// initStore opens the underlying key-value store. With Store disabled the
// routing state lives purely in memory and is lost on restart.
func (r *Ringmesh) initStore() error {
	if !r.Config.Store {
		r.Store = storage.NewInmemStore()

		r.Config.Logger().Debug("Created new in-mem store")

		return nil
	}

	r.Config.Logger().WithField("path", r.Config.DatabaseDir).Debug("Attempting to open database")

	var err error

	if r.Config.Bootstrap {
		r.Store, err = storage.LoadBadgerStore(r.Config.DatabaseDir, r.Config.CacheSize)
	} else {
		r.Store, err = storage.NewBadgerStore(r.Config.DatabaseDir, r.Config.CacheSize)
	}

	if err != nil {
		return err
	}

	r.Config.Logger().Debug("Opened badger store")

	return nil
}

// initTransport starts the TCP transport on BindAddr, with the peer book as
// address resolver.
func (r *Ringmesh) initTransport() error {
	transport, err := net.NewTCPTransport(
		r.Config.BindAddr,
		r.Config.AdvertiseAddr,
		r.Peers,
		r.Config.MaxPool,
		r.Config.TCPTimeout,
		r.Config.Logger(),
	)

	if err != nil {
		return err
	}

	r.Transport = transport

	return nil
}

// initNode builds the PeerRing and Node. With Bootstrap set, the routing
// state is restored from the store; a corrupted record aborts initialisation
// rather than starting from a silently truncated view.
func (r *Ringmesh) initNode() error {
	key := r.Config.Key

	did := dht.DidFromPubKey(&key.PublicKey)

	var ring *dht.PeerRing
	var err error

	ringLogger := r.Config.Logger().WithField("this_id", did.String())

	if r.Config.Bootstrap {
		ring, err = dht.LoadPeerRing(did, r.Config.SuccessorListSize, r.Store, ringLogger)
		if err != nil {
			return fmt.Errorf("failed to load ring state: %s", err)
		}
	} else {
		ring = dht.NewPeerRing(did, r.Config.SuccessorListSize, r.Store, ringLogger)
	}

	// Every peer in peers.json, except ourselves, is a bootstrap seed.
	seeds := []dht.Did{}
	for _, d := range r.Peers.Dids() {
		if d != did {
			seeds = append(seeds, d)
		}
	}

	r.Config.Logger().WithFields(logrus.Fields{
		"id":        did.String(),
		"num_seeds": len(seeds),
		"moniker":   r.Config.Moniker,
	}).Debug("INIT")

	nodeConfig := node.NewConfig(
		r.Config.StabilizeInterval,
		r.Config.TCPTimeout,
		r.Config.Logger().Logger,
	)

	r.Node = node.NewNode(
		nodeConfig,
		ring,
		r.Transport,
		seeds,
	)

	if err := r.Node.Init(); err != nil {
		return fmt.Errorf("failed to initialize node: %s", err)
	}

	return nil
}

// initService instantiates the HTTP API unless NoService is set.
func (r *Ringmesh) initService() error {
	if !r.Config.NoService {
		r.Service = service.NewService(r.Config.ServiceAddr, r.Node, r.Peers, r.Config.Logger())
	}
	return nil
}

// Init initialises the ringmesh engine. The set-up steps run in dependency
// order; any failure aborts the whole initialisation.
func (r *Ringmesh) Init() error {
	if err := r.initPeers(); err != nil {
		return err
	}

	if err := r.initStore(); err != nil {
		return err
	}

	if err := r.initKey(); err != nil {
		return err
	}

	if err := r.initTransport(); err != nil {
		return err
	}

	if err := r.initNode(); err != nil {
		return err
	}

	if err := r.initService(); err != nil {
		return err
	}

	return nil
}

// Run starts the transport listener, the service, and the node run loop. This
// is a blocking call.
func (r *Ringmesh) Run() {
	go r.Transport.Listen()

	if r.Service != nil {
		go r.Service.Serve()
	}

	r.Node.Run()
}

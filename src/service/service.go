package service

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/ringmesh/ringmesh/src/dht"
	"github.com/ringmesh/ringmesh/src/node"
	"github.com/ringmesh/ringmesh/src/peers"
	"github.com/sirupsen/logrus"
)

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	peerBook    *peers.PeerBook
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, n *node.Node, peerBook *peers.PeerBook, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		peerBook:    peerBook,
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers with the DefaultServerMux of the
// http package. It is possible that another server in the same process is
// simultaneously using the DefaultServerMux. In which case, the handlers will
// be accessible from both servers. This is usefull when ringmesh is used
// in-memory and expecpted to use the same endpoint (address:port) as the
// application's API.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering ringmesh API handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/ring", s.makeHandler(s.GetRing))
	http.HandleFunc("/successor/", s.makeHandler(s.GetSuccessor))
	http.HandleFunc("/peers", s.makeHandler(s.GetPeers))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call. It is not necessary to
// call Serve when ringmesh is used in-memory and another server has already
// been started with the DefaultServerMux and the same address:port
// combination. Indeed, ringmesh API handlers have already been registered when
// the service was instantiated.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving ringmesh API")

	// Use the DefaultServerMux
	err := http.ListenAndServe(s.bindAddress, nil)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// ringInfo is the JSON shape of the /ring endpoint.
type ringInfo struct {
	ID          string   `json:"id"`
	Predecessor string   `json:"predecessor,omitempty"`
	Successors  []string `json:"successors"`
}

// GetRing returns the local routing view: this node's identifier, its
// predecessor, and its successor list in ring order.
func (s *Service) GetRing(w http.ResponseWriter, r *http.Request) {
	pred, succ := s.node.Ring().Snapshot()

	info := ringInfo{
		ID:         s.node.Did().String(),
		Successors: []string{},
	}
	if pred != nil {
		info.Predecessor = pred.String()
	}
	for _, d := range succ {
		info.Successors = append(info.Successors, d.String())
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(info)
}

// lookupResult is the JSON shape of the /successor/{key} endpoint.
type lookupResult struct {
	Key    string `json:"key"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// GetSuccessor resolves the hex identifier in the URL path against the local
// routing view and reports whether the answer is definitive (local) or a
// forwarding hint (remote).
func (s *Service) GetSuccessor(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Path[len("/successor/"):]

	key, err := dht.DidFromHex(param)

	if err != nil {
		s.logger.WithError(err).Errorf("Parsing key parameter %s", param)

		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	lookup := s.node.FindSuccessor(key)

	res := lookupResult{
		Key:    key.String(),
		Kind:   lookup.Kind.String(),
		Target: lookup.Peer.String(),
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(res)
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)

	encoder.Encode(s.peerBook.ToPeerSlice())
}

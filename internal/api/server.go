// Package api is the reference map server: it owns one chain map in memory,
// applies client commands to it and pushes every new snapshot to all
// connected sockets. Clients reach it over /map.ws or the /map.json/{verb}
// fallback.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/singleflight"

	"eve-chainmap/internal/auth"
	"eve-chainmap/internal/chain"
	"eve-chainmap/internal/config"
	"eve-chainmap/internal/db"
	"eve-chainmap/internal/graph"
	"eve-chainmap/internal/model"
)

// Server is the HTTP server that connects the chain, the universe data and the connected clients.
type Server struct {
	cfg      config.ServerConfig
	db       *db.DB
	universe *graph.Universe
	signer   *auth.Signer
	upgrader websocket.Upgrader

	// mu serialises every map mutation and snapshot.
	mu    sync.Mutex
	chain *chain.Chain

	connsMu sync.RWMutex
	conns   map[string]*conn

	// Trade-hub routes per k-space system; the stargate graph never changes.
	routeGroup   singleflight.Group
	routeCacheMu sync.RWMutex
	routeCache   map[int32]model.Routes
}

// NewServer creates a Server with the given config, database and stargate graph.
func NewServer(cfg config.ServerConfig, database *db.DB, universe *graph.Universe, signer *auth.Signer) *Server {
	if universe == nil {
		universe = graph.NewUniverse()
	}
	return &Server{
		cfg:      cfg,
		db:       database,
		universe: universe,
		signer:   signer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		chain:      chain.New(),
		conns:      make(map[string]*conn),
		routeCache: make(map[int32]model.Routes),
	}
}

// Handler returns the HTTP handler with all routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /map.ws", s.handleWebSocket)
	mux.HandleFunc("GET /map.json/{verb}", s.handleAJAX)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/log", s.handleLog)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	systems := s.chain.Map().Len()
	roots := len(s.chain.Map().Roots())
	s.mu.Unlock()

	s.connsMu.RLock()
	conns := len(s.conns)
	s.connsMu.RUnlock()

	writeJSON(w, map[string]interface{}{
		"systems":         systems,
		"chains":          roots,
		"connections":     conns,
		"universe":        s.universe.Len(),
		"home_system":     s.cfg.HomeSystem,
		"database_loaded": s.db != nil,
	})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, []db.LogEntry{})
		return
	}
	writeJSON(w, s.db.RecentLog(s.cfg.LogLimit))
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kraliki/swarm-ops/internal/caretaker"
	"github.com/kraliki/swarm-ops/internal/genomes"
	"github.com/kraliki/swarm-ops/internal/leaderboard"
	"github.com/kraliki/swarm-ops/internal/runstore"
	"github.com/kraliki/swarm-ops/internal/swarm"
)

// Controller drives the swarm state machine.
type Controller interface {
	State() *swarm.PauseState
	Pause(actor string, killRunning bool) (swarm.Result, error)
	Resume() (swarm.Result, error)
	Power(action string) (swarm.Result, error)
	Spawn(genome string) (swarm.SpawnResult, error)
}

// HealthMonitor produces fleet health snapshots.
type HealthMonitor interface {
	Snapshot() *caretaker.Report
}

// GenomeRoster serves and mutates the genome directory.
type GenomeRoster interface {
	View(points map[string]int) *genomes.View
	Toggle(name string, enable bool) error
}

// Leaderboard builds the merged ranking view.
type Leaderboard interface {
	Build() *leaderboard.View
	PointsByID() map[string]int
}

// RunStore persists spawn runs and health snapshots. A nil store
// disables history without affecting the live endpoints.
type RunStore interface {
	SaveSpawnRun(run *runstore.SpawnRun) error
	ListRecentSpawnRuns(limit int) ([]*runstore.SpawnRun, error)
	CountSpawnRunsSince(cutoff time.Time) (int, error)
	LatestSnapshot() (*caretaker.Report, error)
}

// Server is the HTTP API server
type Server struct {
	controller Controller
	monitor    HealthMonitor
	roster     GenomeRoster
	board      Leaderboard
	runs       RunStore
	addr       string
	mux        *http.ServeMux
	sseHub     *SSEHub
}

// NewServer creates a new API server
func NewServer(controller Controller, monitor HealthMonitor, roster GenomeRoster, board Leaderboard, runs RunStore, addr string) *Server {
	s := &Server{
		controller: controller,
		monitor:    monitor,
		roster:     roster,
		board:      board,
		runs:       runs,
		addr:       addr,
		mux:        http.NewServeMux(),
		sseHub:     NewSSEHub(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API routes
	s.mux.HandleFunc("/api/status", s.statusHandler())
	s.mux.HandleFunc("/api/pause", s.pauseHandler())
	s.mux.HandleFunc("/api/power", s.powerHandler())
	s.mux.HandleFunc("/api/spawn", s.spawnHandler())
	s.mux.HandleFunc("/api/spawns", s.spawnHistoryHandler())
	s.mux.HandleFunc("/api/leaderboard", s.leaderboardHandler())
	s.mux.HandleFunc("/api/genomes", s.genomesHandler())
	s.mux.HandleFunc("/api/health", s.healthHandler())
	s.mux.HandleFunc("/api/events", s.sseHandler())

	// Static files (dashboard build output)
	s.mux.Handle("/", http.FileServer(http.Dir("web/ui/build")))
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.sseHub.Run()
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// Broadcast sends an event to all SSE clients
func (s *Server) Broadcast(event SSEEvent) {
	s.sseHub.Broadcast(event)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

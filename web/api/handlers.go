package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kraliki/swarm-ops/internal/domain"
	"github.com/kraliki/swarm-ops/internal/runstore"
	"github.com/kraliki/swarm-ops/internal/swarm"
)

// PauseStateResponse is the API response for the pause state
type PauseStateResponse struct {
	Paused   bool    `json:"paused"`
	PausedAt *string `json:"paused_at,omitempty"`
	PausedBy *string `json:"paused_by,omitempty"`
}

// StatusResponse is the API response for overall swarm status
type StatusResponse struct {
	Paused         bool     `json:"paused"`
	PausedBy       *string  `json:"paused_by,omitempty"`
	AgentsOnline   int      `json:"agents_online"`
	AgentsTotal    int      `json:"agents_total"`
	ServicesOnline int      `json:"services_online"`
	ServicesTotal  int      `json:"services_total"`
	LongRunning    int      `json:"long_running"`
	ActiveGenomes  int      `json:"active_genomes"`
	SpawnsToday    int      `json:"spawns_today"`
	Summary        []string `json:"summary,omitempty"`
}

// pauseRequest is the POST /api/pause body
type pauseRequest struct {
	Action      string `json:"action"`
	Actor       string `json:"actor"`
	KillRunning bool   `json:"kill_running"`
}

// powerRequest is the POST /api/power body
type powerRequest struct {
	Action string `json:"action"`
}

// spawnRequest is the POST /api/spawn body
type spawnRequest struct {
	Genome string `json:"genome"`
}

// toggleRequest is the POST /api/genomes body
type toggleRequest struct {
	Genome  string `json:"genome"`
	Enabled bool   `json:"enabled"`
}

func pauseStateToResponse(state *swarm.PauseState) PauseStateResponse {
	resp := PauseStateResponse{Paused: state.Paused, PausedBy: state.PausedBy}
	if state.PausedAt != nil {
		t := state.PausedAt.Format(time.RFC3339)
		resp.PausedAt = &t
	}
	return resp
}

func (s *Server) pauseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, pauseStateToResponse(s.controller.State()))

		case http.MethodPost:
			var req pauseRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if req.Actor == "" {
				req.Actor = "api"
			}

			var (
				result swarm.Result
				err    error
			)
			switch req.Action {
			case "pause":
				result, err = s.controller.Pause(req.Actor, req.KillRunning)
			case "resume":
				result, err = s.controller.Resume()
			default:
				writeError(w, http.StatusBadRequest, "action must be \"pause\" or \"resume\"")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}

			s.Broadcast(SSEEvent{Type: "pause_update", Data: pauseStateToResponse(s.controller.State())})
			writeJSON(w, result)

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) powerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req powerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := s.controller.Power(req.Action)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, result)
	}
}

func (s *Server) spawnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req spawnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Genome == "" {
			writeError(w, http.StatusBadRequest, "genome is required")
			return
		}

		result, err := s.controller.Spawn(req.Genome)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.recordSpawn(result)
		s.Broadcast(SSEEvent{Type: "spawn_update", Data: result})
		writeJSON(w, result)
	}
}

// recordSpawn persists the spawn attempt when a run store is wired.
func (s *Server) recordSpawn(result swarm.SpawnResult) {
	if s.runs == nil {
		return
	}
	runID := result.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	_ = s.runs.SaveSpawnRun(&runstore.SpawnRun{
		ID:      runID,
		Genome:  result.Genome,
		CLI:     domain.GenomeCLI(result.Genome),
		Success: result.Success,
		Output:  result.Output,
		Error:   result.Error,
	})
}

func (s *Server) spawnHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if s.runs == nil {
			writeJSON(w, []*runstore.SpawnRun{})
			return
		}
		runs, err := s.runs.ListRecentSpawnRuns(50)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if runs == nil {
			runs = []*runstore.SpawnRun{}
		}
		writeJSON(w, runs)
	}
}

func (s *Server) leaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, s.board.Build())
	}
}

func (s *Server) genomesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, s.roster.View(s.board.PointsByID()))

		case http.MethodPost:
			var req toggleRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if req.Genome == "" {
				writeError(w, http.StatusBadRequest, "genome is required")
				return
			}
			if err := s.roster.Toggle(req.Genome, req.Enabled); err != nil {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeJSON(w, s.roster.View(s.board.PointsByID()))

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		// Serve the scheduled caretaker's last report when one exists,
		// otherwise take a snapshot on demand.
		if s.runs != nil {
			if report, err := s.runs.LatestSnapshot(); err == nil && report != nil {
				writeJSON(w, report)
				return
			}
		}
		writeJSON(w, s.monitor.Snapshot())
	}
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		state := s.controller.State()
		report := s.monitor.Snapshot()
		roster := s.roster.View(s.board.PointsByID())

		spawnsToday := 0
		if s.runs != nil {
			now := time.Now()
			midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			if n, err := s.runs.CountSpawnRunsSince(midnight); err == nil {
				spawnsToday = n
			}
		}

		writeJSON(w, StatusResponse{
			Paused:         state.Paused,
			PausedBy:       state.PausedBy,
			AgentsOnline:   report.AgentsOnline,
			AgentsTotal:    report.AgentsTotal,
			ServicesOnline: report.ServicesOnline,
			ServicesTotal:  report.ServicesTotal,
			LongRunning:    len(report.LongRunning),
			ActiveGenomes:  roster.ActiveToday,
			SpawnsToday:    spawnsToday,
			Summary:        report.Summary,
		})
	}
}

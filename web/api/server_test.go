package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kraliki/swarm-ops/internal/caretaker"
	"github.com/kraliki/swarm-ops/internal/genomes"
	"github.com/kraliki/swarm-ops/internal/leaderboard"
	"github.com/kraliki/swarm-ops/internal/procman"
	"github.com/kraliki/swarm-ops/internal/runstore"
	"github.com/kraliki/swarm-ops/internal/swarm"
)

type stubManager struct {
	killed int
}

func (m *stubManager) List() ([]procman.ProcessInfo, error) { return nil, nil }
func (m *stubManager) Start(name string) error              { return nil }
func (m *stubManager) Stop(name string) error               { return nil }
func (m *stubManager) Restart(name string) error            { return nil }
func (m *stubManager) KillMatching(pattern string) (int, error) {
	m.killed++
	return 1, nil
}

type stubSpawner struct {
	spawned []string
}

func (s *stubSpawner) Spawn(genome string) (procman.SpawnResult, error) {
	s.spawned = append(s.spawned, genome)
	return procman.SpawnResult{RunID: "run-1", Genome: genome, Output: "spawned " + genome}, nil
}

type stubMonitor struct {
	report *caretaker.Report
}

func (m *stubMonitor) Snapshot() *caretaker.Report { return m.report }

type testServer struct {
	*Server
	proc    *stubManager
	spawner *stubSpawner
	dir     string
}

func newTestServer(t *testing.T, runs RunStore) *testServer {
	t.Helper()
	dir := t.TempDir()

	genomeDir := filepath.Join(dir, "genomes")
	if err := os.MkdirAll(genomeDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"claude_architect.md", "opencode_backend.md"} {
		if err := os.WriteFile(filepath.Join(genomeDir, name), []byte("# genome\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	proc := &stubManager{}
	spawner := &stubSpawner{}
	controller := swarm.NewController(
		swarm.NewPolicyStore(filepath.Join(dir, "cli-control.json")),
		swarm.NewPauseStore(filepath.Join(dir, "swarm-pause.json")),
		proc, spawner, []string{"kraliki-dashboard"},
	)
	monitor := &stubMonitor{report: &caretaker.Report{
		TakenAt:        time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		AgentsTotal:    3,
		AgentsOnline:   2,
		ServicesOnline: 1,
		ServicesTotal:  1,
		LongRunning:    []caretaker.LongRunner{{Name: "CC-architect", PID: 42, Age: "10h0m0s"}},
		Summary:        []string{"agents: 2/3 online, 0 errored"},
	}}
	roster := genomes.NewRoster(genomeDir, filepath.Join(dir, "decisions.jsonl"))
	board := leaderboard.New(filepath.Join(dir, "leaderboard.json"), filepath.Join(dir, "fitness.json"))

	server := NewServer(controller, monitor, roster, board, runs, ":0")
	go server.sseHub.Run()
	return &testServer{Server: server, proc: proc, spawner: spawner, dir: dir}
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPauseLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	h := ts.Handler()

	// Fresh swarm is running.
	w := doJSON(t, h, "GET", "/api/pause", "")
	var state PauseStateResponse
	json.NewDecoder(w.Body).Decode(&state)
	if state.Paused {
		t.Fatal("fresh swarm should not be paused")
	}

	// Spawning works while running.
	w = doJSON(t, h, "POST", "/api/spawn", `{"genome":"claude_architect"}`)
	var spawnRes swarm.SpawnResult
	json.NewDecoder(w.Body).Decode(&spawnRes)
	if !spawnRes.Success {
		t.Fatalf("spawn while running = %+v", spawnRes)
	}

	// Pause with kill_running.
	w = doJSON(t, h, "POST", "/api/pause", `{"action":"pause","actor":"ops","kill_running":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("pause status = %d", w.Code)
	}
	var result swarm.Result
	json.NewDecoder(w.Body).Decode(&result)
	if !result.Success || result.Killed == 0 {
		t.Errorf("pause result = %+v", result)
	}

	w = doJSON(t, h, "GET", "/api/pause", "")
	json.NewDecoder(w.Body).Decode(&state)
	if !state.Paused || state.PausedBy == nil || *state.PausedBy != "ops" {
		t.Errorf("paused state = %+v", state)
	}

	// Spawns are rejected while paused.
	w = doJSON(t, h, "POST", "/api/spawn", `{"genome":"claude_architect"}`)
	json.NewDecoder(w.Body).Decode(&spawnRes)
	if spawnRes.Success || !strings.Contains(spawnRes.Error, "paused") {
		t.Errorf("spawn while paused = %+v", spawnRes)
	}
	if len(ts.spawner.spawned) != 1 {
		t.Errorf("spawner invoked %d times, want 1", len(ts.spawner.spawned))
	}

	// Resume restores spawning.
	w = doJSON(t, h, "POST", "/api/pause", `{"action":"resume"}`)
	json.NewDecoder(w.Body).Decode(&result)
	if !result.Success {
		t.Errorf("resume result = %+v", result)
	}
	w = doJSON(t, h, "POST", "/api/spawn", `{"genome":"claude_architect"}`)
	json.NewDecoder(w.Body).Decode(&spawnRes)
	if !spawnRes.Success {
		t.Errorf("spawn after resume = %+v", spawnRes)
	}
}

func TestPauseHandlerRejectsUnknownAction(t *testing.T) {
	ts := newTestServer(t, nil)
	w := doJSON(t, ts.Handler(), "POST", "/api/pause", `{"action":"halt"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
}

func TestPowerHandler(t *testing.T) {
	ts := newTestServer(t, nil)
	h := ts.Handler()

	w := doJSON(t, h, "POST", "/api/power", `{"action":"on"}`)
	if w.Code != http.StatusOK {
		t.Errorf("power on status = %d", w.Code)
	}
	var result swarm.Result
	json.NewDecoder(w.Body).Decode(&result)
	if !result.Success {
		t.Errorf("power on result = %+v", result)
	}

	w = doJSON(t, h, "POST", "/api/power", `{"action":"explode"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want 400", w.Code)
	}
}

func TestSpawnHandlerRequiresGenome(t *testing.T) {
	ts := newTestServer(t, nil)
	w := doJSON(t, ts.Handler(), "POST", "/api/spawn", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
}

func TestSpawnHandlerRecordsRun(t *testing.T) {
	store, err := runstore.New(filepath.Join(t.TempDir(), "swarm.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ts := newTestServer(t, store)
	w := doJSON(t, ts.Handler(), "POST", "/api/spawn", `{"genome":"claude_architect"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}

	runs, err := store.ListRecentSpawnRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Genome != "claude_architect" || runs[0].CLI != "claude" {
		t.Errorf("recorded runs = %+v", runs)
	}

	w = doJSON(t, ts.Handler(), "GET", "/api/spawns", "")
	var listed []*runstore.SpawnRun
	json.NewDecoder(w.Body).Decode(&listed)
	if len(listed) != 1 {
		t.Errorf("history = %+v", listed)
	}

	w = doJSON(t, ts.Handler(), "GET", "/api/status", "")
	var status StatusResponse
	json.NewDecoder(w.Body).Decode(&status)
	if status.SpawnsToday != 1 {
		t.Errorf("SpawnsToday = %d, want 1", status.SpawnsToday)
	}
}

func TestGenomesHandlerToggle(t *testing.T) {
	ts := newTestServer(t, nil)
	h := ts.Handler()

	w := doJSON(t, h, "POST", "/api/genomes", `{"genome":"claude_architect","enabled":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", w.Code, w.Body.String())
	}

	var view genomes.View
	json.NewDecoder(w.Body).Decode(&view)
	for _, g := range view.Genomes {
		if g.Name == "claude_architect" && g.Enabled {
			t.Error("claude_architect should be disabled after toggle")
		}
	}

	if _, err := os.Stat(filepath.Join(ts.dir, "genomes", "claude_architect.md.disabled")); err != nil {
		t.Errorf("disabled file missing: %v", err)
	}

	w = doJSON(t, h, "POST", "/api/genomes", `{"genome":"nope","enabled":false}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown genome status = %d, want 404", w.Code)
	}
}

func TestHealthHandlerLiveFallback(t *testing.T) {
	ts := newTestServer(t, nil)
	w := doJSON(t, ts.Handler(), "GET", "/api/health", "")

	var report caretaker.Report
	json.NewDecoder(w.Body).Decode(&report)
	if report.AgentsTotal != 3 {
		t.Errorf("AgentsTotal = %d, want live snapshot", report.AgentsTotal)
	}
}

func TestHealthHandlerPrefersStoredSnapshot(t *testing.T) {
	store, err := runstore.New(filepath.Join(t.TempDir(), "swarm.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	stored := &caretaker.Report{
		TakenAt:     time.Date(2026, 8, 26, 11, 0, 0, 0, time.UTC),
		AgentsTotal: 9,
		LongRunning: []caretaker.LongRunner{},
	}
	if err := store.SaveSnapshot(stored); err != nil {
		t.Fatal(err)
	}

	ts := newTestServer(t, store)
	w := doJSON(t, ts.Handler(), "GET", "/api/health", "")

	var report caretaker.Report
	json.NewDecoder(w.Body).Decode(&report)
	if report.AgentsTotal != 9 {
		t.Errorf("AgentsTotal = %d, want stored snapshot", report.AgentsTotal)
	}
}

func TestStatusHandler(t *testing.T) {
	ts := newTestServer(t, nil)
	w := doJSON(t, ts.Handler(), "GET", "/api/status", "")

	var status StatusResponse
	json.NewDecoder(w.Body).Decode(&status)
	if status.Paused {
		t.Error("fresh swarm reported paused")
	}
	if status.AgentsOnline != 2 || status.AgentsTotal != 3 {
		t.Errorf("agents = %d/%d", status.AgentsOnline, status.AgentsTotal)
	}
	if status.LongRunning != 1 {
		t.Errorf("LongRunning = %d, want 1", status.LongRunning)
	}
}

func TestLeaderboardHandlerEmptyInputs(t *testing.T) {
	ts := newTestServer(t, nil)
	w := doJSON(t, ts.Handler(), "GET", "/api/leaderboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}

	var view leaderboard.View
	json.NewDecoder(w.Body).Decode(&view)
	if view.Entries == nil {
		t.Error("entries should decode to an empty slice, not null")
	}
}

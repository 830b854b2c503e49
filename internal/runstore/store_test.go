package runstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kraliki/swarm-ops/internal/caretaker"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "swarm.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSpawnRunRoundTrip(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	runs := []*SpawnRun{
		{ID: "run-1", Genome: "claude_architect", CLI: "claude", Success: true, Output: "spawned", CreatedAt: base},
		{ID: "run-2", Genome: "opencode_backend", CLI: "opencode", Success: false, Error: "exit status 2", CreatedAt: base.Add(time.Minute)},
	}
	for _, run := range runs {
		if err := store.SaveSpawnRun(run); err != nil {
			t.Fatalf("SaveSpawnRun(%s): %v", run.ID, err)
		}
	}

	got, err := store.ListRecentSpawnRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d runs, want 2", len(got))
	}
	// Newest first.
	if got[0].ID != "run-2" || got[1].ID != "run-1" {
		t.Errorf("order = %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Error != "exit status 2" || got[0].Success {
		t.Errorf("failed run = %+v", got[0])
	}
	if got[1].Output != "spawned" {
		t.Errorf("output = %q", got[1].Output)
	}
}

func TestListRecentSpawnRunsLimit(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		run := &SpawnRun{ID: id, Genome: "claude_x", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.SaveSpawnRun(run); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ListRecentSpawnRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "c" {
		t.Errorf("limited list = %+v", got)
	}
}

func TestCountSpawnRunsSince(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new"} {
		run := &SpawnRun{ID: id, Genome: "claude_x", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.SaveSpawnRun(run); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.CountSpawnRunsSince(base.Add(30 * time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if report, err := store.LatestSnapshot(); err != nil || report != nil {
		t.Fatalf("empty store: report=%v err=%v", report, err)
	}

	first := &caretaker.Report{
		TakenAt:        time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
		AgentsTotal:    5,
		AgentsOnline:   3,
		ServicesOnline: 2,
		ServicesTotal:  2,
		Resources:      caretaker.Resources{MemoryUsedPct: 61.5, Load1: 1.2},
		LongRunning:    []caretaker.LongRunner{{Name: "darwin-claude-backend", PID: 7, Age: "10h0m0s"}},
		Summary:        []string{"agents: 3/5 online"},
	}
	if err := store.SaveSnapshot(first); err != nil {
		t.Fatal(err)
	}

	second := &caretaker.Report{
		TakenAt:      time.Date(2026, 8, 26, 10, 5, 0, 0, time.UTC),
		AgentsTotal:  4,
		AgentsOnline: 4,
		LongRunning:  []caretaker.LongRunner{},
	}
	if err := store.SaveSnapshot(second); err != nil {
		t.Fatal(err)
	}

	got, err := store.LatestSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.TakenAt.Equal(second.TakenAt) {
		t.Fatalf("latest = %+v", got)
	}
	if got.AgentsOnline != 4 {
		t.Errorf("AgentsOnline = %d", got.AgentsOnline)
	}
}

// Package runstore provides SQLite-backed history for spawn runs and
// caretaker health snapshots, so dashboards keep their history across
// process restarts.
package runstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kraliki/swarm-ops/internal/caretaker"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for operational history.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SpawnRun is one recorded invocation of the spawn script.
type SpawnRun struct {
	ID        string    `json:"id"`
	Genome    string    `json:"genome"`
	CLI       string    `json:"cli"`
	Success   bool      `json:"success"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveSpawnRun records a spawn attempt.
func (s *Store) SaveSpawnRun(run *SpawnRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO spawn_runs (id, genome, cli, success, output, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Genome, run.CLI, run.Success, run.Output, run.Error, run.CreatedAt)
	return err
}

// ListRecentSpawnRuns returns up to limit spawn runs, newest first.
func (s *Store) ListRecentSpawnRuns(limit int) ([]*SpawnRun, error) {
	rows, err := s.db.Query(`
		SELECT id, genome, cli, success, output, error, created_at
		FROM spawn_runs ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*SpawnRun
	for rows.Next() {
		var run SpawnRun
		var output, errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.Genome, &run.CLI, &run.Success, &output, &errMsg, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Output = output.String
		run.Error = errMsg.String
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// CountSpawnRunsSince returns how many spawn runs were recorded at or
// after the cutoff.
func (s *Store) CountSpawnRunsSince(cutoff time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM spawn_runs WHERE created_at >= ?`, cutoff).Scan(&n)
	return n, err
}

// SaveSnapshot records a caretaker health report.
func (s *Store) SaveSnapshot(report *caretaker.Report) error {
	full, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO health_snapshots (taken_at, agents_total, agents_online, agents_errored,
			services_online, services_total, memory_used_pct, disk_used_pct, load_1, long_running, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.TakenAt,
		report.AgentsTotal,
		report.AgentsOnline,
		report.AgentsErrored,
		report.ServicesOnline,
		report.ServicesTotal,
		report.Resources.MemoryUsedPct,
		report.Resources.DiskUsedPct,
		report.Resources.Load1,
		len(report.LongRunning),
		string(full),
	)
	return err
}

// LatestSnapshot returns the most recent health report, or nil when
// none has been recorded yet.
func (s *Store) LatestSnapshot() (*caretaker.Report, error) {
	var full string
	err := s.db.QueryRow(`SELECT report FROM health_snapshots ORDER BY taken_at DESC, id DESC LIMIT 1`).Scan(&full)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var report caretaker.Report
	if err := json.Unmarshal([]byte(full), &report); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &report, nil
}

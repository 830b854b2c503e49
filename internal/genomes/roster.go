// Package genomes manages the on-disk genome roster: one markdown file
// per genome, with a ".disabled" suffix marking inactive genomes.
package genomes

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kraliki/swarm-ops/internal/domain"
)

// Genome is one roster entry with its derived daily stats.
type Genome struct {
	Name         string `json:"name"`
	CLI          string `json:"cli"`
	Enabled      bool   `json:"enabled"`
	SpawnsToday  int    `json:"spawns_today"`
	PointsEarned int    `json:"points_earned"`
	Decisions    int    `json:"decisions"`
	LastActive   string `json:"last_active,omitempty"`
}

// CLIRollup aggregates roster stats per CLI.
type CLIRollup struct {
	Genomes int `json:"genomes"`
	Spawns  int `json:"spawns"`
	Points  int `json:"points"`
}

// View is the roster as served to the dashboard.
type View struct {
	Genomes     []Genome             `json:"genomes"`
	ByCLI       map[string]CLIRollup `json:"by_cli"`
	ActiveToday int                  `json:"active_today"`
}

// file is a raw roster directory entry.
type file struct {
	Name    string // genome stem, e.g. "claude_architect"
	Enabled bool
}

// Roster reads and mutates the genome directory. A Watcher (below) can
// invalidate the listing cache on file changes.
type Roster struct {
	dir         string
	decisionLog string
	now         func() time.Time

	mu     sync.Mutex
	cached []file
	valid  bool
}

// NewRoster creates a roster over the given genome directory and
// decision-trace log.
func NewRoster(dir, decisionLog string) *Roster {
	return &Roster{dir: dir, decisionLog: decisionLog, now: time.Now}
}

// files lists the roster directory, via the cache when valid. A missing
// directory reads as an empty roster.
func (r *Roster) files() []file {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.valid {
		return r.cached
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil
	}

	var files []file
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".md.disabled"):
			files = append(files, file{Name: strings.TrimSuffix(name, ".md.disabled"), Enabled: false})
		case strings.HasSuffix(name, ".md"):
			files = append(files, file{Name: strings.TrimSuffix(name, ".md"), Enabled: true})
		}
	}

	r.cached = files
	r.valid = true
	return files
}

// Invalidate drops the listing cache.
func (r *Roster) Invalidate() {
	r.mu.Lock()
	r.valid = false
	r.mu.Unlock()
}

// Toggle enables or disables a genome by renaming its file. Exactly one
// of <name>.md and <name>.md.disabled exists before and after.
func (r *Roster) Toggle(name string, enable bool) error {
	enabled := filepath.Join(r.dir, name+".md")
	disabled := filepath.Join(r.dir, name+".md.disabled")

	from, to := enabled, disabled
	if enable {
		from, to = disabled, enabled
	}

	if _, err := os.Stat(to); err == nil {
		return nil // Already in the requested state.
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("toggling genome %s: %w", name, err)
	}
	r.Invalidate()
	return nil
}

// decision is one line of the decision-trace JSONL log.
type decision struct {
	Genome string `json:"genome"`
	Type   string `json:"type"`
	Ts     string `json:"ts"`
}

// genomeStats holds per-genome counters derived from the decision log.
type genomeStats struct {
	spawnsToday int
	decisions   int
	lastActive  string
}

// readDecisions folds the decision log into per-genome stats. A missing
// log or unreadable lines degrade to zero stats.
func (r *Roster) readDecisions() map[string]genomeStats {
	stats := make(map[string]genomeStats)

	f, err := os.Open(r.decisionLog)
	if err != nil {
		return stats
	}
	defer f.Close()

	today := r.now().Format("2006-01-02")

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var d decision
		if err := unmarshalLine(scanner.Bytes(), &d); err != nil || d.Genome == "" {
			continue
		}
		s := stats[d.Genome]
		s.decisions++
		if d.Type == "spawn" && strings.HasPrefix(d.Ts, today) {
			s.spawnsToday++
		}
		if d.Ts > s.lastActive {
			s.lastActive = d.Ts
		}
		stats[d.Genome] = s
	}
	return stats
}

// View builds the roster view. points maps agent IDs (as reconstructed
// from genome names) to leaderboard points.
func (r *Roster) View(points map[string]int) *View {
	view := &View{Genomes: []Genome{}, ByCLI: make(map[string]CLIRollup)}
	stats := r.readDecisions()
	today := r.now().Format("2006-01-02")

	for _, f := range r.files() {
		g := Genome{
			Name:    f.Name,
			CLI:     domain.GenomeCLI(f.Name),
			Enabled: f.Enabled,
		}
		s := stats[f.Name]
		g.SpawnsToday = s.spawnsToday
		g.Decisions = s.decisions
		g.LastActive = s.lastActive
		if id := domain.AgentIDForGenome(f.Name); id != "" {
			g.PointsEarned = points[id]
		}
		view.Genomes = append(view.Genomes, g)

		roll := view.ByCLI[g.CLI]
		roll.Genomes++
		roll.Spawns += g.SpawnsToday
		roll.Points += g.PointsEarned
		view.ByCLI[g.CLI] = roll

		if g.SpawnsToday > 0 || strings.HasPrefix(g.LastActive, today) {
			view.ActiveToday++
		}
	}

	sort.SliceStable(view.Genomes, func(i, j int) bool {
		a, b := view.Genomes[i], view.Genomes[j]
		sa, sb := a.SpawnsToday*10+a.PointsEarned, b.SpawnsToday*10+b.PointsEarned
		if sa != sb {
			return sa > sb
		}
		return a.Name < b.Name
	})

	return view
}

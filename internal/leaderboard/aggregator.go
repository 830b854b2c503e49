// Package leaderboard merges the scoring artifacts produced by the
// external evolution process into one ranked view. Every input is
// best-effort: a missing or corrupt file degrades to an empty default
// so the dashboard always gets a view.
package leaderboard

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/kraliki/swarm-ops/internal/domain"
)

// Entry is one agent in the merged leaderboard.
type Entry struct {
	ID             string   `json:"id"`
	Lab            string   `json:"lab"`
	LabName        string   `json:"labName"`
	Role           string   `json:"role"`
	Points         int      `json:"points"`
	Rank           string   `json:"rank"`
	Badge          string   `json:"badge,omitempty"`
	Wins           int      `json:"wins"`
	Losses         int      `json:"losses"`
	FitnessScore   *float64 `json:"fitnessScore"`
	TasksCompleted int      `json:"tasksCompleted"`
	TasksAttempted int      `json:"tasksAttempted"`
	SuccessRate    float64  `json:"successRate"`
	TotalTokens    int64    `json:"totalTokens"`
	LastReport     string   `json:"lastReport,omitempty"`
}

// LabRollup aggregates entries per lab. AvgFitness is the mean over
// agents that have a fitness score, nil when none do.
type LabRollup struct {
	Agents     int      `json:"agents"`
	Points     int      `json:"points"`
	AvgFitness *float64 `json:"avgFitness"`
}

// RoleRollup aggregates entries per role.
type RoleRollup struct {
	Agents int `json:"agents"`
	Points int `json:"points"`
}

// View is the merged leaderboard served to the dashboard.
type View struct {
	Entries     []Entry               `json:"entries"`
	Labs        map[string]LabRollup  `json:"labs"`
	Roles       map[string]RoleRollup `json:"roles"`
	Season      string                `json:"season,omitempty"`
	LastUpdated string                `json:"last_updated,omitempty"`
}

// rankingsDoc mirrors the external leaderboard document.
type rankingsDoc struct {
	Rankings []struct {
		ID     string `json:"id"`
		Points int    `json:"points"`
		Rank   string `json:"rank"`
		Badge  string `json:"badge"`
		Wins   int    `json:"wins"`
		Losses int    `json:"losses"`
	} `json:"rankings"`
	Season      string `json:"season"`
	LastUpdated string `json:"last_updated"`
}

// fitnessDoc mirrors the external fitness-metrics document.
type fitnessDoc struct {
	Agents map[string]struct {
		FitnessScore   *float64 `json:"fitness_score"`
		TasksCompleted int      `json:"tasks_completed"`
		TasksAttempted int      `json:"tasks_attempted"`
		TotalTokens    int64    `json:"total_tokens"`
		LastReport     string   `json:"last_report"`
	} `json:"agents"`
}

// Aggregator builds merged views from the on-disk scoring artifacts.
type Aggregator struct {
	leaderboardPath string
	fitnessPath     string
}

// New creates an Aggregator over the given artifact paths.
func New(leaderboardPath, fitnessPath string) *Aggregator {
	return &Aggregator{leaderboardPath: leaderboardPath, fitnessPath: fitnessPath}
}

func readDoc[T any](path string) T {
	var doc T
	data, err := os.ReadFile(path)
	if err != nil {
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		var zero T
		return zero
	}
	return doc
}

// Build merges rankings and fitness metrics into a sorted view with
// lab and role rollups.
func (a *Aggregator) Build() *View {
	rankings := readDoc[rankingsDoc](a.leaderboardPath)
	fitness := readDoc[fitnessDoc](a.fitnessPath)

	view := &View{
		Entries:     []Entry{},
		Labs:        make(map[string]LabRollup),
		Roles:       make(map[string]RoleRollup),
		Season:      rankings.Season,
		LastUpdated: rankings.LastUpdated,
	}

	seen := make(map[string]bool)
	for _, r := range rankings.Rankings {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		id := domain.ParseAgentID(r.ID)
		entry := Entry{
			ID:      r.ID,
			Lab:     id.Lab.Code(),
			LabName: id.Lab.Name(),
			Role:    id.Role,
			Points:  r.Points,
			Rank:    r.Rank,
			Badge:   r.Badge,
			Wins:    r.Wins,
			Losses:  r.Losses,
		}
		if f, ok := fitness.Agents[r.ID]; ok {
			entry.FitnessScore = f.FitnessScore
			entry.TasksCompleted = f.TasksCompleted
			entry.TasksAttempted = f.TasksAttempted
			entry.TotalTokens = f.TotalTokens
			entry.LastReport = f.LastReport
		}
		entry.SuccessRate = successRate(entry.TasksCompleted, entry.TasksAttempted)
		view.Entries = append(view.Entries, entry)
	}

	// Agents known only to the fitness tracker still appear, with zero
	// leaderboard stats, so nobody silently drops off the board.
	fitnessIDs := make([]string, 0, len(fitness.Agents))
	for id := range fitness.Agents {
		fitnessIDs = append(fitnessIDs, id)
	}
	sort.Strings(fitnessIDs)
	for _, rawID := range fitnessIDs {
		if seen[rawID] {
			continue
		}
		f := fitness.Agents[rawID]
		id := domain.ParseAgentID(rawID)
		view.Entries = append(view.Entries, Entry{
			ID:             rawID,
			Lab:            id.Lab.Code(),
			LabName:        id.Lab.Name(),
			Role:           id.Role,
			Rank:           "Spawn",
			FitnessScore:   f.FitnessScore,
			TasksCompleted: f.TasksCompleted,
			TasksAttempted: f.TasksAttempted,
			TotalTokens:    f.TotalTokens,
			LastReport:     f.LastReport,
			SuccessRate:    successRate(f.TasksCompleted, f.TasksAttempted),
		})
	}

	sort.SliceStable(view.Entries, func(i, j int) bool {
		a, b := view.Entries[i], view.Entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return fitnessOrZero(a.FitnessScore) > fitnessOrZero(b.FitnessScore)
	})

	type labAcc struct {
		fitnessSum float64
		fitnessN   int
	}
	accs := make(map[string]labAcc)
	for _, e := range view.Entries {
		lab := view.Labs[e.Lab]
		lab.Agents++
		lab.Points += e.Points
		view.Labs[e.Lab] = lab
		if e.FitnessScore != nil {
			acc := accs[e.Lab]
			acc.fitnessSum += *e.FitnessScore
			acc.fitnessN++
			accs[e.Lab] = acc
		}

		if e.Role != "" {
			role := view.Roles[e.Role]
			role.Agents++
			role.Points += e.Points
			view.Roles[e.Role] = role
		}
	}
	for code, acc := range accs {
		if acc.fitnessN > 0 {
			avg := acc.fitnessSum / float64(acc.fitnessN)
			lab := view.Labs[code]
			lab.AvgFitness = &avg
			view.Labs[code] = lab
		}
	}

	return view
}

// PointsByID returns leaderboard points keyed by agent ID, for the
// genome roster's points-earned attribution.
func (a *Aggregator) PointsByID() map[string]int {
	rankings := readDoc[rankingsDoc](a.leaderboardPath)
	points := make(map[string]int, len(rankings.Rankings))
	for _, r := range rankings.Rankings {
		points[r.ID] = r.Points
	}
	return points
}

func successRate(completed, attempted int) float64 {
	if attempted == 0 {
		return 0
	}
	return float64(completed) / float64(attempted) * 100
}

func fitnessOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Package tui renders the fleet dashboard: pause state, agent health,
// leaderboard standings, and the genome roster, refreshed on a timer.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kraliki/swarm-ops/internal/caretaker"
	"github.com/kraliki/swarm-ops/internal/genomes"
	"github.com/kraliki/swarm-ops/internal/leaderboard"
	"github.com/kraliki/swarm-ops/internal/swarm"
)

// DataSource provides the dashboard's data on each refresh tick.
type DataSource interface {
	PauseState() *swarm.PauseState
	Health() *caretaker.Report
	Leaderboard() *leaderboard.View
	Genomes() *genomes.View
}

// PauseToggler flips the swarm between running and paused. Optional: a
// nil toggler renders the dashboard read-only.
type PauseToggler interface {
	Pause(actor string, killRunning bool) (swarm.Result, error)
	Resume() (swarm.Result, error)
}

// Model is the TUI application model
type Model struct {
	source  DataSource
	toggler PauseToggler

	// Data
	pause  *swarm.PauseState
	report *caretaker.Report
	board  *leaderboard.View
	roster *genomes.View

	// UI state
	width       int
	height      int
	activeTab   int
	selectedRow int
	scroll      int
	statusMsg   string

	// Refresh
	lastRefresh time.Time
}

// NewModel creates a new TUI model
func NewModel(source DataSource, toggler PauseToggler) Model {
	return Model{
		source:  source,
		toggler: toggler,
		pause:   &swarm.PauseState{},
		board:   &leaderboard.View{},
		roster:  &genomes.View{},
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(refreshCmd(m.source), tickCmd())
}

// TickMsg triggers a refresh
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// RefreshMsg carries a fresh data pull
type RefreshMsg struct {
	Pause  *swarm.PauseState
	Report *caretaker.Report
	Board  *leaderboard.View
	Roster *genomes.View
}

func refreshCmd(source DataSource) tea.Cmd {
	if source == nil {
		return nil
	}
	return func() tea.Msg {
		return RefreshMsg{
			Pause:  source.PauseState(),
			Report: source.Health(),
			Board:  source.Leaderboard(),
			Roster: source.Genomes(),
		}
	}
}

package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kraliki/swarm-ops/internal/caretaker"
	"github.com/kraliki/swarm-ops/internal/genomes"
	"github.com/kraliki/swarm-ops/internal/leaderboard"
	"github.com/kraliki/swarm-ops/internal/swarm"
)

type fakeSource struct {
	pause  *swarm.PauseState
	report *caretaker.Report
	board  *leaderboard.View
	roster *genomes.View
}

func (f *fakeSource) PauseState() *swarm.PauseState  { return f.pause }
func (f *fakeSource) Health() *caretaker.Report      { return f.report }
func (f *fakeSource) Leaderboard() *leaderboard.View { return f.board }
func (f *fakeSource) Genomes() *genomes.View         { return f.roster }

type fakeToggler struct {
	paused  int
	resumed int
}

func (f *fakeToggler) Pause(actor string, killRunning bool) (swarm.Result, error) {
	f.paused++
	return swarm.Result{Success: true, Message: "swarm paused by " + actor}, nil
}

func (f *fakeToggler) Resume() (swarm.Result, error) {
	f.resumed++
	return swarm.Result{Success: true, Message: "swarm resumed"}, nil
}

func testSource() *fakeSource {
	who := "ops"
	fitness := 0.91
	return &fakeSource{
		pause: &swarm.PauseState{Paused: true, PausedBy: &who},
		report: &caretaker.Report{
			TakenAt:      time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
			AgentsTotal:  4,
			AgentsOnline: 3,
			LongRunning:  []caretaker.LongRunner{{Name: "CC-architect", PID: 42, Age: "10h0m0s"}},
			Summary:      []string{"agents: 3/4 online, 0 errored"},
		},
		board: &leaderboard.View{
			Season: "S3",
			Entries: []leaderboard.Entry{
				{ID: "CC-architect", Rank: "Elder", Points: 120, FitnessScore: &fitness, SuccessRate: 90},
				{ID: "OC-backend", Rank: "Worker", Points: 80},
			},
		},
		roster: &genomes.View{
			ActiveToday: 1,
			Genomes: []genomes.Genome{
				{Name: "claude_architect", CLI: "claude", Enabled: true, SpawnsToday: 2},
				{Name: "codex_reviewer", CLI: "codex", Enabled: false},
			},
		},
	}
}

func refreshed(m Model, src *fakeSource) Model {
	updated, _ := m.Update(RefreshMsg{Pause: src.pause, Report: src.report, Board: src.board, Roster: src.roster})
	return updated.(Model)
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

func TestUpdate_QuitKey(t *testing.T) {
	m := NewModel(testSource(), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should produce a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestUpdate_TabCycles(t *testing.T) {
	m := NewModel(testSource(), nil)
	for want := 1; want <= tabCount; want++ {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = updated.(Model)
		if m.activeTab != want%tabCount {
			t.Fatalf("after %d tabs activeTab = %d, want %d", want, m.activeTab, want%tabCount)
		}
	}
}

func TestUpdate_SelectionStaysInBounds(t *testing.T) {
	src := testSource()
	m := refreshed(NewModel(src, nil), src)
	m.activeTab = 1 // leaderboard, two entries

	for i := 0; i < 5; i++ {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
		m = updated.(Model)
	}
	if m.selectedRow != 1 {
		t.Errorf("selectedRow = %d, want clamp at 1", m.selectedRow)
	}

	for i := 0; i < 5; i++ {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
		m = updated.(Model)
	}
	if m.selectedRow != 0 {
		t.Errorf("selectedRow = %d, want 0", m.selectedRow)
	}
}

func TestUpdate_PauseKeyUsesToggler(t *testing.T) {
	src := testSource()
	toggler := &fakeToggler{}
	m := refreshed(NewModel(src, toggler), src)

	// Swarm is paused in the fixture, so "p" resumes.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	if cmd == nil {
		t.Fatal("p should produce a command")
	}
	msg, ok := cmd().(ToggleResultMsg)
	if !ok {
		t.Fatalf("got %T, want ToggleResultMsg", cmd())
	}
	if toggler.resumed != 1 || toggler.paused != 0 {
		t.Errorf("toggler calls = %d paused, %d resumed", toggler.paused, toggler.resumed)
	}

	updated, _ := m.Update(msg)
	m = updated.(Model)
	if m.statusMsg != "swarm resumed" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestUpdate_PauseKeyReadOnlyWithoutToggler(t *testing.T) {
	src := testSource()
	m := refreshed(NewModel(src, nil), src)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	if cmd != nil {
		t.Error("p without a toggler should be a no-op")
	}
}

func TestView_FleetTab(t *testing.T) {
	src := testSource()
	m := sized(refreshed(NewModel(src, nil), src))

	out := m.View()
	if !strings.Contains(out, "PAUSED by ops") {
		t.Error("header should show pause state and actor")
	}
	if !strings.Contains(out, "Agents: 3/4") {
		t.Error("header should show agent counts")
	}
	if !strings.Contains(out, "CC-architect") || !strings.Contains(out, "10h0m0s") {
		t.Error("fleet tab should list long-running agents")
	}
}

func TestView_LeaderboardTab(t *testing.T) {
	src := testSource()
	m := sized(refreshed(NewModel(src, nil), src))
	m.activeTab = 1

	out := m.View()
	if !strings.Contains(out, "S3") {
		t.Error("leaderboard tab should show the season")
	}
	if !strings.Contains(out, "Elder") || !strings.Contains(out, "120") {
		t.Error("leaderboard tab should render entries")
	}
	if !strings.Contains(out, "0.91") {
		t.Error("leaderboard tab should render fitness scores")
	}
}

func TestView_GenomesTab(t *testing.T) {
	src := testSource()
	m := sized(refreshed(NewModel(src, nil), src))
	m.activeTab = 2

	out := m.View()
	if !strings.Contains(out, "claude_architect") || !strings.Contains(out, "codex_reviewer") {
		t.Error("genomes tab should list both genomes")
	}
	if !strings.Contains(out, "1 active today") {
		t.Error("genomes tab should show the active count")
	}
}

func TestView_BeforeFirstSize(t *testing.T) {
	m := NewModel(testSource(), nil)
	if m.View() != "Loading..." {
		t.Error("zero width should render the loading placeholder")
	}
}

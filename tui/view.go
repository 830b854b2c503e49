package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// visibleRows is how many list rows fit in a section before scrolling.
const visibleRows = 15

var (
	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimmedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255"))

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Underline(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))
)

var tabNames = []string{"Fleet", "Leaderboard", "Genomes"}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	state := runningStyle.Render("RUNNING")
	if m.pause != nil && m.pause.Paused {
		who := "?"
		if m.pause.PausedBy != nil {
			who = *m.pause.PausedBy
		}
		state = pausedStyle.Render("PAUSED by " + who)
	}

	header := " Kraliki Swarm │ " + state
	if m.report != nil {
		header += fmt.Sprintf(" │ Agents: %d/%d │ Services: %d/%d",
			m.report.AgentsOnline, m.report.AgentsTotal,
			m.report.ServicesOnline, m.report.ServicesTotal)
	}
	header += " "
	b.WriteString(headerStyle.Width(m.width).Render(header))
	b.WriteString("\n")

	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	var section string
	switch m.activeTab {
	case 0:
		section = m.renderFleet()
	case 1:
		section = m.renderLeaderboard()
	case 2:
		section = m.renderGenomes()
	}
	b.WriteString(sectionStyle.Width(m.width - 2).Render(section))
	b.WriteString("\n")

	if m.statusMsg != "" {
		b.WriteString(dimmedStyle.Width(m.width).Render(" " + m.statusMsg + " "))
		b.WriteString("\n")
	}

	keys := " [tab] switch  [j/k] move  [p] pause/resume  [r] refresh  [q] quit "
	b.WriteString(statusBarStyle.Width(m.width).Render(keys))

	return b.String()
}

func (m Model) renderTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		if i == m.activeTab {
			parts[i] = tabActiveStyle.Render(name)
		} else {
			parts[i] = tabInactiveStyle.Render(name)
		}
	}
	return " " + strings.Join(parts, "  ")
}

func (m Model) renderFleet() string {
	var b strings.Builder
	b.WriteString("Fleet Health\n\n")

	if m.report == nil {
		b.WriteString(dimmedStyle.Render("no snapshot yet"))
		return b.String()
	}

	r := m.report.Resources
	b.WriteString(fmt.Sprintf("Memory  %5.1f%%   Disk  %5.1f%%   Load  %.2f / %.2f / %.2f\n\n",
		r.MemoryUsedPct, r.DiskUsedPct, r.Load1, r.Load5, r.Load15))

	if len(m.report.LongRunning) == 0 {
		b.WriteString(runningStyle.Render("No long-running agents"))
		b.WriteString("\n")
	} else {
		b.WriteString(warningStyle.Render(fmt.Sprintf("%d long-running agent(s):", len(m.report.LongRunning))))
		b.WriteString("\n")
		for _, lr := range m.report.LongRunning {
			b.WriteString(fmt.Sprintf("  %s (pid %d, up %s)\n", lr.Name, lr.PID, lr.Age))
		}
	}

	if m.report.AgentsErrored > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d errored agent(s)", m.report.AgentsErrored)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for _, line := range m.report.Summary {
		b.WriteString(dimmedStyle.Render(line))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderLeaderboard() string {
	var b strings.Builder
	title := "Leaderboard"
	if m.board.Season != "" {
		title += " │ " + m.board.Season
	}
	b.WriteString(title + "\n\n")

	if len(m.board.Entries) == 0 {
		b.WriteString(dimmedStyle.Render("no rankings yet"))
		return b.String()
	}

	b.WriteString(dimmedStyle.Render(fmt.Sprintf("   %-24s %-10s %6s %8s %8s", "AGENT", "RANK", "PTS", "FITNESS", "SUCCESS")))
	b.WriteString("\n")

	end := m.scroll + visibleRows
	if end > len(m.board.Entries) {
		end = len(m.board.Entries)
	}
	for i := m.scroll; i < end; i++ {
		e := m.board.Entries[i]
		fitness := "-"
		if e.FitnessScore != nil {
			fitness = fmt.Sprintf("%.2f", *e.FitnessScore)
		}
		line := fmt.Sprintf("%2d %-24s %-10s %6d %8s %7.0f%%",
			i+1, e.ID, e.Rank, e.Points, fitness, e.SuccessRate)
		if i == m.selectedRow {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderGenomes() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Genomes │ %d active today\n\n", m.roster.ActiveToday))

	if len(m.roster.Genomes) == 0 {
		b.WriteString(dimmedStyle.Render("no genomes on disk"))
		return b.String()
	}

	b.WriteString(dimmedStyle.Render(fmt.Sprintf("   %-28s %-10s %7s %7s %6s", "GENOME", "CLI", "SPAWNS", "POINTS", "STATE")))
	b.WriteString("\n")

	end := m.scroll + visibleRows
	if end > len(m.roster.Genomes) {
		end = len(m.roster.Genomes)
	}
	for i := m.scroll; i < end; i++ {
		g := m.roster.Genomes[i]
		state := runningStyle.Render("on")
		if !g.Enabled {
			state = dimmedStyle.Render("off")
		}
		line := fmt.Sprintf("   %-28s %-10s %7d %7d %6s", g.Name, g.CLI, g.SpawnsToday, g.PointsEarned, state)
		if i == m.selectedRow {
			line = selectedStyle.Render(fmt.Sprintf("   %-28s %-10s %7d %7d", g.Name, g.CLI, g.SpawnsToday, g.PointsEarned)) + " " + state
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

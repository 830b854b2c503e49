package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

const tabCount = 3

// ToggleResultMsg is sent when a pause/resume action completes
type ToggleResultMsg struct {
	Message string
	Err     error
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, refreshCmd(m.source)
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			m.selectedRow = 0
			m.scroll = 0
		case "j", "down":
			m.selectedRow++
			max := m.rowCount() - 1
			if max < 0 {
				max = 0
			}
			if m.selectedRow > max {
				m.selectedRow = max
			}
			if m.selectedRow >= m.scroll+visibleRows {
				m.scroll = m.selectedRow - visibleRows + 1
			}
		case "k", "up":
			if m.selectedRow > 0 {
				m.selectedRow--
			}
			if m.selectedRow < m.scroll {
				m.scroll = m.selectedRow
			}
		case "p":
			if m.toggler != nil {
				return m, togglePauseCmd(m.toggler, m.pause.Paused)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		return m, tea.Batch(refreshCmd(m.source), tickCmd())

	case RefreshMsg:
		m.pause = msg.Pause
		m.report = msg.Report
		m.board = msg.Board
		m.roster = msg.Roster

	case ToggleResultMsg:
		if msg.Err != nil {
			m.statusMsg = "Error: " + msg.Err.Error()
		} else {
			m.statusMsg = msg.Message
		}
		return m, refreshCmd(m.source)
	}

	return m, nil
}

// rowCount is the number of selectable rows in the active tab.
func (m Model) rowCount() int {
	switch m.activeTab {
	case 1:
		return len(m.board.Entries)
	case 2:
		return len(m.roster.Genomes)
	}
	return 0
}

func togglePauseCmd(toggler PauseToggler, paused bool) tea.Cmd {
	return func() tea.Msg {
		var (
			res ToggleResultMsg
			err error
		)
		if paused {
			result, e := toggler.Resume()
			res.Message, err = result.Message, e
		} else {
			result, e := toggler.Pause("tui", false)
			res.Message, err = result.Message, e
		}
		res.Err = err
		return res
	}
}

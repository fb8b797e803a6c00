package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	entryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateDetail
)

type dumpModel struct {
	err       error
	filename  string
	mode      string
	chunkSize uint32
	entries   []entry
	selected  int
	state     modelState
	view      viewport.Model
	width     int
	height    int
}

type loadedMsg struct {
	err     error
	entries []entry
}

func newDumpModel(filename, mode string, chunkSize uint32) *dumpModel {
	return &dumpModel{
		filename:  filename,
		mode:      mode,
		chunkSize: chunkSize,
		state:     stateBrowse,
		view:      viewport.New(80, 20),
	}
}

func (m *dumpModel) Init() tea.Cmd {
	return m.load
}

func (m *dumpModel) load() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	entries, err := loadEntries(data, m.mode, m.chunkSize)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{entries: entries}
}

func (m *dumpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width
		m.view.Height = msg.Height - 4

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.entries)-1 {
				m.selected++
			}

		case "enter":
			if m.state == stateBrowse && len(m.entries) > 0 {
				m.view.SetContent(m.entries[m.selected].detail)
				m.view.GotoTop()
				m.state = stateDetail
			}

		case "esc":
			if m.state == stateDetail {
				m.state = stateBrowse
			}
		}

	case loadedMsg:
		m.err = msg.err
		m.entries = msg.entries
	}

	if m.state == stateDetail {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *dumpModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.entries == nil {
		return "Loading capture..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Wire Dump"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	fmt.Fprintf(&b, "  (%s, %d entries)\n\n", m.mode, len(m.entries))

	switch m.state {
	case stateBrowse:
		for i, e := range m.entries {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + e.title))
			} else {
				b.WriteString(cursor + entryStyle.Render(e.title))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • q quit"))

	case stateDetail:
		b.WriteString(detailStyle.Render(m.entries[m.selected].title))
		b.WriteString("\n")
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func runInteractive(filename, mode string, chunkSize uint32) error {
	p := tea.NewProgram(newDumpModel(filename, mode, chunkSize), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

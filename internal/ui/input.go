package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/castaway/internal/logging/events"
	"github.com/atomicstack/castaway/internal/message"
)

// openInput shows the feed URL prompt on the bottom row.
func (m *Model) openInput() tea.Cmd {
	m.inputActive = true
	m.input.Reset()
	m.input.Width = m.width - len(feedPrompt) - 1
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.inputActive = false
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		events.UI.Input(m.input.Value(), false)
		m.closeInput()
		return nil
	case tea.KeyEnter:
		url := strings.TrimSpace(m.input.Value())
		events.UI.Input(url, true)
		m.closeInput()
		if url != "" {
			m.send(message.AddFeed{URL: url})
		}
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// InputValue returns the text typed into the feed prompt.
func (m *Model) InputValue() string {
	return m.input.Value()
}

// InputActive reports whether the feed prompt is open.
func (m *Model) InputActive() bool {
	return m.inputActive
}

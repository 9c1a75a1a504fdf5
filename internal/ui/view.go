package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/atomicstack/castaway/internal/format/table"
)

var welcomeKeys = [][]string{
	{"a", "add a podcast feed"},
	{"s / S", "sync the podcast / every podcast"},
	{"j k ↑ ↓", "move the cursor"},
	{"h l ← →", "switch between podcasts and episodes"},
	{"p", "play the episode"},
	{"m / M", "toggle played / toggle the whole podcast"},
	{"d / D", "download the episode / every episode"},
	{"q", "quit"},
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var body string
	switch {
	case m.picker != nil:
		body = m.pickPanel.Render(styles)
	case m.podcasts.Len() == 0 && m.podcasts.Err() == nil:
		body = m.welcomeView()
	default:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.podPanel.Render(styles), m.epPanel.Render(styles))
	}
	return body + "\n" + m.bottomLine()
}

func (m *Model) welcomeView() string {
	lines := []string{
		styles.Header.Render("Welcome to castaway!"),
		"",
		"Your podcast list is empty.",
		"",
	}
	for _, row := range table.Format(welcomeKeys, []table.Alignment{table.AlignRight, table.AlignLeft}) {
		lines = append(lines, styles.Welcome.Render(row))
	}
	box := styles.Border.
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Border.GetForeground()).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) bottomLine() string {
	if m.inputActive {
		return m.input.View()
	}
	if m.message == "" {
		return ""
	}
	style := styles.Message
	if m.messageErr {
		style = styles.Error
	}
	return style.Render(truncate.String(m.message, uint(max(m.width, 0))))
}

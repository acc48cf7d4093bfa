package tui

import (
	"errors"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/charmbracelet/lipgloss"
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := m.theme.Title.Render("💶 Household ledger") + "  " + m.theme.Subtitle.Render(m.status())
	buttons := m.renderButtons()
	input := m.theme.BorderedBox.Width(max(m.width-4, 10)).Render(m.input.View())
	help := m.renderHelp()

	used := lipgloss.Height(header) + lipgloss.Height(buttons) + lipgloss.Height(input) + lipgloss.Height(help)
	transcript := m.renderTranscript(max(m.height-used, 3))

	return lipgloss.JoinVertical(lipgloss.Left, header, transcript, buttons, input, help)
}

func (m Model) status() string {
	switch {
	case m.sending:
		return m.theme.StatusSending.Render("sending…")
	case errors.Is(m.lastErr, common.ErrUnauthorized):
		return m.theme.StatusError.Render("not allowed")
	case errors.Is(m.lastErr, common.ErrRateLimited):
		return m.theme.StatusError.Render("slow down")
	}
	return m.theme.StatusInfo.Render("ready")
}

// renderTranscript shows the most recent lines that fit in height.
func (m Model) renderTranscript(height int) string {
	width := max(m.width-2, 10)
	var lines []string
	for _, e := range m.transcript {
		style := m.theme.Bot
		text := e.text
		if e.fromUser {
			style = m.theme.User
			text = "› " + text
		}
		rendered := style.Width(width).Render(text)
		lines = append(lines, strings.Split(rendered, "\n")...)
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for len(lines) < height {
		lines = append([]string{""}, lines...)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderButtons() string {
	var rows []string
	i := 0
	for _, row := range m.rows {
		cells := make([]string, 0, len(row))
		for _, b := range row {
			style := m.theme.Button
			if m.focus == focusButtons && i == m.cursor {
				style = m.theme.Selected
			}
			cells = append(cells, style.Render(b.Label))
			i++
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keymap.ShortHelp()))
	for _, b := range m.keymap.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.theme.Help.Render(strings.Join(parts, " • "))
}
